package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shaibs3/mediavault/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const requestIDHeader = "X-Request-ID"

// Handler is implemented by every group of routes mounted on the router
type Handler interface {
	RegisterRoutes(router *mux.Router, logger *zap.Logger)
}

// Router wraps a gorilla mux with request id, logging, rate limiting and metrics middleware
type Router struct {
	mux      *mux.Router
	limiter  *rate.Limiter
	logger   *zap.Logger
	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

// NewRouter creates a new router instance
func NewRouter(limiter *rate.Limiter, tel *telemetry.Telemetry, logger *zap.Logger, handlers []Handler) *Router {
	var meter metric.Meter = noop.NewMeterProvider().Meter("router")
	if tel != nil {
		meter = tel.Meter
	}
	requests, _ := meter.Int64Counter("http_requests_total",
		metric.WithDescription("HTTP requests by route, method and status"))
	latency, _ := meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"))

	r := &Router{
		mux:      mux.NewRouter(),
		limiter:  limiter,
		logger:   logger.Named("http"),
		requests: requests,
		latency:  latency,
	}

	r.mux.HandleFunc("/health", handleHealth).Methods("GET")
	if tel != nil {
		r.mux.Handle("/metrics", tel.Handler()).Methods("GET")
	}

	api := r.mux.PathPrefix("/").Subrouter()
	api.Use(r.requestID, r.logging, r.rateLimit, r.metrics)
	for _, h := range handlers {
		h.RegisterRoutes(api, logger)
	}
	return r
}

// CreateServer returns an http.Server serving the router on addr
func (r *Router) CreateServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (r *Router) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := req.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			req.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, req)
	})
}

func (r *Router) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		r.logger.Info("request",
			zap.String("request_id", req.Header.Get(requestIDHeader)),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(started)))
	})
}

func (r *Router) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.limiter != nil && !r.limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Too many requests"})
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (r *Router) metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)

		route := req.URL.Path
		if current := mux.CurrentRoute(req); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		attrs := metric.WithAttributes(
			attribute.String("route", route),
			attribute.String("method", req.Method),
			attribute.Int("status", rec.status),
		)
		r.requests.Add(req.Context(), 1, attrs)
		r.latency.Record(req.Context(), time.Since(started).Seconds(), attrs)
	})
}
