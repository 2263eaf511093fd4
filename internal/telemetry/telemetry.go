package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

const meterName = "github.com/shaibs3/mediavault"

// Telemetry owns the OpenTelemetry meter provider and the Prometheus registry it exports to
type Telemetry struct {
	Meter    metric.Meter
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
}

// NewTelemetry creates a meter provider exporting to prometheus
func NewTelemetry(logger *zap.Logger) (*Telemetry, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	logger.Named("telemetry").Info("telemetry initialized")
	return &Telemetry{
		Meter:    provider.Meter(meterName),
		registry: registry,
		provider: provider,
		logger:   logger.Named("telemetry"),
	}, nil
}

// Handler serves the Prometheus scrape endpoint
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the meter provider
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if err := t.provider.Shutdown(ctx); err != nil {
		t.logger.Error("failed to shutdown meter provider", zap.Error(err))
		return err
	}
	return nil
}
