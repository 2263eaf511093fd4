package harvest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	lowResMarker  = "/a/604/"
	highResMarker = "/a/1280/"
)

// Upgrader maps a media URL to the best variant available
type Upgrader interface {
	Upgrade(ctx context.Context, rawURL string) string
}

// HighResCandidate rewrites the first low resolution path marker, if any
func HighResCandidate(rawURL string) (string, bool) {
	if !strings.Contains(rawURL, lowResMarker) {
		return rawURL, false
	}
	return strings.Replace(rawURL, lowResMarker, highResMarker, 1), true
}

// ResolutionUpgrader probes the high resolution variant with a HEAD request
// and falls back to the original URL on any failure.
type ResolutionUpgrader struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	logger    *zap.Logger
	metrics   *Metrics
}

// NewResolutionUpgrader creates a new upgrader; timeout bounds each probe, zero means none
func NewResolutionUpgrader(client *http.Client, timeout time.Duration, userAgent string, logger *zap.Logger, metrics *Metrics) *ResolutionUpgrader {
	if client == nil {
		client = NewHTTPClient(0)
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &ResolutionUpgrader{
		client:    client,
		timeout:   timeout,
		userAgent: userAgent,
		logger:    logger.Named("upgrader"),
		metrics:   metrics,
	}
}

func (u *ResolutionUpgrader) Upgrade(ctx context.Context, rawURL string) string {
	candidate, ok := HighResCandidate(rawURL)
	if !ok {
		return rawURL
	}

	probeCtx := ctx
	if u.timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, candidate, nil)
	if err != nil {
		u.metrics.probe(ctx, "error")
		return rawURL
	}
	req.Header.Set("User-Agent", resolveUserAgent(u.userAgent))

	resp, err := u.client.Do(req)
	if err != nil {
		u.logger.Debug("high resolution probe failed", zap.String("url", candidate), zap.Error(err))
		u.metrics.probe(ctx, "error")
		return rawURL
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		u.metrics.probe(ctx, "missing")
		return rawURL
	}
	u.metrics.probe(ctx, "upgraded")
	return candidate
}
