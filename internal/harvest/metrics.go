package harvest

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics groups the instruments recorded while harvesting
type Metrics struct {
	downloads metric.Int64Counter
	bytes     metric.Int64Counter
	inFlight  metric.Int64UpDownCounter
	probes    metric.Int64Counter
}

// NewMetrics registers the harvest instruments on meter. A nil meter yields no-op instruments.
func NewMetrics(meter metric.Meter) *Metrics {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("harvest")
	}

	downloads, _ := meter.Int64Counter(
		"media_downloads_total",
		metric.WithDescription("Media downloads by outcome"),
	)
	bytes, _ := meter.Int64Counter(
		"media_download_bytes_total",
		metric.WithDescription("Bytes written by media downloads"),
		metric.WithUnit("By"),
	)
	inFlight, _ := meter.Int64UpDownCounter(
		"media_downloads_in_flight",
		metric.WithDescription("Downloads currently running"),
	)
	probes, _ := meter.Int64Counter(
		"resolution_probes_total",
		metric.WithDescription("High resolution probes by result"),
	)

	return &Metrics{downloads: downloads, bytes: bytes, inFlight: inFlight, probes: probes}
}

func (m *Metrics) download(ctx context.Context, err error, size int64) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.downloads.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if size > 0 {
		m.bytes.Add(ctx, size)
	}
}

func (m *Metrics) probe(ctx context.Context, result string) {
	m.probes.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
