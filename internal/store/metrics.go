package store

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type storeMetrics struct {
	operations metric.Int64Counter
	duration   metric.Float64Histogram
}

func newStoreMetrics(meter metric.Meter) *storeMetrics {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("store")
	}
	operations, _ := meter.Int64Counter("store_operations_total",
		metric.WithDescription("Store operations by backend, operation and result"))
	duration, _ := meter.Float64Histogram("store_operation_duration_seconds",
		metric.WithDescription("Store operation latency"),
		metric.WithUnit("s"))
	return &storeMetrics{operations: operations, duration: duration}
}

func (m *storeMetrics) record(ctx context.Context, backend DbType, op string, started time.Time, err error) {
	result := "ok"
	switch {
	case err == nil:
	case isDomainError(err):
		result = "rejected"
	default:
		result = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("backend", backend.String()),
		attribute.String("operation", op),
		attribute.String("result", result),
	)
	m.operations.Add(ctx, 1, attrs)
	m.duration.Record(ctx, time.Since(started).Seconds(), attrs)
}
