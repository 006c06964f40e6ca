package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records embedrecord metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEncode records a relation write with the number of ids stored and dropped.
	RecordEncode(ctx context.Context, relation string, stored, dropped int)

	// RecordMiss records a single reference write whose id matched no record.
	RecordMiss(ctx context.Context, relation string)

	// RecordQuery records a store operation with its duration, row count and error status.
	RecordQuery(ctx context.Context, backend, op string, duration time.Duration, rows int, err error)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	encodedIDs   metric.Int64Counter
	droppedIDs   metric.Int64Counter
	setMisses    metric.Int64Counter
	queries      metric.Int64Counter
	queryErrors  metric.Int64Counter
	queryLatency metric.Float64Histogram
	queryRows    metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("embedrecord")

	encodedIDs, err := meter.Int64Counter("embedrecord.encode.ids",
		metric.WithDescription("Number of ids written into relation slots"),
	)
	if err != nil {
		return nil, err
	}

	droppedIDs, err := meter.Int64Counter("embedrecord.encode.dropped",
		metric.WithDescription("Number of unknown ids dropped by multi reference writes"),
	)
	if err != nil {
		return nil, err
	}

	setMisses, err := meter.Int64Counter("embedrecord.set.misses",
		metric.WithDescription("Number of single reference writes with no matching record"),
	)
	if err != nil {
		return nil, err
	}

	queries, err := meter.Int64Counter("embedrecord.store.queries",
		metric.WithDescription("Number of store operations"),
	)
	if err != nil {
		return nil, err
	}

	queryErrors, err := meter.Int64Counter("embedrecord.store.errors",
		metric.WithDescription("Number of failed store operations"),
	)
	if err != nil {
		return nil, err
	}

	queryLatency, err := meter.Float64Histogram("embedrecord.store.latency_ms",
		metric.WithDescription("Store operation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	queryRows, err := meter.Int64Histogram("embedrecord.store.rows",
		metric.WithDescription("Rows returned by store queries"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		encodedIDs:   encodedIDs,
		droppedIDs:   droppedIDs,
		setMisses:    setMisses,
		queries:      queries,
		queryErrors:  queryErrors,
		queryLatency: queryLatency,
		queryRows:    queryRows,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordEncode records a relation write.
func (m *otelMetrics) RecordEncode(ctx context.Context, relation string, stored, dropped int) {
	attrs := metric.WithAttributes(attribute.String("relation", relation))
	m.encodedIDs.Add(ctx, int64(stored), attrs)
	if dropped > 0 {
		m.droppedIDs.Add(ctx, int64(dropped), attrs)
	}
}

// RecordMiss records a single reference miss.
func (m *otelMetrics) RecordMiss(ctx context.Context, relation string) {
	m.setMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("relation", relation)))
}

// RecordQuery records a store operation.
func (m *otelMetrics) RecordQuery(ctx context.Context, backend, op string, duration time.Duration, rows int, err error) {
	attrs := metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("operation", op),
	)
	m.queries.Add(ctx, 1, attrs)
	m.queryLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	m.queryRows.Record(ctx, int64(rows), attrs)
	if err != nil {
		m.queryErrors.Add(ctx, 1, attrs)
	}
}
