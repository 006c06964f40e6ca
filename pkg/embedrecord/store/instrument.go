package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/embedrecord/pkg/embedrecord/observability"
	"github.com/randalmurphal/embedrecord/pkg/embedrecord/query"
)

// instrument wraps store operations in a span, a metric and a log line.
type instrument struct {
	backend string
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	retry   RetryConfig
}

func newInstrument(backend string, o options) instrument {
	return instrument{
		backend: backend,
		logger:  o.logger,
		metrics: o.metrics,
		spans:   o.spans,
		retry:   o.retry,
	}
}

// run executes fn, which returns the number of rows it touched, retrying
// transient failures.
func (in instrument) run(ctx context.Context, op string, fn func(ctx context.Context) (int, error)) error {
	ctx, span := in.spans.StartStoreSpan(ctx, in.backend, op)
	done := observability.TimedOperation()

	rows, err := withRetry(ctx, in.retry, fn, func(attempt int, err error) {
		in.spans.AddSpanEvent(ctx, "retry", attribute.Int("store.attempt", attempt))
		observability.LogRetry(in.logger, in.backend, op, attempt, err)
	})

	elapsed := done()
	in.metrics.RecordQuery(ctx, in.backend, op, time.Duration(elapsed*float64(time.Millisecond)), rows, err)
	in.spans.EndSpanWithError(span, err)
	if err != nil && !errors.Is(err, ErrRowNotFound) {
		observability.LogQueryError(in.logger, in.backend, op, err)
	}
	return err
}

// selecting is run for Select, adding the filter to the span and logs.
func (in instrument) selecting(ctx context.Context, p query.Predicate, fn func(ctx context.Context) (int, error)) error {
	filter := "all"
	if p != nil {
		filter = p.String()
	}
	return in.run(ctx, "select", func(ctx context.Context) (int, error) {
		done := observability.TimedOperation()
		in.spans.AddSpanEvent(ctx, "filter", attribute.String("store.filter", filter))
		n, err := fn(ctx)
		if err == nil {
			observability.LogQuery(in.logger, in.backend, filter, n, done())
		}
		return n, err
	})
}
