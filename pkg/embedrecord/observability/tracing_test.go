package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTracingTest installs a tracer provider with an in-memory exporter.
func setupTracingTest(t *testing.T) (*tracetest.InMemoryExporter, func()) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	originalProvider := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("embedrecord")

	cleanup := func() {
		otel.SetTracerProvider(originalProvider)
		tracer = otel.Tracer("embedrecord")
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	}
	return exporter, cleanup
}

func TestStartStoreSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	_, span := StartStoreSpan(context.Background(), "sqlite", "select")
	require.NotNil(t, span)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	s := spans[0]
	assert.Equal(t, "embedrecord.store.select", s.Name)
	assert.Contains(t, s.Attributes, attribute.String("store.backend", "sqlite"))
	assert.Contains(t, s.Attributes, attribute.String("store.operation", "select"))
}

func TestEndSpanWithError(t *testing.T) {
	t.Run("success sets ok status", func(t *testing.T) {
		exporter, cleanup := setupTracingTest(t)
		defer cleanup()

		_, span := StartStoreSpan(context.Background(), "memory", "save")
		EndSpanWithError(span, nil)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Ok, spans[0].Status.Code)
	})

	t.Run("error sets error status and event", func(t *testing.T) {
		exporter, cleanup := setupTracingTest(t)
		defer cleanup()

		_, span := StartStoreSpan(context.Background(), "memory", "load")
		EndSpanWithError(span, errors.New("row missing"))

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
		assert.Equal(t, "row missing", spans[0].Status.Description)
		require.NotEmpty(t, spans[0].Events)
		assert.Equal(t, "exception", spans[0].Events[0].Name)
	})

	t.Run("nil span does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() { EndSpanWithError(nil, nil) })
	})
}

func TestAddSpanEvent(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	ctx, span := StartStoreSpan(context.Background(), "sqlite", "select")
	AddSpanEvent(ctx, "filter compiled", attribute.String("sql", "colors_mask & ? != 0"))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "filter compiled", spans[0].Events[0].Name)
}

func TestSpanManager(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	var managers = []SpanManager{NewSpanManager(), NoopSpanManager{}}
	for _, m := range managers {
		ctx, span := m.StartStoreSpan(context.Background(), "sqlite", "delete")
		m.AddSpanEvent(ctx, "deleted")
		m.EndSpanWithError(span, nil)
	}

	spans := exporter.GetSpans()
	require.Len(t, spans, 1, "only the otel manager exports spans")
	assert.Equal(t, "embedrecord.store.delete", spans[0].Name)
}
