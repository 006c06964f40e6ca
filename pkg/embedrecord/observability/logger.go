// Package observability provides logging, metrics, and tracing for embedrecord.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
// Every logging helper accepts a nil logger and does nothing with it.
package observability

import (
	"log/slog"
	"time"
)

// RelationLogger adds relation context to a logger.
//
// Example:
//
//	logger := RelationLogger(base, "colors", "many")
//	logger.Debug("encoding") // includes relation and relation_kind
func RelationLogger(logger *slog.Logger, relation, kind string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("relation", relation),
		slog.String("relation_kind", kind),
	)
}

// LogRegistrySealed logs a registry being frozen.
func LogRegistrySealed(logger *slog.Logger, registry string, records int, hasNull bool) {
	if logger == nil {
		return
	}
	logger.Debug("registry sealed",
		slog.String("registry", registry),
		slog.Int("records", records),
		slog.Bool("null_record", hasNull),
	)
}

// LogRelationBound logs a relation bound to a registry.
func LogRelationBound(logger *slog.Logger, relation, registry, slot, kind string) {
	if logger == nil {
		return
	}
	logger.Debug("relation bound",
		slog.String("relation", relation),
		slog.String("registry", registry),
		slog.String("slot", slot),
		slog.String("relation_kind", kind),
	)
}

// LogDroppedIDs logs identifiers a multi reference write ignored.
func LogDroppedIDs(logger *slog.Logger, relation string, ids []string) {
	if logger == nil || len(ids) == 0 {
		return
	}
	logger.Debug("unknown ids dropped",
		slog.String("relation", relation),
		slog.Any("ids", ids),
	)
}

// LogSetMiss logs a single reference write that matched no record.
func LogSetMiss(logger *slog.Logger, relation, id string) {
	if logger == nil {
		return
	}
	logger.Warn("record not found",
		slog.String("relation", relation),
		slog.String("id", id),
	)
}

// LogQuery logs a completed store query.
func LogQuery(logger *slog.Logger, backend, filter string, rows int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("store query completed",
		slog.String("backend", backend),
		slog.String("filter", filter),
		slog.Int("rows", rows),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogQueryError logs a failed store operation.
func LogQueryError(logger *slog.Logger, backend, op string, err error) {
	if logger == nil {
		return
	}
	logger.Error("store operation failed",
		slog.String("backend", backend),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// LogRetry logs a store operation about to be retried.
func LogRetry(logger *slog.Logger, backend, op string, attempt int, err error) {
	if logger == nil {
		return
	}
	logger.Warn("store operation retrying",
		slog.String("backend", backend),
		slog.String("operation", op),
		slog.Int("attempt", attempt),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
