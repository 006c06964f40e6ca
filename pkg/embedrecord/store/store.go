// Package store persists hosts whose reference columns hold record positions
// and masks, and selects them with query predicates.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/randalmurphal/embedrecord/pkg/embedrecord"
	"github.com/randalmurphal/embedrecord/pkg/embedrecord/observability"
	"github.com/randalmurphal/embedrecord/pkg/embedrecord/query"
)

// Store persists rows of reference columns.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save inserts or replaces a row. A row with a nil ID is given a new one.
	// Every set column must be declared on the store.
	Save(ctx context.Context, row *Row) error

	// Load returns a copy of a row.
	// Returns ErrRowNotFound if the row doesn't exist.
	Load(ctx context.Context, id uuid.UUID) (*Row, error)

	// Delete removes a row.
	// Returns nil if the row doesn't exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Select returns copies of the rows matching p in first-save order.
	// A nil predicate matches every row.
	Select(ctx context.Context, p query.Predicate) ([]*Row, error)

	// Columns returns the declared columns in declaration order.
	Columns() []string

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for store operations.
var (
	// ErrRowNotFound indicates a row doesn't exist.
	ErrRowNotFound = errors.New("row not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("store closed")

	// ErrUnknownColumn indicates a row or predicate used an undeclared column.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrInvalidColumn indicates a column name that cannot be declared.
	ErrInvalidColumn = errors.New("invalid column name")
)

// Columner is anything that names a storage column, such as a bound relation.
type Columner interface {
	Column() string
}

// ColumnsOf returns the storage columns of relations, for declaring a store.
//
//	st, err := store.NewSQLiteStore(path, store.ColumnsOf(CarColor, CarExtras))
func ColumnsOf(relations ...Columner) []string {
	cols := make([]string, 0, len(relations))
	for _, r := range relations {
		cols = append(cols, r.Column())
	}
	return cols
}

// Column returns a Slot that keeps a relation's value in the named row column.
//
//	CarColor := embedrecord.MustBindOne("color", Colors, store.Column("color_mask"))
func Column(name string) embedrecord.Slot[*Row] {
	return embedrecord.SlotFuncs[*Row]{
		LoadFunc: func(r *Row) (int64, bool) {
			return r.Value(name)
		},
		StoreFunc: func(r *Row, value int64, valid bool) {
			if valid {
				r.Set(name, value)
			} else {
				r.Unset(name)
			}
		},
	}
}

// Option configures a store.
type Option func(*options)

type options struct {
	table   string
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	retry   RetryConfig
}

func defaultOptions() options {
	return options{
		table:   "hosts",
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
		retry:   DefaultRetry,
	}
}

// WithTable sets the SQLite table name.
// Default: "hosts"
func WithTable(name string) Option {
	return func(o *options) {
		if name != "" {
			o.table = name
		}
	}
}

// WithLogger sets the logger for query and error logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
// Default: observability.NoopMetrics{}
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithRetry sets how operations failing with a transient error are retried.
// Default: DefaultRetry
func WithRetry(cfg RetryConfig) Option {
	return func(o *options) {
		o.retry = cfg
	}
}

// WithTracing enables OpenTelemetry spans around store operations.
func WithTracing() Option {
	return func(o *options) {
		o.spans = observability.NewSpanManager()
	}
}

// reservedColumns are used by the SQLite schema.
var reservedColumns = []string{"id", "seq"}

func validateColumns(columns []string) error {
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if c == "" || slices.Contains(reservedColumns, c) {
			return fmt.Errorf("%w: %q", ErrInvalidColumn, c)
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: %q declared twice", ErrInvalidColumn, c)
		}
		seen[c] = struct{}{}
	}
	return nil
}

// checkColumns reports the first of used that is not declared.
func checkColumns(declared, used []string) error {
	for _, c := range used {
		if !slices.Contains(declared, c) {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
	}
	return nil
}

func prepareRow(row *Row, declared []string) error {
	if row == nil {
		return errors.New("row is nil")
	}
	if err := checkColumns(declared, row.Columns()); err != nil {
		return err
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return nil
}
