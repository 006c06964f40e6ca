package store

import (
	"maps"
	"slices"

	"github.com/google/uuid"
)

// Row is a stored host: an id plus nullable integer columns.
// A Row is not safe for concurrent mutation.
type Row struct {
	ID     uuid.UUID
	values map[string]int64
}

// NewRow returns an empty row with a fresh id.
func NewRow() *Row {
	return &Row{ID: uuid.New()}
}

// Value returns a column's value and whether it is set.
func (r *Row) Value(column string) (int64, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Set sets a column.
func (r *Row) Set(column string, value int64) {
	if r.values == nil {
		r.values = make(map[string]int64)
	}
	r.values[column] = value
}

// Unset clears a column to NULL.
func (r *Row) Unset(column string) {
	delete(r.values, column)
}

// Columns returns the set columns in sorted order.
func (r *Row) Columns() []string {
	return slices.Sorted(maps.Keys(r.values))
}

// Clone returns a deep copy.
func (r *Row) Clone() *Row {
	return &Row{ID: r.ID, values: maps.Clone(r.values)}
}
