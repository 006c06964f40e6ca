package store

import (
	"context"
	"fmt"
	"math"
	"math/bits"
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"

	"github.com/randalmurphal/embedrecord/pkg/embedrecord/query"
)

const backendMemory = "memory"

// MemoryStore keeps rows in memory with a bitmap inverted index per column:
// one posting list per stored value, one per set bit, and one for non-NULL
// rows. Filters resolve against the index without scanning.
// Data is lost when the process exits.
type MemoryStore struct {
	mu       sync.RWMutex
	columns  []string
	rows     []*Row // by ordinal, nil once deleted
	ordinals map[uuid.UUID]uint32
	live     *roaring.Bitmap
	equal    map[string]map[int64]*roaring.Bitmap
	bitSet   map[string]*[64]*roaring.Bitmap
	notNull  map[string]*roaring.Bitmap
	closed   bool
	instrument
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(columns []string, opts ...Option) (*MemoryStore, error) {
	if err := validateColumns(columns); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	m := &MemoryStore{
		columns:    slices.Clone(columns),
		ordinals:   make(map[uuid.UUID]uint32),
		live:       roaring.New(),
		equal:      make(map[string]map[int64]*roaring.Bitmap, len(columns)),
		bitSet:     make(map[string]*[64]*roaring.Bitmap, len(columns)),
		notNull:    make(map[string]*roaring.Bitmap, len(columns)),
		instrument: newInstrument(backendMemory, o),
	}
	for _, c := range columns {
		m.equal[c] = make(map[int64]*roaring.Bitmap)
		m.bitSet[c] = new([64]*roaring.Bitmap)
		m.notNull[c] = roaring.New()
	}
	return m, nil
}

// Columns implements Store.
func (m *MemoryStore) Columns() []string {
	return slices.Clone(m.columns)
}

// Len returns the number of stored rows.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int(m.live.GetCardinality())
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, row *Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	if err := prepareRow(row, m.columns); err != nil {
		return err
	}

	return m.run(ctx, "save", func(context.Context) (int, error) {
		ord, exists := m.ordinals[row.ID]
		if exists {
			m.unindex(ord, m.rows[ord])
		} else {
			if uint64(len(m.rows)) > math.MaxUint32 {
				return 0, fmt.Errorf("save row: memory store is full")
			}
			ord = uint32(len(m.rows))
			m.rows = append(m.rows, nil)
			m.ordinals[row.ID] = ord
		}

		stored := row.Clone()
		m.rows[ord] = stored
		m.index(ord, stored)
		return 1, nil
	})
}

// Load implements Store.
func (m *MemoryStore) Load(ctx context.Context, id uuid.UUID) (*Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	var row *Row
	err := m.run(ctx, "load", func(context.Context) (int, error) {
		ord, ok := m.ordinals[id]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrRowNotFound, id)
		}
		row = m.rows[ord].Clone()
		return 1, nil
	})
	return row, err
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	return m.run(ctx, "delete", func(context.Context) (int, error) {
		ord, ok := m.ordinals[id]
		if !ok {
			return 0, nil
		}
		m.unindex(ord, m.rows[ord])
		m.rows[ord] = nil
		delete(m.ordinals, id)
		return 1, nil
	})
}

// Select implements Store.
func (m *MemoryStore) Select(ctx context.Context, p query.Predicate) ([]*Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	if p != nil {
		if err := checkColumns(m.columns, p.Columns()); err != nil {
			return nil, err
		}
	}

	var out []*Row
	err := m.selecting(ctx, p, func(context.Context) (int, error) {
		matched := m.live
		if p != nil {
			matched = p.Bitmap(memoryIndex{m})
			matched.And(m.live)
		}
		out = make([]*Row, 0, matched.GetCardinality())
		it := matched.Iterator()
		for it.HasNext() {
			out = append(out, m.rows[it.Next()].Clone())
		}
		return len(out), nil
	})
	return out, err
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// index adds a row's postings. Caller must hold m.mu.
func (m *MemoryStore) index(ord uint32, row *Row) {
	m.live.Add(ord)
	for _, c := range m.columns {
		v, ok := row.Value(c)
		if !ok {
			continue
		}
		m.notNull[c].Add(ord)

		bm, ok := m.equal[c][v]
		if !ok {
			bm = roaring.New()
			m.equal[c][v] = bm
		}
		bm.Add(ord)

		postings := m.bitSet[c]
		for rest := uint64(v); rest != 0; rest &= rest - 1 {
			b := bits.TrailingZeros64(rest)
			if postings[b] == nil {
				postings[b] = roaring.New()
			}
			postings[b].Add(ord)
		}
	}
}

// unindex removes a row's postings. Caller must hold m.mu.
func (m *MemoryStore) unindex(ord uint32, row *Row) {
	m.live.Remove(ord)
	for _, c := range m.columns {
		v, ok := row.Value(c)
		if !ok {
			continue
		}
		m.notNull[c].Remove(ord)

		if bm, ok := m.equal[c][v]; ok {
			bm.Remove(ord)
			if bm.IsEmpty() {
				delete(m.equal[c], v)
			}
		}

		postings := m.bitSet[c]
		for rest := uint64(v); rest != 0; rest &= rest - 1 {
			if bm := postings[bits.TrailingZeros64(rest)]; bm != nil {
				bm.Remove(ord)
			}
		}
	}
}

// memoryIndex exposes the postings to query predicates. Caller must hold m.mu.
type memoryIndex struct {
	m *MemoryStore
}

func (ix memoryIndex) All() *roaring.Bitmap {
	return ix.m.live
}

func (ix memoryIndex) Equal(column string, value int64) *roaring.Bitmap {
	return ix.m.equal[column][value]
}

func (ix memoryIndex) Bit(column string, bit int) *roaring.Bitmap {
	postings, ok := ix.m.bitSet[column]
	if !ok || bit < 0 || bit >= len(postings) {
		return nil
	}
	return postings[bit]
}

func (ix memoryIndex) NotNull(column string) *roaring.Bitmap {
	return ix.m.notNull[column]
}
