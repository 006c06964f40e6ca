package store_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/embedrecord/pkg/embedrecord/query"
	"github.com/randalmurphal/embedrecord/pkg/embedrecord/store"
)

var testColumns = []string{"color_mask", "colors_mask"}

// storeFactory creates a store declaring testColumns.
type storeFactory func(t *testing.T) store.Store

func newRow(color, colors *int64) *store.Row {
	r := store.NewRow()
	if color != nil {
		r.Set("color_mask", *color)
	}
	if colors != nil {
		r.Set("colors_mask", *colors)
	}
	return r
}

func ptr(v int64) *int64 { return &v }

func ids(rows []*store.Row) []uuid.UUID {
	out := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

// storeContractTest runs contract tests against any Store implementation.
func storeContractTest(t *testing.T, name string, factory storeFactory) {
	ctx := context.Background()

	t.Run(name+"/Save_and_Load", func(t *testing.T) {
		st := factory(t)
		defer st.Close()

		row := newRow(ptr(2), ptr(0b101))
		require.NoError(t, st.Save(ctx, row))

		loaded, err := st.Load(ctx, row.ID)
		require.NoError(t, err)
		assert.Equal(t, row, loaded)
		assert.NotSame(t, row, loaded)
	})

	t.Run(name+"/Save_NullColumns", func(t *testing.T) {
		st := factory(t)
		defer st.Close()

		row := newRow(nil, ptr(0))
		require.NoError(t, st.Save(ctx, row))

		loaded, err := st.Load(ctx, row.ID)
		require.NoError(t, err)
		_, ok := loaded.Value("color_mask")
		assert.False(t, ok)
		v, ok := loaded.Value("colors_mask")
		assert.True(t, ok)
		assert.Equal(t, int64(0), v)
	})

	t.Run(name+"/Save_AssignsID", func(t *testing.T) {
		st := factory(t)
		defer st.Close()

		row := &store.Row{}
		require.NoError(t, st.Save(ctx, row))
		assert.NotEqual(t, uuid.Nil, row.ID)
	})

	t.Run(name+"/Save_Overwrite", func(t *testing.T) {
		st := factory(t)
		defer st.Close()

		row := newRow(ptr(1), nil)
		require.NoError(t, st.Save(ctx, row))
		row.Unset("color_mask")
		row.Set("colors_mask", 7)
		require.NoError(t, st.Save(ctx, row))

		loaded, err := st.Load(ctx, row.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"colors_mask"}, loaded.Columns())

		all, err := st.Select(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run(name+"/Save_UnknownColumn", func(t *testing.T) {
		st := factory(t)
		defer st.Close()

		row := store.NewRow()
		row.Set("size_mask", 1)
		assert.ErrorIs(t, st.Save(ctx, row), store.ErrUnknownColumn)
	})

	t.Run(name+"/Load_NotFound", func(t *testing.T) {
		st := factory(t)
		defer st.Close()

		_, err := st.Load(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrRowNotFound)
	})

	t.Run(name+"/Delete", func(t *testing.T) {
		st := factory(t)
		defer st.Close()

		row := newRow(ptr(0), nil)
		require.NoError(t, st.Save(ctx, row))
		require.NoError(t, st.Delete(ctx, row.ID))

		_, err := st.Load(ctx, row.ID)
		assert.ErrorIs(t, err, store.ErrRowNotFound)

		matched, err := st.Select(ctx, query.In("color_mask", 0))
		require.NoError(t, err)
		assert.Empty(t, matched)

		assert.NoError(t, st.Delete(ctx, uuid.New()), "deleting a missing row is not an error")
	})

	t.Run(name+"/Select", func(t *testing.T) {
		st := factory(t)
		defer st.Close()

		red := newRow(ptr(0), ptr(0b001))
		blue := newRow(ptr(2), ptr(0b110))
		none := newRow(nil, ptr(0))
		for _, r := range []*store.Row{red, blue, none} {
			require.NoError(t, st.Save(ctx, r))
		}

		tests := []struct {
			name string
			pred query.Predicate
			want []uuid.UUID
		}{
			{"all", nil, []uuid.UUID{red.ID, blue.ID, none.ID}},
			{"in", query.In("color_mask", 2, 0), []uuid.UUID{red.ID, blue.ID}},
			{"any bits", query.AnyBits("colors_mask", 0b100), []uuid.UUID{blue.ID}},
			{"all bits", query.AllBits("colors_mask", 0b110), []uuid.UUID{blue.ID}},
			{"is null", query.IsNull("color_mask"), []uuid.UUID{none.ID}},
			{"or", query.Or(query.IsNull("color_mask"), query.AnyBits("colors_mask", 1)), []uuid.UUID{red.ID, none.ID}},
			{"nothing", query.In("color_mask"), []uuid.UUID{}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rows, err := st.Select(ctx, tt.pred)
				require.NoError(t, err)
				assert.Equal(t, tt.want, ids(rows))
			})
		}
	})

	t.Run(name+"/Select_UnknownColumn", func(t *testing.T) {
		st := factory(t)
		defer st.Close()

		_, err := st.Select(ctx, query.In("size_mask", 1))
		assert.ErrorIs(t, err, store.ErrUnknownColumn)
	})

	t.Run(name+"/Columns", func(t *testing.T) {
		st := factory(t)
		defer st.Close()

		assert.Equal(t, testColumns, st.Columns())
	})

	t.Run(name+"/Closed", func(t *testing.T) {
		st := factory(t)
		require.NoError(t, st.Close())
		assert.NoError(t, st.Close(), "close is idempotent")

		assert.ErrorIs(t, st.Save(ctx, store.NewRow()), store.ErrStoreClosed)
		_, err := st.Load(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrStoreClosed)
		assert.ErrorIs(t, st.Delete(ctx, uuid.New()), store.ErrStoreClosed)
		_, err = st.Select(ctx, nil)
		assert.ErrorIs(t, err, store.ErrStoreClosed)
	})
}

// TestMemoryStore runs contract tests against MemoryStore.
func TestMemoryStore(t *testing.T) {
	storeContractTest(t, "MemoryStore", func(t *testing.T) store.Store {
		st, err := store.NewMemoryStore(testColumns)
		require.NoError(t, err)
		return st
	})
}

// TestSQLiteStore runs contract tests against SQLiteStore.
func TestSQLiteStore(t *testing.T) {
	storeContractTest(t, "SQLiteStore", func(t *testing.T) store.Store {
		st, err := store.NewSQLiteStore(":memory:", testColumns)
		require.NoError(t, err)
		return st
	})
}

// TestInvalidColumns verifies column declarations are checked.
func TestInvalidColumns(t *testing.T) {
	for _, cols := range [][]string{{""}, {"id"}, {"seq"}, {"a", "a"}} {
		_, err := store.NewMemoryStore(cols)
		assert.ErrorIs(t, err, store.ErrInvalidColumn, "%v", cols)

		_, err = store.NewSQLiteStore(":memory:", cols)
		assert.ErrorIs(t, err, store.ErrInvalidColumn, "%v", cols)
	}
}
