package query_test

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/randalmurphal/embedrecord/pkg/embedrecord/query"
)

// row is a stored row; a missing column is NULL.
type row map[string]int64

func (r row) Value(column string) (int64, bool) {
	v, ok := r[column]
	return v, ok
}

// scanIndex answers Index lookups by scanning rows.
type scanIndex []row

func (s scanIndex) collect(fn func(row) bool) *roaring.Bitmap {
	bm := roaring.New()
	for i, r := range s {
		if fn(r) {
			bm.Add(uint32(i))
		}
	}
	return bm
}

func (s scanIndex) All() *roaring.Bitmap {
	return s.collect(func(row) bool { return true })
}

func (s scanIndex) Equal(column string, value int64) *roaring.Bitmap {
	return s.collect(func(r row) bool { v, ok := r[column]; return ok && v == value })
}

func (s scanIndex) Bit(column string, bit int) *roaring.Bitmap {
	return s.collect(func(r row) bool { v, ok := r[column]; return ok && v&(1<<uint(bit)) != 0 })
}

func (s scanIndex) NotNull(column string) *roaring.Bitmap {
	return s.collect(func(r row) bool { _, ok := r[column]; return ok })
}

var rows = scanIndex{
	{"color_mask": 0, "colors_mask": 0b101},
	{"color_mask": 2, "colors_mask": 0b010},
	{"colors_mask": 0b111},
	{"color_mask": 1},
}

func matching(p query.Predicate) []uint32 {
	var out []uint32
	for i, r := range rows {
		if p.Match(r) {
			out = append(out, uint32(i))
		}
	}
	return out
}

// TestPredicates verifies SQL rendering and row matching for each constructor.
func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		pred query.Predicate
		sql  string
		args []any
		rows []uint32
	}{
		{"in", query.In("color_mask", 0, 2), `"color_mask" IN (?, ?)`, []any{int64(0), int64(2)}, []uint32{0, 1}},
		{"in empty", query.In("color_mask"), "1 = 0", nil, nil},
		{"any bits", query.AnyBits("colors_mask", 0b100), `("colors_mask" & ?) <> 0`, []any{int64(4)}, []uint32{0, 2}},
		{"any bits zero", query.AnyBits("colors_mask", 0), "1 = 0", nil, nil},
		{"all bits", query.AllBits("colors_mask", 0b011), `("colors_mask" & ?) = ?`, []any{int64(3), int64(3)}, []uint32{2}},
		{"all bits zero", query.AllBits("colors_mask", 0), `("colors_mask" & ?) = ?`, []any{int64(0), int64(0)}, []uint32{0, 1, 2}},
		{"is null", query.IsNull("color_mask"), `"color_mask" IS NULL`, nil, []uint32{2}},
		{
			"and",
			query.And(query.In("color_mask", 0, 1), query.AnyBits("colors_mask", 1)),
			`("color_mask" IN (?, ?)) AND (("colors_mask" & ?) <> 0)`,
			[]any{int64(0), int64(1), int64(1)},
			[]uint32{0},
		},
		{
			"or",
			query.Or(query.IsNull("colors_mask"), query.In("color_mask", 2)),
			`("colors_mask" IS NULL) OR ("color_mask" IN (?))`,
			[]any{int64(2)},
			[]uint32{1, 3},
		},
		{"and empty", query.And(), "1 = 1", nil, []uint32{0, 1, 2, 3}},
		{"or empty", query.Or(), "1 = 0", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.pred.SQL()
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.args, args)
			assert.Equal(t, tt.rows, matching(tt.pred))

			got := tt.pred.Bitmap(rows).ToArray()
			if len(tt.rows) == 0 {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.rows, got)
			}
		})
	}
}

// TestColumns verifies column collection without duplicates.
func TestColumns(t *testing.T) {
	p := query.And(
		query.In("a", 1),
		query.Or(query.AnyBits("b", 1), query.IsNull("a")),
	)
	assert.Equal(t, []string{"a", "b"}, p.Columns())
	assert.Empty(t, query.Or().Columns())
}

// TestQuoteIdent verifies identifier quoting.
func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"colors_mask"`, query.QuoteIdent("colors_mask"))
	assert.Equal(t, `"a""b"`, query.QuoteIdent(`a"b`))
}

// TestString verifies the rendered form used in logs.
func TestString(t *testing.T) {
	assert.Equal(t, `"c" IN (?) [7]`, query.In("c", 7).String())
	assert.Equal(t, `"c" IS NULL`, query.IsNull("c").String())
}

// TestInputsCopied verifies predicates do not alias caller slices.
func TestInputsCopied(t *testing.T) {
	values := []int64{1}
	p := query.In("color_mask", values...)
	values[0] = 2

	_, args := p.SQL()
	require.Len(t, args, 1)
	assert.Equal(t, int64(1), args[0])
}

// drawPredicate draws a predicate tree over columns a and b.
func drawPredicate(t *rapid.T, depth int) query.Predicate {
	column := rapid.SampledFrom([]string{"a", "b"}).Draw(t, "column")
	choice := rapid.IntRange(0, 5).Draw(t, "choice")
	if depth <= 0 && choice >= 4 {
		choice = 0
	}
	switch choice {
	case 0:
		return query.In(column, rapid.SliceOfN(rapid.Int64Range(0, 7), 0, 3).Draw(t, "values")...)
	case 1:
		return query.AnyBits(column, rapid.Int64Range(0, 7).Draw(t, "mask"))
	case 2:
		return query.AllBits(column, rapid.Int64Range(0, 7).Draw(t, "mask"))
	case 3:
		return query.IsNull(column)
	case 4:
		return query.And(drawPredicate(t, depth-1), drawPredicate(t, depth-1))
	default:
		return query.Or(drawPredicate(t, depth-1), drawPredicate(t, depth-1))
	}
}

func drawRows(t *rapid.T) scanIndex {
	n := rapid.IntRange(0, 20).Draw(t, "rows")
	out := make(scanIndex, n)
	for i := range out {
		r := row{}
		for _, col := range []string{"a", "b"} {
			if rapid.Bool().Draw(t, "set") {
				r[col] = rapid.Int64Range(0, 7).Draw(t, "value")
			}
		}
		out[i] = r
	}
	return out
}

// TestProperty_BitmapMatchesScan verifies Bitmap and Match select the same rows.
func TestProperty_BitmapMatchesScan(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := drawRows(t)
		p := drawPredicate(t, 3)

		want := roaring.New()
		for i, r := range data {
			if p.Match(r) {
				want.Add(uint32(i))
			}
		}
		got := p.Bitmap(data)
		if !got.Equals(want) {
			t.Fatalf("%s: bitmap %v, scan %v", p, got.ToArray(), want.ToArray())
		}
	})
}
