package query

import (
	"fmt"
	"math/bits"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// Values reads the nullable integer columns of one stored row.
type Values interface {
	Value(column string) (int64, bool)
}

// Index answers single-column lookups over a row set. Rows are identified by
// ordinal. Returned bitmaps belong to the index and must not be modified.
type Index interface {
	// All returns every row.
	All() *roaring.Bitmap
	// Equal returns the rows whose column holds value.
	Equal(column string, value int64) *roaring.Bitmap
	// Bit returns the rows whose column has the given bit set.
	Bit(column string, bit int) *roaring.Bitmap
	// NotNull returns the rows whose column is set.
	NotNull(column string) *roaring.Bitmap
}

// Predicate is a filter over reference columns. The same predicate renders
// to a SQL condition, evaluates against a single row, and resolves against
// an Index. All three agree: NULL columns never satisfy a value condition.
type Predicate interface {
	// Columns returns the columns the predicate reads, without duplicates.
	Columns() []string
	// SQL returns a condition with ? placeholders and its arguments.
	SQL() (string, []any)
	// Match evaluates the predicate against one row.
	Match(row Values) bool
	// Bitmap returns a new bitmap of the matching rows in ix.
	Bitmap(ix Index) *roaring.Bitmap
	fmt.Stringer
}

const (
	sqlTrue  = "1 = 1"
	sqlFalse = "1 = 0"
)

// QuoteIdent quotes a column name for SQL.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func render(sql string, args []any) string {
	if len(args) == 0 {
		return sql
	}
	return fmt.Sprintf("%s %v", sql, args)
}

// In matches rows whose column holds one of values. With no values it matches nothing.
func In(column string, values ...int64) Predicate {
	return &inPredicate{column: column, values: slices.Clone(values)}
}

type inPredicate struct {
	column string
	values []int64
}

func (p *inPredicate) Columns() []string { return []string{p.column} }

func (p *inPredicate) SQL() (string, []any) {
	if len(p.values) == 0 {
		return sqlFalse, nil
	}
	args := make([]any, len(p.values))
	for i, v := range p.values {
		args[i] = v
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	return fmt.Sprintf("%s IN (%s)", QuoteIdent(p.column), marks), args
}

func (p *inPredicate) Match(row Values) bool {
	v, ok := row.Value(p.column)
	return ok && slices.Contains(p.values, v)
}

func (p *inPredicate) Bitmap(ix Index) *roaring.Bitmap {
	result := roaring.New()
	for _, v := range p.values {
		if bm := ix.Equal(p.column, v); bm != nil {
			result.Or(bm)
		}
	}
	return result
}

func (p *inPredicate) String() string { return render(p.SQL()) }

// AnyBits matches rows whose column shares at least one set bit with mask.
// A zero mask matches nothing.
func AnyBits(column string, mask int64) Predicate {
	return &bitsPredicate{column: column, mask: mask}
}

// AllBits matches rows whose column has every bit of mask set. A zero mask
// matches every row whose column is set.
func AllBits(column string, mask int64) Predicate {
	return &bitsPredicate{column: column, mask: mask, all: true}
}

type bitsPredicate struct {
	column string
	mask   int64
	all    bool
}

func (p *bitsPredicate) Columns() []string { return []string{p.column} }

func (p *bitsPredicate) SQL() (string, []any) {
	if p.all {
		return fmt.Sprintf("(%s & ?) = ?", QuoteIdent(p.column)), []any{p.mask, p.mask}
	}
	if p.mask == 0 {
		return sqlFalse, nil
	}
	return fmt.Sprintf("(%s & ?) <> 0", QuoteIdent(p.column)), []any{p.mask}
}

func (p *bitsPredicate) Match(row Values) bool {
	v, ok := row.Value(p.column)
	if !ok {
		return false
	}
	if p.all {
		return v&p.mask == p.mask
	}
	return v&p.mask != 0
}

func (p *bitsPredicate) Bitmap(ix Index) *roaring.Bitmap {
	if p.all {
		result := cloneOrEmpty(ix.NotNull(p.column))
		for rest := uint64(p.mask); rest != 0 && !result.IsEmpty(); rest &= rest - 1 {
			result.And(orEmpty(ix.Bit(p.column, bits.TrailingZeros64(rest))))
		}
		return result
	}

	result := roaring.New()
	for rest := uint64(p.mask); rest != 0; rest &= rest - 1 {
		if bm := ix.Bit(p.column, bits.TrailingZeros64(rest)); bm != nil {
			result.Or(bm)
		}
	}
	return result
}

func (p *bitsPredicate) String() string { return render(p.SQL()) }

// IsNull matches rows whose column is unset.
func IsNull(column string) Predicate {
	return &nullPredicate{column: column}
}

type nullPredicate struct {
	column string
}

func (p *nullPredicate) Columns() []string { return []string{p.column} }

func (p *nullPredicate) SQL() (string, []any) {
	return QuoteIdent(p.column) + " IS NULL", nil
}

func (p *nullPredicate) Match(row Values) bool {
	_, ok := row.Value(p.column)
	return !ok
}

func (p *nullPredicate) Bitmap(ix Index) *roaring.Bitmap {
	result := cloneOrEmpty(ix.All())
	if bm := ix.NotNull(p.column); bm != nil {
		result.AndNot(bm)
	}
	return result
}

func (p *nullPredicate) String() string { return render(p.SQL()) }

// And matches rows that satisfy every predicate. With none it matches every row.
func And(preds ...Predicate) Predicate {
	return &boolPredicate{op: "AND", preds: slices.Clone(preds)}
}

// Or matches rows that satisfy at least one predicate. With none it matches nothing.
func Or(preds ...Predicate) Predicate {
	return &boolPredicate{op: "OR", preds: slices.Clone(preds)}
}

type boolPredicate struct {
	op    string
	preds []Predicate
}

func (p *boolPredicate) Columns() []string {
	var cols []string
	for _, sub := range p.preds {
		for _, c := range sub.Columns() {
			if !slices.Contains(cols, c) {
				cols = append(cols, c)
			}
		}
	}
	return cols
}

func (p *boolPredicate) SQL() (string, []any) {
	if len(p.preds) == 0 {
		if p.op == "AND" {
			return sqlTrue, nil
		}
		return sqlFalse, nil
	}
	parts := make([]string, len(p.preds))
	var args []any
	for i, sub := range p.preds {
		sql, subArgs := sub.SQL()
		parts[i] = "(" + sql + ")"
		args = append(args, subArgs...)
	}
	return strings.Join(parts, " "+p.op+" "), args
}

func (p *boolPredicate) Match(row Values) bool {
	if p.op == "AND" {
		for _, sub := range p.preds {
			if !sub.Match(row) {
				return false
			}
		}
		return true
	}
	for _, sub := range p.preds {
		if sub.Match(row) {
			return true
		}
	}
	return false
}

func (p *boolPredicate) Bitmap(ix Index) *roaring.Bitmap {
	if p.op == "AND" {
		result := cloneOrEmpty(ix.All())
		for _, sub := range p.preds {
			if result.IsEmpty() {
				break
			}
			result.And(sub.Bitmap(ix))
		}
		return result
	}
	result := roaring.New()
	for _, sub := range p.preds {
		result.Or(sub.Bitmap(ix))
	}
	return result
}

func (p *boolPredicate) String() string { return render(p.SQL()) }

func cloneOrEmpty(bm *roaring.Bitmap) *roaring.Bitmap {
	if bm == nil {
		return roaring.New()
	}
	return bm.Clone()
}

func orEmpty(bm *roaring.Bitmap) *roaring.Bitmap {
	if bm == nil {
		return roaring.New()
	}
	return bm
}
