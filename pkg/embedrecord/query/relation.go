package query

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/embedrecord/pkg/embedrecord"
)

// ErrMaskOverflow indicates a position that does not fit in a mask.
var ErrMaskOverflow = errors.New("position does not fit in a mask")

// Resolver maps ids to positions in a relation's storage column.
// *embedrecord.One and *embedrecord.Many satisfy it.
type Resolver interface {
	Column() string
	Positions(ids ...embedrecord.ID) ([]int64, error)
}

// WhereOne matches hosts whose single reference points at any of ids.
// Every id must match a record.
//
//	p, err := query.WhereOne(CarColor, embedrecord.Sym("red"), embedrecord.Sym("blue"))
//	// "color_mask" IN (?, ?) [0 2]
func WhereOne(r Resolver, ids ...embedrecord.ID) (Predicate, error) {
	positions, err := r.Positions(ids...)
	if err != nil {
		return nil, err
	}
	return In(r.Column(), positions...), nil
}

// WhereAny matches hosts whose multi reference includes at least one of ids.
// Every id must match a record.
func WhereAny(r Resolver, ids ...embedrecord.ID) (Predicate, error) {
	mask, err := maskOf(r, ids)
	if err != nil {
		return nil, err
	}
	return AnyBits(r.Column(), mask), nil
}

// WhereAll matches hosts whose multi reference includes every one of ids.
// Every id must match a record.
func WhereAll(r Resolver, ids ...embedrecord.ID) (Predicate, error) {
	mask, err := maskOf(r, ids)
	if err != nil {
		return nil, err
	}
	return AllBits(r.Column(), mask), nil
}

// Unset matches hosts whose reference column is NULL.
func Unset(r Resolver) Predicate {
	return IsNull(r.Column())
}

func maskOf(r Resolver, ids []embedrecord.ID) (int64, error) {
	positions, err := r.Positions(ids...)
	if err != nil {
		return 0, err
	}
	var mask int64
	for _, pos := range positions {
		if pos < 0 || pos >= embedrecord.MaxMaskBits {
			return 0, fmt.Errorf("%w: column %s position %d", ErrMaskOverflow, r.Column(), pos)
		}
		mask |= 1 << uint(pos)
	}
	return mask, nil
}
