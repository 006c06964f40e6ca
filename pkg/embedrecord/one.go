package embedrecord

import (
	"context"
	"math"

	"github.com/randalmurphal/embedrecord/pkg/embedrecord/observability"
)

// One is a single reference relation: the host slot holds the position of
// one record, or is unset.
//
// One is safe for concurrent use when the host slot is.
type One[H any] struct {
	relation
	slot Slot[H]
}

// BindOne binds a single reference named name to target, stored in slot.
// The target must be a Registry (or another Target) and is sealed on success.
//
//	var CarColor = embedrecord.MustBindOne("color", Colors,
//	    embedrecord.NullableSlot(func(c *Car) *sql.NullInt64 { return &c.ColorMask }))
func BindOne[H any](name string, target any, slot Slot[H], opts ...RelationOption) (*One[H], error) {
	rel, err := bind(name, "one", target, slotProblem(slot), nil, opts)
	if err != nil {
		return nil, err
	}
	return &One[H]{relation: rel, slot: slot}, nil
}

// MustBindOne is like BindOne but panics on error.
func MustBindOne[H any](name string, target any, slot Slot[H], opts ...RelationOption) *One[H] {
	one, err := BindOne(name, target, slot, opts...)
	if err != nil {
		panic(err)
	}
	return one
}

// Get returns the referenced record. An unset slot, or a position the
// registry does not hold, resolves to the null record when one exists.
func (o *One[H]) Get(host H) (*Record, bool) {
	if v, ok := o.slot.Load(host); ok && v >= 0 && v <= math.MaxInt32 {
		if rec, found := o.target.At(int(v)); found {
			return rec, true
		}
	}
	return o.target.NullRecord()
}

// GetID returns the id of the record Get resolves. For the null record this
// is Null with ok set.
func (o *One[H]) GetID(host H) (ID, bool) {
	rec, ok := o.Get(host)
	if !ok {
		return Null, false
	}
	return rec.ID(), true
}

// SetID stores the position of the record matching id after coercion to the
// registry's id kind and returns that position. When no record matches, it
// returns a *NotFoundError and leaves the slot unchanged.
func (o *One[H]) SetID(host H, id ID) (int, error) {
	rec, coerced := o.lookup(id)
	if rec == nil {
		observability.LogSetMiss(o.logger, o.name, coerced.String())
		o.metrics.RecordMiss(context.Background(), o.name)
		return -1, &NotFoundError{Registry: o.target.Name(), ID: coerced}
	}
	pos := rec.Position()
	o.slot.Store(host, int64(pos), true)
	o.metrics.RecordEncode(context.Background(), o.name, 1, 0)
	return pos, nil
}

// Clear unsets the slot, so Get falls back to the null record.
func (o *One[H]) Clear(host H) {
	o.slot.Store(host, 0, false)
}
