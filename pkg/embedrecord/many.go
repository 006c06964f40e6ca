package embedrecord

import (
	"context"
	"math/bits"

	"github.com/randalmurphal/embedrecord/pkg/embedrecord/observability"
)

// Many is a multi reference relation: bit k of the host slot is set when the
// record at position k is referenced. An unset slot is the empty set.
//
// Many is safe for concurrent use when the host slot is.
type Many[H any] struct {
	relation
	slot Slot[H]
}

// BindMany binds a multi reference named name to target, stored in slot.
// It fails with a *CapacityError when the target holds more than MaxMaskBits
// records. The target is sealed on success.
func BindMany[H any](name string, target any, slot Slot[H], opts ...RelationOption) (*Many[H], error) {
	rel, err := bind(name, "many", target, slotProblem(slot), fitsMask, opts)
	if err != nil {
		return nil, err
	}
	return &Many[H]{relation: rel, slot: slot}, nil
}

func fitsMask(t Target) error {
	if n := t.Len(); n > MaxMaskBits {
		return &CapacityError{Registry: t.Name(), Capacity: MaxMaskBits, Size: n}
	}
	return nil
}

// MustBindMany is like BindMany but panics on error.
func MustBindMany[H any](name string, target any, slot Slot[H], opts ...RelationOption) *Many[H] {
	many, err := BindMany(name, target, slot, opts...)
	if err != nil {
		panic(err)
	}
	return many
}

// GetIDs returns the ids of the referenced records in position order.
// Bits beyond the registry's records are ignored.
func (m *Many[H]) GetIDs(host H) []ID {
	var ids []ID
	m.each(host, func(rec *Record) {
		ids = append(ids, rec.ID())
	})
	return ids
}

// Get returns the referenced records in position order.
func (m *Many[H]) Get(host H) []*Record {
	var recs []*Record
	m.each(host, func(rec *Record) {
		recs = append(recs, rec)
	})
	return recs
}

// Has reports whether the record matching id is referenced.
func (m *Many[H]) Has(host H, id ID) bool {
	rec, _ := m.lookup(id)
	if rec == nil {
		return false
	}
	return m.load(host)&(1<<uint(rec.Position())) != 0
}

// SetIDs replaces the referenced set with the records matching ids and
// returns the stored mask. Ids that match no record are dropped.
func (m *Many[H]) SetIDs(host H, ids ...ID) int64 {
	mask := m.encode(ids)
	m.slot.Store(host, mask, true)
	return mask
}

// Add references the records matching ids in addition to the current set and
// returns the stored mask.
func (m *Many[H]) Add(host H, ids ...ID) int64 {
	mask := m.load(host) | m.encode(ids)
	m.slot.Store(host, mask, true)
	return mask
}

// Remove stops referencing the records matching ids and returns the stored mask.
func (m *Many[H]) Remove(host H, ids ...ID) int64 {
	mask := m.load(host) &^ m.Mask(ids...)
	m.slot.Store(host, mask, true)
	return mask
}

// Mask encodes ids without touching a host: the OR of 1<<position for every
// id that matches a record. Useful for filters such as "column & mask <> 0".
func (m *Many[H]) Mask(ids ...ID) int64 {
	var mask int64
	for _, id := range ids {
		if rec, _ := m.lookup(id); rec != nil {
			mask |= 1 << uint(rec.Position())
		}
	}
	return mask
}

// encode is Mask with logging and metrics for the dropped ids.
func (m *Many[H]) encode(ids []ID) int64 {
	var mask int64
	var dropped []string
	for _, id := range ids {
		rec, coerced := m.lookup(id)
		if rec == nil {
			dropped = append(dropped, coerced.String())
			continue
		}
		mask |= 1 << uint(rec.Position())
	}
	observability.LogDroppedIDs(m.logger, m.name, dropped)
	m.metrics.RecordEncode(context.Background(), m.name, bits.OnesCount64(uint64(mask)), len(dropped))
	return mask
}

func (m *Many[H]) load(host H) int64 {
	v, ok := m.slot.Load(host)
	if !ok {
		return 0
	}
	return v
}

// each calls fn for every referenced record in ascending position order.
func (m *Many[H]) each(host H, fn func(*Record)) {
	for rest := uint64(m.load(host)); rest != 0; rest &= rest - 1 {
		rec, ok := m.target.At(bits.TrailingZeros64(rest))
		if !ok {
			return
		}
		fn(rec)
	}
}
