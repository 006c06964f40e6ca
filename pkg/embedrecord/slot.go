package embedrecord

import "database/sql"

// Slot reads and writes the integer field a relation is stored in.
//
// Load reports false when the field is unset. Store with valid=false unsets
// the field; slots that cannot represent unset store zero instead.
// Concurrent use of a Slot is only as safe as the host field behind it.
type Slot[H any] interface {
	Load(host H) (value int64, valid bool)
	Store(host H, value int64, valid bool)
}

// SlotFuncs adapts a pair of functions to the Slot interface.
type SlotFuncs[H any] struct {
	LoadFunc  func(host H) (int64, bool)
	StoreFunc func(host H, value int64, valid bool)
}

// Load calls LoadFunc.
func (s SlotFuncs[H]) Load(host H) (int64, bool) { return s.LoadFunc(host) }

// Store calls StoreFunc.
func (s SlotFuncs[H]) Store(host H, value int64, valid bool) { s.StoreFunc(host, value, valid) }

// slotProblem reports why slot cannot be bound, or "" when it can.
func slotProblem[H any](slot Slot[H]) string {
	switch s := slot.(type) {
	case nil:
		return "slot is nil"
	case SlotFuncs[H]:
		if s.LoadFunc == nil || s.StoreFunc == nil {
			return "slot func is nil"
		}
	case *SlotFuncs[H]:
		if s == nil || s.LoadFunc == nil || s.StoreFunc == nil {
			return "slot func is nil"
		}
	}
	return ""
}

// NullableSlot returns a Slot backed by a sql.NullInt64 field of the host.
//
//	type Car struct{ ColorMask sql.NullInt64 }
//	slot := embedrecord.NullableSlot(func(c *Car) *sql.NullInt64 { return &c.ColorMask })
func NullableSlot[H any](field func(host H) *sql.NullInt64) Slot[H] {
	return SlotFuncs[H]{
		LoadFunc: func(host H) (int64, bool) {
			f := field(host)
			return f.Int64, f.Valid
		},
		StoreFunc: func(host H, value int64, valid bool) {
			f := field(host)
			if !valid {
				value = 0
			}
			f.Int64, f.Valid = value, valid
		},
	}
}

// IntSlot returns a Slot backed by a plain int64 field of the host. The field
// is always valid, so it suits multi references where unset and empty are the
// same mask.
func IntSlot[H any](field func(host H) *int64) Slot[H] {
	return SlotFuncs[H]{
		LoadFunc: func(host H) (int64, bool) {
			return *field(host), true
		},
		StoreFunc: func(host H, value int64, valid bool) {
			if !valid {
				value = 0
			}
			*field(host) = value
		},
	}
}
