package embedrecord

import "database/sql"

// Test hosts used across tests

// Car holds a single reference in a nullable column.
type Car struct {
	ColorMask sql.NullInt64
}

// Shirt holds a multi reference in a plain integer column.
type Shirt struct {
	ColorsMask int64
}

func carColorSlot() Slot[*Car] {
	return NullableSlot(func(c *Car) *sql.NullInt64 { return &c.ColorMask })
}

func shirtColorsSlot() Slot[*Shirt] {
	return IntSlot(func(s *Shirt) *int64 { return &s.ColorsMask })
}

// newColors returns an unsealed symbol registry with red, green, blue.
func newColors() *Registry {
	r := NewRegistry("colors")
	if err := r.Declare("name"); err != nil {
		panic(err)
	}
	r.MustCreate(Sym("red"), map[string]any{"name": "Red"})
	r.MustCreate(Sym("green"), map[string]any{"name": "Green"})
	r.MustCreate(Sym("blue"), map[string]any{"name": "Blue"})
	return r
}

// newColorsWithNull returns newColors plus a null record named "None".
func newColorsWithNull() *Registry {
	r := newColors()
	r.MustCreate(Null, map[string]any{"name": "None"})
	return r
}

// newSized returns an integer registry with n records 0..n-1.
func newSized(n int, opts ...RegistryOption) *Registry {
	r := NewRegistry("sized", opts...)
	for i := 0; i < n; i++ {
		r.MustCreate(Int(int64(i)), nil)
	}
	return r
}
