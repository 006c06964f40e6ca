/*
Package embedrecord stores references to a fixed set of records in a single
integer field.

# Overview

Some reference data never changes at runtime: colors, statuses, categories.
Instead of a foreign key or a join table, a host entity keeps one integer per
relation. A single reference stores the position of a record; a multi
reference stores a bitmask where bit k means "the record at position k".

A Registry defines the records. A One or Many relation binds a Registry to
a host field and translates between the integer and the records.

# Registries

Declare attributes, create records, and seal:

	var Colors = embedrecord.NewRegistry("colors")

	func init() {
	    _ = Colors.Declare("name")
	    Colors.MustCreate(embedrecord.Sym("red"), map[string]any{"name": "Red"})
	    Colors.MustCreate(embedrecord.Sym("green"), map[string]any{"name": "Green"})
	    Colors.MustCreate(embedrecord.Sym("blue"), map[string]any{"name": "Blue"})
	    Colors.Seal()
	}

Positions follow creation order: red=0, green=1, blue=2. A record created
with the Null id becomes the registry's null record: it has no position and
is what a single reference resolves to while its slot is unset.

All ids in a registry share one Kind (symbol, string or int). Duplicate ids
are rejected, and a registry holds at most MaxMaskBits records unless
WithCapacity says otherwise.

# Relations

	type Car struct {
	    ColorMask sql.NullInt64
	}

	var CarColor = embedrecord.MustBindOne("color", Colors,
	    embedrecord.NullableSlot(func(c *Car) *sql.NullInt64 { return &c.ColorMask }))

	car := &Car{}
	_, err := CarColor.SetID(car, embedrecord.Str("green")) // coerced to :green
	rec, _ := CarColor.Get(car)                            // the green record

	type Shirt struct {
	    ColorsMask int64
	}

	var ShirtColors = embedrecord.MustBindMany("colors", Colors,
	    embedrecord.IntSlot(func(s *Shirt) *int64 { return &s.ColorsMask }))

	shirt := &Shirt{}
	ShirtColors.SetIDs(shirt, embedrecord.Sym("blue"), embedrecord.Sym("red")) // mask 0b101
	ShirtColors.GetIDs(shirt)                                                   // [:red :blue]

# Identifier Coercion

Identifiers often arrive from serialized input with the wrong kind. Relations
coerce every incoming id to the registry's kind before lookup, so "red" finds
:red in a symbol registry and "7" finds 7 in an integer registry. Registry.Find
does not coerce.

# Errors

SetID fails with a *NotFoundError when no record matches; SetIDs drops
unknown ids silently. Construction and binding errors are struct types that
unwrap to sentinels, so errors.Is(err, embedrecord.ErrDuplicateID) and
errors.As work.

# Thread Safety

Registries guard their state with a sync.RWMutex. Relations hold no mutable
state; they are as safe for concurrent use as the host field behind the Slot.
*/
package embedrecord
