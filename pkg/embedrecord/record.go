package embedrecord

import "reflect"

// Record is one immutable member of a Registry.
//
// Attribute values are deep-copied when the record is created and composite
// values (maps, slices, arrays, pointers, structs) are copied again on every
// read, so nothing a caller holds can change the record. Unexported struct
// fields are the exception: they are stored by value.
type Record struct {
	id       ID
	position int
	registry string
	attrs    map[string]any
}

// ID returns the record identifier. It is Null for the null record.
func (r *Record) ID() ID { return r.id }

// Position returns the zero-based index of the record among non-null records,
// or -1 for the null record.
func (r *Record) Position() int { return r.position }

// IsNull reports whether r is a registry's null record.
func (r *Record) IsNull() bool { return r.id.IsNull() }

// Is reports whether the record's id equals id.
func (r *Record) Is(id ID) bool { return r.id == id }

// Registry returns the name of the owning registry.
func (r *Record) Registry() string { return r.registry }

// Attr returns the value of a declared attribute. Declared attributes the
// record did not set report false.
func (r *Record) Attr(name string) (any, bool) {
	v, ok := r.attrs[name]
	if !ok {
		return nil, false
	}
	return freeze(v), true
}

// String returns the attribute as a string, or "" if unset or not a string.
func (r *Record) String(name string) string {
	if s, ok := r.attrs[name].(string); ok {
		return s
	}
	return ""
}

// Attrs returns a copy of all set attributes.
func (r *Record) Attrs() map[string]any {
	out := make(map[string]any, len(r.attrs))
	for k, v := range r.attrs {
		out[k] = freeze(v)
	}
	return out
}

func newRecord(registry string, id ID, position int, attrs map[string]any) *Record {
	frozen := make(map[string]any, len(attrs))
	for k, v := range attrs {
		frozen[k] = freeze(v)
	}
	return &Record{
		id:       id,
		position: position,
		registry: registry,
		attrs:    frozen,
	}
}

// freeze returns a deep copy of v for composite kinds and v itself otherwise.
// Exported struct fields are copied deeply; unexported fields are copied by
// value. Cycles through maps, slices and pointers are reproduced in the copy.
func freeze(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Pointer, reflect.Interface, reflect.Struct:
		c := copier{seen: make(map[visit]reflect.Value)}
		return c.copy(rv).Interface()
	}
	return v
}

// visit identifies a reference value already copied.
type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

type copier struct {
	seen map[visit]reflect.Value
}

func (c *copier) copy(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if m, ok := c.seen[key]; ok {
			return m
		}
		m := reflect.MakeMapWithSize(v.Type(), v.Len())
		c.seen[key] = m
		iter := v.MapRange()
		for iter.Next() {
			m.SetMapIndex(iter.Key(), c.copy(iter.Value()))
		}
		return m
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		key := visit{ptr: v.Pointer(), typ: v.Type(), len: v.Len()}
		if s, ok := c.seen[key]; ok && v.Len() > 0 {
			return s
		}
		s := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		c.seen[key] = s
		for i := 0; i < v.Len(); i++ {
			s.Index(i).Set(c.copy(v.Index(i)))
		}
		return s
	case reflect.Array:
		a := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			a.Index(i).Set(c.copy(v.Index(i)))
		}
		return a
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if p, ok := c.seen[key]; ok {
			return p
		}
		p := reflect.New(v.Type().Elem())
		c.seen[key] = p
		p.Elem().Set(c.copy(v.Elem()))
		return p
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(c.copy(v.Elem()))
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).IsExported() {
				out.Field(i).Set(c.copy(v.Field(i)))
			}
		}
		return out
	}
	return v
}
