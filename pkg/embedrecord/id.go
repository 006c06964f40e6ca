package embedrecord

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the concrete type of a record identifier.
type Kind uint8

// Identifier kinds. The zero Kind is KindNull.
const (
	KindNull Kind = iota
	KindSymbol
	KindString
	KindInt
)

// String returns the lowercase kind name used in configuration files.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindSymbol:
		return "symbol"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind maps a kind name to a Kind. It accepts "integer" as an alias for "int".
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "null", "":
		return KindNull, nil
	case "symbol", "sym":
		return KindSymbol, nil
	case "string", "str":
		return KindString, nil
	case "int", "integer":
		return KindInt, nil
	default:
		return KindNull, fmt.Errorf("%w: kind %q", ErrUnsupportedID, name)
	}
}

// ID identifies a record. IDs are comparable and can be used as map keys.
// The zero value is the null identifier.
type ID struct {
	kind Kind
	text string
	num  int64
}

// Null is the null identifier. It never matches a record through Find.
var Null ID

// Sym returns a symbolic identifier such as the color name "red".
func Sym(name string) ID {
	return ID{kind: KindSymbol, text: name}
}

// Str returns a string identifier.
func Str(s string) ID {
	return ID{kind: KindString, text: s}
}

// Int returns an integer identifier.
func Int(n int64) ID {
	return ID{kind: KindInt, num: n}
}

// IDOf converts a Go value to an ID.
//
// Accepts:
//   - ID: used directly
//   - nil: Null
//   - string: Str
//   - any signed or unsigned integer: Int (uint values above MaxInt64 fail)
//   - fmt.Stringer: Str of its String()
func IDOf(v any) (ID, error) {
	switch val := v.(type) {
	case nil:
		return Null, nil
	case ID:
		return val, nil
	case string:
		return Str(val), nil
	case int:
		return Int(int64(val)), nil
	case int8:
		return Int(int64(val)), nil
	case int16:
		return Int(int64(val)), nil
	case int32:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case uint:
		return uintID(uint64(val))
	case uint8:
		return Int(int64(val)), nil
	case uint16:
		return Int(int64(val)), nil
	case uint32:
		return Int(int64(val)), nil
	case uint64:
		return uintID(val)
	case fmt.Stringer:
		return Str(val.String()), nil
	}
	return Null, fmt.Errorf("%w: %T", ErrUnsupportedID, v)
}

func uintID(u uint64) (ID, error) {
	if u > math.MaxInt64 {
		return Null, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedID, u)
	}
	return Int(int64(u)), nil
}

// ParseID builds an ID of the given kind from its text form.
func ParseID(kind Kind, text string) (ID, error) {
	switch kind {
	case KindNull:
		return Null, nil
	case KindSymbol:
		return Sym(strings.TrimPrefix(text, ":")), nil
	case KindString:
		return Str(text), nil
	case KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return Null, fmt.Errorf("%w: %q is not an integer", ErrUnsupportedID, text)
		}
		return Int(n), nil
	}
	return Null, fmt.Errorf("%w: kind %s", ErrUnsupportedID, kind)
}

// Kind returns the identifier kind.
func (id ID) Kind() Kind { return id.kind }

// IsNull reports whether id is the null identifier.
func (id ID) IsNull() bool { return id.kind == KindNull }

// Text returns the raw text of the identifier: the name for symbols and
// strings, the decimal form for integers and "" for Null.
func (id ID) Text() string {
	switch id.kind {
	case KindSymbol, KindString:
		return id.text
	case KindInt:
		return strconv.FormatInt(id.num, 10)
	}
	return ""
}

// Int64 returns the integer value of an integer identifier.
func (id ID) Int64() (int64, bool) {
	if id.kind != KindInt {
		return 0, false
	}
	return id.num, true
}

// String renders the identifier with its kind visible: :red, "red", 7 or <null>.
func (id ID) String() string {
	switch id.kind {
	case KindSymbol:
		return ":" + id.text
	case KindString:
		return strconv.Quote(id.text)
	case KindInt:
		return strconv.FormatInt(id.num, 10)
	}
	return "<null>"
}

// MarshalText implements encoding.TextMarshaler using Text.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.Text()), nil
}

// Coerce converts id to the given kind.
//
// Symbols and strings convert to each other by text. Integers convert to
// symbols and strings by their decimal form, and symbols and strings convert
// to integers only when their text parses as a base-10 int64. Null converts
// to nothing but Null.
func (id ID) Coerce(kind Kind) (ID, bool) {
	if id.kind == kind {
		return id, true
	}
	if id.kind == KindNull || kind == KindNull {
		return Null, false
	}
	switch kind {
	case KindSymbol:
		return Sym(id.Text()), true
	case KindString:
		return Str(id.Text()), true
	case KindInt:
		n, err := strconv.ParseInt(id.text, 10, 64)
		if err != nil {
			return Null, false
		}
		return Int(n), true
	}
	return Null, false
}
