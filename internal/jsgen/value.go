package jsgen

import "fmt"

// Type is the static type tag attached to an emitted fragment.
type Type uint8

const (
	TypeNumber Type = iota + 1
	TypeString
	TypeBoolean
	TypeUnknown
	// TypeNumberOrNaN is weaker than TypeNumber: the value is numeric but
	// may be NaN, so integer coercions like (x | 0) need a guard first.
	TypeNumberOrNaN
)

// String returns the string representation of Type.
func (t Type) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeBoolean:
		return "boolean"
	case TypeUnknown:
		return "unknown"
	case TypeNumberOrNaN:
		return "number-or-nan"
	default:
		return "invalid"
	}
}

// Value is a source fragment together with what the compiler knows about
// it statically. The As* methods return fragments that coerce the value;
// they pick the cheapest form the static knowledge allows.
type Value interface {
	// AsNumber coerces to a real number, turning NaN into 0.
	AsNumber() string
	// AsNumberOrNaN coerces to a number that may be NaN.
	AsNumberOrNaN() string
	// AsString coerces to a string.
	AsString() string
	// AsBoolean coerces to a boolean.
	AsBoolean() string
	// AsColor coerces to an integer color value.
	AsColor() string
	// AsUnknown returns the value as-is, type unknown.
	AsUnknown() string
	// AsSafe is AsUnknown except for constants that could be mistaken for
	// a costume or sound index at primitive boundaries.
	AsSafe() string

	// IsAlwaysNumber reports the value is a real number, never NaN.
	IsAlwaysNumber() bool
	// IsAlwaysNumberOrNaN reports the value is numeric, possibly NaN.
	IsAlwaysNumberOrNaN() bool
	// IsNeverNumber reports the value can never be interpreted as a number.
	IsNeverNumber() bool
}

// TypedValue is a fragment with a known type tag.
type TypedValue struct {
	src string
	typ Type
}

// NewTyped wraps a well-formed surface expression with its type tag.
func NewTyped(src string, typ Type) *TypedValue {
	return &TypedValue{src: src, typ: typ}
}

func (v *TypedValue) AsNumber() string {
	switch v.typ {
	case TypeNumber:
		return v.src
	case TypeNumberOrNaN:
		return fmt.Sprintf("(%s || 0)", v.src)
	default:
		return fmt.Sprintf("(+%s || 0)", v.src)
	}
}

func (v *TypedValue) AsNumberOrNaN() string {
	if v.typ == TypeNumber || v.typ == TypeNumberOrNaN {
		return v.src
	}
	return fmt.Sprintf("(+%s)", v.src)
}

func (v *TypedValue) AsString() string {
	if v.typ == TypeString {
		return v.src
	}
	return fmt.Sprintf(`("" + %s)`, v.src)
}

func (v *TypedValue) AsBoolean() string {
	if v.typ == TypeBoolean {
		return v.src
	}
	return fmt.Sprintf("toBoolean(%s)", v.src)
}

func (v *TypedValue) AsColor() string {
	return v.AsUnknown()
}

func (v *TypedValue) AsUnknown() string {
	return v.src
}

func (v *TypedValue) AsSafe() string {
	return v.AsUnknown()
}

func (v *TypedValue) IsAlwaysNumber() bool {
	return v.typ == TypeNumber
}

func (v *TypedValue) IsAlwaysNumberOrNaN() bool {
	return v.typ == TypeNumber || v.typ == TypeNumberOrNaN
}

func (v *TypedValue) IsNeverNumber() bool {
	return false
}
