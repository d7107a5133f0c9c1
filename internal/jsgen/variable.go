package jsgen

import "fmt"

// Variable tracks a variable slot across a stretch of straight-line code.
// It remembers the most recently assigned input so later reads can reuse
// that input's type and predicates. The tracker is dropped whenever
// another thread could have run (yields, calls, stack boundaries).
type Variable struct {
	src  string
	typ  Type
	last Value
}

// NewVariable wraps a variable reference fragment such as
// `target.variables["id"].value`.
func NewVariable(src string) *Variable {
	return &Variable{src: src, typ: TypeUnknown}
}

// SetInput records an assignment. Assigning another Variable copies its
// tracked input instead of aliasing it, so chains and self-assignments
// cannot form cycles.
func (v *Variable) SetInput(input Value) {
	if other, ok := input.(*Variable); ok {
		if other.last == nil {
			v.last = nil
			v.typ = TypeUnknown
			return
		}
		input = other.last
	}
	v.last = input
	if typed, ok := input.(*TypedValue); ok {
		v.typ = typed.typ
	} else {
		v.typ = TypeUnknown
	}
}

// forget drops the tracked assignment.
func (v *Variable) forget() {
	v.last = nil
	v.typ = TypeUnknown
}

func (v *Variable) AsNumber() string {
	switch v.typ {
	case TypeNumber:
		return v.src
	case TypeNumberOrNaN:
		return fmt.Sprintf("(%s || 0)", v.src)
	default:
		return fmt.Sprintf("(+%s || 0)", v.src)
	}
}

func (v *Variable) AsNumberOrNaN() string {
	if v.typ == TypeNumber || v.typ == TypeNumberOrNaN {
		return v.src
	}
	return fmt.Sprintf("(+%s)", v.src)
}

func (v *Variable) AsString() string {
	if v.typ == TypeString {
		return v.src
	}
	return fmt.Sprintf(`("" + %s)`, v.src)
}

func (v *Variable) AsBoolean() string {
	if v.typ == TypeBoolean {
		return v.src
	}
	return fmt.Sprintf("toBoolean(%s)", v.src)
}

func (v *Variable) AsColor() string {
	return v.AsUnknown()
}

func (v *Variable) AsUnknown() string {
	return v.src
}

func (v *Variable) AsSafe() string {
	return v.AsUnknown()
}

func (v *Variable) IsAlwaysNumber() bool {
	return v.last != nil && v.last.IsAlwaysNumber()
}

func (v *Variable) IsAlwaysNumberOrNaN() bool {
	return v.last != nil && v.last.IsAlwaysNumberOrNaN()
}

func (v *Variable) IsNeverNumber() bool {
	return v.last != nil && v.last.IsNeverNumber()
}

// Source returns the assignable reference fragment.
func (v *Variable) Source() string {
	return v.src
}
