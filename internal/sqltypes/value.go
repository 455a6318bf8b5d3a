// Package sqltypes holds the dynamic value model of the fake server:
// tagged values, ordered rows and ordered datasets.
package sqltypes

import (
	"strings"

	"github.com/spf13/cast"
)

// Kind tags a Value variant.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindInt:
		return "INT"
	case KindFloat:
		return "FLOAT"
	case KindString:
		return "STRING"
	case KindBool:
		return "BOOL"
	default:
		return "UNKNOWN"
	}
}

// Value is a tagged dynamic value. The zero Value is NULL.
// All fields are comparable so Value can key maps directly.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
}

func Null() Value              { return Value{} }
func NewInt(i int64) Value     { return Value{kind: KindInt, i: i} }
func NewFloat(f float64) Value { return Value{kind: KindFloat, f: f} }
func NewString(s string) Value { return Value{kind: KindString, s: s} }
func NewBool(b bool) Value     { return Value{kind: KindBool, b: b} }

// FromAny converts a native Go value into a Value. Unknown types are
// stringified via cast.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case int:
		return NewInt(int64(x))
	case int32:
		return NewInt(int64(x))
	case int64:
		return NewInt(x)
	case float32:
		return NewFloat(float64(x))
	case float64:
		return NewFloat(x)
	case string:
		return NewString(x)
	case bool:
		return NewBool(x)
	default:
		return NewString(cast.ToString(v))
	}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Int() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return int64(v.f)
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindString:
		return cast.ToInt64(v.s)
	default:
		return 0
	}
}

func (v Value) Bool() bool { return v.Truthy() }

// Float coerces the value to a float, strings included. Non-numeric
// strings coerce to 0, matching MySQL.
func (v Value) Float() float64 {
	if f, ok := v.Numeric(); ok {
		return f
	}
	return cast.ToFloat64(strings.TrimSpace(v.s))
}

// Any unwraps the Value to its native Go representation.
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// Numeric reports the float rendering of v and whether v is a numeric kind.
// Booleans count as numeric 0/1, matching MySQL.
func (v Value) Numeric() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// String renders the value the way MySQL would print it in a result cell.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return cast.ToString(v.i)
	case KindFloat:
		return cast.ToString(v.f)
	case KindString:
		return v.s
	case KindBool:
		if v.b {
			return "1"
		}
		return "0"
	default:
		return "NULL"
	}
}

// Truthy reports whether v is true in a WHERE context: non-zero numerics
// are true, strings are true when they coerce to a non-zero number.
func (v Value) Truthy() bool {
	if f, ok := v.Numeric(); ok {
		return f != 0
	}
	if v.kind == KindString {
		f, err := cast.ToFloat64E(strings.TrimSpace(v.s))
		return err == nil && f != 0
	}
	return false
}

// StrictEqual is identity on both tag and payload: 1 != 1.0 != "1".
func (v Value) StrictEqual(o Value) bool { return v == o }

// Compare orders two values: numeric pairs compare as floats, anything
// else compares byte-wise on the rendered strings. When one string is a
// prefix of the other, the shorter one sorts last.
func (v Value) Compare(o Value) int {
	lf, lok := v.Numeric()
	rf, rok := o.Numeric()
	if lok && rok {
		switch {
		case lf < rf:
			return -1
		case lf > rf:
			return 1
		default:
			return 0
		}
	}
	return compareRendered(v.String(), o.String())
}

func compareRendered(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) == len(b):
		return 0
	case len(a) < len(b):
		return 1
	default:
		return -1
	}
}
