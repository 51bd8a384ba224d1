// Package value defines the Lox runtime value model.
package value

import (
	"math"
	"strconv"
)

// Value is the interface for all Lox runtime values.
// The sealed marker restricts implementations to this package.
type Value interface {
	loxValue() // sealed marker
}

// Nil is the absence of a value.
type Nil struct{}

func (Nil) loxValue() {}

// Bool is a boolean value.
type Bool struct {
	Value bool
}

func (Bool) loxValue() {}

// Number is a double-precision numeric value.
type Number struct {
	Value float64
}

func (Number) loxValue() {}

// String is an immutable string value.
type String struct {
	Value string
}

func (String) loxValue() {}

// NewNil creates a nil value.
func NewNil() Value {
	return Nil{}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return Bool{Value: b}
}

// NewNumber creates a numeric value.
func NewNumber(n float64) Value {
	return Number{Value: n}
}

// NewString creates a string value.
func NewString(s string) Value {
	return String{Value: s}
}

// Truthy returns the boolean interpretation of a value.
// Only nil and false are falsey; 0 and "" are truthy.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case nil, Nil:
		return false
	case Bool:
		return val.Value
	default:
		return true
	}
}

// Equal compares two values without any implicit coercion.
func Equal(a, b Value) bool {
	if isNil(a) && isNil(b) {
		return true
	}
	if isNil(a) || isNil(b) {
		return false
	}

	switch av := a.(type) {
	case Bool:
		bv, ok := b.(Bool)
		return ok && av.Value == bv.Value
	case Number:
		bv, ok := b.(Number)
		return ok && av.Value == bv.Value
	case String:
		bv, ok := b.(String)
		return ok && av.Value == bv.Value
	}
	return false
}

func isNil(v Value) bool {
	switch v.(type) {
	case nil, Nil:
		return true
	}
	return false
}

// Stringify renders a value the way print shows it.
func Stringify(v Value) string {
	switch val := v.(type) {
	case nil, Nil:
		return "nil"
	case Bool:
		if val.Value {
			return "true"
		}
		return "false"
	case Number:
		return FormatNumber(val.Value)
	case String:
		return val.Value
	}
	return "nil"
}

// FormatNumber renders a number in positional notation. Integral values
// carry no fractional part, so 3.0 prints as "3".
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// TypeName returns the value kind for error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case nil, Nil:
		return "nil"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	default:
		return "unknown"
	}
}
