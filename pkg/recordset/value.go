package recordset

import (
	"math"
	"strconv"
	"strings"
)

// Kind tells what sort of data a Value holds.
type Kind int

const (
	// Null is an absent value (empty cell).
	Null Kind = iota
	// Text is a value that is not a number.
	Text
	// Number is a finite numeric value.
	Number
)

// String returns a name of the Kind.
func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Number:
		return "number"
	default:
		return "null"
	}
}

// Value is one cell of a table. It keeps the text it was created from,
// so keys and messages show exactly what a curator sees in the file.
type Value struct {
	kind Kind
	text string
	num  float64
}

// NullValue returns an absent value.
func NullValue() Value {
	return Value{}
}

// TextValue returns a value that is kept as text, even if it looks like
// a number.
func TextValue(s string) Value {
	return Value{kind: Text, text: s}
}

// NumberValue returns a numeric value.
func NumberValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{
		kind: Number,
		text: strconv.FormatFloat(f, 'f', -1, 64),
		num:  f,
	}
}

// Parse creates a Value from a cell. An empty string becomes Null,
// a finite float literal becomes Number, anything else becomes Text.
func Parse(s string) Value {
	if s == "" {
		return Value{}
	}
	if f, ok := parseFloat(s); ok {
		return Value{kind: Number, text: s, num: f}
	}
	return Value{kind: Text, text: s}
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull returns true for absent values.
func (v Value) IsNull() bool {
	return v.kind == Null
}

// String returns the source text of the value, or an empty string for Null.
func (v Value) String() string {
	return v.text
}

// Float coerces the value to a finite number. Text values are parsed,
// Null values, NaN and infinities never coerce.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case Number:
		return v.num, true
	case Text:
		return parseFloat(v.text)
	default:
		return 0, false
	}
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
