package codec

import (
	"fmt"
	"slices"
	"strconv"
)

// Value is a decoded field value. The zero Value is the integer 0.
type Value struct {
	kind Kind
	num  int64
	text string
	list []int64
}

// IntValue returns an integer value
func IntValue(n int64) Value {
	return Value{kind: Integer, num: n}
}

// FlagValue returns a bitfield member value
func FlagValue(b bool) Value {
	v := Value{kind: Flag}
	if b {
		v.num = 1
	}
	return v
}

// TextValue returns a text value. Characters are stored as raw byte codes.
func TextValue(s string) Value {
	return Value{kind: Text, text: s}
}

// ListValue returns a list value holding a copy of xs
func ListValue(xs ...int64) Value {
	return Value{kind: List, list: slices.Clone(xs)}
}

// Kind returns the value's kind: Integer, Flag, Text or List
func (v Value) Kind() Kind {
	return v.kind
}

// Int returns the integer value; flags report 0 or 1
func (v Value) Int() int64 {
	return v.num
}

// Bool returns the flag value
func (v Value) Bool() bool {
	return v.num != 0
}

// Text returns the text value
func (v Value) Text() string {
	return v.text
}

// List returns a copy of the list elements
func (v Value) List() []int64 {
	return slices.Clone(v.list)
}

// Len returns the text length or list element count
func (v Value) Len() int {
	switch v.kind {
	case Text:
		return len(v.text)
	case List:
		return len(v.list)
	default:
		return 0
	}
}

// Numeric reports whether the value can take part in numeric mutation
func (v Value) Numeric() bool {
	return v.kind == Integer
}

// Equal reports whether two values have the same kind and contents
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Text:
		return v.text == o.text
	case List:
		return slices.Equal(v.list, o.list)
	default:
		return v.num == o.num
	}
}

func (v Value) String() string {
	switch v.kind {
	case Flag:
		return strconv.FormatBool(v.Bool())
	case Text:
		return strconv.Quote(v.text)
	case List:
		return fmt.Sprint(v.list)
	default:
		return strconv.FormatInt(v.num, 10)
	}
}
