package codec

import "fmt"

// Kind identifies how a field or value is represented
type Kind uint8

const (
	Integer Kind = iota
	Bitfield
	Text
	List
	Custom
	Flag // value kind of a single bitfield member
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Bitfield:
		return "bitfield"
	case Text:
		return "text"
	case List:
		return "list"
	case Custom:
		return "custom"
	case Flag:
		return "flag"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// MaxFlags is the number of flags one bitfield byte can hold
const MaxFlags = 8

// Layout describes a single field of a record
type Layout struct {
	Name      string
	Kind      Kind
	Width     int      // bytes per value; element width for lists; 0 = self-terminating text
	Count     int      // number of list elements
	Flags     []string // bitfield member names, bit 0 first
	BigEndian bool
	Ref       string // foreign-key target family
}

// Size returns the number of bytes the field occupies, or 0 when the size is
// only known after reading the image
func (l Layout) Size() int {
	switch l.Kind {
	case Integer:
		return l.Width
	case Bitfield:
		return 1
	case Text:
		return l.Width
	case List:
		return l.Width * l.Count
	default:
		return 0
	}
}

// Variable reports whether the field's span is found by scanning the image
func (l Layout) Variable() bool {
	return l.Size() == 0
}

// ForeignKey reports whether the field indexes another family
func (l Layout) ForeignKey() bool {
	return l.Kind == Integer && l.Ref != ""
}

// IntegerLimit returns the largest unsigned value a width-byte integer holds
func IntegerLimit(width int) int64 {
	if width >= 8 {
		return int64(^uint64(0) >> 1)
	}
	return int64(1)<<(8*uint(width)) - 1
}
