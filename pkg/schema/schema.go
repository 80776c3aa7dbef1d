// Package schema parses record layout descriptors into addressable record
// shapes shared by every row of a family.
package schema

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/aerobonkers/pkg/codec"
	"github.com/ssargent/aerobonkers/pkg/errors"
)

// Field is a layout placed inside a row
type Field struct {
	codec.Layout
	Offset int // byte offset inside the row
}

// Schema is the parsed shape of one record family
type Schema struct {
	Fields  []Field
	Stride  int // bytes per row, 0 for variable-length records
	Pointer int // image offset of the first row
	Count   int // number of rows, at least 1

	attrs []string
	index map[string]int // attribute -> field position
}

// Table declares a family's layout. Tables can be written inline or loaded
// from YAML.
type Table struct {
	Text    []string `yaml:"text"`
	Count   int      `yaml:"count"`
	Pointer int      `yaml:"pointer"`
	Stride  int      `yaml:"stride,omitempty"`
}

// Schema parses the table
func (t Table) Schema() (*Schema, error) {
	s, err := Parse(t.Text, t.Count, t.Pointer)
	if err != nil {
		return nil, err
	}
	if t.Stride != 0 && t.Stride != s.Stride {
		return nil, errors.New(errors.PhaseSchema, errors.KindMalformedLayout).
			Detail("declared stride %d, fields sum to %d", t.Stride, s.Stride).
			Build()
	}
	return s, nil
}

// LoadTable decodes a YAML table declaration
func LoadTable(r io.Reader) (Table, error) {
	var t Table
	if err := yaml.NewDecoder(r).Decode(&t); err != nil {
		return Table{}, fmt.Errorf("failed to parse table: %w", err)
	}
	return t, nil
}

// Parse builds a schema from layout descriptors of the form name,width[,kind].
//
// width is a byte count, "bit:<names>" or "bit" followed by a names token for
// a byte of up to eight flags, "NxW" for a list of N elements of W bytes,
// or "?" for a field the family decodes itself. kind is one of "str" (text;
// width 0 means zero-terminated), "list", "be" (big-endian integer) or
// "ref:<family>" (index into another family).
func Parse(specs []string, count, pointer int) (*Schema, error) {
	if len(specs) == 0 {
		return nil, errors.New(errors.PhaseSchema, errors.KindMalformedLayout).
			Detail("no fields declared").
			Build()
	}
	if count < 0 || pointer < 0 {
		return nil, errors.New(errors.PhaseSchema, errors.KindMalformedLayout).
			Detail("negative count %d or pointer %d", count, pointer).
			Build()
	}
	if count == 0 {
		count = 1
	}

	s := &Schema{
		Pointer: pointer,
		Count:   count,
		index:   make(map[string]int),
	}

	offset := 0
	variable := false
	for _, spec := range specs {
		l, err := parseField(spec)
		if err != nil {
			return nil, err
		}
		if variable {
			return nil, errors.MalformedLayout(spec, "field follows a variable-length field")
		}

		names := []string{l.Name}
		if l.Kind == codec.Bitfield {
			names = l.Flags
		}
		for _, name := range names {
			if _, dup := s.index[name]; dup {
				return nil, errors.MalformedLayout(spec, fmt.Sprintf("duplicate attribute %q", name))
			}
			s.index[name] = len(s.Fields)
			s.attrs = append(s.attrs, name)
		}

		s.Fields = append(s.Fields, Field{Layout: l, Offset: offset})
		if l.Variable() {
			variable = true
		} else {
			offset += l.Size()
		}
	}

	if !variable {
		s.Stride = offset
	}
	return s, nil
}

// Variable reports whether rows must be scanned to find their length
func (s *Schema) Variable() bool {
	return s.Stride == 0
}

// Attributes returns the attribute names in declaration order. Bitfields
// contribute their flag names.
func (s *Schema) Attributes() []string {
	return append([]string(nil), s.attrs...)
}

// Has reports whether attr is an attribute of the schema
func (s *Schema) Has(attr string) bool {
	_, ok := s.index[attr]
	return ok
}

// Field returns the field holding attr
func (s *Schema) Field(attr string) (Field, bool) {
	i, ok := s.index[attr]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

func parseField(spec string) (codec.Layout, error) {
	parts := strings.Split(spec, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return codec.Layout{}, errors.MalformedLayout(spec, "want name,width[,kind]")
	}
	name := strings.TrimSpace(parts[0])
	width := strings.TrimSpace(parts[1])
	kind := ""
	if len(parts) == 3 {
		kind = strings.TrimSpace(parts[2])
	}
	if name == "" {
		return codec.Layout{}, errors.MalformedLayout(spec, "empty name")
	}

	l := codec.Layout{Name: name}

	switch {
	case width == "?":
		if kind != "" {
			return codec.Layout{}, errors.MalformedLayout(spec, "custom field takes no kind")
		}
		l.Kind = codec.Custom
		return l, nil

	case width == "bit" || strings.HasPrefix(width, "bit:"):
		list := strings.TrimPrefix(strings.TrimPrefix(width, "bit"), ":")
		if width == "bit" {
			list, kind = kind, ""
		}
		if kind != "" {
			return codec.Layout{}, errors.MalformedLayout(spec, "bitfield takes no kind")
		}
		flags := strings.Fields(list)
		if len(flags) == 0 || len(flags) > codec.MaxFlags {
			return codec.Layout{}, errors.MalformedLayout(spec, fmt.Sprintf("bitfield needs 1-%d names, got %d", codec.MaxFlags, len(flags)))
		}
		l.Kind = codec.Bitfield
		l.Flags = flags
		return l, nil

	case strings.Contains(width, "x"):
		n, w, ok := parseDims(width)
		if !ok || kind != "list" {
			return codec.Layout{}, errors.MalformedLayout(spec, "list width must be NxW with kind list")
		}
		if w < 1 || w > 8 || n < 1 {
			return codec.Layout{}, errors.MalformedLayout(spec, "list needs at least one element of 1-8 bytes")
		}
		l.Kind = codec.List
		l.Count = n
		l.Width = w
		return l, nil
	}

	n, err := strconv.Atoi(width)
	if err != nil || n < 0 {
		return codec.Layout{}, errors.MalformedLayout(spec, fmt.Sprintf("unrecognized width %q", width))
	}

	switch {
	case kind == "str":
		l.Kind = codec.Text
		l.Width = n
		return l, nil
	case kind == "", kind == "be", strings.HasPrefix(kind, "ref:"):
		if n < 1 || n > 8 {
			return codec.Layout{}, errors.MalformedLayout(spec, fmt.Sprintf("integer width %d outside 1-8", n))
		}
		l.Kind = codec.Integer
		l.Width = n
		l.BigEndian = kind == "be"
		if strings.HasPrefix(kind, "ref:") {
			l.Ref = strings.TrimPrefix(kind, "ref:")
			if l.Ref == "" {
				return codec.Layout{}, errors.MalformedLayout(spec, "ref needs a family name")
			}
		}
		return l, nil
	default:
		return codec.Layout{}, errors.MalformedLayout(spec, fmt.Sprintf("unrecognized kind %q", kind))
	}
}

func parseDims(s string) (n, w int, ok bool) {
	a, b, found := strings.Cut(s, "x")
	if !found {
		return 0, 0, false
	}
	n, errN := strconv.Atoi(a)
	w, errW := strconv.Atoi(b)
	return n, w, errN == nil && errW == nil
}
