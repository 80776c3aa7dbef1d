package engine

import (
	"fmt"

	"github.com/ssargent/aerobonkers/pkg/codec"
	"github.com/ssargent/aerobonkers/pkg/errors"
	"github.com/ssargent/aerobonkers/pkg/schema"
)

// Values maps attribute names to values
type Values map[string]codec.Value

func (v Values) clone() Values {
	out := make(Values, len(v))
	for k, x := range v {
		out[k] = x
	}
	return out
}

// Instance is one row of a family. It holds the values read from the image
// (the snapshot) and the working values that are written back.
type Instance struct {
	Index   int
	Pointer int // image offset of the first byte
	Span    int // bytes occupied in the image

	family *Family
	schema *schema.Schema
	old    Values
	data   Values
	spans  []int  // per field
	keep   []byte // original bitfield bytes, per field
}

// load reads one instance at pointer
func load(image []byte, f *Family, s *schema.Schema, index, pointer int) (*Instance, error) {
	inst := &Instance{
		Index:   index,
		Pointer: pointer,
		family:  f,
		schema:  s,
		old:     make(Values),
		spans:   make([]int, len(s.Fields)),
		keep:    make([]byte, len(s.Fields)),
	}

	cursor := pointer
	for i, field := range s.Fields {
		var (
			v    codec.Value
			span int
			err  error
		)
		switch field.Kind {
		case codec.Custom:
			v, span, err = f.Custom[field.Name].Decode(image, cursor)
		default:
			v, span, err = codec.Decode(image, cursor, field.Layout)
		}
		if err != nil {
			return nil, annotate(err, errors.PhaseLoad, errors.KindConfiguration, f.Name, index, cursor)
		}

		if field.Kind == codec.Bitfield {
			inst.keep[i] = byte(v.Int())
			for j, flag := range codec.UnpackFlags(inst.keep[i], len(field.Flags)) {
				inst.old[field.Flags[j]] = codec.FlagValue(flag)
			}
		} else {
			inst.old[field.Name] = v
		}
		inst.spans[i] = span
		cursor += span
	}

	inst.Span = cursor - pointer
	inst.data = inst.old.clone()
	return inst, nil
}

// Family returns the family the instance belongs to
func (inst *Instance) Family() *Family {
	return inst.family
}

// Get returns the current value of attr
func (inst *Instance) Get(attr string) codec.Value {
	return inst.data[attr]
}

// Old returns the value of attr as it was read
func (inst *Instance) Old(attr string) codec.Value {
	return inst.old[attr]
}

// Int returns the current integer value of attr
func (inst *Instance) Int(attr string) int64 {
	return inst.data[attr].Int()
}

// OldInt returns the integer value of attr as it was read
func (inst *Instance) OldInt(attr string) int64 {
	return inst.old[attr].Int()
}

// Set replaces the current value of attr. The attribute must exist and the
// value must have the same kind as the snapshot.
func (inst *Instance) Set(attr string, v codec.Value) error {
	old, ok := inst.old[attr]
	if !ok {
		return errors.InvalidPolicy(inst.family.Name, attr, "no such attribute")
	}
	if old.Kind() != v.Kind() {
		return errors.New(errors.PhaseRandomize, errors.KindConfiguration).
			Family(inst.family.Name).
			Attr(attr).
			Detail("cannot replace %s value with %s", old.Kind(), v.Kind()).
			Build()
	}
	inst.data[attr] = v
	return nil
}

// SetInt replaces the current integer value of attr
func (inst *Instance) SetInt(attr string, n int64) error {
	return inst.Set(attr, codec.IntValue(n))
}

// Attributes returns the attribute names in declaration order
func (inst *Instance) Attributes() []string {
	return inst.schema.Attributes()
}

// Changed returns the attributes whose current value differs from the
// snapshot, in declaration order
func (inst *Instance) Changed() []string {
	var out []string
	for _, attr := range inst.schema.Attributes() {
		if !inst.data[attr].Equal(inst.old[attr]) {
			out = append(out, attr)
		}
	}
	return out
}

// Validate runs cleanup checks: every attribute no phase names must be
// unchanged, then the family's own validator runs.
func (inst *Instance) Validate() error {
	touched := inst.family.touched()
	for _, attr := range inst.schema.Attributes() {
		if touched[attr] {
			continue
		}
		if !inst.data[attr].Equal(inst.old[attr]) {
			return errors.Assertion(inst.family.Name, attr,
				fmt.Sprintf("row %d changed from %v to %v", inst.Index, inst.old[attr], inst.data[attr]))
		}
	}
	if inst.family.Validator != nil {
		if err := inst.family.Validator.Validate(inst); err != nil {
			return annotate(err, errors.PhaseCleanup, errors.KindAssertion, inst.family.Name, inst.Index, inst.Pointer)
		}
	}
	return nil
}

// Write serializes the current values into image at the instance's own span
func (inst *Instance) Write(image []byte) error {
	if inst.Pointer < 0 || inst.Pointer+inst.Span > len(image) {
		return errors.New(errors.PhaseWrite, errors.KindConfiguration).
			Family(inst.family.Name).
			Offset(inst.Pointer).
			Detail("row %d does not fit in a %d-byte image", inst.Index, len(image)).
			Build()
	}

	cursor := inst.Pointer
	for i, field := range inst.schema.Fields {
		var (
			b   []byte
			err error
		)
		switch field.Kind {
		case codec.Bitfield:
			flags := make([]bool, len(field.Flags))
			for j, name := range field.Flags {
				flags[j] = inst.data[name].Bool()
			}
			b = []byte{codec.PackFlags(flags, inst.keep[i])}
		case codec.Custom:
			b, err = inst.family.Custom[field.Name].Encode(inst.data[field.Name], inst.spans[i])
		default:
			b, err = codec.Encode(inst.data[field.Name], field.Layout, inst.spans[i])
		}
		if err != nil {
			return annotate(err, errors.PhaseWrite, errors.KindConfiguration, inst.family.Name, inst.Index, cursor)
		}
		if len(b) > inst.spans[i] {
			err := errors.TooLarge(field.Name, len(b), inst.spans[i])
			return annotate(err, errors.PhaseWrite, errors.KindEncodingTooLarge, inst.family.Name, inst.Index, cursor)
		}
		copy(image[cursor:cursor+len(b)], b)
		cursor += inst.spans[i]
	}
	return nil
}

// annotate fills in the family and offset of a structured error. Other
// errors are wrapped with the given phase and kind.
func annotate(err error, phase errors.Phase, kind errors.Kind, family string, index, offset int) error {
	e, ok := err.(*errors.Error)
	if !ok {
		if _, wrapped := errors.As(err); wrapped {
			return err
		}
		return errors.New(phase, kind).
			Family(family).
			Offset(offset).
			Detail("row %d", index).
			Cause(err).
			Build()
	}
	out := *e
	if out.Family == "" {
		out.Family = family
	}
	if out.Offset < 0 {
		out.Offset = offset
	}
	return &out
}

// snapshotData copies the current values of every instance
func snapshotData(insts []*Instance) []Values {
	out := make([]Values, len(insts))
	for i, inst := range insts {
		out[i] = inst.data.clone()
	}
	return out
}

// countChanged counts attribute values that differ from before
func countChanged(before []Values, insts []*Instance) int {
	n := 0
	for i, inst := range insts {
		for attr, v := range inst.data {
			if !v.Equal(before[i][attr]) {
				n++
			}
		}
	}
	return n
}
