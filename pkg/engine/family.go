package engine

import (
	"fmt"

	"github.com/ssargent/aerobonkers/pkg/codec"
	"github.com/ssargent/aerobonkers/pkg/errors"
	"github.com/ssargent/aerobonkers/pkg/schema"
)

// FieldCodec decodes and encodes a field declared with width "?"
type FieldCodec interface {
	// Decode returns the value at offset and the number of bytes it spans
	Decode(image []byte, offset int) (codec.Value, int, error)
	// Encode must return exactly span bytes
	Encode(v codec.Value, span int) ([]byte, error)
}

// Validator checks an instance after mutation and before it is written
type Validator interface {
	Validate(inst *Instance) error
}

// ValidatorFunc adapts a function to Validator
type ValidatorFunc func(inst *Instance) error

// Validate calls f(inst)
func (f ValidatorFunc) Validate(inst *Instance) error {
	return f(inst)
}

// Family declares one record family
type Family struct {
	Name  string // display name, unique within a run
	Table schema.Table

	// Rank orders instances for nearness; nil ranks by index
	Rank func(inst *Instance) float64
	// ShouldRandomize gates every randomization phase; nil means never
	ShouldRandomize func(c *Context) bool
	// AfterOrder lists families that must be written before this one is read
	AfterOrder []*Family
	// RandomDegree widens or narrows statistical spread; nil uses
	// DefaultRandomDegree
	RandomDegree *float64

	Intershuffle [][]string // attribute groups moved as a unit
	Randomize    []string
	Mutate       []Rule

	Custom    map[string]FieldCodec // codecs for "?" fields
	Validator Validator             // extra cleanup checks
}

// Degree returns a pointer to d for Family.RandomDegree
func Degree(d float64) *float64 {
	return &d
}

func (f *Family) degree() float64 {
	if f.RandomDegree == nil {
		return DefaultRandomDegree
	}
	return *f.RandomDegree
}

func (f *Family) rank(inst *Instance) float64 {
	if f.Rank == nil {
		return float64(inst.Index)
	}
	return f.Rank(inst)
}

func (f *Family) shouldRandomize(c *Context) bool {
	return f.ShouldRandomize != nil && f.ShouldRandomize(c)
}

// touched returns every attribute named by any phase
func (f *Family) touched() map[string]bool {
	t := make(map[string]bool)
	for _, group := range f.Intershuffle {
		for _, attr := range group {
			t[attr] = true
		}
	}
	for _, attr := range f.Randomize {
		t[attr] = true
	}
	for _, r := range f.Mutate {
		t[r.Attr] = true
	}
	return t
}

// check parses the table and verifies every phase declaration against it
func (f *Family) check() (*schema.Schema, error) {
	if f.Name == "" {
		return nil, errors.Configuration("family without a name")
	}
	s, err := f.Table.Schema()
	if err != nil {
		if e, ok := errors.As(err); ok {
			e.Family = f.Name
		}
		return nil, err
	}

	for _, field := range s.Fields {
		if field.Kind == codec.Custom && f.Custom[field.Name] == nil {
			return nil, errors.New(errors.PhaseInit, errors.KindConfiguration).
				Family(f.Name).
				Attr(field.Name).
				Detail("custom field has no codec").
				Build()
		}
	}

	for _, group := range f.Intershuffle {
		if len(group) == 0 {
			return nil, errors.InvalidPolicy(f.Name, "", "empty intershuffle group")
		}
		for _, attr := range group {
			if !s.Has(attr) {
				return nil, errors.InvalidPolicy(f.Name, attr, "intershuffle names an unknown attribute")
			}
		}
	}
	for _, attr := range f.Randomize {
		if !s.Has(attr) {
			return nil, errors.InvalidPolicy(f.Name, attr, "randomize names an unknown attribute")
		}
	}
	for _, r := range f.Mutate {
		if r.Policy == nil {
			return nil, errors.InvalidPolicy(f.Name, r.Attr, "mutation rule without a policy")
		}
		if !s.Has(r.Attr) {
			return nil, errors.InvalidPolicy(f.Name, r.Attr, "mutate names an unknown attribute")
		}
		if err := r.Policy.check(f, s, r.Attr); err != nil {
			return nil, err
		}
	}
	if f.RandomDegree != nil && *f.RandomDegree < 0 {
		return nil, errors.Configuration("family %s: negative random degree %v", f.Name, *f.RandomDegree)
	}
	return s, nil
}

// dependencies returns the families that must run before f
func (f *Family) dependencies() []*Family {
	deps := append([]*Family(nil), f.AfterOrder...)
	for _, r := range f.Mutate {
		if ref, ok := r.Policy.(refPolicy); ok && ref.target != f {
			deps = append(deps, ref.target)
		}
	}
	return deps
}

func (f *Family) String() string {
	return fmt.Sprintf("family(%s)", f.Name)
}
