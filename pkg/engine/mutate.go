package engine

import (
	"github.com/ssargent/aerobonkers/pkg/codec"
	"github.com/ssargent/aerobonkers/pkg/errors"
	"github.com/ssargent/aerobonkers/pkg/schema"
)

// Rule binds a mutation policy to an attribute
type Rule struct {
	Attr   string
	Policy Policy
}

// MutateFunc computes a new value for an attribute directly
type MutateFunc func(inst *Instance, c *Context) (codec.Value, error)

// Policy is a mutation strategy. Use Inferred, Between, Func or IndexInto.
type Policy interface {
	check(f *Family, s *schema.Schema, attr string) error
	apply(m *mutation, inst *Instance, attr string) error
}

// Inferred mutates within the minimum and maximum snapshot values of the
// family
func Inferred() Policy {
	return inferredPolicy{}
}

// Between mutates within [low, high]
func Between(low, high int64) Policy {
	return boundsPolicy{low: low, high: high}
}

// Func computes the new value with fn
func Func(fn MutateFunc) Policy {
	return funcPolicy{fn: fn}
}

// IndexInto treats the attribute as an index into target and mutates it to
// a rank-nearby instance of target
func IndexInto(target *Family) Policy {
	return refPolicy{target: target}
}

// mutation carries the state shared by one family's mutate phase
type mutation struct {
	ctx       *Context
	family    *Family
	instances []*Instance
	bounds    map[string][2]int64
}

func (m *mutation) inferred(attr string) (int64, int64) {
	if b, ok := m.bounds[attr]; ok {
		return b[0], b[1]
	}
	low, high := int64(0), int64(0)
	for i, inst := range m.instances {
		v := inst.OldInt(attr)
		if i == 0 || v < low {
			low = v
		}
		if i == 0 || v > high {
			high = v
		}
	}
	m.bounds[attr] = [2]int64{low, high}
	return low, high
}

type inferredPolicy struct{}

func (inferredPolicy) check(f *Family, s *schema.Schema, attr string) error {
	return checkNumeric(f, s, attr)
}

func (inferredPolicy) apply(m *mutation, inst *Instance, attr string) error {
	low, high := m.inferred(attr)
	return inst.SetInt(attr, MutateNormal(m.ctx.Rand, inst.Int(attr), low, high, m.family.degree()))
}

type boundsPolicy struct {
	low, high int64
}

func (p boundsPolicy) check(f *Family, s *schema.Schema, attr string) error {
	if err := checkNumeric(f, s, attr); err != nil {
		return err
	}
	if p.low > p.high || p.low < 0 {
		return errors.InvalidPolicy(f.Name, attr, "bounds must satisfy 0 <= low <= high")
	}
	field, _ := s.Field(attr)
	if p.high > codec.IntegerLimit(field.Width) {
		return errors.InvalidPolicy(f.Name, attr, "upper bound does not fit the field")
	}
	return nil
}

func (p boundsPolicy) apply(m *mutation, inst *Instance, attr string) error {
	return inst.SetInt(attr, MutateNormal(m.ctx.Rand, inst.Int(attr), p.low, p.high, m.family.degree()))
}

type funcPolicy struct {
	fn MutateFunc
}

func (p funcPolicy) check(f *Family, _ *schema.Schema, attr string) error {
	if p.fn == nil {
		return errors.InvalidPolicy(f.Name, attr, "nil mutation function")
	}
	return nil
}

func (p funcPolicy) apply(m *mutation, inst *Instance, attr string) error {
	v, err := p.fn(inst, m.ctx)
	if err != nil {
		return err
	}
	return inst.Set(attr, v)
}

type refPolicy struct {
	target *Family
}

func (p refPolicy) check(f *Family, s *schema.Schema, attr string) error {
	if p.target == nil {
		return errors.InvalidPolicy(f.Name, attr, "index policy without a target family")
	}
	if err := checkNumeric(f, s, attr); err != nil {
		return err
	}
	field, _ := s.Field(attr)
	if field.Ref != "" && field.Ref != p.target.Name {
		return errors.InvalidPolicy(f.Name, attr, "field refers to "+field.Ref+", policy to "+p.target.Name)
	}
	return nil
}

// apply moves the index to an instance near the current target in the
// target family's rank order. Values that index nothing are left alone.
func (p refPolicy) apply(m *mutation, inst *Instance, attr string) error {
	order := RankOrder(p.target, m.ctx.Instances(p.target))
	current := inst.Int(attr)
	pos := -1
	for i, t := range order {
		if int64(t.Index) == current {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil
	}
	q := MutateNormal(m.ctx.Rand, int64(pos), 0, int64(len(order)-1), m.family.degree())
	return inst.SetInt(attr, int64(order[q].Index))
}

func checkNumeric(f *Family, s *schema.Schema, attr string) error {
	field, ok := s.Field(attr)
	if !ok {
		return errors.InvalidPolicy(f.Name, attr, "unknown attribute")
	}
	if field.Kind != codec.Integer {
		return errors.InvalidPolicy(f.Name, attr, field.Kind.String()+" attribute cannot be mutated numerically")
	}
	return nil
}

// mutate applies every rule to every instance, instances in index order
func mutate(c *Context, f *Family, insts []*Instance) error {
	m := &mutation{
		ctx:       c,
		family:    f,
		instances: insts,
		bounds:    make(map[string][2]int64),
	}
	for _, inst := range insts {
		for _, r := range f.Mutate {
			if err := r.Policy.apply(m, inst, r.Attr); err != nil {
				return annotate(err, errors.PhaseRandomize, errors.KindMutation, f.Name, inst.Index, inst.Pointer)
			}
		}
	}
	return nil
}
