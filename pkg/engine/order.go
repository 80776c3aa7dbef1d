package engine

import (
	"github.com/ssargent/aerobonkers/pkg/errors"
	"github.com/ssargent/aerobonkers/pkg/schema"
)

// resolveOrder returns families in dependency order. Ties keep declaration
// order. Edges come from AfterOrder, IndexInto targets and ref:<family>
// field tags that name a declared family.
func resolveOrder(families []*Family, schemas map[*Family]*schema.Schema) ([]*Family, error) {
	declared := make(map[*Family]bool, len(families))
	byName := make(map[string]*Family, len(families))
	for _, f := range families {
		if declared[f] {
			return nil, errors.Configuration("family %s declared twice", f.Name)
		}
		if _, dup := byName[f.Name]; dup {
			return nil, errors.Configuration("two families named %s", f.Name)
		}
		declared[f] = true
		byName[f.Name] = f
	}

	deps := make(map[*Family][]*Family, len(families))
	for _, f := range families {
		for _, d := range f.dependencies() {
			if !declared[d] {
				return nil, errors.Configuration("family %s depends on undeclared family %s", f.Name, d.Name)
			}
			deps[f] = append(deps[f], d)
		}
		for _, field := range schemas[f].Fields {
			if t, ok := byName[field.Ref]; ok && t != f {
				deps[f] = append(deps[f], t)
			}
		}
	}

	done := make(map[*Family]bool, len(families))
	order := make([]*Family, 0, len(families))
	for len(order) < len(families) {
		progressed := false
		for _, f := range families {
			if done[f] || !ready(deps[f], done) {
				continue
			}
			done[f] = true
			order = append(order, f)
			progressed = true
			break
		}
		if !progressed {
			var stuck []string
			for _, f := range families {
				if !done[f] {
					stuck = append(stuck, f.Name)
				}
			}
			return nil, errors.Cycle(stuck)
		}
	}
	return order, nil
}

func ready(deps []*Family, done map[*Family]bool) bool {
	for _, d := range deps {
		if !done[d] {
			return false
		}
	}
	return true
}
