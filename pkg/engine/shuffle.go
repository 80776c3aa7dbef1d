package engine

// intershuffle swaps each attribute group between rank-nearby instances.
// Every swap moves a whole group, so the multiset of group values is kept.
func intershuffle(c *Context, f *Family, insts []*Instance) {
	if len(insts) < 2 {
		return
	}
	order := RankOrder(f, insts)
	for _, group := range f.Intershuffle {
		for _, p := range NearbyPairs(c.Rand, len(order), f.degree()) {
			a, b := order[p[0]], order[p[1]]
			for _, attr := range group {
				a.data[attr], b.data[attr] = b.data[attr], a.data[attr]
			}
		}
	}
}

// randomize replaces each named attribute with a uniform pick, with
// replacement, from the family's snapshot values
func randomize(c *Context, f *Family, insts []*Instance) {
	if len(insts) == 0 {
		return
	}
	for _, attr := range f.Randomize {
		for _, inst := range insts {
			inst.data[attr] = insts[c.Rand.Intn(len(insts))].old[attr]
		}
	}
}
