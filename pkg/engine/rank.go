package engine

import (
	"cmp"
	"math"
	"math/rand"
	"slices"
)

// RankOrder returns insts sorted by the family's rank, ties broken by index
func RankOrder(f *Family, insts []*Instance) []*Instance {
	type ranked struct {
		inst *Instance
		rank float64
	}
	rs := make([]ranked, len(insts))
	for i, inst := range insts {
		rs[i] = ranked{inst: inst, rank: f.rank(inst)}
	}
	slices.SortStableFunc(rs, func(a, b ranked) int {
		if c := cmp.Compare(a.rank, b.rank); c != 0 {
			return c
		}
		return cmp.Compare(a.inst.Index, b.inst.Index)
	})

	out := make([]*Instance, len(rs))
	for i, r := range rs {
		out[i] = r.inst
	}
	return out
}

// NearbyPairs returns, for each rank position i in [0, n), a swap partner
// drawn from the clamped normal around i. Positions that draw themselves are
// skipped. One random draw is consumed per position whenever n > 1 and
// degree > 0.
func NearbyPairs(r *rand.Rand, n int, degree float64) [][2]int {
	var pairs [][2]int
	for i := 0; i < n; i++ {
		j := int(MutateNormal(r, int64(i), 0, int64(n-1), degree))
		if j != i {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	return pairs
}

// MutateNormal draws round(base + N(0,1)*sigma) with
// sigma = degree*(high-low)/2 and clamps the result to [low, high]. base is
// clamped first. No draw is consumed when the spread is zero.
func MutateNormal(r *rand.Rand, base, low, high int64, degree float64) int64 {
	if low > high {
		low, high = high, low
	}
	base = clamp(base, low, high)
	if low == high || degree <= 0 {
		return base
	}

	sigma := degree * float64(high-low) / 2
	v := math.Round(float64(base) + r.NormFloat64()*sigma)
	switch {
	case v <= float64(low):
		return low
	case v >= float64(high):
		return high
	default:
		return int64(v)
	}
}

func clamp(v, low, high int64) int64 {
	return max(low, min(v, high))
}
