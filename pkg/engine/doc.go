// Package engine loads record families from a byte image, randomizes them
// under declared policies and writes them back.
//
// A Family is plain declaration data: a layout table, an optional rank
// function, a gate, phase tables and hooks. Execute builds a Context for one
// run and drives every family through
//
//	load -> intershuffle -> randomize -> mutate -> validate -> write
//
// in dependency order. Families whose gate is false still load, validate and
// write, so their bytes round-trip unchanged.
//
// Randomness comes from one math/rand source seeded from Specs.Seed and
// consumed in a fixed order (families in dependency order, phases in order,
// instances by rank or index, attributes in declaration order), so equal
// inputs and seeds give byte-identical output.
//
// Statistical mutation draws round(base + N(0,1)*sigma) with
// sigma = degree*(high-low)/2, clamped to [low, high]. A degree of zero
// leaves every value where it was.
package engine
