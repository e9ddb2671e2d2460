// Package weights resolves the effective weight vector for an assessment
// run. Resolution starts from the tier-default table, overlays partial
// config-file weights, then partial CLI overrides, validates the merged
// vector, and rescales it once so the final weights sum to 1.0. Hard
// validation findings block resolution; advisory findings are returned
// as warnings and never block.
package weights

import (
	"maps"
	"slices"
	"sync"

	"github.com/gradekit/repograde/pkg/attribute"
)

// Vector maps attribute IDs to weights. A finalized vector covers every
// catalog attribute and sums to 1.0 within SumTolerance. Transformations
// return new vectors; a Vector is never mutated in place once handed out.
type Vector map[attribute.ID]float64

const (
	// SumTolerance is the permitted deviation of a weight total from 1.0.
	SumTolerance = 0.001
	// MinWeight and MaxWeight bound the advisory per-attribute range.
	MinWeight = 0.005
	MaxWeight = 0.20
)

var defaults = sync.OnceValue(func() Vector {
	v := make(Vector, 25)
	for _, a := range attribute.Catalog() {
		v[a.ID] = a.Tier.DefaultWeight()
	}
	return v
})

// Defaults returns the tier-default weight vector derived from the
// 50/30/15/5 tier split. The table is built once per process and shared
// read-only; the returned Vector is a copy the caller may overlay freely.
func Defaults() Vector {
	return maps.Clone(defaults())
}

// Sum returns the total of all weights in the vector. Accumulation runs
// in key order, so equal vectors always produce the identical total.
func (v Vector) Sum() float64 {
	var sum float64
	for _, id := range v.sortedIDs() {
		sum += v[id]
	}
	return sum
}

// Clone returns an independent copy of the vector.
func (v Vector) Clone() Vector {
	return maps.Clone(v)
}

// sortedIDs returns the vector's keys in lexical order so errors and
// warnings render deterministically.
func (v Vector) sortedIDs() []attribute.ID {
	ids := make([]attribute.ID, 0, len(v))
	for id := range v {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
