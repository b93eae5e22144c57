package correlation

import (
	"math/rand/v2"
)

// RandomSource draws the reference windows of the NN test.
type RandomSource interface {
	// Perm returns a pseudo-random permutation of [0, n)
	Perm(n int) []int
}

// NewRandomSource returns a PCG-backed source for the given seed pair
func NewRandomSource(seed, stream uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, stream))
}

// jobSource derives an independent source for one (sample, dimension, event
// sequence) job so results do not depend on scheduling order
func jobSource(seed uint64, sample, dim, event int) RandomSource {
	stream := uint64(sample)<<40 ^ uint64(dim)<<20 ^ uint64(event)
	return NewRandomSource(seed, stream)
}

// SampleWithoutReplacement draws k values of series at distinct positions
func SampleWithoutReplacement(series []float64, k int, rng RandomSource) []float64 {
	if k > len(series) {
		k = len(series)
	}
	idx := rng.Perm(len(series))[:k]
	out := make([]float64, k)
	for i, j := range idx {
		out[i] = series[j]
	}
	return out
}
