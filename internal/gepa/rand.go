package gepa

import "math/rand"

// Rand is a run-scoped PRNG. Every stochastic decision in the core
// (sub-sampling, weighted selection, failure picking, tool picking)
// routes through one of these methods so that a fixed seed reproduces a
// run deterministically.
type Rand struct {
	r *rand.Rand
}

// NewRand seeds a run-scoped PRNG. Seed 0 is a valid, deterministic seed.
func NewRand(seed int64) *Rand {
	return &Rand{r: rand.New(rand.NewSource(seed))}
}

// Float64 returns a pseudo-random number in [0.0, 1.0).
func (rg *Rand) Float64() float64 {
	return rg.r.Float64()
}

// Intn returns a pseudo-random number in [0, n).
func (rg *Rand) Intn(n int) int {
	return rg.r.Intn(n)
}

// SampleIndices draws k distinct indices without replacement from [0, n).
func (rg *Rand) SampleIndices(n, k int) []int {
	if k >= n {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	perm := rg.r.Perm(n)
	out := make([]int, k)
	copy(out, perm[:k])
	return out
}

// WeightedChoice samples one index proportionally to the given weights.
// Returns -1 if weights is empty or all weights are zero.
func (rg *Rand) WeightedChoice(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return -1
	}
	target := rg.r.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if target < acc {
			return i
		}
	}
	return len(weights) - 1
}
