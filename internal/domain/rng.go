package domain

import "math/rand/v2"

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// IntN returns a uniformly distributed int in [0, n). n must be > 0.
	IntN(n int) int
}

// StdRNG delegates to math/rand/v2, which is auto-seeded and unbiased for any n.
type StdRNG struct{}

func (StdRNG) IntN(n int) int { return rand.IntN(n) }

// shuffle performs an in-place Fisher-Yates shuffle driven by rng.
func shuffle[T any](items []T, rng RNG) {
	for i := len(items) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
