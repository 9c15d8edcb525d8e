package random

import "math/rand/v2"

// Random provides random number generation that can be mocked for testing
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int
}

// Source draws rewards from the runtime's seeded generator
type Source struct{}

// New creates a new Source
func New() *Source {
	return &Source{}
}

// Intn returns a uniform int in [0, n), or 0 when n is not positive
func (Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return rand.IntN(n)
}

// Between returns a uniform value in the inclusive range [lo, hi]
func Between(r Random, lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + int64(r.Intn(int(hi-lo+1)))
}
