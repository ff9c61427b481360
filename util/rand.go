package util

import "math/rand/v2"

// Rand is the randomness used by floor generation and Twisted movement.
// Production code uses the shared math/rand source; tests inject a seeded
// or scripted implementation.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

type systemRand struct{}

func (systemRand) Float64() float64 { return rand.Float64() }
func (systemRand) IntN(n int) int   { return rand.IntN(n) }

func NewRand() Rand {
	return systemRand{}
}

// NewSeededRand returns a deterministic source for tests.
func NewSeededRand(seed uint64) Rand {
	return rand.New(rand.NewPCG(seed, seed))
}
