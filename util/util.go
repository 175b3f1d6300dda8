// Package util holds the seeded random vector generator shared by the generate CLI
// subcommand and the at-scale test suites (insert/search against hundreds of vectors).
// It deliberately knows nothing about vectorlog or engine: it produces plain [][]float32
// and leaves dimension validation and insertion to its callers.
package util

import "math/rand"

// RNG generates reproducible random vectors from a fixed seed, so a test or CLI
// invocation can be re-run with the same data.
type RNG struct {
	rand *rand.Rand
}

// NewRNG seeds a new generator. The same seed always reproduces the same sequence of
// vectors from GenerateRandomVectors.
func NewRNG(seed int64) *RNG {
	return &RNG{rand: rand.New(rand.NewSource(seed))} // nolint gosec
}

// GenerateRandomVectors returns num vectors of the given dimension, each component drawn
// uniformly from [0, 1).
func (r *RNG) GenerateRandomVectors(num, dimension int) [][]float32 {
	vectors := make([][]float32, num)
	for i := range vectors {
		vectors[i] = make([]float32, dimension)
		for j := range vectors[i] {
			vectors[i][j] = r.rand.Float32()
		}
	}

	return vectors
}
