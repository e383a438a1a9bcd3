// ceam/stats/rng.go
package stats

import "math/rand"

// Randomness in PSA is owned by explicit seeded generators; nothing in this
// module touches the global math/rand state. Each Monte Carlo iteration gets
// its own substream derived deterministically from (seed, index), so running
// iterations in parallel produces bit-identical draws versus running them
// sequentially.

// splitmix64 is the SplitMix64 finalizer, used to decorrelate nearby
// (seed, index) pairs before feeding them to math/rand.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// SubstreamSeed derives the seed for iteration index under the given master
// seed.
func SubstreamSeed(seed int64, index int) int64 {
	return int64(splitmix64(uint64(seed) ^ splitmix64(uint64(index))))
}

// NewSubstream returns the isolated generator for one iteration.
func NewSubstream(seed int64, index int) *rand.Rand {
	return rand.New(rand.NewSource(SubstreamSeed(seed, index)))
}
