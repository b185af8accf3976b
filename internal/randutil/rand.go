// Package randutil derives reproducible random generators for games.
package randutil

import (
	rand "math/rand/v2"
	"sync"
	"time"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from seed.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Source hands out independent generators derived from a single root seed,
// so a server run can be replayed by reusing the seed it logged.
type Source struct {
	mu   sync.Mutex
	seed int64
	root *rand.Rand
}

// NewSource creates a Source. A zero seed is replaced with the current time.
func NewSource(seed int64) *Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Source{seed: seed, root: New(seed)}
}

// Seed returns the root seed.
func (s *Source) Seed() int64 {
	return s.seed
}

// Next returns a fresh generator. The returned generator is not safe for
// concurrent use; callers own it.
func (s *Source) Next() *rand.Rand {
	s.mu.Lock()
	child := int64(s.root.Uint64())
	s.mu.Unlock()
	return New(child)
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
