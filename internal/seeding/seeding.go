// Package seeding owns the process-wide random source shared by tasks
// and domain randomization.
package seeding

import (
	"math/rand"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	current int64 = 42
	rng           = rand.New(rand.NewSource(42))
	picker        = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// SetSeed applies a seed and returns the value that was applied. Pass -1
// for a randomly drawn seed.
func SetSeed(seed int64) int64 {
	mu.Lock()
	defer mu.Unlock()

	if seed == -1 {
		seed = picker.Int63()
	}
	current = seed
	rng = rand.New(rand.NewSource(seed))
	return seed
}

// Seed returns the seed currently in effect.
func Seed() int64 {
	mu.Lock()
	defer mu.Unlock()
	return current
}

// Rand returns the shared random source. Callers must not retain it
// across SetSeed calls if they need reproducibility.
func Rand() *rand.Rand {
	mu.Lock()
	defer mu.Unlock()
	return rng
}
