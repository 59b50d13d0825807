package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic simulation
type RNGPort interface {
	// Stream returns a generator that is identical for the same (seed, name) pair,
	// so one artist's simulated runs do not shift when another artist is added.
	Stream(ctx context.Context, name string, seed int64) (*rand.Rand, error)
}
