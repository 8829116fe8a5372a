package profile

import (
	"context"
	"errors"
)

// Store errors.
var (
	// ErrNotFound is returned when a user has no profile yet.
	ErrNotFound = errors.New("profile: not found")
	// ErrConflict is returned when an optimistic write lost the race.
	ErrConflict = errors.New("profile: version conflict")
)

// Store persists behavioral profiles.
//
// Mutate loads the profile (creating an empty one if absent), applies fn
// under per-user serialization, and persists the result. Implementations
// guarantee that two concurrent Mutate calls for the same user never
// interleave their read-modify-write cycles.
type Store interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	Mutate(ctx context.Context, userID string, fn func(p *Profile) error) (*Profile, error)
}
