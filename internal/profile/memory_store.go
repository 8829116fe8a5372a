package profile

import (
	"context"
	"sync"
	"time"

	"github.com/kinetiq-id/kinetiq/internal/syncutil"
)

// MemoryStore is an in-memory Store for tests and demo mode.
// Per-user write serialization uses a sharded mutex so concurrent updates
// for the same user apply one at a time.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	locks    syncutil.ShardedMutex
}

// Compile-time check.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]*Profile),
	}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (s *MemoryStore) Mutate(_ context.Context, userID string, fn func(p *Profile) error) (*Profile, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	s.mu.RLock()
	stored, ok := s.profiles[userID]
	s.mu.RUnlock()

	var p *Profile
	if ok {
		p = stored.Clone()
	} else {
		now := time.Now().UTC()
		p = &Profile{UserID: userID, CreatedAt: now, UpdatedAt: now}
	}

	if err := fn(p); err != nil {
		return nil, err
	}
	p.Version++

	s.mu.Lock()
	s.profiles[userID] = p
	s.mu.Unlock()
	return p.Clone(), nil
}
