package verify

import (
	"context"
	"sync"

	"github.com/kinetiq-id/kinetiq/internal/pagination"
)

// MemoryStore is an in-memory audit Store for tests and demo mode.
type MemoryStore struct {
	mu      sync.RWMutex
	results []*Result
}

// Compile-time check.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory audit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Record(_ context.Context, r *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	return nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string, cursor *pagination.Cursor, limit int) ([]*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Result
	// Newest first.
	for i := len(s.results) - 1; i >= 0; i-- {
		r := s.results[i]
		if r.UserID != userID {
			continue
		}
		if cursor != nil && !before(r, cursor) {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// before reports whether r sorts strictly after the cursor position in
// the newest-first ordering, using ID as tiebreaker.
func before(r *Result, c *pagination.Cursor) bool {
	if r.EvaluatedAt.Before(c.CreatedAt) {
		return true
	}
	return r.EvaluatedAt.Equal(c.CreatedAt) && r.ID < c.ID
}
