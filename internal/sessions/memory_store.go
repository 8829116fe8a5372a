package sessions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kinetiq-id/kinetiq/internal/sample"
)

// MemoryStore is an in-memory session Store for tests and demo mode.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// Compile-time check.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (s *MemoryStore) GetOrCreate(_ context.Context, sessionID, userID string, platform sample.Platform, st SessionType) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[sessionID]; ok {
		cp := *existing
		return &cp, nil
	}
	sess := &Session{
		SessionID:   sessionID,
		UserID:      userID,
		Platform:    platform,
		SessionType: st,
		StartTime:   time.Now().UTC(),
		IsActive:    true,
	}
	s.sessions[sessionID] = sess
	cp := *sess
	return &cp, nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *MemoryStore) IncrementDataPoints(_ context.Context, sessionID string, n int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	sess.DataPointsCollected += n
	return nil
}

func (s *MemoryStore) End(_ context.Context, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if !sess.IsActive {
		return nil, ErrEnded
	}
	now := time.Now().UTC()
	sess.IsActive = false
	sess.EndTime = &now
	cp := *sess
	return &cp, nil
}

func (s *MemoryStore) CountActive(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, sess := range s.sessions {
		if sess.IsActive {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string, limit int) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Session
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			cp := *sess
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
