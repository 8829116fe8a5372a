// Package sessions tracks biometric collection sessions.
//
// A session groups the telemetry batches of one continuous interaction
// (an onboarding flow, a login, a monitored transaction). Collection
// endpoints bump DataPointsCollected as batches arrive.
package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/kinetiq-id/kinetiq/internal/sample"
)

// SessionType classifies why a session was opened.
type SessionType string

const (
	TypeOnboarding  SessionType = "onboarding"
	TypeLogin       SessionType = "login"
	TypeTransaction SessionType = "transaction"
	TypeContinuous  SessionType = "continuous"
)

// Valid reports whether t is a known session type.
func (t SessionType) Valid() bool {
	switch t {
	case TypeOnboarding, TypeLogin, TypeTransaction, TypeContinuous:
		return true
	}
	return false
}

// Session is one biometric collection session.
type Session struct {
	SessionID           string          `json:"session_id"`
	UserID              string          `json:"user_id"`
	Platform            sample.Platform `json:"platform"`
	SessionType         SessionType     `json:"session_type"`
	StartTime           time.Time       `json:"start_time"`
	EndTime             *time.Time      `json:"end_time,omitempty"`
	IsActive            bool            `json:"is_active"`
	DataPointsCollected int64           `json:"data_points_collected"`
}

// Store errors.
var (
	ErrNotFound = errors.New("sessions: not found")
	ErrEnded    = errors.New("sessions: already ended")
)

// Store persists sessions.
type Store interface {
	// GetOrCreate returns the session with the given id, creating it
	// with the supplied attributes if absent.
	GetOrCreate(ctx context.Context, sessionID, userID string, platform sample.Platform, st SessionType) (*Session, error)
	Get(ctx context.Context, sessionID string) (*Session, error)
	// IncrementDataPoints adds n to the session's collected counter.
	IncrementDataPoints(ctx context.Context, sessionID string, n int64) error
	// End closes the session. Ending an ended session returns ErrEnded.
	End(ctx context.Context, sessionID string) (*Session, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*Session, error)
	// CountActive returns the number of open sessions.
	CountActive(ctx context.Context) (int64, error)
}
