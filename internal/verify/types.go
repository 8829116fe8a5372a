// Package verify orchestrates the verification pipeline: feature
// extraction, similarity matching, anomaly detection, risk scoring and
// the final decision, plus the immutable audit trail of outcomes.
package verify

import (
	"context"
	"time"

	"github.com/kinetiq-id/kinetiq/internal/pagination"
	"github.com/kinetiq-id/kinetiq/internal/sample"
)

// Status is the outcome class of a verification.
type Status string

const (
	StatusSuccess      Status = "success"
	StatusFailed       Status = "failed"
	StatusSuspicious   Status = "suspicious"
	StatusInconclusive Status = "inconclusive"
)

// Type is the business context a verification ran in.
type Type string

const (
	TypeLogin       Type = "login"
	TypeTransaction Type = "transaction"
	TypeContinuous  Type = "continuous"
	TypeChallenge   Type = "challenge"
)

// Valid reports whether t is a known verification type.
func (t Type) Valid() bool {
	switch t {
	case TypeLogin, TypeTransaction, TypeContinuous, TypeChallenge:
		return true
	}
	return false
}

// Result is one verification outcome. Results are immutable once
// produced and are recorded append-only.
type Result struct {
	ID                string                     `json:"id"`
	UserID            string                     `json:"user_id"`
	SessionID         string                     `json:"session_id"`
	Platform          sample.Platform            `json:"platform"`
	Type              Type                       `json:"verification_type"`
	Status            Status                     `json:"status"`
	IsVerified        bool                       `json:"is_verified"`
	Confidence        float64                    `json:"confidence"`
	RiskScore         float64                    `json:"risk_score"`
	Anomalies         []string                   `json:"anomalies"`
	RequiresChallenge bool                       `json:"requires_challenge"`
	ChallengeType     string                     `json:"challenge_type,omitempty"`
	ChannelScores     map[sample.Channel]float64 `json:"channel_scores,omitempty"`
	EvaluatedAt       time.Time                  `json:"evaluated_at"`
}

// Store is the append-only audit trail of verification results.
type Store interface {
	Record(ctx context.Context, r *Result) error
	// ListByUser returns results newest first. A non-nil cursor restricts
	// the page to results strictly older than the cursor position.
	ListByUser(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) ([]*Result, error)
}
