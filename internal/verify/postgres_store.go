package verify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/kinetiq-id/kinetiq/internal/pagination"
	"github.com/kinetiq-id/kinetiq/internal/sample"
)

// PostgresStore implements the audit Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new Postgres-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Record(ctx context.Context, r *Result) error {
	scores, err := json.Marshal(r.ChannelScores)
	if err != nil {
		return fmt.Errorf("verify: encode channel scores: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verification_log
			(id, user_id, session_id, platform, verification_type, status,
			 is_verified, confidence, risk_score, anomalies, requires_challenge,
			 challenge_type, channel_scores, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		r.ID, r.UserID, r.SessionID, string(r.Platform), string(r.Type), string(r.Status),
		r.IsVerified, r.Confidence, r.RiskScore, pq.Array(r.Anomalies), r.RequiresChallenge,
		r.ChallengeType, scores, r.EvaluatedAt,
	)
	return err
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) ([]*Result, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, session_id, platform, verification_type, status,
		       is_verified, confidence, risk_score, anomalies, requires_challenge,
		       challenge_type, channel_scores, evaluated_at
		FROM verification_log
		WHERE user_id = $1`
	args := []any{userID}
	if cursor != nil {
		query += ` AND (evaluated_at, id) < ($2, $3)`
		args = append(args, cursor.CreatedAt, cursor.ID)
	}
	query += fmt.Sprintf(` ORDER BY evaluated_at DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Result
	for rows.Next() {
		r := &Result{}
		var (
			platform  string
			vtype     string
			status    string
			scoresRaw []byte
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.SessionID, &platform, &vtype, &status,
			&r.IsVerified, &r.Confidence, &r.RiskScore, pq.Array(&r.Anomalies), &r.RequiresChallenge,
			&r.ChallengeType, &scoresRaw, &r.EvaluatedAt); err != nil {
			return nil, err
		}
		r.Platform = sample.Platform(platform)
		r.Type = Type(vtype)
		r.Status = Status(status)
		if len(scoresRaw) > 0 {
			if err := json.Unmarshal(scoresRaw, &r.ChannelScores); err != nil {
				return nil, fmt.Errorf("verify: decode channel scores: %w", err)
			}
		}
		if r.Anomalies == nil {
			r.Anomalies = []string{}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
