package sessions

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kinetiq-id/kinetiq/internal/sample"
)

// PostgresStore implements Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new Postgres-backed session store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetOrCreate(ctx context.Context, sessionID, userID string, platform sample.Platform, st SessionType) (*Session, error) {
	// ON CONFLICT DO NOTHING + reload keeps this race-free across
	// concurrent collectors on the same session.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO biometric_sessions
			(session_id, user_id, platform, session_type, start_time, is_active, data_points_collected)
		VALUES ($1, $2, $3, $4, NOW(), TRUE, 0)
		ON CONFLICT (session_id) DO NOTHING
	`, sessionID, userID, string(platform), string(st))
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, sessionID)
}

func (s *PostgresStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	sess := &Session{}
	var (
		platform string
		st       string
		endTime  sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, user_id, platform, session_type, start_time, end_time, is_active, data_points_collected
		FROM biometric_sessions
		WHERE session_id = $1
	`, sessionID).Scan(&sess.SessionID, &sess.UserID, &platform, &st,
		&sess.StartTime, &endTime, &sess.IsActive, &sess.DataPointsCollected)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	sess.Platform = sample.Platform(platform)
	sess.SessionType = SessionType(st)
	if endTime.Valid {
		t := endTime.Time
		sess.EndTime = &t
	}
	return sess, nil
}

func (s *PostgresStore) IncrementDataPoints(ctx context.Context, sessionID string, n int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE biometric_sessions
		SET data_points_collected = data_points_collected + $2
		WHERE session_id = $1
	`, sessionID, n)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) End(ctx context.Context, sessionID string) (*Session, error) {
	var endTime time.Time
	err := s.db.QueryRowContext(ctx, `
		UPDATE biometric_sessions
		SET is_active = FALSE, end_time = NOW()
		WHERE session_id = $1 AND is_active = TRUE
		RETURNING end_time
	`, sessionID).Scan(&endTime)
	if errors.Is(err, sql.ErrNoRows) {
		// Distinguish missing from already ended.
		if _, getErr := s.Get(ctx, sessionID); getErr != nil {
			return nil, getErr
		}
		return nil, ErrEnded
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, sessionID)
}

func (s *PostgresStore) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM biometric_sessions WHERE is_active = TRUE
	`).Scan(&n)
	return n, err
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string, limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, user_id, platform, session_type, start_time, end_time, is_active, data_points_collected
		FROM biometric_sessions
		WHERE user_id = $1
		ORDER BY start_time DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		sess := &Session{}
		var (
			platform string
			st       string
			endTime  sql.NullTime
		)
		if err := rows.Scan(&sess.SessionID, &sess.UserID, &platform, &st,
			&sess.StartTime, &endTime, &sess.IsActive, &sess.DataPointsCollected); err != nil {
			return nil, err
		}
		sess.Platform = sample.Platform(platform)
		sess.SessionType = SessionType(st)
		if endTime.Valid {
			t := endTime.Time
			sess.EndTime = &t
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}
