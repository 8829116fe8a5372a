package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/kinetiq-id/kinetiq/internal/retry"
)

// PostgresStore implements Store backed by PostgreSQL. Concurrent writers
// for the same user are serialized with optimistic concurrency: updates
// carry the version they read, and a lost race retries with backoff.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new Postgres-backed profile store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const (
	mutateAttempts  = 5
	mutateBaseDelay = 10 * time.Millisecond
)

func (s *PostgresStore) Get(ctx context.Context, userID string) (*Profile, error) {
	return s.get(ctx, userID)
}

func (s *PostgresStore) Mutate(ctx context.Context, userID string, fn func(p *Profile) error) (*Profile, error) {
	var out *Profile
	err := retry.Do(ctx, mutateAttempts, mutateBaseDelay, func() error {
		p, err := s.get(ctx, userID)
		created := false
		if errors.Is(err, ErrNotFound) {
			now := time.Now().UTC()
			p = &Profile{UserID: userID, CreatedAt: now, UpdatedAt: now}
			created = true
		} else if err != nil {
			return retry.Permanent(err)
		}

		if err := fn(p); err != nil {
			return retry.Permanent(err)
		}

		if created {
			if err := s.insert(ctx, p); err != nil {
				// Another writer created the row first; reload and retry.
				if isUniqueViolation(err) {
					return ErrConflict
				}
				return retry.Permanent(err)
			}
		} else {
			if err := s.update(ctx, p); err != nil {
				if errors.Is(err, ErrConflict) {
					return err
				}
				return retry.Permanent(err)
			}
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) get(ctx context.Context, userID string) (*Profile, error) {
	var (
		p          = &Profile{UserID: userID}
		mobileRaw  []byte
		webRaw     []byte
		desktopRaw []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT mobile_profile, web_profile, desktop_profile,
		       profile_confidence, samples_collected, version, created_at, updated_at
		FROM behavioral_profiles
		WHERE user_id = $1
	`, userID).Scan(&mobileRaw, &webRaw, &desktopRaw,
		&p.ProfileConfidence, &p.SamplesCollected, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile: get %s: %w", userID, err)
	}

	if err := unmarshalSub(mobileRaw, &p.Mobile); err != nil {
		return nil, err
	}
	if err := unmarshalSub(webRaw, &p.Web); err != nil {
		return nil, err
	}
	if err := unmarshalSub(desktopRaw, &p.Desktop); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) insert(ctx context.Context, p *Profile) error {
	mobileRaw, webRaw, desktopRaw, err := marshalSubs(p)
	if err != nil {
		return err
	}
	p.Version = 1
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO behavioral_profiles
			(user_id, mobile_profile, web_profile, desktop_profile,
			 profile_confidence, samples_collected, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.UserID, mobileRaw, webRaw, desktopRaw,
		p.ProfileConfidence, p.SamplesCollected, p.Version, p.CreatedAt, p.UpdatedAt)
	return err
}

func (s *PostgresStore) update(ctx context.Context, p *Profile) error {
	mobileRaw, webRaw, desktopRaw, err := marshalSubs(p)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE behavioral_profiles SET
			mobile_profile     = $2,
			web_profile        = $3,
			desktop_profile    = $4,
			profile_confidence = $5,
			samples_collected  = $6,
			version            = version + 1,
			updated_at         = $7
		WHERE user_id = $1 AND version = $8
	`, p.UserID, mobileRaw, webRaw, desktopRaw,
		p.ProfileConfidence, p.SamplesCollected, p.UpdatedAt, p.Version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	p.Version++
	return nil
}

func marshalSubs(p *Profile) (mobile, web, desktop []byte, err error) {
	if mobile, err = marshalSub(p.Mobile); err != nil {
		return nil, nil, nil, err
	}
	if web, err = marshalSub(p.Web); err != nil {
		return nil, nil, nil, err
	}
	if desktop, err = marshalSub(p.Desktop); err != nil {
		return nil, nil, nil, err
	}
	return mobile, web, desktop, nil
}

func marshalSub(v any) ([]byte, error) {
	switch t := v.(type) {
	case *MobileProfile:
		if t == nil {
			return nil, nil
		}
	case *WebProfile:
		if t == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func unmarshalSub[T any](raw []byte, dst **T) error {
	if len(raw) == 0 {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("profile: decode sub-profile: %w", err)
	}
	*dst = &v
	return nil
}

// isUniqueViolation detects Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
