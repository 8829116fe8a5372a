// Package collect ingests behavioral telemetry batches.
//
// Ingestion is the enrollment path: each accepted batch opens or
// advances a session and folds into the user's behavioral profile.
package collect

import (
	"context"
	"fmt"
	"math"

	"github.com/kinetiq-id/kinetiq/internal/logging"
	"github.com/kinetiq-id/kinetiq/internal/profile"
	"github.com/kinetiq-id/kinetiq/internal/sample"
	"github.com/kinetiq-id/kinetiq/internal/sessions"
	"github.com/kinetiq-id/kinetiq/internal/traces"
)

// Receipt summarizes the effect of one accepted batch.
type Receipt struct {
	SessionID           string  `json:"session_id"`
	DataPointsCollected int64   `json:"data_points_collected"`
	SamplesCollected    int64   `json:"samples_collected"`
	ProfileConfidence   float64 `json:"profile_confidence"`
	SignatureHash       string  `json:"signature_hash,omitempty"`
}

// Collector wires the ingestion path: sessions plus profile updates.
type Collector struct {
	profiles profile.Store
	sessions sessions.Store
	updater  *profile.Updater
}

// NewCollector creates a collector over the given stores.
func NewCollector(profiles profile.Store, sess sessions.Store) *Collector {
	return &Collector{
		profiles: profiles,
		sessions: sess,
		updater:  profile.NewUpdater(),
	}
}

// IngestMobile normalizes and ingests a mobile telemetry batch.
func (c *Collector) IngestMobile(ctx context.Context, p *sample.MobilePayload) (*Receipt, error) {
	s, err := sample.FromMobile(ctx, p)
	if err != nil {
		return nil, err
	}
	return c.ingest(ctx, s, sessionType(p.SessionType))
}

// IngestWeb normalizes and ingests a web telemetry batch.
func (c *Collector) IngestWeb(ctx context.Context, p *sample.WebPayload) (*Receipt, error) {
	s, err := sample.FromWeb(ctx, p)
	if err != nil {
		return nil, err
	}
	return c.ingest(ctx, s, sessionType(p.SessionType))
}

func (c *Collector) ingest(ctx context.Context, s *sample.Sample, st sessions.SessionType) (*Receipt, error) {
	ctx, span := traces.StartSpan(ctx, "collect.ingest",
		traces.UserID(s.UserID), traces.SessionID(s.SessionID), traces.Platform(string(s.Platform)))
	defer span.End()
	done := observeOp("ingest")
	defer done()

	sess, err := c.sessions.GetOrCreate(ctx, s.SessionID, s.UserID, s.Platform, st)
	if err != nil {
		return nil, fmt.Errorf("collect: session: %w", err)
	}

	points := countDataPoints(s)
	if err := c.sessions.IncrementDataPoints(ctx, sess.SessionID, points); err != nil {
		return nil, fmt.Errorf("collect: count data points: %w", err)
	}

	updated, err := c.profiles.Mutate(ctx, s.UserID, func(p *profile.Profile) error {
		c.updater.Apply(ctx, p, []*sample.Sample{s})
		p.ProfileConfidence = enrollmentConfidence(p.SamplesCollected)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect: update profile: %w", err)
	}

	SamplesIngestedTotal.WithLabelValues(string(s.Platform)).Inc()
	DataPointsIngestedTotal.WithLabelValues(string(s.Platform)).Add(float64(points))
	logging.L(ctx).Info("sample ingested",
		"user_id", s.UserID, "session_id", s.SessionID,
		"platform", string(s.Platform), "data_points", points)

	return &Receipt{
		SessionID:           sess.SessionID,
		DataPointsCollected: sess.DataPointsCollected + points,
		SamplesCollected:    updated.SamplesCollected,
		ProfileConfidence:   updated.ProfileConfidence,
		SignatureHash:       signatureOf(updated, s.Platform),
	}, nil
}

// countDataPoints is the number of raw events in a sample.
func countDataPoints(s *sample.Sample) int64 {
	n := len(s.Channels.Typing) + len(s.Channels.Touch) +
		len(s.Channels.Mouse) + len(s.Channels.Scroll)
	if s.Channels.Device != nil {
		n++
	}
	if s.Channels.Browser != nil {
		n++
	}
	return int64(n)
}

// enrollmentConfidence maps accumulated samples to profile confidence.
// Saturates at 1.0 after 100 samples.
func enrollmentConfidence(samples int64) float64 {
	return math.Min(1.0, float64(samples)/100.0)
}

func signatureOf(p *profile.Profile, platform sample.Platform) string {
	switch platform {
	case sample.PlatformMobile:
		if p.Mobile != nil {
			return p.Mobile.SignatureHash
		}
	case sample.PlatformWeb:
		if p.Web != nil {
			return p.Web.SignatureHash
		}
	case sample.PlatformDesktop:
		if p.Desktop != nil {
			return p.Desktop.SignatureHash
		}
	}
	return ""
}

func sessionType(s string) sessions.SessionType {
	st := sessions.SessionType(s)
	if !st.Valid() {
		return sessions.TypeOnboarding
	}
	return st
}
