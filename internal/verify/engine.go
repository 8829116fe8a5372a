package verify

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kinetiq-id/kinetiq/internal/anomaly"
	"github.com/kinetiq-id/kinetiq/internal/features"
	"github.com/kinetiq-id/kinetiq/internal/idgen"
	"github.com/kinetiq-id/kinetiq/internal/logging"
	"github.com/kinetiq-id/kinetiq/internal/matcher"
	"github.com/kinetiq-id/kinetiq/internal/profile"
	"github.com/kinetiq-id/kinetiq/internal/sample"
	"github.com/kinetiq-id/kinetiq/internal/traces"
)

const (
	// successThreshold is the minimum confidence for a success verdict
	// on any platform. Matcher match thresholds are platform-specific;
	// this one is not.
	successThreshold = 0.70
	// challengeThreshold is the minimum confidence for a suspicious
	// verdict with a step-up challenge instead of a hard failure.
	challengeThreshold = 0.50

	mobileAnomalyPenalty = 0.20
	webAnomalyPenalty    = 0.15
)

// Publisher receives completed verification results, e.g. for streaming
// to dashboards. Implementations must not block.
type Publisher interface {
	PublishResult(r *Result)
}

// Engine runs the verification pipeline.
type Engine struct {
	profiles  profile.Store
	audit     Store
	mobile    *matcher.Matcher
	web       *matcher.Matcher
	mobileDet *anomaly.Detector
	webDet    *anomaly.Detector
	publisher Publisher
}

// Option configures an Engine.
type Option func(*Engine)

// WithPublisher streams results to p after each verification.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithMatcherConfig overrides the default weight and threshold tables.
func WithMatcherConfig(cfg matcher.Config) Option {
	return func(e *Engine) {
		e.mobile = matcher.NewMobile(cfg)
		e.web = matcher.NewWeb(cfg)
	}
}

// NewEngine creates a verification engine backed by the given stores.
func NewEngine(profiles profile.Store, audit Store, opts ...Option) *Engine {
	cfg := matcher.DefaultConfig()
	e := &Engine{
		profiles:  profiles,
		audit:     audit,
		mobile:    matcher.NewMobile(cfg),
		web:       matcher.NewWeb(cfg),
		mobileDet: anomaly.NewDetector(anomaly.MobileRules()...),
		webDet:    anomaly.NewDetector(anomaly.WebRules()...),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Verify runs the full pipeline for one sample and returns the decision.
// It never returns an error: any internal failure collapses into the
// fail-closed result (not verified, confidence 0, risk 1) with the cause
// logged and audited.
func (e *Engine) Verify(ctx context.Context, s *sample.Sample, vtype Type) *Result {
	ctx, span := traces.StartSpan(ctx, "verify.Verify",
		traces.UserID(s.UserID), traces.Platform(string(s.Platform)),
		traces.VerificationType(string(vtype)))
	defer span.End()
	done := observeOp("verify")
	defer done()

	res, err := e.verify(ctx, s, vtype)
	if err != nil {
		logging.L(ctx).Error("verification failed closed",
			"user_id", s.UserID, "session_id", s.SessionID,
			"platform", string(s.Platform), "error", err)
		res = e.failClosed(s, vtype)
	}

	VerificationsTotal.WithLabelValues(string(res.Platform), string(res.Status)).Inc()
	VerificationConfidence.Observe(res.Confidence)
	VerificationRisk.Observe(res.RiskScore)

	// Audit trail is best-effort; the decision stands even if the write
	// fails.
	if e.audit != nil {
		if err := e.audit.Record(ctx, res); err != nil {
			logging.L(ctx).Error("audit record failed", "result_id", res.ID, "error", err)
		}
	}
	if e.publisher != nil {
		e.publisher.PublishResult(res)
	}
	return res
}

// verify is the fallible pipeline. Stages return explicit errors;
// collapsing to fail-closed happens only in Verify.
func (e *Engine) verify(ctx context.Context, s *sample.Sample, vtype Type) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if !vtype.Valid() {
		return nil, fmt.Errorf("verify: unknown verification type %q", vtype)
	}

	p, err := e.profiles.Get(ctx, s.UserID)
	if err != nil {
		return nil, fmt.Errorf("verify: load profile: %w", err)
	}

	v := features.Extract(s)

	m, det, penalty, p := e.forPlatform(s.Platform, p)
	match := m.Match(v, p)
	anomalies := det.Detect(v, p)
	for _, tag := range anomalies {
		AnomaliesTotal.WithLabelValues(tag).Inc()
	}

	risk := clamp01(1.0 - match.Confidence + penalty*float64(len(anomalies)))

	res := &Result{
		ID:            idgen.WithPrefix("ver_"),
		UserID:        s.UserID,
		SessionID:     s.SessionID,
		Platform:      s.Platform,
		Type:          vtype,
		Confidence:    round3(match.Confidence),
		RiskScore:     round3(risk),
		Anomalies:     anomalies,
		ChannelScores: match.ChannelScores,
		EvaluatedAt:   time.Now().UTC(),
	}

	switch {
	case match.IsMatch && match.Confidence >= successThreshold:
		res.Status = StatusSuccess
		res.IsVerified = true
	case match.Confidence >= challengeThreshold:
		res.Status = StatusSuspicious
		res.RequiresChallenge = true
		res.ChallengeType = "otp"
	default:
		res.Status = StatusFailed
	}
	return res, nil
}

// forPlatform selects the matcher, detector and risk penalty for a
// platform. Desktop samples score against the desktop sub-profile
// through the web matcher, so the returned profile aliases Desktop
// into the Web slot.
func (e *Engine) forPlatform(pl sample.Platform, p *profile.Profile) (*matcher.Matcher, *anomaly.Detector, float64, *profile.Profile) {
	switch pl {
	case sample.PlatformMobile:
		return e.mobile, e.mobileDet, mobileAnomalyPenalty, p
	case sample.PlatformDesktop:
		aliased := p.Clone()
		aliased.Web = aliased.Desktop
		return e.web, e.webDet, webAnomalyPenalty, aliased
	default:
		return e.web, e.webDet, webAnomalyPenalty, p
	}
}

// failClosed builds the deny-by-default result.
func (e *Engine) failClosed(s *sample.Sample, vtype Type) *Result {
	return &Result{
		ID:          idgen.WithPrefix("ver_"),
		UserID:      s.UserID,
		SessionID:   s.SessionID,
		Platform:    s.Platform,
		Type:        vtype,
		Status:      StatusFailed,
		IsVerified:  false,
		Confidence:  0.0,
		RiskScore:   1.0,
		Anomalies:   []string{},
		EvaluatedAt: time.Now().UTC(),
	}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// round3 keeps scores at 3 decimal places for stable API output.
func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
