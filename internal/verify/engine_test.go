package verify

import (
	"context"
	"testing"

	"github.com/kinetiq-id/kinetiq/internal/profile"
	"github.com/kinetiq-id/kinetiq/internal/sample"
)

func seedMobileProfile(t *testing.T, profiles profile.Store) {
	t.Helper()
	_, err := profiles.Mutate(context.Background(), "user_1", func(p *profile.Profile) error {
		p.Mobile = &profile.MobileProfile{
			AvgHoldTime:      150,
			AvgFlightTime:    80,
			AvgSwipeSpeed:    300,
			AvgTouchPressure: 0.6,
			TrustedDevices:   []string{"dev-1"},
			PrimaryOS:        "iOS",
		}
		p.SamplesCollected = 10
		return nil
	})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

func seedWebProfile(t *testing.T, profiles profile.Store, desktop bool) {
	t.Helper()
	_, err := profiles.Mutate(context.Background(), "user_1", func(p *profile.Profile) error {
		wp := &profile.WebProfile{
			AvgHoldTime:    120,
			AvgFlightTime:  90,
			AvgMouseSpeed:  250,
			AvgScrollSpeed: 400,
		}
		if desktop {
			p.Desktop = wp
		} else {
			p.Web = wp
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

func mobileSample(holdTime float64, device *sample.DeviceInfo) *sample.Sample {
	s := &sample.Sample{
		SessionID: "sess_1",
		UserID:    "user_1",
		Platform:  sample.PlatformMobile,
		Channels: sample.Channels{
			Typing: []sample.KeyEvent{{HoldTime: holdTime}, {HoldTime: holdTime}},
			Device: device,
		},
	}
	return s
}

func webSample(platform sample.Platform) *sample.Sample {
	return &sample.Sample{
		SessionID: "sess_1",
		UserID:    "user_1",
		Platform:  platform,
		Channels: sample.Channels{
			Typing: []sample.KeyEvent{
				{HoldTime: 120, FlightTime: 90},
				{HoldTime: 120, FlightTime: 90},
			},
			Mouse: []sample.MouseEvent{
				{X: 0, Y: 0, Speed: 240},
				{X: 5, Y: 5, Speed: 260},
			},
			Scroll: []sample.ScrollEvent{{Speed: 400, Direction: "down"}},
		},
	}
}

func TestVerifyMobileSuccess(t *testing.T) {
	profiles := profile.NewMemoryStore()
	audit := NewMemoryStore()
	seedMobileProfile(t, profiles)
	e := NewEngine(profiles, audit)

	s := mobileSample(150, &sample.DeviceInfo{DeviceID: "dev-1", OS: "iOS"})
	s.Channels.Touch = []sample.SwipeEvent{{Speed: 300, Pressure: 0.6}}

	res := e.Verify(context.Background(), s, TypeLogin)

	if res.Status != StatusSuccess {
		t.Errorf("status = %s, want success", res.Status)
	}
	if !res.IsVerified {
		t.Error("expected is_verified")
	}
	// typing 0.7*0.5 + touch 1.0*0.3 + device 1.0*0.2 = 0.85
	if res.Confidence != 0.85 {
		t.Errorf("confidence = %v, want 0.85", res.Confidence)
	}
	if res.RiskScore != 0.15 {
		t.Errorf("risk = %v, want 0.15", res.RiskScore)
	}
	if len(res.Anomalies) != 0 {
		t.Errorf("anomalies = %v, want none", res.Anomalies)
	}
	if res.ID == "" || res.EvaluatedAt.IsZero() {
		t.Error("result should carry an id and evaluation time")
	}

	recorded, err := audit.ListByUser(context.Background(), "user_1", nil, 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(recorded) != 1 || recorded[0].ID != res.ID {
		t.Errorf("audit trail = %v, want the single result", recorded)
	}
}

func TestVerifyMobileSuspiciousChallenge(t *testing.T) {
	profiles := profile.NewMemoryStore()
	seedMobileProfile(t, profiles)
	e := NewEngine(profiles, NewMemoryStore())

	// typing 0.7*0.5 + device 1.0*0.2 = 0.55, no touch channel
	s := mobileSample(150, &sample.DeviceInfo{DeviceID: "dev-1", OS: "iOS"})
	res := e.Verify(context.Background(), s, TypeLogin)

	if res.Status != StatusSuspicious {
		t.Errorf("status = %s, want suspicious", res.Status)
	}
	if res.IsVerified {
		t.Error("suspicious verdict must not be verified")
	}
	if !res.RequiresChallenge || res.ChallengeType != "otp" {
		t.Errorf("expected otp challenge, got requires=%v type=%q", res.RequiresChallenge, res.ChallengeType)
	}
	if res.Confidence != 0.55 {
		t.Errorf("confidence = %v, want 0.55", res.Confidence)
	}
}

func TestVerifyMobileFailedWithAnomalies(t *testing.T) {
	profiles := profile.NewMemoryStore()
	seedMobileProfile(t, profiles)
	e := NewEngine(profiles, NewMemoryStore())

	// Hold time way off the baseline fires the typing anomaly and scores 0.
	s := mobileSample(400, nil)
	res := e.Verify(context.Background(), s, TypeLogin)

	if res.Status != StatusFailed {
		t.Errorf("status = %s, want failed", res.Status)
	}
	if len(res.Anomalies) != 1 || res.Anomalies[0] != "typing_speed_anomaly" {
		t.Errorf("anomalies = %v, want [typing_speed_anomaly]", res.Anomalies)
	}
	// clamp(1 - 0 + 0.2*1) = 1
	if res.RiskScore != 1.0 {
		t.Errorf("risk = %v, want 1.0", res.RiskScore)
	}
}

func TestVerifyMobileAnomalyPenalty(t *testing.T) {
	profiles := profile.NewMemoryStore()
	seedMobileProfile(t, profiles)
	e := NewEngine(profiles, NewMemoryStore())

	// typing 0.7*0.5 + unknown-device-same-OS 0.5*0.2 = 0.45 with one
	// unfamiliar_device anomaly: risk = 1 - 0.45 + 0.2 = 0.75.
	s := mobileSample(150, &sample.DeviceInfo{DeviceID: "dev-x", OS: "iOS"})
	res := e.Verify(context.Background(), s, TypeLogin)

	if res.Status != StatusFailed {
		t.Errorf("status = %s, want failed below challenge threshold", res.Status)
	}
	if len(res.Anomalies) != 1 || res.Anomalies[0] != "unfamiliar_device" {
		t.Errorf("anomalies = %v, want [unfamiliar_device]", res.Anomalies)
	}
	if res.RiskScore != 0.75 {
		t.Errorf("risk = %v, want 0.75", res.RiskScore)
	}
}

func TestVerifyWebAnomalyPenalty(t *testing.T) {
	profiles := profile.NewMemoryStore()
	seedWebProfile(t, profiles, false)
	e := NewEngine(profiles, NewMemoryStore())

	// Identical mouse speeds: speed std 0 fires the robotic mouse rule
	// while every numeric channel still matches the baseline. Neither side
	// has a browser fingerprint, which also counts as a mismatch.
	s := webSample(sample.PlatformWeb)
	s.Channels.Mouse = []sample.MouseEvent{
		{X: 0, Y: 0, Speed: 250},
		{X: 5, Y: 5, Speed: 250},
	}
	res := e.Verify(context.Background(), s, TypeContinuous)

	want := []string{"robotic_mouse_movements", "browser_fingerprint_mismatch"}
	if len(res.Anomalies) != 2 || res.Anomalies[0] != want[0] || res.Anomalies[1] != want[1] {
		t.Errorf("anomalies = %v, want %v", res.Anomalies, want)
	}
	// mouse 0.7*0.4 + typing 1.0*0.3 + scroll 1.0*0.2 = 0.78
	if res.Confidence != 0.78 {
		t.Errorf("confidence = %v, want 0.78", res.Confidence)
	}
	// 1 - 0.78 + 0.15*2 = 0.52
	if res.RiskScore != 0.52 {
		t.Errorf("risk = %v, want 0.52 with the web penalty per tag", res.RiskScore)
	}
	if res.Status != StatusSuccess {
		t.Errorf("status = %s, confidence above threshold still verifies", res.Status)
	}
}

func TestVerifyDesktopUsesDesktopProfile(t *testing.T) {
	profiles := profile.NewMemoryStore()
	seedWebProfile(t, profiles, true)
	e := NewEngine(profiles, NewMemoryStore())

	res := e.Verify(context.Background(), webSample(sample.PlatformDesktop), TypeLogin)

	// mouse 0.7*0.4 + typing 1.0*0.3 + scroll 1.0*0.2 = 0.78
	if res.Confidence != 0.78 {
		t.Errorf("confidence = %v, want 0.78 against the desktop baseline", res.Confidence)
	}
	if res.Status != StatusSuccess {
		t.Errorf("status = %s, want success", res.Status)
	}

	// The same behavior tagged as web has no web baseline to score against.
	webRes := e.Verify(context.Background(), webSample(sample.PlatformWeb), TypeLogin)
	if webRes.Confidence != 0 || webRes.Status != StatusFailed {
		t.Errorf("web verification without a web profile: conf=%v status=%s, want 0/failed",
			webRes.Confidence, webRes.Status)
	}
}

func TestVerifyFailsClosedUnknownUser(t *testing.T) {
	audit := NewMemoryStore()
	e := NewEngine(profile.NewMemoryStore(), audit)

	s := mobileSample(150, nil)
	s.UserID = "user_unknown"
	res := e.Verify(context.Background(), s, TypeLogin)

	if res.Status != StatusFailed || res.IsVerified {
		t.Errorf("status = %s verified=%v, want failed/false", res.Status, res.IsVerified)
	}
	if res.Confidence != 0 || res.RiskScore != 1 {
		t.Errorf("conf=%v risk=%v, want 0/1", res.Confidence, res.RiskScore)
	}
	if res.Anomalies == nil || len(res.Anomalies) != 0 {
		t.Errorf("anomalies = %#v, want empty non-nil slice", res.Anomalies)
	}

	recorded, _ := audit.ListByUser(context.Background(), "user_unknown", nil, 10)
	if len(recorded) != 1 {
		t.Error("fail-closed results must still reach the audit trail")
	}
}

func TestVerifyFailsClosedInvalidType(t *testing.T) {
	profiles := profile.NewMemoryStore()
	seedMobileProfile(t, profiles)
	e := NewEngine(profiles, NewMemoryStore())

	res := e.Verify(context.Background(), mobileSample(150, nil), Type("bogus"))
	if res.Status != StatusFailed || res.RiskScore != 1 {
		t.Errorf("unknown type should fail closed, got status=%s risk=%v", res.Status, res.RiskScore)
	}
}

func TestVerifyFailsClosedInvalidSample(t *testing.T) {
	profiles := profile.NewMemoryStore()
	seedMobileProfile(t, profiles)
	e := NewEngine(profiles, NewMemoryStore())

	s := mobileSample(150, nil)
	s.SessionID = ""
	res := e.Verify(context.Background(), s, TypeLogin)
	if res.Status != StatusFailed || res.Confidence != 0 {
		t.Errorf("invalid sample should fail closed, got status=%s conf=%v", res.Status, res.Confidence)
	}
}

type capturingPublisher struct {
	results []*Result
}

func (p *capturingPublisher) PublishResult(r *Result) { p.results = append(p.results, r) }

func TestVerifyPublishesResult(t *testing.T) {
	profiles := profile.NewMemoryStore()
	seedMobileProfile(t, profiles)
	pub := &capturingPublisher{}
	e := NewEngine(profiles, NewMemoryStore(), WithPublisher(pub))

	res := e.Verify(context.Background(), mobileSample(150, nil), TypeLogin)

	if len(pub.results) != 1 || pub.results[0].ID != res.ID {
		t.Errorf("publisher received %v, want the verification result", pub.results)
	}
}
