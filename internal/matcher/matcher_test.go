package matcher

import (
	"math"
	"testing"

	"github.com/kinetiq-id/kinetiq/internal/features"
	"github.com/kinetiq-id/kinetiq/internal/profile"
	"github.com/kinetiq-id/kinetiq/internal/sample"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func mobileProfile() *profile.Profile {
	return &profile.Profile{
		UserID: "user_1",
		Mobile: &profile.MobileProfile{
			AvgHoldTime:      150,
			AvgFlightTime:    80,
			AvgSwipeSpeed:    300,
			AvgTouchPressure: 0.6,
			TrustedDevices:   []string{"dev-1"},
			PrimaryOS:        "iOS",
		},
	}
}

func webProfile() *profile.Profile {
	return &profile.Profile{
		UserID: "user_1",
		Web: &profile.WebProfile{
			AvgHoldTime:    120,
			AvgFlightTime:  90,
			AvgMouseSpeed:  250,
			AvgScrollSpeed: 400,
			Browser: &sample.BrowserInfo{
				UserAgent:        "Mozilla/5.0",
				Language:         "en-US",
				Platform:         "MacIntel",
				ScreenResolution: "2560x1440",
				Timezone:         "America/New_York",
			},
		},
	}
}

// ---------------------------------------------------------------------------
// Mobile matching
// ---------------------------------------------------------------------------

func TestMobileTypingBands(t *testing.T) {
	m := NewMobile(DefaultConfig())
	p := mobileProfile()

	tests := []struct {
		name       string
		holdTime   float64
		wantTyping float64
	}{
		// relDiff(150, 175) = 25/150 = 0.1667 <= 0.2
		{"tight band", 175, 0.7},
		// relDiff(150, 200) = 50/150 = 0.333 <= 0.4
		{"loose band", 200, 0.3},
		// relDiff(150, 250) = 100/150 = 0.667 > 0.4
		{"outside bands", 250, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &features.Vector{
				Typing: map[string]float64{features.AvgHoldTime: tt.holdTime},
			}
			res := m.Match(v, p)
			if !almostEqual(res.ChannelScores[sample.ChannelTyping], tt.wantTyping) {
				t.Errorf("typing score = %v, want %v", res.ChannelScores[sample.ChannelTyping], tt.wantTyping)
			}
		})
	}
}

func TestMobileTrustedDevice(t *testing.T) {
	m := NewMobile(DefaultConfig())
	p := mobileProfile()

	v := &features.Vector{
		Typing: map[string]float64{features.AvgHoldTime: 150},
		Touch: map[string]float64{
			features.AvgSwipeSpeed:    300,
			features.AvgTouchPressure: 0.6,
		},
		Device: &sample.DeviceInfo{DeviceID: "dev-1", OS: "iOS"},
	}

	res := m.Match(v, p)

	if !almostEqual(res.ChannelScores[sample.ChannelDevice], 1.0) {
		t.Errorf("trusted device score = %v, want 1.0", res.ChannelScores[sample.ChannelDevice])
	}
	// 0.7*0.5 + 1.0*0.3 + 1.0*0.2 = 0.85
	if !almostEqual(res.Confidence, 0.85) {
		t.Errorf("confidence = %v, want 0.85", res.Confidence)
	}
	if !res.IsMatch {
		t.Error("expected match at confidence 0.85")
	}
}

func TestMobileUnknownDeviceSameOS(t *testing.T) {
	m := NewMobile(DefaultConfig())
	p := mobileProfile()

	v := &features.Vector{
		Device: &sample.DeviceInfo{DeviceID: "dev-unknown", OS: "iOS"},
	}
	res := m.Match(v, p)

	if !almostEqual(res.ChannelScores[sample.ChannelDevice], 0.5) {
		t.Errorf("OS-match device score = %v, want 0.5", res.ChannelScores[sample.ChannelDevice])
	}
}

func TestMobileAbsentChannelsNotRedistributed(t *testing.T) {
	m := NewMobile(DefaultConfig())
	p := mobileProfile()

	// Only typing observed, perfect match. Max reachable confidence is
	// the typing band cap times its weight.
	v := &features.Vector{
		Typing: map[string]float64{features.AvgHoldTime: 150},
	}
	res := m.Match(v, p)

	if !almostEqual(res.Confidence, 0.35) {
		t.Errorf("confidence = %v, want 0.35 (0.7 x 0.5)", res.Confidence)
	}
	if res.IsMatch {
		t.Error("typing alone cannot reach the mobile threshold")
	}
	if _, ok := res.ChannelScores[sample.ChannelTouch]; ok {
		t.Error("absent touch channel should not be scored")
	}
	if _, ok := res.ChannelScores[sample.ChannelDevice]; ok {
		t.Error("absent device channel should not be scored")
	}
}

func TestMobileTouchComponents(t *testing.T) {
	m := NewMobile(DefaultConfig())
	p := mobileProfile()

	tests := []struct {
		name     string
		speed    float64
		pressure float64
		want     float64
	}{
		{"both match", 310, 0.62, 1.0},
		// relDiff(300, 500) = 0.667 > 0.3; pressure fine
		{"speed off", 500, 0.6, 0.5},
		// relDiff(0.6, 0.9) = 0.3/0.6 = 0.5 > 0.25 (denominator floor 1 -> 0.3 > 0.25)
		{"pressure off", 300, 0.9, 0.5},
		{"both off", 700, 1.2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &features.Vector{
				Touch: map[string]float64{
					features.AvgSwipeSpeed:    tt.speed,
					features.AvgTouchPressure: tt.pressure,
				},
			}
			res := m.Match(v, p)
			if !almostEqual(res.ChannelScores[sample.ChannelTouch], tt.want) {
				t.Errorf("touch score = %v, want %v", res.ChannelScores[sample.ChannelTouch], tt.want)
			}
		})
	}
}

func TestMobileNoProfileNoScores(t *testing.T) {
	m := NewMobile(DefaultConfig())
	p := &profile.Profile{UserID: "user_1"} // no mobile sub-profile

	v := &features.Vector{
		Typing: map[string]float64{features.AvgHoldTime: 150},
		Device: &sample.DeviceInfo{DeviceID: "dev-1"},
	}
	res := m.Match(v, p)

	if res.Confidence != 0 {
		t.Errorf("confidence = %v, want 0 without a mobile profile", res.Confidence)
	}
	if len(res.ChannelScores) != 0 {
		t.Errorf("expected no channel scores, got %v", res.ChannelScores)
	}
}

// ---------------------------------------------------------------------------
// Web matching
// ---------------------------------------------------------------------------

func TestWebFullMatch(t *testing.T) {
	m := NewWeb(DefaultConfig())
	p := webProfile()

	v := &features.Vector{
		Typing: map[string]float64{
			features.AvgHoldTime:   120,
			features.AvgFlightTime: 90,
		},
		Mouse:   map[string]float64{features.AvgMouseSpeed: 250},
		Scroll:  map[string]float64{features.AvgScrollSpeed: 400},
		Browser: p.Web.Browser,
	}
	res := m.Match(v, p)

	// mouse 0.7*0.4 + typing 1.0*0.3 + scroll 1.0*0.2 + browser 1.0*0.1 = 0.88
	if !almostEqual(res.Confidence, 0.88) {
		t.Errorf("confidence = %v, want 0.88", res.Confidence)
	}
	if !res.IsMatch {
		t.Error("expected match at confidence 0.88")
	}
}

func TestWebTypingHalves(t *testing.T) {
	m := NewWeb(DefaultConfig())
	p := webProfile()

	// Hold matches, flight far off: relDiff(90, 200) = 110/90 > 0.3
	v := &features.Vector{
		Typing: map[string]float64{
			features.AvgHoldTime:   120,
			features.AvgFlightTime: 200,
		},
	}
	res := m.Match(v, p)

	if !almostEqual(res.ChannelScores[sample.ChannelTyping], 0.5) {
		t.Errorf("typing score = %v, want 0.5", res.ChannelScores[sample.ChannelTyping])
	}
}

func TestWebBrowserSimilarityPartial(t *testing.T) {
	m := NewWeb(DefaultConfig())
	p := webProfile()

	// Same except timezone and screen: 7 of 9 attributes match.
	current := *p.Web.Browser
	current.Timezone = "Europe/Berlin"
	current.ScreenResolution = "1920x1080"

	v := &features.Vector{Browser: &current}
	res := m.Match(v, p)

	want := 7.0 / 9.0
	if !almostEqual(res.ChannelScores[sample.ChannelBrowser], want) {
		t.Errorf("browser score = %v, want %v", res.ChannelScores[sample.ChannelBrowser], want)
	}
}

func TestBrowserSimilarity(t *testing.T) {
	a := &sample.BrowserInfo{UserAgent: "ua", Language: "en"}
	b := &sample.BrowserInfo{UserAgent: "ua", Language: "de"}

	// 8 of 9 match (7 empty-equal attributes plus user agent).
	if got := BrowserSimilarity(a, b); !almostEqual(got, 8.0/9.0) {
		t.Errorf("similarity = %v, want 8/9", got)
	}
	if got := BrowserSimilarity(nil, b); got != 0 {
		t.Errorf("nil stored should score 0, got %v", got)
	}
}

func TestRelDiffDenominatorFloor(t *testing.T) {
	// Baselines below 1 use a denominator of 1 so the ratio stays bounded.
	if got := relDiff(0.5, 0.9); !almostEqual(got, 0.4) {
		t.Errorf("relDiff(0.5, 0.9) = %v, want 0.4", got)
	}
	if got := relDiff(100, 80); !almostEqual(got, 0.2) {
		t.Errorf("relDiff(100, 80) = %v, want 0.2", got)
	}
}

func TestConfidenceClamped(t *testing.T) {
	if clamp01(1.3) != 1 {
		t.Error("confidence above 1 should clamp to 1")
	}
	if clamp01(-0.2) != 0 {
		t.Error("confidence below 0 should clamp to 0")
	}
}
