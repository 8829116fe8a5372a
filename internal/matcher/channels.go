package matcher

import (
	"github.com/kinetiq-id/kinetiq/internal/features"
	"github.com/kinetiq-id/kinetiq/internal/profile"
	"github.com/kinetiq-id/kinetiq/internal/sample"
)

// ---------------------------------------------------------------------------
// mobile typing: banded score on hold-time relative difference
// ---------------------------------------------------------------------------

type mobileTypingMatcher struct {
	weight float64
	tight  float64
	loose  float64
}

func (m *mobileTypingMatcher) Channel() sample.Channel { return sample.ChannelTyping }
func (m *mobileTypingMatcher) Weight() float64         { return m.weight }

func (m *mobileTypingMatcher) Score(v *features.Vector, p *profile.Profile) (float64, bool) {
	current, ok := v.Typing[features.AvgHoldTime]
	if !ok || p.Mobile == nil || p.Mobile.AvgHoldTime <= 0 {
		return 0, false
	}
	switch d := relDiff(p.Mobile.AvgHoldTime, current); {
	case d <= m.tight:
		return 0.7, true
	case d <= m.loose:
		return 0.3, true
	default:
		return 0, true
	}
}

// ---------------------------------------------------------------------------
// mobile touch: swipe speed and pressure each contribute half
// ---------------------------------------------------------------------------

type touchMatcher struct {
	weight      float64
	swipeRel    float64
	pressureRel float64
}

func (m *touchMatcher) Channel() sample.Channel { return sample.ChannelTouch }
func (m *touchMatcher) Weight() float64         { return m.weight }

func (m *touchMatcher) Score(v *features.Vector, p *profile.Profile) (float64, bool) {
	if len(v.Touch) == 0 || p.Mobile == nil {
		return 0, false
	}
	if p.Mobile.AvgSwipeSpeed <= 0 && p.Mobile.AvgTouchPressure <= 0 {
		return 0, false
	}
	var score float64
	if p.Mobile.AvgSwipeSpeed > 0 {
		if relDiff(p.Mobile.AvgSwipeSpeed, v.Touch[features.AvgSwipeSpeed]) <= m.swipeRel {
			score += 0.5
		}
	}
	if p.Mobile.AvgTouchPressure > 0 {
		if relDiff(p.Mobile.AvgTouchPressure, v.Touch[features.AvgTouchPressure]) <= m.pressureRel {
			score += 0.5
		}
	}
	return score, true
}

// ---------------------------------------------------------------------------
// mobile device: trusted identifier beats OS family match
// ---------------------------------------------------------------------------

type deviceMatcher struct {
	weight float64
}

func (m *deviceMatcher) Channel() sample.Channel { return sample.ChannelDevice }
func (m *deviceMatcher) Weight() float64         { return m.weight }

func (m *deviceMatcher) Score(v *features.Vector, p *profile.Profile) (float64, bool) {
	if v.Device == nil || p.Mobile == nil {
		return 0, false
	}
	if p.IsTrustedDevice(v.Device.DeviceID) {
		return 1.0, true
	}
	if v.Device.OS != "" && v.Device.OS == p.Mobile.PrimaryOS {
		return 0.5, true
	}
	return 0, true
}

// ---------------------------------------------------------------------------
// web mouse: banded score on average speed
// ---------------------------------------------------------------------------

type mouseMatcher struct {
	weight float64
	rel    float64
}

func (m *mouseMatcher) Channel() sample.Channel { return sample.ChannelMouse }
func (m *mouseMatcher) Weight() float64         { return m.weight }

func (m *mouseMatcher) Score(v *features.Vector, p *profile.Profile) (float64, bool) {
	current, ok := v.Mouse[features.AvgMouseSpeed]
	if !ok || p.Web == nil || p.Web.AvgMouseSpeed <= 0 {
		return 0, false
	}
	if relDiff(p.Web.AvgMouseSpeed, current) <= m.rel {
		return 0.7, true
	}
	return 0, true
}

// ---------------------------------------------------------------------------
// web typing: hold and flight components each contribute half
// ---------------------------------------------------------------------------

type webTypingMatcher struct {
	weight    float64
	holdRel   float64
	flightRel float64
}

func (m *webTypingMatcher) Channel() sample.Channel { return sample.ChannelTyping }
func (m *webTypingMatcher) Weight() float64         { return m.weight }

func (m *webTypingMatcher) Score(v *features.Vector, p *profile.Profile) (float64, bool) {
	if len(v.Typing) == 0 || p.Web == nil {
		return 0, false
	}
	if p.Web.AvgHoldTime <= 0 && p.Web.AvgFlightTime <= 0 {
		return 0, false
	}
	var score float64
	if p.Web.AvgHoldTime > 0 {
		if relDiff(p.Web.AvgHoldTime, v.Typing[features.AvgHoldTime]) <= m.holdRel {
			score += 0.5
		}
	}
	if p.Web.AvgFlightTime > 0 {
		if relDiff(p.Web.AvgFlightTime, v.Typing[features.AvgFlightTime]) <= m.flightRel {
			score += 0.5
		}
	}
	return score, true
}

// ---------------------------------------------------------------------------
// web scroll: all-or-nothing on average speed
// ---------------------------------------------------------------------------

type scrollMatcher struct {
	weight float64
	rel    float64
}

func (m *scrollMatcher) Channel() sample.Channel { return sample.ChannelScroll }
func (m *scrollMatcher) Weight() float64         { return m.weight }

func (m *scrollMatcher) Score(v *features.Vector, p *profile.Profile) (float64, bool) {
	current, ok := v.Scroll[features.AvgScrollSpeed]
	if !ok || p.Web == nil || p.Web.AvgScrollSpeed <= 0 {
		return 0, false
	}
	if relDiff(p.Web.AvgScrollSpeed, current) <= m.rel {
		return 1.0, true
	}
	return 0, true
}

// ---------------------------------------------------------------------------
// web browser: fingerprint attribute-match ratio
// ---------------------------------------------------------------------------

type browserMatcher struct {
	weight float64
}

func (m *browserMatcher) Channel() sample.Channel { return sample.ChannelBrowser }
func (m *browserMatcher) Weight() float64         { return m.weight }

func (m *browserMatcher) Score(v *features.Vector, p *profile.Profile) (float64, bool) {
	if v.Browser == nil || p.Web == nil || p.Web.Browser == nil {
		return 0, false
	}
	return BrowserSimilarity(p.Web.Browser, v.Browser), true
}

// BrowserSimilarity is the fraction of fingerprint attributes that match
// exactly between two browser records. Also used by anomaly detection.
func BrowserSimilarity(stored, current *sample.BrowserInfo) float64 {
	if stored == nil || current == nil {
		return 0
	}
	checks := []bool{
		stored.UserAgent == current.UserAgent,
		stored.Language == current.Language,
		stored.Platform == current.Platform,
		stored.HardwareConcurrency == current.HardwareConcurrency,
		stored.DeviceMemory == current.DeviceMemory,
		stored.ScreenResolution == current.ScreenResolution,
		stored.Timezone == current.Timezone,
		stored.CanvasFingerprint == current.CanvasFingerprint,
		stored.WebGLFingerprint == current.WebGLFingerprint,
	}
	matches := 0
	for _, ok := range checks {
		if ok {
			matches++
		}
	}
	return float64(matches) / float64(len(checks))
}
