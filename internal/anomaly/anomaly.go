// Package anomaly flags behavioral deviations between a feature vector
// and a stored profile.
//
// Rules are independent: every rule always runs and each contributes at
// most one tag. Order of the returned tags follows rule registration
// order, so results are deterministic.
package anomaly

import (
	"math"

	"github.com/kinetiq-id/kinetiq/internal/features"
	"github.com/kinetiq-id/kinetiq/internal/matcher"
	"github.com/kinetiq-id/kinetiq/internal/profile"
	"github.com/kinetiq-id/kinetiq/internal/sample"
)

// Anomaly tags.
const (
	TagTypingSpeed         = "typing_speed_anomaly"
	TagUnfamiliarDevice    = "unfamiliar_device"
	TagRoboticMouse        = "robotic_mouse_movements"
	TagFingerprintMismatch = "browser_fingerprint_mismatch"
)

// Rule inspects one aspect of the vector/profile pair and reports a tag
// when it fires.
type Rule interface {
	Name() string
	Evaluate(v *features.Vector, p *profile.Profile) (tag string, fired bool)
}

// Detector runs an ordered rule set.
type Detector struct {
	rules []Rule
}

// NewDetector creates a detector with the given rules.
func NewDetector(rules ...Rule) *Detector {
	return &Detector{rules: rules}
}

// MobileRules returns the rule set for mobile verification.
func MobileRules() []Rule {
	return []Rule{
		&TypingSpeedRule{MaxRelDiff: 0.5, Platform: sample.PlatformMobile},
		&UnfamiliarDeviceRule{},
	}
}

// WebRules returns the rule set for web verification.
func WebRules() []Rule {
	return []Rule{
		&TypingSpeedRule{MaxRelDiff: 0.5, Platform: sample.PlatformWeb},
		&RoboticMouseRule{MinSpeedStd: 0.1},
		&FingerprintMismatchRule{MinSimilarity: 0.3},
	}
}

// Detect evaluates all rules and returns the fired tags in rule order.
// The slice is empty, not nil, when nothing fires.
func (d *Detector) Detect(v *features.Vector, p *profile.Profile) []string {
	tags := make([]string, 0, len(d.rules))
	for _, r := range d.rules {
		if tag, fired := r.Evaluate(v, p); fired {
			tags = append(tags, tag)
		}
	}
	return tags
}

// TypingSpeedRule fires when hold time deviates beyond MaxRelDiff from
// the baseline of the configured platform.
type TypingSpeedRule struct {
	MaxRelDiff float64
	Platform   sample.Platform
}

func (r *TypingSpeedRule) Name() string { return TagTypingSpeed }

func (r *TypingSpeedRule) Evaluate(v *features.Vector, p *profile.Profile) (string, bool) {
	current, ok := v.Typing[features.AvgHoldTime]
	if !ok {
		return "", false
	}
	var stored float64
	if r.Platform == sample.PlatformMobile {
		if p.Mobile != nil {
			stored = p.Mobile.AvgHoldTime
		}
	} else if p.Web != nil {
		stored = p.Web.AvgHoldTime
	}
	if stored <= 0 {
		return "", false
	}
	if math.Abs(stored-current)/math.Max(stored, 1) > r.MaxRelDiff {
		return TagTypingSpeed, true
	}
	return "", false
}

// UnfamiliarDeviceRule fires when a sample carries a device identifier
// that is not in the trusted set.
type UnfamiliarDeviceRule struct{}

func (r *UnfamiliarDeviceRule) Name() string { return TagUnfamiliarDevice }

func (r *UnfamiliarDeviceRule) Evaluate(v *features.Vector, p *profile.Profile) (string, bool) {
	if v.Device == nil || v.Device.DeviceID == "" {
		return "", false
	}
	if !p.IsTrustedDevice(v.Device.DeviceID) {
		return TagUnfamiliarDevice, true
	}
	return "", false
}

// RoboticMouseRule fires when mouse speed variance is implausibly low
// for a human operator.
type RoboticMouseRule struct {
	MinSpeedStd float64
}

func (r *RoboticMouseRule) Name() string { return TagRoboticMouse }

func (r *RoboticMouseRule) Evaluate(v *features.Vector, _ *profile.Profile) (string, bool) {
	std, ok := v.Mouse[features.MouseSpeedStd]
	if !ok {
		return "", false
	}
	if std < r.MinSpeedStd {
		return TagRoboticMouse, true
	}
	return "", false
}

// FingerprintMismatchRule fires when the browser fingerprint similarity
// drops below MinSimilarity. A fingerprint missing on either side counts
// as similarity 0, so the rule fires.
type FingerprintMismatchRule struct {
	MinSimilarity float64
}

func (r *FingerprintMismatchRule) Name() string { return TagFingerprintMismatch }

func (r *FingerprintMismatchRule) Evaluate(v *features.Vector, p *profile.Profile) (string, bool) {
	var stored *sample.BrowserInfo
	if p.Web != nil {
		stored = p.Web.Browser
	}
	if matcher.BrowserSimilarity(stored, v.Browser) < r.MinSimilarity {
		return TagFingerprintMismatch, true
	}
	return "", false
}
