// Package matcher scores behavioral feature vectors against stored
// profiles.
//
// Both platforms run the same engine: a list of channel matchers, each
// owning one channel, a weight and a comparator. Platform differences
// live entirely in the Config tables, not in code paths.
package matcher

import (
	"math"

	"github.com/kinetiq-id/kinetiq/internal/features"
	"github.com/kinetiq-id/kinetiq/internal/profile"
	"github.com/kinetiq-id/kinetiq/internal/sample"
)

// Result is the outcome of matching one feature vector.
type Result struct {
	Confidence    float64                    `json:"confidence"`
	IsMatch       bool                       `json:"is_match"`
	ChannelScores map[sample.Channel]float64 `json:"channel_scores"`
}

// channelMatcher scores a single channel. ok is false when the channel
// is absent from the vector or the profile, in which case the channel
// contributes nothing.
type channelMatcher interface {
	Channel() sample.Channel
	Weight() float64
	Score(v *features.Vector, p *profile.Profile) (score float64, ok bool)
}

// Matcher scores vectors for one platform.
type Matcher struct {
	threshold float64
	channels  []channelMatcher
}

// NewMobile builds the mobile matcher: typing, touch and device channels.
func NewMobile(cfg Config) *Matcher {
	c := cfg.Mobile
	return &Matcher{
		threshold: c.MatchThreshold,
		channels: []channelMatcher{
			&mobileTypingMatcher{weight: c.TypingWeight, tight: c.TypingTightRel, loose: c.TypingLooseRel},
			&touchMatcher{weight: c.TouchWeight, swipeRel: c.SwipeRel, pressureRel: c.PressureRel},
			&deviceMatcher{weight: c.DeviceWeight},
		},
	}
}

// NewWeb builds the web matcher: mouse, typing, scroll and browser
// channels. Desktop traffic uses the same matcher.
func NewWeb(cfg Config) *Matcher {
	c := cfg.Web
	return &Matcher{
		threshold: c.MatchThreshold,
		channels: []channelMatcher{
			&mouseMatcher{weight: c.MouseWeight, rel: c.MouseRel},
			&webTypingMatcher{weight: c.TypingWeight, holdRel: c.HoldRel, flightRel: c.FlightRel},
			&scrollMatcher{weight: c.ScrollWeight, rel: c.ScrollRel},
			&browserMatcher{weight: c.BrowserWeight},
		},
	}
}

// Match scores v against p. Pure computation; confidence is clamped to
// [0, 1].
func (m *Matcher) Match(v *features.Vector, p *profile.Profile) *Result {
	res := &Result{
		ChannelScores: make(map[sample.Channel]float64, len(m.channels)),
	}
	var confidence float64
	for _, cm := range m.channels {
		score, ok := cm.Score(v, p)
		if !ok {
			continue
		}
		res.ChannelScores[cm.Channel()] = score
		confidence += score * cm.Weight()
	}
	res.Confidence = clamp01(confidence)
	res.IsMatch = res.Confidence >= m.threshold
	return res
}

// relDiff is the relative difference between a stored baseline and a
// current observation, with a floor of 1 on the denominator so small
// baselines do not explode the ratio.
func relDiff(stored, current float64) float64 {
	return math.Abs(stored-current) / math.Max(stored, 1)
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
