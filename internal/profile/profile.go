// Package profile holds per-user behavioral baselines and their stores.
package profile

import (
	"time"

	"github.com/kinetiq-id/kinetiq/internal/sample"
)

// MobileProfile is the learned mobile baseline for one user.
type MobileProfile struct {
	AvgHoldTime      float64  `json:"avg_hold_time"`
	AvgFlightTime    float64  `json:"avg_flight_time"`
	AvgSwipeSpeed    float64  `json:"avg_swipe_speed"`
	AvgTouchPressure float64  `json:"avg_touch_pressure"`
	TrustedDevices   []string `json:"trusted_devices"`
	PrimaryOS        string   `json:"primary_os"`
	SignatureHash    string   `json:"signature_hash"`
}

// WebProfile is the learned web (or desktop) baseline for one user.
type WebProfile struct {
	AvgHoldTime    float64             `json:"avg_hold_time"`
	AvgFlightTime  float64             `json:"avg_flight_time"`
	AvgMouseSpeed  float64             `json:"avg_mouse_speed"`
	AvgScrollSpeed float64             `json:"avg_scroll_speed"`
	Browser        *sample.BrowserInfo `json:"browser,omitempty"`
	SignatureHash  string              `json:"signature_hash"`
}

// Profile is the cross-platform behavioral profile of one user. Platform
// sub-profiles are nil until the user enrolls on that platform.
type Profile struct {
	UserID            string         `json:"user_id"`
	Mobile            *MobileProfile `json:"mobile_profile,omitempty"`
	Web               *WebProfile    `json:"web_profile,omitempty"`
	Desktop           *WebProfile    `json:"desktop_profile,omitempty"`
	ProfileConfidence float64        `json:"profile_confidence"`
	SamplesCollected  int64          `json:"samples_collected"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`

	// Version supports optimistic concurrency in the Postgres store.
	Version int64 `json:"-"`
}

// IsTrustedDevice reports whether deviceID is in the mobile trusted set.
func (p *Profile) IsTrustedDevice(deviceID string) bool {
	if p.Mobile == nil || deviceID == "" {
		return false
	}
	for _, d := range p.Mobile.TrustedDevices {
		if d == deviceID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate cached state.
func (p *Profile) Clone() *Profile {
	cp := *p
	if p.Mobile != nil {
		m := *p.Mobile
		m.TrustedDevices = append([]string(nil), p.Mobile.TrustedDevices...)
		cp.Mobile = &m
	}
	if p.Web != nil {
		w := *p.Web
		if p.Web.Browser != nil {
			b := *p.Web.Browser
			w.Browser = &b
		}
		cp.Web = &w
	}
	if p.Desktop != nil {
		d := *p.Desktop
		if p.Desktop.Browser != nil {
			b := *p.Desktop.Browser
			d.Browser = &b
		}
		cp.Desktop = &d
	}
	return &cp
}
