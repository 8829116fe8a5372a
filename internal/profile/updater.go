package profile

import (
	"context"
	"time"

	"github.com/kinetiq-id/kinetiq/internal/features"
	"github.com/kinetiq-id/kinetiq/internal/logging"
	"github.com/kinetiq-id/kinetiq/internal/sample"
	"github.com/kinetiq-id/kinetiq/internal/signature"
)

// Updater folds accepted samples into a user's profile. Apply is NOT
// idempotent: re-applying a batch double-counts SamplesCollected, so
// callers must deduplicate upstream.
type Updater struct{}

// NewUpdater creates a profile updater.
func NewUpdater() *Updater {
	return &Updater{}
}

// Apply mutates p in place with the effects of the batch:
//   - first batch on a platform enrolls the sub-profile from its features
//   - device identifiers are unioned into the trusted set
//   - SamplesCollected grows by the batch size (monotonic)
//
// Statistical re-estimation of typing and touch baselines from new
// samples is a declared extension point and intentionally not
// implemented; enrolled baselines stay fixed after the first batch.
func (u *Updater) Apply(ctx context.Context, p *Profile, batch []*sample.Sample) {
	for _, s := range batch {
		v := features.Extract(s)
		switch s.Platform {
		case sample.PlatformMobile:
			u.applyMobile(ctx, p, v)
		case sample.PlatformWeb:
			p.Web = u.applyWeb(ctx, p.Web, v)
		case sample.PlatformDesktop:
			p.Desktop = u.applyWeb(ctx, p.Desktop, v)
		}
	}
	p.SamplesCollected += int64(len(batch))
	p.UpdatedAt = time.Now().UTC()
}

func (u *Updater) applyMobile(ctx context.Context, p *Profile, v *features.Vector) {
	if p.Mobile == nil {
		mp := &MobileProfile{
			AvgHoldTime:      v.Typing[features.AvgHoldTime],
			AvgFlightTime:    v.Typing[features.AvgFlightTime],
			AvgSwipeSpeed:    v.Touch[features.AvgSwipeSpeed],
			AvgTouchPressure: v.Touch[features.AvgTouchPressure],
		}
		if v.Device != nil {
			mp.PrimaryOS = v.Device.OS
		}
		deviceID := ""
		if v.Device != nil {
			deviceID = v.Device.DeviceID
		}
		if hash, err := signature.Build(v, deviceID); err == nil {
			mp.SignatureHash = hash
		} else {
			logging.L(ctx).Warn("mobile signature build failed", "user_id", p.UserID, "error", err)
		}
		p.Mobile = mp
	}
	if v.Device != nil && v.Device.DeviceID != "" && !p.IsTrustedDevice(v.Device.DeviceID) {
		p.Mobile.TrustedDevices = append(p.Mobile.TrustedDevices, v.Device.DeviceID)
	}
}

func (u *Updater) applyWeb(ctx context.Context, wp *WebProfile, v *features.Vector) *WebProfile {
	if wp == nil {
		wp = &WebProfile{
			AvgHoldTime:    v.Typing[features.AvgHoldTime],
			AvgFlightTime:  v.Typing[features.AvgFlightTime],
			AvgMouseSpeed:  v.Mouse[features.AvgMouseSpeed],
			AvgScrollSpeed: v.Scroll[features.AvgScrollSpeed],
			Browser:        v.Browser,
		}
		if hash, err := signature.BuildWeb(v); err == nil {
			wp.SignatureHash = hash
		} else {
			logging.L(ctx).Warn("web signature build failed", "error", err)
		}
		return wp
	}
	if wp.Browser == nil && v.Browser != nil {
		wp.Browser = v.Browser
	}
	return wp
}
