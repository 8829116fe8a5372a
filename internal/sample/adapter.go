package sample

import (
	"context"
	"fmt"
	"time"

	"github.com/kinetiq-id/kinetiq/internal/logging"
)

// MobilePayload is the raw collection payload sent by mobile SDKs.
type MobilePayload struct {
	SessionID    string           `json:"session_id"`
	UserID       string           `json:"user_id"`
	SessionType  string           `json:"session_type"`
	KeyHoldTimes []float64        `json:"key_hold_times"`
	FlightTimes  []float64        `json:"key_flight_times"`
	SwipeData    []map[string]any `json:"swipe_data"`
	DeviceInfo   map[string]any   `json:"device_info"`
	Timestamp    time.Time        `json:"timestamp"`
}

// WebPayload is the raw collection payload sent by the web SDK.
type WebPayload struct {
	SessionID       string           `json:"session_id"`
	UserID          string           `json:"user_id"`
	SessionType     string           `json:"session_type"`
	KeystrokeTiming []map[string]any `json:"keystroke_timing"`
	MouseMovements  []map[string]any `json:"mouse_movements"`
	ScrollEvents    []map[string]any `json:"scroll_events"`
	BrowserInfo     *BrowserInfo     `json:"browser_info"`
	ScreenInfo      map[string]any   `json:"screen_info"`
	Timestamp       time.Time        `json:"timestamp"`
}

// FromMobile normalizes a mobile payload into a Sample. Malformed records
// inside a channel are skipped with a warning; they never fail the batch.
func FromMobile(ctx context.Context, p *MobilePayload) (*Sample, error) {
	s := &Sample{
		SessionID: p.SessionID,
		UserID:    p.UserID,
		Platform:  PlatformMobile,
		Timestamp: orNow(p.Timestamp),
	}

	if len(p.KeyHoldTimes) > 0 {
		s.Channels.Typing = pairKeyTimings(p.KeyHoldTimes, p.FlightTimes)
	}

	for i, raw := range p.SwipeData {
		speed, okS := toFloat(raw["speed"])
		pressure, okP := toFloat(raw["pressure"])
		if !okS && !okP {
			logging.L(ctx).Warn("skipping malformed swipe record",
				"user_id", p.UserID, "index", i)
			continue
		}
		s.Channels.Touch = append(s.Channels.Touch, SwipeEvent{Speed: speed, Pressure: pressure})
	}

	if len(p.DeviceInfo) > 0 {
		id, _ := p.DeviceInfo["device_id"].(string)
		os, _ := p.DeviceInfo["os"].(string)
		model, _ := p.DeviceInfo["model"].(string)
		if id == "" && os == "" {
			logging.L(ctx).Warn("skipping malformed device_info", "user_id", p.UserID)
		} else {
			s.Channels.Device = &DeviceInfo{DeviceID: id, OS: os, Model: model}
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// FromWeb normalizes a web payload into a Sample.
func FromWeb(ctx context.Context, p *WebPayload) (*Sample, error) {
	s := &Sample{
		SessionID: p.SessionID,
		UserID:    p.UserID,
		Platform:  PlatformWeb,
		Timestamp: orNow(p.Timestamp),
	}

	for i, raw := range p.KeystrokeTiming {
		hold, okH := toFloat(raw["hold_time"])
		// Web clients report flight time as the delay to the next key.
		flight, okF := toFloat(raw["next_key_delay"])
		if !okH && !okF {
			logging.L(ctx).Warn("skipping malformed keystroke record",
				"user_id", p.UserID, "index", i)
			continue
		}
		s.Channels.Typing = append(s.Channels.Typing, KeyEvent{HoldTime: hold, FlightTime: flight})
	}

	for i, raw := range p.MouseMovements {
		x, okX := toFloat(raw["x"])
		y, okY := toFloat(raw["y"])
		speed, okS := toFloat(raw["speed"])
		if !okS && !(okX && okY) {
			logging.L(ctx).Warn("skipping malformed mouse record",
				"user_id", p.UserID, "index", i)
			continue
		}
		s.Channels.Mouse = append(s.Channels.Mouse, MouseEvent{X: x, Y: y, Speed: speed})
	}

	for i, raw := range p.ScrollEvents {
		speed, ok := toFloat(raw["speed"])
		if !ok {
			logging.L(ctx).Warn("skipping malformed scroll record",
				"user_id", p.UserID, "index", i)
			continue
		}
		dir, _ := raw["direction"].(string)
		if dir != "up" && dir != "down" {
			dir = "down"
		}
		s.Channels.Scroll = append(s.Channels.Scroll, ScrollEvent{Speed: speed, Direction: dir})
	}

	s.Channels.Browser = p.BrowserInfo

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// pairKeyTimings zips hold and flight arrays. There is one fewer flight
// time than hold times in a well-formed batch; missing entries become 0.
func pairKeyTimings(holds, flights []float64) []KeyEvent {
	events := make([]KeyEvent, 0, len(holds))
	for i, h := range holds {
		ev := KeyEvent{HoldTime: h}
		if i < len(flights) {
			ev.FlightTime = flights[i]
		}
		events = append(events, ev)
	}
	return events
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

// toFloat coerces JSON numbers into float64. Strings are not accepted.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// String implements fmt.Stringer for log output.
func (s *Sample) String() string {
	return fmt.Sprintf("sample{user=%s session=%s platform=%s}", s.UserID, s.SessionID, s.Platform)
}
