// Package sample defines the normalized behavioral telemetry model.
//
// Raw client payloads differ per platform (mobile SDKs send key hold/flight
// arrays and swipe data, web SDKs send keystroke timings and mouse traces).
// Adapters in this package normalize both into a Sample carrying typed
// channel data, which is what the rest of the engine operates on.
package sample

import (
	"fmt"
	"time"
)

// Platform identifies the client platform a sample came from.
type Platform string

const (
	PlatformMobile  Platform = "mobile"
	PlatformWeb     Platform = "web"
	PlatformDesktop Platform = "desktop"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformMobile, PlatformWeb, PlatformDesktop:
		return true
	}
	return false
}

// Channel identifies one behavioral signal stream within a sample.
type Channel string

const (
	ChannelTyping  Channel = "typing"
	ChannelTouch   Channel = "touch"
	ChannelMouse   Channel = "mouse"
	ChannelScroll  Channel = "scroll"
	ChannelDevice  Channel = "device"
	ChannelBrowser Channel = "browser"
)

// KeyEvent is a single keystroke observation. HoldTime is key-down to
// key-up; FlightTime is key-up to the next key-down. Milliseconds.
type KeyEvent struct {
	HoldTime   float64 `json:"hold_time"`
	FlightTime float64 `json:"flight_time"`
}

// SwipeEvent is a single touch gesture observation.
type SwipeEvent struct {
	Speed    float64 `json:"speed"`
	Pressure float64 `json:"pressure"`
}

// MouseEvent is a single pointer position observation.
type MouseEvent struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Speed float64 `json:"speed"`
}

// ScrollEvent is a single scroll observation.
type ScrollEvent struct {
	Speed     float64 `json:"speed"`
	Direction string  `json:"direction"` // "up" or "down"
}

// DeviceInfo identifies the physical device a mobile sample came from.
type DeviceInfo struct {
	DeviceID string `json:"device_id"`
	OS       string `json:"os"`
	Model    string `json:"model"`
}

// BrowserInfo is the browser fingerprint attached to web samples.
// All fields participate in fingerprint similarity scoring.
type BrowserInfo struct {
	UserAgent           string `json:"user_agent"`
	Language            string `json:"language"`
	Platform            string `json:"platform"`
	HardwareConcurrency int    `json:"hardware_concurrency"`
	DeviceMemory        int    `json:"device_memory"`
	ScreenResolution    string `json:"screen_resolution"`
	Timezone            string `json:"timezone"`
	CanvasFingerprint   string `json:"canvas_fingerprint"`
	WebGLFingerprint    string `json:"webgl_fingerprint"`
}

// Channels holds the typed per-channel event streams of one sample.
// A nil slice or zero-value struct means the channel was not observed.
type Channels struct {
	Typing  []KeyEvent    `json:"typing,omitempty"`
	Touch   []SwipeEvent  `json:"touch,omitempty"`
	Mouse   []MouseEvent  `json:"mouse,omitempty"`
	Scroll  []ScrollEvent `json:"scroll,omitempty"`
	Device  *DeviceInfo   `json:"device,omitempty"`
	Browser *BrowserInfo  `json:"browser,omitempty"`
}

// Sample is one normalized batch of behavioral telemetry from a client.
type Sample struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Platform  Platform  `json:"platform"`
	Timestamp time.Time `json:"timestamp"`
	Channels  Channels  `json:"channels"`
}

// Validate checks the envelope fields. Channel payloads are validated by
// the adapters; an empty Channels is legal (it just yields no features).
func (s *Sample) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("sample: user_id is required")
	}
	if s.SessionID == "" {
		return fmt.Errorf("sample: session_id is required")
	}
	if !s.Platform.Valid() {
		return fmt.Errorf("sample: unknown platform %q", s.Platform)
	}
	return nil
}
