// Package features extracts summary statistics from behavioral samples.
//
// Each channel reduces to a flat map of named float features (mostly
// mean/stddev pairs). Extraction is pure: no I/O, no clock, no state.
package features

import (
	"math"

	"github.com/kinetiq-id/kinetiq/internal/sample"
)

// Feature names produced by the extractor.
const (
	AvgHoldTime      = "avg_hold_time"
	HoldTimeStd      = "hold_time_std"
	AvgFlightTime    = "avg_flight_time"
	FlightTimeStd    = "flight_time_std"
	AvgSwipeSpeed    = "avg_swipe_speed"
	SwipeSpeedStd    = "swipe_speed_std"
	AvgTouchPressure = "avg_touch_pressure"
	TouchPressureStd = "touch_pressure_std"
	AvgMouseSpeed    = "avg_mouse_speed"
	MouseSpeedStd    = "mouse_speed_std"
	AvgMovementAngle = "avg_movement_angle"
	AvgScrollSpeed   = "avg_scroll_speed"
	ScrollSpeedStd   = "scroll_speed_std"
)

// Vector is the extracted feature set of one sample. Numeric features are
// keyed per channel; Direction and the device/browser records pass through
// untouched because matching treats them categorically.
type Vector struct {
	Typing    map[string]float64  `json:"typing"`
	Touch     map[string]float64  `json:"touch"`
	Mouse     map[string]float64  `json:"mouse"`
	Scroll    map[string]float64  `json:"scroll"`
	Direction string              `json:"preferred_direction,omitempty"`
	Device    *sample.DeviceInfo  `json:"device,omitempty"`
	Browser   *sample.BrowserInfo `json:"browser,omitempty"`
}

// Extract computes the feature vector for a sample. Missing or empty
// channels produce empty maps, never an error.
func Extract(s *sample.Sample) *Vector {
	v := &Vector{
		Typing:  extractTyping(s.Channels.Typing),
		Touch:   extractTouch(s.Channels.Touch),
		Mouse:   extractMouse(s.Channels.Mouse),
		Device:  s.Channels.Device,
		Browser: s.Channels.Browser,
	}
	v.Scroll, v.Direction = extractScroll(s.Channels.Scroll)
	return v
}

func extractTyping(events []sample.KeyEvent) map[string]float64 {
	out := make(map[string]float64)
	if len(events) == 0 {
		return out
	}
	holds := make([]float64, 0, len(events))
	flights := make([]float64, 0, len(events))
	for _, ev := range events {
		holds = append(holds, ev.HoldTime)
		if ev.FlightTime > 0 {
			flights = append(flights, ev.FlightTime)
		}
	}
	out[AvgHoldTime] = mean(holds)
	out[HoldTimeStd] = stddev(holds)
	if len(flights) > 0 {
		out[AvgFlightTime] = mean(flights)
		out[FlightTimeStd] = stddev(flights)
	}
	return out
}

func extractTouch(events []sample.SwipeEvent) map[string]float64 {
	out := make(map[string]float64)
	if len(events) == 0 {
		return out
	}
	speeds := make([]float64, 0, len(events))
	pressures := make([]float64, 0, len(events))
	for _, ev := range events {
		speeds = append(speeds, ev.Speed)
		pressures = append(pressures, ev.Pressure)
	}
	out[AvgSwipeSpeed] = mean(speeds)
	out[SwipeSpeedStd] = stddev(speeds)
	out[AvgTouchPressure] = mean(pressures)
	out[TouchPressureStd] = stddev(pressures)
	return out
}

func extractMouse(events []sample.MouseEvent) map[string]float64 {
	out := make(map[string]float64)
	if len(events) == 0 {
		return out
	}
	speeds := make([]float64, 0, len(events))
	for _, ev := range events {
		speeds = append(speeds, ev.Speed)
	}
	out[AvgMouseSpeed] = mean(speeds)
	out[MouseSpeedStd] = stddev(speeds)

	// Movement angle between consecutive points; vertical moves (dx=0)
	// are excluded rather than treated as infinite slope.
	var angles []float64
	for i := 1; i < len(events); i++ {
		dx := events[i].X - events[i-1].X
		dy := events[i].Y - events[i-1].Y
		if dx != 0 {
			angles = append(angles, math.Abs(dy/dx))
		}
	}
	if len(angles) > 0 {
		out[AvgMovementAngle] = mean(angles)
	}
	return out
}

func extractScroll(events []sample.ScrollEvent) (map[string]float64, string) {
	out := make(map[string]float64)
	if len(events) == 0 {
		return out, ""
	}
	speeds := make([]float64, 0, len(events))
	downs := 0
	for _, ev := range events {
		speeds = append(speeds, ev.Speed)
		if ev.Direction == "down" {
			downs++
		}
	}
	out[AvgScrollSpeed] = mean(speeds)
	out[ScrollSpeedStd] = stddev(speeds)

	dir := "up"
	if downs*2 >= len(events) {
		dir = "down"
	}
	return out, dir
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the sample standard deviation (n-1 divisor). A single
// observation has stddev 0.
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}
