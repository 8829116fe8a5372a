package features

import (
	"math"
	"testing"

	"github.com/kinetiq-id/kinetiq/internal/sample"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestExtractTyping(t *testing.T) {
	s := &sample.Sample{
		Channels: sample.Channels{
			Typing: []sample.KeyEvent{
				{HoldTime: 100, FlightTime: 50},
				{HoldTime: 200, FlightTime: 70},
			},
		},
	}

	v := Extract(s)

	if !almostEqual(v.Typing[AvgHoldTime], 150) {
		t.Errorf("avg hold time = %v, want 150", v.Typing[AvgHoldTime])
	}
	if !almostEqual(v.Typing[HoldTimeStd], 50*math.Sqrt2) {
		t.Errorf("hold time std = %v, want 50*sqrt(2) (sample)", v.Typing[HoldTimeStd])
	}
	if !almostEqual(v.Typing[AvgFlightTime], 60) {
		t.Errorf("avg flight time = %v, want 60", v.Typing[AvgFlightTime])
	}
}

func TestExtractTypingSingleEvent(t *testing.T) {
	s := &sample.Sample{
		Channels: sample.Channels{
			Typing: []sample.KeyEvent{{HoldTime: 120}},
		},
	}

	v := Extract(s)

	if !almostEqual(v.Typing[AvgHoldTime], 120) {
		t.Errorf("avg hold time = %v, want 120", v.Typing[AvgHoldTime])
	}
	if v.Typing[HoldTimeStd] != 0 {
		t.Errorf("single observation should have std 0, got %v", v.Typing[HoldTimeStd])
	}
	if _, ok := v.Typing[AvgFlightTime]; ok {
		t.Error("no flight times recorded, avg_flight_time should be absent")
	}
}

func TestExtractEmptyChannels(t *testing.T) {
	v := Extract(&sample.Sample{})

	for name, m := range map[string]map[string]float64{
		"typing": v.Typing, "touch": v.Touch, "mouse": v.Mouse, "scroll": v.Scroll,
	} {
		if m == nil {
			t.Errorf("%s map should be non-nil", name)
		}
		if len(m) != 0 {
			t.Errorf("%s map should be empty, got %v", name, m)
		}
	}
	if v.Direction != "" {
		t.Errorf("no scroll events, direction should be empty, got %q", v.Direction)
	}
}

func TestExtractTouch(t *testing.T) {
	s := &sample.Sample{
		Channels: sample.Channels{
			Touch: []sample.SwipeEvent{
				{Speed: 300, Pressure: 0.5},
				{Speed: 500, Pressure: 0.7},
			},
		},
	}

	v := Extract(s)

	if !almostEqual(v.Touch[AvgSwipeSpeed], 400) {
		t.Errorf("avg swipe speed = %v, want 400", v.Touch[AvgSwipeSpeed])
	}
	if !almostEqual(v.Touch[AvgTouchPressure], 0.6) {
		t.Errorf("avg pressure = %v, want 0.6", v.Touch[AvgTouchPressure])
	}
	if !almostEqual(v.Touch[SwipeSpeedStd], 100*math.Sqrt2) {
		t.Errorf("swipe speed std = %v, want 100*sqrt(2)", v.Touch[SwipeSpeedStd])
	}
}

func TestExtractMouseMovementAngle(t *testing.T) {
	s := &sample.Sample{
		Channels: sample.Channels{
			Mouse: []sample.MouseEvent{
				{X: 0, Y: 0, Speed: 100},
				{X: 10, Y: 10, Speed: 120},  // |dy/dx| = 1
				{X: 20, Y: -20, Speed: 110}, // |dy/dx| = 3
				{X: 20, Y: 30, Speed: 100},  // dx=0, excluded
			},
		},
	}

	v := Extract(s)

	if !almostEqual(v.Mouse[AvgMovementAngle], 2) {
		t.Errorf("avg movement angle = %v, want 2", v.Mouse[AvgMovementAngle])
	}
	if !almostEqual(v.Mouse[AvgMouseSpeed], 107.5) {
		t.Errorf("avg mouse speed = %v, want 107.5", v.Mouse[AvgMouseSpeed])
	}
}

func TestExtractMouseSpeedStdIsSample(t *testing.T) {
	s := &sample.Sample{
		Channels: sample.Channels{
			Mouse: []sample.MouseEvent{
				{X: 0, Y: 0, Speed: 1.00},
				{X: 5, Y: 5, Speed: 1.18},
			},
		},
	}

	v := Extract(s)

	// Sample std of {1.00, 1.18} is 0.18/sqrt(2) ~ 0.127; the population
	// formula would give 0.09 and wrongly trip the robotic-mouse floor.
	if !almostEqual(v.Mouse[MouseSpeedStd], 0.18/math.Sqrt2) {
		t.Errorf("mouse speed std = %v, want %v", v.Mouse[MouseSpeedStd], 0.18/math.Sqrt2)
	}
}

func TestExtractScrollDirection(t *testing.T) {
	tests := []struct {
		name string
		dirs []string
		want string
	}{
		{"mostly down", []string{"down", "down", "up"}, "down"},
		{"mostly up", []string{"up", "up", "down"}, "up"},
		{"tie goes down", []string{"up", "down"}, "down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var events []sample.ScrollEvent
			for _, d := range tt.dirs {
				events = append(events, sample.ScrollEvent{Speed: 100, Direction: d})
			}
			v := Extract(&sample.Sample{Channels: sample.Channels{Scroll: events}})
			if v.Direction != tt.want {
				t.Errorf("direction = %q, want %q", v.Direction, tt.want)
			}
		})
	}
}

func TestExtractPassesThroughDeviceAndBrowser(t *testing.T) {
	dev := &sample.DeviceInfo{DeviceID: "dev-1", OS: "Android"}
	br := &sample.BrowserInfo{UserAgent: "ua", Timezone: "UTC"}

	v := Extract(&sample.Sample{Channels: sample.Channels{Device: dev, Browser: br}})

	if v.Device != dev {
		t.Error("device record should pass through untouched")
	}
	if v.Browser != br {
		t.Error("browser record should pass through untouched")
	}
}
