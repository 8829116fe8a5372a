package matcher

// Config carries all weights and thresholds for similarity matching.
// It is read-only after construction; a Matcher never mutates it and
// callers must not change it while the Matcher is in use.
type Config struct {
	Mobile PlatformConfig
	Web    PlatformConfig
}

// PlatformConfig is the weight and threshold table for one platform.
type PlatformConfig struct {
	// MatchThreshold is the minimum confidence for IsMatch.
	MatchThreshold float64

	// Channel weights. Weights of absent channels are not redistributed,
	// so fewer observed channels means a lower reachable confidence.
	TypingWeight  float64
	TouchWeight   float64
	DeviceWeight  float64
	MouseWeight   float64
	ScrollWeight  float64
	BrowserWeight float64

	// Relative-difference thresholds per comparator.
	TypingTightRel float64 // full typing score band
	TypingLooseRel float64 // partial typing score band (mobile only)
	HoldRel        float64 // web typing hold component
	FlightRel      float64 // web typing flight component
	SwipeRel       float64
	PressureRel    float64
	MouseRel       float64
	ScrollRel      float64
}

// DefaultConfig returns the production weight and threshold tables.
func DefaultConfig() Config {
	return Config{
		Mobile: PlatformConfig{
			MatchThreshold: 0.70,
			TypingWeight:   0.5,
			TouchWeight:    0.3,
			DeviceWeight:   0.2,
			TypingTightRel: 0.2,
			TypingLooseRel: 0.4,
			SwipeRel:       0.3,
			PressureRel:    0.25,
		},
		Web: PlatformConfig{
			MatchThreshold: 0.65,
			MouseWeight:    0.4,
			TypingWeight:   0.3,
			ScrollWeight:   0.2,
			BrowserWeight:  0.1,
			MouseRel:       0.3,
			HoldRel:        0.25,
			FlightRel:      0.3,
			ScrollRel:      0.4,
		},
	}
}
