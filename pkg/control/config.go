package control

// Stock control constants.
const (
	DefaultSpinFriction    = 0.96
	DefaultSpinSensitivity = 0.005
	DefaultZoom            = 0.5
)

// Config holds all tunable parameters for spin and zoom.
type Config struct {
	// Spin
	SpinFriction    float64 `toml:"spin_friction" json:"spin_friction"`       // Per-tick velocity multiplier, in (0,1)
	SpinSensitivity float64 `toml:"spin_sensitivity" json:"spin_sensitivity"` // Velocity gained per unit of horizontal hand travel

	// Zoom
	PinchNear   float64 `toml:"pinch_near" json:"pinch_near"` // Pinch distance mapped to zoom 0
	PinchFar    float64 `toml:"pinch_far" json:"pinch_far"`   // Pinch distance mapped to zoom 1
	InitialZoom float64 `toml:"initial_zoom" json:"initial_zoom"`
}

// DefaultConfig returns the recommended configuration.
func DefaultConfig() Config {
	return Config{
		SpinFriction:    DefaultSpinFriction,
		SpinSensitivity: DefaultSpinSensitivity,
		PinchNear:       0,
		PinchFar:        1,
		InitialZoom:     DefaultZoom,
	}
}

// CalmConfig returns a configuration where flicks die out quickly
func CalmConfig() Config {
	cfg := DefaultConfig()
	cfg.SpinFriction = 0.90
	cfg.SpinSensitivity = 0.003
	return cfg
}

// LivelyConfig returns a configuration for long, free spins
func LivelyConfig() Config {
	cfg := DefaultConfig()
	cfg.SpinFriction = 0.985
	cfg.SpinSensitivity = 0.01
	return cfg
}

// ZoomFor maps a pinch distance linearly onto [0,1]. The mapping is a
// straight clamp between PinchNear and PinchFar; a degenerate range falls
// back to clamping the raw distance.
func (c Config) ZoomFor(pinch float64) float64 {
	span := c.PinchFar - c.PinchNear
	if span <= 0 {
		return clamp(pinch, 0, 1)
	}
	return clamp((pinch-c.PinchNear)/span, 0, 1)
}

// clamp limits a value to a range
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
