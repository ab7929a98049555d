package session

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/teslashibe/go-evergreen/pkg/control"
	"github.com/teslashibe/go-evergreen/pkg/gesture"
	"github.com/teslashibe/go-evergreen/pkg/morph"
	"github.com/teslashibe/go-evergreen/pkg/particles"
)

// Config holds everything needed to start a session.
// Flag parsing is done in cmd/*; this struct is data only.
type Config struct {
	Particles particles.Config `toml:"particles"`
	Morph     morph.Config     `toml:"morph"`
	Gesture   gesture.Config   `toml:"gesture"`
	Control   control.Config   `toml:"control"`
	Runner    RunnerConfig     `toml:"runner"`
}

// RunnerConfig controls the tick loop.
type RunnerConfig struct {
	TickRate      float64 `toml:"tick_rate"`      // Ticks per second
	PositionEvery int     `toml:"position_every"` // Copy live positions into snapshots every N ticks
	CommandBuffer int     `toml:"command_buffer"` // Pending UI commands before Submit drops
}

// DefaultConfig returns sensible defaults for a session.
func DefaultConfig() Config {
	return Config{
		Particles: particles.DefaultConfig(),
		Morph:     morph.DefaultConfig(),
		Gesture:   gesture.DefaultConfig(),
		Control:   control.DefaultConfig(),
		Runner: RunnerConfig{
			TickRate:      60,
			PositionEvery: 6,
			CommandBuffer: 64,
		},
	}
}

// Validate reports the first option that cannot start a session. Every
// failure wraps particles.ErrInvalidConfiguration.
func (c Config) Validate() error {
	if err := c.Particles.Validate(); err != nil {
		return err
	}
	if c.Morph.LerpSpeed <= 0 {
		return particles.Invalid("lerp_speed", c.Morph.LerpSpeed, "must be > 0")
	}
	if c.Control.SpinFriction <= 0 || c.Control.SpinFriction >= 1 {
		return particles.Invalid("spin_friction", c.Control.SpinFriction, "must be in (0,1)")
	}
	if c.Control.SpinSensitivity <= 0 {
		return particles.Invalid("spin_sensitivity", c.Control.SpinSensitivity, "must be > 0")
	}
	if c.Runner.TickRate <= 0 {
		return particles.Invalid("tick_rate", c.Runner.TickRate, "must be > 0")
	}
	return nil
}

// LoadConfig reads a TOML file over the defaults and validates the result.
// Keys missing from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Tuning holds the parameters that may change while a session runs.
// Zero fields mean "leave unchanged".
type Tuning struct {
	LerpSpeed       float64 `json:"lerp_speed,omitempty" toml:"lerp_speed"`
	SpinFriction    float64 `json:"spin_friction,omitempty" toml:"spin_friction"`
	SpinSensitivity float64 `json:"spin_sensitivity,omitempty" toml:"spin_sensitivity"`
}

// Tuning extracts the runtime-adjustable subset of c.
func (c Config) Tuning() Tuning {
	return Tuning{
		LerpSpeed:       c.Morph.LerpSpeed,
		SpinFriction:    c.Control.SpinFriction,
		SpinSensitivity: c.Control.SpinSensitivity,
	}
}
