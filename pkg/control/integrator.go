// Package control integrates hand signals into spin and zoom with inertia.
package control

import "github.com/teslashibe/go-evergreen/pkg/gesture"

// State is the control output read by renderers once per frame.
type State struct {
	SpinVelocity float64 `json:"spin_velocity"` // radians per tick
	Rotation     float64 `json:"rotation"`      // accumulated radians
	Zoom         float64 `json:"zoom"`          // [0,1]
}

// Integrator turns horizontal hand travel into spin velocity that decays
// with friction, and maps pinch directly to zoom.
//
// Apply feeds a classified sample; Advance runs once per tick whether or
// not a sample arrived. An Integrator is owned by a single tick loop.
type Integrator struct {
	cfg   Config
	state State

	// Horizontal baseline for the next impulse. armed is false until an
	// active sample arrives and again after tracking is lost, so the
	// first sample after a gap never produces a jump.
	lastX float64
	armed bool
}

// NewIntegrator creates an integrator at rest with the initial zoom.
func NewIntegrator(cfg Config) *Integrator {
	return &Integrator{
		cfg:   cfg,
		state: State{Zoom: clamp(cfg.InitialZoom, 0, 1)},
	}
}

// Apply adds the impulse from one classified sample and updates zoom.
// Outputs without a valid pointer leave velocity, rotation and zoom as
// they are.
func (g *Integrator) Apply(out gesture.Output) {
	if !out.PointerValid {
		g.armed = false
		return
	}

	if g.armed {
		g.state.SpinVelocity += (out.Pointer.X - g.lastX) * g.cfg.SpinSensitivity
	}
	g.lastX, g.armed = out.Pointer.X, true

	if out.PinchValid {
		g.state.Zoom = g.cfg.ZoomFor(out.Pinch)
	}
}

// Advance applies one tick of friction and integrates rotation.
func (g *Integrator) Advance() State {
	g.state.SpinVelocity *= g.cfg.SpinFriction
	g.state.Rotation += g.state.SpinVelocity
	return g.state
}

// State returns the current control state.
func (g *Integrator) State() State {
	return g.state
}

// SetTuning changes friction and sensitivity. Friction outside (0,1) and
// non-positive sensitivity are ignored.
func (g *Integrator) SetTuning(friction, sensitivity float64) {
	if friction > 0 && friction < 1 {
		g.cfg.SpinFriction = friction
	}
	if sensitivity > 0 {
		g.cfg.SpinSensitivity = sensitivity
	}
}

// Config returns the active configuration.
func (g *Integrator) Config() Config {
	return g.cfg
}
