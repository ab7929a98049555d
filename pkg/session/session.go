// Package session wires the dataset, formation machine, gesture classifier,
// control integrator and interpolation engine into one frame loop.
//
// A Session is owned by exactly one goroutine. Hand samples reach it through
// a Mailbox and UI commands through the Runner's command channel; everything
// else reads published Snapshots.
package session

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/teslashibe/go-evergreen/internal/log"
	"github.com/teslashibe/go-evergreen/pkg/control"
	"github.com/teslashibe/go-evergreen/pkg/formation"
	"github.com/teslashibe/go-evergreen/pkg/gesture"
	"github.com/teslashibe/go-evergreen/pkg/morph"
	"github.com/teslashibe/go-evergreen/pkg/particles"
)

// HandState is what the session last knew about the hand.
type HandState struct {
	Active       bool            `json:"active"`
	Pointer      gesture.Pointer `json:"pointer"`
	PointerValid bool            `json:"pointer_valid"`
	Pose         string          `json:"pose"`
}

// Frame is the result of one tick.
type Frame struct {
	Seq         uint64          `json:"seq"`
	Dt          float64         `json:"dt"`
	Mode        formation.Mode  `json:"mode"`
	ModeChanged bool            `json:"mode_changed"`
	Control     control.State   `json:"control"`
	Events      []gesture.Event `json:"events,omitempty"`
	Hand        HandState       `json:"hand"`
}

// Session is one running formation.
type Session struct {
	id  string
	cfg Config
	log *slog.Logger

	ds         *particles.Dataset
	machine    *formation.Machine
	classifier *gesture.Classifier
	integrator *control.Integrator
	engine     *morph.Engine

	seq        uint64
	handActive bool
}

// New generates the dataset and builds a session in FORMED mode.
func New(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ds, err := particles.Generate(cfg.Particles)
	if err != nil {
		return nil, fmt.Errorf("generate dataset: %w", err)
	}

	id := uuid.NewString()
	machine := formation.New()
	s := &Session{
		id:         id,
		cfg:        cfg,
		log:        log.Component("session").With("session_id", id),
		ds:         ds,
		machine:    machine,
		classifier: gesture.NewClassifier(cfg.Gesture),
		integrator: control.NewIntegrator(cfg.Control),
		engine:     morph.New(ds, cfg.Morph, machine.Mode()),
	}

	s.log.Info("session created",
		"seed", ds.Seed,
		"elements", ds.Count(),
		"lerp_speed", cfg.Morph.LerpSpeed,
	)
	return s, nil
}

// Tick runs one frame: commands first, then the hand sample (if any), then
// control integration and interpolation. sample may be nil when nothing new
// arrived since the previous tick.
func (s *Session) Tick(dt float64, sample *gesture.Sample, cmds ...Command) Frame {
	s.seq++
	before := s.machine.Mode()

	for _, cmd := range cmds {
		s.apply(cmd)
	}

	var events []gesture.Event
	if sample != nil {
		s.handActive = sample.Active
		out := s.classifier.Observe(*sample)
		if out.Emitted {
			events = append(events, out.Event)
			if s.machine.Set(out.Event.Mode()) {
				s.log.Debug("gesture changed mode", "event", out.Event, "mode", s.machine.Mode())
			}
		}
		s.integrator.Apply(out)
	}

	ctl := s.integrator.Advance()
	mode := s.machine.Mode()
	s.engine.Step(mode, dt)

	return Frame{
		Seq:         s.seq,
		Dt:          dt,
		Mode:        mode,
		ModeChanged: mode != before,
		Control:     ctl,
		Events:      events,
		Hand:        s.Hand(),
	}
}

func (s *Session) apply(cmd Command) {
	switch cmd.Kind {
	case CommandToggle:
		mode := s.machine.Toggle()
		s.log.Info("formation toggled", "mode", mode, "source", cmd.Source)
	case CommandSet:
		if s.machine.Set(cmd.Mode) {
			s.log.Info("formation set", "mode", cmd.Mode, "source", cmd.Source)
		}
	case CommandTune:
		t := cmd.Tuning
		s.engine.SetLerpSpeed(t.LerpSpeed)
		s.integrator.SetTuning(t.SpinFriction, t.SpinSensitivity)
		s.log.Info("tuning applied", "tuning", s.Tuning(), "source", cmd.Source)
	default:
		s.log.Warn("unknown command", "kind", cmd.Kind, "source", cmd.Source)
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Mode returns the current formation mode.
func (s *Session) Mode() formation.Mode { return s.machine.Mode() }

// Control returns the current control state.
func (s *Session) Control() control.State { return s.integrator.State() }

// Engine exposes live positions. Only the owning goroutine may call it.
func (s *Session) Engine() *morph.Engine { return s.engine }

// Dataset returns the static dataset.
func (s *Session) Dataset() *particles.Dataset { return s.ds }

// Seq returns the number of ticks run.
func (s *Session) Seq() uint64 { return s.seq }

// Flips returns how many times the mode has changed.
func (s *Session) Flips() uint64 { return s.machine.Flips() }

// GestureStats returns classifier counters.
func (s *Session) GestureStats() gesture.Stats { return s.classifier.Stats() }

// Hand returns the last known hand state.
func (s *Session) Hand() HandState {
	p, ok := s.classifier.LastPointer()
	return HandState{
		Active:       s.handActive,
		Pointer:      p,
		PointerValid: ok,
		Pose:         s.classifier.LastPose().Label(),
	}
}

// Tuning returns the parameters currently in effect.
func (s *Session) Tuning() Tuning {
	ctl := s.integrator.Config()
	return Tuning{
		LerpSpeed:       s.engine.LerpSpeed(),
		SpinFriction:    ctl.SpinFriction,
		SpinSensitivity: ctl.SpinSensitivity,
	}
}
