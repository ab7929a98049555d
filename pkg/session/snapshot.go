package session

import (
	"time"

	"github.com/teslashibe/go-evergreen/pkg/control"
	"github.com/teslashibe/go-evergreen/pkg/formation"
	"github.com/teslashibe/go-evergreen/pkg/gesture"
	"github.com/teslashibe/go-evergreen/pkg/morph"
	"github.com/teslashibe/go-evergreen/pkg/particles"
)

// Snapshot is an immutable view of a session published after a tick.
// Readers on other goroutines must not modify it.
type Snapshot struct {
	SessionID string          `json:"session_id"`
	Seq       uint64          `json:"seq"`
	Time      time.Time       `json:"time"`
	Mode      formation.Mode  `json:"mode"`
	Flips     uint64          `json:"flips"`
	Control   control.State   `json:"control"`
	Hand      HandState       `json:"hand"`
	Events    []gesture.Event `json:"events,omitempty"`
	Tuning    Tuning          `json:"tuning"`

	// Positions is refreshed every RunnerConfig.PositionEvery ticks and
	// shared between snapshots in between.
	Positions *Positions `json:"-"`
}

// Positions is a copy of the live positions at one tick.
type Positions struct {
	Seq       uint64           `json:"seq"`
	Mode      formation.Mode   `json:"mode"`
	Foliage   []float32        `json:"foliage"`
	Ornaments []particles.Vec3 `json:"ornaments"`
	Lights    []particles.Vec3 `json:"lights"`
	Dust      []float32        `json:"dust,omitempty"`
	Settle    morph.Distances  `json:"settle"`
}

// Population returns the named population as flat xyz triples.
// Names are foliage, ornaments, lights and dust.
func (p *Positions) Population(name string) ([]float32, bool) {
	switch name {
	case "foliage":
		return p.Foliage, true
	case "ornaments":
		return flatten(p.Ornaments), true
	case "lights":
		return flatten(p.Lights), true
	case "dust":
		return p.Dust, true
	}
	return nil, false
}

// CapturePositions copies the live positions. Only the owning goroutine
// may call it.
func (s *Session) CapturePositions() *Positions {
	mode := s.machine.Mode()
	return &Positions{
		Seq:       s.seq,
		Mode:      mode,
		Foliage:   append([]float32(nil), s.engine.Foliage()...),
		Ornaments: append([]particles.Vec3(nil), s.engine.Ornaments()...),
		Lights:    append([]particles.Vec3(nil), s.engine.Lights()...),
		Dust:      append([]float32(nil), s.engine.Dust()...),
		Settle:    s.engine.Distance(mode),
	}
}

func (s *Session) snapshot(f Frame, positions *Positions) *Snapshot {
	return &Snapshot{
		SessionID: s.id,
		Seq:       f.Seq,
		Time:      time.Now(),
		Mode:      f.Mode,
		Flips:     s.machine.Flips(),
		Control:   f.Control,
		Hand:      f.Hand,
		Events:    f.Events,
		Tuning:    s.Tuning(),
		Positions: positions,
	}
}

func flatten(vs []particles.Vec3) []float32 {
	out := make([]float32, 0, len(vs)*3)
	for _, v := range vs {
		out = append(out, float32(v.X), float32(v.Y), float32(v.Z))
	}
	return out
}
