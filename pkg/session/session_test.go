package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-evergreen/pkg/formation"
	"github.com/teslashibe/go-evergreen/pkg/gesture"
	"github.com/teslashibe/go-evergreen/pkg/particles"
)

const frame = 1.0 / 60

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Particles.FoliageCount = 200
	cfg.Particles.OrnamentCount = 20
	cfg.Particles.LightCount = 10
	cfg.Particles.DustCount = 10
	cfg.Particles.Seed = 7
	return cfg
}

func newSession(t *testing.T) *Session {
	t.Helper()
	s, err := New(smallConfig())
	require.NoError(t, err)
	return s
}

func active(x float64, pose gesture.Pose) *gesture.Sample {
	return &gesture.Sample{X: x, Y: 0.5, Active: true, Pose: pose}
}

func TestNewStartsFormedAtRest(t *testing.T) {
	s := newSession(t)

	assert.Equal(t, formation.Formed, s.Mode())
	assert.NotEmpty(t, s.ID())
	assert.Zero(t, s.Control().SpinVelocity)
	assert.Equal(t, 0.5, s.Control().Zoom)
	assert.Equal(t, 240, s.Dataset().Count())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		field string
	}{
		{"lerp", func(c *Config) { c.Morph.LerpSpeed = 0 }, "lerp_speed"},
		{"friction high", func(c *Config) { c.Control.SpinFriction = 1 }, "spin_friction"},
		{"friction zero", func(c *Config) { c.Control.SpinFriction = 0 }, "spin_friction"},
		{"sensitivity", func(c *Config) { c.Control.SpinSensitivity = -1 }, "spin_sensitivity"},
		{"tick rate", func(c *Config) { c.Runner.TickRate = 0 }, "tick_rate"},
		{"foliage", func(c *Config) { c.Particles.FoliageCount = 0 }, "foliage_count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallConfig()
			tt.edit(&cfg)

			_, err := New(cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, particles.ErrInvalidConfiguration))

			var ce *particles.ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestTickPoseScenario(t *testing.T) {
	s := newSession(t)
	poses := []gesture.Pose{
		gesture.PoseOpenPalm,
		gesture.PoseOpenPalm,
		gesture.PoseClosedFist,
		gesture.PoseClosedFist,
		gesture.PoseOpenPalm,
	}
	wantModes := []formation.Mode{
		formation.Chaos, formation.Chaos, formation.Formed, formation.Formed, formation.Chaos,
	}

	var events []gesture.Event
	for i, p := range poses {
		f := s.Tick(frame, active(0.5, p))
		events = append(events, f.Events...)
		assert.Equal(t, wantModes[i], f.Mode, "tick %d", i)
	}

	assert.Equal(t, []gesture.Event{gesture.OpenPalm, gesture.ClosedFist, gesture.OpenPalm}, events)
	assert.Equal(t, uint64(3), s.Flips())
}

func TestTickTrackingLossHoldsControls(t *testing.T) {
	s := newSession(t)

	pinch := func(x, p float64) *gesture.Sample {
		smp := active(x, gesture.PoseNone)
		smp.Pinch, smp.HasPinch = p, true
		return smp
	}
	s.Tick(frame, pinch(0.2, 0.8))
	s.Tick(frame, pinch(0.6, 0.8))

	before := s.Control()
	require.Greater(t, before.SpinVelocity, 0.0)
	require.Equal(t, 0.8, before.Zoom)
	pointer := s.Hand().Pointer

	prev := before.SpinVelocity
	for i := 0; i < 30; i++ {
		var smp *gesture.Sample
		if i%2 == 0 {
			smp = &gesture.Sample{Active: false, X: 0.99, Pose: gesture.PoseClosedFist}
		}
		f := s.Tick(frame, smp)

		assert.Equal(t, 0.8, f.Control.Zoom)
		assert.Greater(t, f.Control.SpinVelocity, 0.0, "no sign reversal")
		assert.Less(t, f.Control.SpinVelocity, prev, "velocity decays")
		assert.Equal(t, formation.Formed, f.Mode, "inactive poses are ignored")
		assert.Equal(t, pointer, f.Hand.Pointer)
		prev = f.Control.SpinVelocity
	}

	// Reacquiring far away must not flick.
	f := s.Tick(frame, pinch(0.0, 0.8))
	assert.Less(t, f.Control.SpinVelocity, prev)
	assert.Greater(t, f.Control.SpinVelocity, 0.0)
}

func TestTickCommands(t *testing.T) {
	s := newSession(t)

	f := s.Tick(frame, nil, Toggle("test"))
	assert.Equal(t, formation.Chaos, f.Mode)
	assert.True(t, f.ModeChanged)

	f = s.Tick(frame, nil, SetMode(formation.Chaos, "test"))
	assert.False(t, f.ModeChanged)

	f = s.Tick(frame, nil, SetMode(formation.Formed, "test"))
	assert.Equal(t, formation.Formed, f.Mode)

	s.Tick(frame, nil, Tune(Tuning{LerpSpeed: 4, SpinFriction: 0.9}, "test"))
	tuning := s.Tuning()
	assert.Equal(t, 4.0, tuning.LerpSpeed)
	assert.Equal(t, 0.9, tuning.SpinFriction)
	assert.Equal(t, 0.005, tuning.SpinSensitivity, "zero fields are left unchanged")
}

func TestTickGestureOverridesCommandSameTick(t *testing.T) {
	s := newSession(t)

	f := s.Tick(frame, active(0.5, gesture.PoseClosedFist), Toggle("test"))
	assert.Equal(t, formation.Formed, f.Mode)
	assert.False(t, f.ModeChanged)
}

func TestMailboxKeepsLatest(t *testing.T) {
	var m Mailbox
	assert.Nil(t, m.Take())

	m.Put(gesture.Sample{X: 0.1})
	m.Put(gesture.Sample{X: 0.2})
	m.Put(gesture.Sample{X: 0.3})

	got := m.Take()
	require.NotNil(t, got)
	assert.Equal(t, 0.3, got.X)
	assert.Nil(t, m.Take())
	assert.Equal(t, MailboxStats{Received: 3, Overwritten: 2}, m.Stats())
}

func TestRunnerStepPublishesSnapshot(t *testing.T) {
	r := NewRunner(newSession(t))

	initial := r.Snapshot()
	require.NotNil(t, initial.Positions)
	assert.Equal(t, uint64(0), initial.Seq)

	require.True(t, r.Submit(Toggle("test")))
	r.Mailbox().Put(gesture.Sample{X: 0.4, Y: 0.5, Active: true})

	var hooked []uint64
	r.OnTick(func(f Frame, _ *Session) { hooked = append(hooked, f.Seq) })
	r.Step(frame)

	snap := r.Snapshot()
	assert.Equal(t, uint64(1), snap.Seq)
	assert.Equal(t, formation.Chaos, snap.Mode)
	assert.Equal(t, uint64(1), snap.Positions.Seq, "mode change refreshes positions")
	assert.Equal(t, formation.Chaos, snap.Positions.Mode)
	assert.True(t, snap.Hand.Active)
	assert.Equal(t, []uint64{1}, hooked)

	stats := r.Stats()
	assert.Equal(t, uint64(1), stats.Ticks)
	assert.Equal(t, uint64(1), stats.SamplesTaken)
	assert.Equal(t, uint64(1), stats.CommandsSubmitted)
}

func TestRunnerPositionCadence(t *testing.T) {
	cfg := smallConfig()
	cfg.Runner.PositionEvery = 3
	s, err := New(cfg)
	require.NoError(t, err)
	r := NewRunner(s)

	var seqs []uint64
	for i := 0; i < 6; i++ {
		r.Step(frame)
		seqs = append(seqs, r.Snapshot().Positions.Seq)
	}
	assert.Equal(t, []uint64{0, 0, 3, 3, 3, 6}, seqs)
}

func TestRunnerSubmitFullQueue(t *testing.T) {
	cfg := smallConfig()
	cfg.Runner.CommandBuffer = 1
	s, err := New(cfg)
	require.NoError(t, err)
	r := NewRunner(s)

	assert.True(t, r.Submit(Toggle("test")))
	assert.False(t, r.Submit(Toggle("test")))
	assert.Equal(t, uint64(1), r.Stats().CommandsRejected)
}

func TestRunnerRunStopsOnCancel(t *testing.T) {
	cfg := smallConfig()
	cfg.Runner.TickRate = 200
	s, err := New(cfg)
	require.NoError(t, err)
	r := NewRunner(s)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err = r.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, r.Snapshot().Seq, uint64(0))
}

func TestPositionsPopulation(t *testing.T) {
	s := newSession(t)
	p := s.CapturePositions()

	for name, want := range map[string]int{"foliage": 200, "ornaments": 20, "lights": 10, "dust": 10} {
		flat, ok := p.Population(name)
		require.True(t, ok, name)
		assert.Len(t, flat, want*3, name)
	}
	_, ok := p.Population("snow")
	assert.False(t, ok)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evergreen.toml")
	data := `
[particles]
foliage_count = 50
seed = 99

[morph]
lerp_speed = 4.0

[control]
spin_friction = 0.9
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Particles.FoliageCount)
	assert.Equal(t, uint64(99), cfg.Particles.Seed)
	assert.Equal(t, 4.0, cfg.Morph.LerpSpeed)
	assert.Equal(t, 0.9, cfg.Control.SpinFriction)
	assert.Equal(t, particles.DefaultOrnamentCount, cfg.Particles.OrnamentCount)
	assert.Equal(t, 60.0, cfg.Runner.TickRate)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[morph]\nlerp_speed = -1\n"), 0o644))
	_, err = LoadConfig(bad)
	assert.ErrorIs(t, err, particles.ErrInvalidConfiguration)
}
