package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-evergreen/internal/log"
)

// TickHook observes every frame on the tick goroutine. Hooks may read the
// session's live state but must not block.
type TickHook func(f Frame, s *Session)

// Runner drives a Session at a fixed rate and publishes Snapshots.
type Runner struct {
	session *Session
	cfg     RunnerConfig
	log     *slog.Logger

	mailbox  *Mailbox
	commands chan Command

	mu    sync.Mutex
	hooks []TickHook

	snapshot atomic.Pointer[Snapshot]
	last     time.Time

	submitted atomic.Uint64
	rejected  atomic.Uint64
	samples   atomic.Uint64
}

// NewRunner creates a runner for s and publishes an initial snapshot.
func NewRunner(s *Session) *Runner {
	cfg := s.cfg.Runner
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = 64
	}
	if cfg.PositionEvery < 1 {
		cfg.PositionEvery = 1
	}

	r := &Runner{
		session:  s,
		cfg:      cfg,
		log:      log.Component("runner").With("session_id", s.id),
		mailbox:  &Mailbox{},
		commands: make(chan Command, cfg.CommandBuffer),
	}
	r.snapshot.Store(s.snapshot(Frame{
		Seq:     s.seq,
		Mode:    s.Mode(),
		Control: s.Control(),
		Hand:    s.Hand(),
	}, s.CapturePositions()))
	return r
}

// Mailbox returns the hand sample mailbox producers write to.
func (r *Runner) Mailbox() *Mailbox { return r.mailbox }

// OnTick registers a hook.
func (r *Runner) OnTick(h TickHook) {
	r.mu.Lock()
	r.hooks = append(r.hooks, h)
	r.mu.Unlock()
}

// Submit queues a command for the next tick. It never blocks and reports
// false when the queue is full.
func (r *Runner) Submit(cmd Command) bool {
	select {
	case r.commands <- cmd:
		r.submitted.Add(1)
		return true
	default:
		r.rejected.Add(1)
		r.log.Warn("command dropped", "kind", cmd.Kind, "source", cmd.Source)
		return false
	}
}

// Snapshot returns the most recently published snapshot.
func (r *Runner) Snapshot() *Snapshot { return r.snapshot.Load() }

// Step runs a single tick with dt seconds. It must only be called from the
// goroutine that owns the session; Run does so on its own.
func (r *Runner) Step(dt float64) Frame {
	var cmds []Command
drain:
	for {
		select {
		case cmd := <-r.commands:
			cmds = append(cmds, cmd)
		default:
			break drain
		}
	}

	sample := r.mailbox.Take()
	if sample != nil {
		r.samples.Add(1)
	}

	f := r.session.Tick(dt, sample, cmds...)

	prev := r.snapshot.Load()
	positions := prev.Positions
	if positions == nil || f.Seq-positions.Seq >= uint64(r.cfg.PositionEvery) || f.ModeChanged {
		positions = r.session.CapturePositions()
	}
	r.snapshot.Store(r.session.snapshot(f, positions))

	r.mu.Lock()
	hooks := r.hooks
	r.mu.Unlock()
	for _, h := range hooks {
		h(f, r.session)
	}
	return f
}

// Run ticks at the configured rate until ctx is cancelled. dt is measured
// from the wall clock so a late tick catches up in one step.
func (r *Runner) Run(ctx context.Context) error {
	interval := time.Duration(float64(time.Second) / r.cfg.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.log.Info("runner started", "tick_rate", r.cfg.TickRate, "interval", interval)
	r.last = time.Now()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("runner stopped", "ticks", r.session.Seq())
			return ctx.Err()
		case now := <-ticker.C:
			dt := now.Sub(r.last).Seconds()
			r.last = now
			r.Step(dt)
		}
	}
}

// RunnerStats counts runner traffic.
type RunnerStats struct {
	Ticks             uint64       `json:"ticks"`
	SamplesTaken      uint64       `json:"samples_taken"`
	CommandsSubmitted uint64       `json:"commands_submitted"`
	CommandsRejected  uint64       `json:"commands_rejected"`
	Mailbox           MailboxStats `json:"mailbox"`
}

// Stats returns runner counters. Safe for concurrent use.
func (r *Runner) Stats() RunnerStats {
	return RunnerStats{
		Ticks:             r.Snapshot().Seq,
		SamplesTaken:      r.samples.Load(),
		CommandsSubmitted: r.submitted.Load(),
		CommandsRejected:  r.rejected.Load(),
		Mailbox:           r.mailbox.Stats(),
	}
}
