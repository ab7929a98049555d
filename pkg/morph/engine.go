// Package morph computes live element positions each frame by smoothing
// every element toward the endpoint selected by the formation mode.
package morph

import (
	"math"
	"math/rand/v2"
	"sync"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/teslashibe/go-evergreen/pkg/formation"
	"github.com/teslashibe/go-evergreen/pkg/particles"
)

// Engine owns the live positions of every population. The dataset it was
// built from is never written.
//
// An Engine is driven by a single tick loop and is not safe for concurrent
// use. Slices returned by accessors alias engine state and are valid until
// the next Step.
type Engine struct {
	cfg Config
	ds  *particles.Dataset

	foliage      []float32
	foliageRates []float32

	ornaments []particles.Vec3
	lights    []particles.Vec3

	dustBase  []float32
	dust      []float32
	dustRates []float32
	noise     opensimplex.Noise

	clock float64
	steps uint64
}

// New builds an engine whose live positions start at the endpoint of the
// initial mode.
func New(ds *particles.Dataset, cfg Config, initial formation.Mode) *Engine {
	if cfg.LerpSpeed <= 0 {
		cfg.LerpSpeed = DefaultLerpSpeed
	}

	e := &Engine{
		cfg:   cfg,
		ds:    ds,
		noise: opensimplex.New(int64(ds.Seed)),
	}

	// Foliage records carry no speed offset of their own, so the engine
	// derives one per element from the dataset seed.
	rng := particles.NewRand(ds.Seed ^ 0x5f0f1a6e)
	e.foliage = cloneFlat(foliageEnd(ds.Foliage, initial))
	e.foliageRates = offsets(ds.Foliage.Len(), rng)

	e.ornaments = recordEnds(ds.Ornaments, initial)
	e.lights = recordEnds(ds.Lights, initial)

	if ds.Dust != nil {
		e.dustBase = cloneFlat(foliageEnd(ds.Dust, initial))
		e.dust = cloneFlat(e.dustBase)
		e.dustRates = offsets(ds.Dust.Len(), rng)
	}

	return e
}

// Step advances every element by dt seconds toward the endpoint of mode.
// A non-positive dt leaves positions unchanged.
func (e *Engine) Step(mode formation.Mode, dt float64) {
	if dt <= 0 {
		return
	}
	e.clock += dt
	e.steps++

	speed := float32(e.cfg.LerpSpeed)
	dt32 := float32(dt)

	e.stepBatch(e.foliage, foliageEnd(e.ds.Foliage, mode), e.foliageRates, speed, dt32)
	stepRecords(e.ornaments, e.ds.Ornaments, mode, e.cfg.LerpSpeed, dt)
	stepRecords(e.lights, e.ds.Lights, mode, e.cfg.LerpSpeed, dt)

	if e.ds.Dust != nil && e.ds.Dust.Len() > 0 {
		blendRange(e.dustBase, foliageEnd(e.ds.Dust, mode), e.dustRates, speed, dt32, 0, e.ds.Dust.Len())
		e.applyDrift()
	}
}

// stepBatch blends a flat batch, splitting it into contiguous chunks when
// the batch is large enough and more than one worker is configured.
func (e *Engine) stepBatch(live, end, rates []float32, speed, dt float32) {
	n := len(rates)
	workers := e.cfg.Workers
	if workers <= 1 || n < e.cfg.ParallelThreshold || n < workers {
		blendRange(live, end, rates, speed, dt, 0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			blendRange(live, end, rates, speed, dt, lo, hi)
		}()
	}
	wg.Wait()
}

func stepRecords(live []particles.Vec3, recs []particles.Ornament, mode formation.Mode, speed, dt float64) {
	for i := range live {
		rate := speed * (1 + recs[i].SpeedOffset)
		live[i] = Approach(live[i], recordEnd(recs[i], mode), rate, dt)
	}
}

// applyDrift writes dust output positions as base plus a bounded noise
// offset. The base positions converge like every other population; only
// the published copy wanders.
func (e *Engine) applyDrift() {
	amp := e.cfg.DustDrift
	if amp <= 0 {
		copy(e.dust, e.dustBase)
		return
	}

	t := e.clock * e.cfg.DustDriftRate
	for i := 0; i < len(e.dustBase)/3; i++ {
		j := i * 3
		x, y, z := float64(e.dustBase[j]), float64(e.dustBase[j+1]), float64(e.dustBase[j+2])
		seed := float64(i) * 0.618
		e.dust[j] = float32(x + amp*e.noise.Eval3(seed, y*0.15, t))
		e.dust[j+1] = float32(y + amp*e.noise.Eval3(x*0.15, seed+17.3, t))
		e.dust[j+2] = float32(z + amp*e.noise.Eval3(x*0.15, z*0.15, t+seed))
	}
}

// SetLerpSpeed changes the base rate for subsequent steps. Non-positive
// values are ignored.
func (e *Engine) SetLerpSpeed(speed float64) {
	if speed > 0 {
		e.cfg.LerpSpeed = speed
	}
}

// LerpSpeed returns the current base rate.
func (e *Engine) LerpSpeed() float64 {
	return e.cfg.LerpSpeed
}

// Foliage returns the live foliage positions, three components per element.
func (e *Engine) Foliage() []float32 { return e.foliage }

// Ornaments returns the live ornament positions.
func (e *Engine) Ornaments() []particles.Vec3 { return e.ornaments }

// Lights returns the live light positions.
func (e *Engine) Lights() []particles.Vec3 { return e.lights }

// Dust returns the live dust positions including drift.
func (e *Engine) Dust() []float32 { return e.dust }

// Dataset returns the static dataset behind the engine.
func (e *Engine) Dataset() *particles.Dataset { return e.ds }

// Steps returns how many non-empty steps have run.
func (e *Engine) Steps() uint64 { return e.steps }

// Distances reports, per population, the largest distance between a live
// position and its endpoint for mode. Dust is measured before drift.
type Distances struct {
	Foliage   float64 `json:"foliage"`
	Ornaments float64 `json:"ornaments"`
	Lights    float64 `json:"lights"`
	Dust      float64 `json:"dust"`
}

// Max returns the largest of the per-population distances.
func (d Distances) Max() float64 {
	return max(d.Foliage, d.Ornaments, d.Lights, d.Dust)
}

// Distance measures how far each population is from the endpoints of mode.
func (e *Engine) Distance(mode formation.Mode) Distances {
	d := Distances{
		Foliage:   flatDistance(e.foliage, foliageEnd(e.ds.Foliage, mode)),
		Ornaments: recordDistance(e.ornaments, e.ds.Ornaments, mode),
		Lights:    recordDistance(e.lights, e.ds.Lights, mode),
	}
	if e.ds.Dust != nil {
		d.Dust = flatDistance(e.dustBase, foliageEnd(e.ds.Dust, mode))
	}
	return d
}

// Settled reports whether every element is within eps of its endpoint.
func (e *Engine) Settled(mode formation.Mode, eps float64) bool {
	return e.Distance(mode).Max() <= eps
}

func foliageEnd(b *particles.FoliageBatch, mode formation.Mode) []float32 {
	if b == nil {
		return nil
	}
	if mode == formation.Chaos {
		return b.Chaos
	}
	return b.Target
}

func recordEnd(o particles.Ornament, mode formation.Mode) particles.Vec3 {
	if mode == formation.Chaos {
		return o.Position.Chaos
	}
	return o.Position.Target
}

func recordEnds(recs []particles.Ornament, mode formation.Mode) []particles.Vec3 {
	out := make([]particles.Vec3, len(recs))
	for i, o := range recs {
		out[i] = recordEnd(o, mode)
	}
	return out
}

func offsets(n int, rng *rand.Rand) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = 1 + rng.Float32()
	}
	return out
}

func cloneFlat(src []float32) []float32 {
	out := make([]float32, len(src))
	copy(out, src)
	return out
}

func flatDistance(live, end []float32) float64 {
	worst := 0.0
	for j := 0; j+2 < len(live); j += 3 {
		dx := float64(end[j] - live[j])
		dy := float64(end[j+1] - live[j+1])
		dz := float64(end[j+2] - live[j+2])
		worst = max(worst, math.Sqrt(dx*dx+dy*dy+dz*dz))
	}
	return worst
}

func recordDistance(live []particles.Vec3, recs []particles.Ornament, mode formation.Mode) float64 {
	worst := 0.0
	for i, p := range live {
		worst = max(worst, p.Distance(recordEnd(recs[i], mode)))
	}
	return worst
}
