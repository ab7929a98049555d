package gesture

// Config holds classifier tuning.
type Config struct {
	// StableSamples is how many consecutive active samples must carry the
	// same pose before it is emitted. Values below 1 behave as 1.
	StableSamples int `toml:"stable_samples" json:"stable_samples"`

	// MinPoseScore drops pose labels whose upstream score is below it.
	MinPoseScore float64 `toml:"min_pose_score" json:"min_pose_score"`
}

// DefaultConfig emits on the first sample that shows a new pose.
func DefaultConfig() Config {
	return Config{
		StableSamples: 1,
	}
}

// Pointer is a normalized hand position.
type Pointer struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Output is the classifier's result for one sample.
type Output struct {
	Event   Event
	Emitted bool

	Pointer      Pointer
	PointerValid bool

	Pinch      float64
	PinchValid bool
}

// Stats counts classifier activity.
type Stats struct {
	Samples  uint64 `json:"samples"`
	Inactive uint64 `json:"inactive"`
	Events   uint64 `json:"events"`
	Dropped  uint64 `json:"dropped_low_score"`
}

// Classifier debounces pose labels and forwards continuous signals.
// It is owned by a single tick loop.
type Classifier struct {
	cfg Config

	// last is the most recently emitted pose; PoseNone until the first
	// event.
	last Pose

	candidate Pose
	streak    int

	pointer      Pointer
	pointerKnown bool

	stats Stats
}

// NewClassifier creates a classifier.
func NewClassifier(cfg Config) *Classifier {
	if cfg.StableSamples < 1 {
		cfg.StableSamples = 1
	}
	return &Classifier{cfg: cfg}
}

// Observe classifies one sample. Inactive samples produce no pointer, no
// pinch and no event; the pose they carry is ignored.
func (c *Classifier) Observe(s Sample) Output {
	c.stats.Samples++

	if !s.Active {
		c.stats.Inactive++
		c.candidate, c.streak = PoseNone, 0
		return Output{}
	}

	out := Output{
		Pointer:      Pointer{X: s.X, Y: s.Y},
		PointerValid: true,
	}
	c.pointer, c.pointerKnown = out.Pointer, true

	if s.HasPinch {
		out.Pinch, out.PinchValid = s.Pinch, true
	}

	pose := s.Pose
	if pose != PoseNone && s.PoseScore < c.cfg.MinPoseScore {
		c.stats.Dropped++
		pose = PoseNone
	}

	if ev, ok := c.debounce(pose); ok {
		c.stats.Events++
		out.Event, out.Emitted = ev, true
	}

	return out
}

// debounce emits only when a stable pose differs from the last emitted
// one. PoseNone breaks a streak but does not forget the last emission.
func (c *Classifier) debounce(p Pose) (Event, bool) {
	if p == PoseNone {
		c.candidate, c.streak = PoseNone, 0
		return 0, false
	}

	if p == c.candidate {
		c.streak++
	} else {
		c.candidate, c.streak = p, 1
	}

	if c.streak < c.cfg.StableSamples || p == c.last {
		return 0, false
	}

	c.last = p
	return eventFor(p), true
}

// LastPose returns the most recently emitted pose.
func (c *Classifier) LastPose() Pose {
	return c.last
}

// LastPointer returns the most recent active pointer position.
func (c *Classifier) LastPointer() (Pointer, bool) {
	return c.pointer, c.pointerKnown
}

// Reset forgets the last emitted pose and any partial streak.
func (c *Classifier) Reset() {
	c.last, c.candidate, c.streak = PoseNone, PoseNone, 0
}

// Stats returns activity counters.
func (c *Classifier) Stats() Stats {
	return c.stats
}
