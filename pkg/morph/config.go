package morph

// DefaultLerpSpeed is the base approach rate per second.
const DefaultLerpSpeed = 2.5

// Config holds the tunable interpolation parameters.
type Config struct {
	// LerpSpeed is the base approach rate; each element moves at
	// LerpSpeed * (1 + speedOffset).
	LerpSpeed float64 `toml:"lerp_speed" json:"lerp_speed"`

	// Workers splits the foliage batch across goroutines. Values <= 1 run
	// on the calling goroutine.
	Workers int `toml:"workers" json:"workers"`

	// ParallelThreshold is the minimum batch size worth splitting.
	ParallelThreshold int `toml:"parallel_threshold" json:"parallel_threshold"`

	// DustDrift is the amplitude, in scene units, of the noise offset
	// added to dust positions. Zero disables drift.
	DustDrift float64 `toml:"dust_drift" json:"dust_drift"`

	// DustDriftRate scales how fast the drift field evolves.
	DustDriftRate float64 `toml:"dust_drift_rate" json:"dust_drift_rate"`
}

// DefaultConfig returns the stock morph timing.
func DefaultConfig() Config {
	return Config{
		LerpSpeed:         DefaultLerpSpeed,
		Workers:           1,
		ParallelThreshold: 4096,
		DustDrift:         0.35,
		DustDriftRate:     0.2,
	}
}
