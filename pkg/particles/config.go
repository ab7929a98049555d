package particles

// Default population sizes and tree dimensions.
const (
	DefaultFoliageCount  = 12000
	DefaultOrnamentCount = 400
	DefaultLightCount    = 300
	DefaultDustCount     = 500

	DefaultTreeHeight = 14.0
	DefaultTreeRadius = 5.5
)

// Shape describes the FORMED silhouette and the CHAOS bounding volume.
// The tree stands on the Y axis with its base at -Height/2 and its tip
// at +Height/2.
type Shape struct {
	Height float64 `toml:"height" json:"height"`
	Radius float64 `toml:"radius" json:"radius"`

	// ChaosRadius bounds the scattered volume. Zero means 1.1 * Height.
	ChaosRadius float64 `toml:"chaos_radius" json:"chaos_radius"`
}

// Validate checks that the shape parameters are positive.
func (s Shape) Validate() error {
	if s.Height <= 0 {
		return Invalid("tree_height", s.Height, "must be > 0")
	}
	if s.Radius <= 0 {
		return Invalid("tree_radius", s.Radius, "must be > 0")
	}
	if s.ChaosRadius < 0 {
		return Invalid("chaos_radius", s.ChaosRadius, "must be >= 0")
	}
	return nil
}

// Scatter returns the effective CHAOS radius.
func (s Shape) Scatter() float64 {
	if s.ChaosRadius > 0 {
		return s.ChaosRadius
	}
	return s.Height * 1.1
}

// Config holds the population counts, shape and seed for one session.
type Config struct {
	FoliageCount  int   `toml:"foliage_count" json:"foliage_count"`
	OrnamentCount int   `toml:"ornament_count" json:"ornament_count"`
	LightCount    int   `toml:"light_count" json:"light_count"`
	DustCount     int   `toml:"dust_count" json:"dust_count"` // 0 disables dust
	Shape         Shape `toml:"shape" json:"shape"`

	// Seed makes generation reproducible. Zero draws a time-based seed.
	Seed uint64 `toml:"seed" json:"seed"`
}

// DefaultConfig returns the stock tree.
func DefaultConfig() Config {
	return Config{
		FoliageCount:  DefaultFoliageCount,
		OrnamentCount: DefaultOrnamentCount,
		LightCount:    DefaultLightCount,
		DustCount:     DefaultDustCount,
		Shape: Shape{
			Height: DefaultTreeHeight,
			Radius: DefaultTreeRadius,
		},
	}
}

// Validate reports the first non-positive count or shape parameter.
func (c Config) Validate() error {
	if c.FoliageCount <= 0 {
		return Invalid("foliage_count", float64(c.FoliageCount), "must be > 0")
	}
	if c.OrnamentCount <= 0 {
		return Invalid("ornament_count", float64(c.OrnamentCount), "must be > 0")
	}
	if c.LightCount <= 0 {
		return Invalid("light_count", float64(c.LightCount), "must be > 0")
	}
	if c.DustCount < 0 {
		return Invalid("dust_count", float64(c.DustCount), "must be >= 0")
	}
	return c.Shape.Validate()
}
