package particles

import (
	"math/rand/v2"

	"github.com/chewxy/math32"
)

// FoliageBatch stores a large population as three parallel flat arrays,
// three float32 components per element. Index i addresses the same
// element in all three arrays.
type FoliageBatch struct {
	Chaos  []float32
	Target []float32
	Colors []float32
}

// Len returns the element count.
func (b *FoliageBatch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Chaos) / 3
}

// Validate checks the parallel-array invariant.
func (b *FoliageBatch) Validate() error {
	if len(b.Chaos)%3 != 0 {
		return Invalid("foliage.chaos", float64(len(b.Chaos)), "length not a multiple of 3")
	}
	if len(b.Target) != len(b.Chaos) {
		return Invalid("foliage.target", float64(len(b.Target)), "length differs from chaos")
	}
	if len(b.Colors) != len(b.Chaos) {
		return Invalid("foliage.colors", float64(len(b.Colors)), "length differs from chaos")
	}
	return nil
}

// ChaosAt returns the chaos endpoint of element i.
func (b *FoliageBatch) ChaosAt(i int) Vec3 {
	return vecAt(b.Chaos, i)
}

// TargetAt returns the formed endpoint of element i.
func (b *FoliageBatch) TargetAt(i int) Vec3 {
	return vecAt(b.Target, i)
}

func newBatch(count int) *FoliageBatch {
	return &FoliageBatch{
		Chaos:  make([]float32, count*3),
		Target: make([]float32, count*3),
		Colors: make([]float32, count*3),
	}
}

// GenerateFoliage fills a cone volume with needles. The formed endpoint is
// volume-uniform inside the cone; the chaos endpoint is uniform inside the
// scatter sphere.
func GenerateFoliage(count int, shape Shape, rng *rand.Rand) (*FoliageBatch, error) {
	if count <= 0 {
		return nil, Invalid("foliage_count", float64(count), "must be > 0")
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}

	b := newBatch(count)
	h := float32(shape.Height)
	r := float32(shape.Radius)
	scatter := float32(shape.Scatter())

	for i := 0; i < count; i++ {
		j := i * 3

		// Fraction of height from the base; the cube root keeps density
		// uniform as the cross-section shrinks toward the tip.
		t := 1 - math32.Pow(rng.Float32(), 1.0/3.0)
		rad := r * (1 - t) * math32.Sqrt(rng.Float32())
		theta := rng.Float32() * 2 * math32.Pi

		b.Target[j] = rad * math32.Cos(theta)
		b.Target[j+1] = -h/2 + t*h
		b.Target[j+2] = rad * math32.Sin(theta)

		cx, cy, cz := inSphere(rng, scatter)
		b.Chaos[j], b.Chaos[j+1], b.Chaos[j+2] = cx, cy, cz

		c := foliageColor(rng.Float64(), rng.Float64())
		b.Colors[j], b.Colors[j+1], b.Colors[j+2] = float32(c.R), float32(c.G), float32(c.B)
	}

	return b, nil
}

// GenerateDust scatters ambient motes. Both endpoints are dispersed: the
// formed endpoint hugs the tree loosely, the chaos endpoint spreads wider.
func GenerateDust(count int, shape Shape, rng *rand.Rand) (*FoliageBatch, error) {
	if count < 0 {
		return nil, Invalid("dust_count", float64(count), "must be >= 0")
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}

	b := newBatch(count)
	near := float32(shape.Height * 0.75)
	far := float32(shape.Scatter() * 1.2)

	for i := 0; i < count; i++ {
		j := i * 3
		b.Target[j], b.Target[j+1], b.Target[j+2] = inSphere(rng, near)
		b.Chaos[j], b.Chaos[j+1], b.Chaos[j+2] = inSphere(rng, far)

		c := GoldDeep.BlendLab(WhiteWarm, rng.Float64())
		b.Colors[j], b.Colors[j+1], b.Colors[j+2] = float32(c.R), float32(c.G), float32(c.B)
	}

	return b, nil
}

// inSphere draws a point uniformly inside a sphere of the given radius.
func inSphere(rng *rand.Rand, radius float32) (x, y, z float32) {
	cosPhi := 2*rng.Float32() - 1
	sinPhi := math32.Sqrt(1 - cosPhi*cosPhi)
	theta := rng.Float32() * 2 * math32.Pi
	rad := radius * math32.Pow(rng.Float32(), 1.0/3.0)
	return rad * sinPhi * math32.Cos(theta), rad * cosPhi, rad * sinPhi * math32.Sin(theta)
}
