package particles

import (
	"math"
	"math/rand/v2"
)

// goldenAngle spaces consecutive spiral points so none line up vertically.
var goldenAngle = math.Pi * (3 - math.Sqrt(5))

// Ornament is one individually held element: a gift, a bauble or a light.
// All fields are fixed at generation.
type Ornament struct {
	Position    DualPosition `json:"position"`
	Color       Color        `json:"color"`
	Scale       float64      `json:"scale"`
	Kind        OrnamentKind `json:"kind"`
	SpeedOffset float64      `json:"speed_offset"` // in [0,1)
}

// GenerateOrnaments places count records on a golden-angle spiral over the
// cone surface, bottom to top. Kinds are drawn from mix.
func GenerateOrnaments(count int, shape Shape, mix KindMix, rng *rand.Rand) ([]Ornament, error) {
	if count <= 0 {
		return nil, Invalid("ornament_count", float64(count), "must be > 0")
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}

	scatter := float32(shape.Scatter())
	out := make([]Ornament, count)

	for i := range out {
		kind := mix.pick(rng)
		spec := kind.Spec()

		// Lateral area shrinks linearly toward the tip, so the square root
		// keeps spacing even along the surface.
		u := (float64(i) + 0.5) / float64(count)
		t := 1 - math.Sqrt(1-u)
		rad := shape.Radius * (1 - t) * spec.Inset
		theta := float64(i)*goldenAngle + (rng.Float64()-0.5)*0.3

		cx, cy, cz := inSphere(rng, scatter)

		out[i] = Ornament{
			Position: DualPosition{
				Chaos: Vec3{X: float64(cx), Y: float64(cy), Z: float64(cz)},
				Target: Vec3{
					X: rad * math.Cos(theta),
					Y: -shape.Height/2 + t*shape.Height,
					Z: rad * math.Sin(theta),
				},
			},
			Color:       spec.Palette[rng.IntN(len(spec.Palette))],
			Scale:       spec.ScaleMin + rng.Float64()*(spec.ScaleMax-spec.ScaleMin),
			Kind:        kind,
			SpeedOffset: rng.Float64(),
		}
	}

	return out, nil
}
