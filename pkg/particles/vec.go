package particles

import "github.com/golang/geo/r3"

// Vec3 is a point in scene space.
type Vec3 = r3.Vector

// DualPosition holds the two endpoints an element moves between.
type DualPosition struct {
	Chaos  Vec3 `json:"chaos"`
	Target Vec3 `json:"target"`
}

func vecAt(flat []float32, i int) Vec3 {
	j := i * 3
	return Vec3{X: float64(flat[j]), Y: float64(flat[j+1]), Z: float64(flat[j+2])}
}
