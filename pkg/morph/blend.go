package morph

import (
	"github.com/chewxy/math32"

	"github.com/teslashibe/go-evergreen/pkg/particles"
)

// Factor returns the per-step smoothing factor for an element moving at
// rate over dt seconds, clamped to [0,1]. The clamp keeps a long stall
// from overshooting the endpoint.
func Factor(rate, dt float64) float64 {
	f := rate * dt
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return 1
	default:
		return f
	}
}

// Approach moves pos toward end by the clamped factor for rate and dt.
func Approach(pos, end particles.Vec3, rate, dt float64) particles.Vec3 {
	k := Factor(rate, dt)
	return pos.Add(end.Sub(pos).Mul(k))
}

// blendRange applies the flat-array form of Approach to elements [lo, hi).
// rates holds one multiplier per element.
func blendRange(live, end, rates []float32, speed, dt float32, lo, hi int) {
	for i := lo; i < hi; i++ {
		k := math32.Min(1, speed*rates[i]*dt)
		if k <= 0 {
			continue
		}
		j := i * 3
		live[j] += (end[j] - live[j]) * k
		live[j+1] += (end[j+1] - live[j+1]) * k
		live[j+2] += (end[j+2] - live[j+2]) * k
	}
}
