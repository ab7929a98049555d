// Package termview renders a running session into a terminal and turns
// mouse and keyboard input into hand samples.
package termview

import (
	"math"

	"github.com/teslashibe/go-evergreen/pkg/particles"
)

// Camera is a perspective camera looking down -Z at the tree.
type Camera struct {
	Base particles.Vec3 // position at zoom 0.5
	FOV  float64        // vertical, degrees

	// CellAspect is a terminal cell's height divided by its width.
	CellAspect float64
}

// DefaultCamera matches the scene camera: (0, 2, 22) with a 45° field.
func DefaultCamera() Camera {
	return Camera{
		Base:       particles.Vec3{X: 0, Y: 2, Z: 22},
		FOV:        45,
		CellAspect: 2,
	}
}

// Distance returns the camera's distance from the tree axis for zoom in
// [0,1]. Zoom 0.5 keeps the base distance; 1 halves it.
func (c Camera) Distance(zoom float64) float64 {
	return c.Base.Z * (1.5 - zoom)
}

// Projector maps scene points to terminal cells for one frame.
type Projector struct {
	cos, sin float64
	dist     float64
	eyeY     float64
	focal    float64
	cx, cy   float64
	aspect   float64
	w, h     int
}

const near = 0.1

// Projector prepares a projection for the given rotation (radians about
// the vertical axis), zoom and screen size.
func (c Camera) Projector(rotation, zoom float64, w, h int) Projector {
	return Projector{
		cos:    math.Cos(rotation),
		sin:    math.Sin(rotation),
		dist:   c.Distance(zoom),
		eyeY:   c.Base.Y,
		focal:  1 / math.Tan(c.FOV*math.Pi/360),
		cx:     float64(w) / 2,
		cy:     float64(h) / 2,
		aspect: c.CellAspect,
		w:      w,
		h:      h,
	}
}

// Project returns the cell for p and its depth. ok is false when the point
// is behind the camera or off screen.
func (p Projector) Project(x, y, z float64) (col, row int, depth float64, ok bool) {
	rx := x*p.cos + z*p.sin
	rz := -x*p.sin + z*p.cos

	depth = p.dist - rz
	if depth < near {
		return 0, 0, 0, false
	}

	scale := p.focal / depth * p.cy
	col = int(math.Round(p.cx + rx*scale*p.aspect))
	row = int(math.Round(p.cy - (y-p.eyeY)*scale))
	if col < 0 || row < 0 || col >= p.w || row >= p.h {
		return 0, 0, 0, false
	}
	return col, row, depth, true
}
