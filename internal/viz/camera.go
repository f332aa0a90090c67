package viz

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera projects points of a unit-scaled scene onto the canvas.
type Camera struct {
	Distance         float64
	RotX, RotY, RotZ float64
	Zoom             float64
}

// NewCamera looks at the bed from slightly above its edge.
func NewCamera() *Camera {
	return &Camera{Distance: 5, RotX: -1.1, Zoom: 1}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// Rotate applies the X, Y then Z rotations to p.
func (c *Camera) Rotate(p r3.Vec) r3.Vec {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	return p
}

// Project maps p to sub-pixel coordinates on a sw×sh canvas and reports
// whether it lands in front of the camera and on the canvas.
func (c *Camera) Project(p r3.Vec, sw, sh int) (int, int, bool) {
	rot := r3.Scale(c.Zoom, c.Rotate(p))
	if rot.Z >= c.Distance-0.1 {
		return 0, 0, false
	}
	scale := c.Distance / (c.Distance - rot.Z) * float64(min(sw, sh)) / 2
	x := int(rot.X*scale) + sw/2
	y := int(-rot.Y*scale) + sh/2
	return x, y, x >= 0 && x < sw && y >= 0 && y < sh
}
