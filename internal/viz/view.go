package viz

import (
	"math"

	"github.com/san-kum/demsim/internal/engine"
	"gonum.org/v1/gonum/spatial/r3"
)

// Window is the vertical range shown by SideView.
type Window struct {
	ZMin, ZMax float64
}

// WindowFor frames s with the plate at the bottom and headroom times the
// bed thickness above it.
func WindowFor(s engine.Snapshot, headroom float64) Window {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, a := range s.Plate {
		lo = math.Min(lo, a.Pos.Z-a.Radius)
	}
	for _, a := range s.Particles {
		lo = math.Min(lo, a.Pos.Z-a.Radius)
		hi = math.Max(hi, a.Pos.Z+a.Radius)
	}
	if math.IsInf(lo, 0) {
		lo = s.PlateZ
	}
	if math.IsInf(hi, 0) || hi <= lo {
		hi = lo + s.World.Lx/4
	}
	lo -= s.Amplitude
	return Window{ZMin: lo, ZMax: lo + headroom*(hi-lo)}
}

// Fit raises ZMax so every particle of s is in view.
func (w *Window) Fit(s engine.Snapshot) {
	for _, a := range s.Particles {
		w.ZMax = math.Max(w.ZMax, a.Pos.Z+a.Radius)
	}
}

// SideView draws s projected along y: x across the canvas, z upwards.
// It returns the canvas row holding the highest plate pixel, or -1.
func SideView(c *Canvas, s engine.Snapshot, w Window) int {
	c.Clear()
	pw, ph := c.Pixels()
	if s.World.Lx <= 0 || w.ZMax <= w.ZMin {
		return -1
	}
	sx := float64(pw) / s.World.Lx
	sz := float64(ph) / (w.ZMax - w.ZMin)
	px := func(x float64) float64 { return x * sx }
	pz := func(z float64) float64 { return float64(ph-1) - (z-w.ZMin)*sz }

	top := ph
	for _, a := range s.Plate {
		y := pz(a.Pos.Z)
		c.Ellipse(px(a.Pos.X), y, a.Radius*sx, a.Radius*sz)
		top = min(top, int(y-a.Radius*sz))
	}
	for _, a := range s.Particles {
		c.Ellipse(px(a.Pos.X), pz(a.Pos.Z), a.Radius*sx, a.Radius*sz)
	}
	if len(s.Plate) == 0 {
		y := int(pz(s.PlateZ))
		c.Line(0, y, pw-1, y)
		top = y
	}
	if top >= ph {
		return -1
	}
	return max(top, 0) / 4
}

// PerspectiveView draws every atom of s as a dot through cam. The box is
// scaled so its width spans two units around the origin.
func PerspectiveView(c *Canvas, s engine.Snapshot, cam *Camera) {
	c.Clear()
	pw, ph := c.Pixels()
	if s.World.Lx <= 0 {
		return
	}
	k := 2 / s.World.Lx
	centre := r3.Vec{X: s.World.Lx / 2, Y: s.World.Ly / 2, Z: s.PlateZ}
	plot := func(p r3.Vec) {
		if x, y, ok := cam.Project(r3.Scale(k, r3.Sub(p, centre)), pw, ph); ok {
			c.Set(x, y)
		}
	}
	for _, a := range s.Plate {
		plot(a.Pos)
	}
	for _, a := range s.Particles {
		plot(a.Pos)
	}
}
