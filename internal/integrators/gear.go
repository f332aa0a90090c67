package integrators

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Derivatives holds position and its first three time derivatives (or the
// rotational analogue).
type Derivatives = [4]r3.Vec

// Gear is the fourth-order Gear predictor-corrector used for particle
// motion. Predict extrapolates every order from the higher ones; Correct
// replaces the second derivative with the freshly computed acceleration
// and feeds the difference back into the other orders with fixed
// coefficients.
type Gear struct {
	dt float64

	a1, a2, a3 float64

	c0, c1, c3 float64
}

func NewGear(dt float64) *Gear {
	g := &Gear{dt: dt}
	g.a1 = dt
	g.a2 = g.a1 * dt / 2
	g.a3 = g.a2 * dt / 3

	g.c0 = 1.0 / 6.0 * (dt * dt / 2)
	g.c1 = 5.0 / 6.0 * (dt / 2)
	g.c3 = 1.0 / 3.0 * (3 / dt)
	return g
}

func (g *Gear) Dt() float64 { return g.dt }

func (g *Gear) Predict(d *Derivatives) {
	d[0] = r3.Add(d[0], r3.Add(r3.Scale(g.a1, d[1]), r3.Add(r3.Scale(g.a2, d[2]), r3.Scale(g.a3, d[3]))))
	d[1] = r3.Add(d[1], r3.Add(r3.Scale(g.a1, d[2]), r3.Scale(g.a2, d[3])))
	d[2] = r3.Add(d[2], r3.Scale(g.a1, d[3]))
}

func (g *Gear) Correct(d *Derivatives, accel r3.Vec) {
	corr := r3.Sub(accel, d[2])
	d[0] = r3.Add(d[0], r3.Scale(g.c0, corr))
	d[1] = r3.Add(d[1], r3.Scale(g.c1, corr))
	d[2] = accel
	d[3] = r3.Add(d[3], r3.Scale(g.c3, corr))
}
