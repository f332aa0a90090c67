package contact

import (
	"math"

	"github.com/san-kum/demsim/internal/dynamo"
	"github.com/san-kum/demsim/internal/particle"
	"gonum.org/v1/gonum/spatial/r3"
)

// Epsilon is the smallest overlap treated as contact.
const Epsilon = 1e-10

// Box is the periodic simulation box. A zero length disables wrapping on
// that axis.
type Box struct {
	Lx, Ly, Lz float64
}

// Contact is the outcome of one overlapping pair evaluation. Force and
// Torque act on the first participant; for particle pairs the second
// receives their negation.
type Contact struct {
	Force  r3.Vec
	Torque r3.Vec
	Normal r3.Vec
	Spring r3.Vec

	Overlap         float64
	NormalForce     float64
	TangentialForce float64
}

// Model evaluates the Hertzian normal law with velocity damping and a
// Coulomb-capped tangential spring.
type Model struct {
	Box Box
	Dt  float64
}

func NewModel(box Box, dt float64) *Model {
	return &Model{Box: box, Dt: dt}
}

type law struct {
	youngs  float64
	poisson float64
	damping float64
	gamma   float64
	mu      float64
}

// Pair evaluates a contact between two mobile particles using the minimum
// image displacement on every axis. Material parameters come from a.
// prev is the spring carried from the previous step and is used only when
// seeded is true.
func (m *Model) Pair(a, b particle.Body, prev r3.Vec, seeded bool) (Contact, bool) {
	pa, pb := a.Position(), b.Position()
	d := r3.Vec{
		X: dynamo.MinImage(pa.X-pb.X, m.Box.Lx),
		Y: dynamo.MinImage(pa.Y-pb.Y, m.Box.Ly),
		Z: dynamo.MinImage(pa.Z-pb.Z, m.Box.Lz),
	}
	r1, r2 := a.Radius(), b.Radius()
	if !overlapCandidate(d, r1+r2) {
		return Contact{}, false
	}

	mat := a.Material()
	l := law{
		youngs:  mat.Youngs,
		poisson: mat.Poisson,
		damping: mat.Damping,
		gamma:   mat.TangentialDamping,
		mu:      mat.Friction,
	}
	dv := r3.Sub(a.Velocity(), b.Velocity())
	spin := r3.Add(r3.Scale(r1, a.AngularVelocity()), r3.Scale(r2, b.AngularVelocity()))
	return m.resolve(d, dv, spin, r1, r2, l, prev, seeded)
}

// Plate evaluates a contact between particle p and plate particle b whose
// stored height is relative to the plate. The plate moves only
// vertically at plateVz and has no spin.
func (m *Model) Plate(p, b particle.Body, plateZ, plateVz float64, prev r3.Vec, seeded bool) (Contact, bool) {
	pp, pb := p.Position(), b.Position()
	d := r3.Vec{
		X: dynamo.MinImage(pp.X-pb.X, m.Box.Lx),
		Y: dynamo.MinImage(pp.Y-pb.Y, m.Box.Ly),
		Z: pp.Z - (plateZ + pb.Z),
	}
	r1, r2 := p.Radius(), b.Radius()
	if !overlapCandidate(d, r1+r2) {
		return Contact{}, false
	}

	mp, mb := p.Material(), b.Material()
	l := law{
		youngs:  harmonic(mp.Youngs, mb.Youngs),
		poisson: 0.5 * (mp.Poisson + mb.Poisson),
		damping: 0.5 * (mp.Damping + mb.Damping),
		gamma:   0.5 * (mp.TangentialDamping + mb.TangentialDamping),
		mu:      mp.Friction,
	}
	dv := r3.Sub(p.Velocity(), r3.Vec{Z: plateVz})
	spin := r3.Scale(r1, p.AngularVelocity())
	return m.resolve(d, dv, spin, r1, r2, l, prev, seeded)
}

func overlapCandidate(d r3.Vec, sum float64) bool {
	return math.Abs(d.X) < sum && math.Abs(d.Y) < sum && math.Abs(d.Z) < sum
}

func harmonic(e1, e2 float64) float64 {
	if e1+e2 == 0 {
		return 0
	}
	return e1 * e2 / (e1 + e2)
}

func (m *Model) resolve(d, dv, spin r3.Vec, r1, r2 float64, l law, prev r3.Vec, seeded bool) (Contact, bool) {
	rr := r3.Norm(d)
	xi := r1 + r2 - rr
	if xi <= Epsilon {
		return Contact{}, false
	}

	// Coincident centres have no direction; push along +z.
	n := r3.Vec{Z: 1}
	if rr > 0 {
		n = r3.Scale(1/rr, d)
	}

	k := 2 * l.youngs * math.Sqrt(r1) / (3 * (1 - l.poisson*l.poisson))
	sqrtXi := math.Sqrt(xi)

	vrel := r3.Sub(dv, r3.Cross(spin, n))
	vt := r3.Sub(vrel, r3.Scale(r3.Dot(vrel, n), n))

	spring := r3.Scale(m.Dt, vt)
	if seeded {
		spring = r3.Add(prev, spring)
	}

	xidot := -r3.Dot(n, dv)
	fn := k*xi*sqrtXi + k*l.damping*sqrtXi*xidot
	if fn < 0 {
		fn = 0
	}

	ft := dynamo.Clamp(-l.gamma*r3.Norm(spring), -l.mu*fn, l.mu*fn)

	var t r3.Vec
	if vtn := r3.Norm(vt); vtn > 0 {
		t = r3.Scale(1/vtn, vt)
	}

	force := r3.Add(r3.Scale(fn, n), r3.Scale(ft, t))
	return Contact{
		Force:           force,
		Torque:          r3.Cross(force, n),
		Normal:          n,
		Spring:          spring,
		Overlap:         xi,
		NormalForce:     fn,
		TangentialForce: ft,
	}, true
}
