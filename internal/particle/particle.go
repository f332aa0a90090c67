// Package particle defines the spherical grain record shared by the
// mobile bed and the plate.
package particle

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Material holds the contact parameters of one particle population.
type Material struct {
	Youngs            float64 `yaml:"youngs" json:"youngs"`
	Poisson           float64 `yaml:"poisson" json:"poisson"`
	Damping           float64 `yaml:"damping" json:"damping"`
	Friction          float64 `yaml:"friction" json:"friction"`
	TangentialDamping float64 `yaml:"tangential_damping" json:"tangential_damping"`
}

// Props describes a particle population: geometry, mass and material.
type Props struct {
	Radius   float64
	Mass     float64
	Material Material
}

// Kind tags a particle in trajectory output.
type Kind int

const (
	Mobile Kind = iota
	Plate
)

// Body is the read-only view the contact model needs of a participant.
type Body interface {
	Position() r3.Vec
	Velocity() r3.Vec
	AngularVelocity() r3.Vec
	Radius() float64
	Material() Material
}

// Particle is a sphere with fourth-order translational and rotational
// derivative state. R[0] is position, R[1] velocity, R[2] acceleration and
// R[3] its time derivative; W holds the same orders for rotation with
// W[1] the angular velocity.
type Particle struct {
	ID   int
	Kind Kind

	R [4]r3.Vec
	W [4]r3.Vec

	Force  r3.Vec
	Torque r3.Vec

	radius   float64
	mass     float64
	inertia  float64
	material Material
}

// New places a particle at rest at pos.
func New(id int, pos r3.Vec, props Props) *Particle {
	p := &Particle{
		ID:       id,
		radius:   props.Radius,
		mass:     props.Mass,
		material: props.Material,
	}
	p.R[0] = pos
	p.inertia = 0.4 * props.Mass * props.Radius * props.Radius
	return p
}

func (p *Particle) Position() r3.Vec        { return p.R[0] }
func (p *Particle) Velocity() r3.Vec        { return p.R[1] }
func (p *Particle) AngularVelocity() r3.Vec { return p.W[1] }
func (p *Particle) Radius() float64         { return p.radius }
func (p *Particle) Mass() float64           { return p.mass }
func (p *Particle) Inertia() float64        { return p.inertia }
func (p *Particle) Material() Material      { return p.material }

// ResetAccumulators zeroes force and torque ahead of a force pass.
func (p *Particle) ResetAccumulators() {
	p.Force = r3.Vec{}
	p.Torque = r3.Vec{}
}

func (p *Particle) AddForce(f r3.Vec)  { p.Force = r3.Add(p.Force, f) }
func (p *Particle) AddTorque(t r3.Vec) { p.Torque = r3.Add(p.Torque, t) }

// Lower shifts the particle vertically by -dz. Used for dimple carving.
func (p *Particle) Lower(dz float64) {
	p.R[0].Z -= dz
}

// KineticEnergy returns translational plus rotational kinetic energy.
func (p *Particle) KineticEnergy() float64 {
	return 0.5*p.mass*r3.Norm2(p.R[1]) + 0.5*p.inertia*r3.Norm2(p.W[1])
}

// Moving wraps a body and substitutes its velocity. Plate particles are
// stored at rest and take the plate's vertical velocity this way.
type Moving struct {
	Body
	V r3.Vec
}

func (m Moving) Velocity() r3.Vec { return m.V }

// Raised wraps a body and lifts its position by Dz.
type Raised struct {
	Body
	Dz float64
}

func (r Raised) Position() r3.Vec {
	p := r.Body.Position()
	p.Z += r.Dz
	return p
}
