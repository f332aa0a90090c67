package engine

import (
	"github.com/san-kum/demsim/internal/particle"
	"gonum.org/v1/gonum/spatial/r3"
)

// Atom is one particle in a Snapshot.
type Atom struct {
	ID     int
	Kind   particle.Kind
	Pos    r3.Vec
	Vel    r3.Vec
	Radius float64
}

// Snapshot is a copy of the bed at the end of a step. Plate particles are
// reported in world coordinates: their height includes the plate height
// and their velocity is the plate velocity.
type Snapshot struct {
	Step      int
	Time      float64
	Amplitude float64
	Period    float64
	PlateZ    float64
	PlateVz   float64
	World     World

	Particles []Atom
	Plate     []Atom
}

// Snapshot copies the current state. Plate atoms are included only when
// withPlate is set.
func (e *Engine) Snapshot(withPlate bool) Snapshot {
	s := Snapshot{
		Step:      e.step,
		Time:      e.time,
		Amplitude: e.plate.Amplitude(),
		Period:    e.plate.Period(),
		PlateZ:    e.plate.Z(),
		PlateVz:   e.plate.Vz(),
		World:     e.cfg.World,
		Particles: make([]Atom, len(e.particles)),
	}
	for i, p := range e.particles {
		s.Particles[i] = Atom{ID: p.ID, Kind: particle.Mobile, Pos: p.R[0], Vel: p.R[1], Radius: p.Radius()}
	}

	if withPlate {
		s.Plate = make([]Atom, len(e.base))
		for i, b := range e.base {
			w := particle.Moving{Body: particle.Raised{Body: b, Dz: s.PlateZ}, V: r3.Vec{Z: s.PlateVz}}
			s.Plate[i] = Atom{ID: b.ID, Kind: particle.Plate, Pos: w.Position(), Vel: w.Velocity(), Radius: w.Radius()}
		}
	}
	return s
}

// Heights returns the z coordinate of every mobile particle.
func (s Snapshot) Heights() []float64 {
	h := make([]float64, len(s.Particles))
	for i, a := range s.Particles {
		h[i] = a.Pos.Z
	}
	return h
}
