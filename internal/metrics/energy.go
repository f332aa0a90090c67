package metrics

import (
	"github.com/san-kum/demsim/internal/engine"
)

// KineticEnergy is the time-averaged translational plus rotational
// kinetic energy of the mobile particles.
type KineticEnergy struct {
	name    string
	total   float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(e *engine.Engine) {
	for _, p := range e.Particles() {
		k.total += p.KineticEnergy()
	}
	k.samples++
}

func (k *KineticEnergy) Value() float64 {
	if k.samples == 0 {
		return 0
	}
	return k.total / float64(k.samples)
}

func (k *KineticEnergy) Reset() {
	k.total = 0
	k.samples = 0
}
