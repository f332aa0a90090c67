// Package plate models the vibrating base under the granular bed.
package plate

import (
	"fmt"
	"math"

	"github.com/san-kum/demsim/internal/dynamo"
)

// Plate follows z(t) = z0 + A sin(ωt) with ω = 2π/T. Height and velocity
// are derived by Update and never set directly.
type Plate struct {
	baseline  float64
	amplitude float64
	period    float64
	omega     float64

	z  float64
	vz float64
}

// New returns a plate at rest at its baseline. A non-positive period is
// rejected.
func New(baseline, amplitude, period float64) (*Plate, error) {
	p := &Plate{baseline: baseline, amplitude: amplitude}
	if err := p.SetPeriod(period); err != nil {
		return nil, err
	}
	p.Update(0)
	return p, nil
}

// Update recomputes height and velocity at simulation time t.
func (p *Plate) Update(t float64) {
	s, c := math.Sincos(p.omega * t)
	p.z = p.baseline + p.amplitude*s
	p.vz = p.amplitude * p.omega * c
}

func (p *Plate) Z() float64         { return p.z }
func (p *Plate) Vz() float64        { return p.vz }
func (p *Plate) Baseline() float64  { return p.baseline }
func (p *Plate) Amplitude() float64 { return p.amplitude }
func (p *Plate) Period() float64    { return p.period }
func (p *Plate) Omega() float64     { return p.omega }

func (p *Plate) SetBaseline(z0 float64) { p.baseline = z0 }
func (p *Plate) SetAmplitude(a float64) { p.amplitude = a }

// SetPeriod changes the forcing period and ω together.
func (p *Plate) SetPeriod(T float64) error {
	if T <= 0 || math.IsNaN(T) || math.IsInf(T, 0) {
		return fmt.Errorf("plate period %v: %w", T, dynamo.ErrParameterBounds)
	}
	p.period = T
	p.omega = 2 * math.Pi / T
	return nil
}

// Acceleration returns the peak plate acceleration in units of g.
func (p *Plate) Acceleration(g float64) float64 {
	if g == 0 {
		return 0
	}
	return p.amplitude * p.omega * p.omega / math.Abs(g)
}

func (p *Plate) GetParams() map[string]float64 {
	return map[string]float64{"amplitude": p.amplitude, "period": p.period, "baseline": p.baseline}
}

func (p *Plate) SetParam(name string, value float64) error {
	switch name {
	case "amplitude":
		p.SetAmplitude(value)
	case "period":
		return p.SetPeriod(value)
	case "baseline":
		p.SetBaseline(value)
	default:
		return fmt.Errorf("unknown plate parameter %q: %w", name, dynamo.ErrParameterBounds)
	}
	return nil
}
