// Package metrics reduces engine state to scalar observables and samples
// them into a time series.
package metrics

import (
	"github.com/san-kum/demsim/internal/engine"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type Metric interface {
	Name() string
	Observe(e *engine.Engine)
	Value() float64
	Reset()
}

// Sample is one row of the observable series.
type Sample struct {
	Time          float64 `json:"time"`
	PlateZ        float64 `json:"plate_z"`
	MeanHeight    float64 `json:"mean_height"`
	KineticEnergy float64 `json:"kinetic_energy"`
	Contacts      float64 `json:"contacts"`
}

// Take reduces the current engine state to a Sample.
func Take(e *engine.Engine) Sample {
	ps := e.Particles()
	heights := make([]float64, len(ps))
	ke := make([]float64, len(ps))
	for i, p := range ps {
		heights[i] = p.R[0].Z
		ke[i] = p.KineticEnergy()
	}
	pairs, _ := e.Contacts()

	s := Sample{Time: e.Time(), PlateZ: e.Plate().Z(), KineticEnergy: floats.Sum(ke)}
	if len(ps) > 0 {
		s.MeanHeight = stat.Mean(heights, nil)
		s.Contacts = 2 * float64(pairs) / float64(len(ps))
	}
	return s
}

// Sampler records a Sample and feeds every metric each Every steps. It
// implements engine.Observer.
type Sampler struct {
	Every   int
	Samples []Sample
	metrics []Metric
}

func NewSampler(every int, ms ...Metric) *Sampler {
	if every < 1 {
		every = 1
	}
	return &Sampler{Every: every, metrics: ms}
}

func (s *Sampler) OnStep(e *engine.Engine) error {
	if e.StepNumber()%s.Every != 0 {
		return nil
	}
	s.Samples = append(s.Samples, Take(e))
	for _, m := range s.metrics {
		m.Observe(e)
	}
	return nil
}

func (s *Sampler) Metrics() []Metric { return s.metrics }

// Values returns the current value of every metric by name.
func (s *Sampler) Values() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Column extracts one field of the samples.
func Column(samples []Sample, field func(Sample) float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = field(s)
	}
	return out
}

// Default returns the standard metric set.
func Default(ceiling float64) []Metric {
	return []Metric{NewKineticEnergy(), NewMeanHeight(), NewHeightSpread(), NewContacts(), NewStability(ceiling)}
}
