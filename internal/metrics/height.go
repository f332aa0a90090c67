package metrics

import (
	"github.com/san-kum/demsim/internal/engine"
	"gonum.org/v1/gonum/stat"
)

func heights(e *engine.Engine) []float64 {
	ps := e.Particles()
	h := make([]float64, len(ps))
	for i, p := range ps {
		h[i] = p.R[0].Z - e.Plate().Baseline()
	}
	return h
}

// MeanHeight is the time-averaged mean particle height above the plate
// baseline.
type MeanHeight struct {
	name    string
	sum     float64
	samples int
}

func NewMeanHeight() *MeanHeight { return &MeanHeight{name: "mean_height"} }

func (m *MeanHeight) Name() string { return m.name }

func (m *MeanHeight) Observe(e *engine.Engine) {
	h := heights(e)
	if len(h) == 0 {
		return
	}
	m.sum += stat.Mean(h, nil)
	m.samples++
}

func (m *MeanHeight) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanHeight) Reset() {
	m.sum = 0
	m.samples = 0
}

// HeightSpread is the time-averaged standard deviation of particle
// heights, a measure of how far the bed has expanded.
type HeightSpread struct {
	name    string
	sum     float64
	samples int
}

func NewHeightSpread() *HeightSpread { return &HeightSpread{name: "height_spread"} }

func (s *HeightSpread) Name() string { return s.name }

func (s *HeightSpread) Observe(e *engine.Engine) {
	h := heights(e)
	if len(h) < 2 {
		return
	}
	s.sum += stat.StdDev(h, nil)
	s.samples++
}

func (s *HeightSpread) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.sum / float64(s.samples)
}

func (s *HeightSpread) Reset() {
	s.sum = 0
	s.samples = 0
}
