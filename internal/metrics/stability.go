package metrics

import (
	"github.com/san-kum/demsim/internal/engine"
)

// Stability is the fraction of observed steps in which every particle
// stayed below a ceiling height above the plate baseline.
type Stability struct {
	name       string
	ceiling    float64
	violations int
	samples    int
}

func NewStability(ceiling float64) *Stability {
	return &Stability{
		name:    "stability",
		ceiling: ceiling,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(e *engine.Engine) {
	s.samples++
	for _, h := range heights(e) {
		if h > s.ceiling {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
