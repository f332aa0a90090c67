package dynamo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// State is one flat sample row (time series entry, metric sample).
type State []float64

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MinImage maps a displacement onto [-L/2, L/2) for a periodic axis of
// length L. A non-positive L disables wrapping.
func MinImage(d, L float64) float64 {
	if L <= 0 || math.IsInf(d, 0) {
		return d
	}
	if math.Abs(d) > 2*L {
		d = math.Mod(d, L)
	}
	for d < -L/2 {
		d += L
	}
	for d >= L/2 {
		d -= L
	}
	return d
}

// Wrap maps a coordinate into [0, L).
func Wrap(x, L float64) float64 {
	if L <= 0 || math.IsInf(x, 0) {
		return x
	}
	if math.Abs(x) > 2*L {
		x = math.Mod(x, L)
	}
	for x < 0 {
		x += L
	}
	for x >= L {
		x -= L
	}
	return x
}

// Finite reports whether every component of v is a real number.
func Finite(v r3.Vec) bool {
	return State{v.X, v.Y, v.Z}.IsValid()
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Configurable is implemented by components with runtime-tunable
// parameters.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
