package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/san-kum/demsim/internal/dynamo"
	"gonum.org/v1/gonum/stat"
)

// Spectrum is a one-sided power spectrum. Freq[k] = k/(n·dt).
type Spectrum struct {
	Freq  []float64
	Power []float64
}

// PowerSpectrum returns the one-sided power of series sampled every dt.
// The mean is removed first so the DC bin only holds numerical residue.
func PowerSpectrum(series []float64, dt float64) (Spectrum, error) {
	n := len(series)
	if n < 2 {
		return Spectrum{}, fmt.Errorf("spectrum of %d samples: %w", n, dynamo.ErrParameterBounds)
	}
	if dt <= 0 || math.IsNaN(dt) {
		return Spectrum{}, fmt.Errorf("sample interval %v: %w", dt, dynamo.ErrParameterBounds)
	}

	mean := stat.Mean(series, nil)
	centred := make([]float64, n)
	for i, v := range series {
		centred[i] = v - mean
	}

	coeffs := fft.FFTReal(centred)
	half := n/2 + 1
	s := Spectrum{Freq: make([]float64, half), Power: make([]float64, half)}
	for k := 0; k < half; k++ {
		a := cmplx.Abs(coeffs[k])
		s.Freq[k] = float64(k) / (float64(n) * dt)
		s.Power[k] = a * a / float64(n)
	}
	return s, nil
}

// DominantFrequency returns the frequency and power of the strongest
// non-DC bin. An empty or flat spectrum gives zeros.
func DominantFrequency(s Spectrum) (float64, float64) {
	best := 0
	for k := 1; k < len(s.Power); k++ {
		if s.Power[k] > s.Power[best] || best == 0 {
			best = k
		}
	}
	if best == 0 || s.Power[best] == 0 {
		return 0, 0
	}
	return s.Freq[best], s.Power[best]
}

// Subharmonic returns the dominant frequency as a fraction of drive. A
// bed following the plate gives 1, a period-doubled bed 0.5.
func Subharmonic(s Spectrum, drive float64) float64 {
	if drive <= 0 {
		return 0
	}
	f, _ := DominantFrequency(s)
	return f / drive
}
