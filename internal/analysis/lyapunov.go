package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/demsim/internal/dynamo"
	"github.com/san-kum/demsim/internal/engine"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// DivergenceResult is the separation history of two nearly identical beds.
type DivergenceResult struct {
	Time       []float64
	Separation []float64
	// Rate is the slope of ln(separation) against time, a finite-time
	// estimate of the largest Lyapunov exponent of the bed.
	Rate float64
}

// Divergence builds two beds with build, nudges the first grain of the
// second one by delta along x and advances both for steps steps, sampling
// the RMS position separation every every steps.
func Divergence(ctx context.Context, build Factory, delta float64, steps, every int) (DivergenceResult, error) {
	var res DivergenceResult
	if steps < 1 || every < 1 {
		return res, fmt.Errorf("steps=%d every=%d: %w", steps, every, dynamo.ErrParameterBounds)
	}
	a, err := build()
	if err != nil {
		return res, err
	}
	b, err := build()
	if err != nil {
		return res, err
	}
	if len(a.Particles()) == 0 || len(a.Particles()) != len(b.Particles()) {
		return res, fmt.Errorf("beds of %d and %d grains: %w", len(a.Particles()), len(b.Particles()), dynamo.ErrInvalidState)
	}
	nudged := b.Particles()[0]
	nudged.R[0].X = dynamo.Wrap(nudged.R[0].X+delta, b.World().Lx)

	for done := 0; done < steps; done += every {
		n := min(every, steps-done)
		if err := a.Run(ctx, n); err != nil {
			return res, err
		}
		if err := b.Run(ctx, n); err != nil {
			return res, err
		}
		res.Time = append(res.Time, a.Time())
		res.Separation = append(res.Separation, separation(a, b))
	}

	var ts, logs []float64
	for i, s := range res.Separation {
		if s > 0 {
			ts = append(ts, res.Time[i])
			logs = append(logs, math.Log(s))
		}
	}
	if len(ts) >= 2 {
		_, res.Rate = stat.LinearRegression(ts, logs, nil, false)
	}
	return res, nil
}

func separation(a, b *engine.Engine) float64 {
	w := a.World()
	pa, pb := a.Particles(), b.Particles()
	sum := 0.0
	for i := range pa {
		d := r3.Sub(pb[i].R[0], pa[i].R[0])
		dx := dynamo.MinImage(d.X, w.Lx)
		dy := dynamo.MinImage(d.Y, w.Ly)
		sum += dx*dx + dy*dy + d.Z*d.Z
	}
	return math.Sqrt(sum / float64(len(pa)))
}
