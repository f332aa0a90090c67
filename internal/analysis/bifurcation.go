package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/demsim/internal/dynamo"
	"github.com/san-kum/demsim/internal/engine"
	"github.com/san-kum/demsim/internal/metrics"
)

// Factory builds a fresh engine for one run of an analysis.
type Factory func() (*engine.Engine, error)

// BifurcationPoint holds the stroboscopic mean bed heights recorded at
// one parameter value, measured from the plate baseline.
type BifurcationPoint struct {
	Param  float64
	Values []float64
}

// Distinct returns the values that differ from every earlier one by more
// than tol, sorted.
func (b BifurcationPoint) Distinct(tol float64) []float64 {
	vs := append([]float64(nil), b.Values...)
	sort.Float64s(vs)
	out := vs[:0]
	for _, v := range vs {
		if len(out) == 0 || v-out[len(out)-1] > tol {
			out = append(out, v)
		}
	}
	return out
}

// CycleSteps is the number of steps in one plate period, at least one.
func CycleSteps(e *engine.Engine) int {
	n := int(math.Round(e.Plate().Period() / e.World().Dt))
	return max(n, 1)
}

// BifurcationDiagram sets the plate parameter param to each value on a
// fresh engine, discards transient drive cycles and then records the mean
// bed height once per cycle for record cycles.
func BifurcationDiagram(ctx context.Context, build Factory, param string, values []float64, transient, record int) ([]BifurcationPoint, error) {
	if record < 1 || transient < 0 {
		return nil, fmt.Errorf("cycles transient=%d record=%d: %w", transient, record, dynamo.ErrParameterBounds)
	}
	out := make([]BifurcationPoint, 0, len(values))
	for _, v := range values {
		e, err := build()
		if err != nil {
			return out, err
		}
		var tunable dynamo.Configurable = e.Plate()
		if err := tunable.SetParam(param, v); err != nil {
			return out, err
		}

		cycle := CycleSteps(e)
		if err := e.Run(ctx, transient*cycle); err != nil {
			return out, err
		}
		pt := BifurcationPoint{Param: v, Values: make([]float64, 0, record)}
		for range record {
			if err := e.Run(ctx, cycle); err != nil {
				return out, err
			}
			pt.Values = append(pt.Values, metrics.Take(e).MeanHeight-e.Plate().Baseline())
		}
		out = append(out, pt)
	}
	return out, nil
}

// BifurcationToASCII draws one column per parameter value.
func BifurcationToASCII(data []BifurcationPoint, width, height int) string {
	var pts []Point
	for i, p := range data {
		for _, v := range p.Values {
			pts = append(pts, Point{X: float64(i), Y: v})
		}
	}
	c := newCanvas(width, height, pts, 0)
	if c == nil {
		return ""
	}
	for _, pt := range pts {
		c.set(pt.X, pt.Y, '•')
	}
	return c.String()
}
