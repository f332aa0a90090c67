package analysis

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/demsim/internal/dynamo"
	"github.com/san-kum/demsim/internal/engine"
	"github.com/san-kum/demsim/internal/metrics"
	"github.com/san-kum/demsim/internal/particle"
	"github.com/san-kum/demsim/internal/plate"
	"gonum.org/v1/gonum/spatial/r3"
)

func sine(freq, offset, dt float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = offset + math.Sin(2*math.Pi*freq*float64(i)*dt)
	}
	return out
}

func TestPowerSpectrum(t *testing.T) {
	tests := []struct {
		name string
		freq float64
		dt   float64
		n    int
	}{
		{"5 Hz", 5, 0.01, 200},
		{"12.5 Hz power of two", 12.5, 0.01, 256},
		{"odd length", 2, 0.05, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := PowerSpectrum(sine(tt.freq, 3, tt.dt, tt.n), tt.dt)
			if err != nil {
				t.Fatal(err)
			}
			if len(s.Freq) != tt.n/2+1 {
				t.Fatalf("got %d bins, want %d", len(s.Freq), tt.n/2+1)
			}
			if s.Power[0] > 1e-9 {
				t.Errorf("DC power %v after mean removal", s.Power[0])
			}
			f, p := DominantFrequency(s)
			if math.Abs(f-tt.freq) > 1e-9 {
				t.Errorf("dominant frequency = %v, want %v", f, tt.freq)
			}
			if p <= 0 {
				t.Errorf("dominant power = %v", p)
			}
		})
	}
}

func TestPowerSpectrumErrors(t *testing.T) {
	if _, err := PowerSpectrum([]float64{1}, 0.1); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("single sample: %v", err)
	}
	if _, err := PowerSpectrum([]float64{1, 2, 3}, 0); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("zero dt: %v", err)
	}
}

func TestDominantFrequencyFlat(t *testing.T) {
	s, err := PowerSpectrum([]float64{2, 2, 2, 2}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if f, p := DominantFrequency(s); f != 0 || p != 0 {
		t.Errorf("flat series gave %v, %v", f, p)
	}
}

func TestSubharmonic(t *testing.T) {
	s, err := PowerSpectrum(sine(5, 0, 0.01, 400), 0.01)
	if err != nil {
		t.Fatal(err)
	}
	if r := Subharmonic(s, 10); math.Abs(r-0.5) > 1e-9 {
		t.Errorf("Subharmonic = %v, want 0.5", r)
	}
	if r := Subharmonic(s, 0); r != 0 {
		t.Errorf("zero drive gave %v", r)
	}
}

func samples(n int, dt float64) []metrics.Sample {
	out := make([]metrics.Sample, n)
	for i := range out {
		tm := float64(i) * dt
		out[i] = metrics.Sample{Time: tm, MeanHeight: math.Sin(tm), PlateZ: math.Sin(2 * math.Pi * tm)}
	}
	return out
}

func TestPhasePortrait(t *testing.T) {
	ss := samples(1000, 1e-3)
	p := NewPhasePortrait(ss)
	if len(p.Points) != len(ss) {
		t.Fatalf("got %d points", len(p.Points))
	}
	for i := 1; i < len(ss)-1; i++ {
		if want := math.Cos(ss[i].Time); math.Abs(p.Points[i].Y-want) > 1e-6 {
			t.Fatalf("rate at %v = %v, want %v", ss[i].Time, p.Points[i].Y, want)
		}
	}
	if got := NewPhasePortrait(ss[:1]); len(got.Points) != 0 {
		t.Errorf("single sample gave %d points", len(got.Points))
	}
}

func TestSection(t *testing.T) {
	s := NewSection(samples(300, 0.01), 0)
	if len(s.Points) != 2 {
		t.Fatalf("got %d crossings, want 2", len(s.Points))
	}
}

func TestASCII(t *testing.T) {
	out := NewPhasePortrait(samples(200, 0.05)).ASCII(40, 12)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 12 {
		t.Errorf("got %d lines", len(lines))
	}
	if !strings.ContainsRune(out, '•') || !strings.ContainsRune(out, '─') {
		t.Errorf("missing points or axis:\n%s", out)
	}
	if got := (&PhasePortrait{}).ASCII(10, 10); got != "no points" {
		t.Errorf("empty portrait = %q", got)
	}
}

func TestDistinct(t *testing.T) {
	b := BifurcationPoint{Values: []float64{2, 1.0005, 1}}
	got := b.Distinct(1e-3)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Distinct = %v", got)
	}
	if len(b.Values) != 3 || b.Values[0] != 2 {
		t.Errorf("Distinct modified values: %v", b.Values)
	}
}

var grain = particle.Props{Radius: 0.5, Mass: 1, Material: particle.Material{Youngs: 1e5, Poisson: 0.3}}

func pair() Factory {
	return func() (*engine.Engine, error) {
		pl, err := plate.New(0, 0, 0.01)
		if err != nil {
			return nil, err
		}
		ps := []*particle.Particle{
			particle.New(0, r3.Vec{X: 2, Y: 5, Z: 3}, grain),
			particle.New(1, r3.Vec{X: 7, Y: 5, Z: 3}, grain),
		}
		w := engine.World{Lx: 10, Ly: 10, Dt: 1e-4, Gravity: r3.Vec{Z: -9.81}}
		return engine.New(engine.Config{World: w}, ps, nil, pl)
	}
}

func TestBifurcationDiagram(t *testing.T) {
	var last *engine.Engine
	build := func() (*engine.Engine, error) {
		e, err := pair()()
		last = e
		return e, err
	}
	data, err := BifurcationDiagram(context.Background(), build, "amplitude", []float64{0.1, 0.2}, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 2 {
		t.Fatalf("got %d points", len(data))
	}
	for i, want := range []float64{0.1, 0.2} {
		if data[i].Param != want || len(data[i].Values) != 3 {
			t.Errorf("point %d = %+v", i, data[i])
		}
	}
	if last.Plate().Amplitude() != 0.2 {
		t.Errorf("amplitude not applied: %v", last.Plate().Amplitude())
	}
	if last.StepNumber() != 4*CycleSteps(last) {
		t.Errorf("ran %d steps", last.StepNumber())
	}
	// free fall: every recorded height is below the previous one
	for _, p := range data {
		for j := 1; j < len(p.Values); j++ {
			if p.Values[j] >= p.Values[j-1] {
				t.Errorf("heights not falling: %v", p.Values)
			}
		}
	}
	if out := BifurcationToASCII(data, 20, 8); !strings.ContainsRune(out, '•') {
		t.Errorf("empty diagram:\n%s", out)
	}

	_, err = BifurcationDiagram(context.Background(), build, "frequency", []float64{1}, 0, 1)
	if !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("unknown parameter: %v", err)
	}
	_, err = BifurcationDiagram(context.Background(), build, "amplitude", []float64{1}, 0, 0)
	if !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("zero record cycles: %v", err)
	}
}

func TestDivergence(t *testing.T) {
	tests := []struct {
		name  string
		delta float64
		want  float64
	}{
		{"identical", 0, 0},
		{"nudged", 1e-3, 1e-3 / math.Sqrt2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Divergence(context.Background(), pair(), tt.delta, 100, 10)
			if err != nil {
				t.Fatal(err)
			}
			if len(res.Separation) != 10 || len(res.Time) != 10 {
				t.Fatalf("got %d samples", len(res.Separation))
			}
			for _, s := range res.Separation {
				if math.Abs(s-tt.want) > 1e-12 {
					t.Errorf("separation = %v, want %v", s, tt.want)
				}
			}
			if math.Abs(res.Rate) > 1e-6 {
				t.Errorf("rate of free grains = %v", res.Rate)
			}
		})
	}

	if _, err := Divergence(context.Background(), pair(), 1, 0, 1); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("zero steps: %v", err)
	}
}
