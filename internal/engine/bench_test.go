package engine_test

import (
	"math/rand"
	"testing"

	"github.com/san-kum/demsim/internal/engine"
	"github.com/san-kum/demsim/internal/particle"
	"github.com/san-kum/demsim/internal/plate"
	"gonum.org/v1/gonum/spatial/r3"
)

func benchBed(b *testing.B, workers int) *engine.Engine {
	rng := rand.New(rand.NewSource(3))
	var base, mobile []*particle.Particle
	for i := 0; i < 40; i++ {
		for j := 0; j < 40; j++ {
			base = append(base, particle.New(len(base), r3.Vec{X: float64(i), Y: float64(j)}, grain))
			for layer := 0; layer < 3; layer++ {
				pos := r3.Vec{
					X: float64(i) + 0.5 + (rng.Float64()-0.5)*0.05,
					Y: float64(j) + 0.5 + (rng.Float64()-0.5)*0.05,
					Z: 0.7 + float64(layer),
				}
				mobile = append(mobile, particle.New(len(mobile), pos, grain))
			}
		}
	}
	pl, err := plate.New(0, 0.01, 0.05)
	if err != nil {
		b.Fatal(err)
	}
	cfg := engine.Config{
		World:   engine.World{Lx: 40, Ly: 40, Dt: 1e-5, Gravity: r3.Vec{Z: -9.81}},
		Workers: workers,
	}
	e, err := engine.New(cfg, mobile, base, pl)
	if err != nil {
		b.Fatal(err)
	}
	return e
}

func BenchmarkStepSerial(b *testing.B) {
	e := benchBed(b, 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := e.Step(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkStepSharded(b *testing.B) {
	e := benchBed(b, 0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := e.Step(); err != nil {
			b.Fatal(err)
		}
	}
}
