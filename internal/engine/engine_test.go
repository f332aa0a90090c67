package engine_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/demsim/internal/dynamo"
	"github.com/san-kum/demsim/internal/engine"
	"github.com/san-kum/demsim/internal/particle"
	"github.com/san-kum/demsim/internal/plate"
	"gonum.org/v1/gonum/spatial/r3"
)

var grain = particle.Props{
	Radius: 0.5,
	Mass:   1,
	Material: particle.Material{
		Youngs:            1e5,
		Poisson:           0.3,
		Friction:          0.5,
		TangentialDamping: 10,
	},
}

func world(dt float64, g float64) engine.Config {
	return engine.Config{World: engine.World{Lx: 10, Ly: 10, Dt: dt, Gravity: r3.Vec{Z: -g}}}
}

func flatPlate() *plate.Plate {
	pl, err := plate.New(0, 0, 1)
	Expect(err).NotTo(HaveOccurred())
	return pl
}

func layeredBed(seed int64) ([]*particle.Particle, []*particle.Particle) {
	rng := rand.New(rand.NewSource(seed))
	jitter := func() float64 { return (rng.Float64() - 0.5) * 0.1 }

	var base, mobile []*particle.Particle
	for i := 0; i < 12; i++ {
		for j := 0; j < 12; j++ {
			base = append(base, particle.New(len(base), r3.Vec{X: float64(i), Y: float64(j)}, grain))
		}
	}
	for layer := 0; layer < 2; layer++ {
		for i := 0; i < 12; i++ {
			for j := 0; j < 12; j++ {
				pos := r3.Vec{
					X: float64(i) + 0.5 + jitter(),
					Y: float64(j) + 0.5 + jitter(),
					Z: 0.66 + float64(layer) + jitter(),
				}
				mobile = append(mobile, particle.New(len(mobile), pos, grain))
			}
		}
	}
	return mobile, base
}

var _ = Describe("Engine", func() {
	Describe("construction", func() {
		It("rejects a non-positive time step", func() {
			_, err := engine.New(world(0, 9.81), nil, nil, flatPlate())
			Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
		})

		It("requires a plate", func() {
			_, err := engine.New(world(1e-4, 9.81), nil, nil, nil)
			Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
		})

		It("rejects duplicate particle ids", func() {
			ps := []*particle.Particle{
				particle.New(3, r3.Vec{X: 1, Y: 1, Z: 1}, grain),
				particle.New(3, r3.Vec{X: 4, Y: 4, Z: 1}, grain),
			}
			_, err := engine.New(world(1e-4, 9.81), ps, nil, flatPlate())
			Expect(errors.Is(err, dynamo.ErrInvalidState)).To(BeTrue())
		})

		It("rejects massless particles", func() {
			props := grain
			props.Mass = 0
			ps := []*particle.Particle{particle.New(0, r3.Vec{X: 1, Y: 1, Z: 1}, props)}
			_, err := engine.New(world(1e-4, 9.81), ps, nil, flatPlate())
			Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
		})
	})

	Describe("a free particle", func() {
		It("falls under gravity", func() {
			p := particle.New(0, r3.Vec{X: 5, Y: 5, Z: 5}, grain)
			e, err := engine.New(world(1e-4, 9.81), []*particle.Particle{p}, nil, flatPlate())
			Expect(err).NotTo(HaveOccurred())

			Expect(e.Run(context.Background(), 10000)).To(Succeed())

			Expect(e.Time()).To(BeNumerically("~", 1.0, 1e-9))
			Expect(e.StepNumber()).To(Equal(10000))
			Expect(p.R[0].Z).To(BeNumerically("~", 5-0.5*9.81, 1e-3))
			Expect(p.R[1].Z).To(BeNumerically("~", -9.81, 1e-3))
			Expect(p.R[0].X).To(Equal(5.0))
		})

		It("wraps across the periodic boundary", func() {
			p := particle.New(0, r3.Vec{X: 9.99, Y: 0.05, Z: 5}, grain)
			p.R[1] = r3.Vec{X: 1, Y: -1}
			e, err := engine.New(world(1e-3, 0), []*particle.Particle{p}, nil, flatPlate())
			Expect(err).NotTo(HaveOccurred())

			Expect(e.Run(context.Background(), 100)).To(Succeed())

			Expect(p.R[0].X).To(BeNumerically("~", 0.09, 1e-9))
			Expect(p.R[0].Y).To(BeNumerically("~", 9.95, 1e-9))
			Expect(p.R[0].X).To(BeNumerically(">=", 0))
			Expect(p.R[0].Y).To(BeNumerically("<", 10))
		})
	})

	Describe("two overlapping particles at rest", func() {
		var (
			a, b *particle.Particle
			e    *engine.Engine
		)

		BeforeEach(func() {
			a = particle.New(0, r3.Vec{X: 4, Y: 5, Z: 5}, grain)
			b = particle.New(1, r3.Vec{X: 4.9, Y: 5, Z: 5}, grain)
			var err error
			e, err = engine.New(world(1e-5, 0), []*particle.Particle{a, b}, nil, flatPlate())
			Expect(err).NotTo(HaveOccurred())
		})

		It("push each other apart along the line of centres", func() {
			Expect(e.Step()).To(Succeed())

			pairs, plates := e.Contacts()
			Expect(pairs).To(Equal(1))
			Expect(plates).To(Equal(0))

			Expect(a.Force.X).To(BeNumerically("<", 0))
			Expect(a.Force.Y).To(BeZero())
			Expect(a.Force.Z).To(BeZero())
			Expect(b.Force).To(Equal(r3.Scale(-1, a.Force)))
			Expect(a.Torque).To(Equal(r3.Vec{}))

			springs, _ := e.Springs()
			Expect(springs).To(Equal(1))
		})

		It("separate with equal and opposite momentum and forget the contact", func() {
			Expect(e.Run(context.Background(), 5000)).To(Succeed())

			Expect(a.R[1].X).To(BeNumerically("<", 0))
			Expect(b.R[1].X).To(BeNumerically(">", 0))
			Expect(a.R[1].X + b.R[1].X).To(BeNumerically("~", 0, 1e-9))

			pairs, _ := e.Contacts()
			springs, _ := e.Springs()
			Expect(pairs).To(BeZero())
			Expect(springs).To(BeZero())
		})
	})

	Describe("a particle dropped onto the plate", func() {
		It("bounces without passing through", func() {
			p := particle.New(0, r3.Vec{X: 5, Y: 5, Z: 1.2}, grain)
			base := []*particle.Particle{particle.New(0, r3.Vec{X: 5, Y: 5}, grain)}
			e, err := engine.New(world(1e-4, 9.81), []*particle.Particle{p}, base, flatPlate())
			Expect(err).NotTo(HaveOccurred())

			minZ, touched, rebound := math.Inf(1), false, false
			e.AddObserver(engine.ObserverFunc(func(e *engine.Engine) error {
				minZ = math.Min(minZ, p.R[0].Z)
				if _, n := e.Contacts(); n > 0 {
					touched = true
				}
				if touched && p.R[1].Z > 0 {
					rebound = true
				}
				return nil
			}))

			Expect(e.Run(context.Background(), 3000)).To(Succeed())

			Expect(touched).To(BeTrue())
			Expect(rebound).To(BeTrue())
			Expect(minZ).To(BeNumerically(">", 0.9))
		})
	})

	Describe("runtime plate control", func() {
		It("applies amplitude and period changes", func() {
			pl, err := plate.New(0, 0, 0.02)
			Expect(err).NotTo(HaveOccurred())
			e, err := engine.New(world(1e-3, 9.81), nil, nil, pl)
			Expect(err).NotTo(HaveOccurred())

			e.SetAmplitude(1e-3)
			Expect(e.SetPeriod(0.04)).To(Succeed())
			Expect(e.Run(context.Background(), 11)).To(Succeed())

			// the last update happened at t = 10 ms, a quarter period
			Expect(pl.Z()).To(BeNumerically("~", 1e-3, 1e-12))
			Expect(pl.Vz()).To(BeNumerically("~", 0, 1e-12))

			err = e.SetPeriod(-1)
			Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
			Expect(pl.Period()).To(Equal(0.04))
		})

		It("reports plate atoms in world coordinates", func() {
			pl, err := plate.New(0.25, 0, 1)
			Expect(err).NotTo(HaveOccurred())
			base := []*particle.Particle{particle.New(7, r3.Vec{X: 1, Y: 1, Z: -0.1}, grain)}
			mobile := []*particle.Particle{particle.New(0, r3.Vec{X: 5, Y: 5, Z: 3}, grain)}
			e, err := engine.New(world(1e-4, 9.81), mobile, base, pl)
			Expect(err).NotTo(HaveOccurred())

			s := e.Snapshot(true)
			Expect(s.Particles).To(HaveLen(1))
			Expect(s.Plate).To(HaveLen(1))
			Expect(s.Plate[0].ID).To(Equal(7))
			Expect(s.Plate[0].Kind).To(Equal(particle.Plate))
			Expect(s.Plate[0].Pos.Z).To(BeNumerically("~", 0.15, 1e-12))
			Expect(e.Snapshot(false).Plate).To(BeEmpty())
		})
	})

	Describe("run control", func() {
		It("stops on a canceled context", func() {
			p := particle.New(0, r3.Vec{X: 5, Y: 5, Z: 5}, grain)
			e, err := engine.New(world(1e-4, 9.81), []*particle.Particle{p}, nil, flatPlate())
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			err = e.Run(ctx, 10)
			Expect(errors.Is(err, dynamo.ErrContextCanceled)).To(BeTrue())
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(e.StepNumber()).To(BeZero())
		})

		It("aborts when an observer cannot write", func() {
			p := particle.New(0, r3.Vec{X: 5, Y: 5, Z: 5}, grain)
			e, err := engine.New(world(1e-4, 9.81), []*particle.Particle{p}, nil, flatPlate())
			Expect(err).NotTo(HaveOccurred())

			e.AddObserver(engine.ObserverFunc(func(e *engine.Engine) error {
				if e.StepNumber() == 3 {
					return fmt.Errorf("dump: %w", dynamo.ErrResourceUnavailable)
				}
				return nil
			}))

			err = e.Run(context.Background(), 10)
			Expect(errors.Is(err, dynamo.ErrResourceUnavailable)).To(BeTrue())
			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Step).To(Equal(3))
		})

		It("reports non-finite particles when validating", func() {
			p := particle.New(0, r3.Vec{X: 5, Y: 5, Z: 5}, grain)
			p.R[1].Z = math.NaN()
			cfg := world(1e-4, 9.81)
			cfg.ValidateState = true
			e, err := engine.New(cfg, []*particle.Particle{p}, nil, flatPlate())
			Expect(err).NotTo(HaveOccurred())

			err = e.Run(context.Background(), 5)
			Expect(errors.Is(err, dynamo.ErrInvalidState)).To(BeTrue())
			var simErr dynamo.SimError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Particle).To(Equal(0))
			Expect(simErr.Step).To(Equal(1))
		})
	})

	Describe("the sharded force pass", func() {
		It("matches the serial pass", func() {
			run := func(workers int) []*particle.Particle {
				mobile, base := layeredBed(42)
				cfg := engine.Config{
					World:   engine.World{Lx: 12, Ly: 12, Dt: 1e-4, Gravity: r3.Vec{Z: -9.81}},
					Workers: workers,
				}
				pl, err := plate.New(0, 0.01, 0.05)
				Expect(err).NotTo(HaveOccurred())
				e, err := engine.New(cfg, mobile, base, pl)
				Expect(err).NotTo(HaveOccurred())
				Expect(e.Run(context.Background(), 50)).To(Succeed())

				pairs, plates := e.Contacts()
				Expect(pairs).To(BeNumerically(">", 0))
				Expect(plates).To(BeNumerically(">", 0))
				return mobile
			}

			serial := run(1)
			sharded := run(4)
			Expect(sharded).To(HaveLen(len(serial)))
			for i := range serial {
				Expect(sharded[i].R[0].X).To(BeNumerically("~", serial[i].R[0].X, 1e-9))
				Expect(sharded[i].R[0].Y).To(BeNumerically("~", serial[i].R[0].Y, 1e-9))
				Expect(sharded[i].R[0].Z).To(BeNumerically("~", serial[i].R[0].Z, 1e-9))
				Expect(sharded[i].W[1].Z).To(BeNumerically("~", serial[i].W[1].Z, 1e-6))
			}
		})
	})
})
