package engine

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/san-kum/demsim/internal/contact"
	"github.com/san-kum/demsim/internal/dynamo"
	"github.com/san-kum/demsim/internal/integrators"
	"github.com/san-kum/demsim/internal/neighbor"
	"github.com/san-kum/demsim/internal/particle"
	"github.com/san-kum/demsim/internal/plate"
	"gonum.org/v1/gonum/spatial/r3"
)

// minShard is the smallest number of owners handed to one worker.
const minShard = 64

// World is the fixed geometry and time step of a run. A zero Lz disables
// vertical periodicity.
type World struct {
	Lx, Ly, Lz float64
	Dt         float64
	Gravity    r3.Vec
}

type Config struct {
	World

	// Workers > 1 shards the force pass across goroutines.
	Workers int

	// ValidateState stops the run on the first non-finite particle.
	ValidateState bool

	Logger *log.Logger
}

// Observer is notified after every completed step. Returning an error
// stops Run.
type Observer interface {
	OnStep(e *Engine) error
}

type ObserverFunc func(e *Engine) error

func (f ObserverFunc) OnStep(e *Engine) error { return f(e) }

type Engine struct {
	cfg    Config
	logger *log.Logger

	particles []*particle.Particle
	base      []*particle.Particle
	plate     *plate.Plate

	gear  *integrators.Gear
	model *contact.Model

	grid   *neighbor.Grid
	static *neighbor.Static
	pos    []r3.Vec

	pairs    *contact.Tracker
	supports *contact.Tracker

	pool *shardPool

	observers []Observer

	time     float64
	step     int
	rebuilds int

	pairContacts  int
	plateContacts int
}

// New takes ownership of the particles and the plate. Mobile and plate
// particle ids must be unique within their population.
func New(cfg Config, particles, base []*particle.Particle, pl *plate.Plate) (*Engine, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if pl == nil {
		return nil, fmt.Errorf("engine: plate is required: %w", dynamo.ErrParameterBounds)
	}

	e := &Engine{
		cfg:       cfg,
		logger:    cfg.Logger,
		particles: particles,
		base:      base,
		plate:     pl,
		gear:      integrators.NewGear(cfg.Dt),
		model:     contact.NewModel(contact.Box{Lx: cfg.Lx, Ly: cfg.Ly, Lz: cfg.Lz}, cfg.Dt),
		pairs:     contact.NewTracker("pair"),
		supports:  contact.NewTracker("plate"),
		pos:       make([]r3.Vec, len(particles)),
		pool:      newShardPool(len(particles)),
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}

	rmin, rmax, err := radiusRange(particles, "particle")
	if err != nil {
		return nil, err
	}
	seen := make(map[int]bool, len(particles))
	for _, p := range particles {
		if seen[p.ID] {
			return nil, fmt.Errorf("engine: duplicate particle id %d: %w", p.ID, dynamo.ErrInvalidState)
		}
		seen[p.ID] = true
		e.pairs.Register(p.ID)
		e.supports.Register(p.ID)
	}

	if len(particles) > 0 {
		if e.grid, err = neighbor.NewGrid(cfg.Lx, cfg.Ly, rmin, rmax); err != nil {
			return nil, fmt.Errorf("engine: neighbor grid: %w", err)
		}
	}

	if len(base) > 0 && len(particles) > 0 {
		rBase, _, err := radiusRange(base, "plate particle")
		if err != nil {
			return nil, err
		}
		seen = make(map[int]bool, len(base))
		at := make([]r3.Vec, len(base))
		for k, b := range base {
			if seen[b.ID] {
				return nil, fmt.Errorf("engine: duplicate plate particle id %d: %w", b.ID, dynamo.ErrInvalidState)
			}
			seen[b.ID] = true
			at[k] = b.Position()
		}
		if e.static, err = neighbor.NewStatic(cfg.Lx, cfg.Ly, rBase, rmax, at); err != nil {
			return nil, fmt.Errorf("engine: plate grid: %w", err)
		}
	}

	e.plate.Update(0)
	return e, nil
}

func validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0) {
		return fmt.Errorf("engine: dt must be positive, got %v: %w", cfg.Dt, dynamo.ErrParameterBounds)
	}
	if !(cfg.Lx > 0) || !(cfg.Ly > 0) {
		return fmt.Errorf("engine: box %vx%v: %w", cfg.Lx, cfg.Ly, dynamo.ErrParameterBounds)
	}
	if cfg.Lz < 0 {
		return fmt.Errorf("engine: negative lz %v: %w", cfg.Lz, dynamo.ErrParameterBounds)
	}
	if !dynamo.Finite(cfg.Gravity) {
		return fmt.Errorf("engine: gravity %v: %w", cfg.Gravity, dynamo.ErrParameterBounds)
	}
	return nil
}

func radiusRange(ps []*particle.Particle, what string) (float64, float64, error) {
	rmin, rmax := math.Inf(1), 0.0
	for _, p := range ps {
		r := p.Radius()
		if !(r > 0) || !(p.Mass() > 0) {
			return 0, 0, fmt.Errorf("engine: %s %d radius %v mass %v: %w",
				what, p.ID, r, p.Mass(), dynamo.ErrParameterBounds)
		}
		if !dynamo.Finite(p.R[0]) {
			return 0, 0, fmt.Errorf("engine: %s %d at %v: %w", what, p.ID, p.R[0], dynamo.ErrInvalidState)
		}
		rmin = math.Min(rmin, r)
		rmax = math.Max(rmax, r)
	}
	return rmin, rmax, nil
}

func (e *Engine) AddObserver(o Observer) { e.observers = append(e.observers, o) }

// Run advances steps steps, checking ctx between steps.
func (e *Engine) Run(ctx context.Context, steps int) error {
	e.logger.Debug("run", "steps", steps, "particles", len(e.particles), "plate", len(e.base))
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return &dynamo.SimulationError{
				Step:    e.step,
				Time:    e.time,
				Wrapped: fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err()),
			}
		default:
		}

		if err := e.Step(); err != nil {
			return err
		}
	}
	e.logger.Debug("run complete", "step", e.step, "time", e.time, "rebuilds", e.rebuilds)
	return nil
}

// Step advances the bed by one time step.
func (e *Engine) Step() error {
	if e.grid != nil {
		for i, p := range e.particles {
			e.pos[i] = p.R[0]
		}
		if e.grid.Stale(e.pos) {
			e.grid.Build(e.pos)
			e.rebuilds++
		}
	}

	e.plate.Update(e.time)

	for _, p := range e.particles {
		p.ResetAccumulators()
		e.gear.Predict(&p.R)
		e.gear.Predict(&p.W)
	}

	e.accumulate()

	g := e.cfg.Gravity
	for _, p := range e.particles {
		accel := r3.Add(r3.Scale(1/p.Mass(), p.Force), g)
		e.gear.Correct(&p.R, accel)
		e.gear.Correct(&p.W, r3.Scale(1/p.Inertia(), p.Torque))

		p.R[0].X = dynamo.Wrap(p.R[0].X, e.cfg.Lx)
		p.R[0].Y = dynamo.Wrap(p.R[0].Y, e.cfg.Ly)
	}

	e.time += e.cfg.Dt
	e.step++

	if e.cfg.ValidateState {
		for _, p := range e.particles {
			if !dynamo.Finite(p.R[0]) || !dynamo.Finite(p.R[1]) || !dynamo.Finite(p.W[1]) {
				return dynamo.SimError{Time: e.time, Step: e.step, Particle: p.ID, Message: "invalid state (NaN/Inf)"}
			}
		}
	}

	for _, o := range e.observers {
		if err := o.OnStep(e); err != nil {
			return &dynamo.SimulationError{Step: e.step, Time: e.time, Wrapped: err}
		}
	}
	return nil
}

// SetAmplitude changes the plate amplitude from the next step on.
func (e *Engine) SetAmplitude(a float64) { e.plate.SetAmplitude(a) }

// SetPeriod changes the plate period from the next step on.
func (e *Engine) SetPeriod(T float64) error { return e.plate.SetPeriod(T) }

func (e *Engine) Time() float64       { return e.time }
func (e *Engine) StepNumber() int     { return e.step }
func (e *Engine) World() World        { return e.cfg.World }
func (e *Engine) Plate() *plate.Plate { return e.plate }

func (e *Engine) Particles() []*particle.Particle      { return e.particles }
func (e *Engine) PlateParticles() []*particle.Particle { return e.base }

// Rebuilds counts neighbor grid rebuilds since New.
func (e *Engine) Rebuilds() int { return e.rebuilds }

// Contacts returns the particle-particle and particle-plate contact counts
// of the last step.
func (e *Engine) Contacts() (int, int) { return e.pairContacts, e.plateContacts }

// Springs returns the live tangential spring counts of both trackers.
func (e *Engine) Springs() (int, int) { return e.pairs.Total(), e.supports.Total() }
