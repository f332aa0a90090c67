// Package experiment turns a configuration into a running bed: it builds
// the initial state, the plate and the engine, and drives the plate
// forcing for the configured number of steps.
package experiment

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/demsim/internal/config"
	"github.com/san-kum/demsim/internal/engine"
	"github.com/san-kum/demsim/internal/metrics"
	"github.com/san-kum/demsim/internal/plate"
	"github.com/san-kum/demsim/internal/setup"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultCeiling is the particle height, in ball radii above the plate
// baseline, past which a sample counts as unstable.
const DefaultCeiling = 20

type Experiment struct {
	cfg     *config.Config
	bed     *setup.Bed
	engine  *engine.Engine
	driver  Driver
	sampler *metrics.Sampler
	logger  *log.Logger
}

type Result struct {
	Samples []metrics.Sample
	Metrics map[string]float64
	Steps   int
	Elapsed time.Duration
}

// NewEngine wraps bed in an engine configured from cfg.
func NewEngine(cfg *config.Config, bed *setup.Bed, logger *log.Logger) (*engine.Engine, error) {
	pl, err := plate.New(cfg.BaseHeight, cfg.Amplitude, cfg.Period)
	if err != nil {
		return nil, err
	}
	ecfg := engine.Config{
		World: engine.World{
			Lx:      bed.Lx,
			Ly:      bed.Ly,
			Lz:      bed.Lz,
			Dt:      cfg.Timestep,
			Gravity: r3.Vec{Z: -cfg.Gravity},
		},
		Workers:       cfg.Workers,
		ValidateState: cfg.ValidateState,
		Logger:        logger,
	}
	return engine.New(ecfg, bed.Particles, bed.PlateParticles, pl)
}

// New builds the bed described by cfg. cfg is copied; the copy carries
// the adjusted box size. sampleEvery sets the metric sampling interval in
// steps.
func New(cfg *config.Config, reg *Registry, sampleEvery int, logger *log.Logger) (*Experiment, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if reg == nil {
		reg = NewRegistry()
	}
	cfg = cfg.Clone()

	driver, err := reg.Driver(cfg)
	if err != nil {
		return nil, err
	}
	bed, err := setup.Build(cfg, setup.NewRand(cfg.Seed))
	if err != nil {
		return nil, fmt.Errorf("experiment: setup: %w", err)
	}
	e, err := NewEngine(cfg, bed, logger)
	if err != nil {
		return nil, fmt.Errorf("experiment: engine: %w", err)
	}
	if err := driver.Prepare(e); err != nil {
		return nil, fmt.Errorf("experiment: %s: %w", driver.Name(), err)
	}

	x := &Experiment{
		cfg:     cfg,
		bed:     bed,
		engine:  e,
		driver:  driver,
		sampler: metrics.NewSampler(sampleEvery, metrics.Default(DefaultCeiling*cfg.BallRadius)...),
		logger:  logger,
	}
	e.AddObserver(driver)
	e.AddObserver(x.sampler)

	logger.Info("bed ready",
		"experiment", driver.Name(),
		"particles", len(bed.Particles),
		"plate", len(bed.PlateParticles),
		"box", fmt.Sprintf("%.4gx%.4g", bed.Lx, bed.Ly))
	return x, nil
}

func (x *Experiment) Config() *config.Config    { return x.cfg }
func (x *Experiment) Engine() *engine.Engine    { return x.engine }
func (x *Experiment) Driver() Driver            { return x.driver }
func (x *Experiment) Sampler() *metrics.Sampler { return x.sampler }

// AddObserver attaches o after the driver and the sampler.
func (x *Experiment) AddObserver(o engine.Observer) { x.engine.AddObserver(o) }

// Run advances the configured number of steps.
func (x *Experiment) Run(ctx context.Context) (*Result, error) {
	return x.RunSteps(ctx, x.cfg.Steps)
}

func (x *Experiment) RunSteps(ctx context.Context, steps int) (*Result, error) {
	start := time.Now()
	err := x.engine.Run(ctx, steps)
	res := &Result{
		Samples: x.sampler.Samples,
		Metrics: x.sampler.Values(),
		Steps:   x.engine.StepNumber(),
		Elapsed: time.Since(start),
	}
	if err != nil {
		return res, err
	}
	x.logger.Info("run complete", "steps", res.Steps, "elapsed", res.Elapsed.Round(time.Millisecond), "rebuilds", x.engine.Rebuilds())
	return res, nil
}
