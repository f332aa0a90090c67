package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/demsim/internal/config"
	"github.com/san-kum/demsim/internal/dynamo"
	"github.com/san-kum/demsim/internal/engine"
)

// Driver sets the plate forcing of a run. Prepare runs once before the
// first step; OnStep runs after every step and so applies to the next.
type Driver interface {
	engine.Observer
	Name() string
	Prepare(e *engine.Engine) error
}

// Constant holds amplitude and period fixed.
type Constant struct {
	Amplitude float64
	Period    float64
}

func (c *Constant) Name() string { return "constant" }

func (c *Constant) Prepare(e *engine.Engine) error {
	e.SetAmplitude(c.Amplitude)
	return e.SetPeriod(c.Period)
}

func (c *Constant) OnStep(*engine.Engine) error { return nil }

// Ramp moves the amplitude from Start toward End at Rate per simulated
// second and holds it at End once reached.
type Ramp struct {
	Start  float64
	End    float64
	Rate   float64
	Period float64
}

func (r *Ramp) Name() string { return "ramp" }

// AmplitudeAt returns the ramped amplitude at simulation time t.
func (r *Ramp) AmplitudeAt(t float64) float64 {
	d := r.End - r.Start
	reach := math.Abs(r.Rate) * t
	if reach >= math.Abs(d) {
		return r.End
	}
	return r.Start + math.Copysign(reach, d)
}

func (r *Ramp) Prepare(e *engine.Engine) error {
	if r.Rate < 0 || math.IsNaN(r.Rate) {
		return fmt.Errorf("ramp rate %v: %w", r.Rate, dynamo.ErrParameterBounds)
	}
	e.SetAmplitude(r.AmplitudeAt(e.Time()))
	return e.SetPeriod(r.Period)
}

func (r *Ramp) OnStep(e *engine.Engine) error {
	e.SetAmplitude(r.AmplitudeAt(e.Time()))
	return nil
}

// Registry maps experiment names to driver constructors.
type Registry struct {
	drivers map[string]func(cfg *config.Config) Driver
}

func NewRegistry() *Registry {
	r := &Registry{drivers: make(map[string]func(*config.Config) Driver)}
	r.Register("constant", func(cfg *config.Config) Driver {
		return &Constant{Amplitude: cfg.Amplitude, Period: cfg.Period}
	})
	r.Register("ramp", func(cfg *config.Config) Driver {
		return &Ramp{Start: cfg.AmplitudeStart, End: cfg.AmplitudeEnd, Rate: cfg.RampRate, Period: cfg.Period}
	})
	return r
}

func (r *Registry) Register(name string, fn func(cfg *config.Config) Driver) {
	r.drivers[name] = fn
}

func (r *Registry) Driver(cfg *config.Config) (Driver, error) {
	fn, ok := r.drivers[cfg.Experiment]
	if !ok {
		return nil, fmt.Errorf("unknown experiment %q: %w", cfg.Experiment, dynamo.ErrParameterBounds)
	}
	return fn(cfg), nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
