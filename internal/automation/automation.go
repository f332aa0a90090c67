// Package automation runs batches of experiments: parameter sweeps in
// parallel and scripted scenarios from YAML.
package automation

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/san-kum/demsim/internal/config"
	"github.com/san-kum/demsim/internal/dynamo"
	"github.com/san-kum/demsim/internal/experiment"
	"github.com/san-kum/demsim/internal/metrics"
	"github.com/san-kum/demsim/internal/storage"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Base        string         `yaml:"base"`
	Runs        []ScenarioStep `yaml:"runs"`
}

// ScenarioStep is one run. Preset names an entry of config.Presets as
// "experiment/name"; Params override numeric keys on top of it.
type ScenarioStep struct {
	Name   string             `yaml:"name"`
	Preset string             `yaml:"preset"`
	Steps  int                `yaml:"steps"`
	Params map[string]float64 `yaml:"params"`
	Save   bool               `yaml:"save"`
}

// StepResult is the outcome of one scenario run.
type StepResult struct {
	Name    string
	RunID   string
	Steps   int
	Metrics map[string]float64
}

// LoadScenario reads a scenario. A relative Base path is resolved against
// the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if sc.Base != "" && !filepath.IsAbs(sc.Base) {
		sc.Base = filepath.Join(filepath.Dir(path), sc.Base)
	}
	return &sc, nil
}

func (s *Scenario) stepConfig(step ScenarioStep, logger *log.Logger) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Base != "" {
		base, warnings, err := config.Open(s.Base)
		if err != nil {
			return nil, err
		}
		for _, w := range warnings {
			logger.Warn("config", "file", s.Base, "warning", w.String())
		}
		cfg = base
	}
	if step.Preset != "" {
		exp, name, ok := strings.Cut(step.Preset, "/")
		p := config.GetPreset(exp, name)
		if !ok || p == nil {
			return nil, fmt.Errorf("unknown preset %q: %w", step.Preset, dynamo.ErrParameterBounds)
		}
		cfg = p
	}
	var tunable dynamo.Configurable = cfg
	for k, v := range step.Params {
		if err := tunable.SetParam(k, v); err != nil {
			return nil, err
		}
	}
	if step.Steps > 0 {
		cfg.Steps = step.Steps
	}
	return cfg, nil
}

// RunScenario executes every run in order. Runs marked Save are written
// to store, which may be nil when none are.
func RunScenario(ctx context.Context, sc *Scenario, reg *experiment.Registry, store *storage.Store, logger *log.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	results := make([]StepResult, 0, len(sc.Runs))

	for i, step := range sc.Runs {
		logger.Info("scenario", "run", fmt.Sprintf("%d/%d", i+1, len(sc.Runs)), "name", step.Name)

		cfg, err := sc.stepConfig(step, logger)
		if err != nil {
			return results, fmt.Errorf("run %d: %w", i+1, err)
		}
		x, err := experiment.New(cfg, reg, sampleEvery(cfg), logger)
		if err != nil {
			return results, fmt.Errorf("run %d: %w", i+1, err)
		}
		res, err := x.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("run %d: %w", i+1, err)
		}

		out := StepResult{Name: step.Name, Steps: res.Steps, Metrics: res.Metrics}
		if step.Save {
			if store == nil {
				return results, fmt.Errorf("run %d: no store: %w", i+1, dynamo.ErrResourceUnavailable)
			}
			out.RunID, err = store.Save(Metadata(x, res), res.Samples)
			if err != nil {
				return results, fmt.Errorf("run %d: %w", i+1, err)
			}
		}
		results = append(results, out)
	}
	return results, nil
}

// Metadata describes a finished experiment for storage.
func Metadata(x *experiment.Experiment, res *experiment.Result) storage.RunMetadata {
	cfg := x.Config()
	e := x.Engine()
	return storage.RunMetadata{
		Experiment:     x.Driver().Name(),
		Seed:           cfg.Seed,
		Dt:             cfg.Timestep,
		Steps:          res.Steps,
		Particles:      len(e.Particles()),
		PlateParticles: len(e.PlateParticles()),
		Amplitude:      e.Plate().Amplitude(),
		Period:         e.Plate().Period(),
		Elapsed:        res.Elapsed.Seconds(),
		Metrics:        res.Metrics,
		Config:         cfg,
	}
}

func sampleEvery(cfg *config.Config) int {
	return max(cfg.CSVInterval, 1)
}

// ParameterSweep runs Count copies of Base with Param spread evenly over
// [Min, Max], at most Workers at a time.
type ParameterSweep struct {
	Base    *config.Config
	Param   string
	Min     float64
	Max     float64
	Count   int
	Steps   int
	Workers int
}

// SweepResult holds the final metrics of one sweep point.
type SweepResult struct {
	ParamValue float64
	Particles  int
	Metrics    map[string]float64
	Samples    []metrics.Sample
}

// Values returns the parameter values of the sweep.
func (sw *ParameterSweep) Values() []float64 {
	if sw.Count < 1 {
		return nil
	}
	if sw.Count == 1 {
		return []float64{sw.Min}
	}
	out := make([]float64, sw.Count)
	step := (sw.Max - sw.Min) / float64(sw.Count-1)
	for i := range out {
		out[i] = sw.Min + float64(i)*step
	}
	return out
}

// RunSweep runs the sweep points concurrently. Results keep the order of
// Values; the first failure cancels the remaining runs.
func RunSweep(ctx context.Context, sw *ParameterSweep, reg *experiment.Registry, logger *log.Logger) ([]SweepResult, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if sw.Base == nil || sw.Count < 1 {
		return nil, fmt.Errorf("sweep of %d points: %w", sw.Count, dynamo.ErrParameterBounds)
	}
	if _, ok := sw.Base.GetParams()[sw.Param]; !ok {
		return nil, fmt.Errorf("sweep parameter %q: %w", sw.Param, dynamo.ErrParameterBounds)
	}

	values := sw.Values()
	results := make([]SweepResult, len(values))
	var done atomic.Int32

	g, ctx := errgroup.WithContext(ctx)
	if sw.Workers > 0 {
		g.SetLimit(sw.Workers)
	}
	for i, v := range values {
		g.Go(func() error {
			cfg := sw.Base.Clone()
			if err := cfg.SetParam(sw.Param, v); err != nil {
				return err
			}
			if sw.Steps > 0 {
				cfg.Steps = sw.Steps
			}
			x, err := experiment.New(cfg, reg, sampleEvery(cfg), nil)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", sw.Param, v, err)
			}
			res, err := x.Run(ctx)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", sw.Param, v, err)
			}
			results[i] = SweepResult{
				ParamValue: v,
				Particles:  len(x.Engine().Particles()),
				Metrics:    res.Metrics,
				Samples:    res.Samples,
			}
			logger.Info("sweep", "point", fmt.Sprintf("%d/%d", done.Add(1), len(values)), sw.Param, v)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
