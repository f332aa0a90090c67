package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/demsim/internal/dynamo"
	"github.com/san-kum/demsim/internal/particle"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTimestep  = 1e-5
	DefaultSteps     = 100000
	DefaultAmplitude = 1e-4
	DefaultPeriod    = 0.02
	DefaultGravity   = 9.81
	DefaultInterval  = 1000
)

// Config is the flat run configuration. Every field maps to one key of
// the YAML document and of the legacy "#key: value" options file.
type Config struct {
	SavePath     string `yaml:"savepath"`
	SavePathBase string `yaml:"savepath_base"`
	CSVSavePath  string `yaml:"csv_savepath"`
	DumpSeparate bool   `yaml:"dump_separate"`

	Steps        int     `yaml:"steps"`
	SaveInterval int     `yaml:"save_interval"`
	CSVInterval  int     `yaml:"csv_interval"`
	SaveDelay    int     `yaml:"save_delay"`
	Timestep     float64 `yaml:"timestep"`

	Experiment     string  `yaml:"experiment"`
	Amplitude      float64 `yaml:"amplitude"`
	Period         float64 `yaml:"period"`
	AmplitudeStart float64 `yaml:"amplitude_start"`
	AmplitudeEnd   float64 `yaml:"amplitude_end"`
	RampRate       float64 `yaml:"ramp_rate"`

	Lx            float64 `yaml:"lx"`
	Ly            float64 `yaml:"ly"`
	Lz            float64 `yaml:"lz"`
	AreaFraction  float64 `yaml:"area_fraction"`
	BaseHeight    float64 `yaml:"base_height"`
	BallHeight    float64 `yaml:"ball_height"`
	DimpleSpacing float64 `yaml:"dimple_spacing"`
	DimpleRadius  float64 `yaml:"dimple_radius"`
	DimpleDepth   float64 `yaml:"dimple_depth"`

	BallRadius            float64 `yaml:"ball_radius"`
	BallMass              float64 `yaml:"ball_mass"`
	BallYoungs            float64 `yaml:"ball_youngs"`
	BallPoisson           float64 `yaml:"ball_poisson"`
	BallDamping           float64 `yaml:"ball_damping"`
	BallFriction          float64 `yaml:"ball_friction"`
	BallTangentialDamping float64 `yaml:"ball_tangential_damping"`

	BaseRadius            float64 `yaml:"base_radius"`
	BaseMass              float64 `yaml:"base_mass"`
	BaseYoungs            float64 `yaml:"base_youngs"`
	BasePoisson           float64 `yaml:"base_poisson"`
	BaseDamping           float64 `yaml:"base_damping"`
	BaseFriction          float64 `yaml:"base_friction"`
	BaseTangentialDamping float64 `yaml:"base_tangential_damping"`

	Seed          int64   `yaml:"seed"`
	Workers       int     `yaml:"workers"`
	Gravity       float64 `yaml:"gravity"`
	ValidateState bool    `yaml:"validate_state"`
}

func DefaultConfig() *Config {
	return &Config{
		SavePath:     "data.dump",
		SavePathBase: "base.dump",
		CSVSavePath:  "data.csv",

		Steps:        DefaultSteps,
		SaveInterval: DefaultInterval,
		CSVInterval:  DefaultInterval,
		Timestep:     DefaultTimestep,

		Experiment:     "constant",
		Amplitude:      DefaultAmplitude,
		Period:         DefaultPeriod,
		AmplitudeStart: DefaultAmplitude,
		AmplitudeEnd:   4 * DefaultAmplitude,
		RampRate:       1e-4,

		Lx:            0.04,
		Ly:            0.04,
		AreaFraction:  0.8,
		BallHeight:    0.0015,
		DimpleSpacing: 0.004,
		DimpleRadius:  0.0015,
		DimpleDepth:   0.0004,

		BallRadius:            0.001,
		BallMass:              3.27e-5,
		BallYoungs:            1e7,
		BallPoisson:           0.3,
		BallDamping:           1e-5,
		BallFriction:          0.5,
		BallTangentialDamping: 1e3,

		BaseRadius:            0.0005,
		BaseMass:              4.1e-6,
		BaseYoungs:            1e7,
		BasePoisson:           0.3,
		BaseDamping:           1e-5,
		BaseFriction:          0.5,
		BaseTangentialDamping: 1e3,

		Seed:    1,
		Workers: 1,
		Gravity: DefaultGravity,
	}
}

// fields maps every configuration key to the field it sets.
func (c *Config) fields() map[string]any {
	return map[string]any{
		"savepath":      &c.SavePath,
		"savepath_base": &c.SavePathBase,
		"csv_savepath":  &c.CSVSavePath,
		"dump_separate": &c.DumpSeparate,

		"steps":         &c.Steps,
		"save_interval": &c.SaveInterval,
		"csv_interval":  &c.CSVInterval,
		"save_delay":    &c.SaveDelay,
		"timestep":      &c.Timestep,

		"experiment":      &c.Experiment,
		"amplitude":       &c.Amplitude,
		"period":          &c.Period,
		"amplitude_start": &c.AmplitudeStart,
		"amplitude_end":   &c.AmplitudeEnd,
		"ramp_rate":       &c.RampRate,

		"lx":             &c.Lx,
		"ly":             &c.Ly,
		"lz":             &c.Lz,
		"area_fraction":  &c.AreaFraction,
		"base_height":    &c.BaseHeight,
		"ball_height":    &c.BallHeight,
		"dimple_spacing": &c.DimpleSpacing,
		"dimple_radius":  &c.DimpleRadius,
		"dimple_depth":   &c.DimpleDepth,

		"ball_radius":             &c.BallRadius,
		"ball_mass":               &c.BallMass,
		"ball_youngs":             &c.BallYoungs,
		"ball_poisson":            &c.BallPoisson,
		"ball_damping":            &c.BallDamping,
		"ball_friction":           &c.BallFriction,
		"ball_tangential_damping": &c.BallTangentialDamping,

		"base_radius":             &c.BaseRadius,
		"base_mass":               &c.BaseMass,
		"base_youngs":             &c.BaseYoungs,
		"base_poisson":            &c.BasePoisson,
		"base_damping":            &c.BaseDamping,
		"base_friction":           &c.BaseFriction,
		"base_tangential_damping": &c.BaseTangentialDamping,

		"seed":           &c.Seed,
		"workers":        &c.Workers,
		"gravity":        &c.Gravity,
		"validate_state": &c.ValidateState,
	}
}

// Keys lists every recognised configuration key.
func Keys() []string {
	f := (&Config{}).fields()
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	return sortedStrings(keys)
}

// GetParams returns every numeric key with its current value.
func (c *Config) GetParams() map[string]float64 {
	out := make(map[string]float64)
	for k, ptr := range c.fields() {
		switch v := ptr.(type) {
		case *float64:
			out[k] = *v
		case *int:
			out[k] = float64(*v)
		case *int64:
			out[k] = float64(*v)
		}
	}
	return out
}

// SetParam sets one numeric key. Integer keys reject fractional values.
func (c *Config) SetParam(name string, value float64) error {
	ptr, ok := c.fields()[name]
	if !ok {
		return fmt.Errorf("config: unknown key %q: %w", name, dynamo.ErrParameterBounds)
	}
	integral := value == math.Trunc(value) && !math.IsInf(value, 0)
	switch v := ptr.(type) {
	case *float64:
		*v = value
	case *int:
		if !integral {
			return fmt.Errorf("config: %s needs an integer, got %v: %w", name, value, dynamo.ErrParameterBounds)
		}
		*v = int(value)
	case *int64:
		if !integral {
			return fmt.Errorf("config: %s needs an integer, got %v: %w", name, value, dynamo.ErrParameterBounds)
		}
		*v = int64(value)
	default:
		return fmt.Errorf("config: %s is not numeric: %w", name, dynamo.ErrParameterBounds)
	}
	return nil
}

// Warning reports a key that was ignored while reading a configuration.
// The key keeps its previous value.
type Warning struct {
	Line   int
	Key    string
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s: %s", w.Line, w.Key, w.Reason)
}

// Parse decodes a YAML document over the defaults. Unknown keys and
// malformed values produce warnings, never errors.
func Parse(data []byte) (*Config, []Warning, error) {
	cfg := DefaultConfig()
	warnings, err := cfg.Merge(data)
	if err != nil {
		return nil, warnings, err
	}
	return cfg, warnings, nil
}

// Merge decodes a YAML document over c.
func (c *Config) Merge(data []byte) ([]Warning, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("config: line %d: top level must be a mapping", root.Line)
	}

	fields := c.fields()
	var warnings []Warning
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		ptr, ok := fields[key.Value]
		if !ok {
			warnings = append(warnings, Warning{Line: key.Line, Key: key.Value, Reason: "unknown key"})
			continue
		}
		if err := val.Decode(ptr); err != nil {
			warnings = append(warnings, Warning{Line: val.Line, Key: key.Value, Reason: fmt.Sprintf("malformed value %q", val.Value)})
		}
	}
	return warnings, nil
}

func Load(path string) (*Config, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return Parse(data)
}

// Open reads path as YAML when it has a .yaml or .yml extension and as a
// legacy options file otherwise.
func Open(path string) (*Config, []Warning, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return Load(path)
	default:
		return LoadLegacy(path)
	}
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the values the engine and setup depend on.
func (c *Config) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if !(v > 0) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, v))
		}
	}
	positive("timestep", c.Timestep)
	positive("period", c.Period)
	positive("lx", c.Lx)
	positive("ly", c.Ly)
	positive("ball_radius", c.BallRadius)
	positive("ball_mass", c.BallMass)
	positive("base_radius", c.BaseRadius)
	positive("base_mass", c.BaseMass)
	positive("dimple_spacing", c.DimpleSpacing)

	if c.Steps < 0 {
		errs = append(errs, fmt.Errorf("steps must not be negative, got %d", c.Steps))
	}
	if c.SaveInterval < 1 || c.CSVInterval < 1 {
		errs = append(errs, fmt.Errorf("save_interval and csv_interval must be at least 1"))
	}
	if c.AreaFraction < 0 || c.AreaFraction > 1 {
		errs = append(errs, fmt.Errorf("area_fraction must be in [0, 1], got %v", c.AreaFraction))
	}
	if c.Lz < 0 {
		errs = append(errs, fmt.Errorf("lz must not be negative, got %v", c.Lz))
	}
	if c.BallPoisson >= 1 || c.BasePoisson >= 1 {
		errs = append(errs, fmt.Errorf("poisson ratio must be below 1"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", dynamo.ErrParameterBounds, errors.Join(errs...))
	}
	return nil
}

func (c *Config) BallProps() particle.Props {
	return particle.Props{
		Radius: c.BallRadius,
		Mass:   c.BallMass,
		Material: particle.Material{
			Youngs:            c.BallYoungs,
			Poisson:           c.BallPoisson,
			Damping:           c.BallDamping,
			Friction:          c.BallFriction,
			TangentialDamping: c.BallTangentialDamping,
		},
	}
}

func (c *Config) BaseProps() particle.Props {
	return particle.Props{
		Radius: c.BaseRadius,
		Mass:   c.BaseMass,
		Material: particle.Material{
			Youngs:            c.BaseYoungs,
			Poisson:           c.BasePoisson,
			Damping:           c.BaseDamping,
			Friction:          c.BaseFriction,
			TangentialDamping: c.BaseTangentialDamping,
		},
	}
}

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
