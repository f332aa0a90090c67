package config

func preset(edit func(c *Config)) *Config {
	c := DefaultConfig()
	edit(c)
	return c
}

// Presets holds named configurations per experiment.
var Presets = map[string]map[string]*Config{
	"constant": {
		"gentle": preset(func(c *Config) {
			c.Amplitude = 5e-5
			c.Period = 0.02
		}),
		"fluidised": preset(func(c *Config) {
			c.Amplitude = 3e-4
			c.Period = 0.02
			c.AreaFraction = 0.6
		}),
		"dense": preset(func(c *Config) {
			c.AreaFraction = 1
			c.Amplitude = 1.5e-4
		}),
		"deep-dimples": preset(func(c *Config) {
			c.DimpleDepth = 0.0008
			c.DimpleRadius = 0.0018
		}),
		"flat": preset(func(c *Config) {
			c.DimpleDepth = 0
		}),
		"small": preset(func(c *Config) {
			c.Lx, c.Ly = 0.012, 0.012
			c.Steps = 20000
			c.SaveInterval = 500
			c.CSVInterval = 500
		}),
	},
	"ramp": {
		"slow": preset(func(c *Config) {
			c.Experiment = "ramp"
			c.AmplitudeStart = 5e-5
			c.AmplitudeEnd = 4e-4
			c.RampRate = 5e-5
			c.Steps = 1000000
		}),
		"fast": preset(func(c *Config) {
			c.Experiment = "ramp"
			c.AmplitudeStart = 5e-5
			c.AmplitudeEnd = 4e-4
			c.RampRate = 5e-4
			c.Steps = 200000
		}),
		"down": preset(func(c *Config) {
			c.Experiment = "ramp"
			c.AmplitudeStart = 4e-4
			c.AmplitudeEnd = 5e-5
			c.RampRate = 2e-4
			c.Steps = 300000
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(experiment, name string) *Config {
	byName, ok := Presets[experiment]
	if !ok {
		return nil
	}
	cfg, ok := byName[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(experiment string) []string {
	byName, ok := Presets[experiment]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	return sortedStrings(names)
}
