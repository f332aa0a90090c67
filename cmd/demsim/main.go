package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/demsim/internal/automation"
	"github.com/san-kum/demsim/internal/config"
	"github.com/san-kum/demsim/internal/dump"
	"github.com/san-kum/demsim/internal/experiment"
	"github.com/san-kum/demsim/internal/export"
	"github.com/san-kum/demsim/internal/storage"
	"github.com/san-kum/demsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configPath string
	presetName string
	verbose    bool

	steps     int
	dt        float64
	amplitude float64
	period    float64
	seed      int64
	workers   int
	noDump    bool
	noSave    bool
	svgPath   string

	logger *log.Logger
)

// svgWidth is the pixel width of the --svg picture.
const svgWidth = 1200

var rootCmd = &cobra.Command{
	Use:   "demsim",
	Short: "granular bed on a vibrating dimpled plate",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
			Prefix:          "demsim",
		})
		if verbose {
			logger.SetLevel(log.DebugLevel)
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run a simulation and store its series",
	RunE:  runSimulation,
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "list configuration presets",
	Run: func(cmd *cobra.Command, args []string) {
		reg := experiment.NewRegistry()
		for _, exp := range reg.List() {
			fmt.Printf("%s:\n", exp)
			for _, name := range config.ListPresets(exp) {
				fmt.Printf("  %s/%s\n", exp, name)
			}
		}
	},
}

var configCmd = &cobra.Command{
	Use:   "config [path]",
	Short: "write the effective configuration",
	Long:  "Writes the configuration selected by --config and --preset as YAML, or as a legacy options file when the path does not end in .yaml or .yml. Without a path it is printed.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  writeConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".demsim", "run store directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	for _, cmd := range []*cobra.Command{runCmd, configCmd, liveCmd, sweepCmd, benchCmd, bifurcationCmd, divergenceCmd} {
		cmd.Flags().StringVarP(&configPath, "config", "c", "", "configuration file (.yaml or legacy options)")
		cmd.Flags().StringVarP(&presetName, "preset", "p", "", "preset as experiment/name")
	}

	for _, cmd := range []*cobra.Command{runCmd, liveCmd, benchCmd, bifurcationCmd, divergenceCmd} {
		cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
		cmd.Flags().Float64Var(&dt, "dt", config.DefaultTimestep, "timestep")
		cmd.Flags().Float64Var(&amplitude, "amplitude", config.DefaultAmplitude, "plate amplitude")
		cmd.Flags().Float64Var(&period, "period", config.DefaultPeriod, "plate period")
		cmd.Flags().Int64Var(&seed, "seed", 1, "random seed, 0 for time based")
		cmd.Flags().IntVar(&workers, "workers", 1, "force pass goroutines")
	}

	runCmd.Flags().BoolVar(&noDump, "no-dump", false, "skip trajectory and csv dumps")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().StringVar(&svgPath, "svg", "", "write an svg of the final bed")

	rootCmd.AddCommand(runCmd, presetsCmd, configCmd)
	rootCmd.AddCommand(listCmd, plotCmd, exportCmd, exportCSVCmd, exportJSONCmd, exportPNGCmd, analyzeCmd)
	rootCmd.AddCommand(liveCmd, sweepCmd, benchCmd, bifurcationCmd, divergenceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves --config, then --preset, then every changed flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configPath != "" {
		c, warnings, err := config.Open(configPath)
		if err != nil {
			return nil, err
		}
		for _, w := range warnings {
			logger.Warn("config", "file", configPath, "warning", w.String())
		}
		cfg = c
	}
	if presetName != "" {
		exp, name, ok := strings.Cut(presetName, "/")
		if !ok {
			exp, name = "constant", presetName
		}
		p := config.GetPreset(exp, name)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q", presetName)
		}
		cfg = p
	}

	flags := cmd.Flags()
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("dt") {
		cfg.Timestep = dt
	}
	if flags.Changed("amplitude") {
		cfg.Amplitude = amplitude
		cfg.AmplitudeStart = amplitude
	}
	if flags.Changed("period") {
		cfg.Period = period
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	x, err := experiment.New(cfg, experiment.NewRegistry(), max(cfg.CSVInterval, 1), logger)
	if err != nil {
		return err
	}
	e := x.Engine()

	if !noDump {
		rec, err := dump.Create(x.Config(), logger)
		if err != nil {
			return err
		}
		defer rec.Close()
		if err := rec.Start(e); err != nil {
			return err
		}
		x.AddObserver(rec)
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s: %d particles on %d plate particles, %d steps\n",
		x.Driver().Name(), len(e.Particles()), len(e.PlateParticles()), cfg.Steps)

	res, err := x.Run(ctx)
	if err != nil {
		return err
	}

	if svgPath != "" {
		snap := e.Snapshot(true)
		f, err := os.Create(svgPath)
		if err != nil {
			return err
		}
		if err := export.SnapshotSVG(f, snap, viz.WindowFor(snap, 3), svgWidth/snap.World.Lx); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	fmt.Printf("completed in %v\n", res.Elapsed.Round(time.Millisecond))
	fmt.Printf("steps: %d  samples: %d  rebuilds: %d\n", res.Steps, len(res.Samples), e.Rebuilds())
	if !noSave {
		st := storage.New(dataDir)
		meta := automation.Metadata(x, res)
		meta.Preset = presetName
		runID, err := st.Save(meta, res.Samples)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Println("\nmetrics:")
	printMetrics(res.Metrics)
	return nil
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return config.WriteLegacy(os.Stdout, cfg)
	}
	path := args[0]
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return config.Save(path, cfg)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := config.WriteLegacy(f, cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
