package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/demsim/internal/analysis"
	"github.com/san-kum/demsim/internal/automation"
	"github.com/san-kum/demsim/internal/config"
	"github.com/san-kum/demsim/internal/engine"
	"github.com/san-kum/demsim/internal/experiment"
	"github.com/san-kum/demsim/internal/storage"
	"github.com/san-kum/demsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	stepsPerFrame int

	sweepParam    string
	sweepMin      float64
	sweepMax      float64
	sweepCount    int
	sweepSteps    int
	sweepWorkers  int
	scenarioPath  string
	benchSteps    int
	transient     int
	recordCycles  int
	nudge         float64
	sampleStride  int
	paramValueMin float64
	paramValueMax float64
	paramCount    int
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "watch a bed in the terminal",
	Long:  "Without --preset or --config a preset menu is shown first.",
	RunE:  runLive,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "run a parameter sweep or a scenario file",
	RunE:  runSweep,
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "measure steps per second for several worker counts",
	RunE:  runBench,
}

var bifurcationCmd = &cobra.Command{
	Use:   "bifurcation",
	Short: "stroboscopic bed height against plate amplitude",
	RunE:  runBifurcation,
}

var divergenceCmd = &cobra.Command{
	Use:   "divergence",
	Short: "separation growth of two nearly identical beds",
	RunE:  runDivergence,
}

func init() {
	liveCmd.Flags().IntVar(&stepsPerFrame, "frame-steps", 200, "steps per frame")

	sweepCmd.Flags().StringVar(&sweepParam, "param", "amplitude", "configuration key to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 5e-5, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 4e-4, "last value")
	sweepCmd.Flags().IntVar(&sweepCount, "count", 8, "number of points")
	sweepCmd.Flags().IntVar(&sweepSteps, "point-steps", 0, "steps per point, 0 keeps the configured value")
	sweepCmd.Flags().IntVar(&sweepWorkers, "jobs", 0, "concurrent runs, 0 for no limit")
	sweepCmd.Flags().StringVar(&scenarioPath, "scenario", "", "run a scenario file instead")

	benchCmd.Flags().IntVar(&benchSteps, "bench-steps", 2000, "steps per measurement")

	bifurcationCmd.Flags().Float64Var(&paramValueMin, "min", 5e-5, "first amplitude")
	bifurcationCmd.Flags().Float64Var(&paramValueMax, "max", 4e-4, "last amplitude")
	bifurcationCmd.Flags().IntVar(&paramCount, "count", 10, "number of amplitudes")
	bifurcationCmd.Flags().IntVar(&transient, "transient", 20, "cycles discarded per amplitude")
	bifurcationCmd.Flags().IntVar(&recordCycles, "record", 20, "cycles recorded per amplitude")

	divergenceCmd.Flags().Float64Var(&nudge, "delta", 1e-9, "initial displacement of one grain")
	divergenceCmd.Flags().IntVar(&sampleStride, "every", 100, "steps between separation samples")
}

func factory(cfg *config.Config) analysis.Factory {
	return func() (*engine.Engine, error) {
		x, err := experiment.New(cfg, nil, max(cfg.CSVInterval, 1), nil)
		if err != nil {
			return nil, err
		}
		return x.Engine(), nil
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	var m tea.Model
	if configPath == "" && presetName == "" {
		m = viz.NewApp(stepsPerFrame)
	} else {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		x, err := experiment.New(cfg, experiment.NewRegistry(), max(cfg.CSVInterval, 1), logger)
		if err != nil {
			return err
		}
		title := presetName
		if title == "" {
			title = configPath
		}
		m = viz.NewModel(x.Engine(), title, stepsPerFrame, x.Config().Steps)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	reg := experiment.NewRegistry()

	if scenarioPath != "" {
		sc, err := automation.LoadScenario(scenarioPath)
		if err != nil {
			return err
		}
		logger.Info("scenario", "name", sc.Name, "runs", len(sc.Runs))
		results, err := automation.RunScenario(ctx, sc, reg, storage.New(dataDir), logger)
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Printf("%s (%d steps)", r.Name, r.Steps)
			if r.RunID != "" {
				fmt.Printf(" -> %s", r.RunID)
			}
			fmt.Println()
			printMetrics(r.Metrics)
		}
		return nil
	}

	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sw := &automation.ParameterSweep{
		Base:    base,
		Param:   sweepParam,
		Min:     sweepMin,
		Max:     sweepMax,
		Count:   sweepCount,
		Steps:   sweepSteps,
		Workers: sweepWorkers,
	}
	start := time.Now()
	results, err := automation.RunSweep(ctx, sw, reg, logger)
	if err != nil {
		return err
	}
	logger.Info("sweep done", "points", len(results), "elapsed", time.Since(start).Round(time.Millisecond))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tGRAINS\tHEIGHT\tSPREAD\tKE\tCONTACTS\tSTABILITY\n", sweepParam)
	heights := make([]float64, len(results))
	for i, r := range results {
		m := r.Metrics
		heights[i] = m["mean_height"]
		fmt.Fprintf(w, "%.4g\t%d\t%.4g\t%.3g\t%.3g\t%.2f\t%.2f\n",
			r.ParamValue, r.Particles, m["mean_height"], m["height_spread"], m["kinetic_energy"], m["contacts"], m["stability"])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(heights) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(heights,
			asciigraph.Height(10),
			asciigraph.Caption("final mean height vs "+sweepParam),
		))
	}
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("benchmarking %d steps\n\n", benchSteps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKERS\tGRAINS\tSTEPS\tTIME\tSTEPS/SEC\tREBUILDS")

	for _, n := range []int{1, 2, 4, 8} {
		c := cfg.Clone()
		c.Workers = n
		x, err := experiment.New(c, nil, benchSteps, nil)
		if err != nil {
			return err
		}
		res, err := x.RunSteps(ctx, benchSteps)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.0f\t%d\n",
			n, len(x.Engine().Particles()), res.Steps, res.Elapsed.Round(time.Millisecond),
			float64(res.Steps)/res.Elapsed.Seconds(), x.Engine().Rebuilds())
	}
	return w.Flush()
}

func runBifurcation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	sw := automation.ParameterSweep{Min: paramValueMin, Max: paramValueMax, Count: paramCount}
	data, err := analysis.BifurcationDiagram(ctx, factory(cfg), "amplitude", sw.Values(), transient, recordCycles)
	if err != nil {
		return err
	}

	fmt.Println(analysis.BifurcationToASCII(data, 70, 20))
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AMPLITUDE\tBRANCHES")
	for _, pt := range data {
		fmt.Fprintf(w, "%.4g\t%d\n", pt.Param, len(pt.Distinct(cfg.BallRadius/20)))
	}
	return w.Flush()
}

func runDivergence(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	res, err := analysis.Divergence(ctx, factory(cfg), nudge, cfg.Steps, sampleStride)
	if err != nil {
		return err
	}
	if len(res.Separation) > 1 {
		fmt.Println(asciigraph.Plot(res.Separation,
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption("rms separation"),
		))
		fmt.Println()
	}
	fmt.Printf("samples: %d\n", len(res.Separation))
	fmt.Printf("growth rate: %.4g 1/s\n", res.Rate)
	return nil
}
