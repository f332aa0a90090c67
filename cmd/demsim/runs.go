package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/demsim/internal/analysis"
	"github.com/san-kum/demsim/internal/export"
	"github.com/san-kum/demsim/internal/metrics"
	"github.com/san-kum/demsim/internal/storage"
	"github.com/spf13/cobra"
)

var (
	pngOut      string
	pngSpectrum bool
	phaseView   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "list stored runs",
	RunE:  listRuns,
}

var plotCmd = &cobra.Command{
	Use:   "plot [run-id]",
	Short: "plot the series of a run in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE:  plotRun,
}

var exportCmd = &cobra.Command{
	Use:   "export [run-id]",
	Short: "print run metadata as json",
	Args:  cobra.ExactArgs(1),
	RunE:  exportRun,
}

var exportCSVCmd = &cobra.Command{
	Use:   "export-csv [run-id]",
	Short: "print the series of a run as csv",
	Args:  cobra.ExactArgs(1),
	RunE:  exportCSV,
}

var exportJSONCmd = &cobra.Command{
	Use:   "export-json [run-id]",
	Short: "print metadata and series of a run as json",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return storage.New(dataDir).Export(os.Stdout, args[0])
	},
}

var exportPNGCmd = &cobra.Command{
	Use:   "export-png [run-id]",
	Short: "render the series or spectrum of a run to png",
	Args:  cobra.ExactArgs(1),
	RunE:  exportPNG,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [run-id]",
	Short: "frequency analysis of the mean bed height",
	Args:  cobra.ExactArgs(1),
	RunE:  analyzeRun,
}

func init() {
	exportPNGCmd.Flags().StringVarP(&pngOut, "out", "o", "", "output file (default <run-id>.png)")
	exportPNGCmd.Flags().BoolVar(&pngSpectrum, "spectrum", false, "plot the power spectrum instead of the series")
	analyzeCmd.Flags().BoolVar(&phaseView, "phase", false, "also draw the phase portrait and plate section")
}

func loadRun(runID string) (*storage.RunMetadata, []metrics.Sample, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	samples, err := st.LoadSeries(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("run %s has no samples", runID)
	}
	return meta, samples, nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, m[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEXP\tTIME\tSTEPS\tDT\tGRAINS\tAMP\tPERIOD")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2g\t%d\t%.3g\t%.3g\n",
			run.ID,
			run.Experiment,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Dt,
			run.Particles,
			run.Amplitude,
			run.Period,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("experiment: %s\n", meta.Experiment)
	fmt.Printf("samples: %d\n\n", len(samples))

	series := []struct {
		caption string
		field   func(metrics.Sample) float64
	}{
		{"mean bed height", func(s metrics.Sample) float64 { return s.MeanHeight }},
		{"plate height", func(s metrics.Sample) float64 { return s.PlateZ }},
		{"kinetic energy", func(s metrics.Sample) float64 { return s.KineticEnergy }},
		{"contacts", func(s metrics.Sample) float64 { return float64(s.Contacts) }},
	}
	for _, sr := range series {
		graph := asciigraph.Plot(metrics.Column(samples, sr.field),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(sr.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	samples, err := storage.New(dataDir).LoadSeries(args[0])
	if err != nil {
		return err
	}
	return storage.WriteSeries(os.Stdout, samples)
}

func sampleDt(samples []metrics.Sample) float64 {
	if len(samples) < 2 {
		return 0
	}
	return samples[1].Time - samples[0].Time
}

func exportPNG(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}

	p, err := export.SeriesPlot(samples, meta.ID)
	if pngSpectrum {
		var s analysis.Spectrum
		s, err = analysis.PowerSpectrum(metrics.Column(samples, func(s metrics.Sample) float64 { return s.MeanHeight }), sampleDt(samples))
		if err != nil {
			return err
		}
		p, err = export.SpectrumPlot(s, meta.ID+" spectrum")
	}
	if err != nil {
		return err
	}

	out := pngOut
	if out == "" {
		out = filepath.Clean(meta.ID + ".png")
	}
	if err := export.SavePNG(out, p, export.DefaultSize); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("experiment: %s\n\n", meta.Experiment)

	heights := metrics.Column(samples, func(s metrics.Sample) float64 { return s.MeanHeight })
	s, err := analysis.PowerSpectrum(heights, sampleDt(samples))
	if err != nil {
		return err
	}

	// bin 0 holds the removed mean
	plotData := s.Power[1:]
	if len(plotData) > 1 {
		fmt.Println(asciigraph.Plot(plotData,
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum (mean height)"),
		))
		fmt.Println()
	}

	freq, power := analysis.DominantFrequency(s)
	fmt.Printf("dominant frequency: %.3f hz (power %.3g)\n", freq, power)
	if freq > 0 {
		fmt.Printf("period: %.4f s\n", 1/freq)
	}
	if meta.Period > 0 {
		fmt.Printf("drive: %.3f hz, ratio %.3f\n", 1/meta.Period, analysis.Subharmonic(s, 1/meta.Period))
	}

	if phaseView {
		fmt.Println("\nphase portrait (height vs velocity):")
		fmt.Println(analysis.NewPhasePortrait(samples).ASCII(70, 20))
		baseline := 0.0
		if meta.Config != nil {
			baseline = meta.Config.BaseHeight
		}
		fmt.Println("\nsection at upward plate crossings:")
		fmt.Println(analysis.NewSection(samples, baseline).ASCII(70, 20))
	}
	return nil
}
