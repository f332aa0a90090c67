// Package export renders run results to image files: PNG plots of the
// observable series and SVG pictures of a bed snapshot.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/san-kum/demsim/internal/analysis"
	"github.com/san-kum/demsim/internal/dynamo"
	"github.com/san-kum/demsim/internal/metrics"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var errNoData = errors.New("export: nothing to plot")

var (
	heightColor = color.RGBA{R: 0xe8, G: 0x9c, B: 0x2a, A: 0xff}
	plateColor  = color.RGBA{R: 0x44, G: 0x66, B: 0x99, A: 0xff}
)

// Size of an exported PNG in inches and its resolution.
type Size struct {
	Width, Height float64
	DPI           int
}

var DefaultSize = Size{Width: 8, Height: 5, DPI: 150}

func tickerWith(maxLabels int, format string) plot.Ticker {
	maxLabels = max(maxLabels, 2)
	return plot.TickerFunc(func(lo, hi float64) []plot.Tick {
		if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return nil
		}
		if lo == hi {
			return []plot.Tick{{Value: lo, Label: fmt.Sprintf(format, lo)}}
		}
		step := (hi - lo) / float64(maxLabels-1)
		ticks := make([]plot.Tick, maxLabels)
		for i := range ticks {
			v := lo + float64(i)*step
			ticks[i] = plot.Tick{Value: v, Label: fmt.Sprintf(format, v)}
		}
		return ticks
	})
}

func newPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)
	p.X.Tick.Marker = tickerWith(8, "%.3g")
	p.Y.Tick.Marker = tickerWith(6, "%.3g")
	p.Add(plotter.NewGrid())
	return p
}

func line(xs, ys []float64, c color.Color) (*plotter.Line, error) {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X, pts[i].Y = xs[i], ys[i]
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	l.LineStyle.Width = vg.Points(1.5)
	l.LineStyle.Color = c
	return l, nil
}

// SeriesPlot plots the mean bed height and the plate height against time.
func SeriesPlot(samples []metrics.Sample, title string) (*plot.Plot, error) {
	if len(samples) == 0 {
		return nil, errNoData
	}
	t := metrics.Column(samples, func(s metrics.Sample) float64 { return s.Time })
	p := newPlot(title, "time (s)", "height")

	bed, err := line(t, metrics.Column(samples, func(s metrics.Sample) float64 { return s.MeanHeight }), heightColor)
	if err != nil {
		return nil, err
	}
	plate, err := line(t, metrics.Column(samples, func(s metrics.Sample) float64 { return s.PlateZ }), plateColor)
	if err != nil {
		return nil, err
	}
	p.Add(bed, plate)
	p.Legend.Add("mean height", bed)
	p.Legend.Add("plate", plate)
	p.Legend.Top = true
	return p, nil
}

// SpectrumPlot plots power against frequency on a logarithmic power axis.
// Bins with zero power are left out.
func SpectrumPlot(s analysis.Spectrum, title string) (*plot.Plot, error) {
	var fs, ps []float64
	for k := 1; k < len(s.Power); k++ {
		if s.Power[k] > 0 {
			fs = append(fs, s.Freq[k])
			ps = append(ps, s.Power[k])
		}
	}
	if len(fs) == 0 {
		return nil, errNoData
	}
	p := newPlot(title, "frequency (Hz)", "power")
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: 2}
	l, err := line(fs, ps, heightColor)
	if err != nil {
		return nil, err
	}
	p.Add(l)
	return p, nil
}

// WritePNG renders p to w.
func WritePNG(w io.Writer, p *plot.Plot, size Size) error {
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(size.Width)*vg.Inch, vg.Length(size.Height)*vg.Inch),
		vgimg.UseDPI(size.DPI),
	)
	p.Draw(draw.New(c))

	bw := bufio.NewWriter(w)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("export: png: %w", err)
	}
	return bw.Flush()
}

// SavePNG renders p to path, creating its directory.
func SavePNG(path string, p *plot.Plot, size Size) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: %w: %w", dynamo.ErrResourceUnavailable, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w: %w", dynamo.ErrResourceUnavailable, err)
	}
	if err := WritePNG(f, p, size); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
