package analysis

import (
	"strings"

	"github.com/san-kum/demsim/internal/metrics"
)

type Point struct{ X, Y float64 }

// PhasePortrait holds (mean height, d/dt mean height) pairs.
type PhasePortrait struct {
	Points []Point
}

// NewPhasePortrait differentiates the mean-height column of samples with
// central differences. End points use one-sided differences.
func NewPhasePortrait(samples []metrics.Sample) *PhasePortrait {
	n := len(samples)
	p := &PhasePortrait{Points: make([]Point, 0, n)}
	if n < 2 {
		return p
	}
	for i := range samples {
		lo, hi := i-1, i+1
		if lo < 0 {
			lo = 0
		}
		if hi >= n {
			hi = n - 1
		}
		dt := samples[hi].Time - samples[lo].Time
		if dt <= 0 {
			continue
		}
		p.Points = append(p.Points, Point{
			X: samples[i].MeanHeight,
			Y: (samples[hi].MeanHeight - samples[lo].MeanHeight) / dt,
		})
	}
	return p
}

// NewSection keeps the portrait points at which the plate rises through
// baseline, one per drive cycle.
func NewSection(samples []metrics.Sample, baseline float64) *PhasePortrait {
	full := NewPhasePortrait(samples)
	if len(full.Points) != len(samples) {
		return &PhasePortrait{}
	}
	s := &PhasePortrait{}
	for i := 1; i < len(samples); i++ {
		if samples[i-1].PlateZ < baseline && samples[i].PlateZ >= baseline {
			s.Points = append(s.Points, full.Points[i])
		}
	}
	return s
}

// ASCII renders the portrait on a width×height character grid with axes
// drawn where zero is in view.
func (p *PhasePortrait) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 {
		return "no points"
	}
	c := newCanvas(width, height, p.Points, 0.1)
	if c == nil {
		return ""
	}
	c.axes()
	for _, pt := range p.Points {
		c.set(pt.X, pt.Y, '•')
	}
	return c.String()
}

type canvas struct {
	cells      [][]rune
	minX, maxX float64
	minY, maxY float64
}

func newCanvas(width, height int, pts []Point, pad float64) *canvas {
	if width <= 0 || height <= 0 || len(pts) == 0 {
		return nil
	}
	c := &canvas{minX: pts[0].X, maxX: pts[0].X, minY: pts[0].Y, maxY: pts[0].Y}
	for _, pt := range pts[1:] {
		c.minX, c.maxX = min(c.minX, pt.X), max(c.maxX, pt.X)
		c.minY, c.maxY = min(c.minY, pt.Y), max(c.maxY, pt.Y)
	}
	spanX, spanY := c.maxX-c.minX, c.maxY-c.minY
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}
	c.minX -= spanX * pad
	c.maxX += spanX * pad
	c.minY -= spanY * pad
	c.maxY += spanY * pad

	c.cells = make([][]rune, height)
	for i := range c.cells {
		c.cells[i] = []rune(strings.Repeat(" ", width))
	}
	return c
}

func (c *canvas) col(x float64) int {
	w := len(c.cells[0])
	return int((x - c.minX) / (c.maxX - c.minX) * float64(w-1))
}

func (c *canvas) row(y float64) int {
	h := len(c.cells)
	return h - 1 - int((y-c.minY)/(c.maxY-c.minY)*float64(h-1))
}

func (c *canvas) put(row, col int, r rune) {
	if row >= 0 && row < len(c.cells) && col >= 0 && col < len(c.cells[row]) {
		c.cells[row][col] = r
	}
}

func (c *canvas) set(x, y float64, r rune) { c.put(c.row(y), c.col(x), r) }

func (c *canvas) axes() {
	if c.minX <= 0 && c.maxX >= 0 {
		col := c.col(0)
		for row := range c.cells {
			c.put(row, col, '│')
		}
	}
	if c.minY <= 0 && c.maxY >= 0 {
		row := c.row(0)
		for col := range c.cells[0] {
			c.put(row, col, '─')
		}
	}
}

func (c *canvas) String() string {
	var sb strings.Builder
	for _, r := range c.cells {
		sb.WriteString(string(r))
		sb.WriteByte('\n')
	}
	return sb.String()
}
