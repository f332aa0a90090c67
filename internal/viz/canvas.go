package viz

import (
	"math"
	"strings"
)

const blank = 0x2800

// Braille dot bits by sub-row and sub-column:
//
//	1 4
//	2 5
//	3 6
//	7 8
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of braille cells addressed in sub-pixels. It is
// Width*2 sub-pixels wide and Height*4 tall, y growing downwards.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Pixels returns the sub-pixel dimensions.
func (c *Canvas) Pixels() (int, int) { return c.Width * 2, c.Height * 4 }

func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

// IsSet reports whether the sub-pixel (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&pixelMap[y%4][x%2] != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// Line draws from (x0, y0) to (x1, y1) with Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Ellipse fills the ellipse centred on (cx, cy) with radii rx and ry in
// sub-pixels. Radii below half a pixel still light the centre.
func (c *Canvas) Ellipse(cx, cy, rx, ry float64) {
	rx, ry = math.Max(rx, 0.5), math.Max(ry, 0.5)
	for y := int(math.Floor(cy - ry)); y <= int(math.Ceil(cy+ry)); y++ {
		for x := int(math.Floor(cx - rx)); x <= int(math.Ceil(cx+rx)); x++ {
			u, v := (float64(x)-cx)/rx, (float64(y)-cy)/ry
			if u*u+v*v <= 1 {
				c.Set(x, y)
			}
		}
	}
	c.Set(int(math.Round(cx)), int(math.Round(cy)))
}

// Rows returns one string per cell row.
func (c *Canvas) Rows() []string {
	out := make([]string, len(c.Grid))
	for i, row := range c.Grid {
		out[i] = string(row)
	}
	return out
}

func (c *Canvas) String() string {
	return strings.Join(c.Rows(), "\n") + "\n"
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
