package neighbor

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Grid indexes mobile particles by slot. Partners(i) lists only slots
// greater than i, so every unordered pair is produced once.
type Grid struct {
	lattice
	cells    [][]int
	assigned []int
	partners [][]int
}

// NewGrid sizes a grid for a population with radii in [rmin, rmax]. The
// cell edge is at least √2·rmin and the reach covers 2·rmax.
func NewGrid(lx, ly, rmin, rmax float64) (*Grid, error) {
	l, err := newLattice(lx, ly, math.Sqrt2*rmin, 2*rmax)
	if err != nil {
		return nil, err
	}
	return &Grid{lattice: l, cells: make([][]int, l.size())}, nil
}

// Build assigns every in-box position to its cell and rebuilds the
// partner lists. Positions outside the box get no cell and no partners.
func (g *Grid) Build(pos []r3.Vec) {
	for c := range g.cells {
		g.cells[c] = g.cells[c][:0]
	}

	if cap(g.assigned) < len(pos) {
		g.assigned = make([]int, len(pos))
		g.partners = make([][]int, len(pos))
	}
	g.assigned = g.assigned[:len(pos)]
	g.partners = g.partners[:len(pos)]

	for i, p := range pos {
		c, ok := g.cell(p.X, p.Y)
		g.assigned[i] = c
		if ok {
			g.cells[c] = append(g.cells[c], i)
		}
	}

	for i, c := range g.assigned {
		list := g.partners[i][:0]
		if c >= 0 {
			g.around(c, func(cell int) {
				for _, j := range g.cells[cell] {
					if j > i {
						list = append(list, j)
					}
				}
			})
		}
		g.partners[i] = list
	}
}

// Partners returns the candidate slots of slot i from the last Build.
// The slice is owned by the grid and valid until the next Build.
func (g *Grid) Partners(i int) []int {
	return g.partners[i]
}

// Assigned reports whether slot i was inside the box at the last Build.
func (g *Grid) Assigned(i int) bool {
	return i < len(g.assigned) && g.assigned[i] >= 0
}

// Stale reports whether any position maps to a different cell than it did
// at the last Build, or the population size changed.
func (g *Grid) Stale(pos []r3.Vec) bool {
	if len(pos) != len(g.assigned) {
		return true
	}
	for i, p := range pos {
		c, _ := g.cell(p.X, p.Y)
		if c != g.assigned[i] {
			return true
		}
	}
	return false
}

// Pairs returns the number of candidate pairs from the last Build.
func (g *Grid) Pairs() int {
	n := 0
	for _, l := range g.partners {
		n += len(l)
	}
	return n
}

// Dims returns the cell counts on x and y.
func (g *Grid) Dims() (int, int) { return g.nx, g.ny }

// Reach returns the scanned cell offset on x and y.
func (g *Grid) Reach() (int, int) { return g.kx, g.ky }
