package neighbor

import (
	"fmt"
	"math"

	"github.com/san-kum/demsim/internal/dynamo"
)

// lattice is the cell geometry shared by both grids. The box length on
// each axis is split into n equal cells no smaller than the requested
// edge, so wrapped cell indices tile the box exactly.
type lattice struct {
	lx, ly float64
	nx, ny int
	wx, wy float64
	kx, ky int

	// unique wrapped offsets in [0, n) covering -k..k
	xs, ys []int
}

func newLattice(lx, ly, edge, span float64) (lattice, error) {
	if !(lx > 0) || !(ly > 0) || math.IsInf(lx, 0) || math.IsInf(ly, 0) {
		return lattice{}, fmt.Errorf("%w: box %gx%g", dynamo.ErrParameterBounds, lx, ly)
	}
	if !(edge > 0) || math.IsInf(edge, 0) {
		return lattice{}, fmt.Errorf("%w: cell edge %g", dynamo.ErrParameterBounds, edge)
	}
	if span < 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		return lattice{}, fmt.Errorf("%w: search span %g", dynamo.ErrParameterBounds, span)
	}

	l := lattice{lx: lx, ly: ly}
	l.nx = max(int(lx/edge), 1)
	l.ny = max(int(ly/edge), 1)
	l.wx = lx / float64(l.nx)
	l.wy = ly / float64(l.ny)
	l.kx = int(span/l.wx) + 1
	l.ky = int(span/l.wy) + 1
	l.xs = wrappedOffsets(l.kx, l.nx)
	l.ys = wrappedOffsets(l.ky, l.ny)
	return l, nil
}

func wrappedOffsets(k, n int) []int {
	seen := make(map[int]bool, 2*k+1)
	out := make([]int, 0, min(2*k+1, n))
	for d := -k; d <= k; d++ {
		w := ((d % n) + n) % n
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

// cell returns the flat cell index of (x, y), or false when the point
// lies outside [0, lx) x [0, ly).
func (l *lattice) cell(x, y float64) (int, bool) {
	if !(x >= 0 && x < l.lx && y >= 0 && y < l.ly) {
		return -1, false
	}
	cx := min(int(x/l.wx), l.nx-1)
	cy := min(int(y/l.wy), l.ny-1)
	return cy*l.nx + cx, true
}

// around calls fn for every distinct cell within reach of c.
func (l *lattice) around(c int, fn func(cell int)) {
	cx, cy := c%l.nx, c/l.nx
	for _, oy := range l.ys {
		row := ((cy + oy) % l.ny) * l.nx
		for _, ox := range l.xs {
			fn(row + (cx+ox)%l.nx)
		}
	}
}

func (l *lattice) size() int { return l.nx * l.ny }
