package neighbor

import (
	"math"

	"github.com/san-kum/demsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Static indexes the plate particles once. Stored positions are wrapped
// into the box on insertion; queries are wrapped the same way.
type Static struct {
	lattice
	cells [][]int
	n     int
}

// NewStatic builds the plate grid. The cell edge is at least √2·rBase and
// the reach covers rmax+rBase, the largest centre distance at which a
// mobile particle can touch a plate particle.
func NewStatic(lx, ly, rBase, rmax float64, pos []r3.Vec) (*Static, error) {
	l, err := newLattice(lx, ly, math.Sqrt2*rBase, rmax+rBase)
	if err != nil {
		return nil, err
	}
	s := &Static{lattice: l, cells: make([][]int, l.size()), n: len(pos)}
	for i, p := range pos {
		c, ok := s.cell(dynamo.Wrap(p.X, lx), dynamo.Wrap(p.Y, ly))
		if !ok {
			// Wrap only fails on non-finite input.
			continue
		}
		s.cells[c] = append(s.cells[c], i)
	}
	return s, nil
}

// Near appends to dst the plate slots in the neighbourhood of (x, y) and
// returns the extended slice.
func (s *Static) Near(x, y float64, dst []int) []int {
	c, ok := s.cell(dynamo.Wrap(x, s.lx), dynamo.Wrap(y, s.ly))
	if !ok {
		return dst
	}
	s.around(c, func(cell int) {
		dst = append(dst, s.cells[cell]...)
	})
	return dst
}

func (s *Static) Len() int { return s.n }
