// Package dump writes trajectories in the LAMMPS text dump layout and
// per-particle CSV records.
package dump

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/demsim/internal/dynamo"
	"github.com/san-kum/demsim/internal/engine"
)

// CSVHeader is the column layout of per-particle records.
var CSVHeader = []string{"frame", "particle", "time", "x", "y", "z", "vx", "vy", "vz", "radius", "type"}

func unavailable(err error) error {
	return fmt.Errorf("dump: %w: %w", dynamo.ErrResourceUnavailable, err)
}

// WriteFrame writes one dump frame holding the particles, the plate
// atoms, or both.
func WriteFrame(w io.Writer, s engine.Snapshot, withParticles, withPlate bool) error {
	bw := bufio.NewWriter(w)

	n := 0
	if withParticles {
		n += len(s.Particles)
	}
	if withPlate {
		n += len(s.Plate)
	}

	fmt.Fprintf(bw, "ITEM: TIMESTEP\n%d\n", s.Step)
	fmt.Fprintf(bw, "ITEM: TIME\n%.8f\n", s.Time)
	fmt.Fprintf(bw, "ITEM: AMPLITUDE\n%.8f\n", s.Amplitude)
	fmt.Fprintf(bw, "ITEM: BOX BOUNDS pp pp f\n%.4f %.4f\n%.4f %.4f\n%.4f %.4f\n",
		0.0, s.World.Lx, 0.0, s.World.Ly, 0.0, s.World.Lz)
	fmt.Fprintf(bw, "ITEM: NUMBER OF ATOMS\n%d\n", n)
	fmt.Fprintf(bw, "ITEM: ATOMS x y z vx vy vz radius type\n")

	atoms := func(as []engine.Atom) {
		for _, a := range as {
			fmt.Fprintf(bw, "%.9f %.9f %.9f %.9f %.9f %.9f %.9f %d\n",
				a.Pos.X, a.Pos.Y, a.Pos.Z, a.Vel.X, a.Vel.Y, a.Vel.Z, a.Radius, int(a.Kind))
		}
	}
	if withParticles {
		atoms(s.Particles)
	}
	if withPlate {
		atoms(s.Plate)
	}

	if err := bw.Flush(); err != nil {
		return unavailable(err)
	}
	return nil
}

// CSV writes per-particle rows under CSVHeader.
type CSV struct {
	w *csv.Writer
}

// NewCSV writes the header and returns the writer.
func NewCSV(w io.Writer) (*CSV, error) {
	c := &CSV{w: csv.NewWriter(w)}
	if err := c.w.Write(CSVHeader); err != nil {
		return nil, unavailable(err)
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return nil, unavailable(err)
	}
	return c, nil
}

// WriteSnapshot writes one row per mobile particle of s.
func (c *CSV) WriteSnapshot(s engine.Snapshot) error {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 9, 64) }
	frame := strconv.Itoa(s.Step)
	t := f(s.Time)

	for i, a := range s.Particles {
		row := []string{
			frame, strconv.Itoa(i), t,
			f(a.Pos.X), f(a.Pos.Y), f(a.Pos.Z),
			f(a.Vel.X), f(a.Vel.Y), f(a.Vel.Z),
			f(a.Radius), strconv.Itoa(int(a.Kind)),
		}
		if err := c.w.Write(row); err != nil {
			return unavailable(err)
		}
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return unavailable(err)
	}
	return nil
}
