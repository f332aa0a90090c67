package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/san-kum/demsim/internal/engine"
	"github.com/san-kum/demsim/internal/viz"
)

// SnapshotSVG draws s seen along y, one circle per atom, scale pixels per
// length unit. The frame spans the box width and the window height.
func SnapshotSVG(w io.Writer, s engine.Snapshot, win viz.Window, scale float64) error {
	width := s.World.Lx * scale
	height := (win.ZMax - win.ZMin) * scale
	if !(width > 0) || !(height > 0) {
		return fmt.Errorf("export: empty svg frame %gx%g: %w", width, height, errNoData)
	}
	px := func(x float64) float64 { return x * scale }
	pz := func(z float64) float64 { return height - (z-win.ZMin)*scale }

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.2f %.2f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	group := func(fill string, atoms []engine.Atom) {
		fmt.Fprintf(bw, "<g fill=%q>\n", fill)
		for _, a := range atoms {
			fmt.Fprintf(bw, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\"/>\n", px(a.Pos.X), pz(a.Pos.Z), a.Radius*scale)
		}
		bw.WriteString("</g>\n")
	}
	group("#8a8a9a", s.Plate)
	group("#e8c87a", s.Particles)
	bw.WriteString("</svg>\n")
	return bw.Flush()
}
