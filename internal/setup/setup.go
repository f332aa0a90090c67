// Package setup builds the initial bed: a hexagonal layer of particles
// seeded at a given area fraction above a hexagonal plate lattice with
// periodic dimples.
package setup

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/demsim/internal/config"
	"github.com/san-kum/demsim/internal/dynamo"
	"github.com/san-kum/demsim/internal/particle"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// Bed is the initial state handed to the engine.
type Bed struct {
	Particles      []*particle.Particle
	PlateParticles []*particle.Particle
	Lx, Ly, Lz     float64
}

// AdjustBox widens lx to an odd number of dimple spacings and ly to an
// even number of dimple rows, so the dimple lattice is periodic.
func AdjustBox(lx, ly, spacing float64) (float64, float64) {
	dy := spacing * math.Sqrt(3) / 2

	nx := int(math.Ceil(lx / spacing))
	if nx%2 == 0 {
		nx++
	}
	ny := int(math.Ceil(ly / dy))
	if ny%2 == 1 {
		ny++
	}
	return spacing * float64(nx), dy * float64(ny)
}

// Particles fills a hexagonal lattice of touching balls at ball_height,
// keeping each site with probability area_fraction.
func Particles(cfg *config.Config, rng *rand.Rand) []*particle.Particle {
	props := cfg.BallProps()
	dx := 2 * props.Radius
	dy := math.Sqrt(3) * props.Radius
	nx := int(math.Floor(cfg.Lx/dx)) - 1
	ny := int(math.Floor(cfg.Ly/dy)) - 1

	var out []*particle.Particle
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			if rng.Float64() >= cfg.AreaFraction {
				continue
			}
			pos := r3.Vec{
				X: float64(i)*dx + float64(j%2)*dx/2,
				Y: float64(j) * dy,
				Z: cfg.BallHeight,
			}
			out = append(out, particle.New(len(out), pos, props))
		}
	}
	return out
}

// PlateParticles covers the box with a hexagonal lattice of plate
// particles at zero offset. Sites past the box edge are wrapped back in
// and dropped when they land on an existing site.
func PlateParticles(cfg *config.Config) []*particle.Particle {
	props := cfg.BaseProps()
	dx := 2 * props.Radius
	dy := math.Sqrt(3) * props.Radius
	nx := int(math.Floor(cfg.Lx / dx))
	ny := int(math.Floor(cfg.Ly / dy))

	type site struct{ x, y int64 }
	quantum := props.Radius * 1e-6
	seen := make(map[site]bool)

	var out []*particle.Particle
	for i := 0; i <= nx; i++ {
		for j := 0; j <= ny; j++ {
			x := dynamo.Wrap(float64(i)*dx+float64(j%2)*dx/2, cfg.Lx)
			y := dynamo.Wrap(float64(j)*dy, cfg.Ly)
			key := site{int64(math.Round(x / quantum)), int64(math.Round(y / quantum))}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, particle.New(len(out), r3.Vec{X: x, Y: y}, props))
		}
	}
	return out
}

// CarveDimples lowers every plate particle within dimple_radius of a
// dimple centre by dimple_depth. A particle is lowered at most once. It
// returns the number of carved particles.
func CarveDimples(plate []*particle.Particle, cfg *config.Config) int {
	if len(plate) == 0 || cfg.DimpleDepth == 0 || cfg.DimpleRadius <= 0 {
		return 0
	}

	pts := make(kdtree.Points, len(plate))
	slot := make(map[*float64]int, len(plate))
	for i, p := range plate {
		pt := kdtree.Point{p.R[0].X, p.R[0].Y}
		pts[i] = pt
		slot[&pt[0]] = i
	}
	tree := kdtree.New(pts, false)

	carved := make([]bool, len(plate))
	n := 0
	r2 := cfg.DimpleRadius * cfg.DimpleRadius
	for _, c := range DimpleCentres(cfg) {
		// centres near an edge also reach plate particles across it
		for _, sx := range []float64{-cfg.Lx, 0, cfg.Lx} {
			for _, sy := range []float64{-cfg.Ly, 0, cfg.Ly} {
				q := kdtree.Point{c.X + sx, c.Y + sy}
				keep := kdtree.NewDistKeeper(r2)
				tree.NearestSet(keep, q)
				for _, hit := range keep.Heap {
					if hit.Comparable == nil {
						continue
					}
					i := slot[&hit.Comparable.(kdtree.Point)[0]]
					if carved[i] {
						continue
					}
					carved[i] = true
					plate[i].Lower(cfg.DimpleDepth)
					n++
				}
			}
		}
	}
	return n
}

// DimpleCentres returns the hexagonal dimple lattice inside the box.
func DimpleCentres(cfg *config.Config) []r3.Vec {
	dx := cfg.DimpleSpacing
	dy := dx * math.Sqrt(3) / 2
	nx := int(math.Ceil(cfg.Lx / dx))
	ny := int(math.Ceil(cfg.Ly / dy))

	var out []r3.Vec
	for i := 0; i <= nx; i++ {
		for j := 0; j <= ny; j++ {
			x := float64(i)*dx + float64(j%2)*dx/2
			y := float64(j) * dy
			if x >= cfg.Lx || y >= cfg.Ly {
				continue
			}
			out = append(out, r3.Vec{X: x, Y: y})
		}
	}
	return out
}

// Build adjusts the box in cfg, then creates the particles, the plate and
// its dimples.
func Build(cfg *config.Config, rng *rand.Rand) (*Bed, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("setup: random source is required: %w", dynamo.ErrParameterBounds)
	}

	cfg.Lx, cfg.Ly = AdjustBox(cfg.Lx, cfg.Ly, cfg.DimpleSpacing)

	bed := &Bed{
		Particles:      Particles(cfg, rng),
		PlateParticles: PlateParticles(cfg),
		Lx:             cfg.Lx,
		Ly:             cfg.Ly,
		Lz:             cfg.Lz,
	}
	CarveDimples(bed.PlateParticles, cfg)
	return bed, nil
}

// NewRand returns the random source for a seed. Seed 0 draws a seed from
// the global source.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = rand.Int63()
	}
	return rand.New(rand.NewSource(seed))
}
