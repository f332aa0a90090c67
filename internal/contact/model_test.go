package contact

import (
	"math"
	"testing"

	"github.com/san-kum/demsim/internal/particle"
	"gonum.org/v1/gonum/spatial/r3"
)

const testDt = 1e-5

var stiff = particle.Material{
	Youngs:            1e6,
	Poisson:           0.3,
	Damping:           1e-3,
	Friction:          0.5,
	TangentialDamping: 50,
}

func ball(id int, pos r3.Vec) *particle.Particle {
	return particle.New(id, pos, particle.Props{Radius: 0.5, Mass: 1, Material: stiff})
}

func forceConstant(m particle.Material, r float64) float64 {
	return 2 * m.Youngs * math.Sqrt(r) / (3 * (1 - m.Poisson*m.Poisson))
}

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func vecNear(a, b r3.Vec, tol float64) bool {
	return near(a.X, b.X, tol) && near(a.Y, b.Y, tol) && near(a.Z, b.Z, tol)
}

func TestPair_NoOverlap(t *testing.T) {
	m := NewModel(Box{Lx: 10, Ly: 10, Lz: 10}, testDt)

	tests := []struct {
		name string
		b    r3.Vec
	}{
		{"apart on x", r3.Vec{X: 3.2, Y: 2, Z: 2}},
		{"touching exactly", r3.Vec{X: 3, Y: 2, Z: 2}},
		{"within per-axis box but not within sphere", r3.Vec{X: 2.8, Y: 2.8, Z: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ball(0, r3.Vec{X: 2, Y: 2, Z: 2})
			b := ball(1, tt.b)
			c, ok := m.Pair(a, b, r3.Vec{}, false)
			if ok {
				t.Fatalf("unexpected contact: %+v", c)
			}
			if c != (Contact{}) {
				t.Errorf("no-contact result should be zero, got %+v", c)
			}
		})
	}
}

func TestPair_AtRestRepulsion(t *testing.T) {
	m := NewModel(Box{Lx: 10, Ly: 10, Lz: 10}, testDt)
	a := ball(0, r3.Vec{X: 1, Y: 1, Z: 1})
	b := ball(1, r3.Vec{X: 1.9, Y: 1, Z: 1})

	c, ok := m.Pair(a, b, r3.Vec{}, false)
	if !ok {
		t.Fatal("expected contact for centres 0.9 apart with radii 0.5")
	}

	xi := 0.1
	wantFn := forceConstant(stiff, 0.5) * xi * math.Sqrt(xi)
	if !near(c.Overlap, xi, 1e-12) {
		t.Errorf("Overlap = %v, want %v", c.Overlap, xi)
	}
	if !near(c.NormalForce, wantFn, 1e-9*wantFn) {
		t.Errorf("NormalForce = %v, want %v", c.NormalForce, wantFn)
	}
	if c.TangentialForce != 0 {
		t.Errorf("TangentialForce = %v, want 0 at rest", c.TangentialForce)
	}
	if c.Normal != (r3.Vec{X: -1}) {
		t.Errorf("Normal = %v, want -x", c.Normal)
	}
	if c.Force.X >= 0 || c.Force.Y != 0 || c.Force.Z != 0 {
		t.Errorf("force on a = %v, want pure -x", c.Force)
	}
	if c.Torque != (r3.Vec{}) {
		t.Errorf("Torque = %v, want zero for a central force", c.Torque)
	}
	if c.Spring != (r3.Vec{}) {
		t.Errorf("Spring = %v, want zero without sliding", c.Spring)
	}
}

func TestPair_MinimumImage(t *testing.T) {
	m := NewModel(Box{Lx: 10, Ly: 10, Lz: 10}, testDt)
	a := ball(0, r3.Vec{X: 0.2, Y: 5, Z: 5})
	b := ball(1, r3.Vec{X: 9.9, Y: 5, Z: 5})

	c, ok := m.Pair(a, b, r3.Vec{}, false)
	if !ok {
		t.Fatal("expected contact across the periodic x boundary")
	}
	if !near(c.Overlap, 0.7, 1e-9) {
		t.Errorf("Overlap = %v, want 0.7", c.Overlap)
	}
	if !vecNear(c.Normal, r3.Vec{X: 1}, 1e-12) {
		t.Errorf("Normal = %v, want +x", c.Normal)
	}
}

func TestPair_TangentialSlip(t *testing.T) {
	m := NewModel(Box{Lx: 10, Ly: 10, Lz: 10}, testDt)
	a := ball(0, r3.Vec{X: 1, Y: 1, Z: 1})
	b := ball(1, r3.Vec{X: 1.9, Y: 1, Z: 1})
	a.R[1] = r3.Vec{Y: 0.1}

	c, ok := m.Pair(a, b, r3.Vec{}, false)
	if !ok {
		t.Fatal("expected contact")
	}

	wantSpring := r3.Vec{Y: 0.1 * testDt}
	if !vecNear(c.Spring, wantSpring, 1e-18) {
		t.Errorf("Spring = %v, want %v", c.Spring, wantSpring)
	}
	wantFt := -stiff.TangentialDamping * 0.1 * testDt
	if !near(c.TangentialForce, wantFt, 1e-15) {
		t.Errorf("TangentialForce = %v, want %v", c.TangentialForce, wantFt)
	}
	if c.Force.Y >= 0 {
		t.Errorf("tangential component %v should oppose the +y slip", c.Force.Y)
	}
	if c.Torque != r3.Cross(c.Force, c.Normal) {
		t.Errorf("Torque = %v, want Force x Normal = %v", c.Torque, r3.Cross(c.Force, c.Normal))
	}
	if c.Torque == (r3.Vec{}) {
		t.Error("sliding contact should produce torque")
	}
}

func TestPair_SpringAccumulatesFromPrevious(t *testing.T) {
	m := NewModel(Box{Lx: 10, Ly: 10, Lz: 10}, testDt)
	a := ball(0, r3.Vec{X: 1, Y: 1, Z: 1})
	b := ball(1, r3.Vec{X: 1.9, Y: 1, Z: 1})
	a.R[1] = r3.Vec{Z: 0.2}

	prev := r3.Vec{Z: 3e-6}
	c, _ := m.Pair(a, b, prev, true)
	if !vecNear(c.Spring, r3.Vec{Z: 3e-6 + 0.2*testDt}, 1e-18) {
		t.Errorf("seeded Spring = %v", c.Spring)
	}

	c, _ = m.Pair(a, b, prev, false)
	if !vecNear(c.Spring, r3.Vec{Z: 0.2 * testDt}, 1e-18) {
		t.Errorf("unseeded Spring = %v, previous value must be ignored", c.Spring)
	}
}

func TestPair_CoulombCap(t *testing.T) {
	m := NewModel(Box{Lx: 10, Ly: 10, Lz: 10}, testDt)
	a := ball(0, r3.Vec{X: 1, Y: 1, Z: 1})
	b := ball(1, r3.Vec{X: 1.9, Y: 1, Z: 1})
	a.R[1] = r3.Vec{Y: 1}

	c, _ := m.Pair(a, b, r3.Vec{Y: 1e6}, true)
	if !near(c.TangentialForce, -stiff.Friction*c.NormalForce, 1e-9*c.NormalForce) {
		t.Errorf("TangentialForce = %v, want capped at %v", c.TangentialForce, -stiff.Friction*c.NormalForce)
	}
}

func TestPair_NormalForceNeverAttractive(t *testing.T) {
	m := NewModel(Box{Lx: 10, Ly: 10, Lz: 10}, testDt)
	soft := stiff
	soft.Damping = 10
	a := particle.New(0, r3.Vec{X: 1, Y: 1, Z: 1}, particle.Props{Radius: 0.5, Mass: 1, Material: soft})
	b := particle.New(1, r3.Vec{X: 1.9, Y: 1, Z: 1}, particle.Props{Radius: 0.5, Mass: 1, Material: soft})
	a.R[1] = r3.Vec{X: -50}

	c, ok := m.Pair(a, b, r3.Vec{}, false)
	if !ok {
		t.Fatal("expected contact")
	}
	if c.NormalForce != 0 {
		t.Errorf("NormalForce = %v, want clamped to 0 for fast separation", c.NormalForce)
	}
	if c.Force != (r3.Vec{}) {
		t.Errorf("Force = %v, want zero", c.Force)
	}
}

func TestPair_SpinOnlyTangent(t *testing.T) {
	m := NewModel(Box{Lx: 10, Ly: 10, Lz: 10}, testDt)
	a := ball(0, r3.Vec{X: 1, Y: 1, Z: 1})
	b := ball(1, r3.Vec{X: 1.9, Y: 1, Z: 1})
	a.W[1] = r3.Vec{Z: 2}

	c, _ := m.Pair(a, b, r3.Vec{}, false)
	// (r1*w) x n = (0,0,1) x (-1,0,0) = (0,-1,0), so vt = (0,1,0).
	if !vecNear(c.Spring, r3.Vec{Y: testDt}, 1e-18) {
		t.Errorf("Spring = %v, want spin-driven slip along +y", c.Spring)
	}
}

func TestPlate_Contact(t *testing.T) {
	m := NewModel(Box{Lx: 10, Ly: 10, Lz: 10}, testDt)
	baseMat := stiff
	baseMat.Youngs = 3e6
	baseMat.Damping = 3e-3
	p := ball(0, r3.Vec{X: 1, Y: 1, Z: 0.95})
	b := particle.New(0, r3.Vec{X: 1, Y: 1}, particle.Props{Radius: 0.5, Mass: 1, Material: baseMat})

	c, ok := m.Plate(p, b, 0, 0.1, r3.Vec{}, false)
	if !ok {
		t.Fatal("expected plate contact")
	}

	E := 1e6 * 3e6 / (1e6 + 3e6)
	nu := 0.3
	A := 0.5 * (1e-3 + 3e-3)
	k := 2 * E * math.Sqrt(0.5) / (3 * (1 - nu*nu))
	xi := 0.05
	want := k*xi*math.Sqrt(xi) + k*A*math.Sqrt(xi)*0.1
	if !near(c.NormalForce, want, 1e-9*want) {
		t.Errorf("NormalForce = %v, want %v", c.NormalForce, want)
	}
	if !vecNear(c.Normal, r3.Vec{Z: 1}, 1e-12) {
		t.Errorf("Normal = %v, want +z", c.Normal)
	}
	if c.Force.Z <= 0 {
		t.Errorf("plate should push the particle up, got %v", c.Force)
	}
}

func TestPlate_FollowsPlateHeight(t *testing.T) {
	m := NewModel(Box{Lx: 10, Ly: 10, Lz: 10}, testDt)
	p := ball(0, r3.Vec{X: 1, Y: 1, Z: 1.95})
	b := ball(0, r3.Vec{X: 1, Y: 1})

	if _, ok := m.Plate(p, b, 0, 0, r3.Vec{}, false); ok {
		t.Error("no contact expected with the plate at z=0")
	}
	if _, ok := m.Plate(p, b, 1, 0, r3.Vec{}, false); !ok {
		t.Error("contact expected once the plate rises to z=1")
	}
}

func TestPlate_PeriodicImage(t *testing.T) {
	m := NewModel(Box{Lx: 10, Ly: 10, Lz: 10}, testDt)
	p := ball(0, r3.Vec{X: 0.1, Y: 1, Z: 0.9})

	across, ok := m.Plate(p, ball(0, r3.Vec{X: 9.9, Y: 1}), 0, 0, r3.Vec{}, false)
	if !ok {
		t.Fatal("plate particle across the x seam should touch")
	}
	direct, ok := m.Plate(p, ball(0, r3.Vec{X: -0.1, Y: 1}), 0, 0, r3.Vec{}, false)
	if !ok {
		t.Fatal("expected contact with the unwrapped site")
	}
	if !vecNear(across.Force, direct.Force, 1e-12) {
		t.Errorf("wrapped site force %v, unwrapped %v", across.Force, direct.Force)
	}

	q := ball(1, r3.Vec{X: 1, Y: 9.95, Z: 0.9})
	if _, ok := m.Plate(q, ball(0, r3.Vec{X: 1, Y: 0.05}), 0, 0, r3.Vec{}, false); !ok {
		t.Error("plate particle across the y seam should touch")
	}
}

func BenchmarkPair(b *testing.B) {
	m := NewModel(Box{Lx: 10, Ly: 10, Lz: 10}, testDt)
	p1 := ball(0, r3.Vec{X: 1, Y: 1, Z: 1})
	p2 := ball(1, r3.Vec{X: 1.9, Y: 1.1, Z: 1})
	p1.R[1] = r3.Vec{Y: 0.1}
	var s r3.Vec

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c, _ := m.Pair(p1, p2, s, true)
		s = c.Spring
	}
}
