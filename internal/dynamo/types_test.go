package dynamo

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestMinImage(t *testing.T) {
	tests := []struct {
		d, L, want float64
	}{
		{0.3, 10, 0.3},
		{9.7, 10, -0.3},
		{-9.7, 10, 0.3},
		{5, 10, -5},
		{-5, 10, -5},
		{23, 10, 3},
		{4, 0, 4},
	}

	for _, tt := range tests {
		if got := MinImage(tt.d, tt.L); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("MinImage(%v, %v) = %v, want %v", tt.d, tt.L, got, tt.want)
		}
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		x, L, want float64
	}{
		{0, 10, 0},
		{10, 10, 0},
		{10.25, 10, 0.25},
		{-0.25, 10, 9.75},
		{-20.5, 10, 9.5},
	}

	for _, tt := range tests {
		got := Wrap(tt.x, tt.L)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Wrap(%v, %v) = %v, want %v", tt.x, tt.L, got, tt.want)
		}
		if got < 0 || got >= tt.L {
			t.Errorf("Wrap(%v, %v) = %v outside [0, L)", tt.x, tt.L, got)
		}
	}
}

func TestFinite(t *testing.T) {
	if !Finite(r3.Vec{X: 1, Y: 2, Z: 3}) {
		t.Error("finite vector reported as non-finite")
	}
	if Finite(r3.Vec{X: math.NaN()}) {
		t.Error("NaN vector reported as finite")
	}
}

func TestClamp(t *testing.T) {
	if Clamp(5, -1, 1) != 1 || Clamp(-5, -1, 1) != -1 || Clamp(0.5, -1, 1) != 0.5 {
		t.Error("Clamp returned a value outside the requested bounds")
	}
}

func TestShards_CoverEveryIndexOnce(t *testing.T) {
	for _, workers := range []int{1, 2, 3, 8} {
		n := 103
		hits := make([]int32, n)
		used := Shards(n, workers, 4, func(shard, start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		if used != ShardCount(n, workers, 4) {
			t.Errorf("workers=%d: Shards used %d, ShardCount says %d", workers, used, ShardCount(n, workers, 4))
		}
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("workers=%d: index %d visited %d times", workers, i, h)
			}
		}
	}
}

func TestShards_SmallInputRunsInline(t *testing.T) {
	calls := 0
	used := Shards(3, 8, 16, func(shard, start, end int) {
		calls++
		if shard != 0 || start != 0 || end != 3 {
			t.Errorf("unexpected shard %d [%d, %d)", shard, start, end)
		}
	})
	if used != 1 || calls != 1 {
		t.Errorf("expected a single inline shard, got used=%d calls=%d", used, calls)
	}
}

func TestSimError(t *testing.T) {
	err := SimError{Time: 1.5, Step: 150, Particle: 3, Message: "non-finite position"}
	expected := "step 150 (t=1.500000) particle 3: non-finite position"
	if err.Error() != expected {
		t.Errorf("SimError.Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, ErrInvalidState) {
		t.Error("SimError should unwrap to ErrInvalidState")
	}
}

func TestInvariantfPanicsWithSentinel(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrIndexInvariant) {
			t.Fatalf("expected panic wrapping ErrIndexInvariant, got %v", r)
		}
	}()
	Invariantf("owner %d not registered", 7)
}
