package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a particle state with NaN or Inf components.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrIndexInvariant indicates the neighbor index or contact tracker was
	// used out of order. It is raised by panic inside the core: it is a
	// defect, never a runtime condition.
	ErrIndexInvariant = errors.New("dynamo: index invariant violated")

	// ErrResourceUnavailable indicates an output destination could not be
	// written. Runs that must persist a trajectory stop on it.
	ErrResourceUnavailable = errors.New("dynamo: output resource unavailable")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.6f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// SimError reports a non-finite particle found by state validation.
type SimError struct {
	Time     float64
	Step     int
	Particle int
	Message  string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.6f) particle %d: %s", e.Step, e.Time, e.Particle, e.Message)
}

func (e SimError) Unwrap() error {
	return ErrInvalidState
}

// Invariantf panics with an error wrapping ErrIndexInvariant.
func Invariantf(format string, args ...any) {
	panic(fmt.Errorf("%w: %s", ErrIndexInvariant, fmt.Sprintf(format, args...)))
}
