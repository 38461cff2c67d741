package solver

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Callers distinguish them with errors.Is/errors.As
// rather than string matching.
var (
	// ErrInfeasible means the solver proved no schedule exists, or
	// returned no incumbent within the time budget. This is a normal,
	// user-visible outcome, not an internal error (spec.md §7).
	ErrInfeasible = errors.New("solver: no feasible schedule")

	// ErrSolverInternal means the underlying solver reported
	// MODEL_INVALID or an unrecognized terminal status. Fatal: it
	// indicates a bug in the model builder, not a property of the input.
	ErrSolverInternal = errors.New("solver: internal solver error")
)

// InfeasibleError carries the diagnostic list spec.md §4.4 requires: a set
// of plausible causes computed without re-solving, plus the generic
// fallback line.
type InfeasibleError struct {
	// Status is the raw CP-SAT terminal status name, e.g. "INFEASIBLE" or
	// "UNKNOWN" (for a timeout with no incumbent).
	Status string
	Why    []string
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("solver: infeasible (status=%s): %s", e.Status, e.Why[len(e.Why)-1])
}

func (e *InfeasibleError) Unwrap() error {
	return ErrInfeasible
}

// InternalError wraps an unexpected terminal status or a failure
// constructing/solving the CP model.
type InternalError struct {
	Status string
	Cause  error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("solver: internal error (status=%s): %v", e.Status, e.Cause)
	}
	return fmt.Sprintf("solver: internal error (status=%s)", e.Status)
}

func (e *InternalError) Unwrap() error {
	return ErrSolverInternal
}
