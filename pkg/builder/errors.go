package builder

import (
	"errors"
	"fmt"
)

// ErrNoEligibleResource is the sentinel wrapped by NoEligibleResourceError.
var ErrNoEligibleResource = errors.New("builder: no resource provides a required capability")

// NoEligibleResourceError reports that a route step's capability is
// provided by no resource in the request — a build-time failure, not a
// solve-time one: the model is never handed to the solver.
type NoEligibleResourceError struct {
	Product    string
	RouteIndex int
	Capability string
}

func (e *NoEligibleResourceError) Error() string {
	return fmt.Sprintf("builder: product %q route step %d requires capability %q, which no resource provides",
		e.Product, e.RouteIndex, e.Capability)
}

func (e *NoEligibleResourceError) Unwrap() error {
	return ErrNoEligibleResource
}
