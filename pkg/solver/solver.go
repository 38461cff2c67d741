// Package solver drives the CP-SAT solve: it hands a built model to
// github.com/google/or-tools/ortools/sat/go/cpmodel under a wall-clock
// budget, and turns the terminal status into either a solution or a
// structured diagnostic failure (spec.md §4.4, §7).
package solver

import (
	"context"
	"fmt"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	sppb "github.com/google/or-tools/ortools/sat/proto/satparameters"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"github.com/kestrel-systems/harmonysched/pkg/builder"
	"github.com/kestrel-systems/harmonysched/pkg/cdm"
)

// Solution is the extracted result of a successful solve.
type Solution struct {
	Assignments    []cdm.Assignment
	ObjectiveValue float64
}

// Solve runs model under its request's time_limit_seconds budget and
// returns the extracted assignments, or an *InfeasibleError / *InternalError
// on failure. Extraction is deterministic given the solver's assignment:
// operations are read back in the model's AllOperations order.
//
// The only blocking call in the core is this one, bounded by the time
// limit; a deadline on ctx shortens the budget cooperatively before the
// solve starts rather than aborting mid-solve, per spec.md §5. Only the
// deadline is read: cancelling a ctx that has none does not shorten the
// budget, and ctx is not consulted once the solve is running.
func Solve(ctx context.Context, model *builder.Model, log *zap.Logger) (Solution, error) {
	if log == nil {
		log = zap.NewNop()
	}

	cpModel, err := model.CPBuilder().Model()
	if err != nil {
		return Solution{}, &InternalError{Status: "MODEL_INVALID", Cause: err}
	}

	limit := remainingBudget(ctx, model.Request().Settings.TimeLimitSeconds)
	params := &sppb.SatParameters{
		MaxTimeInSeconds:  proto.Float64(limit),
		LogSearchProgress: proto.Bool(false),
	}

	response, err := cpmodel.SolveCpModelWithParameters(cpModel, params)
	if err != nil {
		return Solution{}, &InternalError{Status: "SOLVE_ERROR", Cause: err}
	}

	status := response.GetStatus()
	log.Debug("solve finished", zap.String("status", status.String()), zap.Float64("time_limit_seconds", limit))

	switch status {
	case cmpb.CpSolverStatus_OPTIMAL, cmpb.CpSolverStatus_FEASIBLE:
		return extract(model, response)
	case cmpb.CpSolverStatus_INFEASIBLE:
		return Solution{}, &InfeasibleError{Status: status.String(), Why: diagnose(model.Request(), model.Clock())}
	case cmpb.CpSolverStatus_MODEL_INVALID:
		return Solution{}, &InternalError{Status: status.String()}
	default:
		// Includes UNKNOWN (e.g. a timeout with no incumbent): treated as
		// an infeasibility-style diagnostic keyed by the status name, per
		// spec.md §4.4.
		return Solution{}, &InfeasibleError{Status: status.String(), Why: diagnose(model.Request(), model.Clock())}
	}
}

// remainingBudget returns the solver time budget in seconds, shortened to
// whatever wall-clock remains on ctx's deadline if that's sooner than the
// request's own limit — the cooperative cancel-token extension point
// spec.md §5 describes.
func remainingBudget(ctx context.Context, requestLimitSeconds int) float64 {
	limit := float64(requestLimitSeconds)
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := deadline.Sub(nowFunc()).Seconds(); remaining < limit {
			if remaining < 0 {
				remaining = 0
			}
			limit = remaining
		}
	}
	return limit
}

// nowFunc is a seam so tests can't be flaky on wall-clock timing; it is not
// otherwise overridden in production.
var nowFunc = defaultNow

func extract(model *builder.Model, response *cmpb.CpSolverResponse) (Solution, error) {
	clock := model.Clock()
	assignments := make([]cdm.Assignment, 0, len(model.AllOperations()))

	for _, op := range model.AllOperations() {
		ri := cpmodel.SolutionIntegerValue(response, op.ResourceChoice)
		resourceID, err := model.ResourceAt(int(ri))
		if err != nil {
			return Solution{}, &InternalError{Status: "EXTRACTION_ERROR", Cause: fmt.Errorf("product %q route step %d: %w", op.Product, op.RouteIndex, err)}
		}

		startMin := cpmodel.SolutionIntegerValue(response, op.Start)
		endMin := cpmodel.SolutionIntegerValue(response, op.End)

		assignments = append(assignments, cdm.Assignment{
			Product:    op.Product,
			Capability: op.Capability,
			Resource:   resourceID,
			Start:      clock.FromMinutes(int(startMin)),
			End:        clock.FromMinutes(int(endMin)),
		})
	}

	return Solution{Assignments: assignments, ObjectiveValue: response.GetObjectiveValue()}, nil
}
