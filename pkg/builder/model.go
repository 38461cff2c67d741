// Package builder translates a validated cdm.Request into a CP-SAT model:
// variables, constraints, and a tardiness-minimizing objective, following
// the optional-interval-plus-presence-literal idiom for alternative
// resources (the same idiom the teacher library's NewNoOverlap /
// FDSolver.Solve apply to its own finite-domain backend, reimplemented
// here against github.com/google/or-tools/ortools/sat/go/cpmodel).
package builder

import (
	"fmt"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	"go.uber.org/zap"

	"github.com/kestrel-systems/harmonysched/pkg/cdm"
	"github.com/kestrel-systems/harmonysched/pkg/timeutil"
)

// opVars bundles every decision variable and literal generated for one
// route step, keyed by the eligible resources of that step.
type opVars struct {
	capability     string
	durationMin    int
	start          cpmodel.IntVar
	end            cpmodel.IntVar
	resourceChoice cpmodel.IntVar
	eligible       []int // resource indices, input order
	presence       map[int]cpmodel.BoolVar
	interval       map[int]cpmodel.IntervalVar
}

// Model is the built CP-SAT model plus the bookkeeping needed to extract a
// solution back into cdm.Assignments once solved.
type Model struct {
	req          cdm.Request
	clock        timeutil.Clock
	horizonBound int

	cp *cpmodel.Builder

	// ops[productIndex][routeIndex]
	ops [][]opVars

	// tardiness[productIndex]
	tardiness []cpmodel.IntVar

	resourceIndex map[string]int
}

// Build constructs a Model from req. It returns a *NoEligibleResourceError
// if some route step's capability is provided by no resource — per
// spec.md §4.3, this is a build-time failure and the solver is never
// invoked.
func Build(req cdm.Request, clock timeutil.Clock, log *zap.Logger) (*Model, error) {
	if log == nil {
		log = zap.NewNop()
	}

	m := &Model{
		req:           req,
		clock:         clock,
		horizonBound:  clock.ToMinutes(req.Horizon.End),
		cp:            cpmodel.NewCpModelBuilder(),
		ops:           make([][]opVars, len(req.Products)),
		tardiness:     make([]cpmodel.IntVar, len(req.Products)),
		resourceIndex: make(map[string]int, len(req.Resources)),
	}
	for ri, r := range req.Resources {
		m.resourceIndex[r.ID] = ri
	}

	horizonDomain := cpmodel.NewDomain(0, int64(m.horizonBound))

	for pi, product := range req.Products {
		m.ops[pi] = make([]opVars, len(product.Route))
		for oi, op := range product.Route {
			vars, err := m.buildOperation(product, pi, op, oi, horizonDomain)
			if err != nil {
				return nil, err
			}
			m.ops[pi][oi] = vars
		}
		m.buildPrecedence(pi)
	}

	m.buildNoOverlap()
	m.buildObjective()

	log.Debug("built constraint model",
		zap.Int("products", len(req.Products)),
		zap.Int("resources", len(req.Resources)),
		zap.Int("horizon_bound_minutes", m.horizonBound),
	)

	return m, nil
}

func (m *Model) buildOperation(product cdm.Product, pi int, op cdm.Operation, oi int, horizonDomain cpmodel.Domain) (opVars, error) {
	eligible := make([]int, 0, len(m.req.Resources))
	for ri, r := range m.req.Resources {
		if r.HasCapability(op.Capability) {
			eligible = append(eligible, ri)
		}
	}
	if len(eligible) == 0 {
		return opVars{}, &NoEligibleResourceError{Product: product.ID, RouteIndex: oi, Capability: op.Capability}
	}

	start := m.cp.NewIntVarFromDomain(horizonDomain)
	end := m.cp.NewIntVarFromDomain(horizonDomain)
	m.cp.AddEquality(end, cpmodel.NewLinearExpr().AddTerm(start, 1).AddConstant(int64(op.DurationMinutes)))

	eligibleValues := make([]int64, len(eligible))
	for i, ri := range eligible {
		eligibleValues[i] = int64(ri)
	}
	resourceChoice := m.cp.NewIntVarFromDomain(cpmodel.NewDomainFromValues(eligibleValues))

	presence := make(map[int]cpmodel.BoolVar, len(eligible))
	interval := make(map[int]cpmodel.IntervalVar, len(eligible))

	for _, ri := range eligible {
		lit := m.cp.NewBoolVar()
		presence[ri] = lit

		m.cp.AddEquality(resourceChoice, cpmodel.NewConstant(int64(ri))).OnlyEnforceIf(lit)
		m.cp.AddNotEqual(resourceChoice, cpmodel.NewConstant(int64(ri))).OnlyEnforceIf(lit.Not())

		interval[ri] = m.cp.NewOptionalIntervalVar(start, cpmodel.NewConstant(int64(op.DurationMinutes)), end, lit)

		m.buildCalendarContainment(start, end, lit, m.req.Resources[ri].Calendar)
	}

	presenceLits := make([]cpmodel.BoolVar, 0, len(presence))
	for _, ri := range eligible {
		presenceLits = append(presenceLits, presence[ri])
	}
	m.cp.AddExactlyOne(presenceLits...)

	return opVars{
		capability:     op.Capability,
		durationMin:    op.DurationMinutes,
		start:          start,
		end:            end,
		resourceChoice: resourceChoice,
		eligible:       eligible,
		presence:       presence,
		interval:       interval,
	}, nil
}

// buildCalendarContainment adds, for one (operation, eligible resource)
// pair, one in-window literal per calendar window plus the implications
// that pin the interval inside whichever window is chosen, per spec.md
// §4.3's calendar containment rule.
func (m *Model) buildCalendarContainment(start, end cpmodel.IntVar, presence cpmodel.BoolVar, calendar []cdm.Window) {
	windowLits := make([]cpmodel.BoolVar, 0, len(calendar))
	for _, w := range calendar {
		lit := m.cp.NewBoolVar()
		windowLits = append(windowLits, lit)

		ws := int64(m.clock.ToMinutes(w.Start))
		we := int64(m.clock.ToMinutes(w.End))

		m.cp.AddGreaterOrEqual(start, cpmodel.NewConstant(ws)).OnlyEnforceIf(presence, lit)
		m.cp.AddLessOrEqual(end, cpmodel.NewConstant(we)).OnlyEnforceIf(presence, lit)
	}
	m.cp.AddBoolOr(windowLits...).OnlyEnforceIf(presence)
}

func (m *Model) buildPrecedence(pi int) {
	steps := m.ops[pi]
	for i := 0; i+1 < len(steps); i++ {
		m.cp.AddLessOrEqual(steps[i].end, steps[i+1].start)
	}
}

// buildNoOverlap constrains, per resource, the optional intervals of every
// operation eligible for it to be pairwise non-overlapping. Only present
// intervals participate — that's the defining semantics of an optional
// interval in CP-SAT.
func (m *Model) buildNoOverlap() {
	byResource := make(map[int][]cpmodel.IntervalVar)
	for _, steps := range m.ops {
		for _, v := range steps {
			for _, ri := range v.eligible {
				byResource[ri] = append(byResource[ri], v.interval[ri])
			}
		}
	}
	for _, intervals := range byResource {
		if len(intervals) > 1 {
			m.cp.AddNoOverlap(intervals...)
		}
	}
}

// buildObjective adds T[p] = max(0, completion(p) - due(p)) for each
// product and minimizes the sum, per spec.md §4.3.
func (m *Model) buildObjective() {
	sum := cpmodel.NewLinearExpr()
	zero := cpmodel.NewConstant(0)

	for pi, product := range m.req.Products {
		steps := m.ops[pi]
		completion := steps[len(steps)-1].end
		due := int64(m.clock.ToMinutes(product.Due))

		over := m.cp.NewIntVarFromDomain(cpmodel.NewDomain(int64(-m.horizonBound), int64(m.horizonBound)))
		m.cp.AddEquality(over, cpmodel.NewLinearExpr().AddTerm(completion, 1).AddConstant(-due))

		tardiness := m.cp.NewIntVarFromDomain(cpmodel.NewDomain(0, int64(m.horizonBound)))
		m.cp.AddMaxEquality(tardiness, []cpmodel.LinearArgument{zero, over})

		m.tardiness[pi] = tardiness
		sum.AddTerm(tardiness, 1)
	}

	m.cp.Minimize(sum)
}

// CPBuilder exposes the underlying cpmodel.Builder for the solver driver.
func (m *Model) CPBuilder() *cpmodel.Builder { return m.cp }

// Request returns the request this model was built from.
func (m *Model) Request() cdm.Request { return m.req }

// Clock returns the minute-axis clock this model was built with.
func (m *Model) Clock() timeutil.Clock { return m.clock }

// HorizonBound returns H, the inclusive upper bound of every time
// variable's domain.
func (m *Model) HorizonBound() int { return m.horizonBound }

// OperationVars describes the decision variables for one route step,
// returned to the solver driver for extraction.
type OperationVars struct {
	Product        string
	RouteIndex     int
	Capability     string
	DurationMin    int
	Start          cpmodel.IntVar
	End            cpmodel.IntVar
	ResourceChoice cpmodel.IntVar
	Eligible       []int
}

// AllOperations returns every route step's variables in deterministic
// order: products in input order, route index ascending — per spec.md §5's
// ordering requirement.
func (m *Model) AllOperations() []OperationVars {
	out := make([]OperationVars, 0)
	for pi, product := range m.req.Products {
		for oi, v := range m.ops[pi] {
			out = append(out, OperationVars{
				Product:        product.ID,
				RouteIndex:     oi,
				Capability:     v.capability,
				DurationMin:    v.durationMin,
				Start:          v.start,
				End:            v.end,
				ResourceChoice: v.resourceChoice,
				Eligible:       v.eligible,
			})
		}
	}
	return out
}

// ResourceAt returns the resource ID at index ri, or an error if out of
// range — used to translate a solved ResourceChoice value back to an ID.
func (m *Model) ResourceAt(ri int) (string, error) {
	if ri < 0 || ri >= len(m.req.Resources) {
		return "", fmt.Errorf("builder: resource index %d out of range", ri)
	}
	return m.req.Resources[ri].ID, nil
}

// withSequenceDependentSetup would insert req.ChangeoverMatrix minutes as a
// buffer between consecutive operations assigned to the same resource,
// enforcing changeover time as a hard constraint rather than reporting it
// as a KPI. Not called: the changeover matrix is reporting-only in this
// revision (spec.md §4.3, §9 Open Question). Left here, unexported and
// unused, as the extension point a future revision would wire in rather
// than reintroduce from scratch.
func (m *Model) withSequenceDependentSetup() {}
