// Package validator independently re-checks a solved schedule against its
// original request. It never calls pkg/builder — the whole point is to
// catch a bug in the constraint model by re-deriving the invariants a
// different way (spec.md §4.5).
package validator

import (
	"fmt"
	"sort"

	"github.com/kestrel-systems/harmonysched/pkg/cdm"
)

// Result is the validator's total output: Valid is true iff Violations is
// empty. The validator always runs every check, even after finding a
// violation, so a caller sees everything wrong with a schedule in one pass.
type Result struct {
	Valid      bool
	Violations []string
}

// Validate checks assignments against req and returns every violation
// found. Each violation string names the offending identifiers and times.
func Validate(req cdm.Request, assignments []cdm.Assignment) Result {
	var v []string

	resourceByID := make(map[string]cdm.Resource, len(req.Resources))
	for _, r := range req.Resources {
		resourceByID[r.ID] = r
	}

	v = append(v, checkResourceAndCapability(req, assignments, resourceByID)...)
	v = append(v, checkNoOverlap(assignments)...)
	v = append(v, checkPrecedence(req, assignments)...)
	v = append(v, checkCalendar(assignments, resourceByID)...)
	v = append(v, checkHorizon(req, assignments)...)

	return Result{Valid: len(v) == 0, Violations: v}
}

// checkResourceAndCapability verifies the referenced resource exists and
// provides the assignment's capability (spec.md §4.5 check 5).
func checkResourceAndCapability(req cdm.Request, assignments []cdm.Assignment, byID map[string]cdm.Resource) []string {
	var v []string
	for _, a := range assignments {
		r, ok := byID[a.Resource]
		if !ok {
			v = append(v, fmt.Sprintf("assignment for product %q: resource %q does not exist", a.Product, a.Resource))
			continue
		}
		if !r.HasCapability(a.Capability) {
			v = append(v, fmt.Sprintf("assignment for product %q: resource %q does not provide capability %q", a.Product, a.Resource, a.Capability))
		}
	}
	return v
}

// checkNoOverlap verifies pairwise-disjoint intervals per resource.
// Intervals touching at a boundary (a.End == b.Start) do not overlap
// (spec.md §4.5 check 1).
func checkNoOverlap(assignments []cdm.Assignment) []string {
	var v []string
	byResource := make(map[string][]cdm.Assignment)
	for _, a := range assignments {
		byResource[a.Resource] = append(byResource[a.Resource], a)
	}
	for resourceID, as := range byResource {
		sort.Slice(as, func(i, j int) bool { return as[i].Start.Before(as[j].Start) })
		for i := 0; i+1 < len(as); i++ {
			if as[i].End.After(as[i+1].Start) {
				v = append(v, fmt.Sprintf(
					"resource %q: assignments for %q [%s..%s] and %q [%s..%s] overlap",
					resourceID,
					as[i].Product, as[i].Start.Format(timeFmt), as[i].End.Format(timeFmt),
					as[i+1].Product, as[i+1].Start.Format(timeFmt), as[i+1].End.Format(timeFmt)))
			}
		}
	}
	return v
}

// checkPrecedence matches each product's assignments to its route steps by
// capability order, falling back to start-time order when a capability
// repeats within a route, and verifies end(step_i) <= start(step_i+1)
// (spec.md §4.5 check 2).
func checkPrecedence(req cdm.Request, assignments []cdm.Assignment) []string {
	var v []string
	byProduct := make(map[string][]cdm.Assignment)
	for _, a := range assignments {
		byProduct[a.Product] = append(byProduct[a.Product], a)
	}

	for _, p := range req.Products {
		as := byProduct[p.ID]
		if len(as) == 0 {
			continue
		}
		ordered, err := matchRouteOrder(p, as)
		if err != nil {
			v = append(v, fmt.Sprintf("product %q: %v", p.ID, err))
			continue
		}
		for i := 0; i+1 < len(ordered); i++ {
			if ordered[i].End.After(ordered[i+1].Start) {
				v = append(v, fmt.Sprintf(
					"product %q: route step %d ends at %s after step %d starts at %s",
					p.ID, i, ordered[i].End.Format(timeFmt), i+1, ordered[i+1].Start.Format(timeFmt)))
			}
		}
	}
	return v
}

// matchRouteOrder pairs up a product's assignments with its route steps in
// route order. Steps are matched by capability; when the same capability
// appears more than once in a route, ties are broken by the assignments'
// own start-time order.
func matchRouteOrder(p cdm.Product, assignments []cdm.Assignment) ([]cdm.Assignment, error) {
	if len(assignments) != len(p.Route) {
		return nil, fmt.Errorf("expected %d assignments (one per route step), found %d", len(p.Route), len(assignments))
	}

	byCapability := make(map[string][]cdm.Assignment)
	for _, a := range assignments {
		byCapability[a.Capability] = append(byCapability[a.Capability], a)
	}
	for cap, as := range byCapability {
		sorted := append([]cdm.Assignment(nil), as...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })
		byCapability[cap] = sorted
	}

	ordered := make([]cdm.Assignment, len(p.Route))
	for i, step := range p.Route {
		as := byCapability[step.Capability]
		if len(as) == 0 {
			return nil, fmt.Errorf("route step %d requires capability %q, no matching assignment found", i, step.Capability)
		}
		ordered[i] = as[0]
		byCapability[step.Capability] = as[1:]
	}
	return ordered, nil
}

// checkCalendar verifies each assignment fits entirely within at least one
// calendar window of its resource (spec.md §4.5 check 3).
func checkCalendar(assignments []cdm.Assignment, byID map[string]cdm.Resource) []string {
	var v []string
	for _, a := range assignments {
		r, ok := byID[a.Resource]
		if !ok {
			continue // already reported by checkResourceAndCapability
		}
		fits := false
		for _, w := range r.Calendar {
			if !a.Start.Before(w.Start) && !a.End.After(w.End) {
				fits = true
				break
			}
		}
		if !fits {
			v = append(v, fmt.Sprintf(
				"assignment for product %q on resource %q [%s..%s] fits no calendar window",
				a.Product, a.Resource, a.Start.Format(timeFmt), a.End.Format(timeFmt)))
		}
	}
	return v
}

// checkHorizon verifies every start/end lies within [horizon.start,
// horizon.end] (spec.md §4.5 check 4).
func checkHorizon(req cdm.Request, assignments []cdm.Assignment) []string {
	var v []string
	for _, a := range assignments {
		if a.Start.Before(req.Horizon.Start) || a.End.After(req.Horizon.End) {
			v = append(v, fmt.Sprintf(
				"assignment for product %q [%s..%s] lies outside the horizon [%s..%s]",
				a.Product, a.Start.Format(timeFmt), a.End.Format(timeFmt),
				req.Horizon.Start.Format(timeFmt), req.Horizon.End.Format(timeFmt)))
		}
	}
	return v
}

const timeFmt = "2006-01-02T15:04"
