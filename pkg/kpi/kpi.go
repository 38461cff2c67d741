// Package kpi derives tardiness, changeover count, makespan, and
// per-resource utilization from a set of assignments (spec.md §4.6). It is
// pure and total: given the same request and assignments, it always
// returns the same KPIs, which is what makes KPI reproducibility testable
// (spec.md §8 invariant 5).
package kpi

import (
	"sort"
	"time"

	"github.com/kestrel-systems/harmonysched/pkg/cdm"
)

// Calculate derives cdm.KPIs from req and assignments.
func Calculate(req cdm.Request, assignments []cdm.Assignment) cdm.KPIs {
	return cdm.KPIs{
		TardinessMinutes: tardiness(req, assignments),
		Changeovers:      changeovers(req, assignments),
		MakespanMinutes:  makespan(assignments),
		Utilization:      utilization(req, assignments),
	}
}

func tardiness(req cdm.Request, assignments []cdm.Assignment) int {
	completionByProduct := make(map[string]time.Time)
	for _, a := range assignments {
		if cur, ok := completionByProduct[a.Product]; !ok || a.End.After(cur) {
			completionByProduct[a.Product] = a.End
		}
	}

	total := 0
	for _, p := range req.Products {
		completion, ok := completionByProduct[p.ID]
		if !ok {
			continue
		}
		if d := floorMinutes(completion.Sub(p.Due)); d > 0 {
			total += d
		}
	}
	return total
}

// changeovers counts, per resource, transitions where the family of the
// next product differs from the previous, in start-time order. Ties in
// start time are broken by product ID lexicographically; per spec.md §4.6
// ties should not occur when no-overlap holds.
func changeovers(req cdm.Request, assignments []cdm.Assignment) int {
	familyByProduct := make(map[string]string, len(req.Products))
	for _, p := range req.Products {
		familyByProduct[p.ID] = p.Family
	}

	byResource := make(map[string][]cdm.Assignment)
	for _, a := range assignments {
		byResource[a.Resource] = append(byResource[a.Resource], a)
	}

	total := 0
	for _, as := range byResource {
		sorted := append([]cdm.Assignment(nil), as...)
		sort.Slice(sorted, func(i, j int) bool {
			if !sorted[i].Start.Equal(sorted[j].Start) {
				return sorted[i].Start.Before(sorted[j].Start)
			}
			return sorted[i].Product < sorted[j].Product
		})
		for i := 0; i+1 < len(sorted); i++ {
			if familyByProduct[sorted[i].Product] != familyByProduct[sorted[i+1].Product] {
				total++
			}
		}
	}
	return total
}

func makespan(assignments []cdm.Assignment) int {
	if len(assignments) == 0 {
		return 0
	}
	minStart, maxEnd := assignments[0].Start, assignments[0].End
	for _, a := range assignments[1:] {
		if a.Start.Before(minStart) {
			minStart = a.Start
		}
		if a.End.After(maxEnd) {
			maxEnd = a.End
		}
	}
	return floorMinutes(maxEnd.Sub(minStart))
}

func utilization(req cdm.Request, assignments []cdm.Assignment) cdm.Utilization {
	busyByResource := make(map[string]int)
	for _, a := range assignments {
		busyByResource[a.Resource] += floorMinutes(a.End.Sub(a.Start))
	}

	u := make(cdm.Utilization, len(req.Resources))
	for _, r := range req.Resources {
		available := 0
		for _, w := range r.Calendar {
			available += floorMinutes(w.End.Sub(w.Start))
		}
		if available == 0 {
			u[r.ID] = 0
			continue
		}
		u[r.ID] = (100 * busyByResource[r.ID]) / available
	}
	return u
}

func floorMinutes(d time.Duration) int {
	return int(d / time.Minute)
}
