package solver

import (
	"fmt"

	"github.com/kestrel-systems/harmonysched/pkg/cdm"
	"github.com/kestrel-systems/harmonysched/pkg/timeutil"
)

// diagnose computes plausible infeasibility causes without re-solving, in
// the order the original implementation used (src/solver/engine.py):
// duration-vs-due first, then missing capability, then the generic
// fallback line. Retained in that order so diagnostic output is
// reproducible across runs (spec.md §4.4, SPEC_FULL.md supplement 3).
func diagnose(req cdm.Request, clock timeutil.Clock) []string {
	var why []string

	for _, p := range req.Products {
		total := 0
		for _, op := range p.Route {
			total += op.DurationMinutes
		}
		dueOffset := clock.ToMinutes(p.Due)
		if total > dueOffset {
			why = append(why, fmt.Sprintf(
				"product %q: minimum route duration (%d min) exceeds its due offset (%d min)",
				p.ID, total, dueOffset))
		}
	}

	provided := make(map[string]bool)
	for _, r := range req.Resources {
		for _, c := range r.Capabilities {
			provided[c] = true
		}
	}
	for _, p := range req.Products {
		for i, op := range p.Route {
			if !provided[op.Capability] {
				why = append(why, fmt.Sprintf(
					"product %q route step %d: capability %q is provided by no resource",
					p.ID, i, op.Capability))
			}
		}
	}

	why = append(why, "no feasible schedule exists under the given constraints")
	return why
}
