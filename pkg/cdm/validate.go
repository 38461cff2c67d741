package cdm

import "fmt"

// RequestInput is the unvalidated shape NewRequest accepts — identical
// fields to Request, but not yet known to satisfy any structural
// invariant. Adapters (pkg/adapter) build one of these from a vendor
// payload and hand it to NewRequest.
type RequestInput struct {
	Horizon          Horizon
	Resources        []Resource
	Products         []Product
	ChangeoverMatrix ChangeoverMatrix
	Settings         Settings
}

// NewRequest validates in and returns an immutable Request, or a
// ValidationErrors listing every structural invariant violated. Checks run
// to completion rather than failing on the first problem, so a caller sees
// every issue with their input in one pass.
func NewRequest(in RequestInput) (Request, error) {
	var errs ValidationErrors

	if !in.Horizon.End.After(in.Horizon.Start) {
		errs = append(errs, newValidationError("horizon", "end must be after start"))
	}

	errs = append(errs, validateResources(in.Horizon, in.Resources)...)
	errs = append(errs, validateProducts(in.Horizon, in.Products)...)

	if in.Settings.TimeLimitSeconds <= 0 {
		errs = append(errs, newValidationError("settings.time_limit_seconds", "must be a positive integer"))
	}

	if err := errs.asErr(); err != nil {
		return Request{}, err
	}

	return Request{
		Horizon:          in.Horizon,
		Resources:        in.Resources,
		Products:         in.Products,
		ChangeoverMatrix: in.ChangeoverMatrix,
		Settings:         in.Settings,
	}, nil
}

func validateResources(h Horizon, resources []Resource) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[string]bool, len(resources))
	for i, r := range resources {
		path := fmt.Sprintf("resources[%d]", i)
		if r.ID == "" {
			errs = append(errs, newValidationError(path+".id", "must not be empty"))
		} else if seen[r.ID] {
			errs = append(errs, newValidationError(path+".id", fmt.Sprintf("duplicate resource id %q", r.ID)))
		}
		seen[r.ID] = true

		windows := make([]Window, 0, len(r.Calendar))
		for j, w := range r.Calendar {
			wpath := fmt.Sprintf("%s.calendar[%d]", path, j)
			if !w.End.After(w.Start) {
				errs = append(errs, newValidationError(wpath, "end must be after start"))
				continue
			}
			if w.Start.Before(h.Start) || w.End.After(h.End) {
				errs = append(errs, newValidationError(wpath, "must lie within the horizon"))
				continue
			}
			windows = append(windows, w)
		}
		for a := 0; a < len(windows); a++ {
			for b := a + 1; b < len(windows); b++ {
				if windowsOverlap(windows[a], windows[b]) {
					errs = append(errs, newValidationError(fmt.Sprintf("%s.calendar", path),
						fmt.Sprintf("windows %d and %d overlap", a, b)))
				}
			}
		}
	}
	return errs
}

func windowsOverlap(a, b Window) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

func validateProducts(h Horizon, products []Product) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[string]bool, len(products))
	for i, p := range products {
		path := fmt.Sprintf("products[%d]", i)
		if p.ID == "" {
			errs = append(errs, newValidationError(path+".id", "must not be empty"))
		} else if seen[p.ID] {
			errs = append(errs, newValidationError(path+".id", fmt.Sprintf("duplicate product id %q", p.ID)))
		}
		seen[p.ID] = true

		if p.Due.Before(h.Start) || p.Due.After(h.End) {
			errs = append(errs, newValidationError(path+".due", "must lie within the horizon"))
		}

		if len(p.Route) == 0 {
			errs = append(errs, newValidationError(path+".route", "must be non-empty"))
			continue
		}
		for j, op := range p.Route {
			opath := fmt.Sprintf("%s.route[%d]", path, j)
			if op.Capability == "" {
				errs = append(errs, newValidationError(opath+".capability", "must not be empty"))
			}
			if op.DurationMinutes <= 0 {
				errs = append(errs, newValidationError(opath+".duration_minutes", "must be a strictly positive integer"))
			}
		}
	}
	return errs
}
