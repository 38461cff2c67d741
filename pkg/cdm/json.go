package cdm

import (
	"encoding/json"
	"fmt"
)

// The wire types below mirror spec.md §6's canonical request/response
// shape field-for-field. They exist so a caller holding the canonical JSON
// envelope (rather than an in-process cdm.RequestInput) has a supported
// decode path that isn't vendor-specific — unlike pkg/adapter, which
// normalizes non-canonical payloads, this is the canonical format itself.

// wireWindow decodes spec.md §6's literal calendar shape: a two-element
// tuple [start, end], not an object.
type wireWindow [2]wireTime

func (w wireWindow) window() Window {
	return Window{Start: w[0].Time(), End: w[1].Time()}
}

type wireResource struct {
	ID           string       `json:"id"`
	Capabilities []string     `json:"capabilities"`
	Calendar     []wireWindow `json:"calendar"`
}

type wireOperation struct {
	Capability      string `json:"capability"`
	DurationMinutes int    `json:"duration_minutes"`
}

type wireProduct struct {
	ID     string          `json:"id"`
	Family string          `json:"family"`
	Due    wireTime        `json:"due"`
	Route  []wireOperation `json:"route"`
}

type wireChangeoverMatrix struct {
	Values map[string]int `json:"values"`
}

type wireSettings struct {
	TimeLimitSeconds int `json:"time_limit_seconds"`
}

type wireRequest struct {
	Horizon struct {
		Start wireTime `json:"start"`
		End   wireTime `json:"end"`
	} `json:"horizon"`
	Resources               []wireResource       `json:"resources"`
	Products                []wireProduct        `json:"products"`
	ChangeoverMatrixMinutes wireChangeoverMatrix `json:"changeover_matrix_minutes"`
	Settings                wireSettings         `json:"settings"`
}

// DecodeRequest parses the canonical JSON request shape of spec.md §6 into
// a RequestInput. Callers then validate it with NewRequest.
func DecodeRequest(data []byte) (RequestInput, error) {
	var w wireRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return RequestInput{}, fmt.Errorf("cdm: decode request: %w", err)
	}

	resources := make([]Resource, len(w.Resources))
	for i, r := range w.Resources {
		cal := make([]Window, len(r.Calendar))
		for j, win := range r.Calendar {
			cal[j] = win.window()
		}
		resources[i] = Resource{ID: r.ID, Capabilities: r.Capabilities, Calendar: cal}
	}

	products := make([]Product, len(w.Products))
	for i, p := range w.Products {
		route := make([]Operation, len(p.Route))
		for j, op := range p.Route {
			route[j] = Operation{Capability: op.Capability, DurationMinutes: op.DurationMinutes}
		}
		products[i] = Product{ID: p.ID, Family: p.Family, Due: p.Due.Time(), Route: route}
	}

	matrix, err := NewChangeoverMatrix(w.ChangeoverMatrixMinutes.Values)
	if err != nil {
		return RequestInput{}, err
	}

	return RequestInput{
		Horizon:          Horizon{Start: w.Horizon.Start.Time(), End: w.Horizon.End.Time()},
		Resources:        resources,
		Products:         products,
		ChangeoverMatrix: matrix,
		Settings:         Settings{TimeLimitSeconds: w.Settings.TimeLimitSeconds},
	}, nil
}

type wireAssignment struct {
	Product    string   `json:"product"`
	Op         string   `json:"op"`
	Resource   string   `json:"resource"`
	Start      wireTime `json:"start"`
	End        wireTime `json:"end"`
}

type wireKPIs struct {
	TardinessMinutes int            `json:"tardiness_minutes"`
	Changeovers      int            `json:"changeovers"`
	MakespanMinutes  int            `json:"makespan_minutes"`
	Utilization      map[string]int `json:"utilization"`
}

type wireResponse struct {
	Assignments []wireAssignment `json:"assignments"`
	KPIs        wireKPIs         `json:"kpis"`
}

// DecodeResponse parses a previously produced success envelope back into a
// Response, for callers (such as cmd/accept) that re-check a solve's
// output rather than produce one.
func DecodeResponse(data []byte) (Response, error) {
	var w wireResponse
	if err := json.Unmarshal(data, &w); err != nil {
		return Response{}, fmt.Errorf("cdm: decode response: %w", err)
	}

	assignments := make([]Assignment, len(w.Assignments))
	for i, a := range w.Assignments {
		assignments[i] = Assignment{
			Product:    a.Product,
			Capability: a.Op,
			Resource:   a.Resource,
			Start:      a.Start.Time(),
			End:        a.End.Time(),
		}
	}

	return Response{
		Assignments: assignments,
		KPIs: KPIs{
			TardinessMinutes: w.KPIs.TardinessMinutes,
			Changeovers:      w.KPIs.Changeovers,
			MakespanMinutes:  w.KPIs.MakespanMinutes,
			Utilization:      Utilization(w.KPIs.Utilization),
		},
	}, nil
}

// EncodeResponse serializes a success Response into spec.md §6's canonical
// JSON shape.
func EncodeResponse(r Response) ([]byte, error) {
	assignments := make([]wireAssignment, len(r.Assignments))
	for i, a := range r.Assignments {
		assignments[i] = wireAssignment{
			Product:  a.Product,
			Op:       a.Capability,
			Resource: a.Resource,
			Start:    wireTime(a.Start.UTC()),
			End:      wireTime(a.End.UTC()),
		}
	}
	w := wireResponse{
		Assignments: assignments,
		KPIs: wireKPIs{
			TardinessMinutes: r.KPIs.TardinessMinutes,
			Changeovers:      r.KPIs.Changeovers,
			MakespanMinutes:  r.KPIs.MakespanMinutes,
			Utilization:      map[string]int(r.KPIs.Utilization),
		},
	}
	return json.MarshalIndent(w, "", "  ")
}

type wireErrorResponse struct {
	Error string   `json:"error"`
	Why   []string `json:"why"`
}

// EncodeErrorResponse serializes a failure ErrorResponse into spec.md §6's
// canonical JSON shape.
func EncodeErrorResponse(e ErrorResponse) ([]byte, error) {
	return json.MarshalIndent(wireErrorResponse{Error: e.Error, Why: e.Why}, "", "  ")
}
