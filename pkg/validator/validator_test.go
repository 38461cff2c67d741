package validator

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-systems/harmonysched/pkg/cdm"
)

func date(h, m int) time.Time {
	return time.Date(2025, 11, 3, h, m, 0, 0, time.UTC)
}

func baseRequest(t *testing.T) cdm.Request {
	t.Helper()
	req, err := cdm.NewRequest(cdm.RequestInput{
		Horizon: cdm.Horizon{Start: date(8, 0), End: date(16, 0)},
		Resources: []cdm.Resource{
			{ID: "Fill-1", Capabilities: []string{"fill"}, Calendar: []cdm.Window{{Start: date(8, 0), End: date(16, 0)}}},
			{ID: "Label-1", Capabilities: []string{"label"}, Calendar: []cdm.Window{{Start: date(8, 0), End: date(16, 0)}}},
		},
		Products: []cdm.Product{
			{ID: "P1", Family: "standard", Due: date(9, 0), Route: []cdm.Operation{
				{Capability: "fill", DurationMinutes: 30},
				{Capability: "label", DurationMinutes: 20},
			}},
		},
		Settings: cdm.Settings{TimeLimitSeconds: 5},
	})
	require.NoError(t, err)
	return req
}

// sharedResourceRequest has two single-step products that both need the
// one resource R1, so their assignments can touch or overlap on it.
func sharedResourceRequest(t *testing.T) cdm.Request {
	t.Helper()
	req, err := cdm.NewRequest(cdm.RequestInput{
		Horizon: cdm.Horizon{Start: date(8, 0), End: date(16, 0)},
		Resources: []cdm.Resource{
			{ID: "R1", Capabilities: []string{"fill"}, Calendar: []cdm.Window{{Start: date(8, 0), End: date(16, 0)}}},
		},
		Products: []cdm.Product{
			{ID: "P1", Family: "standard", Due: date(12, 0), Route: []cdm.Operation{{Capability: "fill", DurationMinutes: 30}}},
			{ID: "P2", Family: "standard", Due: date(12, 0), Route: []cdm.Operation{{Capability: "fill", DurationMinutes: 30}}},
		},
		Settings: cdm.Settings{TimeLimitSeconds: 5},
	})
	require.NoError(t, err)
	return req
}

func TestValidateAcceptsWellFormedSchedule(t *testing.T) {
	req := baseRequest(t)
	assignments := []cdm.Assignment{
		{Product: "P1", Capability: "fill", Resource: "Fill-1", Start: date(8, 0), End: date(8, 30)},
		{Product: "P1", Capability: "label", Resource: "Label-1", Start: date(8, 30), End: date(8, 50)},
	}

	result := Validate(req, assignments)
	assert.True(t, result.Valid, "violations: %v", result.Violations)
}

func TestValidateBoundaryTouchIsNotOverlap(t *testing.T) {
	req := sharedResourceRequest(t)
	assignments := []cdm.Assignment{
		{Product: "P1", Capability: "fill", Resource: "R1", Start: date(8, 0), End: date(8, 30)},
		{Product: "P2", Capability: "fill", Resource: "R1", Start: date(8, 30), End: date(9, 0)},
	}
	result := Validate(req, assignments)
	assert.True(t, result.Valid)
}

func TestValidateDetectsOverlapOnSameResource(t *testing.T) {
	req := sharedResourceRequest(t)
	assignments := []cdm.Assignment{
		{Product: "P1", Capability: "fill", Resource: "R1", Start: date(8, 0), End: date(8, 30)},
		{Product: "P2", Capability: "fill", Resource: "R1", Start: date(8, 15), End: date(8, 45)},
	}
	result := Validate(req, assignments)
	require.False(t, result.Valid)
	assert.Contains(t, result.Violations[0], "overlap")
}

func TestValidateDetectsPrecedenceViolation(t *testing.T) {
	req := baseRequest(t)
	assignments := []cdm.Assignment{
		{Product: "P1", Capability: "fill", Resource: "Fill-1", Start: date(8, 30), End: date(9, 0)},
		{Product: "P1", Capability: "label", Resource: "Label-1", Start: date(8, 0), End: date(8, 20)},
	}
	result := Validate(req, assignments)
	require.False(t, result.Valid)
	found := false
	for _, v := range result.Violations {
		if strings.Contains(v, "route step") && strings.Contains(v, "ends at") {
			found = true
		}
	}
	assert.True(t, found, "expected a precedence violation, got %v", result.Violations)
}

func TestValidateDetectsCalendarViolation(t *testing.T) {
	req := baseRequest(t)
	assignments := []cdm.Assignment{
		{Product: "P1", Capability: "fill", Resource: "Fill-1", Start: date(7, 30), End: date(8, 0)},
		{Product: "P1", Capability: "label", Resource: "Label-1", Start: date(8, 0), End: date(8, 20)},
	}
	result := Validate(req, assignments)
	require.False(t, result.Valid)
}

func TestValidateDetectsUnknownResource(t *testing.T) {
	req := baseRequest(t)
	assignments := []cdm.Assignment{
		{Product: "P1", Capability: "fill", Resource: "Ghost", Start: date(8, 0), End: date(8, 30)},
		{Product: "P1", Capability: "label", Resource: "Label-1", Start: date(8, 30), End: date(8, 50)},
	}
	result := Validate(req, assignments)
	require.False(t, result.Valid)
	assert.Contains(t, result.Violations[0], "does not exist")
}

func TestValidateBreaksTiesByStartTimeForRepeatedCapability(t *testing.T) {
	req, err := cdm.NewRequest(cdm.RequestInput{
		Horizon: cdm.Horizon{Start: date(8, 0), End: date(16, 0)},
		Resources: []cdm.Resource{
			{ID: "R1", Capabilities: []string{"fill"}, Calendar: []cdm.Window{{Start: date(8, 0), End: date(16, 0)}}},
		},
		Products: []cdm.Product{
			{ID: "P1", Family: "standard", Due: date(12, 0), Route: []cdm.Operation{
				{Capability: "fill", DurationMinutes: 10},
				{Capability: "fill", DurationMinutes: 10},
			}},
		},
		Settings: cdm.Settings{TimeLimitSeconds: 5},
	})
	require.NoError(t, err)

	assignments := []cdm.Assignment{
		{Product: "P1", Capability: "fill", Resource: "R1", Start: date(8, 10), End: date(8, 20)},
		{Product: "P1", Capability: "fill", Resource: "R1", Start: date(8, 0), End: date(8, 10)},
	}
	result := Validate(req, assignments)
	assert.True(t, result.Valid, "violations: %v", result.Violations)
}
