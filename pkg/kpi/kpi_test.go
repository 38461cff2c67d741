package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-systems/harmonysched/pkg/cdm"
)

func date(h, m int) time.Time {
	return time.Date(2025, 11, 3, h, m, 0, 0, time.UTC)
}

func TestCalculateZeroOperations(t *testing.T) {
	req, err := cdm.NewRequest(cdm.RequestInput{
		Horizon:   cdm.Horizon{Start: date(8, 0), End: date(16, 0)},
		Resources: []cdm.Resource{{ID: "R1", Capabilities: []string{"fill"}, Calendar: []cdm.Window{{Start: date(8, 0), End: date(16, 0)}}}},
		Settings:  cdm.Settings{TimeLimitSeconds: 5},
	})
	require.NoError(t, err)

	got := Calculate(req, nil)
	assert.Equal(t, 0, got.TardinessMinutes)
	assert.Equal(t, 0, got.Changeovers)
	assert.Equal(t, 0, got.MakespanMinutes)
	assert.Equal(t, 0, got.Utilization["R1"])
}

func TestCalculateTrivialScenario(t *testing.T) {
	req, err := cdm.NewRequest(cdm.RequestInput{
		Horizon:   cdm.Horizon{Start: date(8, 0), End: date(16, 0)},
		Resources: []cdm.Resource{{ID: "R1", Capabilities: []string{"fill"}, Calendar: []cdm.Window{{Start: date(8, 0), End: date(16, 0)}}}},
		Products: []cdm.Product{
			{ID: "P1", Family: "standard", Due: date(12, 0), Route: []cdm.Operation{{Capability: "fill", DurationMinutes: 30}}},
		},
		Settings: cdm.Settings{TimeLimitSeconds: 5},
	})
	require.NoError(t, err)

	assignments := []cdm.Assignment{
		{Product: "P1", Capability: "fill", Resource: "R1", Start: date(8, 0), End: date(8, 30)},
	}
	got := Calculate(req, assignments)
	assert.Equal(t, 0, got.TardinessMinutes)
	assert.Equal(t, 0, got.Changeovers)
	assert.Equal(t, 30, got.MakespanMinutes)
	assert.Equal(t, 6, got.Utilization["R1"]) // 30/480 = 6.25% floored
}

func TestCalculateTardinessAndChangeoverAcrossTwoProducts(t *testing.T) {
	req, err := cdm.NewRequest(cdm.RequestInput{
		Horizon:   cdm.Horizon{Start: date(8, 0), End: date(16, 0)},
		Resources: []cdm.Resource{{ID: "R1", Capabilities: []string{"fill"}, Calendar: []cdm.Window{{Start: date(8, 0), End: date(16, 0)}}}},
		Products: []cdm.Product{
			{ID: "P1", Family: "standard", Due: date(9, 0), Route: []cdm.Operation{{Capability: "fill", DurationMinutes: 60}}},
			{ID: "P2", Family: "premium", Due: date(10, 0), Route: []cdm.Operation{{Capability: "fill", DurationMinutes: 60}}},
		},
		Settings: cdm.Settings{TimeLimitSeconds: 5},
	})
	require.NoError(t, err)

	assignments := []cdm.Assignment{
		{Product: "P1", Capability: "fill", Resource: "R1", Start: date(8, 0), End: date(9, 0)},
		{Product: "P2", Capability: "fill", Resource: "R1", Start: date(9, 0), End: date(10, 0)},
	}
	got := Calculate(req, assignments)
	assert.Equal(t, 0, got.TardinessMinutes)
	assert.Equal(t, 1, got.Changeovers) // standard -> premium
	assert.Equal(t, 120, got.MakespanMinutes)
}

func TestCalculateSameFamilyHasNoChangeover(t *testing.T) {
	req, err := cdm.NewRequest(cdm.RequestInput{
		Horizon:   cdm.Horizon{Start: date(8, 0), End: date(16, 0)},
		Resources: []cdm.Resource{{ID: "R1", Capabilities: []string{"fill"}, Calendar: []cdm.Window{{Start: date(8, 0), End: date(16, 0)}}}},
		Products: []cdm.Product{
			{ID: "P1", Family: "standard", Due: date(9, 0), Route: []cdm.Operation{{Capability: "fill", DurationMinutes: 60}}},
			{ID: "P2", Family: "standard", Due: date(10, 0), Route: []cdm.Operation{{Capability: "fill", DurationMinutes: 60}}},
		},
		Settings: cdm.Settings{TimeLimitSeconds: 5},
	})
	require.NoError(t, err)

	assignments := []cdm.Assignment{
		{Product: "P1", Capability: "fill", Resource: "R1", Start: date(8, 0), End: date(9, 0)},
		{Product: "P2", Capability: "fill", Resource: "R1", Start: date(9, 0), End: date(10, 0)},
	}
	got := Calculate(req, assignments)
	assert.Equal(t, 0, got.Changeovers)
}

func TestCalculateTardinessWhenLate(t *testing.T) {
	req, err := cdm.NewRequest(cdm.RequestInput{
		Horizon:   cdm.Horizon{Start: date(8, 0), End: date(16, 0)},
		Resources: []cdm.Resource{{ID: "R1", Capabilities: []string{"fill"}, Calendar: []cdm.Window{{Start: date(8, 0), End: date(16, 0)}}}},
		Products: []cdm.Product{
			{ID: "P1", Family: "standard", Due: date(8, 30), Route: []cdm.Operation{{Capability: "fill", DurationMinutes: 60}}},
		},
		Settings: cdm.Settings{TimeLimitSeconds: 5},
	})
	require.NoError(t, err)

	assignments := []cdm.Assignment{
		{Product: "P1", Capability: "fill", Resource: "R1", Start: date(8, 0), End: date(9, 0)},
	}
	got := Calculate(req, assignments)
	assert.Equal(t, 30, got.TardinessMinutes)
}
