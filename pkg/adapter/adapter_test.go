package adapter

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-systems/harmonysched/pkg/cdm"
)

type stubAdapter struct {
	name string
}

func (s stubAdapter) Normalize(payload []byte) (cdm.RequestInput, error) {
	if bytes.Contains(payload, []byte("bad")) {
		return cdm.RequestInput{}, errors.New("malformed payload")
	}
	return cdm.RequestInput{
		Horizon:  cdm.Horizon{Start: time.Date(2025, 11, 3, 8, 0, 0, 0, time.UTC), End: time.Date(2025, 11, 3, 16, 0, 0, 0, time.UTC)},
		Settings: cdm.Settings{TimeLimitSeconds: 5},
	}, nil
}

func TestRegistryResolvesByExplicitClientID(t *testing.T) {
	r := NewRegistry()
	a := stubAdapter{name: "vendor-a"}
	b := stubAdapter{name: "vendor-b"}
	r.Register("vendor-a", a, nil)
	r.Register("vendor-b", b, nil)

	got, err := r.Resolve([]byte("{}"), "vendor-b")
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestRegistryFallsBackToFingerprint(t *testing.T) {
	r := NewRegistry()
	a := stubAdapter{name: "vendor-a"}
	r.Register("vendor-a", a, func(payload []byte) bool {
		return bytes.Contains(payload, []byte("vendor-a-marker"))
	})

	got, err := r.Resolve([]byte(`{"vendor-a-marker": true}`), "")
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestRegistryReturnsErrNoAdapterMatched(t *testing.T) {
	r := NewRegistry()
	r.Register("vendor-a", stubAdapter{}, func([]byte) bool { return false })

	_, err := r.Resolve([]byte("{}"), "")
	require.ErrorIs(t, err, ErrNoAdapterMatched)
}

func TestRegistryNormalizeValidatesResult(t *testing.T) {
	r := NewRegistry()
	r.Register("vendor-a", stubAdapter{}, nil)

	req, err := r.Normalize([]byte("{}"), "vendor-a")
	require.NoError(t, err)
	assert.True(t, req.Horizon.End.After(req.Horizon.Start))
}

func TestRegistryNormalizePropagatesAdapterError(t *testing.T) {
	r := NewRegistry()
	r.Register("vendor-a", stubAdapter{}, nil)

	_, err := r.Normalize([]byte("bad"), "vendor-a")
	require.Error(t, err)
}

func TestIdentityIsNoOpOnCanonicalInput(t *testing.T) {
	in := cdm.RequestInput{
		Horizon:  cdm.Horizon{Start: time.Date(2025, 11, 3, 8, 0, 0, 0, time.UTC), End: time.Date(2025, 11, 3, 16, 0, 0, 0, time.UTC)},
		Settings: cdm.Settings{TimeLimitSeconds: 5},
	}
	out, err := Identity(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
