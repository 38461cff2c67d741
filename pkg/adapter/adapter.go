// Package adapter defines the external contract for normalizing
// heterogeneous client payloads into a cdm.RequestInput. Per spec.md §1
// this is a pure function from opaque client payloads to canonical
// requests; no vendor-specific parser lives in this package — only the
// registry that selects one.
package adapter

import (
	"errors"
	"fmt"

	"github.com/kestrel-systems/harmonysched/pkg/cdm"
)

// ErrNoAdapterMatched means neither an explicit client ID nor any
// registered fingerprint recognized the payload.
var ErrNoAdapterMatched = errors.New("adapter: no adapter matched the payload")

// Adapter normalizes one vendor's payload shape into a canonical request.
// Implementations must never branch on client identity beyond their own
// registration — the core never learns which adapter produced a request.
type Adapter interface {
	// Normalize parses payload and returns a canonical request, or a
	// descriptive error if payload doesn't match this adapter's shape.
	Normalize(payload []byte) (cdm.RequestInput, error)
}

// Fingerprint reports whether payload structurally matches an adapter,
// without fully parsing it — used when no explicit client_id tag is
// present (spec.md §6).
type Fingerprint func(payload []byte) bool

type registration struct {
	clientID    string
	adapter     Adapter
	fingerprint Fingerprint
}

// Registry resolves a client payload to the Adapter that should normalize
// it, first by an explicit client ID tag, then by structural
// fingerprinting in registration order.
type Registry struct {
	entries []registration
}

// NewRegistry returns an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an adapter under clientID, with an optional fingerprint
// used as a fallback when no client ID hint is given or it matches
// nothing. fingerprint may be nil if the adapter should only ever be
// selected by explicit clientID.
func (r *Registry) Register(clientID string, a Adapter, fingerprint Fingerprint) {
	r.entries = append(r.entries, registration{clientID: clientID, adapter: a, fingerprint: fingerprint})
}

// Resolve selects an adapter for payload. clientIDHint, if non-empty, is
// tried first as an exact match against each registration's clientID;
// otherwise (or if the hint matches nothing) every registered
// fingerprint is tried in registration order.
func (r *Registry) Resolve(payload []byte, clientIDHint string) (Adapter, error) {
	if clientIDHint != "" {
		for _, reg := range r.entries {
			if reg.clientID == clientIDHint {
				return reg.adapter, nil
			}
		}
	}
	for _, reg := range r.entries {
		if reg.fingerprint != nil && reg.fingerprint(payload) {
			return reg.adapter, nil
		}
	}
	return nil, fmt.Errorf("%w (client_id hint=%q)", ErrNoAdapterMatched, clientIDHint)
}

// Normalize resolves an adapter for payload and runs it, then validates
// the result through cdm.NewRequest so callers always get back either a
// fully validated Request or a descriptive error.
func (r *Registry) Normalize(payload []byte, clientIDHint string) (cdm.Request, error) {
	a, err := r.Resolve(payload, clientIDHint)
	if err != nil {
		return cdm.Request{}, err
	}
	in, err := a.Normalize(payload)
	if err != nil {
		return cdm.Request{}, fmt.Errorf("adapter: normalize: %w", err)
	}
	return cdm.NewRequest(in)
}

// Identity returns in unchanged. Per spec.md §8's round-trip property,
// passing an already-canonical request through any adapter that accepts
// the canonical form is the identity on the resulting CDM; this is that
// transform, used directly by callers that already hold a
// cdm.RequestInput (constructed in-process rather than received over the
// wire) instead of going through Registry.Normalize's []byte path.
func Identity(in cdm.RequestInput) (cdm.RequestInput, error) {
	return in, nil
}
