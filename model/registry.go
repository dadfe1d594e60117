package model

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownModel reports a lookup for a model identifier that was never
// registered. Callers must treat it as terminal; there is no fallback
// descriptor.
var ErrUnknownModel = errors.New("model: unknown model")

// Entry pairs a registered model's descriptor with its request handler.
type Entry struct {
	Name     string
	Info     *Info
	Generate GenerateFunc
}

// Registry is the host-side model registration table. It is populated once at
// startup by plugin Register calls and is read-only afterwards; registering
// concurrently with lookups is caller misuse.
type Registry struct {
	entries map[string]*Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register adds a model under its exact identifier. A second registration for
// the same name replaces the first.
func (r *Registry) Register(name string, info *Info, fn GenerateFunc) {
	r.entries[name] = &Entry{Name: name, Info: info, Generate: fn}
}

// Lookup resolves a model identifier by exact match. An unregistered name
// yields ErrUnknownModel wrapped with the identifier.
func (r *Registry) Lookup(name string) (*Entry, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return e, nil
}

// Names returns the registered model identifiers in unspecified order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	return names
}

// Generate resolves the named model and delegates to its handler.
func (r *Registry) Generate(ctx context.Context, name string, req *Request, cb StreamCallback) (*Response, error) {
	e, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return e.Generate(ctx, req, cb)
}
