package persist

import (
	"fmt"
	"slices"

	"github.com/mesh-intelligence/spsync/pkg/types"
)

// Registry maps type names to Helpers. It is built once and never changes,
// so any number of sessions may read it concurrently.
type Registry struct {
	helpers map[string]Helper
	names   []string
}

// NewRegistry builds a Registry from helpers. Two helpers for the same type
// name are an error.
func NewRegistry(helpers ...Helper) (*Registry, error) {
	r := &Registry{helpers: make(map[string]Helper, len(helpers))}
	for _, h := range helpers {
		name := h.TypeName()
		if _, dup := r.helpers[name]; dup {
			return nil, fmt.Errorf("registry: duplicate helper for type %q", name)
		}
		r.helpers[name] = h
		r.names = append(r.names, name)
	}
	slices.Sort(r.names)
	return r, nil
}

// MustRegistry is NewRegistry that panics on error.
func MustRegistry(helpers ...Helper) *Registry {
	r, err := NewRegistry(helpers...)
	if err != nil {
		panic(err)
	}
	return r
}

// Helper returns the Helper registered for typeName. An unregistered name
// means the registry and the record stream disagree on the type catalog
// and fails with ErrNoHelperForType.
func (r *Registry) Helper(typeName string) (Helper, error) {
	h, ok := r.helpers[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrNoHelperForType, typeName)
	}
	return h, nil
}

// TypeNames returns the registered type names, sorted.
func (r *Registry) TypeNames() []string {
	return slices.Clone(r.names)
}
