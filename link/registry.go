package link

import (
	"fmt"
	"sync"

	"github.com/renatoliveira/chainable"
)

// Factory constructs a fresh, unconfigured job instance. The engine invokes
// it inside the unit of work that executes a link, then restores captured
// args through ArgCodec when present.
type Factory func() any

// Registry maps link names to no-arg job factories. Every job type that
// crosses a unit-of-work boundary must be registered here at process start;
// this replaces runtime type-name instantiation. It is safe for concurrent
// use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty link registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under the given link name. Registering the same
// name again replaces the previous factory.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Get returns the factory for the given link name.
// Returns false if no factory is registered.
func (r *Registry) Get(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Names returns all registered link names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// Build reconstructs a job for the given link name inside a new unit of
// work. When args is non-empty the fresh instance must implement ArgCodec;
// a blob it cannot parse is a serialization error surfaced here, halting
// the chain at this link.
func (r *Registry) Build(name string, args []byte) (any, error) {
	f, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", chainable.ErrNotRegistered, name)
	}

	j := f()

	if len(args) > 0 {
		ac, ok := j.(ArgCodec)
		if !ok {
			return nil, fmt.Errorf("%w: link %q carries args but its job type cannot restore them", chainable.ErrRestoreArgs, name)
		}
		if err := ac.RestoreArgs(args); err != nil {
			return nil, fmt.Errorf("%w: link %q: %v", chainable.ErrRestoreArgs, name, err)
		}
	}

	return j, nil
}
