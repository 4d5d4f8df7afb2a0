// Package deferred holds chains registered for deferred execution during
// one transaction-like unit of work. The registry is the engine's only
// piece of cross-call mutable state; it is scoped to a single transaction,
// drained exactly once by the finalization hook, and never leaks entries
// into the next transaction.
package deferred

import (
	"sync"

	"github.com/renatoliveira/chainable/chain"
)

// Registry buffers deferred chains in registration order.
// It is safe for concurrent use: independent call sites may register
// chains concurrently within one transaction without interference, since
// each chain owns its own shared context until merge time.
type Registry struct {
	mu      sync.Mutex
	pending []*chain.Chain
}

// NewRegistry creates an empty deferred registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends a chain to the pending buffer. Registration order is
// preserved: it becomes the concatenation order at finalize time.
func (r *Registry) Add(c *chain.Chain) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, c)
}

// Len returns the number of pending chains.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Drain returns all pending chains in registration order and clears the
// buffer atomically, so the finalization hook consumes each registration
// exactly once even if it races with a late Add.
func (r *Registry) Drain() []*chain.Chain {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.pending
	r.pending = nil
	return out
}
