// Package shared provides the mutable key-value context threaded through a
// chain's execution. All links of one chain share exactly one Context
// instance while the chain is being built; once execution begins the context
// travels as a serialized snapshot inside each dispatch envelope and is
// rehydrated before the next link's body runs.
package shared

import (
	"encoding/json"
	"sync"
)

// Context is an insertion-agnostic key→value store with last-write-wins
// semantics. It is safe for concurrent use; within a chain at most one link
// mutates it at a time, but independent chains may be built concurrently.
type Context struct {
	mu     sync.RWMutex
	values map[string]any
}

// New creates an empty Context.
func New() *Context {
	return &Context{values: make(map[string]any)}
}

// FromMap creates a Context seeded with the given values.
// The map is copied, not retained.
func FromMap(m map[string]any) *Context {
	c := New()
	for k, v := range m {
		c.values[k] = v
	}
	return c
}

// Set stores a value under key, overwriting any previous value.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Value returns the raw value for key and whether it was present.
func (c *Context) Value(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Len returns the number of stored keys.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Keys returns all stored keys in unspecified order.
func (c *Context) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	return keys
}

// Snapshot returns a copy of the stored values. The returned map is what
// travels inside a dispatch envelope; mutating it does not affect the
// Context.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m := make(map[string]any, len(c.values))
	for k, v := range c.values {
		m[k] = v
	}
	return m
}

// Merge folds other's values into c, last write wins. The deferred merge
// applies contexts in registration order, so a later-registered chain's
// value replaces an earlier one — execution-order precedence.
func (c *Context) Merge(other *Context) {
	if other == nil {
		return
	}
	for k, v := range other.Snapshot() {
		c.Set(k, v)
	}
}

// Get returns the value for key converted to T.
//
// Values that crossed a unit-of-work boundary were decoded from the
// envelope's wire form, so a value written as a struct may come back as a
// generic map. When a direct type assertion fails, Get re-marshals the
// value through JSON into T.
func Get[T any](c *Context, key string) (T, bool) {
	var zero T

	raw, ok := c.Value(key)
	if !ok {
		return zero, false
	}

	if v, ok := raw.(T); ok {
		return v, true
	}

	// Wire-decoded value: coerce through JSON.
	data, err := json.Marshal(raw)
	if err != nil {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, false
	}
	return v, true
}
