package chain

import (
	"context"
	"fmt"
	"sync"

	"github.com/renatoliveira/chainable"
	"github.com/renatoliveira/chainable/id"
	"github.com/renatoliveira/chainable/link"
	"github.com/renatoliveira/chainable/shared"
)

// State represents the lifecycle state of a chain.
type State string

const (
	// StateBuilt means the chain is still being assembled.
	StateBuilt State = "built"
	// StateDeferred means the chain is registered for deferred execution.
	StateDeferred State = "deferred"
	// StateRunning means execution has been handed to the host.
	StateRunning State = "running"
	// StateCompleted means the terminal link finished successfully.
	StateCompleted State = "completed"
	// StateFailed means a link failed and the chain halted.
	StateFailed State = "failed"
)

// Dispatcher executes or defers a fully built chain. It is implemented by
// the engine; the interface lives here to keep the chain package free of
// engine imports.
type Dispatcher interface {
	ExecuteChain(ctx context.Context, c *Chain) error
	DeferChain(ctx context.Context, c *Chain) error
}

// Chain is an ordered sequence of links sharing exactly one context.
// Appending a link binds it to that context; the chain is never mutated
// after execution begins.
type Chain struct {
	mu    sync.Mutex
	id    id.ChainID
	disp  Dispatcher
	links []*link.Link
	sc    *shared.Context
	queue string
	state State
	err   error
}

// New creates a chain starting at first, bound to the given dispatcher.
func New(disp Dispatcher, first *link.Link) *Chain {
	c := &Chain{
		id:    id.NewChainID(),
		disp:  disp,
		sc:    shared.New(),
		state: StateBuilt,
	}
	return c.Then(first)
}

// ID returns the chain's unique identifier.
func (c *Chain) ID() id.ChainID { return c.id }

// Then appends l as the successor of the current tail and binds it to the
// chain's shared context. Appending a link that already belongs to a chain,
// or appending after execution began, records a construction error and
// leaves the chain unmodified.
func (c *Chain) Then(l *Link) *Chain {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return c
	}
	if c.state != StateBuilt {
		c.err = fmt.Errorf("%w: cannot append in state %q", chainable.ErrChainSealed, c.state)
		return c
	}
	if l == nil {
		c.err = fmt.Errorf("chain %s: cannot append nil link", c.id)
		return c
	}
	if err := l.Claim(); err != nil {
		c.err = fmt.Errorf("chain %s: append %q: %w", c.id, l.Name(), err)
		return c
	}

	c.links = append(c.links, l)
	return c
}

// SetShared writes into the chain's shared context. The value is visible to
// every not-yet-executed link; it cannot retroactively reach links that
// already ran.
func (c *Chain) SetShared(key string, value any) *Chain {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return c
	}
	if c.state != StateBuilt {
		c.err = fmt.Errorf("%w: cannot set shared value in state %q", chainable.ErrChainSealed, c.state)
		return c
	}

	c.sc.Set(key, value)
	return c
}

// OnQueue routes the chain's envelopes to the named queue. Default queue
// assignment is the engine's concern. When deferred chains are merged at
// finalize, the composite runs on the first-registered chain's queue; a
// later chain's OnQueue choice does not survive the merge.
func (c *Chain) OnQueue(queue string) *Chain {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err == nil && c.state == StateBuilt {
		c.queue = queue
	}
	return c
}

// Err returns the first construction error recorded on the chain, nil if
// the chain is well formed.
func (c *Chain) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Execute begins immediate execution of the chain, link by link, each
// hand-off going through the host primitive for the successor's variant.
// A recorded construction error is returned instead, before any dispatch.
func (c *Chain) Execute(ctx context.Context) error {
	if err := c.Err(); err != nil {
		return err
	}
	return c.disp.ExecuteChain(ctx, c)
}

// ExecuteDeferred registers the chain for deferred execution instead of
// running it. Nothing runs until the engine's Finalize hook fires.
func (c *Chain) ExecuteDeferred(ctx context.Context) error {
	if err := c.Err(); err != nil {
		return err
	}
	return c.disp.DeferChain(ctx, c)
}

// Links returns the chain's links in execution order.
func (c *Chain) Links() []*link.Link {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*link.Link, len(c.links))
	copy(out, c.links)
	return out
}

// Shared returns the chain's shared context.
func (c *Chain) Shared() *shared.Context { return c.sc }

// Queue returns the chain's queue, empty if the engine default applies.
func (c *Chain) Queue() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue
}

// State returns the chain's current lifecycle state.
func (c *Chain) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Begin seals the chain and transitions it to Running. Valid from Built
// (immediate execution) and Deferred (composite execution at finalize).
func (c *Chain) Begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateBuilt && c.state != StateDeferred {
		return fmt.Errorf("%w: begin from state %q", chainable.ErrChainSealed, c.state)
	}
	if len(c.links) == 0 {
		return chainable.ErrEmptyChain
	}

	c.state = StateRunning
	return nil
}

// MarkDeferred seals the chain and transitions it to Deferred. Valid only
// from Built; a chain cannot be deferred twice or after execution.
func (c *Chain) MarkDeferred() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateBuilt {
		return fmt.Errorf("%w: defer from state %q", chainable.ErrChainSealed, c.state)
	}
	if len(c.links) == 0 {
		return chainable.ErrEmptyChain
	}

	c.state = StateDeferred
	return nil
}

// Finish records the terminal outcome of a running chain. The Failed state
// is absorbing: once failed, a chain never transitions again.
func (c *Chain) Finish(failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning {
		return
	}
	if failed {
		c.state = StateFailed
		return
	}
	c.state = StateCompleted
}

// Link re-exports link.Link so chain builders read naturally at call sites.
type Link = link.Link

// Concat merges deferred chains into one composite, preserving
// registration order: chain 1's links, then chain 2's, and so on. The
// shared contexts fold together last-write-wins in the same order, so a
// later-registered chain's pre-seeded value takes effect exactly as if it
// had been written later in the composite's execution. The composite takes
// the first chain's queue; queue choices on later chains are dropped.
// Source chains are consumed — their links belong to the composite
// afterwards.
func Concat(disp Dispatcher, chains ...*Chain) (*Chain, error) {
	if len(chains) == 0 {
		return nil, chainable.ErrEmptyChain
	}

	composite := &Chain{
		id:    id.NewChainID(),
		disp:  disp,
		sc:    shared.New(),
		state: StateBuilt,
		queue: chains[0].Queue(),
	}

	for _, c := range chains {
		composite.links = append(composite.links, c.Links()...)
		composite.sc.Merge(c.Shared())
	}

	if len(composite.links) == 0 {
		return nil, chainable.ErrEmptyChain
	}
	return composite, nil
}
