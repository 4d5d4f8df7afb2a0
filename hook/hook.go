// Package hook defines the lifecycle extension system for chainable.
// Extensions are notified of lifecycle events (chain started, link
// completed, deferred chains merged, etc.) and can react to them —
// logging, metrics, auditing.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package hook

import (
	"context"
	"time"

	"github.com/renatoliveira/chainable/host"
	"github.com/renatoliveira/chainable/id"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Chain lifecycle hooks
// ──────────────────────────────────────────────────

// ChainStarted is called when a chain's first link is dispatched.
type ChainStarted interface {
	OnChainStarted(ctx context.Context, env *host.Envelope) error
}

// ChainCompleted is called after a chain's terminal link finishes.
type ChainCompleted interface {
	OnChainCompleted(ctx context.Context, env *host.Envelope) error
}

// ChainFailed is called when a link failure halts a chain. No successor
// is dispatched after this event.
type ChainFailed interface {
	OnChainFailed(ctx context.Context, env *host.Envelope, err error) error
}

// ──────────────────────────────────────────────────
// Link lifecycle hooks
// ──────────────────────────────────────────────────

// LinkStarted is called when the executor begins a link's lifecycle.
type LinkStarted interface {
	OnLinkStarted(ctx context.Context, env *host.Envelope, spec *host.LinkSpec) error
}

// LinkCompleted is called after a link's lifecycle finishes successfully.
type LinkCompleted interface {
	OnLinkCompleted(ctx context.Context, env *host.Envelope, spec *host.LinkSpec, elapsed time.Duration) error
}

// LinkFailed is called when a link's lifecycle reports an error.
type LinkFailed interface {
	OnLinkFailed(ctx context.Context, env *host.Envelope, spec *host.LinkSpec, err error) error
}

// ──────────────────────────────────────────────────
// Deferred lifecycle hooks
// ──────────────────────────────────────────────────

// DeferredRegistered is called when a chain is registered for deferred
// execution instead of running.
type DeferredRegistered interface {
	OnDeferredRegistered(ctx context.Context, chainID id.ChainID, links int) error
}

// DeferredMerged is called when finalization concatenates the pending
// deferred chains into one composite.
type DeferredMerged interface {
	OnDeferredMerged(ctx context.Context, compositeID id.ChainID, merged int) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// Shutdown is called during graceful engine shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
