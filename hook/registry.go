package hook

import (
	"context"
	"log/slog"
	"time"

	"github.com/renatoliveira/chainable/host"
	"github.com/renatoliveira/chainable/id"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type chainStartedEntry struct {
	name string
	hook ChainStarted
}

type chainCompletedEntry struct {
	name string
	hook ChainCompleted
}

type chainFailedEntry struct {
	name string
	hook ChainFailed
}

type linkStartedEntry struct {
	name string
	hook LinkStarted
}

type linkCompletedEntry struct {
	name string
	hook LinkCompleted
}

type linkFailedEntry struct {
	name string
	hook LinkFailed
}

type deferredRegisteredEntry struct {
	name string
	hook DeferredRegistered
}

type deferredMergedEntry struct {
	name string
	hook DeferredMerged
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	chainStarted       []chainStartedEntry
	chainCompleted     []chainCompletedEntry
	chainFailed        []chainFailedEntry
	linkStarted        []linkStartedEntry
	linkCompleted      []linkCompletedEntry
	linkFailed         []linkFailedEntry
	deferredRegistered []deferredRegisteredEntry
	deferredMerged     []deferredMergedEntry
	shutdown           []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(ChainStarted); ok {
		r.chainStarted = append(r.chainStarted, chainStartedEntry{name, h})
	}
	if h, ok := e.(ChainCompleted); ok {
		r.chainCompleted = append(r.chainCompleted, chainCompletedEntry{name, h})
	}
	if h, ok := e.(ChainFailed); ok {
		r.chainFailed = append(r.chainFailed, chainFailedEntry{name, h})
	}
	if h, ok := e.(LinkStarted); ok {
		r.linkStarted = append(r.linkStarted, linkStartedEntry{name, h})
	}
	if h, ok := e.(LinkCompleted); ok {
		r.linkCompleted = append(r.linkCompleted, linkCompletedEntry{name, h})
	}
	if h, ok := e.(LinkFailed); ok {
		r.linkFailed = append(r.linkFailed, linkFailedEntry{name, h})
	}
	if h, ok := e.(DeferredRegistered); ok {
		r.deferredRegistered = append(r.deferredRegistered, deferredRegisteredEntry{name, h})
	}
	if h, ok := e.(DeferredMerged); ok {
		r.deferredMerged = append(r.deferredMerged, deferredMergedEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Chain event emitters
// ──────────────────────────────────────────────────

// EmitChainStarted notifies all extensions that implement ChainStarted.
func (r *Registry) EmitChainStarted(ctx context.Context, env *host.Envelope) {
	for _, e := range r.chainStarted {
		if err := e.hook.OnChainStarted(ctx, env); err != nil {
			r.logHookError("OnChainStarted", e.name, err)
		}
	}
}

// EmitChainCompleted notifies all extensions that implement ChainCompleted.
func (r *Registry) EmitChainCompleted(ctx context.Context, env *host.Envelope) {
	for _, e := range r.chainCompleted {
		if err := e.hook.OnChainCompleted(ctx, env); err != nil {
			r.logHookError("OnChainCompleted", e.name, err)
		}
	}
}

// EmitChainFailed notifies all extensions that implement ChainFailed.
func (r *Registry) EmitChainFailed(ctx context.Context, env *host.Envelope, chainErr error) {
	for _, e := range r.chainFailed {
		if err := e.hook.OnChainFailed(ctx, env, chainErr); err != nil {
			r.logHookError("OnChainFailed", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Link event emitters
// ──────────────────────────────────────────────────

// EmitLinkStarted notifies all extensions that implement LinkStarted.
func (r *Registry) EmitLinkStarted(ctx context.Context, env *host.Envelope, spec *host.LinkSpec) {
	for _, e := range r.linkStarted {
		if err := e.hook.OnLinkStarted(ctx, env, spec); err != nil {
			r.logHookError("OnLinkStarted", e.name, err)
		}
	}
}

// EmitLinkCompleted notifies all extensions that implement LinkCompleted.
func (r *Registry) EmitLinkCompleted(ctx context.Context, env *host.Envelope, spec *host.LinkSpec, elapsed time.Duration) {
	for _, e := range r.linkCompleted {
		if err := e.hook.OnLinkCompleted(ctx, env, spec, elapsed); err != nil {
			r.logHookError("OnLinkCompleted", e.name, err)
		}
	}
}

// EmitLinkFailed notifies all extensions that implement LinkFailed.
func (r *Registry) EmitLinkFailed(ctx context.Context, env *host.Envelope, spec *host.LinkSpec, linkErr error) {
	for _, e := range r.linkFailed {
		if err := e.hook.OnLinkFailed(ctx, env, spec, linkErr); err != nil {
			r.logHookError("OnLinkFailed", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Other event emitters
// ──────────────────────────────────────────────────

// EmitDeferredRegistered notifies all extensions that implement DeferredRegistered.
func (r *Registry) EmitDeferredRegistered(ctx context.Context, chainID id.ChainID, links int) {
	for _, e := range r.deferredRegistered {
		if err := e.hook.OnDeferredRegistered(ctx, chainID, links); err != nil {
			r.logHookError("OnDeferredRegistered", e.name, err)
		}
	}
}

// EmitDeferredMerged notifies all extensions that implement DeferredMerged.
func (r *Registry) EmitDeferredMerged(ctx context.Context, compositeID id.ChainID, merged int) {
	for _, e := range r.deferredMerged {
		if err := e.hook.OnDeferredMerged(ctx, compositeID, merged); err != nil {
			r.logHookError("OnDeferredMerged", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block the pipeline.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
