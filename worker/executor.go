// Package worker provides the link execution engine — an Executor that
// runs one link per unit of work: it reconstructs the registered job from
// the envelope, rehydrates the shared context, drives the variant
// lifecycle through middleware, then snapshots the context and hands the
// successor back to the host.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/renatoliveira/chainable"
	"github.com/renatoliveira/chainable/codec"
	"github.com/renatoliveira/chainable/hook"
	"github.com/renatoliveira/chainable/host"
	"github.com/renatoliveira/chainable/id"
	"github.com/renatoliveira/chainable/link"
	"github.com/renatoliveira/chainable/middleware"
	"github.com/renatoliveira/chainable/shared"
)

// Executor runs a single link through middleware and the reconstructed job,
// then advances the envelope and dispatches the successor. It implements
// host.Runner.
type Executor struct {
	id         id.WorkerID
	registry   *link.Registry
	extensions *hook.Registry
	host       host.Host
	codec      codec.Codec
	mw         middleware.Middleware
	logger     *slog.Logger
	pageSize   int
}

// NewExecutor creates an Executor with the given dependencies. pageSize is
// the default bulk page size used when the job does not implement
// link.Pager.
func NewExecutor(
	registry *link.Registry,
	extensions *hook.Registry,
	h host.Host,
	c codec.Codec,
	pageSize int,
	logger *slog.Logger,
	mws ...middleware.Middleware,
) *Executor {
	eid := id.NewWorkerID()
	return &Executor{
		id:         eid,
		registry:   registry,
		extensions: extensions,
		host:       h,
		codec:      c,
		mw:         middleware.Chain(mws...),
		logger:     logger.With(slog.String("worker_id", eid.String())),
		pageSize:   pageSize,
	}
}

// ID returns the executor's worker identity, carried on its log records.
func (e *Executor) ID() id.WorkerID { return e.id }

// Run executes the link at the envelope's position.
// On success: emits LinkCompleted, snapshots the shared context into the
// envelope, and dispatches the successor — or emits ChainCompleted when the
// link is terminal.
// On failure: emits LinkFailed + ChainFailed and halts; no successor is
// dispatched and the shared snapshot keeps the state written by the links
// that already completed. A successor dispatch failure halts the chain the
// same way (ChainFailed, no LinkFailed — the link itself succeeded).
func (e *Executor) Run(ctx context.Context, env *host.Envelope) error {
	spec, err := env.Current()
	if err != nil {
		return err
	}

	e.extensions.EmitLinkStarted(ctx, env, spec)

	j, err := e.registry.Build(spec.Name, spec.Args)
	if err != nil {
		return e.halt(ctx, env, spec, err)
	}

	sc, err := e.rehydrate(env)
	if err != nil {
		return e.halt(ctx, env, spec, err)
	}

	start := time.Now()

	// The terminal handler that drives the variant lifecycle.
	terminal := func(ctx context.Context) error {
		return e.runVariant(ctx, spec, j, sc)
	}

	err = e.mw(ctx, env, terminal)
	elapsed := time.Since(start)

	if err != nil {
		return e.halt(ctx, env, spec, err)
	}

	e.extensions.EmitLinkCompleted(ctx, env, spec, elapsed)

	snapshot, err := e.codec.Marshal(sc.Snapshot())
	if err != nil {
		return e.halt(ctx, env, spec, fmt.Errorf("snapshot shared context: %w", err))
	}
	env.Shared = snapshot

	if _, ok := env.Next(); !ok {
		e.extensions.EmitChainCompleted(ctx, env)
		e.logger.Info("chain completed",
			slog.String("chain_id", env.ChainID.String()),
			slog.Int("links", len(env.Links)),
		)
		return nil
	}

	env.Advance()
	if err := host.Dispatch(ctx, e.host, env); err != nil {
		dispatchErr := fmt.Errorf("dispatch successor: %w", err)
		e.extensions.EmitChainFailed(ctx, env, dispatchErr)
		e.logger.Error("chain halted on successor dispatch failure",
			slog.String("chain_id", env.ChainID.String()),
			slog.Int("position", env.Position),
			slog.String("error", err.Error()),
		)
		return dispatchErr
	}

	return nil
}

// rehydrate reconstructs the shared context from the envelope's snapshot.
// An envelope with no snapshot yields a fresh empty context.
func (e *Executor) rehydrate(env *host.Envelope) (*shared.Context, error) {
	if len(env.Shared) == 0 {
		return shared.New(), nil
	}
	var values map[string]any
	if err := e.codec.Unmarshal(env.Shared, &values); err != nil {
		return nil, fmt.Errorf("%w: shared snapshot: %v", chainable.ErrBadEnvelope, err)
	}
	return shared.FromMap(values), nil
}

// runVariant dispatches to the lifecycle of the link's variant.
func (e *Executor) runVariant(ctx context.Context, spec *host.LinkSpec, j any, sc *shared.Context) error {
	switch spec.Variant {
	case link.VariantBulk:
		b, ok := j.(link.BulkJob)
		if !ok {
			return fmt.Errorf("%w: link %q is bulk but job type does not implement BulkJob", chainable.ErrVariantMismatch, spec.Name)
		}
		return e.runBulk(ctx, b, sc)
	case link.VariantTimer:
		tj, ok := j.(link.TimerJob)
		if !ok {
			return fmt.Errorf("%w: link %q is timer but job type does not implement TimerJob", chainable.ErrVariantMismatch, spec.Name)
		}
		return tj.Run(ctx, sc)
	default:
		tj, ok := j.(link.TaskJob)
		if !ok {
			return fmt.Errorf("%w: link %q is task but job type does not implement TaskJob", chainable.ErrVariantMismatch, spec.Name)
		}
		return tj.Run(ctx, sc)
	}
}

// runBulk enumerates the work items once, feeds them to Process in pages,
// and fires OnComplete exactly once after the last page. A job that
// enumerates nothing skips Process entirely but still gets OnComplete.
func (e *Executor) runBulk(ctx context.Context, b link.BulkJob, sc *shared.Context) error {
	items, err := b.Enumerate(ctx, sc)
	if err != nil {
		return fmt.Errorf("enumerate: %w", err)
	}

	size := e.pageSize
	if p, ok := b.(link.Pager); ok && p.PageSize() > 0 {
		size = p.PageSize()
	}
	if size <= 0 {
		size = chainable.DefaultConfig().PageSize
	}

	for lo := 0; lo < len(items); lo += size {
		hi := lo + size
		if hi > len(items) {
			hi = len(items)
		}
		if err := b.Process(ctx, sc, items[lo:hi]); err != nil {
			return fmt.Errorf("process page [%d:%d]: %w", lo, hi, err)
		}
	}

	if err := b.OnComplete(ctx, sc); err != nil {
		return fmt.Errorf("on complete: %w", err)
	}
	return nil
}

// halt records a link failure and stops the chain. Links after the failed
// one never run; the error is returned to the host so the transport can
// record the delivery outcome.
func (e *Executor) halt(ctx context.Context, env *host.Envelope, spec *host.LinkSpec, runErr error) error {
	e.extensions.EmitLinkFailed(ctx, env, spec, runErr)
	e.extensions.EmitChainFailed(ctx, env, runErr)

	e.logger.Error("chain halted on link failure",
		slog.String("chain_id", env.ChainID.String()),
		slog.String("link_name", spec.Name),
		slog.Int("position", env.Position),
		slog.Int("remaining", len(env.Links)-env.Position-1),
		slog.String("error", runErr.Error()),
	)

	return runErr
}
