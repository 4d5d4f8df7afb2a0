// Package engine wires all chainable subsystems together. It creates the
// extension registry, link registry, middleware chain, and worker executor,
// binds them to a host, and implements chain.Dispatcher so chains built
// with NewChain can Execute or ExecuteDeferred through it.
//
// This package sits above all subsystem packages and below the application
// layer; the root chainable package defines Entity and the sentinel errors
// (imported by link, host, etc.) and so cannot import those packages back.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/renatoliveira/chainable"
	"github.com/renatoliveira/chainable/chain"
	"github.com/renatoliveira/chainable/codec"
	"github.com/renatoliveira/chainable/deferred"
	"github.com/renatoliveira/chainable/hook"
	"github.com/renatoliveira/chainable/host"
	"github.com/renatoliveira/chainable/id"
	"github.com/renatoliveira/chainable/link"
	mw "github.com/renatoliveira/chainable/middleware"
	"github.com/renatoliveira/chainable/observability"
	"github.com/renatoliveira/chainable/worker"
)

// Engine binds chains to a host. It validates and serializes chains into
// envelopes, dispatches them through the host's variant primitives, and
// tracks chain lifecycle state as envelopes complete or fail.
type Engine struct {
	host       host.Host
	registry   *link.Registry
	extensions *hook.Registry
	deferred   *deferred.Registry
	codec      codec.Codec
	config     chainable.Config
	executor   *worker.Executor
	logger     *slog.Logger

	// Collected by options, registered after the logger is final.
	pendingExts []hook.Extension
	mws         []mw.Middleware

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	// Chains this process dispatched, keyed by chain ID, so terminal
	// lifecycle events can settle their state.
	mu     sync.Mutex
	active map[string]*chain.Chain
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry uses an existing link registry instead of a fresh one.
func WithRegistry(r *link.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithExtension registers a lifecycle extension with the engine.
func WithExtension(ext hook.Extension) Option {
	return func(e *Engine) { e.pendingExts = append(e.pendingExts, ext) }
}

// WithMiddleware appends middleware to the engine's chain, after the
// built-in stack.
func WithMiddleware(m mw.Middleware) Option {
	return func(e *Engine) { e.mws = append(e.mws, m) }
}

// WithCodec sets the wire codec for envelopes and shared-context
// snapshots. When unset, the codec named by Config.Codec is used
// (JSON by default).
func WithCodec(c codec.Codec) Option {
	return func(e *Engine) { e.codec = c }
}

// WithLogger sets the engine's logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithConfig replaces the default engine configuration.
func WithConfig(cfg chainable.Config) Option {
	return func(e *Engine) { e.config = cfg }
}

// WithDeferredRegistry uses an existing deferred registry, letting several
// engines (or tests) share one finalization scope.
func WithDeferredRegistry(r *deferred.Registry) Option {
	return func(e *Engine) { e.deferred = r }
}

// WithTracerProvider sets a custom OTel TracerProvider for the engine.
// When set, the tracing middleware uses this provider instead of the
// global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) { e.tracerProvider = tp }
}

// WithMeterProvider sets a custom OTel MeterProvider for the engine.
// When set, both the metrics middleware and the observability extension
// use this provider instead of the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Engine) { e.meterProvider = mp }
}

// New creates an Engine bound to the given host and injects its executor
// as the host's runner. The host must not have been started yet.
func New(h host.Host, opts ...Option) (*Engine, error) {
	if h == nil {
		return nil, chainable.ErrNoHost
	}

	e := &Engine{
		host:   h,
		config: chainable.DefaultConfig(),
		active: make(map[string]*chain.Chain),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.codec == nil {
		e.codec = codec.Get(e.config.Codec)
	}
	if e.registry == nil {
		e.registry = link.NewRegistry()
	}
	if e.deferred == nil {
		e.deferred = deferred.NewRegistry()
	}

	e.extensions = hook.NewRegistry(e.logger)
	e.extensions.Register(&chainTracker{eng: e})

	// Register the observability metrics extension.
	var obsExt *observability.MetricsExtension
	if e.meterProvider != nil {
		meter := e.meterProvider.Meter("github.com/renatoliveira/chainable/observability")
		obsExt = observability.NewMetricsExtensionWithMeter(meter)
	} else {
		obsExt = observability.NewMetricsExtension()
	}
	e.extensions.Register(obsExt)

	for _, ext := range e.pendingExts {
		e.extensions.Register(ext)
	}
	e.pendingExts = nil

	// Build tracing middleware (custom provider or global).
	var tracingMw mw.Middleware
	if e.tracerProvider != nil {
		tracer := e.tracerProvider.Tracer("github.com/renatoliveira/chainable")
		tracingMw = mw.TracingWithTracer(tracer)
	} else {
		tracingMw = mw.Tracing()
	}

	// Build metrics middleware (custom provider or global).
	var metricsMw mw.Middleware
	if e.meterProvider != nil {
		meter := e.meterProvider.Meter("github.com/renatoliveira/chainable")
		metricsMw = mw.MetricsWithMeter(meter)
	} else {
		metricsMw = mw.Metrics()
	}

	// Default middleware stack: recover → tracing → metrics → logging → timeout.
	allMws := []mw.Middleware{
		mw.Recover(e.logger),
		tracingMw,
		metricsMw,
		mw.Logging(e.logger),
		mw.Timeout(e.logger),
	}
	allMws = append(allMws, e.mws...)

	e.executor = worker.NewExecutor(
		e.registry,
		e.extensions,
		e.host,
		e.codec,
		e.config.PageSize,
		e.logger,
		allMws...,
	)
	e.host.SetRunner(e.executor)

	return e, nil
}

// Register adds a job factory under the given link name. Every job type
// appended to a chain must be registered before that chain executes, even
// on the local host: each link runs in a reconstructed unit of work.
func (e *Engine) Register(name string, f link.Factory) {
	e.registry.Register(name, f)
}

// NewChain starts a fluent chain bound to this engine.
func (e *Engine) NewChain(first *link.Link) *chain.Chain {
	return chain.New(e, first)
}

// ExecuteChain validates the chain, seals it, and dispatches its first
// link through the host. It implements chain.Dispatcher; call
// chain.Execute rather than this method directly.
func (e *Engine) ExecuteChain(ctx context.Context, c *chain.Chain) error {
	specs, err := e.buildSpecs(c)
	if err != nil {
		return err
	}

	if err := c.Begin(); err != nil {
		return err
	}

	snapshot, err := e.codec.Marshal(c.Shared().Snapshot())
	if err != nil {
		return fmt.Errorf("snapshot shared context for chain %s: %w", c.ID(), err)
	}

	queue := c.Queue()
	if queue == "" {
		queue = e.config.Queue
	}

	env := &host.Envelope{
		Entity:  chainable.NewEntity(),
		ID:      id.NewEnvelopeID(),
		ChainID: c.ID(),
		Queue:   queue,
		Links:   specs,
		Shared:  snapshot,
	}

	e.track(c)
	e.extensions.EmitChainStarted(ctx, env)

	if err := host.Dispatch(ctx, e.host, env); err != nil {
		dispatchErr := fmt.Errorf("dispatch chain %s: %w", c.ID(), err)
		// The ChainFailed hook settles the tracked chain and keeps
		// audit/metrics consumers in sync with the state machine.
		e.extensions.EmitChainFailed(ctx, env, dispatchErr)
		return dispatchErr
	}

	e.logger.Info("chain dispatched",
		slog.String("chain_id", c.ID().String()),
		slog.String("queue", queue),
		slog.Int("links", len(specs)),
	)
	return nil
}

// DeferChain validates the chain and parks it in the deferred registry.
// Nothing is dispatched until Finalize runs. Validation happens now so a
// bad chain surfaces at the registration site, not at finalize.
func (e *Engine) DeferChain(ctx context.Context, c *chain.Chain) error {
	if _, err := e.buildSpecs(c); err != nil {
		return err
	}

	if err := c.MarkDeferred(); err != nil {
		return err
	}

	e.deferred.Add(c)
	e.extensions.EmitDeferredRegistered(ctx, c.ID(), len(c.Links()))

	e.logger.Debug("chain deferred",
		slog.String("chain_id", c.ID().String()),
		slog.Int("links", len(c.Links())),
		slog.Int("pending", e.deferred.Len()),
	)
	return nil
}

// Finalize drains the deferred registry, concatenates the pending chains
// into one composite in registration order, and executes it exactly once.
// With nothing pending it is a no-op. A second Finalize call sees an empty
// registry, so deferred chains can never run twice.
func (e *Engine) Finalize(ctx context.Context) error {
	chains := e.deferred.Drain()
	if len(chains) == 0 {
		e.logger.Debug("finalize: no deferred chains")
		return nil
	}

	composite, err := chain.Concat(e, chains...)
	if err != nil {
		return fmt.Errorf("merge %d deferred chains: %w", len(chains), err)
	}

	e.extensions.EmitDeferredMerged(ctx, composite.ID(), len(chains))
	e.logger.Info("deferred chains merged",
		slog.String("composite_id", composite.ID().String()),
		slog.Int("merged", len(chains)),
		slog.Int("links", len(composite.Links())),
	)

	return e.ExecuteChain(ctx, composite)
}

// buildSpecs validates every link and captures its wire form. All links
// must be registered and timer schedules must parse; the first violation
// aborts before anything is dispatched or deferred.
func (e *Engine) buildSpecs(c *chain.Chain) ([]host.LinkSpec, error) {
	links := c.Links()
	if len(links) == 0 {
		return nil, chainable.ErrEmptyChain
	}

	specs := make([]host.LinkSpec, 0, len(links))
	for _, l := range links {
		if _, ok := e.registry.Get(l.Name()); !ok {
			return nil, fmt.Errorf("%w: link %q in chain %s", chainable.ErrNotRegistered, l.Name(), c.ID())
		}
		if l.Variant() == link.VariantTimer {
			if err := host.ValidateSchedule(l.Schedule()); err != nil {
				return nil, fmt.Errorf("link %q in chain %s: %w", l.Name(), c.ID(), err)
			}
		}

		args, err := l.CaptureArgs()
		if err != nil {
			return nil, fmt.Errorf("%w: link %q in chain %s: %v", chainable.ErrCaptureArgs, l.Name(), c.ID(), err)
		}

		specs = append(specs, host.LinkSpec{
			Name:     l.Name(),
			Variant:  l.Variant(),
			Schedule: l.Schedule(),
			Timeout:  l.Timeout(),
			Args:     args,
		})
	}
	return specs, nil
}

// Start begins envelope consumption on the host.
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info("engine starting", slog.String("codec", e.codec.Name()))
	return e.host.Start(ctx)
}

// Stop notifies extensions and shuts the host down, waiting for in-flight
// links to finish.
func (e *Engine) Stop(ctx context.Context) error {
	e.extensions.EmitShutdown(ctx)
	return e.host.Stop(ctx)
}

// Extensions returns the engine's extension registry.
func (e *Engine) Extensions() *hook.Registry { return e.extensions }

// Registry returns the link registry.
func (e *Engine) Registry() *link.Registry { return e.registry }

// Deferred returns the deferred-chain registry.
func (e *Engine) Deferred() *deferred.Registry { return e.deferred }

// Host returns the engine's host.
func (e *Engine) Host() host.Host { return e.host }

// Config returns the engine configuration.
func (e *Engine) Config() chainable.Config { return e.config }

// track remembers a dispatched chain so terminal events can settle it.
func (e *Engine) track(c *chain.Chain) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active[c.ID().String()] = c
}

// settle records a tracked chain's terminal outcome and forgets it.
// Envelopes dispatched by other processes are not tracked here; their
// lifecycle lives wherever the chain object lives.
func (e *Engine) settle(chainID id.ChainID, failed bool) {
	e.mu.Lock()
	c, ok := e.active[chainID.String()]
	if ok {
		delete(e.active, chainID.String())
	}
	e.mu.Unlock()

	if ok {
		c.Finish(failed)
	}
}

// chainTracker settles tracked chains when their envelopes reach a
// terminal lifecycle event.
type chainTracker struct {
	eng *Engine
}

func (t *chainTracker) Name() string { return "chainable.chain-tracker" }

func (t *chainTracker) OnChainCompleted(_ context.Context, env *host.Envelope) error {
	t.eng.settle(env.ChainID, false)
	return nil
}

func (t *chainTracker) OnChainFailed(_ context.Context, env *host.Envelope, _ error) error {
	t.eng.settle(env.ChainID, true)
	return nil
}
