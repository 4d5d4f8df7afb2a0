// Package local implements an in-process host backed by goroutines. Each
// dispatched envelope runs in its own goroutine, detached from the caller:
// Execute returns as soon as the hand-off happens, exactly like on a
// remote backend. Timer links wait in-process until their schedule fires.
//
// The local host is the default for tests and single-process deployments.
// Use Wait to block until every in-flight chain has drained.
package local

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/renatoliveira/chainable"
	"github.com/renatoliveira/chainable/backoff"
	"github.com/renatoliveira/chainable/host"
)

// Host runs envelopes on goroutines inside the current process.
type Host struct {
	logger  *slog.Logger
	limiter *host.Limiter
	bo      backoff.Strategy

	runner host.Runner

	mu      sync.Mutex
	stopCh  chan struct{}
	stopped bool
	wg      sync.WaitGroup
}

// Option configures the local host.
type Option func(*Host)

// WithLogger sets the host's logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) { h.logger = l }
}

// WithQueueConfig enables per-queue rate limiting and concurrency caps.
// Queues not listed run unrestricted.
func WithQueueConfig(configs ...host.QueueConfig) Option {
	return func(h *Host) { h.limiter = host.NewLimiter(configs...) }
}

// WithBackoff sets the delay strategy used while a queue is at its limit.
// Defaults to backoff.DefaultStrategy().
func WithBackoff(b backoff.Strategy) Option {
	return func(h *Host) { h.bo = b }
}

// New creates a local host.
func New(opts ...Option) *Host {
	h := &Host{
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.bo == nil {
		h.bo = backoff.DefaultStrategy()
	}
	return h
}

// SetRunner injects the executor. Must be called before any dispatch.
func (h *Host) SetRunner(r host.Runner) { h.runner = r }

// DispatchBulk hands off a bulk envelope to a fresh goroutine.
func (h *Host) DispatchBulk(_ context.Context, env *host.Envelope) error {
	return h.dispatch(env, 0)
}

// DispatchTask hands off a task envelope to a fresh goroutine.
func (h *Host) DispatchTask(_ context.Context, env *host.Envelope) error {
	return h.dispatch(env, 0)
}

// DispatchTimer hands off a timer envelope; the goroutine sleeps until the
// link's schedule next fires, then runs it.
func (h *Host) DispatchTimer(_ context.Context, env *host.Envelope) error {
	spec, err := env.Current()
	if err != nil {
		return err
	}
	fireAt, err := host.NextFire(spec.Schedule, time.Now())
	if err != nil {
		return err
	}
	return h.dispatch(env, time.Until(fireAt))
}

// Start is a no-op for the local host; goroutines begin on dispatch.
func (h *Host) Start(_ context.Context) error {
	h.logger.Debug("local host started")
	return nil
}

// Stop refuses further dispatches and waits for in-flight links to finish
// or the context to expire. Timer envelopes still waiting for their
// schedule are abandoned.
func (h *Host) Stop(ctx context.Context) error {
	h.mu.Lock()
	if !h.stopped {
		h.stopped = true
		close(h.stopCh)
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every dispatched envelope has run to completion.
// Useful in tests and batch programs that must not exit mid-chain.
func (h *Host) Wait() {
	h.wg.Wait()
}

func (h *Host) dispatch(env *host.Envelope, delay time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return chainable.ErrHostStopped
	}
	if h.runner == nil {
		return chainable.ErrNoHost
	}

	h.wg.Add(1)
	go h.deliver(env, delay)
	return nil
}

// deliver waits out the timer delay and queue limits, then runs the
// envelope. Failures are already logged and hook-emitted by the runner.
func (h *Host) deliver(env *host.Envelope, delay time.Duration) {
	defer h.wg.Done()

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-h.stopCh:
			return
		}
	}

	if h.limiter != nil {
		for attempt := 1; !h.limiter.Acquire(env.Queue); attempt++ {
			select {
			case <-time.After(h.bo.Delay(attempt)):
			case <-h.stopCh:
				return
			}
		}
		defer h.limiter.Release(env.Queue)
	}

	if err := h.runner.Run(context.Background(), env); err != nil {
		h.logger.Debug("envelope run ended with error",
			slog.String("chain_id", env.ChainID.String()),
			slog.Int("position", env.Position),
			slog.String("error", err.Error()),
		)
	}
}
