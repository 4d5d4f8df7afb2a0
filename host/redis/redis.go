// Package redis implements a host backed by Redis. Queues are Lists
// (LPUSH producer side, RPOP consumer side), timer envelopes wait in a
// Sorted Set scored by fire time until a promoter moves them onto their
// queue. Several processes may consume the same queues; each RPOP claims
// an envelope for exactly one consumer, which is the delivery guarantee
// chains inherit.
//
// Usage:
//
//	client := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
//	h := redishost.New(client, redishost.WithQueues("default", "reports"))
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/renatoliveira/chainable"
	"github.com/renatoliveira/chainable/backoff"
	"github.com/renatoliveira/chainable/codec"
	"github.com/renatoliveira/chainable/host"
)

// Host dispatches and consumes envelopes through Redis.
type Host struct {
	client       goredis.Cmdable
	codec        codec.Codec
	logger       *slog.Logger
	queues       []string
	concurrency  int
	pollInterval time.Duration
	bo           backoff.Strategy

	runner host.Runner

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// Option configures the Host.
type Option func(*Host)

// WithCodec sets the envelope codec. Defaults to JSON; must match the
// engine's codec.
func WithCodec(c codec.Codec) Option {
	return func(h *Host) { h.codec = c }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) { h.logger = l }
}

// WithQueues sets which queues this process consumes. Defaults to the
// engine default queue. Dispatching to an unconsumed queue still works —
// some other process picks it up.
func WithQueues(names ...string) Option {
	return func(h *Host) { h.queues = names }
}

// WithConcurrency sets how many consumer goroutines run. Defaults to 4.
func WithConcurrency(n int) Option {
	return func(h *Host) { h.concurrency = n }
}

// WithPollInterval sets the idle sleep between empty polls.
func WithPollInterval(d time.Duration) Option {
	return func(h *Host) { h.pollInterval = d }
}

// WithBackoff sets the delay strategy applied after transport errors.
func WithBackoff(b backoff.Strategy) Option {
	return func(h *Host) { h.bo = b }
}

// New creates a Redis-backed host. The caller owns the client lifecycle.
func New(client goredis.Cmdable, opts ...Option) *Host {
	h := &Host{
		client:       client,
		concurrency:  4,
		pollInterval: chainable.DefaultConfig().PollInterval,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.codec == nil {
		h.codec = &codec.JSON{}
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if len(h.queues) == 0 {
		h.queues = []string{chainable.DefaultConfig().Queue}
	}
	if h.bo == nil {
		h.bo = backoff.DefaultStrategy()
	}
	return h
}

// SetRunner injects the executor. Must be called before Start.
func (h *Host) SetRunner(r host.Runner) { h.runner = r }

// DispatchBulk pushes a bulk envelope onto its queue.
func (h *Host) DispatchBulk(ctx context.Context, env *host.Envelope) error {
	return h.push(ctx, env)
}

// DispatchTask pushes a task envelope onto its queue.
func (h *Host) DispatchTask(ctx context.Context, env *host.Envelope) error {
	return h.push(ctx, env)
}

// DispatchTimer parks a timer envelope in the timers set until its
// schedule next fires.
func (h *Host) DispatchTimer(ctx context.Context, env *host.Envelope) error {
	spec, err := env.Current()
	if err != nil {
		return err
	}
	fireAt, err := host.NextFire(spec.Schedule, time.Now())
	if err != nil {
		return err
	}

	data, err := env.Encode(h.codec)
	if err != nil {
		return err
	}

	err = h.client.ZAdd(ctx, timersKey, goredis.Z{
		Score:  float64(fireAt.UnixMilli()),
		Member: data,
	}).Err()
	if err != nil {
		return fmt.Errorf("chainable/redis: park timer envelope: %w", err)
	}
	return nil
}

func (h *Host) push(ctx context.Context, env *host.Envelope) error {
	data, err := env.Encode(h.codec)
	if err != nil {
		return err
	}
	if err := h.client.LPush(ctx, queueKey(env.Queue), data).Err(); err != nil {
		return fmt.Errorf("chainable/redis: push envelope: %w", err)
	}
	return nil
}

// Start launches the consumer goroutines and the timer promoter. It
// returns immediately; consumption continues until Stop.
func (h *Host) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started {
		return errors.New("chainable/redis: host already started")
	}
	if h.runner == nil {
		return chainable.ErrNoHost
	}
	h.started = true

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	h.cancel = cancel
	h.group, runCtx = errgroup.WithContext(runCtx)

	for i := 0; i < h.concurrency; i++ {
		h.group.Go(func() error { return h.consume(runCtx) })
	}
	h.group.Go(func() error { return h.promoteTimers(runCtx) })

	h.logger.Info("redis host started",
		slog.Int("concurrency", h.concurrency),
		slog.Any("queues", h.queues),
	)
	return nil
}

// Stop halts consumption and waits for in-flight links to finish or the
// context to expire.
func (h *Host) Stop(ctx context.Context) error {
	h.mu.Lock()
	if !h.started || h.stopped {
		h.mu.Unlock()
		return nil
	}
	h.stopped = true
	cancel := h.cancel
	group := h.group
	h.mu.Unlock()

	cancel()

	done := make(chan error, 1)
	go func() { done <- group.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// consume polls the configured queues round-robin until the context ends.
// Transport errors back off; an idle pass sleeps for the poll interval.
func (h *Host) consume(ctx context.Context) error {
	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		worked, err := h.popOne(ctx)
		if err != nil {
			attempt++
			h.logger.Warn("redis poll error",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			if !sleep(ctx, h.bo.Delay(attempt)) {
				return nil
			}
			continue
		}
		attempt = 0

		if !worked {
			if !sleep(ctx, h.pollInterval) {
				return nil
			}
		}
	}
}

// popOne claims at most one envelope across the consumed queues and runs
// it. Runner errors are chain failures, already logged and hook-emitted
// downstream; they do not count as transport errors.
func (h *Host) popOne(ctx context.Context) (bool, error) {
	for _, q := range h.queues {
		data, err := h.client.RPop(ctx, queueKey(q)).Bytes()
		if errors.Is(err, goredis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return false, nil
			}
			return false, fmt.Errorf("chainable/redis: rpop %s: %w", q, err)
		}

		env, err := host.DecodeEnvelope(h.codec, data)
		if err != nil {
			h.logger.Error("dropping undecodable envelope",
				slog.String("queue", q),
				slog.String("error", err.Error()),
			)
			return true, nil
		}

		// Links finish even when shutdown begins mid-run.
		if runErr := h.runner.Run(context.WithoutCancel(ctx), env); runErr != nil {
			h.logger.Debug("envelope run ended with error",
				slog.String("chain_id", env.ChainID.String()),
				slog.String("error", runErr.Error()),
			)
		}
		return true, nil
	}
	return false, nil
}

// promoteTimers moves due timer envelopes onto their queues. ZRem is the
// claim: only the process that removes a member delivers it.
func (h *Host) promoteTimers(ctx context.Context) error {
	attempt := 0
	for {
		if !sleep(ctx, h.pollInterval) {
			return nil
		}

		if err := h.promoteDue(ctx); err != nil {
			attempt++
			h.logger.Warn("timer promotion error",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			if !sleep(ctx, h.bo.Delay(attempt)) {
				return nil
			}
			continue
		}
		attempt = 0
	}
}

func (h *Host) promoteDue(ctx context.Context) error {
	now := time.Now().UnixMilli()
	members, err := h.client.ZRangeByScore(ctx, timersKey, &goredis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", now),
		Count: 100,
	}).Result()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("chainable/redis: scan timers: %w", err)
	}

	for _, member := range members {
		removed, err := h.client.ZRem(ctx, timersKey, member).Result()
		if err != nil {
			return fmt.Errorf("chainable/redis: claim timer: %w", err)
		}
		if removed == 0 {
			// Another process claimed it first.
			continue
		}

		env, err := host.DecodeEnvelope(h.codec, []byte(member))
		if err != nil {
			h.logger.Error("dropping undecodable timer envelope",
				slog.String("error", err.Error()),
			)
			continue
		}

		if err := h.client.LPush(ctx, queueKey(env.Queue), member).Err(); err != nil {
			return fmt.Errorf("chainable/redis: promote timer: %w", err)
		}
	}
	return nil
}

// sleep waits for d or the context, reporting false when the context ended.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
