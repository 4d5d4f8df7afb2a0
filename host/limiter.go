package host

import (
	"sync"

	"golang.org/x/time/rate"
)

// QueueConfig defines per-queue behaviour such as rate limiting and
// concurrency.
type QueueConfig struct {
	// Name is the queue identifier (must match the envelope Queue field).
	Name string

	// MaxConcurrency limits how many links from this queue may run
	// simultaneously on the local backend. Zero means no queue-specific
	// limit.
	MaxConcurrency int

	// RateLimit is the maximum sustained link executions per second that
	// may be started from this queue. Zero disables rate limiting.
	RateLimit float64

	// RateBurst is the burst size for the token-bucket rate limiter.
	// Defaults to 1 if RateLimit is set but RateBurst is zero.
	RateBurst int
}

// queueState tracks runtime state for a single queue.
type queueState struct {
	config  QueueConfig
	limiter *rate.Limiter
	active  int
}

// Limiter controls per-queue rate limiting and concurrency for a host
// backend. Backends call Acquire before executing a delivered envelope and
// Release after execution completes. It is safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	queues map[string]*queueState
}

// NewLimiter creates a Limiter with the given queue configurations.
// Queues not listed have no limits.
func NewLimiter(configs ...QueueConfig) *Limiter {
	l := &Limiter{
		queues: make(map[string]*queueState, len(configs)),
	}
	for _, cfg := range configs {
		l.queues[cfg.Name] = newQueueState(cfg)
	}
	return l
}

func newQueueState(cfg QueueConfig) *queueState {
	qs := &queueState{config: cfg}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		qs.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return qs
}

// Acquire checks rate limits and concurrency for the given queue. If the
// link is allowed to proceed it increments the active counter and returns
// true. The caller MUST call Release when the link completes.
func (l *Limiter) Acquire(queue string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	qs := l.queues[queue]
	if qs == nil {
		return true
	}

	if qs.limiter != nil && !qs.limiter.Allow() {
		return false
	}
	if qs.config.MaxConcurrency > 0 && qs.active >= qs.config.MaxConcurrency {
		return false
	}

	qs.active++
	return true
}

// Release decrements the active count for the queue.
func (l *Limiter) Release(queue string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	qs := l.queues[queue]
	if qs != nil && qs.active > 0 {
		qs.active--
	}
}
