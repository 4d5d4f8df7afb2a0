package link

import (
	"sync"
	"time"

	"github.com/renatoliveira/chainable"
	"github.com/renatoliveira/chainable/id"
)

// Variant selects which host primitive dispatches a link.
type Variant string

const (
	// VariantBulk runs through the host's pagination lifecycle.
	VariantBulk Variant = "bulk"
	// VariantTask runs as a single asynchronous invocation.
	VariantTask Variant = "task"
	// VariantTimer runs once when its schedule fires.
	VariantTimer Variant = "timer"
)

// Link wraps a named job with chaining capability. A Link belongs to at
// most one chain; appending an already-owned link is a construction error.
type Link struct {
	mu       sync.Mutex
	id       id.LinkID
	name     string
	variant  Variant
	schedule string
	timeout  time.Duration
	job      any
	owned    bool
}

// Option configures a Link at construction.
type Option func(*Link)

// WithTimeout sets a per-link execution deadline enforced by the timeout
// middleware. Zero means no deadline beyond the host platform's own limits.
func WithTimeout(d time.Duration) Option {
	return func(l *Link) { l.timeout = d }
}

// Bulk wraps a bulk job. The name must match a factory registered in the
// engine's Registry.
func Bulk(name string, job BulkJob, opts ...Option) *Link {
	return newLink(name, VariantBulk, "", job, opts)
}

// Task wraps a one-shot async job.
func Task(name string, job TaskJob, opts ...Option) *Link {
	return newLink(name, VariantTask, "", job, opts)
}

// Timer wraps a timer job fired once when schedule becomes due. The
// schedule uses cron syntax or a "@every <duration>" spec and is
// interpreted by the host at dispatch time.
func Timer(name string, job TimerJob, schedule string, opts ...Option) *Link {
	return newLink(name, VariantTimer, schedule, job, opts)
}

func newLink(name string, variant Variant, schedule string, job any, opts []Option) *Link {
	l := &Link{
		id:       id.NewLinkID(),
		name:     name,
		variant:  variant,
		schedule: schedule,
		job:      job,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ID returns the link's unique identifier.
func (l *Link) ID() id.LinkID { return l.id }

// Name returns the registered job type name.
func (l *Link) Name() string { return l.name }

// Variant returns the link's variant tag.
func (l *Link) Variant() Variant { return l.variant }

// Schedule returns the timer schedule, empty for non-timer links.
func (l *Link) Schedule() string { return l.schedule }

// Timeout returns the per-link execution deadline, zero if unset.
func (l *Link) Timeout() time.Duration { return l.timeout }

// Job returns the wrapped job value.
func (l *Link) Job() any { return l.job }

// Owned reports whether the link has been appended to a chain.
func (l *Link) Owned() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owned
}

// Claim marks the link as owned by a chain. It fails with ErrLinkOwned if
// the link already belongs to one; chains call it on append so a link can
// never be shared between two chains.
func (l *Link) Claim() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owned {
		return chainable.ErrLinkOwned
	}
	l.owned = true
	return nil
}

// CaptureArgs serializes the job's external configuration for deferred
// reconstruction. Jobs that do not implement ArgCodec capture nothing.
func (l *Link) CaptureArgs() ([]byte, error) {
	ac, ok := l.job.(ArgCodec)
	if !ok {
		return nil, nil
	}
	return ac.CaptureArgs()
}
