package chainable

import "time"

// Config holds engine-wide configuration.
type Config struct {
	// PageSize is the default number of work items handed to a bulk job's
	// Process call per page. Jobs may override it via link.Pager.
	PageSize int

	// Queue is the default queue envelopes are dispatched on.
	Queue string

	// Codec names the wire format for envelopes and shared-context
	// snapshots ("json" or "msgpack"). Ignored when a codec instance is
	// injected directly.
	Codec string

	// PollInterval is how often backend hosts poll for due envelopes.
	PollInterval time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PageSize:        200,
		Queue:           "default",
		Codec:           "json",
		PollInterval:    1 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}
