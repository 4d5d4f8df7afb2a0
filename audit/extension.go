package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/renatoliveira/chainable/hook"
	"github.com/renatoliveira/chainable/host"
	"github.com/renatoliveira/chainable/id"
)

// Compile-time interface checks.
var (
	_ hook.Extension          = (*Extension)(nil)
	_ hook.ChainStarted       = (*Extension)(nil)
	_ hook.ChainCompleted     = (*Extension)(nil)
	_ hook.ChainFailed        = (*Extension)(nil)
	_ hook.LinkStarted        = (*Extension)(nil)
	_ hook.LinkCompleted      = (*Extension)(nil)
	_ hook.LinkFailed         = (*Extension)(nil)
	_ hook.DeferredRegistered = (*Extension)(nil)
	_ hook.DeferredMerged     = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement. It is
// defined locally so this package carries no backend dependency — callers
// inject the concrete sink at wiring time.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *Event) error
}

// Event is the structured audit record emitted for each lifecycle action.
type Event struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *Event) error

func (f RecorderFunc) Record(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges chainable lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements hook.Extension.
func (e *Extension) Name() string { return "audit" }

// ── Chain lifecycle hooks ───────────────────────────

// OnChainStarted implements hook.ChainStarted.
func (e *Extension) OnChainStarted(ctx context.Context, env *host.Envelope) error {
	return e.record(ctx, ActionChainStarted, SeverityInfo, OutcomeSuccess,
		ResourceChain, env.ChainID.String(), CategoryChain, nil,
		"queue", env.Queue,
		"links", len(env.Links),
	)
}

// OnChainCompleted implements hook.ChainCompleted.
func (e *Extension) OnChainCompleted(ctx context.Context, env *host.Envelope) error {
	return e.record(ctx, ActionChainCompleted, SeverityInfo, OutcomeSuccess,
		ResourceChain, env.ChainID.String(), CategoryChain, nil,
		"queue", env.Queue,
		"links", len(env.Links),
	)
}

// OnChainFailed implements hook.ChainFailed.
func (e *Extension) OnChainFailed(ctx context.Context, env *host.Envelope, chainErr error) error {
	return e.record(ctx, ActionChainFailed, SeverityCritical, OutcomeFailure,
		ResourceChain, env.ChainID.String(), CategoryChain, chainErr,
		"queue", env.Queue,
		"position", env.Position,
	)
}

// ── Link lifecycle hooks ────────────────────────────

// OnLinkStarted implements hook.LinkStarted.
func (e *Extension) OnLinkStarted(ctx context.Context, env *host.Envelope, spec *host.LinkSpec) error {
	return e.record(ctx, ActionLinkStarted, SeverityInfo, OutcomeSuccess,
		ResourceLink, spec.Name, CategoryLink, nil,
		"chain_id", env.ChainID.String(),
		"variant", string(spec.Variant),
		"queue", env.Queue,
	)
}

// OnLinkCompleted implements hook.LinkCompleted.
func (e *Extension) OnLinkCompleted(ctx context.Context, env *host.Envelope, spec *host.LinkSpec, elapsed time.Duration) error {
	return e.record(ctx, ActionLinkCompleted, SeverityInfo, OutcomeSuccess,
		ResourceLink, spec.Name, CategoryLink, nil,
		"chain_id", env.ChainID.String(),
		"variant", string(spec.Variant),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnLinkFailed implements hook.LinkFailed.
func (e *Extension) OnLinkFailed(ctx context.Context, env *host.Envelope, spec *host.LinkSpec, linkErr error) error {
	return e.record(ctx, ActionLinkFailed, SeverityCritical, OutcomeFailure,
		ResourceLink, spec.Name, CategoryLink, linkErr,
		"chain_id", env.ChainID.String(),
		"variant", string(spec.Variant),
		"position", env.Position,
	)
}

// ── Deferred lifecycle hooks ────────────────────────

// OnDeferredRegistered implements hook.DeferredRegistered.
func (e *Extension) OnDeferredRegistered(ctx context.Context, chainID id.ChainID, links int) error {
	return e.record(ctx, ActionDeferredRegistered, SeverityInfo, OutcomeSuccess,
		ResourceChain, chainID.String(), CategoryDeferred, nil,
		"links", links,
	)
}

// OnDeferredMerged implements hook.DeferredMerged.
func (e *Extension) OnDeferredMerged(ctx context.Context, compositeID id.ChainID, merged int) error {
	return e.record(ctx, ActionDeferredMerged, SeverityInfo, OutcomeSuccess,
		ResourceChain, compositeID.String(), CategoryDeferred, nil,
		"merged", merged,
	)
}

// ── Internal helpers ────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &Event{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
