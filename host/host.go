package host

import (
	"context"

	"github.com/renatoliveira/chainable/link"
)

// Runner executes one envelope inside the host's unit of work: reconstruct
// the link at the current position, run its lifecycle, and on success
// dispatch the successor. It is implemented by the worker executor and
// injected into each host before Start.
type Runner interface {
	Run(ctx context.Context, env *Envelope) error
}

// Host is the platform capability the engine dispatches through — one
// primitive per link variant. Dispatch methods hand the envelope to the
// backend and return; the link body runs later, in the backend's own unit
// of work, and its completion (not the dispatch call) triggers the
// successor.
type Host interface {
	// DispatchBulk hands off an envelope whose current link is a bulk job.
	DispatchBulk(ctx context.Context, env *Envelope) error

	// DispatchTask hands off an envelope whose current link is a one-shot task.
	DispatchTask(ctx context.Context, env *Envelope) error

	// DispatchTimer hands off an envelope whose current link fires on its
	// schedule. The host owns when the schedule becomes due.
	DispatchTimer(ctx context.Context, env *Envelope) error

	// SetRunner injects the executor that runs delivered envelopes.
	// Must be called before Start.
	SetRunner(r Runner)

	// Start begins consuming dispatched envelopes.
	Start(ctx context.Context) error

	// Stop shuts the host down, waiting for in-flight links to finish.
	Stop(ctx context.Context) error
}

// Dispatch routes an envelope to the primitive matching its current link's
// variant. Hosts and the executor both advance chains through this single
// switch so the variant→primitive mapping lives in one place.
func Dispatch(ctx context.Context, h Host, env *Envelope) error {
	spec, err := env.Current()
	if err != nil {
		return err
	}

	switch spec.Variant {
	case link.VariantBulk:
		return h.DispatchBulk(ctx, env)
	case link.VariantTimer:
		return h.DispatchTimer(ctx, env)
	default:
		return h.DispatchTask(ctx, env)
	}
}
