// Package chainable provides an asynchronous job-chaining engine for Go.
// It unifies three job execution models — paginated bulk jobs, one-shot
// async tasks, and timer-triggered jobs — behind a single fluent chain
// abstraction, so that independently defined jobs can be composed into an
// ordered pipeline without any job knowing its successor at definition time.
//
// Chainable is designed as a library, not a service. Import it, pick a host
// backend, register job types, and link jobs as ordinary Go values.
//
// # Quick Start
//
//	reg := link.NewRegistry()
//	reg.Register("reindex", func() any { return &ReindexJob{} })
//	reg.Register("notify", func() any { return &NotifyJob{} })
//
//	h := local.New()
//	eng, err := engine.New(h, engine.WithRegistry(reg))
//
//	err = eng.NewChain(link.Bulk("reindex", &ReindexJob{Table: "users"})).
//		Then(link.Task("notify", &NotifyJob{Channel: "#ops"})).
//		SetShared("actor", "admin").
//		Execute(ctx)
//
// # Architecture
//
// Each link in a chain executes in its own isolated unit of work dispatched
// through a host backend (in-process, Redis, or PostgreSQL). Hand-off between
// links is a dispatch message — an envelope carrying the ordered link specs
// and a serialized snapshot of the chain's shared context — never a direct
// call. A link's completion is the sole trigger for dispatching its
// successor; a link failure halts the chain with no successor dispatched.
//
// Chains can also be registered for deferred execution: every chain deferred
// during one transaction-like unit of work is concatenated, in registration
// order, into a single composite chain that runs exactly once when the
// engine's Finalize hook fires.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package chainable
