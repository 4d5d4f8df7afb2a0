// Package host defines the capability contract between the chaining engine
// and the platform that actually runs links: one dispatch primitive per
// variant, an envelope type that carries the chain across unit-of-work
// boundaries, and shared backend utilities (schedule parsing, per-queue
// limits).
//
// The engine depends only on "given a link of variant V, dispatch it"; the
// concrete mechanism — in-process goroutines, Redis lists, a PostgreSQL
// table — lives in a backend subpackage.
package host
