// Package chain implements the ordered link sequence at the heart of
// chainable: a fluent builder over links sharing one context, a
// construction-time state machine, and the concatenation used to merge
// deferred chains.
//
// A chain is mutable only while in the Built state. Construction errors
// (appending an owned link, mutating a sealed chain) are recorded on the
// chain and surfaced by Err, Execute, and ExecuteDeferred, so the fluent
// surface stays chainable without swallowing failures.
package chain
