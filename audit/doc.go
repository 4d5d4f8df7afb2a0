// Package audit is a chainable extension that bridges lifecycle events to
// an immutable audit trail backend.
//
// Every chain, link, and deferred-registry hook emits a structured audit
// event through the [Recorder] interface. The extension assigns severity
// levels (info for normal operations, critical for terminal failures) and
// metadata (link name, queue, elapsed time, errors).
//
// # Selective filtering
//
//	audit.New(recorder,
//	    audit.WithActions(
//	        audit.ActionChainFailed,
//	        audit.ActionLinkFailed,
//	    ),
//	)
package audit
