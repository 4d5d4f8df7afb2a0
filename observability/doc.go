// Package observability provides an OpenTelemetry-based metrics extension
// for chainable. The MetricsExtension implements lifecycle hooks to record
// system-wide counters for chain, link, and deferred-registry events.
//
// For per-execution tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
