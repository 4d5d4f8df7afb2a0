package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/renatoliveira/chainable/host"
)

// meterName is the instrumentation scope name for chainable metrics.
const meterName = "github.com/renatoliveira/chainable"

// Metrics returns middleware that records per-link execution metrics using
// the global OTel MeterProvider. If no MeterProvider is configured, noop
// instruments are used and this middleware becomes a pass-through.
//
// Instruments:
//   - chainable.link.duration (Float64Histogram): execution time in seconds,
//     with attributes: link_name, variant, queue, status ("ok" or "error")
//   - chainable.link.executions (Int64Counter): total executions,
//     with attributes: link_name, variant, queue, status ("ok" or "error")
func Metrics() Middleware {
	meter := otel.Meter(meterName)
	return MetricsWithMeter(meter)
}

// MetricsWithMeter returns metrics middleware using the provided meter.
// This variant allows injecting a specific MeterProvider for testing.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// Create instruments once at middleware construction time.
	// OTel instruments are safe for concurrent use. On error, the API
	// returns noop instruments so the middleware degrades gracefully.
	duration, dErr := meter.Float64Histogram(
		"chainable.link.duration",
		metric.WithDescription("Duration of link execution in seconds"),
		metric.WithUnit("s"),
	)
	_ = dErr // noop fallback guaranteed by OTel API contract

	executions, eErr := meter.Int64Counter(
		"chainable.link.executions",
		metric.WithDescription("Total number of link executions"),
		metric.WithUnit("{execution}"),
	)
	_ = eErr // noop fallback guaranteed by OTel API contract

	return func(ctx context.Context, env *host.Envelope, next Handler) error {
		name, variant := "", ""
		if spec, specErr := env.Current(); specErr == nil {
			name = spec.Name
			variant = string(spec.Variant)
		}

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if err != nil {
			status = "error"
		}

		attrs := metric.WithAttributes(
			attribute.String("link_name", name),
			attribute.String("variant", variant),
			attribute.String("queue", env.Queue),
			attribute.String("status", status),
		)

		duration.Record(ctx, elapsed, attrs)
		executions.Add(ctx, 1, attrs)

		return err
	}
}
