package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/renatoliveira/chainable/host"
)

// tracerName is the instrumentation scope name for chainable tracing.
const tracerName = "github.com/renatoliveira/chainable"

// Tracing returns middleware that wraps link execution in an OpenTelemetry
// span. If no TracerProvider is configured globally, the default noop tracer
// is used and this middleware becomes a pass-through with zero overhead.
//
// Span attributes include: chainable.chain.id, chainable.link.name,
// chainable.link.variant, chainable.queue, chainable.position.
// On error, the span status is set to codes.Error with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing or
// when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, env *host.Envelope, next Handler) error {
		name, variant := "", ""
		if spec, specErr := env.Current(); specErr == nil {
			name = spec.Name
			variant = string(spec.Variant)
		}

		ctx, span := tracer.Start(ctx, "chainable.link.execute",
			trace.WithAttributes(
				attribute.String("chainable.chain.id", env.ChainID.String()),
				attribute.String("chainable.link.name", name),
				attribute.String("chainable.link.variant", variant),
				attribute.String("chainable.queue", env.Queue),
				attribute.Int("chainable.position", env.Position),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
