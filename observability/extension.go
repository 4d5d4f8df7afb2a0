package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/renatoliveira/chainable/hook"
	"github.com/renatoliveira/chainable/host"
	"github.com/renatoliveira/chainable/id"
)

// meterName is the instrumentation scope name for the extension.
const meterName = "github.com/renatoliveira/chainable/observability"

// Compile-time interface checks.
var (
	_ hook.Extension          = (*MetricsExtension)(nil)
	_ hook.ChainStarted       = (*MetricsExtension)(nil)
	_ hook.ChainCompleted     = (*MetricsExtension)(nil)
	_ hook.ChainFailed        = (*MetricsExtension)(nil)
	_ hook.LinkCompleted      = (*MetricsExtension)(nil)
	_ hook.LinkFailed         = (*MetricsExtension)(nil)
	_ hook.DeferredRegistered = (*MetricsExtension)(nil)
	_ hook.DeferredMerged     = (*MetricsExtension)(nil)
)

// MetricsExtension records system-wide lifecycle counters. Register it as
// an engine extension to automatically track chain starts, completions,
// failures, per-link outcomes, and deferred-registry activity.
type MetricsExtension struct {
	chainsStarted      metric.Int64Counter
	chainsCompleted    metric.Int64Counter
	chainsFailed       metric.Int64Counter
	linksCompleted     metric.Int64Counter
	linksFailed        metric.Int64Counter
	deferredRegistered metric.Int64Counter
	deferredMerged     metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension using the global OTel
// MeterProvider. With no provider configured the instruments are noop.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the
// provided meter. Use this variant for testing or multi-provider setups.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	m := &MetricsExtension{}

	// On error the OTel API returns noop instruments, so the extension
	// degrades gracefully.
	m.chainsStarted, _ = meter.Int64Counter(
		"chainable.chains.started",
		metric.WithDescription("Total number of chains dispatched"),
		metric.WithUnit("{chain}"),
	)
	m.chainsCompleted, _ = meter.Int64Counter(
		"chainable.chains.completed",
		metric.WithDescription("Total number of chains that ran to completion"),
		metric.WithUnit("{chain}"),
	)
	m.chainsFailed, _ = meter.Int64Counter(
		"chainable.chains.failed",
		metric.WithDescription("Total number of chains halted by a link failure"),
		metric.WithUnit("{chain}"),
	)
	m.linksCompleted, _ = meter.Int64Counter(
		"chainable.links.completed",
		metric.WithDescription("Total number of links executed successfully"),
		metric.WithUnit("{link}"),
	)
	m.linksFailed, _ = meter.Int64Counter(
		"chainable.links.failed",
		metric.WithDescription("Total number of link failures"),
		metric.WithUnit("{link}"),
	)
	m.deferredRegistered, _ = meter.Int64Counter(
		"chainable.deferred.registered",
		metric.WithDescription("Total number of chains registered for deferred execution"),
		metric.WithUnit("{chain}"),
	)
	m.deferredMerged, _ = meter.Int64Counter(
		"chainable.deferred.merged",
		metric.WithDescription("Total number of chains merged at finalization"),
		metric.WithUnit("{chain}"),
	)

	return m
}

// Name implements hook.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ── Chain lifecycle hooks ───────────────────────────

// OnChainStarted implements hook.ChainStarted.
func (m *MetricsExtension) OnChainStarted(ctx context.Context, _ *host.Envelope) error {
	m.chainsStarted.Add(ctx, 1)
	return nil
}

// OnChainCompleted implements hook.ChainCompleted.
func (m *MetricsExtension) OnChainCompleted(ctx context.Context, _ *host.Envelope) error {
	m.chainsCompleted.Add(ctx, 1)
	return nil
}

// OnChainFailed implements hook.ChainFailed.
func (m *MetricsExtension) OnChainFailed(ctx context.Context, _ *host.Envelope, _ error) error {
	m.chainsFailed.Add(ctx, 1)
	return nil
}

// ── Link lifecycle hooks ────────────────────────────

// OnLinkCompleted implements hook.LinkCompleted.
func (m *MetricsExtension) OnLinkCompleted(ctx context.Context, _ *host.Envelope, _ *host.LinkSpec, _ time.Duration) error {
	m.linksCompleted.Add(ctx, 1)
	return nil
}

// OnLinkFailed implements hook.LinkFailed.
func (m *MetricsExtension) OnLinkFailed(ctx context.Context, _ *host.Envelope, _ *host.LinkSpec, _ error) error {
	m.linksFailed.Add(ctx, 1)
	return nil
}

// ── Deferred lifecycle hooks ────────────────────────

// OnDeferredRegistered implements hook.DeferredRegistered.
func (m *MetricsExtension) OnDeferredRegistered(ctx context.Context, _ id.ChainID, _ int) error {
	m.deferredRegistered.Add(ctx, 1)
	return nil
}

// OnDeferredMerged implements hook.DeferredMerged.
func (m *MetricsExtension) OnDeferredMerged(ctx context.Context, _ id.ChainID, merged int) error {
	m.deferredMerged.Add(ctx, int64(merged))
	return nil
}
