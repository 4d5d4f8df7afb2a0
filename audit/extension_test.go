package audit_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/renatoliveira/chainable/audit"
	"github.com/renatoliveira/chainable/hook"
	"github.com/renatoliveira/chainable/host"
	"github.com/renatoliveira/chainable/id"
	"github.com/renatoliveira/chainable/link"
)

// memoryRecorder collects events for assertions.
type memoryRecorder struct {
	events []*audit.Event
}

func (r *memoryRecorder) Record(_ context.Context, evt *audit.Event) error {
	r.events = append(r.events, evt)
	return nil
}

func (r *memoryRecorder) actions() []string {
	out := make([]string, len(r.events))
	for i, evt := range r.events {
		out[i] = evt.Action
	}
	return out
}

func testEnvelope() *host.Envelope {
	return &host.Envelope{
		ID:      id.NewEnvelopeID(),
		ChainID: id.NewChainID(),
		Queue:   "reports",
		Links: []host.LinkSpec{
			{Name: "send-email", Variant: link.VariantTask},
			{Name: "sync-records", Variant: link.VariantBulk},
		},
	}
}

func TestExtension_Name(t *testing.T) {
	ext := audit.New(&memoryRecorder{})
	if ext.Name() != "audit" {
		t.Errorf("name = %q, want audit", ext.Name())
	}
}

func TestExtension_EmitsAllActions(t *testing.T) {
	rec := &memoryRecorder{}
	ext := audit.New(rec)
	ctx := context.Background()
	env := testEnvelope()
	spec := &env.Links[0]

	_ = ext.OnChainStarted(ctx, env)
	_ = ext.OnLinkStarted(ctx, env, spec)
	_ = ext.OnLinkCompleted(ctx, env, spec, 5*time.Millisecond)
	_ = ext.OnLinkFailed(ctx, env, spec, errors.New("boom"))
	_ = ext.OnChainCompleted(ctx, env)
	_ = ext.OnChainFailed(ctx, env, errors.New("boom"))
	_ = ext.OnDeferredRegistered(ctx, env.ChainID, 2)
	_ = ext.OnDeferredMerged(ctx, env.ChainID, 3)

	want := []string{
		audit.ActionChainStarted,
		audit.ActionLinkStarted,
		audit.ActionLinkCompleted,
		audit.ActionLinkFailed,
		audit.ActionChainCompleted,
		audit.ActionChainFailed,
		audit.ActionDeferredRegistered,
		audit.ActionDeferredMerged,
	}
	got := rec.actions()
	if len(got) != len(want) {
		t.Fatalf("recorded %d events, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtension_FailureEventsAreCritical(t *testing.T) {
	rec := &memoryRecorder{}
	ext := audit.New(rec)
	env := testEnvelope()

	_ = ext.OnChainFailed(context.Background(), env, errors.New("importer crashed"))

	evt := rec.events[0]
	if evt.Severity != audit.SeverityCritical {
		t.Errorf("severity = %q, want critical", evt.Severity)
	}
	if evt.Outcome != audit.OutcomeFailure {
		t.Errorf("outcome = %q, want failure", evt.Outcome)
	}
	if evt.Reason != "importer crashed" {
		t.Errorf("reason = %q", evt.Reason)
	}
	if evt.Metadata["error"] != "importer crashed" {
		t.Errorf("metadata error = %v", evt.Metadata["error"])
	}
}

func TestExtension_LinkCompletedMetadata(t *testing.T) {
	rec := &memoryRecorder{}
	ext := audit.New(rec)
	env := testEnvelope()

	_ = ext.OnLinkCompleted(context.Background(), env, &env.Links[0], 42*time.Millisecond)

	evt := rec.events[0]
	if evt.ResourceID != "send-email" {
		t.Errorf("resource id = %q", evt.ResourceID)
	}
	if evt.Category != audit.CategoryLink {
		t.Errorf("category = %q", evt.Category)
	}
	if evt.Metadata["chain_id"] != env.ChainID.String() {
		t.Errorf("chain_id = %v", evt.Metadata["chain_id"])
	}
	if evt.Metadata["elapsed_ms"] != int64(42) {
		t.Errorf("elapsed_ms = %v", evt.Metadata["elapsed_ms"])
	}
}

func TestExtension_WithActionsFilters(t *testing.T) {
	rec := &memoryRecorder{}
	ext := audit.New(rec, audit.WithActions(audit.ActionChainFailed, audit.ActionLinkFailed))
	ctx := context.Background()
	env := testEnvelope()

	_ = ext.OnChainStarted(ctx, env)
	_ = ext.OnChainCompleted(ctx, env)
	_ = ext.OnLinkFailed(ctx, env, &env.Links[0], errors.New("boom"))
	_ = ext.OnChainFailed(ctx, env, errors.New("boom"))

	got := rec.actions()
	want := []string{audit.ActionLinkFailed, audit.ActionChainFailed}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("recorded %v, want %v", got, want)
	}
}

func TestExtension_RecorderErrorNotPropagated(t *testing.T) {
	ext := audit.New(audit.RecorderFunc(func(context.Context, *audit.Event) error {
		return errors.New("sink down")
	}))

	if err := ext.OnChainStarted(context.Background(), testEnvelope()); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestExtension_RegistersWithHookRegistry(t *testing.T) {
	rec := &memoryRecorder{}
	reg := hook.NewRegistry(slog.Default())
	reg.Register(audit.New(rec))

	env := testEnvelope()
	reg.EmitChainStarted(context.Background(), env)

	if len(rec.events) != 1 || rec.events[0].Action != audit.ActionChainStarted {
		t.Fatalf("events = %v", rec.actions())
	}
}
