package hook_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/renatoliveira/chainable/hook"
	"github.com/renatoliveira/chainable/host"
	"github.com/renatoliveira/chainable/id"
)

// ──────────────────────────────────────────────────
// Test extensions
// ──────────────────────────────────────────────────

// allHooksExt implements every lifecycle hook for testing.
type allHooksExt struct {
	calls []string
}

func (e *allHooksExt) Name() string { return "all-hooks" }

func (e *allHooksExt) OnChainStarted(_ context.Context, _ *host.Envelope) error {
	e.calls = append(e.calls, "OnChainStarted")
	return nil
}

func (e *allHooksExt) OnChainCompleted(_ context.Context, _ *host.Envelope) error {
	e.calls = append(e.calls, "OnChainCompleted")
	return nil
}

func (e *allHooksExt) OnChainFailed(_ context.Context, _ *host.Envelope, _ error) error {
	e.calls = append(e.calls, "OnChainFailed")
	return nil
}

func (e *allHooksExt) OnLinkStarted(_ context.Context, _ *host.Envelope, _ *host.LinkSpec) error {
	e.calls = append(e.calls, "OnLinkStarted")
	return nil
}

func (e *allHooksExt) OnLinkCompleted(_ context.Context, _ *host.Envelope, _ *host.LinkSpec, _ time.Duration) error {
	e.calls = append(e.calls, "OnLinkCompleted")
	return nil
}

func (e *allHooksExt) OnLinkFailed(_ context.Context, _ *host.Envelope, _ *host.LinkSpec, _ error) error {
	e.calls = append(e.calls, "OnLinkFailed")
	return nil
}

func (e *allHooksExt) OnDeferredRegistered(_ context.Context, _ id.ChainID, _ int) error {
	e.calls = append(e.calls, "OnDeferredRegistered")
	return nil
}

func (e *allHooksExt) OnDeferredMerged(_ context.Context, _ id.ChainID, _ int) error {
	e.calls = append(e.calls, "OnDeferredMerged")
	return nil
}

func (e *allHooksExt) OnShutdown(_ context.Context) error {
	e.calls = append(e.calls, "OnShutdown")
	return nil
}

// linkOnlyExt only implements link-related hooks.
type linkOnlyExt struct {
	calls []string
}

func (e *linkOnlyExt) Name() string { return "link-only" }

func (e *linkOnlyExt) OnLinkStarted(_ context.Context, _ *host.Envelope, _ *host.LinkSpec) error {
	e.calls = append(e.calls, "OnLinkStarted")
	return nil
}

func (e *linkOnlyExt) OnLinkCompleted(_ context.Context, _ *host.Envelope, _ *host.LinkSpec, _ time.Duration) error {
	e.calls = append(e.calls, "OnLinkCompleted")
	return nil
}

// failingExt returns errors from hooks.
type failingExt struct{}

func (e *failingExt) Name() string { return "failing" }

func (e *failingExt) OnLinkStarted(_ context.Context, _ *host.Envelope, _ *host.LinkSpec) error {
	return errors.New("boom")
}

func (e *failingExt) OnShutdown(_ context.Context) error {
	return errors.New("shutdown boom")
}

// ──────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────

func TestRegistry_RegisterDiscoversInterfaces(t *testing.T) {
	r := hook.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	if got := len(r.Extensions()); got != 1 {
		t.Fatalf("expected 1 extension, got %d", got)
	}
	if got := r.Extensions()[0].Name(); got != "all-hooks" {
		t.Fatalf("expected name 'all-hooks', got %q", got)
	}
}

func TestRegistry_EmitFiresOnlyImplementors(t *testing.T) {
	r := hook.NewRegistry(slog.Default())
	all := &allHooksExt{}
	lo := &linkOnlyExt{}
	r.Register(all)
	r.Register(lo)

	ctx := context.Background()
	env := &host.Envelope{}
	spec := &host.LinkSpec{Name: "test-link"}

	// Both implement OnLinkStarted → both called.
	r.EmitLinkStarted(ctx, env, spec)
	if len(all.calls) != 1 || all.calls[0] != "OnLinkStarted" {
		t.Fatalf("all: expected [OnLinkStarted], got %v", all.calls)
	}
	if len(lo.calls) != 1 || lo.calls[0] != "OnLinkStarted" {
		t.Fatalf("lo: expected [OnLinkStarted], got %v", lo.calls)
	}

	// Only all implements OnChainStarted → lo not called.
	r.EmitChainStarted(ctx, env)
	if len(all.calls) != 2 || all.calls[1] != "OnChainStarted" {
		t.Fatalf("all: expected OnChainStarted as 2nd, got %v", all.calls)
	}
	if len(lo.calls) != 1 {
		t.Fatalf("lo: should still have 1 call, got %v", lo.calls)
	}
}

func TestRegistry_AllHooksFire(t *testing.T) {
	r := hook.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	ctx := context.Background()
	env := &host.Envelope{}
	spec := &host.LinkSpec{Name: "test-link"}

	r.EmitChainStarted(ctx, env)
	r.EmitLinkStarted(ctx, env, spec)
	r.EmitLinkCompleted(ctx, env, spec, time.Second)
	r.EmitLinkFailed(ctx, env, spec, errors.New("fail"))
	r.EmitChainCompleted(ctx, env)
	r.EmitChainFailed(ctx, env, errors.New("fail"))
	r.EmitDeferredRegistered(ctx, id.NewChainID(), 2)
	r.EmitDeferredMerged(ctx, id.NewChainID(), 3)
	r.EmitShutdown(ctx)

	expected := []string{
		"OnChainStarted", "OnLinkStarted", "OnLinkCompleted",
		"OnLinkFailed", "OnChainCompleted", "OnChainFailed",
		"OnDeferredRegistered", "OnDeferredMerged", "OnShutdown",
	}
	if len(all.calls) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v", len(expected), len(all.calls), all.calls)
	}
	for i, want := range expected {
		if all.calls[i] != want {
			t.Errorf("call[%d] = %q, want %q", i, all.calls[i], want)
		}
	}
}

func TestRegistry_HookErrorsLoggedNotPropagated(t *testing.T) {
	r := hook.NewRegistry(slog.Default())
	failing := &failingExt{}
	all := &allHooksExt{}

	// Register failing first, then all-hooks. Both should be called.
	r.Register(failing)
	r.Register(all)

	ctx := context.Background()
	env := &host.Envelope{}
	spec := &host.LinkSpec{Name: "test-link"}

	// No panic, no error propagation. allHooksExt should still fire.
	r.EmitLinkStarted(ctx, env, spec)

	if len(all.calls) != 1 || all.calls[0] != "OnLinkStarted" {
		t.Fatalf("all: expected [OnLinkStarted] despite failing ext, got %v", all.calls)
	}
}

func TestRegistry_EmptyRegistryNoOp(_ *testing.T) {
	r := hook.NewRegistry(slog.Default())
	ctx := context.Background()
	env := &host.Envelope{}
	spec := &host.LinkSpec{}

	// None of these should panic or error.
	r.EmitChainStarted(ctx, env)
	r.EmitChainCompleted(ctx, env)
	r.EmitChainFailed(ctx, env, errors.New("x"))
	r.EmitLinkStarted(ctx, env, spec)
	r.EmitLinkCompleted(ctx, env, spec, time.Second)
	r.EmitLinkFailed(ctx, env, spec, errors.New("x"))
	r.EmitDeferredRegistered(ctx, id.NewChainID(), 1)
	r.EmitDeferredMerged(ctx, id.NewChainID(), 1)
	r.EmitShutdown(ctx)
}

func TestRegistry_MultipleExtensionsOrderPreserved(t *testing.T) {
	r := hook.NewRegistry(slog.Default())
	ext1 := &allHooksExt{}
	ext2 := &allHooksExt{}
	r.Register(ext1)
	r.Register(ext2)

	ctx := context.Background()
	r.EmitChainStarted(ctx, &host.Envelope{})

	// Both should be called.
	if len(ext1.calls) != 1 {
		t.Errorf("ext1: expected 1 call, got %d", len(ext1.calls))
	}
	if len(ext2.calls) != 1 {
		t.Errorf("ext2: expected 1 call, got %d", len(ext2.calls))
	}
}
