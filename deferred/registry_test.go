package deferred_test

import (
	"context"
	"testing"

	"github.com/renatoliveira/chainable/chain"
	"github.com/renatoliveira/chainable/deferred"
	"github.com/renatoliveira/chainable/link"
	"github.com/renatoliveira/chainable/shared"
)

type nopDispatcher struct{}

func (nopDispatcher) ExecuteChain(context.Context, *chain.Chain) error { return nil }
func (nopDispatcher) DeferChain(context.Context, *chain.Chain) error   { return nil }

type noopJob struct{}

func (noopJob) Run(_ context.Context, _ *shared.Context) error { return nil }

func TestRegistry_AddPreservesOrder(t *testing.T) {
	r := deferred.NewRegistry()
	d := nopDispatcher{}

	a := chain.New(d, link.Task("a", noopJob{}))
	b := chain.New(d, link.Task("b", noopJob{}))
	c := chain.New(d, link.Task("c", noopJob{}))

	r.Add(a)
	r.Add(b)
	r.Add(c)

	if r.Len() != 3 {
		t.Fatalf("len = %d, want 3", r.Len())
	}

	got := r.Drain()
	if len(got) != 3 || got[0] != a || got[1] != b || got[2] != c {
		t.Errorf("drain order broken: %v", got)
	}
}

func TestRegistry_DrainClears(t *testing.T) {
	r := deferred.NewRegistry()
	r.Add(chain.New(nopDispatcher{}, link.Task("a", noopJob{})))

	first := r.Drain()
	if len(first) != 1 {
		t.Fatalf("first drain = %d chains, want 1", len(first))
	}

	second := r.Drain()
	if len(second) != 0 {
		t.Errorf("second drain = %d chains, want 0 — entries must not leak", len(second))
	}
	if r.Len() != 0 {
		t.Errorf("len after drain = %d, want 0", r.Len())
	}
}

func TestRegistry_EmptyDrain(t *testing.T) {
	r := deferred.NewRegistry()
	if got := r.Drain(); len(got) != 0 {
		t.Fatalf("drain on empty registry = %v, want none", got)
	}
}
