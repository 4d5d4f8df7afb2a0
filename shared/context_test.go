package shared_test

import (
	"testing"

	"github.com/renatoliveira/chainable/shared"
)

func TestContext_SetAndGet(t *testing.T) {
	c := shared.New()
	c.Set("actor", "admin")
	c.Set("count", 42)

	actor, ok := shared.Get[string](c, "actor")
	if !ok || actor != "admin" {
		t.Errorf("actor = %q, %v; want %q, true", actor, ok, "admin")
	}

	count, ok := shared.Get[int](c, "count")
	if !ok || count != 42 {
		t.Errorf("count = %d, %v; want 42, true", count, ok)
	}

	if _, ok := shared.Get[string](c, "missing"); ok {
		t.Error("expected missing key to report absent")
	}
}

func TestContext_LastWriteWins(t *testing.T) {
	c := shared.New()
	c.Set("k", "first")
	c.Set("k", "second")

	v, _ := shared.Get[string](c, "k")
	if v != "second" {
		t.Errorf("k = %q, want %q", v, "second")
	}
	if c.Len() != 1 {
		t.Errorf("len = %d, want 1", c.Len())
	}
}

func TestContext_SnapshotIsCopy(t *testing.T) {
	c := shared.New()
	c.Set("k", "v")

	snap := c.Snapshot()
	snap["k"] = "mutated"
	snap["extra"] = true

	v, _ := shared.Get[string](c, "k")
	if v != "v" {
		t.Errorf("mutating a snapshot leaked into the context: k = %q", v)
	}
	if c.Len() != 1 {
		t.Errorf("len = %d, want 1", c.Len())
	}
}

func TestContext_RehydrateCoercesWireValues(t *testing.T) {
	type page struct {
		Size int `json:"size"`
	}

	// Simulate a context that crossed a unit-of-work boundary: the struct
	// value was decoded from JSON into a generic map.
	c := shared.FromMap(map[string]any{
		"page":  map[string]any{"size": 25},
		"total": float64(7), // JSON numbers decode as float64
	})

	p, ok := shared.Get[page](c, "page")
	if !ok || p.Size != 25 {
		t.Errorf("page = %+v, %v; want {Size:25}, true", p, ok)
	}

	total, ok := shared.Get[int](c, "total")
	if !ok || total != 7 {
		t.Errorf("total = %d, %v; want 7, true", total, ok)
	}
}

func TestContext_MergeLastWriteWins(t *testing.T) {
	a := shared.New()
	a.Set("shared", "from-a")
	a.Set("only-a", 1)

	b := shared.New()
	b.Set("shared", "from-b")
	b.Set("only-b", 2)

	merged := shared.New()
	merged.Merge(a)
	merged.Merge(b)

	v, _ := shared.Get[string](merged, "shared")
	if v != "from-b" {
		t.Errorf("shared = %q, want later merge to win", v)
	}
	if _, ok := shared.Get[int](merged, "only-a"); !ok {
		t.Error("only-a missing after merge")
	}
	if _, ok := shared.Get[int](merged, "only-b"); !ok {
		t.Error("only-b missing after merge")
	}
}

func TestContext_MergeNil(t *testing.T) {
	c := shared.New()
	c.Set("k", "v")
	c.Merge(nil)

	if c.Len() != 1 {
		t.Errorf("len = %d, want 1", c.Len())
	}
}
