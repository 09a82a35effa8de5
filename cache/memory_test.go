package cache

import (
	"context"
	"testing"
	"time"
)

func newTestMemory(t *testing.T, clk *manualClock, hooks Hooks) *Memory {
	t.Helper()
	m := NewMemory(MemoryOptions{Now: clk.Now, Hooks: hooks})
	t.Cleanup(func() { _ = m.Close(context.Background()) })
	return m
}

// TestMemoryTTLBoundary verifies an entry is valid strictly before its TTL
// elapses and invalid from that instant on, while Get still returns it.
func TestMemoryTTLBoundary(t *testing.T) {
	clk := newManualClock()
	m := newTestMemory(t, clk, nil)

	m.Set("communities", []string{"chess-club"}, 5*time.Minute)
	if !m.IsValid("communities") {
		t.Fatalf("expected valid right after Set")
	}

	clk.Advance(5*time.Minute - time.Millisecond)
	if !m.IsValid("communities") {
		t.Fatalf("expected valid just before TTL")
	}

	clk.Advance(time.Millisecond)
	if m.IsValid("communities") {
		t.Fatalf("expected invalid once TTL elapsed")
	}
	v, ok := m.Get("communities")
	if !ok {
		t.Fatalf("Get should return expired entries")
	}
	if got := v.([]string); len(got) != 1 || got[0] != "chess-club" {
		t.Fatalf("unexpected value %v", got)
	}
}

func TestMemoryDefaultTTL(t *testing.T) {
	clk := newManualClock()
	m := newTestMemory(t, clk, nil)

	m.Set("k", 1, 0)
	clk.Advance(DefaultMemoryTTL - time.Second)
	if !m.IsValid("k") {
		t.Fatalf("expected valid before default TTL")
	}
	clk.Advance(time.Second)
	if m.IsValid("k") {
		t.Fatalf("expected invalid after default TTL")
	}
}

func TestMemorySetOverwritesAndRestartsTTL(t *testing.T) {
	clk := newManualClock()
	m := newTestMemory(t, clk, nil)

	m.Set("k", "old", time.Minute)
	clk.Advance(50 * time.Second)
	m.Set("k", "new", time.Minute)
	clk.Advance(30 * time.Second)

	got, ok := Lookup[string](m, "k")
	if !ok || got != "new" {
		t.Fatalf("Lookup: got %q ok=%v", got, ok)
	}
}

func TestMemoryClearIsIdempotent(t *testing.T) {
	clk := newManualClock()
	hooks := newRecHooks()
	m := newTestMemory(t, clk, hooks)

	m.Set("community_chess-club", "x", time.Minute)
	m.Clear("community_chess-club")
	m.Clear("community_chess-club")
	m.Clear("never-set")

	if m.IsValid("community_chess-club") {
		t.Fatalf("expected invalid after Clear")
	}
	if _, ok := m.Get("community_chess-club"); ok {
		t.Fatalf("expected Get to miss after Clear")
	}
	if m.Len() != 0 {
		t.Fatalf("expected empty memory, got %d entries", m.Len())
	}
	if got := hooks.count("invalidated:" + TierMemory); got != 3 {
		t.Fatalf("invalidated hook count: got %d want 3", got)
	}
}

// TestMemorySetWithGenSkipsAfterClear verifies a fill that started before a
// Clear cannot repopulate the key.
func TestMemorySetWithGenSkipsAfterClear(t *testing.T) {
	clk := newManualClock()
	hooks := newRecHooks()
	m := newTestMemory(t, clk, hooks)

	obs := m.Snapshot("communities")
	m.Clear("communities")

	if m.SetWithGen("communities", "stale", obs, 0) {
		t.Fatalf("stale fill should be skipped")
	}
	if m.IsValid("communities") {
		t.Fatalf("stale fill populated memory")
	}
	if got := hooks.count("stale:" + TierMemory); got != 1 {
		t.Fatalf("stale hook count: got %d want 1", got)
	}

	fresh := m.Snapshot("communities")
	if !m.SetWithGen("communities", "fresh", fresh, 0) {
		t.Fatalf("fresh fill should be stored")
	}
	if got, ok := Lookup[string](m, "communities"); !ok || got != "fresh" {
		t.Fatalf("Lookup after fresh fill: %q ok=%v", got, ok)
	}
}

func TestLookupTypeMismatch(t *testing.T) {
	clk := newManualClock()
	m := newTestMemory(t, clk, nil)

	m.Set("k", 42, 0)
	if _, ok := Lookup[string](m, "k"); ok {
		t.Fatalf("Lookup should miss on type mismatch")
	}
	if v, ok := Lookup[int](m, "k"); !ok || v != 42 {
		t.Fatalf("Lookup[int]: %v ok=%v", v, ok)
	}
}

func TestMemoryHooks(t *testing.T) {
	clk := newManualClock()
	hooks := newRecHooks()
	m := newTestMemory(t, clk, hooks)

	m.IsValid("k")
	m.Set("k", 1, time.Second)
	m.IsValid("k")
	clk.Advance(time.Second)
	m.IsValid("k")

	for name, want := range map[string]int{
		"miss:" + TierMemory:    1,
		"hit:" + TierMemory:     1,
		"expired:" + TierMemory: 1,
	} {
		if got := hooks.count(name); got != want {
			t.Fatalf("%s: got %d want %d", name, got, want)
		}
	}
}
