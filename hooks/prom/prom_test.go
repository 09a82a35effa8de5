package promhook

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/unkn0wn-root/unihub/cache"
)

func TestCountsEventsByTier(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := New(reg, "test")
	if err != nil {
		t.Fatal(err)
	}

	h.Hit(cache.TierMemory, "communities")
	h.Hit(cache.TierMemory, "communities")
	h.Miss(cache.TierPersisted, "community_robotics")
	h.SelfHeal("community_robotics", "corrupt")
	h.ProviderSetRejected("community_robotics")

	if got := testutil.ToFloat64(h.events.WithLabelValues(cache.TierMemory, "hit")); got != 2 {
		t.Fatalf("memory hits=%v want 2", got)
	}
	if got := testutil.ToFloat64(h.events.WithLabelValues(cache.TierPersisted, "miss")); got != 1 {
		t.Fatalf("persisted misses=%v want 1", got)
	}
	if got := testutil.ToFloat64(h.selfHeal.WithLabelValues("corrupt")); got != 1 {
		t.Fatalf("self-heal=%v want 1", got)
	}
	if got := testutil.ToFloat64(h.events.WithLabelValues(cache.TierPersisted, "provider_set_rejected")); got != 1 {
		t.Fatalf("rejected=%v want 1", got)
	}
}

func TestDoubleRegisterFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg, "dup"); err != nil {
		t.Fatal(err)
	}
	if _, err := New(reg, "dup"); err == nil {
		t.Fatal("second registration should fail")
	}
}

func TestTeeFansOut(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, _ := New(reg, "a")
	b, _ := New(reg, "b")

	cache.Tee{a, b}.Invalidated(cache.TierMemory, "communities")

	for _, h := range []*Hooks{a, b} {
		if got := testutil.ToFloat64(h.events.WithLabelValues(cache.TierMemory, "invalidated")); got != 1 {
			t.Fatalf("invalidated=%v want 1", got)
		}
	}
}
