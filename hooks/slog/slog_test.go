package sloghook

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/unihub/cache"
)

func newBuf() (*bytes.Buffer, *slog.Logger) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return &buf, l
}

func TestRedactsKeysByDefault(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{})

	h.ProviderSetRejected("community_robotics")

	out := buf.String()
	if strings.Contains(out, "robotics") {
		t.Fatalf("key leaked: %s", out)
	}
	if !strings.Contains(out, "unihub.cache.provider_set_rejected") {
		t.Fatalf("missing event: %s", out)
	}
}

func TestCustomRedactor(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{Redact: func(k string) string { return "<" + k + ">" }})

	h.Invalidated(cache.TierPersisted, "communities")

	if !strings.Contains(buf.String(), "key=<communities>") {
		t.Fatalf("got %s", buf.String())
	}
}

func TestSamplesSelfHeal(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{SelfHealEvery: 3})

	for i := 0; i < 9; i++ {
		h.SelfHeal("k", "corrupt")
	}
	if n := strings.Count(buf.String(), "unihub.cache.self_heal"); n != 3 {
		t.Fatalf("logged %d self-heals, want 3", n)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	h := New(nil, Options{})
	h.SelfHeal("k", "corrupt")
	h.StaleWriteSkipped(cache.TierMemory, "k")
	h.Expired(cache.TierMemory, "k")
}
