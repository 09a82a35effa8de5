package bigcache

import (
	"context"
	"testing"
	"time"
)

func TestRoundTripAndDeleteMissing(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, Config{LifeWindow: time.Minute})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close(ctx) })

	if _, ok, err := p.Get(ctx, "community_x"); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
	if ok, err := p.Set(ctx, "community_x", []byte("payload"), 1, time.Hour); err != nil || !ok {
		t.Fatalf("Set ok=%v err=%v", ok, err)
	}
	b, ok, err := p.Get(ctx, "community_x")
	if err != nil || !ok || string(b) != "payload" {
		t.Fatalf("Get ok=%v err=%v b=%q", ok, err, b)
	}
	if err := p.Del(ctx, "community_x"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if err := p.Del(ctx, "community_x"); err != nil {
		t.Fatalf("Del missing should be nil, got %v", err)
	}
}
