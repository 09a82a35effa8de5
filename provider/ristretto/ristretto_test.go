package ristretto

import (
	"context"
	"testing"
	"time"
)

func TestInvalidConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for zero config")
	}
}

func TestSetWaitsForBuffer(t *testing.T) {
	ctx := context.Background()
	p, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close(ctx) })

	ok, err := p.Set(ctx, "community_robotics", []byte("r"), 0, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Skip("write dropped by admission policy")
	}
	b, hit, err := p.Get(ctx, "community_robotics")
	if err != nil || !hit || string(b) != "r" {
		t.Fatalf("Get hit=%v err=%v b=%q", hit, err, b)
	}
	_ = p.Del(ctx, "community_robotics")
	if _, hit, _ := p.Get(ctx, "community_robotics"); hit {
		t.Fatal("expected miss after Del")
	}
}
