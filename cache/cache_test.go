package cache

import (
	"context"
	"sync"
	"time"

	"github.com/unkn0wn-root/unihub/provider"
)

type memItem struct {
	v   []byte
	exp time.Time // zero => no TTL
}

type memProvider struct {
	mu sync.Mutex
	m  map[string]memItem
}

var _ provider.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string]memItem)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		delete(p.m, key)
		return nil, false, nil
	}
	return e.v, true, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	p.mu.Lock()
	p.m[key] = memItem{v: value, exp: exp}
	p.mu.Unlock()
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.m, key)
	p.mu.Unlock()
	return nil
}

func (p *memProvider) Close(context.Context) error { return nil }

func (p *memProvider) has(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.m[key]
	return ok
}

// manualClock is a settable time source for TTL tests.
type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func newManualClock() *manualClock {
	return &manualClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// recHooks counts hook events by name.
type recHooks struct {
	mu     sync.Mutex
	counts map[string]int
}

func newRecHooks() *recHooks { return &recHooks{counts: map[string]int{}} }

func (h *recHooks) inc(name string) {
	h.mu.Lock()
	h.counts[name]++
	h.mu.Unlock()
}

func (h *recHooks) count(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts[name]
}

func (h *recHooks) Hit(tier, _ string)               { h.inc("hit:" + tier) }
func (h *recHooks) Miss(tier, _ string)              { h.inc("miss:" + tier) }
func (h *recHooks) Expired(tier, _ string)           { h.inc("expired:" + tier) }
func (h *recHooks) SelfHeal(_, reason string)        { h.inc("selfheal:" + reason) }
func (h *recHooks) StaleWriteSkipped(tier, _ string) { h.inc("stale:" + tier) }
func (h *recHooks) ProviderSetRejected(string)       { h.inc("rejected") }
func (h *recHooks) Invalidated(tier, _ string)       { h.inc("invalidated:" + tier) }
