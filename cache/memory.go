package cache

import (
	"context"
	"sync"
	"time"

	"github.com/unkn0wn-root/unihub/genstore"
	"github.com/unkn0wn-root/unihub/logger"
)

type memEntry struct {
	value    any
	storedAt time.Time
	ttl      time.Duration
}

func (e memEntry) validAt(now time.Time) bool {
	return now.Sub(e.storedAt) < e.ttl
}

// MemoryOptions tune Memory. All fields are optional.
type MemoryOptions struct {
	DefaultTTL time.Duration     // 0 => DefaultMemoryTTL
	Now        func() time.Time  // nil => time.Now
	GenStore   genstore.GenStore // nil => in-process store with hourly cleanup
	Hooks      Hooks
	Logger     logger.Logger
}

// Memory is the in-process tier. Values are stored as-is (no encoding) and
// writes replace the whole entry. Safe for concurrent use.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]memEntry
	now        func() time.Time
	defaultTTL time.Duration
	gen        genstore.GenStore
	hooks      Hooks
	log        logger.Logger
}

func NewMemory(opts MemoryOptions) *Memory {
	m := &Memory{
		entries:    make(map[string]memEntry),
		defaultTTL: coalesce(opts.DefaultTTL, DefaultMemoryTTL),
		hooks:      coalesce[Hooks](opts.Hooks, NopHooks{}),
		log:        logger.OrNop(opts.Logger),
		now:        opts.Now,
		gen:        opts.GenStore,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.gen == nil {
		m.gen = genstore.NewLocalGenStore(defaultSweep, defaultGenRetention)
	}
	return m
}

// IsValid reports whether key holds an entry younger than its TTL.
func (m *Memory) IsValid(key string) bool {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	switch {
	case !ok:
		m.hooks.Miss(TierMemory, key)
		return false
	case !e.validAt(m.now()):
		m.hooks.Expired(TierMemory, key)
		return false
	}
	m.hooks.Hit(TierMemory, key)
	return true
}

// Get returns the stored value whether or not it is still valid; callers
// check IsValid first. ok is false only when nothing is stored.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Set overwrites any prior entry and restarts its TTL. ttl <= 0 uses the default.
func (m *Memory) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	m.mu.Lock()
	m.entries[key] = memEntry{value: value, storedAt: m.now(), ttl: ttl}
	m.mu.Unlock()
}

// Snapshot returns key's generation; pass it to SetWithGen after the fetch.
func (m *Memory) Snapshot(key string) uint64 {
	g, err := m.gen.Snapshot(context.Background(), key)
	if err != nil {
		m.log.Warn("gen snapshot error", logger.Fields{"key": key, "err": err})
		return 0
	}
	return g
}

// SetWithGen stores value only if key was not cleared since observedGen was
// taken. It reports whether the write happened.
func (m *Memory) SetWithGen(key string, value any, observedGen uint64, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, err := m.gen.Snapshot(context.Background(), key)
	if err != nil || cur != observedGen {
		m.hooks.StaleWriteSkipped(TierMemory, key)
		m.log.Debug("memory fill skipped (gen mismatch)", logger.Fields{"key": key, "obs": observedGen, "cur": cur})
		return false
	}
	m.entries[key] = memEntry{value: value, storedAt: m.now(), ttl: ttl}
	return true
}

// Clear removes key and bumps its generation. Clearing a missing key is a no-op
// for the entry map; the generation still moves so in-flight fills are fenced.
func (m *Memory) Clear(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	newGen, err := m.gen.Bump(context.Background(), key)
	m.mu.Unlock()
	if err != nil {
		m.log.Error("gen bump error", logger.Fields{"key": key, "err": err})
	}
	m.hooks.Invalidated(TierMemory, key)
	m.log.Debug("cleared memory entry", logger.Fields{"key": key, "newGen": newGen})
}

// Len returns the number of stored entries, valid or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) Close(ctx context.Context) error {
	return m.gen.Close(ctx)
}

// Lookup returns the value under key when it is valid and of type T.
func Lookup[T any](m *Memory, key string) (T, bool) {
	var zero T
	if !m.IsValid(key) {
		return zero, false
	}
	v, ok := m.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
