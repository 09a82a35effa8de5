package cache

import (
	"context"
	"errors"
	"time"

	"github.com/unkn0wn-root/unihub/codec"
	"github.com/unkn0wn-root/unihub/genstore"
	"github.com/unkn0wn-root/unihub/logger"
	"github.com/unkn0wn-root/unihub/provider"
)

// Entry is the stored envelope of a persisted value. Expiry is an absolute
// Unix time in milliseconds; Gen is the generation observed when the value
// was fetched.
type Entry[V any] struct {
	Value  V      `json:"value"`
	Expiry int64  `json:"expiry"`
	Gen    uint64 `json:"gen,omitempty"`
}

// PersistentOptions configure a Persistent tier. Provider is required.
type PersistentOptions[V any] struct {
	Provider provider.Provider
	Codec    codec.Codec[Entry[V]] // nil => codec.JSON
	// Prefix isolates this tier's keys inside a shared provider.
	Prefix     string
	DefaultTTL time.Duration    // 0 => DefaultPersistentTTL
	Now        func() time.Time // nil => time.Now
	GenStore   genstore.GenStore
	Hooks      Hooks
	Logger     logger.Logger
}

// Persistent is the durable tier. Each key holds one Entry encoded by the
// configured codec. Reads never fail: storage and decode errors degrade to a
// miss, and unusable entries are deleted on the way out.
type Persistent[V any] struct {
	p          provider.Provider
	codec      codec.Codec[Entry[V]]
	prefix     string
	defaultTTL time.Duration
	now        func() time.Time
	gen        genstore.GenStore
	hooks      Hooks
	log        logger.Logger
}

func NewPersistent[V any](opts PersistentOptions[V]) (*Persistent[V], error) {
	if opts.Provider == nil {
		return nil, ErrProviderRequired
	}
	c := &Persistent[V]{
		p:          opts.Provider,
		codec:      opts.Codec,
		prefix:     opts.Prefix,
		defaultTTL: coalesce(opts.DefaultTTL, DefaultPersistentTTL),
		now:        opts.Now,
		gen:        opts.GenStore,
		hooks:      coalesce[Hooks](opts.Hooks, NopHooks{}),
		log:        logger.OrNop(opts.Logger),
	}
	if c.codec == nil {
		c.codec = codec.JSON[Entry[V]]{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.gen == nil {
		c.gen = genstore.NewLocalGenStore(defaultSweep, defaultGenRetention)
	}
	return c, nil
}

// SetWithExpiry stores value with expiry now+ttl, replacing any prior entry.
// ttl <= 0 uses the default.
func (c *Persistent[V]) SetWithExpiry(ctx context.Context, key string, value V, ttl time.Duration) error {
	return c.put(ctx, key, value, c.snapshotGen(c.storageKey(key)), ttl)
}

// GetWithExpiry returns the value for key while it is unexpired. Expired,
// corrupt and stale-generation entries are removed and reported as a miss.
func (c *Persistent[V]) GetWithExpiry(ctx context.Context, key string) (V, bool) {
	var zero V
	k := c.storageKey(key)
	raw, ok, err := c.p.Get(ctx, k)
	if err != nil {
		c.log.Warn("persisted read failed", logger.Fields{"key": key, "err": err})
		c.hooks.Miss(TierPersisted, key)
		return zero, false
	}
	if !ok {
		c.hooks.Miss(TierPersisted, key)
		return zero, false
	}
	e, err := c.codec.Decode(raw)
	if err != nil {
		reason := "corrupt"
		if errors.Is(err, codec.ErrTooLarge) {
			reason = "too_large"
		}
		c.drop(ctx, k)
		c.hooks.SelfHeal(key, reason)
		c.log.Debug("dropped unreadable persisted entry", logger.Fields{"key": key, "reason": reason, "err": err})
		return zero, false
	}
	if c.now().UnixMilli() >= e.Expiry {
		c.drop(ctx, k)
		c.hooks.Expired(TierPersisted, key)
		return zero, false
	}
	// Clear deletes the entry, so only an older generation marks a leftover.
	// A newer one is a write from before the generation store was reset.
	if e.Gen < c.snapshotGen(k) {
		c.drop(ctx, k)
		c.hooks.SelfHeal(key, "gen_mismatch")
		return zero, false
	}
	c.hooks.Hit(TierPersisted, key)
	return e.Value, true
}

// Snapshot returns key's current generation.
func (c *Persistent[V]) Snapshot(key string) uint64 {
	return c.snapshotGen(c.storageKey(key))
}

// SetWithGen stores value only if key was not cleared since observedGen was
// taken. It reports whether the value reached the provider.
func (c *Persistent[V]) SetWithGen(ctx context.Context, key string, value V, observedGen uint64, ttl time.Duration) (bool, error) {
	if c.snapshotGen(c.storageKey(key)) != observedGen {
		c.hooks.StaleWriteSkipped(TierPersisted, key)
		c.log.Debug("persisted fill skipped (gen mismatch)", logger.Fields{"key": key, "obs": observedGen})
		return false, nil
	}
	if err := c.put(ctx, key, value, observedGen, ttl); err != nil {
		return false, err
	}
	return true, nil
}

// Clear bumps key's generation and deletes the entry. Only a failure of both
// steps is an error: either one alone keeps readers from seeing the old value.
func (c *Persistent[V]) Clear(ctx context.Context, key string) error {
	k := c.storageKey(key)
	newGen, bumpErr := c.gen.Bump(ctx, k)
	if bumpErr != nil {
		c.log.Error("gen bump error", logger.Fields{"key": key, "err": bumpErr})
	}
	delErr := c.p.Del(ctx, k)
	if bumpErr != nil && delErr != nil {
		return &InvalidateError{Key: key, BumpErr: bumpErr, DelErr: delErr}
	}
	if delErr != nil {
		c.log.Warn("persisted delete failed (gen bumped)", logger.Fields{"key": key, "err": delErr})
	}
	c.hooks.Invalidated(TierPersisted, key)
	c.log.Debug("cleared persisted entry", logger.Fields{"key": key, "newGen": newGen})
	return nil
}

func (c *Persistent[V]) Close(ctx context.Context) error {
	if c.gen != nil {
		_ = c.gen.Close(ctx)
	}
	return c.p.Close(ctx)
}

func (c *Persistent[V]) put(ctx context.Context, key string, value V, gen uint64, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	b, err := c.codec.Encode(Entry[V]{
		Value:  value,
		Expiry: c.now().Add(ttl).UnixMilli(),
		Gen:    gen,
	})
	if err != nil {
		return err
	}
	k := c.storageKey(key)
	ok, err := c.p.Set(ctx, k, b, int64(len(b)), ttl)
	if err != nil {
		return err
	}
	if !ok {
		c.hooks.ProviderSetRejected(key)
		c.log.Debug("persisted set rejected by provider (pressure)", logger.Fields{"key": key})
	}
	return nil
}

func (c *Persistent[V]) drop(ctx context.Context, storageKey string) {
	if err := c.p.Del(ctx, storageKey); err != nil {
		c.log.Warn("self-heal delete failed", logger.Fields{"key": storageKey, "err": err})
	}
}

func (c *Persistent[V]) snapshotGen(storageKey string) uint64 {
	g, err := c.gen.Snapshot(context.Background(), storageKey)
	if err != nil {
		c.log.Warn("gen snapshot error", logger.Fields{"key": storageKey, "err": err})
		return 0
	}
	return g
}

func (c *Persistent[V]) storageKey(key string) string {
	return c.prefix + key
}
