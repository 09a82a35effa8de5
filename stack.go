package unihub

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/unihub/auth"
	"github.com/unkn0wn-root/unihub/cache"
	"github.com/unkn0wn-root/unihub/codec"
	"github.com/unkn0wn-root/unihub/config"
	"github.com/unkn0wn-root/unihub/genstore"
	asynchook "github.com/unkn0wn-root/unihub/hooks/async"
	promhook "github.com/unkn0wn-root/unihub/hooks/prom"
	sloghook "github.com/unkn0wn-root/unihub/hooks/slog"
	"github.com/unkn0wn-root/unihub/logger"
	"github.com/unkn0wn-root/unihub/provider"
	"github.com/unkn0wn-root/unihub/provider/bigcache"
	"github.com/unkn0wn-root/unihub/provider/redis"
	"github.com/unkn0wn-root/unihub/provider/ristretto"
	"github.com/unkn0wn-root/unihub/provider/sqlite"
)

// generations for a shared redis tier outlive any entry TTL
const redisGenTTL = 30 * 24 * time.Hour

func openTokens(cfg config.AuthConfig) (auth.Store, error) {
	if cfg.TokenFile == "" {
		return auth.NewMemoryStore(auth.Tokens{}), nil
	}
	s, err := auth.OpenFileStore(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("unihub: %w", err)
	}
	return s, nil
}

// openProvider builds the persisted tier's byte store. The returned
// GenStore is nil unless the provider is shared between processes.
func openProvider(ctx context.Context, cfg config.CacheConfig, log logger.Logger) (provider.Provider, genstore.GenStore, error) {
	switch cfg.Provider {
	case provider.DriverSQLite:
		p, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.SQLitePath})
		if err != nil {
			return nil, nil, err
		}
		log.Debug("persisted tier on sqlite", logger.Fields{"path": cfg.SQLitePath})
		return p, nil, nil
	case provider.DriverRedis:
		p, err := redis.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, fmt.Errorf("unihub: redis %s: %w", cfg.RedisAddr, err)
		}
		ns := cfg.Prefix
		if ns == "" {
			ns = "unihub"
		}
		return p, genstore.NewRedisGenStore(p.Client(), ns, redisGenTTL), nil
	case provider.DriverBigCache:
		p, err := bigcache.New(ctx, bigcache.Config{LifeWindow: cfg.PersistentTTL})
		return p, nil, err
	case provider.DriverRistretto:
		p, err := ristretto.New(ristretto.DefaultConfig())
		return p, nil, err
	case provider.DriverNone:
		return provider.Discard{}, nil, nil
	}
	return nil, nil, fmt.Errorf("unihub: unknown cache provider %q", cfg.Provider)
}

func entryCodecFor[V any](cfg config.CacheConfig) (codec.Codec[cache.Entry[V]], error) {
	return codec.For[cache.Entry[V]](cfg.Codec, cfg.MaxDecodeBytes)
}

// openHooks returns the configured hooks and, for queued hooks, a closer.
func openHooks(cfg config.CacheConfig, reg prometheus.Registerer) (cache.Hooks, func(context.Context) error, error) {
	switch cfg.Hooks {
	case "", config.HooksNone:
		return cache.NopHooks{}, nil, nil
	case config.HooksSlog:
		q := asynchook.New(sloghook.New(slog.Default(), sloghook.Options{SelfHealEvery: 10}), 1, 1024)
		return q, func(context.Context) error { q.Close(); return nil }, nil
	case config.HooksProm:
		h, err := promhook.New(reg, "unihub")
		if err != nil {
			return nil, nil, fmt.Errorf("unihub: register cache metrics: %w", err)
		}
		return h, nil, nil
	}
	return nil, nil, fmt.Errorf("unihub: unknown cache hooks %q", cfg.Hooks)
}
