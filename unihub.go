package unihub

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/unihub/auth"
	"github.com/unkn0wn-root/unihub/cache"
	"github.com/unkn0wn-root/unihub/community"
	"github.com/unkn0wn-root/unihub/config"
	"github.com/unkn0wn-root/unihub/genstore"
	"github.com/unkn0wn-root/unihub/logger"
	"github.com/unkn0wn-root/unihub/membership"
	"github.com/unkn0wn-root/unihub/post"
	"github.com/unkn0wn-root/unihub/provider"
	"github.com/unkn0wn-root/unihub/testimonial"
	"github.com/unkn0wn-root/unihub/transport"
	"github.com/unkn0wn-root/unihub/user"
)

// Options configure New. Only Config is required; the rest override what
// Config would build.
type Options struct {
	Config *config.Config

	Logger     logger.Logger
	HTTPClient *http.Client
	// Tokens replaces the token file named by Config.Auth.TokenFile.
	Tokens auth.Store
	// Provider replaces the provider named by Config.Cache.Provider.
	// The Client closes it.
	Provider provider.Provider
	// Hooks replaces the hooks named by Config.Cache.Hooks.
	Hooks cache.Hooks
	// Registerer receives Prometheus collectors when Config.Cache.Hooks is
	// "prom". nil => prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

// Client bundles the services that share one transport and one cache.
type Client struct {
	Auth        *auth.Service
	Communities *community.Service
	Posts       *post.Service
	Users       *user.Service
	// Testimonials keeps its list in Memory.
	Testimonials *testimonial.Service

	Memory    *cache.Memory
	Persisted *cache.Persistent[community.Community]

	cfg     *config.Config
	log     logger.Logger
	api     *transport.Client
	tokens  auth.Store
	closers []func(context.Context) error
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.Config == nil {
		return nil, errors.New("unihub: config is required")
	}
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("unihub: invalid config: %w", err)
	}
	log := logger.OrNop(opts.Logger)
	c := &Client{cfg: cfg, log: log}

	tokens := opts.Tokens
	if tokens == nil {
		var err error
		if tokens, err = openTokens(cfg.Auth); err != nil {
			return nil, err
		}
	}
	c.tokens = tokens

	api, err := transport.New(transport.Options{
		BaseURL:     cfg.API.BaseURL,
		HTTPClient:  opts.HTTPClient,
		Timeout:     cfg.API.Timeout,
		Credentials: tokens,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}
	c.api = api

	hooks := opts.Hooks
	if hooks == nil {
		h, closeHooks, err := openHooks(cfg.Cache, opts.Registerer)
		if err != nil {
			return nil, err
		}
		hooks = h
		if closeHooks != nil {
			c.closers = append(c.closers, closeHooks)
		}
	}

	p, gen := opts.Provider, genstore.GenStore(nil)
	if p == nil {
		if p, gen, err = openProvider(ctx, cfg.Cache, log); err != nil {
			c.closeAll(ctx)
			return nil, err
		}
	}

	c.Memory = cache.NewMemory(cache.MemoryOptions{
		DefaultTTL: cfg.Cache.MemoryTTL,
		Hooks:      hooks,
		Logger:     log,
	})
	c.closers = append(c.closers, c.Memory.Close)

	entryCodec, err := entryCodecFor[community.Community](cfg.Cache)
	if err != nil {
		_ = p.Close(ctx)
		c.closeAll(ctx)
		return nil, err
	}
	c.Persisted, err = cache.NewPersistent(cache.PersistentOptions[community.Community]{
		Provider:   p,
		Codec:      entryCodec,
		Prefix:     cfg.Cache.Prefix,
		DefaultTTL: cfg.Cache.PersistentTTL,
		GenStore:   gen,
		Hooks:      hooks,
		Logger:     log,
	})
	if err != nil {
		_ = p.Close(ctx)
		c.closeAll(ctx)
		return nil, err
	}
	c.closers = append(c.closers, c.Persisted.Close)

	c.Auth = auth.NewService(api, tokens, log)
	c.Communities = community.NewService(community.Options{
		API:       api,
		Memory:    c.Memory,
		Persisted: c.Persisted,
		Logger:    log,
	})
	c.Posts = post.NewService(api, log)
	c.Users = user.NewService(api, log)
	c.Testimonials = testimonial.NewService(api, c.Memory, cfg.Cache.MemoryTTL, log)
	return c, nil
}

// Authenticated reports whether the token store holds a usable session.
func (c *Client) Authenticated() bool { return c.Auth.Authenticated() }

// Membership returns a reconciler bound to this client's community service
// and the configured retry policy. Callers own it and must Close it.
func (c *Client) Membership(onChange func(membership.View)) *membership.Reconciler {
	return membership.New(membership.Options{
		Fetcher:     c.Communities,
		Logger:      c.log,
		MaxAttempts: c.cfg.Membership.MaxAttempts,
		BaseDelay:   c.cfg.Membership.BaseDelay,
		OnChange:    onChange,
	})
}

// Close releases the cache tiers, the provider and hook workers. Errors are
// joined.
func (c *Client) Close(ctx context.Context) error {
	return c.closeAll(ctx)
}

func (c *Client) closeAll(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
