package unihub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/unihub/auth"
	"github.com/unkn0wn-root/unihub/community"
	"github.com/unkn0wn-root/unihub/config"
	"github.com/unkn0wn-root/unihub/membership"
)

const robotics = `{"id":3,"name":"Robotics","slug":"robotics","description":"Build robots","category":"academic",
	"tags":"hardware, ai","member_count":40,"is_member":false,"created_at":"2024-03-01T10:00:00Z"}`

type counters struct {
	list, join, status atomic.Int32
}

func newServer(t *testing.T, statusNotFound int32) (*httptest.Server, *counters) {
	t.Helper()
	n := &counters{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/communities/", func(w http.ResponseWriter, r *http.Request) {
		n.list.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":1,"next":null,"previous":null,"results":[` + robotics + `]}`))
	})
	mux.HandleFunc("POST /api/communities/{slug}/join/", func(w http.ResponseWriter, r *http.Request) {
		n.join.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"detail":"Joined."}`))
	})
	mux.HandleFunc("GET /api/communities/{slug}/membership_status/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if n.status.Add(1) <= statusNotFound {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Not found."}`))
			return
		}
		_, _ = w.Write([]byte(`{"is_member":true,"status":"approved","role":"member"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, n
}

func testConfig(baseURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.API.BaseURL = baseURL
	cfg.Auth.TokenFile = ""
	cfg.Cache.SQLitePath = ":memory:"
	cfg.Membership.BaseDelay = 10 * time.Millisecond
	return cfg
}

func newClient(t *testing.T, cfg *config.Config, opts Options) *Client {
	t.Helper()
	opts.Config = cfg
	if opts.Tokens == nil {
		opts.Tokens = auth.NewMemoryStore(auth.Tokens{Access: "opaque-access"})
	}
	c, err := New(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func TestNewRequiresValidConfig(t *testing.T) {
	_, err := New(context.Background(), Options{})
	require.Error(t, err)

	cfg := config.DefaultConfig()
	cfg.Cache.Provider = "memcached"
	_, err = New(context.Background(), Options{Config: cfg})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.provider")
}

func TestJoinInvalidatesListAcrossClient(t *testing.T) {
	srv, n := newServer(t, 0)
	cfg := testConfig(srv.URL)
	cfg.Cache.Codec = "msgpack"
	c := newClient(t, cfg, Options{})
	ctx := context.Background()

	list, err := c.Communities.Communities(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	_, err = c.Communities.Communities(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n.list.Load())

	got, err := c.Communities.Community(ctx, "robotics")
	require.NoError(t, err)
	assert.Equal(t, []string{"hardware", "ai"}, got.Tags)

	resp, err := c.Communities.Join(ctx, "robotics")
	require.NoError(t, err)
	assert.Equal(t, "Joined.", resp.Detail)
	assert.False(t, c.Memory.IsValid(community.KeyCommunities))
	assert.False(t, c.Memory.IsValid(community.Key("robotics")))
	_, ok := c.Persisted.GetWithExpiry(ctx, community.Key("robotics"))
	assert.False(t, ok)

	_, err = c.Communities.Communities(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n.list.Load())
}

func TestMembershipReconcilerThroughClient(t *testing.T) {
	srv, n := newServer(t, 1)
	c := newClient(t, testConfig(srv.URL), Options{})

	var views []membership.View
	rec := c.Membership(func(v membership.View) { views = append(views, v) })
	defer rec.Close()
	rec.Update("robotics", c.Authenticated())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := rec.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, membership.Resolved, v.State)
	assert.True(t, v.Status.IsMember)
	assert.EqualValues(t, 2, n.status.Load())
}

func TestUnauthenticatedClientSkipsStatusCall(t *testing.T) {
	srv, n := newServer(t, 0)
	c := newClient(t, testConfig(srv.URL), Options{Tokens: auth.NewMemoryStore(auth.Tokens{})})

	rec := c.Membership(nil)
	defer rec.Close()
	rec.Update("robotics", c.Authenticated())

	v, err := rec.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, membership.Unauthenticated, v.State)
	assert.Zero(t, n.status.Load())
}

func TestNoneProviderNeverPersists(t *testing.T) {
	srv, _ := newServer(t, 0)
	cfg := testConfig(srv.URL)
	cfg.Cache.Provider = "none"
	c := newClient(t, cfg, Options{})
	ctx := context.Background()

	require.NoError(t, c.Persisted.SetWithExpiry(ctx, community.Key("robotics"), community.Community{Slug: "robotics"}, 0))
	_, ok := c.Persisted.GetWithExpiry(ctx, community.Key("robotics"))
	assert.False(t, ok)
}

func TestPromHooksRegisterAndCount(t *testing.T) {
	srv, _ := newServer(t, 0)
	cfg := testConfig(srv.URL)
	cfg.Cache.Hooks = config.HooksProm
	reg := prometheus.NewRegistry()
	c := newClient(t, cfg, Options{Registerer: reg})
	ctx := context.Background()

	_, err := c.Communities.Communities(ctx, nil)
	require.NoError(t, err)
	_, err = c.Communities.Communities(ctx, nil)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["unihub_cache_events_total"])
}
