package community

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/unihub/apierr"
	"github.com/unkn0wn-root/unihub/cache"
	"github.com/unkn0wn-root/unihub/provider/sqlite"
	"github.com/unkn0wn-root/unihub/transport"
)

const chessClub = `{"id":1,"name":"Chess Club","slug":"chess-club","description":"Play chess","category":"social",
	"tags":"board games, strategy","creator":{"id":9,"username":"magnus"},"member_count":12,
	"is_member":false,"membership_role":null,"membership_status":null,"created_at":"2024-02-01T10:00:00Z"}`

type backend struct {
	mu       sync.Mutex
	routes   map[string]func(w http.ResponseWriter, r *http.Request)
	hits     map[string]*atomic.Int32
	fallback http.HandlerFunc
}

func newBackend() *backend {
	return &backend{
		routes: map[string]func(http.ResponseWriter, *http.Request){},
		hits:   map[string]*atomic.Int32{},
	}
}

func (b *backend) handle(method, path string, fn func(w http.ResponseWriter, r *http.Request)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := method + " " + path
	b.routes[k] = fn
	b.hits[k] = &atomic.Int32{}
}

func (b *backend) reply(method, path string, status int, body string) {
	b.handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func (b *backend) count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.hits[method+" "+path]; ok {
		return int(c.Load())
	}
	return 0
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	k := r.Method + " " + r.URL.Path
	b.mu.Lock()
	fn, ok := b.routes[k]
	if ok {
		b.hits[k].Add(1)
	}
	b.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not found."}`))
		return
	}
	fn(w, r)
}

type fixture struct {
	svc   *Service
	be    *backend
	mem   *cache.Memory
	store *cache.Persistent[Community]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	be := newBackend()
	srv := httptest.NewServer(be)
	t.Cleanup(srv.Close)

	api, err := transport.New(transport.Options{BaseURL: srv.URL})
	require.NoError(t, err)

	p, err := sqlite.Open(ctx, sqlite.Config{Path: ":memory:"})
	require.NoError(t, err)
	store, err := cache.NewPersistent(cache.PersistentOptions[Community]{Provider: p})
	require.NoError(t, err)
	mem := cache.NewMemory(cache.MemoryOptions{})
	t.Cleanup(func() {
		_ = store.Close(ctx)
		_ = mem.Close(ctx)
	})

	return &fixture{
		svc:   NewService(Options{API: api, Memory: mem, Persisted: store}),
		be:    be,
		mem:   mem,
		store: store,
	}
}

func TestCommunitiesCachesUnfilteredList(t *testing.T) {
	f := newFixture(t)
	f.be.reply("GET", "/api/communities/", 200, `{"count":1,"next":null,"previous":null,"results":[`+chessClub+`]}`)
	ctx := context.Background()

	first, err := f.svc.Communities(ctx, nil)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, []string{"board games", "strategy"}, first[0].Tags)
	assert.Equal(t, "magnus", first[0].Creator.Username)

	second, err := f.svc.Communities(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.be.count("GET", "/api/communities/"))

	_, err = f.svc.Communities(ctx, &Filters{Category: "social"})
	require.NoError(t, err)
	assert.Equal(t, 2, f.be.count("GET", "/api/communities/"), "filtered lists bypass the cache")
}

func TestCommunitiesFailureFallsBackToEmpty(t *testing.T) {
	f := newFixture(t)
	f.be.reply("GET", "/api/communities/", 500, `{"detail":"boom"}`)

	got, err := f.svc.Communities(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.False(t, f.mem.IsValid(KeyCommunities))
}

func TestCommunityLookupOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.be.reply("GET", "/api/communities/", 200, `[]`)
	f.be.reply("GET", "/api/communities/chess-club/", 200, chessClub)

	c, err := f.svc.Community(ctx, " /chess-club/ ")
	require.NoError(t, err)
	assert.Equal(t, "Chess Club", c.Name)
	assert.Equal(t, 1, f.be.count("GET", "/api/communities/chess-club/"))

	persisted, ok := f.store.GetWithExpiry(ctx, Key("chess-club"))
	require.True(t, ok, "detail should be persisted")
	assert.Equal(t, c.Slug, persisted.Slug)

	f.mem.Clear(Key("chess-club"))
	again, err := f.svc.Community(ctx, "chess-club")
	require.NoError(t, err)
	assert.Equal(t, c.Name, again.Name)
	assert.Equal(t, 1, f.be.count("GET", "/api/communities/chess-club/"), "served from persisted tier")
}

func TestCommunityFromPaginatedDetail(t *testing.T) {
	f := newFixture(t)
	f.be.reply("GET", "/api/communities/", 200, `[]`)
	f.be.reply("GET", "/api/communities/chess-club/", 200, `{"count":1,"results":[`+chessClub+`]}`)

	c, err := f.svc.Community(context.Background(), "chess-club")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)
}

func TestCommunityNotFound(t *testing.T) {
	f := newFixture(t)
	f.be.reply("GET", "/api/communities/", 200, `[]`)

	_, err := f.svc.Community(context.Background(), "ghost")
	var ae *apierr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, `Community "ghost" not found`, ae.Message)
	assert.Equal(t, 404, ae.StatusCode)
}

func TestCommunityServerError(t *testing.T) {
	f := newFixture(t)
	f.be.reply("GET", "/api/communities/", 200, `[]`)
	f.be.reply("GET", "/api/communities/chess-club/", 502, ``)

	_, err := f.svc.Community(context.Background(), "chess-club")
	require.Error(t, err)
	assert.Equal(t, "request failed with status code 502", err.Error())

	_, err = f.svc.Community(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrSlugRequired)
}

func TestCreateCommunityInvalidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.be.handle("POST", "/api/communities/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(chessClub))
	})
	f.mem.Set(KeyCommunities, []Community{}, 0)

	c, err := f.svc.CreateCommunity(ctx, CreateInput{Name: "Chess Club", Category: "social", Tags: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "chess-club", c.Slug)
	assert.False(t, f.mem.IsValid(KeyCommunities))

	_, err = f.svc.CreateCommunity(ctx, CreateInput{})
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestMembers(t *testing.T) {
	f := newFixture(t)
	f.be.handle("GET", "/api/communities/chess-club/members/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "admin", r.URL.Query().Get("role"))
		_, _ = w.Write([]byte(`[{"id":1,"user":{"id":9,"username":"magnus"},"role":"admin","status":"approved","joined_at":"2024-02-01T10:00:00Z"},
			{"id":2,"user":null,"role":"member"}]`))
	})

	got, err := f.svc.Members(context.Background(), "chess-club", RoleAdmin)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, RoleAdmin, got[0].Role)
	assert.Equal(t, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), got[0].JoinedAt.UTC())
}

func TestUserCommunities(t *testing.T) {
	f := newFixture(t)
	f.be.handle("GET", "/api/communities/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("member_of"))
		assert.Equal(t, "ada", r.URL.Query().Get("username"))
		_, _ = w.Write([]byte(`[` + chessClub + `]`))
	})

	got, err := f.svc.UserCommunities(context.Background(), "ada")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = f.svc.UserCommunities(context.Background(), "")
	assert.ErrorIs(t, err, ErrUsernameRequired)
}
