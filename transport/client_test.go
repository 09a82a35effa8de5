package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCreds struct {
	mu      sync.Mutex
	access  string
	refresh string
	cleared bool
}

func (m *memCreds) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access
}

func (m *memCreds) RefreshToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresh
}

func (m *memCreds) SetAccessToken(t string) error {
	m.mu.Lock()
	m.access = t
	m.mu.Unlock()
	return nil
}

func (m *memCreds) Clear() error {
	m.mu.Lock()
	m.access, m.refresh, m.cleared = "", "", true
	m.mu.Unlock()
	return nil
}

func newTestClient(t *testing.T, srv *httptest.Server, creds Credentials) *Client {
	t.Helper()
	c, err := New(Options{BaseURL: srv.URL, Credentials: creds})
	require.NoError(t, err)
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestGetSendsBearerAndRequestID(t *testing.T) {
	var gotAuth, gotRID, gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRID = r.Header.Get(requestIDHeader)
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &memCreds{access: "tok"})
	var out struct {
		OK bool `json:"ok"`
	}
	err := c.Get(context.Background(), "/api/communities/", map[string][]string{"category": {"academic"}}, &out)
	require.NoError(t, err)

	assert.True(t, out.OK)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.NotEmpty(t, gotRID)
	assert.Equal(t, "/api/communities/", gotPath)
	assert.Equal(t, "category=academic", gotQuery)
}

func TestHTTPErrorCarriesBackendFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"You are already a member of this community","name":["This field is required."],"slug":"taken"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)
	err := c.Post(context.Background(), "/api/communities/chess-club/join/", nil, nil)

	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.StatusCode)
	assert.Equal(t, "You are already a member of this community", he.Detail)
	assert.Equal(t, []string{"This field is required."}, he.Fields["name"])
	assert.Equal(t, []string{"taken"}, he.Fields["slug"])
	assert.Equal(t, "name: This field is required.; slug: taken", he.FieldSummary())
	assert.Equal(t, "request failed with status code 400", he.Error())
	assert.Equal(t, 400, StatusCode(err))
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: url})
	require.NoError(t, err)

	err = c.Get(context.Background(), "/api/communities/", nil, nil)
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, 0, StatusCode(err))
}

func TestRefreshOnceAndRetry(t *testing.T) {
	var refreshes, calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case refreshPath:
			refreshes.Add(1)
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["refresh"] != "r1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"access":"fresh"}`))
		default:
			calls.Add(1)
			if r.Header.Get("Authorization") != "Bearer fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"is_member":true}`))
		}
	}))
	defer srv.Close()

	creds := &memCreds{access: "stale", refresh: "r1"}
	c := newTestClient(t, srv, creds)

	var out map[string]bool
	require.NoError(t, c.Get(context.Background(), "/api/communities/x/membership_status/", nil, &out))
	assert.True(t, out["is_member"])
	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "fresh", creds.AccessToken())
}

func TestRefreshRejectedClearsCredentials(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != refreshPath {
			calls.Add(1)
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	creds := &memCreds{access: "stale", refresh: "expired"}
	c := newTestClient(t, srv, creds)

	err := c.Post(context.Background(), "/api/communities/x/join/", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
	assert.Equal(t, int32(1), calls.Load(), "no retry after failed refresh")
	assert.True(t, creds.cleared)
}

func TestNoRefreshWithoutToken(t *testing.T) {
	c, err := New(Options{BaseURL: "http://127.0.0.1:1", Credentials: &memCreds{}})
	require.NoError(t, err)
	assert.True(t, errors.Is(c.Refresh(context.Background()), ErrNoRefreshToken))
}

func TestDecodeList(t *testing.T) {
	type item struct {
		Slug string `json:"slug"`
	}
	bare, err := DecodeList[item](json.RawMessage(`[{"slug":"a"},{"slug":"b"}]`))
	require.NoError(t, err)
	assert.Equal(t, []item{{"a"}, {"b"}}, bare)

	paged, err := DecodeList[item](json.RawMessage(`{"count":1,"next":null,"previous":null,"results":[{"slug":"c"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []item{{"c"}}, paged)

	empty, err := DecodeList[item](json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = DecodeList[item](json.RawMessage(`"nope"`))
	assert.Error(t, err)
}

func TestDecodePageWrapsBareArray(t *testing.T) {
	page, err := DecodePage[int](json.RawMessage(`[1,2,3]`))
	require.NoError(t, err)
	assert.Equal(t, 3, page.Count)
	assert.Nil(t, page.Next)
	assert.Equal(t, []int{1, 2, 3}, page.Results)
}
