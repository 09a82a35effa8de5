package testimonial

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/unihub/apierr"
	"github.com/unkn0wn-root/unihub/cache"
	"github.com/unkn0wn-root/unihub/transport"
)

func newTestService(t *testing.T, mem *cache.Memory, h http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	api, err := transport.New(transport.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	return NewService(api, mem, 0, nil)
}

func TestListCachesInMemory(t *testing.T) {
	var calls atomic.Int32
	mem := cache.NewMemory(cache.MemoryOptions{})
	t.Cleanup(func() { _ = mem.Close(context.Background()) })
	svc := newTestService(t, mem, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/testimonials", r.URL.Path)
		_, _ = w.Write([]byte(`{"count":2,"next":null,"previous":null,"results":[
			{"id":1,"name":"Grace","role":"Alumna","content":"Found my team here","rating":5},
			{"id":0,"content":"broken"}
		]}`))
	})
	ctx := context.Background()

	got, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Grace", got[0].Name)
	assert.Equal(t, 5, got[0].Rating)

	_, err = svc.List(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())

	mem.Clear(KeyTestimonials)
	_, err = svc.List(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestListFailureFallsBackToEmpty(t *testing.T) {
	var calls atomic.Int32
	mem := cache.NewMemory(cache.MemoryOptions{})
	t.Cleanup(func() { _ = mem.Close(context.Background()) })
	svc := newTestService(t, mem, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, _ = svc.List(context.Background())
	assert.EqualValues(t, 2, calls.Load(), "failures are not cached")
}

func TestGet(t *testing.T) {
	svc := newTestService(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/testimonials/1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"id":1,"name":"Grace","content":"Found my team here"}`))
	})
	ctx := context.Background()

	got, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Found my team here", got.Content)

	_, err = svc.Get(ctx, 2)
	require.Error(t, err)
	assert.True(t, apierr.IsNotFound(err))
	assert.Equal(t, "Testimonial 2 not found", err.Error())

	_, err = svc.Get(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidID)
}
