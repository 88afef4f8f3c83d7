package proxy

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kclaka/colander/cache"
)

func newTestLayer(t *testing.T) *cache.LayerPointer {
	t.Helper()
	primary := cache.NewSharded(64, cache.NewSieveFactory())
	return cache.NewLayerPointer(cache.NewCacheLayer(primary, nil, cache.ModeBench))
}

func newTestHandler(t *testing.T, upstream *httptest.Server) *Handler {
	t.Helper()
	return NewHandler(newTestLayer(t), upstream.URL, 2*time.Second, 30*time.Second, 1<<20, zap.NewNop())
}

func TestHandler_MissThenHit(t *testing.T) {
	var hits int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Cache-Control", "max-age=60")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("hello"))
	}))
	defer upstream.Close()

	h := newTestHandler(t, upstream)

	rec1 := httptest.NewRecorder()
	h.ServeHTTP(rec1, httptest.NewRequest(http.MethodGet, "/item/1", nil))
	if rec1.Code != http.StatusOK || rec1.Body.String() != "hello" {
		t.Fatalf("first request: status=%d body=%q", rec1.Code, rec1.Body.String())
	}

	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/item/1", nil))
	if rec2.Code != http.StatusOK || rec2.Body.String() != "hello" {
		t.Fatalf("second request: status=%d body=%q", rec2.Code, rec2.Body.String())
	}
	if rec2.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("expected X-Cache: HIT on second request, got %q", rec2.Header().Get("X-Cache"))
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected exactly 1 upstream request, got %d", got)
	}
}

func TestHandler_NoStoreNeverCached(t *testing.T) {
	var hits int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("uncached"))
	}))
	defer upstream.Close()

	h := newTestHandler(t, upstream)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nostore", nil))
		if rec.Header().Get("X-Cache") != "MISS" {
			t.Fatalf("round %d: expected X-Cache: MISS for no-store response, got %q", i, rec.Header().Get("X-Cache"))
		}
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("expected 3 upstream requests for uncacheable responses, got %d", got)
	}
}

func TestHandler_ConcurrentMissesCoalesce(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		w.Header().Set("Cache-Control", "max-age=60")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("slow"))
	}))
	defer upstream.Close()

	h := newTestHandler(t, upstream)

	const n = 10
	done := make(chan *httptest.ResponseRecorder, n)
	for i := 0; i < n; i++ {
		go func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))
			done <- rec
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)

	for i := 0; i < n; i++ {
		rec := <-done
		if rec.Code != http.StatusOK || rec.Body.String() != "slow" {
			t.Fatalf("response %d: status=%d body=%q", i, rec.Code, rec.Body.String())
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected singleflight to coalesce to 1 upstream request, got %d", got)
	}
}

func TestHandler_NonGETBypassesCache(t *testing.T) {
	var hits int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer upstream.Close()

	h := newTestHandler(t, upstream)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/item/1", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if rec.Header().Get("X-Cache") != "BYPASS" {
		t.Fatalf("expected X-Cache: BYPASS for POST, got %q", rec.Header().Get("X-Cache"))
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected exactly 1 upstream request, got %d", got)
	}
}

func TestHandler_UpstreamDownReturnsBadGateway(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	upstreamURL := upstream.URL
	upstream.Close() // immediately dead: connection refused on every request

	h := NewHandler(newTestLayer(t), upstreamURL, 200*time.Millisecond, 30*time.Second, 1<<20, zap.NewNop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 when upstream is unreachable, got %d", rec.Code)
	}
}
