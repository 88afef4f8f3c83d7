// Package proxy implements the HTTP reverse-proxy request pipeline that
// fronts an upstream origin with the cache core.
package proxy

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kclaka/colander/cache"
	"github.com/kclaka/colander/internal/singleflight"
)

// Handler forwards cache misses to Upstream and serves hits out of
// Layer. Only GET requests are cache-checked; the cache key is
// "METHOD:URI".
type Handler struct {
	Layer       *cache.LayerPointer
	Upstream    *http.Client
	UpstreamURL string
	DefaultTTL  time.Duration
	MaxBody     int64
	Log         *zap.Logger

	sf singleflight.Group[string, fetchResult]
}

// fetchResult is the outcome of a (possibly coalesced) upstream fetch: a
// value to cache and serve, or just a status to forward when the
// response was not cacheable.
type fetchResult struct {
	value  *cache.CachedValue
	status int
}

// NewHandler constructs a Handler. upstreamURL is the origin's base URL
// (scheme+host); request paths are appended to it unchanged.
func NewHandler(layer *cache.LayerPointer, upstreamURL string, timeout time.Duration, defaultTTL time.Duration, maxBody int64, log *zap.Logger) *Handler {
	return &Handler{
		Layer:       layer,
		Upstream:    &http.Client{Timeout: timeout},
		UpstreamURL: upstreamURL,
		DefaultTTL:  defaultTTL,
		MaxBody:     maxBody,
		Log:         log,
	}
}

func cacheKey(r *http.Request) string {
	return r.Method + ":" + r.URL.RequestURI()
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	layer := h.Layer.Load()

	if r.Method != http.MethodGet {
		h.forwardUncached(w, r, layer)
		return
	}

	key := cacheKey(r)
	if lookup := layer.Get(key); lookup.Hit {
		h.writeCached(w, lookup.Value, "HIT", layer.PrimaryName(), layer.Mode().String())
		return
	}

	value, status, err := h.fetchAndBuild(r.Context(), key, r, layer)
	if err != nil {
		h.Log.Warn("upstream fetch failed", zap.String("key", key), zap.Error(err))
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	if value == nil {
		h.writeUncachedStatus(w, status)
		return
	}
	h.writeCached(w, value, "MISS", layer.PrimaryName(), layer.Mode().String())
}

// fetchAndBuild performs (or joins) a singleflight-coalesced upstream
// fetch for key, inserts a cacheable result into layer, and returns the
// CachedValue to serve. A nil value with a non-zero status means the
// response was fetched but judged uncacheable (the caller should forward
// the status only; the response body is not retained in that case).
// Concurrent misses for the same key are coalesced whether or not the
// response turns out cacheable; every waiter receives the leader's result.
func (h *Handler) fetchAndBuild(ctx context.Context, key string, r *http.Request, layer *cache.CacheLayer) (*cache.CachedValue, int, error) {
	res, err := h.sf.Do(ctx, key, func() (fetchResult, error) {
		// Double-check after joining: another leader may have populated
		// the cache while we waited to become leader.
		if lookup := layer.Get(key); lookup.Hit {
			return fetchResult{value: lookup.Value}, nil
		}

		req, err := http.NewRequestWithContext(ctx, r.Method, h.UpstreamURL+r.URL.RequestURI(), nil)
		if err != nil {
			return fetchResult{}, err
		}
		resp, err := h.Upstream.Do(req)
		if err != nil {
			return fetchResult{}, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, h.MaxBody+1))
		if err != nil {
			return fetchResult{}, err
		}

		decision := parseCacheControl(resp.Header.Get("Cache-Control"), h.DefaultTTL)
		if resp.StatusCode != http.StatusOK || int64(len(body)) > h.MaxBody {
			decision.cacheable = false
		}

		if !decision.cacheable {
			return fetchResult{status: resp.StatusCode}, nil
		}

		headers := make([]cache.Header, 0, len(resp.Header))
		for name, values := range resp.Header {
			if isHopByHop(name) {
				continue
			}
			for _, val := range values {
				headers = append(headers, cache.Header{Name: name, Value: val})
			}
		}

		value := layer.BuildValue(resp.StatusCode, headers, body, decision.ttl)
		layer.Insert(key, value)
		return fetchResult{value: value}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return res.value, res.status, nil
}

func (h *Handler) writeCached(w http.ResponseWriter, value *cache.CachedValue, cacheStatus, policyName, mode string) {
	for _, hdr := range value.Headers {
		w.Header().Add(hdr.Name, hdr.Value)
	}
	w.Header().Set("X-Cache", cacheStatus)
	w.Header().Set("X-Cache-Policy", policyName)
	w.Header().Set("X-Mode", mode)
	w.Header().Set("Content-Length", strconv.Itoa(len(value.Body)))
	w.WriteHeader(value.Status)
	_, _ = w.Write(value.Body)
}

func (h *Handler) writeUncachedStatus(w http.ResponseWriter, status int) {
	if status == 0 {
		status = http.StatusBadGateway
	}
	w.Header().Set("X-Cache", "MISS")
	w.WriteHeader(status)
}

// forwardUncached handles non-GET methods: always forwarded, never
// cached, never coalesced.
func (h *Handler) forwardUncached(w http.ResponseWriter, r *http.Request, layer *cache.CacheLayer) {
	var body io.Reader
	if r.Body != nil {
		buf := new(bytes.Buffer)
		_, _ = io.Copy(buf, r.Body)
		body = buf
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, h.UpstreamURL+r.URL.RequestURI(), body)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	req.Header = r.Header.Clone()

	resp, err := h.Upstream.Do(req)
	if err != nil {
		h.Log.Warn("upstream forward failed", zap.String("method", r.Method), zap.Error(err))
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for name, values := range resp.Header {
		if isHopByHop(name) {
			continue
		}
		for _, val := range values {
			w.Header().Add(name, val)
		}
	}
	w.Header().Set("X-Cache", "BYPASS")
	w.Header().Set("X-Mode", layer.Mode().String())
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}
