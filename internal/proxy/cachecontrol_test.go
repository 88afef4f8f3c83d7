package proxy

import (
	"testing"
	"time"
)

func TestParseCacheControl(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		header     string
		defaultTTL time.Duration
		wantCache  bool
		wantTTL    time.Duration
	}{
		{"empty uses default", "", 30 * time.Second, true, 30 * time.Second},
		{"no-store forbids caching", "no-store", 30 * time.Second, false, 0},
		{"no-cache forbids caching", "no-cache", 30 * time.Second, false, 0},
		{"private forbids caching", "private", 30 * time.Second, false, 0},
		{"max-age sets ttl", "max-age=60", 30 * time.Second, true, 60 * time.Second},
		{"s-maxage wins over max-age", "max-age=60, s-maxage=120", 30 * time.Second, true, 120 * time.Second},
		{"public with max-age", "public, max-age=5", 30 * time.Second, true, 5 * time.Second},
		{"malformed max-age falls back to default", "max-age=notanumber", 30 * time.Second, true, 30 * time.Second},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := parseCacheControl(tc.header, tc.defaultTTL)
			if got.cacheable != tc.wantCache || got.ttl != tc.wantTTL {
				t.Fatalf("parseCacheControl(%q) = %+v, want cacheable=%v ttl=%v",
					tc.header, got, tc.wantCache, tc.wantTTL)
			}
		})
	}
}

func TestIsHopByHop(t *testing.T) {
	t.Parallel()
	if !isHopByHop("Connection") || !isHopByHop("transfer-encoding") {
		t.Fatal("Connection and Transfer-Encoding must be treated as hop-by-hop")
	}
	if isHopByHop("Content-Type") {
		t.Fatal("Content-Type must not be treated as hop-by-hop")
	}
}
