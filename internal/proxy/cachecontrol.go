package proxy

import (
	"strconv"
	"strings"
	"time"
)

// cacheControlDecision is the outcome of parsing a response's
// Cache-Control header: whether the response may be cached at all, and
// for how long.
type cacheControlDecision struct {
	cacheable bool
	ttl       time.Duration
}

// parseCacheControl applies the standard response cacheability rule:
// no-store/no-cache/private forbid caching outright (the decision then
// carries a zero ttl); s-maxage takes
// precedence over max-age when both are present; absent either, the
// caller's defaultTTL applies.
func parseCacheControl(header string, defaultTTL time.Duration) cacheControlDecision {
	decision := cacheControlDecision{cacheable: true, ttl: defaultTTL}
	if header == "" {
		return decision
	}

	var maxAge, sMaxAge *time.Duration
	for _, rawDirective := range strings.Split(header, ",") {
		directive := strings.TrimSpace(rawDirective)
		lower := strings.ToLower(directive)

		switch {
		case lower == "no-store", lower == "no-cache", lower == "private":
			return cacheControlDecision{cacheable: false}
		case strings.HasPrefix(lower, "max-age="):
			if d, ok := parseAgeSeconds(directive[len("max-age="):]); ok {
				maxAge = &d
			}
		case strings.HasPrefix(lower, "s-maxage="):
			if d, ok := parseAgeSeconds(directive[len("s-maxage="):]); ok {
				sMaxAge = &d
			}
		}
	}

	switch {
	case sMaxAge != nil:
		decision.ttl = *sMaxAge
	case maxAge != nil:
		decision.ttl = *maxAge
	}
	return decision
}

func parseAgeSeconds(s string) (time.Duration, bool) {
	secs, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// hopByHopHeaders are stripped from upstream responses before caching or
// forwarding: they describe the connection to the immediate upstream, not
// the resource, and must not be replayed to a different downstream client.
var hopByHopHeaders = []string{"Transfer-Encoding", "Connection"}

func isHopByHop(name string) bool {
	for _, h := range hopByHopHeaders {
		if strings.EqualFold(h, name) {
			return true
		}
	}
	return false
}
