// Package server normalizes and validates HTTP origins for WebSocket upgrade
// requests to enforce the configured allow-list.
package server

import (
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/lo"
)

// normalizeOrigins canonicalizes the configured allow-list, dropping blanks and
// unparseable entries. A bare "*" switches the gate to allow-all instead of
// contributing an entry.
func normalizeOrigins(origins []string) ([]string, bool) {
	trimmed := lo.FilterMap(origins, func(origin string, _ int) (string, bool) {
		origin = strings.TrimSpace(origin)
		return origin, origin != ""
	})
	allowAll := lo.Contains(trimmed, "*")

	normalized := lo.FilterMap(trimmed, func(origin string, _ int) (string, bool) {
		if origin == "*" {
			return "", false
		}
		canonical, ok := normalizeOrigin(origin)
		if !ok {
			log.Printf("Ignoring invalid origin in configuration: %q", origin)
		}
		return canonical, ok
	})

	return normalized, allowAll
}

// normalizeOrigin reduces an origin to lowercase scheme://host. Anything
// missing either part is rejected.
func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme + "://" + parsed.Host), true
}

func isOriginAllowed(r *http.Request) bool {
	canonical, ok := normalizeOrigin(r.Header.Get("Origin"))
	if !ok {
		return false
	}

	configMu.RLock()
	defer configMu.RUnlock()

	if allowAllOrigins {
		return true
	}
	_, exists := allowedOrigins[canonical]
	return exists
}

func checkOrigin(r *http.Request) bool {
	if isOriginAllowed(r) {
		return true
	}
	log.Printf("Blocked WebSocket connection from disallowed origin: %q", r.Header.Get("Origin"))
	return false
}
