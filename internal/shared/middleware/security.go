package middleware

import (
	"net"
	"net/http"
	"strings"
)

// SecurityHeaders sets conservative response headers for a JSON API.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// AllowedHosts rejects requests whose Host header is not in the allowlist,
// guarding against Host header poisoning behind a misconfigured proxy.
// An empty allowlist disables the check.
func AllowedHosts(hosts []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isHostAllowed(r.Host, hosts) {
				http.Error(w, "Invalid host", http.StatusBadRequest)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isHostAllowed(host string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}

	host = strings.ToLower(strings.TrimSpace(host))
	bare, _, err := net.SplitHostPort(host)
	if err != nil {
		bare = host
	}

	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		abare := a
		if idx := strings.Index(a, ":"); idx != -1 {
			abare = a[:idx]
		}
		if host == a || bare == abare {
			return true
		}
	}
	return false
}
