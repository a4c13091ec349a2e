package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Telemetry creates a server span per request via otelhttp. Health and
// metrics probes are filtered out so traces carry only API traffic.
func Telemetry(next http.Handler) http.Handler {
	return otelhttp.NewMiddleware("obligo-api",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/metrics"
		}),
	)(next)
}
