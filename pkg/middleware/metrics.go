package middleware

import (
	"net/http"

	"harborline/breakwater/pkg/telemetry/metrics"
)

// MetricsMiddleware counts completed responses by status code.
func MetricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)
			m.RecordHTTPRequest(rw.statusCode)
		})
	}
}
