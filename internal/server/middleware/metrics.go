package middleware

import (
	"net/http"
	"time"

	"github.com/jwp-tools/jwpedit/internal/metrics"
)

// Metrics records request counts and latency. Routes are labelled by the
// ServeMux pattern that matched; unmatched paths share one label.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := Wrap(w)
			next.ServeHTTP(wrapped, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(route, r.Method, wrapped.Status(), time.Since(start))
		})
	}
}
