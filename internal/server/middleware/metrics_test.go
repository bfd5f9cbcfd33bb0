package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jwp-tools/jwpedit/internal/metrics"
)

func TestMetrics(t *testing.T) {
	m := metrics.New(nil)
	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/health", okHandler())
	h := Metrics(m)(mux)

	for _, path := range []string{"/api/v1/health", "/api/v1/health", "/random/1", "/random/2"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	count, err := testutil.GatherAndCount(m.Registry(), "jwpedit_http_requests_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, count, "one series for the route and one for unmatched paths")
}
