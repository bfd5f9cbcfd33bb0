package handlers

import (
	"net/http"

	"github.com/jwp-tools/jwpedit/internal/server/response"
)

// HandleHealth handles GET /api/v1/health.
// @Summary Health check
// @Description Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Router /api/v1/health [get].
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "jwpedit-api",
		"version": h.app.Version(),
	})
}

// HandleReady handles GET /api/v1/ready.
// @Summary Readiness check
// @Description Reports ready once the Master Data sheet can be read.
// @Tags health
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Failure 503 {object} response.Response{error=response.Error}
// @Router /api/v1/ready [get].
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	client, err := h.app.Client(r.Context())
	if err != nil {
		response.ServiceUnavailable(w, "Store not configured")
		return
	}
	table, err := client.Load(r.Context())
	if err != nil {
		h.log(r).Warn().Err(err).Msg("Readiness check failed")
		response.ServiceUnavailable(w, "Master data not available")
		return
	}

	response.OK(w, map[string]any{
		"status":      "ready",
		"rows":        table.Len(),
		"cache":       client.CacheStats(),
		"sessions":    h.sessions.Count(),
		"sse_clients": h.sseBroadcaster.ClientCount(),
	})
}
