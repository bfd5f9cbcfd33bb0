package handlers

import (
	"net/http"
	"time"
)

// HandleSSE handles Server-Sent Events at /api/v1/updates/stream.
// @Summary SSE updates stream
// @Description Server-Sent Events stream of rows.updated notifications
// @Tags updates
// @Produce text/event-stream
// @Success 200 "Event stream"
// @Security SessionAuth
// @Router /api/v1/updates/stream [get].
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	// Streams outlive the server write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.log(r).Debug().Err(err).Msg("Write deadline not cleared")
	}
	h.sseBroadcaster.ServeHTTP(w, r)
}
