package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jwp-tools/jwpedit/cmd/application"
	"github.com/jwp-tools/jwpedit/internal/metrics"
	"github.com/jwp-tools/jwpedit/internal/server/events"
	"github.com/jwp-tools/jwpedit/internal/server/session"
	"github.com/jwp-tools/jwpedit/internal/server/sse"
	"github.com/jwp-tools/jwpedit/pkg/errors"
	"github.com/jwp-tools/jwpedit/pkg/logging"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	app            application.Application
	sessions       *session.Store
	broker         *events.Broker
	sseBroadcaster *sse.Broadcaster
	metrics        *metrics.Metrics
	logger         *zerolog.Logger
}

// New creates a new Handlers instance. m may be nil when metrics are disabled.
func New(
	app application.Application,
	sessions *session.Store,
	broker *events.Broker,
	sseBroadcaster *sse.Broadcaster,
	m *metrics.Metrics,
	logger *zerolog.Logger,
) *Handlers {
	return &Handlers{
		app:            app,
		sessions:       sessions,
		broker:         broker,
		sseBroadcaster: sseBroadcaster,
		metrics:        m,
		logger:         logger,
	}
}

// log prefers the request-scoped logger installed by middleware.
func (h *Handlers) log(r *http.Request) *zerolog.Logger {
	if logging.RequestID(r.Context()) != "" {
		return logging.FromContext(r.Context())
	}
	return h.logger
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.WrapParse("json", "request body", err)
	}
	return nil
}

func (h *Handlers) observeSessions() {
	if h.metrics != nil {
		h.metrics.SetSessions(h.sessions.Count())
	}
}
