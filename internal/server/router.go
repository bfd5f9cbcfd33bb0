package server

import (
	"net/http"

	"github.com/jwp-tools/jwpedit/internal/server/handlers"
	"github.com/jwp-tools/jwpedit/internal/server/middleware"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	h := handlers.New(
		s.app,
		s.sessions,
		s.broker,
		s.sseBroadcaster,
		s.metrics,
		s.logger,
	)

	s.registerRoutes(mux, h)
	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := s.config.PathPrefix
	withSession := middleware.RequireSession(s.sessions)
	admin := middleware.AdminAuth(s.config.AdminPassword, s.logger)

	// Favicon handler (return 204 No Content to avoid 404 logs)
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Public health endpoints
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/ready", h.HandleReady)

	// Sessions
	mux.HandleFunc("POST "+prefix+"/sessions", h.HandleCreateSession)
	mux.Handle("GET "+prefix+"/sessions", withSession(http.HandlerFunc(h.HandleGetSession)))
	mux.Handle("DELETE "+prefix+"/sessions", withSession(http.HandlerFunc(h.HandleDeleteSession)))

	// Agency-scoped rows
	mux.Handle("GET "+prefix+"/rows", withSession(http.HandlerFunc(h.HandleListRows)))
	mux.Handle("PUT "+prefix+"/rows", withSession(http.HandlerFunc(h.HandleSaveRows)))

	// Admin endpoints
	mux.Handle("GET "+prefix+"/admin/rows", admin(http.HandlerFunc(h.HandleAdminRows)))
	mux.Handle("GET "+prefix+"/admin/audit", admin(http.HandlerFunc(h.HandleAdminAudit)))
	mux.Handle("GET "+prefix+"/admin/export.csv", admin(http.HandlerFunc(h.HandleAdminExport)))
	mux.Handle("GET "+prefix+"/admin/audit.csv", admin(http.HandlerFunc(h.HandleAdminAuditExport)))
	mux.Handle("GET "+prefix+"/admin/stats", admin(http.HandlerFunc(h.HandleStats)))
	mux.Handle("POST "+prefix+"/admin/cache/invalidate", admin(http.HandlerFunc(h.HandleInvalidateCache)))

	// Real-time endpoints
	mux.Handle("GET "+prefix+"/updates/stream", withSession(http.HandlerFunc(h.HandleSSE)))

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// applyMiddleware wraps handler with middleware chain, outermost first.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.Logger(s.logger),
	}
	if s.metrics != nil {
		chain = append(chain, middleware.Metrics(s.metrics))
	}
	if s.config.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(s.config.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = s.config.CORSOrigins
		}
		chain = append(chain, middleware.CORS(corsConfig))
	}
	if s.rateLimiter != nil {
		chain = append(chain, middleware.RateLimit(s.rateLimiter))
	}
	return middleware.Chain(chain...)(handler)
}
