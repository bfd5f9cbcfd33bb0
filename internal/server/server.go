// Package server provides the HTTP API for the jwpedit editor.
package server

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwp-tools/jwpedit"
	"github.com/jwp-tools/jwpedit/cmd/application"
	"github.com/jwp-tools/jwpedit/internal/metrics"
	"github.com/jwp-tools/jwpedit/internal/server/events"
	"github.com/jwp-tools/jwpedit/internal/server/events/adapters"
	"github.com/jwp-tools/jwpedit/internal/server/middleware"
	"github.com/jwp-tools/jwpedit/internal/server/session"
	"github.com/jwp-tools/jwpedit/internal/server/sse"
	"github.com/jwp-tools/jwpedit/pkg/masterdata"
	"github.com/jwp-tools/jwpedit/pkg/reconcile"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	app            application.Application
	client         jwpedit.Client
	sessions       *session.Store
	broker         *events.Broker
	sseBroadcaster *sse.Broadcaster
	rateLimiter    *middleware.RateLimiter
	metrics        *metrics.Metrics
	logger         *zerolog.Logger
	config         Config
	ctx            context.Context
	cancel         context.CancelFunc
	done           chan struct{}
	started        atomic.Bool
	startTime      time.Time
}

// New creates a server. It opens the application's client so a
// misconfigured store fails here rather than on the first request.
func New(app application.Application, cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := app.Logger()
	logger.Debug().Stringer("config", cfg).Msg("Creating new server instance")

	client, err := app.Client(context.Background())
	if err != nil {
		return nil, err
	}

	broker := events.NewBroker(logger)
	sseBroadcaster := sse.NewBroadcaster(logger)
	broker.Subscribe(adapters.NewSSESubscriber(sseBroadcaster))
	sseBroadcaster.OnConnect = func(clients int) {
		broker.Publish(events.ClientConnected, map[string]any{"sse_clients": clients})
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		app:            app,
		client:         client,
		sessions:       session.NewStore(cfg.SessionTTL),
		broker:         broker,
		sseBroadcaster: sseBroadcaster,
		logger:         logger,
		config:         cfg,
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
		startTime:      time.Now(),
	}
	if cfg.RateLimit > 0 {
		s.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit, logger)
	}
	if cfg.MetricsEnabled {
		s.metrics = metrics.New(func() (int64, int64, int) {
			st := client.CacheStats()
			return st.Hits, st.Misses, st.Entries
		})
	}
	if cfg.AdminPassword == "" {
		logger.Warn().Msg("No admin password configured; admin endpoints are locked")
	}

	s.connectHooks()
	logger.Debug().Msg("Server instance created successfully")
	return s, nil
}

// connectHooks publishes client save notifications to the broker.
func (s *Server) connectHooks() {
	s.client.OnRowsUpdated(func(id masterdata.Identity, changes []reconcile.Change) {
		if len(changes) == 0 {
			return
		}
		data := events.RowsUpdatedData{
			Agency:    id.Agency.String(),
			Editor:    id.Name,
			Ordinals:  make([]int, len(changes)),
			Timestamp: masterdata.FormatTimestamp(&changes[0].Timestamp),
		}
		for i, c := range changes {
			data.Ordinals[i] = c.Ordinal
			if c.Action == reconcile.ActionPartiallyEdited {
				data.Partial = true
			}
		}
		s.broker.Publish(events.RowsUpdated, data)
		s.logger.Debug().
			Str("agency", data.Agency).
			Ints("ordinals", data.Ordinals).
			Msg("Rows updated event published")
	})
}

// Start starts background services. Later calls are no-ops.
func (s *Server) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	s.logger.Debug().Msg("Starting background services")

	services := []func(context.Context){s.broker.Run, s.sseBroadcaster.Run}
	if s.rateLimiter != nil {
		services = append(services, s.rateLimiter.Run)
	}

	remaining := make(chan struct{}, len(services))
	for _, run := range services {
		go func() {
			run(s.ctx)
			remaining <- struct{}{}
		}()
	}
	go func() {
		for range services {
			<-remaining
		}
		close(s.done)
	}()
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Shutdown stops background services, waiting until they exit or ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")
	s.cancel()
	if !s.started.Load() {
		return nil
	}

	select {
	case <-s.done:
		s.logger.Info().Msg("Background services shut down successfully")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Background services shutdown timed out")
		return ctx.Err()
	}
}

// Sessions returns the session store.
func (s *Server) Sessions() *session.Store {
	return s.sessions
}

// Broker returns the event broker for publishing events.
func (s *Server) Broker() *events.Broker {
	return s.broker
}

// SSEBroadcaster returns the SSE broadcaster.
func (s *Server) SSEBroadcaster() *sse.Broadcaster {
	return s.sseBroadcaster
}

// Metrics returns the metrics set, or nil when disabled.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
