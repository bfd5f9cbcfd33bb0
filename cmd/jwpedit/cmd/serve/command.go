// Package serve provides the command that runs the jwpedit HTTP API.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jwp-tools/jwpedit/cmd/application"
	"github.com/jwp-tools/jwpedit/internal/server"
)

// shutdownTimeout bounds connection draining after a stop signal.
const shutdownTimeout = 30 * time.Second

// NewCommand creates the serve command. defaults is called at run time and
// supplies values flags do not override.
func NewCommand(app application.Application, defaults func() server.Config) *cobra.Command {
	base := server.DefaultConfig()

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "core",
		Short:   "Start the REST API server",
		Long: `Start the jwpedit REST API.

Stakeholders sign in with name, email and agency, list the rows of their
agency and save edits. Admin endpoints (X-Admin-Key) list every row, read
the audit log and download CSV exports. Saved changes are pushed to
connected clients over Server-Sent Events (/api/v1/updates/stream).`,
		Example: `  # Start on default port 8080
  jwpedit serve

  # Listen on all interfaces and allow a browser front-end
  jwpedit serve --host 0.0.0.0 --cors-origins https://jwp.example.org

  # Disable rate limiting
  jwpedit serve --rate-limit 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := defaults()
			applyFlags(cmd, &cfg)
			cfg.AdminPassword = app.AdminPassword()
			return runServer(cmd.Context(), app, cfg)
		},
	}

	cmd.Flags().Int("port", base.Port, "Server port (env HTTP_PORT)")
	cmd.Flags().String("host", base.Host, "Bind address (env HTTP_HOST)")
	cmd.Flags().String("prefix", base.PathPrefix, "API path prefix")
	cmd.Flags().Bool("cors", false, "Enable CORS for all origins")
	cmd.Flags().StringSlice("cors-origins", nil, "Allowed CORS origins (comma-separated)")
	cmd.Flags().Int("rate-limit", base.RateLimit, "Requests per minute per IP (0 to disable)")
	cmd.Flags().Duration("session-ttl", 0, "Idle session lifetime (default from session.ttl)")
	cmd.Flags().Duration("read-timeout", base.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", base.WriteTimeout, "HTTP write timeout")
	cmd.Flags().Duration("idle-timeout", base.IdleTimeout, "HTTP idle timeout")
	cmd.Flags().Bool("metrics", base.MetricsEnabled, "Expose Prometheus metrics on /metrics")

	return cmd
}

// applyFlags copies explicitly set flags and environment overrides onto cfg.
func applyFlags(cmd *cobra.Command, cfg *server.Config) {
	flags := cmd.Flags()
	cfg.Port = mustGetInt(cmd, "port")
	cfg.Host = mustGetString(cmd, "host")
	cfg.PathPrefix = mustGetString(cmd, "prefix")
	cfg.RateLimit = mustGetInt(cmd, "rate-limit")
	cfg.ReadTimeout = mustGetDuration(cmd, "read-timeout")
	cfg.WriteTimeout = mustGetDuration(cmd, "write-timeout")
	cfg.IdleTimeout = mustGetDuration(cmd, "idle-timeout")
	cfg.MetricsEnabled = mustGetBool(cmd, "metrics")

	if origins := mustGetStringSlice(cmd, "cors-origins"); len(origins) > 0 {
		cfg.CORSEnabled = true
		cfg.CORSOrigins = origins
	}
	if mustGetBool(cmd, "cors") {
		cfg.CORSEnabled = true
	}
	if ttl := mustGetDuration(cmd, "session-ttl"); ttl > 0 {
		cfg.SessionTTL = ttl
	}

	if env := os.Getenv("HTTP_PORT"); env != "" && !flags.Changed("port") {
		if p, err := parsePort(env); err == nil {
			cfg.Port = p
		}
	}
	if env := os.Getenv("HTTP_HOST"); env != "" && !flags.Changed("host") {
		cfg.Host = env
	}
}

// runServer starts the API server and blocks until ctx is cancelled or the
// listener fails.
func runServer(ctx context.Context, app application.Application, cfg server.Config) error {
	logger := app.Logger()

	srv, err := server.New(app, cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Start()

	httpServer := cfg.HTTPServer(srv.Handler())

	logger.Info().
		Str("addr", httpServer.Addr).
		Str("prefix", cfg.PathPrefix).
		Bool("cors", cfg.CORSEnabled).
		Int("rate_limit", cfg.RateLimit).
		Dur("session_ttl", cfg.SessionTTL).
		Bool("metrics", cfg.MetricsEnabled).
		Msg("Starting API server")

	return startWithGracefulShutdown(ctx, httpServer, srv, logger)
}

// startWithGracefulShutdown serves until ctx is cancelled, then drains
// connections and stops the background services.
func startWithGracefulShutdown(ctx context.Context, httpServer *http.Server, srv *server.Server, logger *zerolog.Logger) error {
	serverErr := make(chan error, 1)

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErr:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return err
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")

		// The parent context is already cancelled.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Stop background services first so SSE streams end and the HTTP
		// server can drain.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Background services shutdown had issues")
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

// parsePort safely parses a port string to integer.
func parsePort(portStr string) (int, error) {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number: %s", portStr)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port out of range: %d", port)
	}
	return port, nil
}

func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

func mustGetStringSlice(cmd *cobra.Command, name string) []string {
	val, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

func mustGetDuration(cmd *cobra.Command, name string) time.Duration {
	val, err := cmd.Flags().GetDuration(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}
