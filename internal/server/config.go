package server

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jwp-tools/jwpedit/internal/server/session"
	"github.com/jwp-tools/jwpedit/pkg/errors"
)

// Config is the listener and API surface of the editor service. The store
// and identity settings live on the application, not here.
type Config struct {
	Host       string
	Port       int
	PathPrefix string // every API route hangs below it, e.g. /api/v1

	// CORS for a browser front-end served from another origin. An empty
	// origin list with CORSEnabled allows every origin.
	CORSEnabled bool
	CORSOrigins []string

	// AdminPassword unlocks the admin endpoints. Empty disables them.
	AdminPassword string

	// SessionTTL is the idle lifetime of a stakeholder session, and so of
	// the snapshot a save is reconciled against.
	SessionTTL time.Duration

	RateLimit int // requests per minute per IP, 0 disables

	ReadTimeout  time.Duration
	WriteTimeout time.Duration // SSE streams clear it per connection
	IdleTimeout  time.Duration

	MetricsEnabled bool
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Host:           "localhost",
		Port:           8080,
		PathPrefix:     "/api/v1",
		CORSOrigins:    []string{},
		SessionTTL:     session.DefaultTTL,
		RateLimit:      100,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MetricsEnabled: true,
	}
}

// Validate reports the first setting the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Port < 1 || c.Port > 65535:
		return errors.NewValidationError("port", c.Port, "must be between 1 and 65535")
	case c.PathPrefix != "" && (!strings.HasPrefix(c.PathPrefix, "/") || strings.HasSuffix(c.PathPrefix, "/")):
		return errors.NewValidationError("prefix", c.PathPrefix, "must start with / and not end with /")
	case c.SessionTTL <= 0:
		return errors.NewValidationError("session_ttl", c.SessionTTL, "must be positive")
	case c.RateLimit < 0:
		return errors.NewValidationError("rate_limit", c.RateLimit, "must not be negative")
	}
	return nil
}

// Addr is the host:port the listener binds.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// HTTPServer builds the listener for handler with the configured timeouts.
func (c Config) HTTPServer(handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         c.Addr(),
		Handler:      handler,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
		IdleTimeout:  c.IdleTimeout,
	}
}

// String summarises the config for startup logs without the password.
func (c Config) String() string {
	return fmt.Sprintf("addr=%s prefix=%s cors=%t rate_limit=%d session_ttl=%s metrics=%t admin=%t",
		c.Addr(), c.PathPrefix, c.CORSEnabled, c.RateLimit, c.SessionTTL, c.MetricsEnabled, c.AdminPassword != "")
}
