// Package app provides the application context and dependency management
// for the jwpedit CLI: configuration, logging, and a lazily opened store
// and client shared by every command.
package app

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwp-tools/jwpedit"
	"github.com/jwp-tools/jwpedit/cmd/application"
	"github.com/jwp-tools/jwpedit/pkg/errors"
	"github.com/jwp-tools/jwpedit/pkg/tabular"
)

var _ application.Application = (*App)(nil)

// App holds the jwpedit dependencies for one process.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// openStore is replaceable for tests.
	openStore func(ctx context.Context) (tabular.Store, error)
	clock     func() time.Time

	// stdout and stderr override the command streams when set.
	stdout, stderr io.Writer

	mu     sync.RWMutex
	store  tabular.Store
	client jwpedit.Client

	warnOnce sync.Once
}

// New creates a new App instance with the given version information.
// Configuration is loaded immediately; the store is opened on first use.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}
	app.openStore = app.openConfiguredStore

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.config == nil {
		config, err := LoadConfig("")
		if err != nil {
			return nil, err
		}
		app.config = config
	}
	if app.logger == nil {
		logger := NewLogger(app.config)
		app.logger = &logger
	}
	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// OutputFormat returns the --format value or the configured default.
func (a *App) OutputFormat() string { return a.config.Format }

// AdminPassword returns the admin key. The first call warns when the
// built-in default is in use.
func (a *App) AdminPassword() string {
	if a.config.AdminPasswordDefaulted {
		a.warnOnce.Do(func() {
			a.logger.Warn().Msg("Using the default admin password; set ADMIN_PASSWORD or admin.password")
		})
	}
	return a.config.AdminPassword
}

// Client returns the editor client, opening the store on first use.
// Concurrent callers share one instance.
func (a *App) Client(ctx context.Context) (jwpedit.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		return a.client, nil
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	opts := []jwpedit.Option{
		jwpedit.WithCacheTTL(a.config.CacheTTL),
		jwpedit.WithLogger(a.logger),
	}
	if a.config.Timezone != "" {
		opts = append(opts, jwpedit.WithTimezone(a.config.Timezone))
	}
	if a.clock != nil {
		opts = append(opts, jwpedit.WithClock(a.clock))
	}
	client, err := jwpedit.New(store, opts...)
	if err != nil {
		_ = tabular.Close(store)
		return nil, errors.NewConfigError("client", "create client", err)
	}

	a.store = store
	a.client = client
	return client, nil
}

// Shutdown releases the store. It is safe to call more than once.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	store := a.store
	a.store, a.client = nil, nil
	a.mu.Unlock()

	if store == nil {
		return nil
	}
	if err := tabular.Close(store); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close store during shutdown")
		return err
	}
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if err := config.Validate(); err != nil {
			return err
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithStore uses store instead of opening the configured driver.
func WithStore(store tabular.Store) Option {
	return func(a *App) error {
		a.openStore = func(context.Context) (tabular.Store, error) { return store, nil }
		return nil
	}
}

// WithClock fixes the time used for Last Updated and audit timestamps.
func WithClock(clock func() time.Time) Option {
	return func(a *App) error {
		a.clock = clock
		return nil
	}
}

// WithOutput redirects command output and messages.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *App) error {
		a.stdout, a.stderr = stdout, stderr
		return nil
	}
}
