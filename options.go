package jwpedit

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/jwp-tools/jwpedit/internal/cache"
	"github.com/jwp-tools/jwpedit/pkg/errors"
)

// Option is a function that configures a Client.
type Option func(*config) error

type config struct {
	cacheTTL time.Duration
	clock    func() time.Time
	location *time.Location
	logger   *zerolog.Logger
}

func defaultConfig() *config {
	return &config{
		cacheTTL: cache.DefaultTTL,
		location: time.Local,
	}
}

// WithCacheTTL sets how long a loaded table is reused. Zero disables the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *config) error {
		if ttl < 0 {
			return errors.NewValidationError("cache_ttl", ttl, "must not be negative")
		}
		c.cacheTTL = ttl
		return nil
	}
}

// WithClock replaces time.Now for Last Updated and audit timestamps.
func WithClock(clock func() time.Time) Option {
	return func(c *config) error {
		c.clock = clock
		return nil
	}
}

// WithLocation sets the zone whose wall clock timestamps are written in.
func WithLocation(loc *time.Location) Option {
	return func(c *config) error {
		if loc == nil {
			return errors.NewValidationError("location", nil, "must not be nil")
		}
		c.location = loc
		return nil
	}
}

// WithTimezone is WithLocation by IANA zone name.
func WithTimezone(name string) Option {
	return func(c *config) error {
		if name == "" {
			return nil
		}
		loc, err := time.LoadLocation(name)
		if err != nil {
			return errors.NewConfigError("timezone", "unknown zone "+name, err)
		}
		c.location = loc
		return nil
	}
}

// WithLogger sets the logger. By default the logger on each call's context
// is used.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}
