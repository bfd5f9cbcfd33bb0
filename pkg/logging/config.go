package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config describes a jwpedit logger. Zero values pick the defaults: info
// level, console output on a terminal and JSON otherwise, written to stderr.
type Config struct {
	Level  string // trace, debug, info, warn(ing), error, off
	Format string // json, console or auto
	Output string // stderr, stdout, discard or a file path

	NoColor   bool
	AddCaller bool

	// Service and Version are stamped on every line so logs from the CLI
	// and the API server can be told apart when shipped together.
	Service string
	Version string
}

// NewLoggerFromConfig builds a logger and makes its level the global one.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = &Config{}
	}

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	ctx := zerolog.New(writerFor(cfg)).Level(level).With().Timestamp()
	if cfg.AddCaller || level <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	if cfg.Version != "" {
		ctx = ctx.Str("version", cfg.Version)
	}
	return ctx.Logger()
}

// openOutput resolves Output. A file that cannot be opened falls back to
// stderr so a bad LOG_OUTPUT never hides errors.
func openOutput(output string) io.Writer {
	switch strings.ToLower(output) {
	case "", "stderr":
		return os.Stderr
	case "stdout":
		return os.Stdout
	case "discard", "none":
		return io.Discard
	}
	file, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return os.Stderr
	}
	return file
}

func writerFor(cfg *Config) io.Writer {
	out := openOutput(cfg.Output)

	console := false
	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
		console = true
	case "", "auto":
		f, ok := out.(*os.File)
		console = ok && f == os.Stderr && isTerminal(f)
	}
	if !console {
		return out
	}
	// Console timestamps use the sheet's layout so log lines and Last
	// Updated cells read the same.
	return zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime, NoColor: cfg.NoColor}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "":
		return zerolog.InfoLevel
	case "warning":
		return zerolog.WarnLevel
	case "disabled", "none", "off":
		return zerolog.Disabled
	}
	if l, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil {
		return l
	}
	return zerolog.InfoLevel
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
