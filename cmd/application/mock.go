package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jwp-tools/jwpedit"
)

var _ Application = (*Mock)(nil)

// Mock is a configurable Application for tests. Nil funcs fall back to
// zero values and a no-op logger.
type Mock struct {
	ClientFunc         func(ctx context.Context) (jwpedit.Client, error)
	LoggerFunc         func() *zerolog.Logger
	OutputFormatValue  string
	AdminPasswordValue string
	VersionValue       string
}

// Client implements Application.
func (m *Mock) Client(ctx context.Context) (jwpedit.Client, error) {
	if m.ClientFunc == nil {
		return nil, context.Canceled
	}
	return m.ClientFunc(ctx)
}

// Logger implements Application.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	l := zerolog.Nop()
	return &l
}

// OutputFormat implements Application.
func (m *Mock) OutputFormat() string { return m.OutputFormatValue }

// AdminPassword implements Application.
func (m *Mock) AdminPassword() string { return m.AdminPasswordValue }

// Version implements Application.
func (m *Mock) Version() string { return m.VersionValue }

// Commit implements Application.
func (m *Mock) Commit() string { return "" }

// Date implements Application.
func (m *Mock) Date() string { return "" }

// BuiltBy implements Application.
func (m *Mock) BuiltBy() string { return "" }
