package serve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwp-tools/jwpedit/cmd/application"
	"github.com/jwp-tools/jwpedit/internal/server"
)

func TestParsePort(t *testing.T) {
	p, err := parsePort("9090")
	require.NoError(t, err)
	assert.Equal(t, 9090, p)

	for _, bad := range []string{"http", "0", "70000"} {
		_, err := parsePort(bad)
		assert.Error(t, err, bad)
	}
}

func TestApplyFlags(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("HTTP_HOST", "")

	defaults := func() server.Config {
		cfg := server.DefaultConfig()
		cfg.SessionTTL = 2 * time.Hour
		return cfg
	}
	cmd := NewCommand(&application.Mock{}, defaults)
	require.NoError(t, cmd.ParseFlags([]string{"--cors-origins", "https://a.example,https://b.example", "--rate-limit", "0"}))

	cfg := defaults()
	applyFlags(cmd, &cfg)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "localhost", cfg.Host)
	assert.True(t, cfg.CORSEnabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 0, cfg.RateLimit)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)

	require.NoError(t, cmd.ParseFlags([]string{"--port", "7000", "--session-ttl", "15m"}))
	applyFlags(cmd, &cfg)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
}
