package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// TestLogger records JSON log lines for assertions. It is safe to log from
// background goroutines, such as the SSE broadcaster, while a test reads.
type TestLogger struct {
	*zerolog.Logger

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewTestLogger returns a trace-level TestLogger. The global level is
// restored when the test ends.
func NewTestLogger(t testing.TB) *TestLogger {
	t.Helper()

	old := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(old) })

	tl := &TestLogger{}
	logger := zerolog.New(tl).Level(zerolog.TraceLevel).With().Timestamp().Logger()
	tl.Logger = &logger
	return tl
}

// Write implements io.Writer for the wrapped logger.
func (tl *TestLogger) Write(p []byte) (int, error) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.buf.Write(p)
}

func (tl *TestLogger) text() string {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.buf.String()
}

// Contains reports whether any captured line contains substr.
func (tl *TestLogger) Contains(substr string) bool {
	return strings.Contains(tl.text(), substr)
}

// Entries decodes every captured line. Lines that are not JSON are skipped.
func (tl *TestLogger) Entries() []map[string]any {
	var out []map[string]any
	sc := bufio.NewScanner(strings.NewReader(tl.text()))
	for sc.Scan() {
		var e map[string]any
		if json.Unmarshal(sc.Bytes(), &e) == nil {
			out = append(out, e)
		}
	}
	return out
}

// Messages returns the messages logged at level, in order.
func (tl *TestLogger) Messages(level zerolog.Level) []string {
	var out []string
	for _, e := range tl.Entries() {
		if e[zerolog.LevelFieldName] == level.String() {
			msg, _ := e[zerolog.MessageFieldName].(string)
			out = append(out, msg)
		}
	}
	return out
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}
