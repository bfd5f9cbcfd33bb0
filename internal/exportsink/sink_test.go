package exportsink

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	loc, err := FileSink{Dir: dir}.Put(context.Background(), "exports/jwp.csv", strings.NewReader("a,b\n"), "text/csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "exports", "jwp.csv"), loc)

	data, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	loc, err = FileSink{Dir: dir}.Put(context.Background(), "../escape.csv", strings.NewReader("x"), "text/csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escape.csv"), loc)
}

func TestS3Sink(t *testing.T) {
	var (
		mu   sync.Mutex
		got  *http.Request
		body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		got, body = r, string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink, err := NewS3(context.Background(), S3Config{
		Bucket:          "reports",
		Endpoint:        srv.URL,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
	})
	require.NoError(t, err)

	loc, err := sink.Put(context.Background(), "jwp_full_updated.csv", strings.NewReader("Outcome\nO1\n"), "text/csv")
	require.NoError(t, err)
	assert.Equal(t, "s3://reports/jwp_full_updated.csv", loc)

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, got)
	assert.Equal(t, http.MethodPut, got.Method)
	assert.Equal(t, "/reports/jwp_full_updated.csv", got.URL.Path)
	assert.Equal(t, "text/csv", got.Header.Get("Content-Type"))
	assert.Equal(t, "Outcome\nO1\n", body)
}

func TestNewS3RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{})
	assert.Error(t, err)
}
