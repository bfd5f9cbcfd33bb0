package gsheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwp-tools/jwpedit/pkg/errors"
)

type request struct {
	Method string
	Path   string
	Query  string
	Body   string
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []request
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, request{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(body)})
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/drive/v3/files":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"files": []map[string]string{{"id": "sheet-123", "name": "JWP_Master"}},
			})
		case strings.Contains(r.URL.Path, "'Audit Log'"):
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"code":400,"message":"Unable to parse range: 'Audit Log'","status":"INVALID_ARGUMENT"}}`)
		case strings.Contains(r.URL.Path, "'Broken'"):
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":{"code":500,"message":"backend error"}}`)
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"range":          "'Master Data'!A1:H3",
				"majorDimension": "ROWS",
				"values":         [][]any{{"Outcome", "Agency"}, {"O1", "UNDP", 1500}, {}},
			})
		default:
			_, _ = io.WriteString(w, `{}`)
		}
	})
}

func (f *fakeAPI) last() request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func openFake(t *testing.T, cfg Config) (*Store, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	cfg.HTTPClient = srv.Client()
	cfg.SheetsEndpoint = srv.URL + "/"
	cfg.DriveEndpoint = srv.URL + "/drive/v3/"
	s, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	return s, api
}

func TestOpenResolvesByName(t *testing.T) {
	s, api := openFake(t, Config{})
	assert.Equal(t, "sheet-123", s.SpreadsheetID())
	assert.Contains(t, api.last().Query, "JWP_Master")
}

func TestOpenByID(t *testing.T) {
	s, api := openFake(t, Config{SpreadsheetID: "given"})
	assert.Equal(t, "given", s.SpreadsheetID())
	assert.Empty(t, api.requests)
}

func TestValues(t *testing.T) {
	s, api := openFake(t, Config{SpreadsheetID: "sid"})

	values, err := s.Values(context.Background(), "Master Data")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Outcome", "Agency"}, {"O1", "UNDP", "1500"}, {}}, values)

	req := api.last()
	assert.Equal(t, "/v4/spreadsheets/sid/values/'Master Data'", req.Path)
	assert.Contains(t, req.Query, "valueRenderOption=FORMATTED_VALUE")
}

func TestUpdateCell(t *testing.T) {
	s, api := openFake(t, Config{SpreadsheetID: "sid"})

	require.NoError(t, s.UpdateCell(context.Background(), "Master Data", 5, 7, "Ongoing"))

	req := api.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/v4/spreadsheets/sid/values/'Master Data'!G5", req.Path)
	assert.Contains(t, req.Query, "valueInputOption=USER_ENTERED")
	assert.Contains(t, req.Body, `"Ongoing"`)
}

func TestAppendRow(t *testing.T) {
	s, api := openFake(t, Config{SpreadsheetID: "sid"})

	require.NoError(t, s.AppendRow(context.Background(), "Log", []string{"Ana", "ana@example.org"}))

	req := api.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.True(t, strings.HasSuffix(req.Path, ":append"))
	assert.Contains(t, req.Query, "valueInputOption=RAW")
	assert.Contains(t, req.Body, "ana@example.org")
}

func TestErrorMapping(t *testing.T) {
	s, _ := openFake(t, Config{SpreadsheetID: "sid"})
	ctx := context.Background()

	err := s.AppendRow(ctx, "Audit Log", []string{"x"})
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, errors.IsStoreUnavailable(err))

	_, err = s.Values(ctx, "Broken")
	assert.False(t, errors.IsNotFound(err))
	assert.True(t, errors.IsStoreUnavailable(err))
	var se *errors.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "read", se.Operation)
}

func TestCellText(t *testing.T) {
	assert.Equal(t, "", cellText(nil))
	assert.Equal(t, "a", cellText("a"))
	assert.Equal(t, "1500", cellText(float64(1500)))
	assert.Equal(t, "true", cellText(true))
}
