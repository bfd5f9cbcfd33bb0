package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwp-tools/jwpedit"
	"github.com/jwp-tools/jwpedit/cmd/application"
	"github.com/jwp-tools/jwpedit/internal/server/events"
	"github.com/jwp-tools/jwpedit/internal/server/handlers"
	"github.com/jwp-tools/jwpedit/internal/store/memory"
	"github.com/jwp-tools/jwpedit/pkg/audit"
	"github.com/jwp-tools/jwpedit/pkg/errors"
	"github.com/jwp-tools/jwpedit/pkg/logging"
	"github.com/jwp-tools/jwpedit/pkg/masterdata"
)

const adminKey = "test-admin"

var fixedNow = time.Date(2025, 11, 3, 14, 5, 9, 0, time.UTC)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testEnv struct {
	t     *testing.T
	store *memory.Store
	srv   *Server
	http  *httptest.Server
}

func seedStore() *memory.Store {
	store := memory.New()
	store.SetSheet(masterdata.MasterSheet, [][]string{
		masterdata.DefaultLayout().Header,
		{"O1", "S1", "UNDP", "Wells", "2025-12-31", "1500", "On track", ""},
		{"O1", "S2", "WFP", "Food", "", "", "Delayed", ""},
		{"O2", "S3", "UNDP", "Training", "", "", "", ""},
		{"O2", "S4", "UNDP", "Roads", "", "42", "On track", ""},
	})
	store.SetSheet(masterdata.AuditSheet, [][]string{audit.Header})
	return store
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()
	store := seedStore()
	client, err := jwpedit.New(store,
		jwpedit.WithClock(func() time.Time { return fixedNow }),
		jwpedit.WithLocation(time.UTC),
		jwpedit.WithLogger(logging.NewNopLogger()),
	)
	require.NoError(t, err)

	app := &application.Mock{
		ClientFunc:         func(context.Context) (jwpedit.Client, error) { return client, nil },
		AdminPasswordValue: adminKey,
		VersionValue:       "test",
	}

	cfg := DefaultConfig()
	cfg.AdminPassword = adminKey
	cfg.RateLimit = 0
	if mutate != nil {
		mutate(&cfg)
	}

	srv, err := New(app, cfg)
	require.NoError(t, err)
	srv.Start()

	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hs.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return &testEnv{t: t, store: store, srv: srv, http: hs}
}

func (e *testEnv) do(method, path string, body any, headers map[string]string) (*http.Response, envelope) {
	e.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.http.URL+path, rdr)
	require.NoError(e.t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(e.t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp, env
}

func (e *testEnv) signIn(name, email, agency string) string {
	e.t.Helper()
	resp, env := e.do(http.MethodPost, "/api/v1/sessions", handlers.SignInRequest{Name: name, Email: email, Agency: agency}, nil)
	require.Equal(e.t, http.StatusCreated, resp.StatusCode)
	var sess handlers.SessionResponse
	require.NoError(e.t, json.Unmarshal(env.Data, &sess))
	require.NotEmpty(e.t, sess.Token)
	return sess.Token
}

func auth(token string) map[string]string {
	return map[string]string{"X-Session-Token": token}
}

func TestServerInitialization(t *testing.T) {
	done := make(chan struct{})
	go func() {
		newTestEnv(t, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server setup deadlocked")
	}
}

func TestNewFailsWithoutClient(t *testing.T) {
	_, err := New(&application.Mock{}, DefaultConfig())
	assert.Error(t, err)
}

func TestShutdownWithoutStart(t *testing.T) {
	app := &application.Mock{ClientFunc: func(context.Context) (jwpedit.Client, error) {
		return jwpedit.New(memory.New())
	}}
	srv, err := New(app, DefaultConfig())
	require.NoError(t, err)
	assert.NoError(t, srv.Shutdown(context.Background()))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, path := range []string{"/health", "/api/v1/health", "/api/v1/ready"} {
		resp, _ := env.do(http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestReadyReportsStoreOutage(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.DropSheet(masterdata.MasterSheet)

	resp, _ := env.do(http.MethodGet, "/api/v1/ready", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSessions(t *testing.T) {
	env := newTestEnv(t, nil)

	t.Run("rejects unknown agency", func(t *testing.T) {
		resp, body := env.do(http.MethodPost, "/api/v1/sessions", handlers.SignInRequest{Name: "Ana", Email: "ana@x.org", Agency: "ACME"}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.NotNil(t, body.Error)
	})

	t.Run("rejects missing email", func(t *testing.T) {
		resp, _ := env.do(http.MethodPost, "/api/v1/sessions", handlers.SignInRequest{Name: "Ana", Agency: "UNDP"}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("sign in and out", func(t *testing.T) {
		token := env.signIn("Ana", "ana@undp.org", "UNDP")

		resp, body := env.do(http.MethodGet, "/api/v1/sessions", nil, auth(token))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var sess handlers.SessionResponse
		require.NoError(t, json.Unmarshal(body.Data, &sess))
		assert.Equal(t, masterdata.Agency("UNDP"), sess.Identity.Agency)
		assert.Empty(t, sess.Token)

		resp, _ = env.do(http.MethodDelete, "/api/v1/sessions", nil, auth(token))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = env.do(http.MethodGet, "/api/v1/rows", nil, auth(token))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestListRows(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(http.MethodGet, "/api/v1/rows", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := env.signIn("Ana", "ana@undp.org", "UNDP")
	resp, body := env.do(http.MethodGet, "/api/v1/rows", nil, auth(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rows handlers.RowsResponse
	require.NoError(t, json.Unmarshal(body.Data, &rows))
	assert.Equal(t, "UNDP", rows.Agency)
	assert.Equal(t, 3, rows.Count)
	assert.Empty(t, rows.Message)
	var ordinals []int
	for _, r := range rows.Rows {
		ordinals = append(ordinals, r.Ordinal)
		assert.Equal(t, "UNDP", r.Agency)
	}
	assert.Equal(t, []int{0, 2, 3}, ordinals)
}

func TestListRowsEmptyAgency(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.signIn("Wen", "wen@who.int", "WHO")

	resp, body := env.do(http.MethodGet, "/api/v1/rows", nil, auth(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rows handlers.RowsResponse
	require.NoError(t, json.Unmarshal(body.Data, &rows))
	assert.Zero(t, rows.Count)
	assert.Equal(t, handlers.NoRowsMessage, rows.Message)
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Send(e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func TestSaveRows(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := &recorder{}
	env.srv.Broker().Subscribe(rec)

	token := env.signIn("Ana", "ana@undp.org", "UNDP")

	resp, _ := env.do(http.MethodPut, "/api/v1/rows", handlers.SaveRequest{}, auth(token))
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "save before listing")

	_, body := env.do(http.MethodGet, "/api/v1/rows", nil, auth(token))
	var rows handlers.RowsResponse
	require.NoError(t, json.Unmarshal(body.Data, &rows))

	rows.Rows[1].Progress = "Completed"
	rows.Rows[1].Activity = "Renamed"

	resp, body = env.do(http.MethodPut, "/api/v1/rows", handlers.SaveRequest{Rows: rows.Rows}, auth(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var saved handlers.SaveResponse
	require.NoError(t, json.Unmarshal(body.Data, &saved))
	require.Len(t, saved.Changes, 1)
	assert.Equal(t, 2, saved.Changes[0].Ordinal)
	assert.Empty(t, saved.WriteFailures)
	assert.Empty(t, saved.AuditFailures)
	assert.Equal(t, "2025-11-03 14:05:09", saved.Timestamp)

	assert.Equal(t, "Completed", env.store.Cell(masterdata.MasterSheet, 4, masterdata.ColProgress))
	assert.Equal(t, "Training", env.store.Cell(masterdata.MasterSheet, 4, masterdata.ColActivity), "locked field untouched")

	auditRows, err := env.store.Values(context.Background(), masterdata.AuditSheet)
	require.NoError(t, err)
	require.Len(t, auditRows, 2)
	assert.Equal(t, []string{"Ana", "ana@undp.org", "UNDP", "2", "2025-11-03 14:05:09", "Row edited"}, auditRows[1])

	require.Eventually(t, func() bool { return len(rec.ofType(events.RowsUpdated)) == 1 }, 2*time.Second, 10*time.Millisecond)
	data, ok := rec.ofType(events.RowsUpdated)[0].Data.(events.RowsUpdatedData)
	require.True(t, ok)
	assert.Equal(t, []int{2}, data.Ordinals)

	t.Run("resubmitting the reloaded rows is a no-op", func(t *testing.T) {
		before := len(env.store.CallsOf(memory.OpUpdate))
		resp, body := env.do(http.MethodPut, "/api/v1/rows", handlers.SaveRequest{Rows: saved.Rows}, auth(token))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var again handlers.SaveResponse
		require.NoError(t, json.Unmarshal(body.Data, &again))
		assert.Empty(t, again.Changes)
		assert.Len(t, env.store.CallsOf(memory.OpUpdate), before)
	})

	t.Run("row count mismatch is rejected", func(t *testing.T) {
		resp, _ := env.do(http.MethodPut, "/api/v1/rows", handlers.SaveRequest{Rows: saved.Rows[:1]}, auth(token))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestSaveUneditedRowsIsNoOp(t *testing.T) {
	env := newTestEnv(t, nil)
	values, err := env.store.Values(context.Background(), masterdata.MasterSheet)
	require.NoError(t, err)
	values[1][masterdata.ColLastUpdated-1] = "2025-10-01 09:30:00.5"
	values[4][masterdata.ColLastUpdated-1] = "2025-10-01T09:30:00+02:00"
	env.store.SetSheet(masterdata.MasterSheet, values)
	env.store.ResetCalls()

	token := env.signIn("Ana", "ana@undp.org", "UNDP")
	_, body := env.do(http.MethodGet, "/api/v1/rows", nil, auth(token))
	var rows handlers.RowsResponse
	require.NoError(t, json.Unmarshal(body.Data, &rows))

	resp, body := env.do(http.MethodPut, "/api/v1/rows", handlers.SaveRequest{Rows: rows.Rows}, auth(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var saved handlers.SaveResponse
	require.NoError(t, json.Unmarshal(body.Data, &saved))
	assert.Empty(t, saved.Changes)
	assert.Empty(t, env.store.CallsOf(memory.OpUpdate))
	assert.Empty(t, env.store.CallsOf(memory.OpAppend))
}

func TestSaveRowsStoreOutage(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.signIn("Ana", "ana@undp.org", "UNDP")
	_, body := env.do(http.MethodGet, "/api/v1/rows", nil, auth(token))
	var rows handlers.RowsResponse
	require.NoError(t, json.Unmarshal(body.Data, &rows))

	env.store.FailWhen(func(c memory.Call) error {
		if c.Op == memory.OpUpdate {
			return errors.NewStoreError("update", c.Sheet, context.DeadlineExceeded)
		}
		return nil
	})
	rows.Rows[0].Progress = "Delayed"

	resp, body := env.do(http.MethodPut, "/api/v1/rows", handlers.SaveRequest{Rows: rows.Rows}, auth(token))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.NotNil(t, body.Error)
	var partial handlers.SaveResponse
	require.NoError(t, json.Unmarshal(body.Data, &partial))
	assert.Empty(t, partial.Changes)
	require.Len(t, partial.WriteFailures, 1)
}

func TestAdminEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	key := map[string]string{"X-Admin-Key": adminKey}

	resp, _ := env.do(http.MethodGet, "/api/v1/admin/rows", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = env.do(http.MethodGet, "/api/v1/admin/rows", nil, map[string]string{"X-Admin-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := env.do(http.MethodGet, "/api/v1/admin/rows?agency=WFP", nil, key)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Count int `json:"count"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &page))
	assert.Equal(t, 1, page.Count)
	assert.Equal(t, 4, page.Total)

	resp, _ = env.do(http.MethodGet, "/api/v1/admin/audit", nil, map[string]string{"Authorization": "Bearer " + adminKey})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(http.MethodPost, "/api/v1/admin/cache/invalidate", nil, key)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(http.MethodGet, "/api/v1/admin/stats", nil, key)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("csv export", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, env.http.URL+"/api/v1/admin/export.csv", nil)
		require.NoError(t, err)
		req.Header.Set("X-Admin-Key", adminKey)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "jwp_full_updated.csv")
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		assert.Len(t, lines, 5)
	})
}

func TestAdminLockedWithoutPassword(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.AdminPassword = "" })
	resp, _ := env.do(http.MethodGet, "/api/v1/admin/rows", nil, map[string]string{"X-Admin-Key": ""})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(http.MethodGet, "/api/v1/health", nil, nil)

	resp, err := http.Get(env.http.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	assert.Contains(t, buf.String(), "jwpedit_http_requests_total")
	assert.Contains(t, buf.String(), "jwpedit_cache_hits_total")

	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv(t, func(c *Config) { c.MetricsEnabled = false })
		resp, err := http.Get(env.http.URL + "/metrics")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRateLimitApplies(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.RateLimit = 2 })
	var last int
	for range 3 {
		resp, _ := env.do(http.MethodGet, "/api/v1/health", nil, nil)
		last = resp.StatusCode
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestUpdatesStreamRequiresSession(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, _ := env.do(http.MethodGet, "/api/v1/updates/stream", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
