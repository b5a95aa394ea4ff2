// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejvthedrummer/naucse.python.cz/internal/cache"
	"github.com/dejvthedrummer/naucse.python.cz/internal/health"
	"github.com/dejvthedrummer/naucse.python.cz/internal/lint"
	"github.com/dejvthedrummer/naucse.python.cz/internal/watch"
)

const fixture = "../course/testdata/workshop.yml"

type testEnv struct {
	srv    *Server
	holder *watch.Holder
	path   string
	cache  *cache.MemoryCache
}

func newTestEnv(t *testing.T, load bool) *testEnv {
	t.Helper()

	data, err := os.ReadFile(fixture)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "info.yml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	holder := watch.NewHolder(path, lint.Options{})
	if load {
		require.NoError(t, holder.Load(context.Background()))
	}

	mc := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { _ = mc.Close() })

	hm := health.NewManager("test")
	hm.RegisterChecker(health.NewDocumentChecker(holder))

	srv := New(Config{Slug: "pyladies-brno", BaseURL: "https://naucse.python.cz"}, holder, mc, lint.Options{}, hm)
	return &testEnv{srv: srv, holder: holder, path: path, cache: mc}
}

func (e *testEnv) do(t *testing.T, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestEvent(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodGet, "/api/v1/event", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get(headerDocumentVersion))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var view struct {
		Event struct {
			Title string `json:"title"`
			Place string `json:"place"`
		} `json:"event"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
		Schedule  []struct {
			Slug  string     `json:"slug"`
			Start *time.Time `json:"start"`
			End   *time.Time `json:"end"`
			Prev  string     `json:"prev"`
			Next  string     `json:"next"`
		} `json:"schedule"`
		Stale bool `json:"stale"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))

	assert.Equal(t, "Brno, Impact Hub", view.Event.Place)
	assert.Equal(t, "2024-03-02", view.StartDate)
	assert.Equal(t, "2024-03-02", view.EndDate)
	assert.False(t, view.Stale)
	require.Len(t, view.Schedule, 3)

	morning := view.Schedule[0]
	assert.Equal(t, "morning", morning.Slug)
	assert.Empty(t, morning.Prev)
	assert.Equal(t, "afternoon", morning.Next)
	require.NotNil(t, morning.Start)
	assert.Equal(t, time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC), morning.Start.UTC())

	homework := view.Schedule[2]
	assert.Nil(t, homework.Start, "undated sessions have no times")
	assert.Equal(t, "afternoon", homework.Prev)
}

func TestReport(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodGet, "/api/v1/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, float64(1), body["version"])
	report := body["report"].(map[string]any)
	assert.Equal(t, true, report["valid"])
}

func TestNotLoaded(t *testing.T) {
	env := newTestEnv(t, false)

	for _, path := range []string{"/api/v1/event", "/api/v1/report", "/api/v1/calendar.ics"} {
		rec := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"), path)
		assert.Equal(t, problemNotLoaded, decode(t, rec)["type"], path)
	}

	rec := env.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStaleDocumentKeepsEvent(t *testing.T) {
	env := newTestEnv(t, true)
	require.NoError(t, os.WriteFile(env.path, []byte("title: [broken"), 0o600))
	_, err := env.holder.Reload(context.Background())
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/api/v1/event", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["stale"])

	rec = env.do(t, http.MethodGet, "/api/v1/report", nil)
	body := decode(t, rec)
	assert.Equal(t, float64(2), body["version"])
	assert.Equal(t, false, body["report"].(map[string]any)["valid"])

	rec = env.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "degraded stays ready")
}

func TestEvent_NestedVarsWithNumericKeys(t *testing.T) {
	env := newTestEnv(t, true)
	doc := "title: T\nvars:\n  grid: {1: a}\nplan:\n- {title: A, slug: a}\n"
	require.NoError(t, os.WriteFile(env.path, []byte(doc), 0o600))
	st, err := env.holder.Reload(context.Background())
	require.NoError(t, err)
	require.True(t, st.Report.Valid())

	rec := env.do(t, http.MethodGet, "/api/v1/event", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ev := decode(t, rec)["event"].(map[string]any)
	assert.Equal(t, map[string]any{"grid": map[string]any{"1": "a"}}, ev["vars"])
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/event", nil)
	rec := httptest.NewRecorder()

	writeJSON(rec, req, http.StatusOK, map[string]any{"bad": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, problemEncode, decode(t, rec)["type"])
}

func TestValidate_CachesReports(t *testing.T) {
	env := newTestEnv(t, true)
	data, err := os.ReadFile(fixture)
	require.NoError(t, err)

	first := env.do(t, http.MethodPost, "/api/v1/validate", bytes.NewReader(data))
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, true, decode(t, first)["valid"])

	second := env.do(t, http.MethodPost, "/api/v1/validate", bytes.NewReader(data))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())

	lenient := env.do(t, http.MethodPost, "/api/v1/validate?lenient=true", bytes.NewReader(data))
	assert.Equal(t, "MISS", lenient.Header().Get("X-Cache"), "options are part of the key")

	assert.Equal(t, 2, env.cache.Stats().CurrentSize)
}

func TestValidate_InvalidDocument(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodPost, "/api/v1/validate", strings.NewReader("title: T\nplan: []\n"))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["valid"])
	assert.NotZero(t, body["errors"])
}

func TestValidate_BadRequests(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodPost, "/api/v1/validate", strings.NewReader("  \n"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, problemEmptyBody, decode(t, rec)["type"])

	big := bytes.Repeat([]byte("#"), MaxDocumentBytes+1)
	rec = env.do(t, http.MethodPost, "/api/v1/validate", bytes.NewReader(big))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, problemTooLarge, decode(t, rec)["type"])

	rec = env.do(t, http.MethodGet, "/api/v1/validate", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/api/v1/nope", decode(t, rec)["instance"])
}

func TestSchema(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodGet, "/api/v1/schema", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/schema+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "object", decode(t, rec)["type"])
}

func TestCalendar(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodGet, "/api/v1/calendar.ics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "BEGIN:VCALENDAR"))
	assert.Contains(t, body, "UID:morning@pyladies-brno")
	assert.Contains(t, body, "URL:https://naucse.python.cz/pyladies-brno/morning/")
	assert.NotContains(t, body, "homework@")
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodGet, "/healthz?verbose=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	checks := decode(t, rec)["checks"].(map[string]any)
	assert.Contains(t, checks, "document")

	rec = env.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	env.do(t, http.MethodGet, "/api/v1/event", nil)
	rec = env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "naucse_http_requests_in_flight")
	assert.Contains(t, rec.Body.String(), `path="/api/v1/event"`)
}

func TestWebsocket_PushesReloads(t *testing.T) {
	env := newTestEnv(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		env.srv.Watch(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	ts := httptest.NewServer(env.srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	read := func() pushMessage {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg pushMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	}

	initial := read()
	assert.Equal(t, uint64(1), initial.Version)
	assert.True(t, initial.Report.Valid())

	require.NoError(t, os.WriteFile(env.path, []byte("title: [broken"), 0o600))
	_, err = env.holder.Reload(context.Background())
	require.NoError(t, err)

	pushed := read()
	assert.Equal(t, uint64(2), pushed.Version)
	assert.True(t, pushed.Stale)
	assert.False(t, pushed.Report.Valid())
}
