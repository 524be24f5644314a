package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studium/internal/app"
	"github.com/ternarybob/studium/internal/common"
)

// newTestServer builds a real application on a temp database and returns
// the composed handler (routes plus middleware), the same one Start serves.
func newTestServer(t *testing.T, mutate func(*common.Config)) (*Server, http.Handler) {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Storage.Badger.Path = filepath.Join(t.TempDir(), "db")
	cfg.Variables.Dir = t.TempDir()
	if mutate != nil {
		mutate(cfg)
	}

	application, err := app.New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { application.Close() })

	srv := New(application)
	return srv, srv.server.Handler
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestRoutes_Health(t *testing.T) {
	_, handler := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
}

func TestRoutes_Version(t *testing.T) {
	_, handler := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["version"])
}

func TestRoutes_RootBanner(t *testing.T) {
	_, handler := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "studium", body["name"])
	assert.Equal(t, "running", body["status"])
}

func TestRoutes_UnknownAPIPathReturns404(t *testing.T) {
	_, handler := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/no-such-route", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestRoutes_Status(t *testing.T) {
	_, handler := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "idle", body["state"])
}

func TestRoutes_MethodGating(t *testing.T) {
	_, handler := newTestServer(t, nil)

	cases := []struct {
		method string
		path   string
	}{
		{"DELETE", "/api/dates"},
		{"POST", "/api/runs"},
		{"PUT", "/api/runs/run_123"},
		{"GET", "/api/generate/21-08-2026"},
		{"POST", "/api/content/21-08-2026"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRunRoutes_DispatchesLogsSuffix(t *testing.T) {
	_, handler := newTestServer(t, nil)

	// Unknown run: the logs route answers (empty page), the run route 404s
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/runs/run_missing/logs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/runs/run_missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS_PreflightAndHeaders(t *testing.T) {
	_, handler := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("OPTIONS", "/api/status", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")

	// Headers also present on normal responses
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/health", nil))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware_ConvertsPanicTo500(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	panicking := srv.withMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	panicking.ServeHTTP(rec, httptest.NewRequest("GET", "/api/anything", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestShutdownHandler_SignalsChannel(t *testing.T) {
	srv, handler := newTestServer(t, nil)

	shutdownChan := make(chan struct{}, 1)
	srv.SetShutdownChannel(shutdownChan)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/shutdown", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "shutting down", body["status"])

	select {
	case <-shutdownChan:
	default:
		t.Fatal("expected shutdown signal on channel")
	}
}

func TestShutdownHandler_RequiresPOST(t *testing.T) {
	_, handler := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/shutdown", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestShutdownHandler_DisabledInProduction(t *testing.T) {
	_, handler := newTestServer(t, func(cfg *common.Config) {
		cfg.Environment = "production"
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/shutdown", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "disabled in production"))
}

func TestShutdownHandler_NoChannelStillResponds(t *testing.T) {
	_, handler := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/shutdown", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
