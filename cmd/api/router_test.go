package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radif/imagehub/internal/auth"
	"github.com/radif/imagehub/internal/config"
	"github.com/radif/imagehub/internal/gateway"
	"github.com/radif/imagehub/internal/session"
	"github.com/radif/imagehub/internal/storage"
)

func testRouter(t *testing.T, secret string) http.Handler {
	t.Helper()
	cfg := &config.Config{
		JWTSecret: secret,
		Storage: config.StorageConfig{
			Driver:           config.DriverLocal,
			LocalDir:         t.TempDir(),
			PublicBase:       "http://localhost:8080/blobs",
			DefaultContainer: "test",
		},
	}
	store, err := storage.NewLocalStorage(cfg.Storage.LocalDir, cfg.Storage.PublicBase)
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := gateway.New(storage.Static(store), gateway.WithLogger(log))
	svc := session.NewService(session.NewRegistry(8, time.Minute), gw, session.Defaults{Container: "test"}, log)

	return newRouter(cfg, log, prometheus.NewRegistry(), gateway.NewHandler(gw, 1<<20), session.NewHandler(svc, 1<<20))
}

func TestRouter_MutatingRoutesRequireToken(t *testing.T) {
	router := testRouter(t, "test-secret")

	cases := []struct {
		method, path, body string
	}{
		{http.MethodPost, "/api/v1/containers/test/images/", ""},
		{http.MethodDelete, "/api/v1/containers/test/images/?url=http://x/test/a.png", ""},
		{http.MethodPost, "/api/v1/sessions/", `{"kind":"manager"}`},
		{http.MethodPost, "/api/v1/sessions/abc/files", ""},
		{http.MethodPost, "/api/v1/sessions/abc/submit", ""},
		{http.MethodDelete, "/api/v1/sessions/abc/gallery/images?url=http://x/test/a.png&confirm=true", ""},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body)))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRouter_SessionRoutesAcceptToken(t *testing.T) {
	router := testRouter(t, "test-secret")
	tok, err := auth.IssueToken("test-secret", "tester", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/unknown", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_PublicRoutes(t *testing.T) {
	router := testRouter(t, "test-secret")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/containers/test/images/", nil))
	assert.NotEqual(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_EmptySecretDisablesAuth(t *testing.T) {
	router := testRouter(t, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
