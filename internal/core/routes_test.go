package core

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialsync/internal/config"
	"socialsync/internal/types"
)

func newMountedServer(t *testing.T, secret string, trigger http.HandlerFunc) *Server {
	t.Helper()
	cfg := &config.Config{}
	cfg.Sync.TriggerSecret = types.SecretString(secret)

	s, err := NewServer(cfg, slog.Default())
	require.NoError(t, err)
	s.MountRoutes(trigger)
	return s
}

func TestMountRoutes_TriggerRequiresAuth(t *testing.T) {
	called := false
	s := newMountedServer(t, "s3cret", func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	// No Authorization header.
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/sync/trigger", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)

	// Correct secret.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/sync/trigger", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestMountRoutes_TriggerOnlyAcceptsPost(t *testing.T) {
	s := newMountedServer(t, "s3cret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/sync/trigger", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMountRoutes_HealthzIsPublic(t *testing.T) {
	s := newMountedServer(t, "s3cret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMountRoutes_RequestIDHeaderOnEveryResponse(t *testing.T) {
	s := newMountedServer(t, "s3cret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
