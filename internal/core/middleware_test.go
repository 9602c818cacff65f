package core

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialsync/internal/types"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRecoverer_CatchesPanicAndWrites500(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/sync/trigger", nil)

	Recoverer(slog.Default())(panicking).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body TriggerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.NotContains(t, body.Error, "boom", "panic details must not leak to clients")
}

func TestRequestID_GeneratesAndEchoesID(t *testing.T) {
	var ctxID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = types.GetRequestID(r.Context())
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	RequestID(next).ServeHTTP(rec, req)

	require.NotEmpty(t, ctxID)
	assert.Equal(t, ctxID, rec.Header().Get("X-Request-Id"))
}

func TestRequestID_HonorsInboundHeader(t *testing.T) {
	var ctxID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = types.GetRequestID(r.Context())
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "cron-retry-7")

	RequestID(next).ServeHTTP(rec, req)

	assert.Equal(t, "cron-retry-7", ctxID)
	assert.Equal(t, "cron-retry-7", rec.Header().Get("X-Request-Id"))
}

func TestTriggerAuth_ValidSecretPasses(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/sync/trigger", nil)
	req.Header.Set("Authorization", "Bearer s3cret")

	TriggerAuth(types.SecretString("s3cret"))(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTriggerAuth_MissingHeaderRejected(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/sync/trigger", nil)

	TriggerAuth(types.SecretString("s3cret"))(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTriggerAuth_WrongSecretRejected(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/sync/trigger", nil)
	req.Header.Set("Authorization", "Bearer wrong")

	TriggerAuth(types.SecretString("s3cret"))(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTriggerAuth_MalformedSchemeRejected(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/sync/trigger", nil)
	req.Header.Set("Authorization", "Basic s3cret")

	TriggerAuth(types.SecretString("s3cret"))(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTriggerAuth_UnconfiguredSecretFailsClosed(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/sync/trigger", nil)
	req.Header.Set("Authorization", "Bearer anything")

	TriggerAuth(types.SecretString(""))(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, called, "no work may happen when the secret is unconfigured")

	var body TriggerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
}

func TestExtractBearerToken(t *testing.T) {
	assert.Equal(t, "tok", extractBearerToken("Bearer tok"))
	assert.Equal(t, "tok", extractBearerToken("bearer tok"))
	assert.Empty(t, extractBearerToken(""))
	assert.Empty(t, extractBearerToken("Bearer"))
	assert.Empty(t, extractBearerToken("Basic tok"))
}
