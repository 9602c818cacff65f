package core

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"socialsync/internal/types"
)

// responseCapture wraps an http.ResponseWriter to record the status code
// written by downstream handlers, for the request logger.
type responseCapture struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rc *responseCapture) WriteHeader(code int) {
	if !rc.written {
		rc.statusCode = code
		rc.written = true
	}
	rc.ResponseWriter.WriteHeader(code)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	if !rc.written {
		rc.statusCode = http.StatusOK
		rc.written = true
	}
	return rc.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (rc *responseCapture) Unwrap() http.ResponseWriter {
	return rc.ResponseWriter
}

// Recoverer catches panics in the handler chain, logs the stack trace, and
// writes a standardized 500 response. It must be the outermost middleware.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("panic", fmt.Sprintf("%v", rvr)),
						slog.String("stack", string(debug.Stack())),
					)

					JSON(w, r, http.StatusInternalServerError, TriggerResponse{
						Success: false,
						Error:   "an unexpected error occurred",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RequestID assigns a UUID request ID to every request, stores it in the
// context for log correlation and outbound propagation, and echoes it in
// the X-Request-Id response header. An inbound X-Request-Id is honored so
// external schedulers can correlate retried firings.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.New().String()
		}

		ctx := types.WithRequestID(r.Context(), reqID)
		w.Header().Set("X-Request-Id", reqID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogger logs request metadata (method, path, status, duration).
// The Authorization header is never logged.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			rc := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rc, r)

			logger.InfoContext(r.Context(), "request handled",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rc.statusCode,
				"duration_ms", time.Since(started).Milliseconds(),
				"request_id", types.GetRequestID(r.Context()),
			)
		})
	}
}

// TriggerAuth authenticates schedule trigger invocations against the
// configured shared secret. It fails closed:
//   - an empty configured secret rejects every call with 500, so a
//     misdeployed instance can never be triggered;
//   - a missing or malformed Authorization header, or a token that does
//     not match, rejects with 401 before any work is performed.
//
// The comparison is constant-time to avoid leaking the secret through
// response timing.
func TriggerAuth(secret types.SecretString) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret.Unmask() == "" {
				Error(w, r, types.NewAppError(
					types.ErrCodeInternalUnconfigured,
					"sync trigger secret is not configured",
					nil,
				))
				return
			}

			token := extractBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				Error(w, r, types.NewAppError(
					types.ErrCodeAuthSecretMissing,
					"bearer token is required",
					nil,
				))
				return
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(secret.Unmask())) != 1 {
				Error(w, r, types.NewAppError(
					types.ErrCodeAuthSecretInvalid,
					"invalid trigger secret",
					nil,
				))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractBearerToken parses an Authorization header value of the form
// "Bearer <token>" (scheme case-insensitive) and returns the token, or ""
// when the header is absent or malformed.
func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
