// Package core provides the HTTP plumbing shared by all endpoints: the
// response envelope, the global middleware chain, routing, the health
// check, and the CloudWatch metrics publisher.
package core

import (
	"encoding/json"
	"errors"
	"net/http"

	"socialsync/internal/types"
)

// TriggerResponse is the envelope returned by the sync trigger endpoint.
// The external scheduler only inspects success and stats; message is for
// humans reading cron logs.
type TriggerResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Stats   *types.SyncStats `json:"stats,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// JSON writes a JSON response with the given status code and data. If
// marshalling fails, it falls back to a minimal 500 error response.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(TriggerResponse{
			Success: false,
			Error:   "failed to marshal response",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Error writes an error response. It inspects the error chain:
//   - An *types.AppError determines the HTTP status from its code, and its
//     message is returned to the client.
//   - Any other error returns 500 with a safe generic message; internal
//     details are never exposed.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		JSON(w, r, appErr.HTTPStatus(), TriggerResponse{
			Success: false,
			Error:   appErr.Message,
		})
		return
	}

	JSON(w, r, http.StatusInternalServerError, TriggerResponse{
		Success: false,
		Error:   "an unexpected error occurred",
	})
}
