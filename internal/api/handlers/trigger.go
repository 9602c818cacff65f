// Package handlers contains the HTTP handler implementations for the sync
// engine. Handlers depend on narrow, locally defined service interfaces so
// tests can substitute mocks without touching the scheduler package.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"socialsync/internal/core"
	"socialsync/internal/types"
)

// CycleRunner runs one full sync cycle and reports aggregate counts. It is
// satisfied by scheduler.Runner.
type CycleRunner interface {
	RunCycle(ctx context.Context, now time.Time) (types.SyncStats, error)
}

// TriggerHandler serves POST /v1/sync/trigger. Authentication happens in the
// middleware chain; by the time this handler runs the caller has already
// presented the correct shared secret.
type TriggerHandler struct {
	runner CycleRunner
	logger *slog.Logger
	now    func() time.Time
}

// NewTriggerHandler creates a trigger handler. nowFn defaults to time.Now
// and is injectable for window-gating tests.
func NewTriggerHandler(runner CycleRunner, logger *slog.Logger, nowFn func() time.Time) *TriggerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &TriggerHandler{
		runner: runner,
		logger: logger,
		now:    nowFn,
	}
}

// Handle runs a sync cycle and writes the aggregate summary. The request
// body is ignored; the trigger carries no parameters.
//
// Partial failure inside the cycle (individual task errors) still yields
// success: true with accurate counts, because failed tasks remain queued for
// a future cycle. Only a hard enqueue failure turns the whole invocation
// into an error response.
func (h *TriggerHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.runner.RunCycle(ctx, h.now().UTC())
	if err != nil {
		h.logger.ErrorContext(ctx, "sync cycle failed",
			"error", err,
			"request_id", types.GetRequestID(ctx),
		)
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.TriggerResponse{
		Success: true,
		Message: "sync cycle completed",
		Stats:   &stats,
	})
}
