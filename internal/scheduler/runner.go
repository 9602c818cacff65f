package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"socialsync/internal/types"
)

// cycleCleanup, cycleEnqueuer, and cycleProcessor are the step interfaces
// the runner sequences. They are satisfied by *Cleanup, *Enqueuer, and
// *Processor and mocked in tests.
type cycleCleanup interface {
	CleanupOldTasks(ctx context.Context, retentionDays int) (int, error)
	ReclaimAbandoned(ctx context.Context, ttl time.Duration) (int, error)
}

type cycleEnqueuer interface {
	EnqueueAllUsers(ctx context.Context, platforms []types.Platform, syncDate time.Time) (EnqueueResult, error)
}

type cycleProcessor interface {
	ProcessTasks(ctx context.Context, limit int) (int, error)
}

// CycleMetrics receives the aggregate counts of a finished cycle. A nil
// recorder disables metrics.
type CycleMetrics interface {
	RecordCycle(ctx context.Context, stats types.SyncStats, duration time.Duration)
}

// RunnerConfig holds the configuration for creating a Runner.
type RunnerConfig struct {
	Cleanup   cycleCleanup
	Enqueuer  cycleEnqueuer
	Processor cycleProcessor
	Metrics   CycleMetrics

	Platforms       []types.Platform
	Hours           []int
	WindowTolerance time.Duration
	BatchSize       int
	RetentionDays   int
	ClaimTTL        time.Duration

	Logger *slog.Logger
}

// Runner sequences one sync cycle: reclaim stale claims, clean up terminal
// tasks, enqueue (window-gated), then process an immediate batch. It is
// shared by the HTTP trigger handler and the in-process schedule mode.
//
// Invocations are short-lived and may overlap; all coordination between
// concurrent cycles happens through the task store's atomic operations.
type Runner struct {
	cleanup   cycleCleanup
	enqueuer  cycleEnqueuer
	processor cycleProcessor
	metrics   CycleMetrics

	platforms       []types.Platform
	hours           []int
	windowTolerance time.Duration
	batchSize       int
	retentionDays   int
	claimTTL        time.Duration

	logger *slog.Logger
}

// NewRunner creates a new Runner with the given configuration.
func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Runner{
		cleanup:         cfg.Cleanup,
		enqueuer:        cfg.Enqueuer,
		processor:       cfg.Processor,
		metrics:         cfg.Metrics,
		platforms:       cfg.Platforms,
		hours:           cfg.Hours,
		windowTolerance: cfg.WindowTolerance,
		batchSize:       batchSize,
		retentionDays:   cfg.RetentionDays,
		claimTTL:        cfg.ClaimTTL,
		logger:          logger,
	}
}

// RunCycle executes one sync cycle at the given time and returns the
// aggregate counts.
//
// Step semantics:
//   - Reclaim and cleanup failures are logged and swallowed; both are
//     hygiene steps whose loss affects storage, not correctness.
//   - Enqueue runs only when now falls inside a configured window, so a
//     late or duplicate trigger firing does not re-enqueue; the cycle still
//     processes already-pending tasks.
//   - An enqueue failure is a hard error: the cycle has nothing new to work
//     with, and the caller reports the invocation as failed.
//   - A processor failure is logged and swallowed; created tasks stay
//     pending and the next cycle resumes them.
func (r *Runner) RunCycle(ctx context.Context, now time.Time) (types.SyncStats, error) {
	var stats types.SyncStats
	started := time.Now()

	// Step 1: Return abandoned claims to the queue.
	reclaimed, err := r.cleanup.ReclaimAbandoned(ctx, r.claimTTL)
	if err != nil {
		r.logger.ErrorContext(ctx, "stale claim reclaim failed", "error", err)
	} else {
		stats.TasksReclaimed = reclaimed
	}

	// Step 2: Purge terminal tasks past retention. Runs before enqueue so
	// storage is reclaimed before the table grows again.
	cleaned, err := r.cleanup.CleanupOldTasks(ctx, r.retentionDays)
	if err != nil {
		r.logger.ErrorContext(ctx, "task cleanup failed", "error", err)
	} else {
		stats.TasksCleaned = cleaned
	}

	// Step 3: Enqueue, gated by the execution window.
	if hour, ok := WindowFor(now, r.hours, r.windowTolerance); ok {
		result, err := r.enqueuer.EnqueueAllUsers(ctx, r.platforms, SyncDateFor(now))
		if err != nil {
			r.emit(ctx, stats, time.Since(started))
			return stats, fmt.Errorf("enqueue step failed: %w", err)
		}
		stats.TasksCreated = result.TasksCreated

		r.logger.InfoContext(ctx, "enqueue window hit",
			"target_hour", hour,
			"users_enqueued", result.UsersEnqueued,
			"tasks_created", result.TasksCreated,
		)
	} else {
		r.logger.InfoContext(ctx, "outside enqueue window, processing only",
			"now", now.UTC().Format(time.RFC3339),
			"next_sync", NextSyncTime(now, r.hours).Format(time.RFC3339),
		)
	}

	// Step 4: Process an immediate batch. Best effort: anything unprocessed
	// remains pending for the next invocation.
	processed, err := r.processor.ProcessTasks(ctx, r.batchSize)
	if err != nil {
		r.logger.ErrorContext(ctx, "processing step failed, tasks remain pending",
			"error", err,
		)
	} else {
		stats.TasksProcessed = processed
	}

	r.emit(ctx, stats, time.Since(started))

	r.logger.InfoContext(ctx, "sync cycle complete",
		"tasks_created", stats.TasksCreated,
		"tasks_processed", stats.TasksProcessed,
		"tasks_cleaned", stats.TasksCleaned,
		"tasks_reclaimed", stats.TasksReclaimed,
	)

	return stats, nil
}

func (r *Runner) emit(ctx context.Context, stats types.SyncStats, duration time.Duration) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordCycle(ctx, stats, duration)
}
