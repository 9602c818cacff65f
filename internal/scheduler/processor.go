package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"socialsync/internal/types"
)

// DefaultMaxAttempts is the number of processing attempts before a task is
// marked failed.
const DefaultMaxAttempts = 3

// maxErrorLength caps the stored last_error message so adapter stack dumps
// cannot bloat the task table.
const maxErrorLength = 500

// ProcessTaskStore abstracts the claim and transition operations the
// processor needs from the task repository.
type ProcessTaskStore interface {
	ClaimBatch(ctx context.Context, limit int) ([]types.SyncTask, error)
	MarkCompleted(ctx context.Context, taskID string) error
	MarkFailedOrRetry(ctx context.Context, taskID string, errMsg string, maxAttempts int) error
}

// StatsRecorder persists the outcome of a successful adapter call.
type StatsRecorder interface {
	UpsertDaily(ctx context.Context, stat *types.PlatformStat) error
}

// PlatformAdapter performs the actual network call to one social-media
// platform. Any non-nil error, including a deadline exceeded from the
// per-call timeout, is treated uniformly as a retryable failure.
type PlatformAdapter interface {
	Sync(ctx context.Context, userID string) (types.SyncOutcome, error)
}

// ProcessorConfig holds the configuration for creating a Processor.
type ProcessorConfig struct {
	Tasks ProcessTaskStore
	Stats StatsRecorder
	// Adapters maps each platform to its adapter. A claimed task for a
	// platform with no adapter is a task failure, not a processor failure.
	Adapters map[types.Platform]PlatformAdapter

	// MaxAttempts before a task goes terminal; defaults to DefaultMaxAttempts.
	MaxAttempts int
	// AdapterTimeout bounds each adapter call; 0 disables the bound.
	AdapterTimeout time.Duration
	// Parallelism is the worker pool size for a claimed batch. Values < 1
	// mean sequential processing.
	Parallelism int

	Logger *slog.Logger
}

// Processor drains claimed task batches through platform adapters. Each
// task's outcome is independent: one adapter failure never aborts the rest
// of the batch, and every outcome is committed to the task row before the
// call returns.
type Processor struct {
	tasks    ProcessTaskStore
	stats    StatsRecorder
	adapters map[types.Platform]PlatformAdapter

	maxAttempts    int
	adapterTimeout time.Duration
	parallelism    int

	logger *slog.Logger
}

// NewProcessor creates a new Processor with the given configuration.
func NewProcessor(cfg ProcessorConfig) *Processor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	parallelism := cfg.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}
	return &Processor{
		tasks:          cfg.Tasks,
		stats:          cfg.Stats,
		adapters:       cfg.Adapters,
		maxAttempts:    maxAttempts,
		adapterTimeout: cfg.AdapterTimeout,
		parallelism:    parallelism,
		logger:         logger,
	}
}

// ProcessTasks claims up to limit pending tasks and processes each through
// the adapter for its platform. It returns the number of tasks that reached
// the completed state in this call; tasks that failed an attempt (and were
// returned to pending or marked failed) are not counted.
//
// The batch runs on a bounded worker pool no larger than the batch itself.
// Per-task status transitions are atomic and independent, so a slow adapter
// call blocks at most one worker.
func (p *Processor) ProcessTasks(ctx context.Context, limit int) (int, error) {
	tasks, err := p.tasks.ClaimBatch(ctx, limit)
	if err != nil {
		return 0, err
	}

	if len(tasks) == 0 {
		p.logger.InfoContext(ctx, "no pending tasks to process")
		return 0, nil
	}

	p.logger.InfoContext(ctx, "processing claimed batch",
		"claimed", len(tasks),
		"limit", limit,
	)

	var completed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)

	for _, task := range tasks {
		task := task
		g.Go(func() error {
			if p.processOne(gctx, task) {
				completed.Add(1)
			}
			// Task failures are recorded on the row, never propagated;
			// returning nil keeps the group draining the whole batch.
			return nil
		})
	}

	// The only error source would be a worker returning non-nil, which
	// processOne never does.
	_ = g.Wait()

	p.logger.InfoContext(ctx, "batch processing complete",
		"claimed", len(tasks),
		"completed", completed.Load(),
	)

	return int(completed.Load()), nil
}

// processOne runs one claimed task to a terminal-or-retry outcome and
// reports whether it completed. All failure paths go through
// MarkFailedOrRetry so attempt bookkeeping stays on the task row.
func (p *Processor) processOne(ctx context.Context, task types.SyncTask) bool {
	adapter, ok := p.adapters[task.Platform]
	if !ok {
		p.recordFailure(ctx, task, types.NewAppError(
			types.ErrCodeUpstreamPlatform,
			"no adapter registered for platform "+string(task.Platform),
			nil,
		))
		return false
	}

	callCtx := ctx
	if p.adapterTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.adapterTimeout)
		defer cancel()
	}

	outcome, err := adapter.Sync(callCtx, task.UserID)
	if err != nil {
		p.recordFailure(ctx, task, err)
		return false
	}

	// Persist the fetched counts before completing the task. A stats write
	// failure means the sync produced nothing durable, so it counts as a
	// failed attempt and the task is retried.
	stat := &types.PlatformStat{
		UserID:    task.UserID,
		Platform:  task.Platform,
		StatDate:  task.SyncDate,
		Followers: outcome.Followers,
		Activity:  outcome.Activity,
	}
	if err := p.stats.UpsertDaily(ctx, stat); err != nil {
		p.recordFailure(ctx, task, err)
		return false
	}

	if err := p.tasks.MarkCompleted(ctx, task.ID); err != nil {
		// The stats row is committed but the task stayed in processing; the
		// stale-claim reclaim will return it to pending and the re-run
		// overwrites the same stats row.
		p.logger.ErrorContext(ctx, "failed to mark task completed",
			"task_id", task.ID,
			"error", err,
		)
		return false
	}

	p.logger.InfoContext(ctx, "task completed",
		"task_id", task.ID,
		"user_id", task.UserID,
		"platform", string(task.Platform),
		"followers", outcome.Followers,
		"activity", outcome.Activity,
	)

	return true
}

// recordFailure writes the attempt outcome to the task row. The store
// decides between retry (back to pending) and terminal failure based on the
// incremented attempt count.
func (p *Processor) recordFailure(ctx context.Context, task types.SyncTask, cause error) {
	msg := cause.Error()
	if len(msg) > maxErrorLength {
		msg = msg[:maxErrorLength]
	}

	if err := p.tasks.MarkFailedOrRetry(ctx, task.ID, msg, p.maxAttempts); err != nil {
		// Both the attempt and its bookkeeping failed; the claim will go
		// stale and be reclaimed, so the task is not lost.
		p.logger.ErrorContext(ctx, "failed to record task failure",
			"task_id", task.ID,
			"error", err,
		)
		return
	}

	p.logger.WarnContext(ctx, "task attempt failed",
		"task_id", task.ID,
		"user_id", task.UserID,
		"platform", string(task.Platform),
		"attempt", task.Attempts+1,
		"max_attempts", p.maxAttempts,
		"error", cause,
	)
}
