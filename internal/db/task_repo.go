package db

import (
	"context"
	"time"

	"socialsync/internal/types"
)

// TaskRepository owns all reads and writes of the sync_tasks table. No other
// component mutates task rows directly; the enqueuer and processor request
// mutations exclusively through these operations.
//
// Cross-invocation coordination relies on the atomicity of these statements:
// concurrent trigger invocations share no in-process state.
type TaskRepository struct {
	db DBTX
}

// NewTaskRepository creates a new TaskRepository backed by the given
// database connection (pool or transaction).
func NewTaskRepository(db DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

// InsertIfAbsent inserts a pending task unless a non-completed task already
// exists for its (user_id, platform, sync_date) key. Returns whether a new
// row was created.
//
// Dedup is enforced by the partial unique index uniq_sync_tasks_open, so the
// check and the insert are a single atomic statement; two concurrent callers
// cannot both create a row for the same key:
//
//	INSERT INTO sync_tasks (...)
//	VALUES (...)
//	ON CONFLICT (user_id, platform, sync_date)
//	  WHERE status <> 'completed' DO NOTHING
func (r *TaskRepository) InsertIfAbsent(ctx context.Context, task *types.SyncTask) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO sync_tasks (id, user_id, platform, sync_date, status, attempts, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, 'pending', 0, NOW(), NOW())
		 ON CONFLICT (user_id, platform, sync_date)
		   WHERE status <> 'completed' DO NOTHING`,
		task.ID,
		task.UserID,
		string(task.Platform),
		task.SyncDate,
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to insert sync task", err)
	}

	// RowsAffected is 0 when the conflict target matched an existing
	// non-completed row for the same key.
	return tag.RowsAffected() > 0, nil
}

// ClaimBatch atomically selects up to limit pending tasks, transitions them
// to processing, and returns them. FOR UPDATE SKIP LOCKED guarantees two
// concurrent callers never claim overlapping rows: locked rows are skipped
// rather than waited on.
//
//	UPDATE sync_tasks SET status = 'processing', updated_at = NOW()
//	WHERE id IN (
//	  SELECT id FROM sync_tasks WHERE status = 'pending'
//	  ORDER BY created_at
//	  LIMIT $1
//	  FOR UPDATE SKIP LOCKED
//	)
//	RETURNING ...
//
// No ordering is guaranteed among the returned tasks.
func (r *TaskRepository) ClaimBatch(ctx context.Context, limit int) ([]types.SyncTask, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx,
		`UPDATE sync_tasks
		 SET status = 'processing', updated_at = NOW()
		 WHERE id IN (
		   SELECT id FROM sync_tasks
		   WHERE status = 'pending'
		   ORDER BY created_at
		   LIMIT $1
		   FOR UPDATE SKIP LOCKED
		 )
		 RETURNING id, user_id, platform, sync_date, status, attempts, last_error, created_at, updated_at`,
		limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to claim task batch", err)
	}
	defer rows.Close()

	var tasks []types.SyncTask
	for rows.Next() {
		var (
			t        types.SyncTask
			platform string
			status   string
		)
		if err := rows.Scan(
			&t.ID,
			&t.UserID,
			&platform,
			&t.SyncDate,
			&status,
			&t.Attempts,
			&t.LastError,
			&t.CreatedAt,
			&t.UpdatedAt,
		); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan claimed task", err)
		}
		t.Platform = types.Platform(platform)
		t.Status = types.TaskStatus(status)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating claimed tasks", err)
	}

	return tasks, nil
}

// MarkCompleted transitions a processing task to completed. Calling it on a
// task that is already completed (or otherwise not processing) is a no-op,
// making the operation idempotent.
func (r *TaskRepository) MarkCompleted(ctx context.Context, taskID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE sync_tasks
		 SET status = 'completed', updated_at = NOW()
		 WHERE id = $1 AND status = 'processing'`,
		taskID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to mark task completed", err)
	}
	return nil
}

// MarkFailedOrRetry records a failed processing attempt. It increments
// attempts and, when the incremented count reaches maxAttempts, transitions
// the task to failed; otherwise the task returns to pending for a later
// retry. The last error message is recorded either way.
//
// The attempt bookkeeping and the status decision are one statement so that
// the transition is atomic:
//
//	UPDATE sync_tasks
//	SET attempts = attempts + 1,
//	    last_error = $2,
//	    status = CASE WHEN attempts + 1 >= $3 THEN 'failed' ELSE 'pending' END,
//	    updated_at = NOW()
//	WHERE id = $1 AND status = 'processing'
func (r *TaskRepository) MarkFailedOrRetry(ctx context.Context, taskID string, errMsg string, maxAttempts int) error {
	_, err := r.db.Exec(ctx,
		`UPDATE sync_tasks
		 SET attempts = attempts + 1,
		     last_error = $2,
		     status = CASE WHEN attempts + 1 >= $3 THEN 'failed' ELSE 'pending' END,
		     updated_at = NOW()
		 WHERE id = $1 AND status = 'processing'`,
		taskID,
		errMsg,
		maxAttempts,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to record task failure", err)
	}
	return nil
}

// DeleteTerminalOlderThan deletes completed and failed tasks whose last
// update is older than the cutoff and returns the count removed. Pending and
// processing rows are never touched regardless of age.
//
// The cutoff is computed in Go rather than with SQL interval arithmetic to
// avoid PostgreSQL interval parsing incompatibilities with Go durations.
func (r *TaskRepository) DeleteTerminalOlderThan(ctx context.Context, days int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	tag, err := r.db.Exec(ctx,
		`DELETE FROM sync_tasks
		 WHERE status IN ('completed', 'failed')
		   AND updated_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to delete terminal tasks", err)
	}

	return int(tag.RowsAffected()), nil
}

// ReclaimStale returns abandoned processing tasks to pending. A claim is
// considered abandoned when its row has not been updated for longer than
// ttl, which happens when a processor crashed or was cut off mid-batch.
// Attempts are not incremented; the interrupted attempt never produced an
// outcome. Returns the count of reclaimed tasks.
func (r *TaskRepository) ReclaimStale(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-ttl)

	tag, err := r.db.Exec(ctx,
		`UPDATE sync_tasks
		 SET status = 'pending', updated_at = NOW()
		 WHERE status = 'processing'
		   AND updated_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to reclaim stale tasks", err)
	}

	return int(tag.RowsAffected()), nil
}
