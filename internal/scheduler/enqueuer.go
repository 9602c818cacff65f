package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"socialsync/internal/types"
)

// EnqueueTaskStore abstracts the task creation operation the enqueuer needs
// from the task repository.
type EnqueueTaskStore interface {
	// InsertIfAbsent creates a pending task unless a non-completed task
	// already exists for the same (user, platform, sync date) key. Returns
	// whether a new row was created.
	InsertIfAbsent(ctx context.Context, task *types.SyncTask) (bool, error)
}

// UserDirectory abstracts the external account system. The enqueuer only
// needs the identifiers of users whose stats should be synchronized.
type UserDirectory interface {
	ListActiveIDs(ctx context.Context) ([]string, error)
}

// EnqueueResult holds the counts of one enqueue pass.
type EnqueueResult struct {
	// UsersEnqueued is the number of distinct users for whom at least one
	// task was newly created. This is the primary result: re-running the
	// enqueuer for the same sync date yields 0.
	UsersEnqueued int
	// TasksCreated is the total number of task rows created, at most
	// len(platforms) per user.
	TasksCreated int
}

// Enqueuer fans out one sync task per (active user, platform) pair for a
// given sync date. Dedup against existing non-completed tasks is enforced
// by the task store, so duplicate trigger firings within the same window
// create no extra rows.
type Enqueuer struct {
	tasks  EnqueueTaskStore
	users  UserDirectory
	logger *slog.Logger
}

// NewEnqueuer creates a new Enqueuer.
func NewEnqueuer(tasks EnqueueTaskStore, users UserDirectory, logger *slog.Logger) *Enqueuer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enqueuer{
		tasks:  tasks,
		users:  users,
		logger: logger,
	}
}

// EnqueueAllUsers creates sync tasks for every active user on every given
// platform for the given sync date.
//
// An empty platform set is a no-op. A user directory failure aborts the
// pass with no partial silent success: the error is propagated and the
// caller treats the enqueue step as failed. A task store failure likewise
// aborts the pass, since an unreachable store fails every remaining insert
// as well; rows created before the failure remain (they are deduplicated on
// the next attempt).
func (e *Enqueuer) EnqueueAllUsers(ctx context.Context, platforms []types.Platform, syncDate time.Time) (EnqueueResult, error) {
	var result EnqueueResult

	if len(platforms) == 0 {
		e.logger.InfoContext(ctx, "no platforms configured, skipping enqueue")
		return result, nil
	}

	userIDs, err := e.users.ListActiveIDs(ctx)
	if err != nil {
		return result, fmt.Errorf("listing active users: %w", err)
	}

	if len(userIDs) == 0 {
		e.logger.InfoContext(ctx, "no active users to enqueue")
		return result, nil
	}

	for _, userID := range userIDs {
		createdForUser := 0
		for _, platform := range platforms {
			task := &types.SyncTask{
				ID:       uuid.New().String(),
				UserID:   userID,
				Platform: platform,
				SyncDate: syncDate,
			}

			created, err := e.tasks.InsertIfAbsent(ctx, task)
			if err != nil {
				return result, fmt.Errorf("enqueueing %s task for user %s: %w", platform, userID, err)
			}
			if created {
				createdForUser++
			}
		}

		if createdForUser > 0 {
			result.UsersEnqueued++
			result.TasksCreated += createdForUser
		}
	}

	e.logger.InfoContext(ctx, "enqueue pass complete",
		"sync_date", syncDate.Format("2006-01-02"),
		"platforms", len(platforms),
		"active_users", len(userIDs),
		"users_enqueued", result.UsersEnqueued,
		"tasks_created", result.TasksCreated,
	)

	return result, nil
}
