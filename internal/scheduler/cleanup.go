package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultRetentionDays is how long terminal tasks are kept before cleanup.
const DefaultRetentionDays = 7

// CleanupTaskStore abstracts the purge and reclaim operations the cleanup
// job needs from the task repository.
type CleanupTaskStore interface {
	DeleteTerminalOlderThan(ctx context.Context, days int) (int, error)
	ReclaimStale(ctx context.Context, ttl time.Duration) (int, error)
}

// Cleanup reclaims storage from terminal tasks and returns abandoned claims
// to the queue. It exists purely for hygiene: dedup keys include the sync
// date, so stale completed rows never block re-creation for a later date.
type Cleanup struct {
	tasks  CleanupTaskStore
	logger *slog.Logger
}

// NewCleanup creates a new Cleanup job.
func NewCleanup(tasks CleanupTaskStore, logger *slog.Logger) *Cleanup {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleanup{
		tasks:  tasks,
		logger: logger,
	}
}

// CleanupOldTasks deletes completed and failed tasks whose last update is
// older than retentionDays. Pending and processing rows are never removed
// regardless of age. Returns the count deleted.
func (c *Cleanup) CleanupOldTasks(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}

	count, err := c.tasks.DeleteTerminalOlderThan(ctx, retentionDays)
	if err != nil {
		return 0, fmt.Errorf("deleting terminal tasks: %w", err)
	}

	if count > 0 {
		c.logger.InfoContext(ctx, "purged terminal tasks",
			"count", count,
			"retention_days", retentionDays,
		)
	}

	return count, nil
}

// ReclaimAbandoned returns processing tasks whose claim has gone stale
// (no update for longer than ttl) to pending, keeping the queue
// self-healing after a crashed or deadline-cut processor. Returns the count
// reclaimed.
func (c *Cleanup) ReclaimAbandoned(ctx context.Context, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}

	count, err := c.tasks.ReclaimStale(ctx, ttl)
	if err != nil {
		return 0, fmt.Errorf("reclaiming stale claims: %w", err)
	}

	if count > 0 {
		c.logger.WarnContext(ctx, "reclaimed abandoned claims",
			"count", count,
			"claim_ttl", ttl.String(),
		)
	}

	return count, nil
}
