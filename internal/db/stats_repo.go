package db

import (
	"context"

	"socialsync/internal/types"
)

// StatsRepository provides data access for the platform_stats table, which
// holds one row per (user, platform, day) with the follower and activity
// counts fetched by a successful sync.
type StatsRepository struct {
	db DBTX
}

// NewStatsRepository creates a new StatsRepository backed by the given
// database connection (pool or transaction).
func NewStatsRepository(db DBTX) *StatsRepository {
	return &StatsRepository{db: db}
}

// UpsertDaily records the outcome of a successful sync. Re-syncing the same
// (user, platform, day) overwrites the previous counts; a later sync within
// the same day is the fresher observation.
func (r *StatsRepository) UpsertDaily(ctx context.Context, stat *types.PlatformStat) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO platform_stats (user_id, platform, stat_date, followers, activity, synced_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 ON CONFLICT (user_id, platform, stat_date) DO UPDATE SET
		   followers = EXCLUDED.followers,
		   activity = EXCLUDED.activity,
		   synced_at = EXCLUDED.synced_at`,
		stat.UserID,
		string(stat.Platform),
		stat.StatDate,
		stat.Followers,
		stat.Activity,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to upsert platform stat", err)
	}
	return nil
}
