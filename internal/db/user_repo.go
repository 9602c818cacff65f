package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"socialsync/internal/types"
)

// UserRepository is the read-only view of the user directory the sync engine
// needs. The users table itself is owned by the account system; the enqueuer
// only lists the identifiers of users whose stats should be synchronized.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository backed by the given
// database connection (pool or transaction).
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// ListActiveIDs returns the identifiers of all active users.
//
// SQL: SELECT id FROM users WHERE status = 'active'
//
// Returns an empty slice (not nil) when no active users exist, so callers
// can distinguish "no users" from a directory failure.
func (r *UserRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id FROM users WHERE status = 'active'`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeEnqueueUnavailable, "failed to list active users", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, types.NewAppError(types.ErrCodeEnqueueUnavailable, "failed to scan user id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeEnqueueUnavailable, "error iterating active users", err)
	}

	return ids, nil
}

// PlatformHandle returns the user's account handle on the given platform
// (GitHub login, Twitter username, Instagram account ID, YouTube channel
// ID), read from the user_accounts link table.
//
// SQL: SELECT handle FROM user_accounts WHERE user_id = $1 AND platform = $2
//
// Returns a not-found error when the user has not linked the platform;
// adapters surface this as a task failure.
func (r *UserRepository) PlatformHandle(ctx context.Context, userID string, platform types.Platform) (string, error) {
	var handle string
	err := r.db.QueryRow(ctx,
		`SELECT handle FROM user_accounts WHERE user_id = $1 AND platform = $2`,
		userID,
		string(platform),
	).Scan(&handle)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", types.NewAppError(
				types.ErrCodeUpstreamPlatform,
				fmt.Sprintf("user %s has no linked %s account", userID, platform),
				err,
			)
		}
		return "", types.NewAppError(types.ErrCodeInternalDB, "failed to look up platform handle", err)
	}
	return handle, nil
}
