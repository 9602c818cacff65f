// Package types defines the shared domain model for the social stats sync
// engine: platforms, sync tasks and their state machine, adapter outcomes,
// and the error taxonomy used across all packages.
package types

import "time"

// Platform identifies an external social-media platform whose statistics
// are synchronized for registered users.
type Platform string

const (
	PlatformGitHub    Platform = "github"
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
)

// AllPlatforms lists every supported platform in a stable order.
func AllPlatforms() []Platform {
	return []Platform{PlatformGitHub, PlatformTwitter, PlatformInstagram, PlatformYouTube}
}

// ParsePlatform validates a raw platform string. Returns the typed platform
// and true when the value names a supported platform.
func ParsePlatform(raw string) (Platform, bool) {
	switch Platform(raw) {
	case PlatformGitHub, PlatformTwitter, PlatformInstagram, PlatformYouTube:
		return Platform(raw), true
	}
	return "", false
}

// TaskStatus is the lifecycle state of a sync task.
//
// Transitions:
//
//	pending -> processing          (atomic claim)
//	processing -> completed        (adapter success)
//	processing -> pending          (adapter failure, attempts < max)
//	processing -> failed           (adapter failure, attempts >= max)
//
// completed and failed are terminal; rows in those states are only ever
// removed by the cleanup job, never transitioned back. The one exception is
// stale-claim reclamation, which returns abandoned processing rows to
// pending after a TTL.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// IsTerminal reports whether the status is completed or failed.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// SyncTask is one unit of scheduled sync work: fetch the statistics of one
// user on one platform for one logical sync date.
//
// At most one non-completed task may exist per (UserID, Platform, SyncDate)
// key; the task repository enforces this with a partial unique index.
type SyncTask struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Platform  Platform   `json:"platform"`
	SyncDate  time.Time  `json:"sync_date"` // date component only, UTC
	Status    TaskStatus `json:"status"`
	Attempts  int        `json:"attempts"`
	LastError *string    `json:"last_error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SyncOutcome is the result of a successful platform adapter call.
// Followers is the platform-specific audience count (GitHub followers,
// Twitter followers, Instagram followers, YouTube subscribers); Activity is
// the platform-specific activity count (contributions, tweets, posts,
// videos).
type SyncOutcome struct {
	Followers int
	Activity  int
}

// PlatformStat is one persisted daily statistics row produced from a
// SyncOutcome after a successful sync.
type PlatformStat struct {
	UserID    string    `json:"user_id"`
	Platform  Platform  `json:"platform"`
	StatDate  time.Time `json:"stat_date"`
	Followers int       `json:"followers"`
	Activity  int       `json:"activity"`
	SyncedAt  time.Time `json:"synced_at"`
}

// SyncStats aggregates the counts of one trigger cycle, reported back to
// the external scheduler in the trigger response.
type SyncStats struct {
	TasksCreated   int `json:"tasks_created"`
	TasksProcessed int `json:"tasks_processed"`
	TasksCleaned   int `json:"tasks_cleaned"`
	TasksReclaimed int `json:"tasks_reclaimed"`
}
