// Package config defines the process-wide configuration for the sync engine.
// Configuration is loaded once at startup and is immutable thereafter. It
// follows 12-Factor principles: all values come from the environment (with
// optional .env support for local development), and any missing required
// value or invalid format fails the process immediately.
package config

import (
	"time"

	"socialsync/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used to prevent accidental logging of sensitive values.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the specific config subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server    ServerConfig
	Database  DatabaseConfig
	Sync      SyncConfig
	Platforms PlatformConfig
	Metrics   MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required"`

	MaxConns        int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
}

// SyncConfig holds the scheduling, batching, and retry parameters of the
// sync task engine.
type SyncConfig struct {
	// TriggerSecret authenticates external schedule invocations of the
	// trigger endpoint. The handler fails closed when this is empty.
	TriggerSecret SecretString `envconfig:"SYNC_TRIGGER_SECRET"`

	// Platforms is the set of platforms to fan out sync tasks for.
	Platforms []string `envconfig:"SYNC_PLATFORMS" default:"github,twitter,instagram,youtube"`

	// Hours are the UTC hours at which sync enqueueing is allowed.
	Hours []int `envconfig:"SYNC_HOURS" default:"0,6,12,18"`

	// WindowTolerance is how long past a scheduled hour a trigger is still
	// considered on time for that slot.
	WindowTolerance time.Duration `envconfig:"SYNC_WINDOW_TOLERANCE" default:"30m" validate:"min=1m,max=59m"`

	// BatchSize is the number of pending tasks claimed per trigger cycle.
	BatchSize int `envconfig:"SYNC_BATCH_SIZE" default:"10" validate:"min=1"`

	// Parallelism is the worker pool size for processing a claimed batch.
	Parallelism int `envconfig:"SYNC_PARALLELISM" default:"4" validate:"min=1"`

	// MaxAttempts is the number of processing attempts before a task is
	// marked failed.
	MaxAttempts int `envconfig:"SYNC_MAX_ATTEMPTS" default:"3" validate:"min=1"`

	// RetentionDays is how long terminal tasks are kept before cleanup.
	RetentionDays int `envconfig:"SYNC_RETENTION_DAYS" default:"7" validate:"min=1"`

	// ClaimTTL is how long a processing claim may go without an update
	// before the task is considered abandoned and returned to pending.
	ClaimTTL time.Duration `envconfig:"SYNC_CLAIM_TTL" default:"15m"`

	// AdapterTimeout bounds each platform adapter call. A timed-out call
	// counts as a failed attempt.
	AdapterTimeout time.Duration `envconfig:"ADAPTER_TIMEOUT" default:"30s"`

	// ScheduleMode enables the in-process cron that fires the sync cycle at
	// each configured hour, for deployments without an external scheduler.
	ScheduleMode bool `envconfig:"SCHEDULE_MODE" default:"false"`
}

// PlatformConfig holds per-platform API credentials. A platform with no
// credential configured still gets tasks enqueued; its adapter fails the
// task with an upstream error until the credential is provided.
type PlatformConfig struct {
	GitHubToken          SecretString `envconfig:"GITHUB_TOKEN"`
	TwitterBearerToken   SecretString `envconfig:"TWITTER_BEARER_TOKEN"`
	InstagramAccessToken SecretString `envconfig:"INSTAGRAM_ACCESS_TOKEN"`
	YouTubeAPIKey        SecretString `envconfig:"YOUTUBE_API_KEY"`
}

// MetricsConfig holds CloudWatch metrics settings.
type MetricsConfig struct {
	Enabled   bool   `envconfig:"ENABLE_METRICS" default:"false"`
	Namespace string `envconfig:"METRIC_NAMESPACE" default:"SocialSync"`
	Region    string `envconfig:"AWS_REGION" default:"us-east-1"`
}

// SyncPlatforms returns the configured platform list as typed platforms.
// Unknown names have already been rejected by LoadConfig.
func (c *Config) SyncPlatforms() []types.Platform {
	platforms := make([]types.Platform, 0, len(c.Sync.Platforms))
	for _, raw := range c.Sync.Platforms {
		if p, ok := types.ParsePlatform(raw); ok {
			platforms = append(platforms, p)
		}
	}
	return platforms
}
