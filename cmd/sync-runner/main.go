// Package main implements the sync-runner CLI tool for invoking one sync
// cycle directly, bypassing the HTTP trigger.
//
// This tool is intended for local development, manual backfilling, and
// operational debugging.
//
// Usage:
//
//	go run ./cmd/sync-runner
//	go run ./cmd/sync-runner --at=2026-08-31T06:10:00Z
//	go run ./cmd/sync-runner --force
//
// The tool reads its configuration from environment variables (or a .env
// file via godotenv), exactly like the server. --at overrides the cycle
// time, which controls the enqueue window check and the sync date. --force
// bypasses the window check by aligning the cycle time to the nearest
// configured hour, for re-running a missed slot.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"socialsync/internal/config"
	"socialsync/internal/db"
	"socialsync/internal/platforms"
	"socialsync/internal/scheduler"
	"socialsync/internal/types"
)

func main() {
	atFlag := flag.String("at", "", "RFC3339 cycle time override (default: now)")
	forceFlag := flag.Bool("force", false, "align the cycle time to the nearest configured hour, forcing the enqueue window open")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	now := time.Now().UTC()
	if *atFlag != "" {
		now, err = time.Parse(time.RFC3339, *atFlag)
		if err != nil {
			logger.Error("invalid --at value, expected RFC3339", "error", err)
			os.Exit(1)
		}
		now = now.UTC()
	}
	if *forceFlag {
		now = alignToNearestHour(now, cfg.Sync.Hours)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.Database.URL.Unmask())
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	taskRepo := db.NewTaskRepository(pool)
	userRepo := db.NewUserRepository(pool)
	statsRepo := db.NewStatsRepository(pool)

	runner := scheduler.NewRunner(scheduler.RunnerConfig{
		Cleanup:  scheduler.NewCleanup(taskRepo, logger),
		Enqueuer: scheduler.NewEnqueuer(taskRepo, userRepo, logger),
		Processor: scheduler.NewProcessor(scheduler.ProcessorConfig{
			Tasks:          taskRepo,
			Stats:          statsRepo,
			Adapters:       newAdapters(cfg, userRepo),
			MaxAttempts:    cfg.Sync.MaxAttempts,
			AdapterTimeout: cfg.Sync.AdapterTimeout,
			Parallelism:    cfg.Sync.Parallelism,
			Logger:         logger,
		}),
		Platforms:       cfg.SyncPlatforms(),
		Hours:           cfg.Sync.Hours,
		WindowTolerance: cfg.Sync.WindowTolerance,
		BatchSize:       cfg.Sync.BatchSize,
		RetentionDays:   cfg.Sync.RetentionDays,
		ClaimTTL:        cfg.Sync.ClaimTTL,
		Logger:          logger,
	})

	ctx = types.WithRequestID(ctx, "sync-runner-"+now.Format("2006-01-02T15:04"))

	stats, err := runner.RunCycle(ctx, now)
	if err != nil {
		logger.ErrorContext(ctx, "sync cycle failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("cycle complete: created=%d processed=%d cleaned=%d reclaimed=%d\n",
		stats.TasksCreated, stats.TasksProcessed, stats.TasksCleaned, stats.TasksReclaimed)
}

// alignToNearestHour snaps t to the configured hour with the smallest
// absolute distance, keeping the same day, so the window check passes.
func alignToNearestHour(t time.Time, hours []int) time.Time {
	if len(hours) == 0 {
		return t
	}
	best := hours[0]
	bestDist := hourDistance(t.Hour(), hours[0])
	for _, h := range hours[1:] {
		if d := hourDistance(t.Hour(), h); d < bestDist {
			best, bestDist = h, d
		}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), best, 0, 0, 0, time.UTC)
}

// hourDistance returns the circular distance between two hours on a 24h clock.
func hourDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > 12 {
		d = 24 - d
	}
	return d
}

// newAdapters mirrors the server's adapter wiring.
func newAdapters(cfg *config.Config, handles platforms.HandleLookup) map[types.Platform]scheduler.PlatformAdapter {
	httpClient := &http.Client{Timeout: cfg.Sync.AdapterTimeout}
	retry := platforms.DefaultRetryPolicy()

	client := func(name string) *platforms.BaseClient {
		return platforms.NewBaseClient(httpClient, name, retry)
	}

	adapters := make(map[types.Platform]scheduler.PlatformAdapter)
	for _, p := range cfg.SyncPlatforms() {
		switch p {
		case types.PlatformGitHub:
			adapters[p] = platforms.NewGitHubAdapter(client("github"), handles, cfg.Platforms.GitHubToken)
		case types.PlatformTwitter:
			adapters[p] = platforms.NewTwitterAdapter(client("twitter"), handles, cfg.Platforms.TwitterBearerToken)
		case types.PlatformInstagram:
			adapters[p] = platforms.NewInstagramAdapter(client("instagram"), handles, cfg.Platforms.InstagramAccessToken)
		case types.PlatformYouTube:
			adapters[p] = platforms.NewYouTubeAdapter(client("youtube"), handles, cfg.Platforms.YouTubeAPIKey)
		}
	}
	return adapters
}
