// Package main is the entrypoint for the sync engine HTTP server.
//
// It wires configuration, the database pool, repositories, platform
// adapters, and the scheduler components, then serves the trigger and
// health endpoints. With SCHEDULE_MODE enabled it also runs an in-process
// cron that fires the sync cycle at each configured hour, for deployments
// without an external scheduler.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"socialsync/internal/api/handlers"
	"socialsync/internal/config"
	"socialsync/internal/core"
	"socialsync/internal/db"
	"socialsync/internal/platforms"
	"socialsync/internal/scheduler"
	"socialsync/internal/types"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("sync engine starting",
		"environment", cfg.Environment,
		"platforms", cfg.Sync.Platforms,
		"sync_hours", cfg.Sync.Hours,
		"schedule_mode", cfg.Sync.ScheduleMode,
	)

	ctx := context.Background()

	pool, err := newPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize database pool", "error", err)
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
		Metrics:         newMetrics(ctx, cfg, logger),
		Platforms:       cfg.SyncPlatforms(),
		Hours:           cfg.Sync.Hours,
		WindowTolerance: cfg.Sync.WindowTolerance,
		BatchSize:       cfg.Sync.BatchSize,
		RetentionDays:   cfg.Sync.RetentionDays,
		ClaimTTL:        cfg.Sync.ClaimTTL,
		Logger:          logger,
	})

	server, err := core.NewServer(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}
	server.HealthProbes = []core.HealthProbe{&core.DatabaseProbe{Pinger: pool}}
	server.MountRoutes(handlers.NewTriggerHandler(runner, logger, nil).Handle)

	var scheduleCron *cron.Cron
	if cfg.Sync.ScheduleMode {
		scheduleCron, err = startSchedule(cfg, runner, logger)
		if err != nil {
			logger.Error("failed to start schedule mode", "error", err)
			os.Exit(1)
		}
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "port", cfg.Server.Port)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if scheduleCron != nil {
		// Stop firing new cycles; wait for an in-flight cycle to finish.
		cronCtx := scheduleCron.Stop()
		select {
		case <-cronCtx.Done():
		case <-shutdownCtx.Done():
			logger.Warn("schedule cycle still running at shutdown deadline")
		}
	}

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	_ = server.Shutdown(shutdownCtx)
}

// newLogger builds the process-wide JSON logger at the configured level.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// newPool creates the pgx pool with the configured sizing limits.
func newPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL.Unmask())
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxConns)
	poolCfg.MinConns = int32(cfg.Database.MinConns)
	poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// newAdapters builds one adapter per configured platform, each with its own
// circuit breaker so one flapping platform cannot trip the others.
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

// newMetrics creates the CloudWatch cycle metrics publisher, or nil when
// metrics are disabled or the AWS SDK cannot be configured.
func newMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) scheduler.CycleMetrics {
	if !cfg.Metrics.Enabled {
		return nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Metrics.Region))
	if err != nil {
		logger.Warn("metrics disabled: failed to load AWS SDK config", "error", err)
		return nil
	}

	return core.NewCloudWatchCycleMetrics(
		cloudwatch.NewFromConfig(awsCfg),
		cfg.Metrics.Namespace,
		logger,
	)
}

// startSchedule runs the in-process cron firing one sync cycle at the top
// of each configured hour. The HTTP trigger stays available alongside it;
// duplicate firings are absorbed by the task store's idempotent inserts.
func startSchedule(cfg *config.Config, runner *scheduler.Runner, logger *slog.Logger) (*cron.Cron, error) {
	hourSpecs := make([]string, len(cfg.Sync.Hours))
	for i, h := range cfg.Sync.Hours {
		hourSpecs[i] = fmt.Sprintf("%d", h)
	}
	spec := fmt.Sprintf("0 %s * * *", strings.Join(hourSpecs, ","))

	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(spec, func() {
		ctx := types.WithRequestID(context.Background(), "schedule-"+time.Now().UTC().Format("2006-01-02T15:04"))
		if _, err := runner.RunCycle(ctx, time.Now().UTC()); err != nil {
			logger.ErrorContext(ctx, "scheduled sync cycle failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("registering cron spec %q: %w", spec, err)
	}

	c.Start()
	logger.Info("schedule mode active", "cron_spec", spec)
	return c, nil
}
