package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"pocketbook/internal/config"
	applog "pocketbook/internal/log"
	"pocketbook/internal/services"
	"pocketbook/internal/storage"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting rollover-worker", applog.FieldComponent, applog.ComponentRollover)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			applog.FieldComponent, applog.ComponentRollover, applog.FieldError, err)
		os.Exit(1)
	}

	sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			applog.FieldComponent, applog.ComponentStorage,
			applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer sqliteRepo.Close()

	processor := services.NewRolloverProcessor(sqliteRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	run := func() {
		count, err := processor.ProcessAll(ctx, time.Now())
		if err != nil {
			logger.Error("Rollover processing failed",
				applog.FieldComponent, applog.ComponentRollover, applog.FieldError, err)
		}
		logger.Info("Rollover processing complete",
			applog.FieldComponent, applog.ComponentRollover, "goals_created", count)
	}

	// Catch up on startup: worked months are skipped via the per-user
	// markers, so running early is harmless.
	run()

	// The cron schedule fires shortly after each month boundary; the
	// interval ticker is a fallback for hosts that slept through it.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RolloverCronSpec, run); err != nil {
		logger.Error("Invalid rollover cron spec",
			applog.FieldComponent, applog.ComponentRollover,
			applog.FieldError, err, "spec", cfg.RolloverCronSpec)
		os.Exit(1)
	}
	scheduler.Start()

	ticker := time.NewTicker(cfg.RolloverInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received",
			applog.FieldComponent, applog.ComponentRollover, "signal", sig.String())
	case <-ctx.Done():
	}

	cancel()
	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		logger.Warn("Shutdown timeout reached", applog.FieldComponent, applog.ComponentRollover)
	}
	logger.Info("Rollover-worker shutdown complete", applog.FieldComponent, applog.ComponentRollover)
}
