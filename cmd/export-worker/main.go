package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pocketbook/internal/amqp"
	"pocketbook/internal/config"
	"pocketbook/internal/export"
	gsheet "pocketbook/internal/export/google"
	applog "pocketbook/internal/log"
	"pocketbook/internal/storage"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting export-worker", applog.FieldComponent, applog.ComponentExport)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			applog.FieldComponent, applog.ComponentExport, applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the export worker",
			applog.FieldComponent, applog.ComponentExport)
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

	sheetsClient, err := gsheet.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client",
			applog.FieldComponent, applog.ComponentExport, applog.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client",
			applog.FieldComponent, applog.ComponentAMQP, applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := export.NewWorker(sqliteRepo, sheetsClient, export.WorkerConfig{
		PollInterval: cfg.ExportPollInterval,
		BatchSize:    cfg.ExportBatchSize,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Sweep once on startup to drain rows that were written while the
	// worker was down.
	if count, err := exportWorker.Sweep(ctx); err != nil {
		logger.Error("Startup sweep failed",
			applog.FieldComponent, applog.ComponentExport, applog.FieldError, err)
	} else if count > 0 {
		logger.Info("Startup sweep complete",
			applog.FieldComponent, applog.ComponentExport, "exported", count)
	}

	if err := exportWorker.Start(ctx); err != nil {
		logger.Error("Failed to start export worker",
			applog.FieldComponent, applog.ComponentExport, applog.FieldError, err)
		os.Exit(1)
	}

	go func() {
		err := amqpClient.ConsumeExports(ctx, func(msg *amqp.ExportMessage) error {
			return exportWorker.HandleMessage(ctx, msg)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed",
				applog.FieldComponent, applog.ComponentAMQP, applog.FieldError, err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received",
			applog.FieldComponent, applog.ComponentExport, "signal", sig.String())
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := exportWorker.Stop(shutdownCtx); err != nil {
		logger.Warn("Export worker stop timed out",
			applog.FieldComponent, applog.ComponentExport, applog.FieldError, err)
	}
	cancel()
	logger.Info("Export-worker shutdown complete", applog.FieldComponent, applog.ComponentExport)
}
