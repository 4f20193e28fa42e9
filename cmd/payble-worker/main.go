package main

import (
	"context"
	"errors"
	"os"
	"time"

	"payble/internal/backend"
	"payble/internal/cli"
	applog "payble/internal/log"
	"payble/internal/services"
	gsheet "payble/internal/sheets/google"
	"payble/internal/worker"
)

// refreshCoalesceWindow groups bursts of refresh messages into one export.
const refreshCoalesceWindow = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting payble-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err)
		os.Exit(1)
	}
	if res.Publisher == nil {
		logger.Error("AMQP is required for the worker but could not be initialized", "url_set", cfg.AMQPURL != "")
		_ = res.Cleanup()
		os.Exit(1)
	}
	res.Caches.StartCleanup(5 * time.Minute)

	sheetsClient, err := gsheet.NewClient(context.Background(), gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleInsightsSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		_ = res.Cleanup()
		os.Exit(1)
	}

	insights := services.NewInsightsService(res.Backend, res.Settings, cfg.ForecastMonths)
	exporter := worker.NewExportWorker(insights, sheetsClient, refreshCoalesceWindow, cfg.Location())

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Performing startup export")
	if err := exporter.Export(ctx); err != nil {
		logger.Error("Startup export failed", "error", err)
	}

	go func() {
		if err := res.Publisher.ConsumeRefresh(ctx, exporter.HandleRefresh); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
	}()
	go exporter.RunPeriodic(ctx, cfg.ExportInterval)

	logger.Info("Worker running",
		"queue", cfg.AMQPQueue,
		"sheet", cfg.GoogleInsightsSheetName,
		"export_interval", cfg.ExportInterval)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
