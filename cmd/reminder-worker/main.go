package main

import (
	"context"
	"flag"
	"os"
	"time"

	"payble/internal/backend"
	"payble/internal/cli"
	applog "payble/internal/log"
	"payble/internal/services"
	"payble/internal/worker"
)

func main() {
	once := flag.Bool("once", false, "run a single reminder pass and exit")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting reminder-worker")

	cfg := cli.LoadAndValidateConfig(logger)
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

	var publisher worker.Publisher
	if res.Publisher != nil {
		publisher = res.Publisher
	} else {
		logger.Info("AMQP disabled - reminders will not trigger an export")
	}
	job := worker.NewReminderJob(services.NewNotificationService(res.Backend, res.Backend), publisher, cfg.Location())

	if *once {
		if _, err := job.Run(context.Background()); err != nil {
			logger.Error("Reminder pass failed", "error", err)
			_ = res.Cleanup()
			os.Exit(1)
		}
		_ = res.Cleanup()
		return
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	scheduler, err := worker.NewScheduler(ctx, cfg.ReminderSchedule, job, cfg.Location())
	if err != nil {
		logger.Error("Invalid reminder schedule", "error", err, "schedule", cfg.ReminderSchedule)
		_ = res.Cleanup()
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("Reminder schedule active",
		"schedule", cfg.ReminderSchedule,
		"timezone", cfg.Location().String(),
		"next_run", scheduler.Next())

	cli.WaitForShutdown(ctx, done)
	scheduler.Stop()
	if err := res.Cleanup(); err != nil {
		logger.Error("Backend cleanup error", "error", err)
	}
	logger.Info("Reminder worker stopped")
}
