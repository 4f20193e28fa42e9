package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"payble/internal/backend"
	"payble/internal/cli"
	apphttp "payble/internal/http"
	applog "payble/internal/log"
	"payble/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	res.Caches.StartCleanup(5 * time.Minute)

	insights := services.NewInsightsService(res.Backend, res.Settings, cfg.ForecastMonths)
	notifications := services.NewNotificationService(res.Backend, res.Backend)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Logger:             logger,
		Store:              res.Backend,
		Insights:           insights,
		Notifications:      notifications,
		Settings:           res.Settings,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Location:           cfg.Location(),
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting payble server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"settings_backend", cfg.SettingsBackend,
		"amqp_enabled", res.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
