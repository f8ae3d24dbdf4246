package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"

	"NewsMarkets/internal/app"
	"NewsMarkets/internal/config"
	"NewsMarkets/internal/infrastructure/health"
	"NewsMarkets/internal/infrastructure/scheduler"
	"NewsMarkets/internal/logging"
)

// newsmarketsd runs the pipeline on an interval and serves health checks.
func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application := app.New(cfg, logger)
	defer application.Close()

	driver := scheduler.NewIntervalScheduler(
		cfg.Scheduler.Interval(),
		cfg.Scheduler.MaxRunRetries,
		logger.With("component", "scheduler"),
	)

	job := func(time.Time) error {
		return application.Run(ctx)
	}
	if err := driver.Start(ctx, job); err != nil {
		logger.Error("cannot start scheduler", "error", err)
		os.Exit(1)
	}
	defer func() { _ = driver.Stop(ctx) }()

	server := health.NewServer(cfg.Output.Directory)
	logger.Info("serving health checks", "addr", cfg.Scheduler.HealthAddr)
	if err := server.Run(cfg.Scheduler.HealthAddr); err != nil {
		logger.Error("health server stopped", "error", err)
		os.Exit(1)
	}
}
