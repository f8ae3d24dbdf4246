package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"NewsMarkets/internal/app"
	"NewsMarkets/internal/config"
	"NewsMarkets/internal/logging"
)

func main() {
	_ = godotenv.Load()

	outputDir := flag.String("output-dir", "", "override artifact output directory")
	logLevel := flag.String("log-level", "", "override logging level")
	flag.Parse()

	cfg := config.Load()
	if *outputDir != "" {
		cfg.Output.Directory = *outputDir
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger := logging.New(cfg.Logging.Level)

	if cfg.LLM.APIKey == "" {
		logger.Error("LLM_API_KEY environment variable not set")
		os.Exit(1)
	}

	application := app.New(cfg, logger)
	defer application.Close()

	if err := application.Run(context.Background()); err != nil {
		logger.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}
}
