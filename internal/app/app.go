package app

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"NewsMarkets/internal/config"
	"NewsMarkets/internal/domain"
	"NewsMarkets/internal/infrastructure/article"
	"NewsMarkets/internal/infrastructure/checkpoint"
	"NewsMarkets/internal/infrastructure/feed"
	"NewsMarkets/internal/infrastructure/llm"
	"NewsMarkets/internal/infrastructure/publish"
	"NewsMarkets/internal/infrastructure/storage"
	"NewsMarkets/internal/logging"
	"NewsMarkets/internal/ports"
	"NewsMarkets/internal/sources"
	"NewsMarkets/internal/usecase"
)

// Application wires configuration to the pipeline and owns shared resources.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	db       *sql.DB
}

// New builds a runnable application instance. Every collaborator is
// constructed here and passed in explicitly; nothing reads ambient state
// mid-call.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := sources.NewRegistry(cfg.Feeds)
	timeout := cfg.Pipeline.Timeout()

	feedFetcher := feed.NewFetcher(&http.Client{Timeout: timeout})
	pageFetcher := article.NewPageFetcher(&http.Client{Timeout: timeout})
	extractor := article.NewTextExtractor()

	enricher := usecase.NewEnricher(pageFetcher, extractor,
		cfg.Pipeline.MaxRetries, 2*time.Second,
		baseLogger.With("component", "enricher"))

	var provider ports.Generator
	if cfg.LLM.APIKey != "" {
		provider = llm.NewClient(cfg.LLM, timeout)
	}

	generator := usecase.NewMarketGenerator(provider, usecase.GeneratorConfig{
		MaxRetries:     cfg.Pipeline.MaxRetries,
		Vocabulary:     cfg.Tags,
		CategoryTags:   cfg.CategoryTags,
		RetryDelay:     5 * time.Second,
		RateLimitBase:  time.Minute,
		RateLimitStep:  30 * time.Second,
		RateLimitDelay: cfg.Pipeline.RateLimitDelay(),
	}, baseLogger.With("component", "generator"))

	checkpoints := checkpoint.NewStore(cfg.Pipeline.CheckpointDirectory,
		baseLogger.With("component", "checkpoint"))
	publisher := publish.NewClient(cfg.Publish, baseLogger.With("component", "publish"))

	var repository ports.MarketRepository
	var db *sql.DB
	if cfg.Database.DSN != "" {
		opened, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			baseLogger.Warn("cannot open audit database, continuing without it", "error", err)
		} else {
			db = opened
			repository = storage.NewPostgresRepository(db)
		}
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Sources:     registry,
		Feeds:       feedFetcher,
		Enricher:    enricher,
		Generator:   generator,
		Checkpoints: checkpoints,
		Publisher:   publisher,
		Repository:  repository,
		Logger:      baseLogger.With("component", "pipeline"),
		Config:      cfg.Pipeline,
		Defaults: domain.MarketDefaults{
			CreatorID:       cfg.Output.CreatorID,
			InitialYesCount: cfg.Output.InitialYesCount,
			InitialNoCount:  cfg.Output.InitialNoCount,
		},
		OutputDir: cfg.Output.Directory,
	})

	return &Application{cfg: cfg, logger: baseLogger, pipeline: pipeline, db: db}
}

// Run performs a single pipeline execution.
func (a *Application) Run(ctx context.Context) error {
	_, err := a.pipeline.Run(ctx)
	return err
}

// Close releases shared resources.
func (a *Application) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}
