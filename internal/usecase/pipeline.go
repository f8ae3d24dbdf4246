package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"NewsMarkets/internal/config"
	"NewsMarkets/internal/domain"
	"NewsMarkets/internal/ports"
	"NewsMarkets/internal/sources"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Sources     *sources.Registry
	Feeds       ports.FeedFetcher
	Enricher    *Enricher
	Generator   *MarketGenerator
	Checkpoints ports.CheckpointStore
	Publisher   ports.Publisher
	Repository  ports.MarketRepository
	Logger      *slog.Logger
	Config      config.PipelineConfig
	Defaults    domain.MarketDefaults
	OutputDir   string
}

// RunResult summarizes one completed pipeline run.
type RunResult struct {
	Output     Output
	Summary    map[string]int
	OutputFile string
	Elapsed    time.Duration
}

// Pipeline drives one batch run: per-category fetch, bounded-concurrency
// article processing, dedup, quota, artifact assembly, publish.
//
// Within a category, worker results accumulate in completion order, not
// submission order; run-to-run output ordering varies, and determinism of
// content comes from the idempotent dedup and quota passes.
type Pipeline struct {
	sources     *sources.Registry
	feeds       ports.FeedFetcher
	enricher    *Enricher
	generator   *MarketGenerator
	checkpoints ports.CheckpointStore
	publisher   ports.Publisher
	repository  ports.MarketRepository
	logger      *slog.Logger
	cfg         config.PipelineConfig
	defaults    domain.MarketDefaults
	outputDir   string
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		sources:     deps.Sources,
		feeds:       deps.Feeds,
		enricher:    deps.Enricher,
		generator:   deps.Generator,
		checkpoints: deps.Checkpoints,
		publisher:   deps.Publisher,
		repository:  deps.Repository,
		logger:      deps.Logger,
		cfg:         deps.Config,
		defaults:    deps.Defaults,
		outputDir:   deps.OutputDir,
	}
}

// Run executes the full batch. Partial success is still success: failing
// feeds, articles, or generation calls shrink the output, while only a
// failure to enumerate categories aborts the run.
func (p *Pipeline) Run(ctx context.Context) (RunResult, error) {
	start := time.Now()
	p.info("starting pipeline run")

	if p.sources == nil || p.feeds == nil || p.enricher == nil || p.generator == nil {
		return RunResult{}, fmt.Errorf("pipeline is missing required collaborators")
	}

	categories := p.sources.Categories()
	var allMarkets []domain.Market

	for _, category := range categories {
		if p.checkpoints != nil {
			if saved, ok := p.checkpoints.Load(category); ok && len(saved) > 0 {
				p.info("loaded markets from checkpoint", "category", category, "count", len(saved))
				allMarkets = append(allMarkets, saved...)
				continue
			}
		}

		feeds, err := p.sources.FeedsFor(category)
		if err != nil {
			return RunResult{}, fmt.Errorf("enumerate category %s: %w", category, err)
		}

		markets := p.processCategory(ctx, category, feeds)

		if p.checkpoints != nil {
			p.checkpoints.Save(category, markets)
		}
		allMarkets = append(allMarkets, markets...)
	}

	// The same story can surface under two categories; dedupe and re-limit
	// once more across the whole batch.
	unique := Deduplicate(allMarkets)
	limited := LimitPerCategory(unique, p.cfg.MarketsPerCategory)

	output := FormatOutput(limited)
	timestamp := time.Now().Format("20060102_150405")
	outputFile := p.persistOutput(output, timestamp)

	p.publish(ctx, limited, timestamp)
	p.audit(ctx, limited)

	summary := Summary(limited)
	elapsed := time.Since(start)
	p.writeSummary(summary, len(categories), len(limited), elapsed, timestamp)

	p.info("pipeline completed", "markets", len(limited), "summary", summary, "elapsed", elapsed)

	return RunResult{
		Output:     output,
		Summary:    summary,
		OutputFile: outputFile,
		Elapsed:    elapsed,
	}, nil
}

// processCategory fetches the category's feeds sequentially, dispatches
// every article to the enrich+generate path on a bounded worker pool, then
// dedupes and truncates the survivors.
func (p *Pipeline) processCategory(ctx context.Context, category string, feeds []config.FeedConfig) []domain.Market {
	p.info("processing category", "category", category, "feeds", len(feeds))

	var articles []domain.RawArticle
	for _, feedCfg := range feeds {
		articles = append(articles, p.fetchFeed(ctx, feedCfg)...)
	}
	p.info("collected articles", "category", category, "count", len(articles))

	workers := p.cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		markets []domain.Market
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for _, art := range articles {
		art := art
		group.Go(func() error {
			market, ok := p.processArticle(groupCtx, art)
			if !ok {
				return nil
			}
			mu.Lock()
			markets = append(markets, market)
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	unique := Deduplicate(markets)
	if len(unique) > p.cfg.MarketsPerCategory && p.cfg.MarketsPerCategory > 0 {
		unique = unique[:p.cfg.MarketsPerCategory]
	}

	p.info("category finished", "category", category, "markets", len(unique))
	return unique
}

// processArticle runs one article through enrich and generate. A dropped
// article is a unit of lost work, never a pipeline error.
func (p *Pipeline) processArticle(ctx context.Context, art domain.RawArticle) (domain.Market, bool) {
	enriched := p.enricher.Enrich(ctx, art)

	draft, err := p.generator.Generate(ctx, enriched)
	if err != nil {
		p.warn("no market produced for article", "title", art.Title, "error", err)
		return domain.Market{}, false
	}

	return domain.NewMarket(draft, p.defaults), true
}

// fetchFeed retrieves one feed with bounded retry, then walks the
// configured fallback URLs. Entries are recency-filtered and stamped with
// the feed's category.
func (p *Pipeline) fetchFeed(ctx context.Context, feedCfg config.FeedConfig) []domain.RawArticle {
	var collected []domain.RawArticle

	for attempt := 0; attempt < p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			p.warn("retrying feed", "url", feedCfg.URL, "attempt", attempt+1, "max", p.cfg.MaxRetries)
			time.Sleep(p.cfg.FeedRetryDelay())
		}

		entries, err := p.feeds.Fetch(ctx, feedCfg.URL)
		if err != nil {
			p.warn("feed fetch failed", "url", feedCfg.URL, "error", err)
			continue
		}

		collected = p.prepareArticles(entries, feedCfg.Category)
		break
	}

	if len(collected) == 0 && len(feedCfg.FallbackURLs) > 0 {
		p.info("using fallback urls", "category", feedCfg.Category)
		for _, fallback := range feedCfg.FallbackURLs {
			entries, err := p.feeds.Fetch(ctx, fallback)
			if err != nil {
				p.warn("fallback feed fetch failed", "url", fallback, "error", err)
				continue
			}
			if collected = p.prepareArticles(entries, feedCfg.Category); len(collected) > 0 {
				break
			}
		}
	}

	p.debug("feed processed", "url", feedCfg.URL, "articles", len(collected))
	return collected
}

// prepareArticles keeps entries within the recency window and stamps the
// category.
func (p *Pipeline) prepareArticles(entries []domain.RawArticle, category string) []domain.RawArticle {
	cutoff := time.Now().UTC().AddDate(0, 0, -p.cfg.RecentDays)

	recent := make([]domain.RawArticle, 0, len(entries))
	for _, entry := range entries {
		if entry.PublishedAt.Before(cutoff) {
			continue
		}
		entry.Category = category
		recent = append(recent, entry)
	}
	return recent
}

// persistOutput writes the artifact. A write failure loses the artifact but
// never aborts the run.
func (p *Pipeline) persistOutput(output Output, timestamp string) string {
	if p.outputDir == "" {
		return ""
	}

	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		p.warn("cannot create output directory", "dir", p.outputDir, "error", err)
		return ""
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		p.warn("cannot marshal output", "error", err)
		return ""
	}

	path := filepath.Join(p.outputDir, fmt.Sprintf("prediction_markets_%s.json", timestamp))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		p.warn("cannot write output", "path", path, "error", err)
		return ""
	}

	p.info("output saved", "path", path)
	return path
}

// publish pushes the batch to the content store after the artifact is on
// disk. Unsent markets are preserved to a sibling backup file for manual
// resubmission; publish failure never fails the run.
func (p *Pipeline) publish(ctx context.Context, markets []domain.Market, timestamp string) {
	if p.publisher == nil || !p.publisher.IsConfigured() || len(markets) == 0 {
		return
	}

	sent := p.publisher.SendMarkets(ctx, markets, true)
	if len(sent) == len(markets) {
		return
	}

	sentIDs := make(map[string]struct{}, len(sent))
	for _, market := range sent {
		sentIDs[market.ID] = struct{}{}
	}

	var unsent []domain.Market
	for _, market := range markets {
		if _, ok := sentIDs[market.ID]; !ok {
			unsent = append(unsent, market)
		}
	}

	p.warn("some markets were not published", "unsent", len(unsent))
	if p.outputDir == "" {
		return
	}

	data, err := json.MarshalIndent(unsent, "", "  ")
	if err != nil {
		p.warn("cannot marshal unsent markets", "error", err)
		return
	}

	path := filepath.Join(p.outputDir, fmt.Sprintf("unsent_markets_%s.json", timestamp))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		p.warn("cannot write unsent markets backup", "path", path, "error", err)
		return
	}
	p.info("unsent markets backed up", "path", path)
}

// audit records produced markets in the history repository, best effort.
func (p *Pipeline) audit(ctx context.Context, markets []domain.Market) {
	if p.repository == nil || len(markets) == 0 {
		return
	}
	if err := p.repository.SaveMarkets(ctx, markets); err != nil {
		p.warn("cannot record markets in repository", "error", err)
	}
}

// runSummary is the target-vs-actual summary artifact written per run.
type runSummary struct {
	PipelineRun struct {
		Timestamp                string  `json:"timestamp"`
		TargetMarketsPerCategory int     `json:"targetMarketsPerCategory"`
		TargetCategories         int     `json:"targetCategories"`
		TargetTotalMarkets       int     `json:"targetTotalMarkets"`
		ActualTotalMarkets       int     `json:"actualTotalMarkets"`
		SuccessRate              string  `json:"successRate"`
		ExecutionTimeMinutes     float64 `json:"executionTimeMinutes"`
	} `json:"pipelineRun"`
	CategoryBreakdown map[string]int `json:"categoryBreakdown"`
}

func (p *Pipeline) writeSummary(summary map[string]int, categories, produced int, elapsed time.Duration, timestamp string) {
	if p.outputDir == "" {
		return
	}

	target := categories * p.cfg.MarketsPerCategory

	var artifact runSummary
	artifact.PipelineRun.Timestamp = timestamp
	artifact.PipelineRun.TargetMarketsPerCategory = p.cfg.MarketsPerCategory
	artifact.PipelineRun.TargetCategories = categories
	artifact.PipelineRun.TargetTotalMarkets = target
	artifact.PipelineRun.ActualTotalMarkets = produced
	artifact.PipelineRun.SuccessRate = "0.0%"
	if target > 0 {
		artifact.PipelineRun.SuccessRate = fmt.Sprintf("%.1f%%", float64(produced)/float64(target)*100)
	}
	artifact.PipelineRun.ExecutionTimeMinutes = elapsed.Minutes()
	artifact.CategoryBreakdown = summary

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		p.warn("cannot marshal run summary", "error", err)
		return
	}

	path := filepath.Join(p.outputDir, fmt.Sprintf("pipeline_summary_%s.json", timestamp))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		p.warn("cannot write run summary", "path", path, "error", err)
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
