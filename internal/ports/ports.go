package ports

import (
	"context"
	"time"

	"NewsMarkets/internal/domain"
)

// FeedFetcher retrieves and parses one feed URL into raw entries. The
// category is attached by the orchestrator, not the fetcher.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]domain.RawArticle, error)
}

// PageFetcher downloads raw article HTML for enrichment.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// TextExtractor pulls readable text out of article HTML. Best effort; an
// unparseable document yields an empty string, never an error.
type TextExtractor interface {
	ExtractText(html string) string
}

// Generator produces a raw model answer for a structured prompt. Quota
// failures are reported as errors wrapping domain.ErrRateLimited.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Publisher pushes finished markets to the remote content store.
type Publisher interface {
	IsConfigured() bool
	HealthCheck(ctx context.Context) (bool, string)
	SendMarkets(ctx context.Context, markets []domain.Market, retryOnError bool) []domain.Market
}

// CheckpointStore persists per-category market snapshots between runs.
// Save is best effort; Load reports absent for both missing and corrupt
// checkpoints.
type CheckpointStore interface {
	Save(category string, markets []domain.Market)
	Load(category string) ([]domain.Market, bool)
}

// MarketRepository records produced markets for audit and history.
type MarketRepository interface {
	SaveMarkets(ctx context.Context, markets []domain.Market) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time) error) error
	Stop(ctx context.Context) error
}
