package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"NewsMarkets/internal/domain"
	"NewsMarkets/internal/ports"
)

const (
	minUsableContent = 500
	contentCeiling   = 8000
	truncationMarker = "..."
)

// Enricher attaches best-effort full text to raw articles. Enrich is total:
// it always returns a usable record, degrading to the cleaned summary when
// every fetch round fails.
type Enricher struct {
	fetcher    ports.PageFetcher
	extractor  ports.TextExtractor
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewEnricher wires the fetch and extract collaborators.
func NewEnricher(fetcher ports.PageFetcher, extractor ports.TextExtractor, maxRetries int, retryDelay time.Duration, logger *slog.Logger) *Enricher {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Enricher{
		fetcher:    fetcher,
		extractor:  extractor,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// Enrich prefers embedded feed content, then fetched article text, then the
// cleaned summary.
func (e *Enricher) Enrich(ctx context.Context, article domain.RawArticle) domain.EnrichedArticle {
	if len(article.RawContent) > minUsableContent {
		return domain.EnrichedArticle{
			RawArticle:       article,
			ProcessedContent: cleanText(article.RawContent),
		}
	}

	if e.fetcher != nil && e.extractor != nil && article.Link != "" {
		for attempt := 0; attempt < e.maxRetries; attempt++ {
			if attempt > 0 {
				e.debug("retrying article fetch", "link", article.Link, "attempt", attempt+1, "max", e.maxRetries)
				time.Sleep(e.retryDelay)
			}

			html, err := e.fetcher.FetchPage(ctx, article.Link)
			if err != nil {
				e.debug("article fetch failed", "link", article.Link, "error", err)
				continue
			}

			if text := e.extractor.ExtractText(html); text != "" {
				return domain.EnrichedArticle{
					RawArticle:       article,
					ProcessedContent: cleanText(text),
				}
			}
		}
		e.debug("could not fetch full content, using summary", "link", article.Link)
	}

	return domain.EnrichedArticle{
		RawArticle:       article,
		ProcessedContent: cleanText(article.Summary),
	}
}

// cleanText collapses whitespace and truncates to the content ceiling with
// an explicit marker.
func cleanText(text string) string {
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) > contentCeiling {
		text = string(runes[:contentCeiling]) + truncationMarker
	}
	return text
}

func (e *Enricher) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
