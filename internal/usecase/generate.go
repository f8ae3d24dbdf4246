package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsMarkets/internal/domain"
	"NewsMarkets/internal/ports"
)

// ErrGenerationFailed marks an article that produced no market after the
// retry budget was exhausted. The caller drops the article; nothing is
// queued for later.
var ErrGenerationFailed = errors.New("generation failed after all retries")

// GeneratorConfig bounds the retry/backoff policy and carries the
// controlled tag vocabulary.
type GeneratorConfig struct {
	MaxRetries   int
	Vocabulary   []string
	CategoryTags map[string][]string

	// RetryDelay is the wait after generic failures; rate-limit failures
	// wait RateLimitBase + attempt*RateLimitStep instead. RateLimitDelay is
	// the unconditional spacing after every provider call.
	RetryDelay     time.Duration
	RateLimitBase  time.Duration
	RateLimitStep  time.Duration
	RateLimitDelay time.Duration
}

// MarketGenerator turns enriched articles into validated market drafts via
// the generation provider.
type MarketGenerator struct {
	provider ports.Generator
	cfg      GeneratorConfig
	vocab    map[string]struct{}
	logger   *slog.Logger
}

// NewMarketGenerator builds the generator over a provider.
func NewMarketGenerator(provider ports.Generator, cfg GeneratorConfig, logger *slog.Logger) *MarketGenerator {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	vocab := make(map[string]struct{}, len(cfg.Vocabulary))
	for _, tag := range cfg.Vocabulary {
		vocab[tag] = struct{}{}
	}

	return &MarketGenerator{provider: provider, cfg: cfg, vocab: vocab, logger: logger}
}

// generationAnswer is the schema the provider's answer must satisfy.
type generationAnswer struct {
	Title       string   `json:"title"`
	EndTime     string   `json:"endTime"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Generate calls the provider with bounded retry and returns a draft whose
// provenance fields are copied verbatim from the article. Exhausted retries
// yield ErrGenerationFailed.
func (g *MarketGenerator) Generate(ctx context.Context, article domain.EnrichedArticle) (domain.MarketDraft, error) {
	if g.provider == nil {
		return domain.MarketDraft{}, fmt.Errorf("no generation provider configured")
	}

	prompt := g.buildPrompt(article)

	for attempt := 0; attempt < g.cfg.MaxRetries; attempt++ {
		raw, err := g.provider.Generate(ctx, prompt)
		time.Sleep(g.cfg.RateLimitDelay)

		if err != nil {
			if errors.Is(err, domain.ErrRateLimited) {
				wait := g.cfg.RateLimitBase + time.Duration(attempt)*g.cfg.RateLimitStep
				g.warn("rate limit hit, backing off", "wait", wait, "attempt", attempt+1, "max", g.cfg.MaxRetries)
				time.Sleep(wait)
			} else {
				g.warn("generation call failed", "attempt", attempt+1, "error", err)
				time.Sleep(g.cfg.RetryDelay)
			}
			continue
		}

		answer, err := parseAnswer(raw)
		if err != nil {
			g.warn("unparseable generation answer", "attempt", attempt+1, "error", err)
			time.Sleep(g.cfg.RetryDelay)
			continue
		}

		if err := g.validateAnswer(answer); err != nil {
			g.warn("invalid generation answer", "attempt", attempt+1, "error", err)
			time.Sleep(g.cfg.RetryDelay)
			continue
		}

		return domain.MarketDraft{
			Title:       answer.Title,
			Description: answer.Description,
			EndTime:     answer.EndTime,
			Tags:        answer.Tags,
			SourceArticle: domain.SourceArticle{
				Title:       article.Title,
				Link:        article.Link,
				PublishedAt: article.PublishedAt,
				Source:      article.Source,
				Category:    article.Category,
			},
		}, nil
	}

	return domain.MarketDraft{}, fmt.Errorf("article %s: %w", article.Link, ErrGenerationFailed)
}

// parseAnswer tolerates the JSON being wrapped in a fenced code block.
func parseAnswer(raw string) (generationAnswer, error) {
	var answer generationAnswer
	if err := json.Unmarshal([]byte(extractJSON(raw)), &answer); err != nil {
		return generationAnswer{}, fmt.Errorf("decode answer: %w", err)
	}
	return answer, nil
}

func extractJSON(text string) string {
	for _, fence := range []string{"```json", "```"} {
		if start := strings.Index(text, fence); start >= 0 {
			rest := text[start+len(fence):]
			if end := strings.Index(rest, "```"); end >= 0 {
				return strings.TrimSpace(rest[:end])
			}
			return strings.TrimSpace(rest)
		}
	}
	return strings.TrimSpace(text)
}

func (g *MarketGenerator) validateAnswer(answer generationAnswer) error {
	if answer.Title == "" {
		return fmt.Errorf("missing required field: title")
	}
	if answer.EndTime == "" {
		return fmt.Errorf("missing required field: endTime")
	}
	if answer.Description == "" {
		return fmt.Errorf("missing required field: description")
	}
	if len(answer.Tags) != 3 {
		return fmt.Errorf("tags must have exactly 3 entries, got %d", len(answer.Tags))
	}
	for _, tag := range answer.Tags {
		if _, ok := g.vocab[tag]; !ok {
			return fmt.Errorf("tag %q is not in the controlled vocabulary", tag)
		}
	}
	if !strings.HasSuffix(answer.EndTime, "Z") || !strings.Contains(answer.EndTime, "T") {
		return fmt.Errorf("endTime %q is not a UTC instant", answer.EndTime)
	}
	if _, err := time.Parse(time.RFC3339, answer.EndTime); err != nil {
		return fmt.Errorf("endTime %q does not parse: %w", answer.EndTime, err)
	}
	return nil
}

func (g *MarketGenerator) buildPrompt(article domain.EnrichedArticle) string {
	preferred := g.cfg.CategoryTags[article.Category]
	preferredLine := "General subcategories"
	if len(preferred) > 0 {
		preferredLine = strings.Join(preferred, ", ")
	}

	var b strings.Builder
	b.WriteString("You are an expert at creating prediction market questions based on news articles.\n")
	b.WriteString("I'll provide you with a news article, and I need you to create a prediction market question.\n\n")
	b.WriteString("Here's the article information:\n")
	fmt.Fprintf(&b, "Title: %s\n", article.Title)
	fmt.Fprintf(&b, "Category: %s\n", article.Category)
	fmt.Fprintf(&b, "Published Date: %s\n", article.PublishedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Source: %s\n\n", article.Source)
	fmt.Fprintf(&b, "Content:\n%s\n\n", article.ProcessedContent)
	b.WriteString("CATEGORY CONTEXT:\n")
	fmt.Fprintf(&b, "This article is categorized under %q. When selecting tags, prioritize subcategories from this category:\n%s\n\n", article.Category, preferredLine)
	b.WriteString("Please create:\n")
	b.WriteString("1. A clear yes/no prediction question based on the article (title)\n")
	b.WriteString("2. A specific timeframe with a verifiable end date (endTime)\n")
	b.WriteString("3. A detailed explanation suitable for a financial prediction market (description)\n")
	fmt.Fprintf(&b, "4. Select exactly 3 relevant tags from this list: %s\n\n", strings.Join(g.cfg.Vocabulary, ", "))
	b.WriteString("Format your response as a JSON object with these fields:\n")
	b.WriteString("- title: The yes/no prediction question\n")
	b.WriteString("- endTime: The ISO 8601 date when the prediction will be resolved (YYYY-MM-DDThh:mm:ssZ)\n")
	b.WriteString("- description: A detailed explanation (2-3 paragraphs)\n")
	b.WriteString("- tags: Array of exactly 3 tags from the provided list\n\n")
	b.WriteString("IMPORTANT GUIDELINES:\n")
	b.WriteString("- The question must be objectively verifiable at the end date with clear resolution criteria\n")
	b.WriteString("- The timeframe should be reasonable (typically 1-12 months in the future)\n")
	b.WriteString("- The explanation should cover background, what constitutes YES, what constitutes NO, and relevant factors\n")
	b.WriteString("- Choose the 3 most relevant tags from the provided list only\n")
	b.WriteString("- Make sure the question has genuine uncertainty (avoid obvious outcomes)\n\n")
	b.WriteString("JSON RESPONSE FORMAT ONLY:\n")
	return b.String()
}

func (g *MarketGenerator) warn(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Warn(msg, args...)
	}
}
