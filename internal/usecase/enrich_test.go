package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsMarkets/internal/domain"
)

type stubPageFetcher struct {
	pages map[string]string
	errs  map[string]error
	calls int
}

func (f *stubPageFetcher) FetchPage(_ context.Context, url string) (string, error) {
	f.calls++
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	if page, ok := f.pages[url]; ok {
		return page, nil
	}
	return "", fmt.Errorf("no page for %s", url)
}

type passthroughExtractor struct{}

func (passthroughExtractor) ExtractText(html string) string {
	return strings.TrimSpace(strings.TrimPrefix(html, "<html>"))
}

func TestEnrichPrefersEmbeddedContent(t *testing.T) {
	t.Parallel()

	fetcher := &stubPageFetcher{}
	e := NewEnricher(fetcher, passthroughExtractor{}, 3, 0, nil)

	long := strings.Repeat("word ", 200)
	enriched := e.Enrich(context.Background(), domain.RawArticle{
		Link:       "https://example.org/a",
		Summary:    "short summary",
		RawContent: long,
	})

	assert.Equal(t, strings.TrimSpace(long), enriched.ProcessedContent)
	assert.Zero(t, fetcher.calls, "embedded content must skip fetching")
}

func TestEnrichFetchesWhenContentTooShort(t *testing.T) {
	t.Parallel()

	fetcher := &stubPageFetcher{pages: map[string]string{
		"https://example.org/a": "<html>full   article\ttext",
	}}
	e := NewEnricher(fetcher, passthroughExtractor{}, 3, 0, nil)

	enriched := e.Enrich(context.Background(), domain.RawArticle{
		Link:       "https://example.org/a",
		Summary:    "short summary",
		RawContent: "tiny",
	})

	assert.Equal(t, "full article text", enriched.ProcessedContent)
	assert.Equal(t, 1, fetcher.calls)
}

func TestEnrichRetriesThenFallsBackToSummary(t *testing.T) {
	t.Parallel()

	fetcher := &stubPageFetcher{errs: map[string]error{
		"https://example.org/a": fmt.Errorf("connection refused"),
	}}
	e := NewEnricher(fetcher, passthroughExtractor{}, 3, 0, nil)

	enriched := e.Enrich(context.Background(), domain.RawArticle{
		Link:    "https://example.org/a",
		Summary: "  the   summary ",
	})

	assert.Equal(t, "the summary", enriched.ProcessedContent)
	assert.Equal(t, 3, fetcher.calls)
}

func TestEnrichIsTotal(t *testing.T) {
	t.Parallel()

	e := NewEnricher(nil, nil, 3, 0, nil)

	enriched := e.Enrich(context.Background(), domain.RawArticle{})

	assert.NotNil(t, enriched.ProcessedContent)
	assert.Equal(t, "", enriched.ProcessedContent)
}

func TestCleanTextTruncatesWithMarker(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", contentCeiling+100)
	cleaned := cleanText(long)

	require.True(t, strings.HasSuffix(cleaned, truncationMarker))
	assert.Len(t, cleaned, contentCeiling+len(truncationMarker))
}

func TestCleanTextCollapsesWhitespace(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a b c", cleanText(" a\n\n b\t\tc "))
}
