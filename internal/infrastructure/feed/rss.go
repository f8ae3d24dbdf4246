package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NewsMarkets/internal/domain"
	"NewsMarkets/internal/ports"
)

// Fetcher pulls RSS 2.0 and Atom feeds over HTTP and flattens their entries
// into raw articles.
type Fetcher struct {
	client *http.Client
}

var _ ports.FeedFetcher = (*Fetcher)(nil)

// NewFetcher wires an HTTP client; timeout defaults to 30s when nil.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{client: client}
}

// Fetch downloads and parses one feed URL. Any transport or parse failure,
// including a well-formed feed with zero entries, is reported as an error so
// the orchestrator's retry/fallback policy can take over.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]domain.RawArticle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsMarkets/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	articles, err := parseFeed(raw)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("no entries found in feed %s", feedURL)
	}

	return articles, nil
}

type rssDocument struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Title string    `xml:"title"`
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Content     string `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
	Source      string `xml:"source"`
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string     `xml:"title"`
	Links     []atomLink `xml:"link"`
	Summary   string     `xml:"summary"`
	Content   string     `xml:"content"`
	Published string     `xml:"published"`
	Updated   string     `xml:"updated"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

func parseFeed(raw []byte) ([]domain.RawArticle, error) {
	var rss rssDocument
	if err := xml.Unmarshal(raw, &rss); err == nil && len(rss.Channel.Items) > 0 {
		return fromRSS(rss), nil
	}

	var atom atomFeed
	if err := xml.Unmarshal(raw, &atom); err == nil && len(atom.Entries) > 0 {
		return fromAtom(atom), nil
	}

	return nil, fmt.Errorf("document is neither RSS nor Atom")
}

func fromRSS(doc rssDocument) []domain.RawArticle {
	source := strings.TrimSpace(doc.Channel.Title)
	if source == "" {
		source = "Unknown Source"
	}

	articles := make([]domain.RawArticle, 0, len(doc.Channel.Items))
	for _, item := range doc.Channel.Items {
		entrySource := strings.TrimSpace(item.Source)
		if entrySource == "" {
			entrySource = source
		}
		articles = append(articles, domain.RawArticle{
			Title:       strings.TrimSpace(item.Title),
			Link:        strings.TrimSpace(item.Link),
			Summary:     strings.TrimSpace(item.Description),
			PublishedAt: parseEntryDate(item.PubDate),
			Source:      entrySource,
			RawContent:  strings.TrimSpace(item.Content),
		})
	}
	return articles
}

func fromAtom(doc atomFeed) []domain.RawArticle {
	source := strings.TrimSpace(doc.Title)
	if source == "" {
		source = "Unknown Source"
	}

	articles := make([]domain.RawArticle, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		published := entry.Published
		if published == "" {
			published = entry.Updated
		}
		articles = append(articles, domain.RawArticle{
			Title:       strings.TrimSpace(entry.Title),
			Link:        pickAtomLink(entry.Links),
			Summary:     strings.TrimSpace(entry.Summary),
			PublishedAt: parseEntryDate(published),
			Source:      source,
			RawContent:  strings.TrimSpace(entry.Content),
		})
	}
	return articles
}

func pickAtomLink(links []atomLink) string {
	for _, link := range links {
		if link.Rel == "" || link.Rel == "alternate" {
			return strings.TrimSpace(link.Href)
		}
	}
	if len(links) > 0 {
		return strings.TrimSpace(links[0].Href)
	}
	return ""
}

var entryDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	time.RFC822Z,
	time.RFC822,
}

// parseEntryDate tries the common feed date layouts; an unparseable value
// defaults to the current time so the entry is not silently dropped by
// recency filtering.
func parseEntryDate(value string) time.Time {
	value = strings.TrimSpace(value)
	if value != "" {
		for _, layout := range entryDateLayouts {
			if parsed, err := time.Parse(layout, value); err == nil {
				return parsed.UTC()
			}
		}
	}
	return time.Now().UTC()
}
