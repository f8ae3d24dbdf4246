package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RawArticle is a single entry pulled from a categorized feed. Immutable
// once produced by the feed adapter.
type RawArticle struct {
	Title       string
	Link        string
	Summary     string
	PublishedAt time.Time
	Source      string
	Category    string
	RawContent  string
}

// EnrichedArticle is a RawArticle with best-effort full text attached.
// ProcessedContent is always set after enrichment, possibly to the cleaned
// summary when every fetch attempt failed.
type EnrichedArticle struct {
	RawArticle
	ProcessedContent string
}

// SourceArticle is the provenance slice of an article carried on a draft.
type SourceArticle struct {
	Title       string
	Link        string
	PublishedAt time.Time
	Source      string
	Category    string
}

// MarketDraft is a validated generation answer. Drafts only exist after the
// answer passed schema validation; EndTime is the verbatim UTC instant the
// model produced.
type MarketDraft struct {
	Title         string
	Description   string
	EndTime       string
	Tags          []string
	SourceArticle SourceArticle
}

// MarketStatus enumerates market lifecycle states; this system only ever
// creates open markets.
type MarketStatus string

const StatusOpen MarketStatus = "open"

// Market is the final output record. The liquidity and probability fields
// are fixed placeholders at creation; no live market mechanics exist here.
type Market struct {
	ID                    string       `json:"id"`
	Title                 string       `json:"title"`
	Description           string       `json:"description"`
	Category              string       `json:"category"`
	Tags                  []string     `json:"tags"`
	Status                MarketStatus `json:"status"`
	CreatedAt             string       `json:"createdAt"`
	StartTime             string       `json:"startTime"`
	EndTime               string       `json:"endTime"`
	ResolutionTime        string       `json:"resolutionTime"`
	Result                *string      `json:"result"`
	YesCount              int          `json:"yesCount"`
	NoCount               int          `json:"noCount"`
	TotalVolume           int          `json:"totalVolume"`
	CurrentYesProbability float64      `json:"currentYesProbability"`
	CurrentNoProbability  float64      `json:"currentNoProbability"`
	CreatorID             string       `json:"creatorId"`
	ResolutionSource      string       `json:"resolutionSource"`
}

// MarketDefaults carries the fixed constants stamped onto every market.
type MarketDefaults struct {
	CreatorID       string
	InitialYesCount int
	InitialNoCount  int
}

// NewMarket finalizes a draft: assigns a process-unique id, copies category
// and resolution source from the draft's provenance, and populates the
// fixed liquidity placeholders.
func NewMarket(draft MarketDraft, defaults MarketDefaults) Market {
	now := time.Now().UTC().Format(time.RFC3339)

	return Market{
		ID:                    newMarketID(),
		Title:                 draft.Title,
		Description:           draft.Description,
		Category:              draft.SourceArticle.Category,
		Tags:                  draft.Tags,
		Status:                StatusOpen,
		CreatedAt:             now,
		StartTime:             now,
		EndTime:               draft.EndTime,
		ResolutionTime:        draft.EndTime,
		Result:                nil,
		YesCount:              defaults.InitialYesCount,
		NoCount:               defaults.InitialNoCount,
		TotalVolume:           defaults.InitialYesCount + defaults.InitialNoCount,
		CurrentYesProbability: 0.5,
		CurrentNoProbability:  0.5,
		CreatorID:             defaults.CreatorID,
		ResolutionSource:      draft.SourceArticle.Link,
	}
}

func newMarketID() string {
	return "market_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
