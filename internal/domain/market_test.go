package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMarket(t *testing.T) {
	t.Parallel()

	draft := MarketDraft{
		Title:       "Will bitcoin close above 100k this year?",
		Description: "Resolution criteria and background.",
		EndTime:     "2026-12-31T23:59:59Z",
		Tags:        []string{"Crypto", "Finance", "Currency"},
		SourceArticle: SourceArticle{
			Title:       "Bitcoin hits new high",
			Link:        "https://example.org/btc",
			PublishedAt: time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
			Source:      "Example News",
			Category:    "Crypto",
		},
	}
	defaults := MarketDefaults{CreatorID: "kalshi-generator", InitialYesCount: 50000, InitialNoCount: 50000}

	m := NewMarket(draft, defaults)

	assert.Equal(t, "Will bitcoin close above 100k this year?", m.Title)
	assert.Equal(t, "Crypto", m.Category)
	assert.Equal(t, StatusOpen, m.Status)
	assert.Equal(t, "2026-12-31T23:59:59Z", m.EndTime)
	assert.Equal(t, m.EndTime, m.ResolutionTime)
	assert.Nil(t, m.Result)
	assert.Equal(t, 50000, m.YesCount)
	assert.Equal(t, 50000, m.NoCount)
	assert.Equal(t, 100000, m.TotalVolume)
	assert.Equal(t, 0.5, m.CurrentYesProbability)
	assert.Equal(t, 0.5, m.CurrentNoProbability)
	assert.Equal(t, "kalshi-generator", m.CreatorID)
	assert.Equal(t, "https://example.org/btc", m.ResolutionSource)
	assert.Equal(t, m.CreatedAt, m.StartTime)

	_, err := time.Parse(time.RFC3339, m.CreatedAt)
	require.NoError(t, err)
}

func TestNewMarketIDsAreUnique(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		m := NewMarket(MarketDraft{}, MarketDefaults{})
		require.Regexp(t, `^market_[0-9a-f]{8}$`, m.ID)
		require.False(t, seen[m.ID], "duplicate market id %s", m.ID)
		seen[m.ID] = true
	}
}
