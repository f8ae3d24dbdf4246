package usecase

import (
	"NewsMarkets/internal/domain"
)

// Output is the persisted artifact envelope. The flat markets list is the
// only meaningful payload; the nesting is a fixed, stable shape consumers
// depend on.
type Output struct {
	EventsData []EventsGroup `json:"eventsData"`
}

// EventsGroup wraps the flat market list inside the envelope.
type EventsGroup struct {
	Markets []domain.Market `json:"markets"`
}

// FormatOutput assembles the final artifact structure.
func FormatOutput(markets []domain.Market) Output {
	if markets == nil {
		markets = []domain.Market{}
	}
	return Output{EventsData: []EventsGroup{{Markets: markets}}}
}

// Summary counts markets per category.
func Summary(markets []domain.Market) map[string]int {
	summary := make(map[string]int)
	for _, market := range markets {
		summary[market.Category]++
	}
	return summary
}
