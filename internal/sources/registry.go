package sources

import (
	"fmt"

	"NewsMarkets/internal/config"
)

// Registry maps categories to their ordered feed descriptors. It carries no
// logic beyond grouping and lookup.
type Registry struct {
	order []string
	feeds map[string][]config.FeedConfig
}

// NewRegistry groups configured feeds by category, preserving first-seen
// category order and per-category feed order.
func NewRegistry(feeds []config.FeedConfig) *Registry {
	r := &Registry{feeds: map[string][]config.FeedConfig{}}
	for _, feed := range feeds {
		if _, ok := r.feeds[feed.Category]; !ok {
			r.order = append(r.order, feed.Category)
		}
		r.feeds[feed.Category] = append(r.feeds[feed.Category], feed)
	}
	return r
}

// Categories returns category names in first-seen order.
func (r *Registry) Categories() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// FeedsFor returns the feed descriptors for a category or an error if none
// are registered.
func (r *Registry) FeedsFor(category string) ([]config.FeedConfig, error) {
	feeds, ok := r.feeds[category]
	if !ok {
		return nil, fmt.Errorf("category %s has no registered feeds", category)
	}
	return feeds, nil
}
