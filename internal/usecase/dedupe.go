package usecase

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"NewsMarkets/internal/domain"
)

// Fingerprint returns the content digest used purely for duplicate
// detection, never for identity or lookup.
func Fingerprint(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// TitleFingerprint digests the case-folded, whitespace-trimmed title.
func TitleFingerprint(title string) string {
	return Fingerprint(strings.TrimSpace(strings.ToLower(title)))
}

// Deduplicate keeps the first occurrence of each market: a market survives
// only if both its title fingerprint and its description fingerprint are
// unseen. Order-preserving, single pass, exact collisions only.
func Deduplicate(markets []domain.Market) []domain.Market {
	seen := make(map[string]struct{}, len(markets)*2)
	unique := make([]domain.Market, 0, len(markets))

	for _, market := range markets {
		titleFP := TitleFingerprint(market.Title)
		descriptionFP := Fingerprint(market.Description)

		if _, ok := seen[titleFP]; ok {
			continue
		}
		if _, ok := seen[descriptionFP]; ok {
			continue
		}

		unique = append(unique, market)
		seen[titleFP] = struct{}{}
		seen[descriptionFP] = struct{}{}
	}

	return unique
}

// LimitPerCategory truncates each category's markets to the first limit
// entries, preserving first-seen category order and in-category order.
func LimitPerCategory(markets []domain.Market, limit int) []domain.Market {
	if limit < 0 {
		limit = 0
	}

	var order []string
	groups := make(map[string][]domain.Market)
	for _, market := range markets {
		if _, ok := groups[market.Category]; !ok {
			order = append(order, market.Category)
		}
		groups[market.Category] = append(groups[market.Category], market)
	}

	limited := make([]domain.Market, 0, len(markets))
	for _, category := range order {
		group := groups[category]
		if len(group) > limit {
			group = group[:limit]
		}
		limited = append(limited, group...)
	}

	return limited
}
