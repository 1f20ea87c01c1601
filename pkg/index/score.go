package index

import (
	"strings"

	"github.com/awareness-network/semindex/pkg/asset"
)

// Per-term score contributions.
const (
	exactKeywordWeight   = 0.4
	partialKeywordWeight = 0.2
	nameWeight           = 0.3
	descriptionWeight    = 0.1
	maxScore             = 1.0
)

// KeywordScore rates how well query matches an asset, in [0, 1].
//
// The query is lowercased and split on whitespace. For every term an exact
// keyword hit adds 0.4, otherwise a partial keyword hit (substring in either
// direction) adds 0.2; a hit in the name adds 0.3 and in the description
// 0.1. The sum is clamped to 1, not normalized, so long queries saturate.
// Leading, trailing and repeated whitespace yield no empty terms, so padding
// a query never changes its score and a blank query scores 0.
func KeywordScore(query string, a *asset.MemoryAsset) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 || a == nil {
		return 0
	}

	keywords := make([]string, len(a.SemanticContext.Keywords))
	for i, k := range a.SemanticContext.Keywords {
		keywords[i] = strings.ToLower(k)
	}
	name := strings.ToLower(a.Identification.Name)
	description := strings.ToLower(a.Identification.Description)

	score := 0.0
	for _, term := range terms {
		switch {
		case containsExact(keywords, term):
			score += exactKeywordWeight
		case containsPartial(keywords, term):
			score += partialKeywordWeight
		}
		if strings.Contains(name, term) {
			score += nameWeight
		}
		if strings.Contains(description, term) {
			score += descriptionWeight
		}
	}

	if score > maxScore {
		return maxScore
	}
	return score
}

func containsExact(keywords []string, term string) bool {
	for _, k := range keywords {
		if k == term {
			return true
		}
	}
	return false
}

func containsPartial(keywords []string, term string) bool {
	for _, k := range keywords {
		if strings.Contains(k, term) || strings.Contains(term, k) {
			return true
		}
	}
	return false
}
