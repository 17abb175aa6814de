package search

import (
	"sort"

	"github.com/poiesic/brandmatch/core"
)

// Consolidate collapses matches to one result per brand name, keeping the
// highest score. On equal scores the first match seen wins. Results are
// ordered by descending score with ties in first-seen order. An empty input
// gives an empty, non-nil slice.
func Consolidate(matches []core.Match) []core.ConsolidatedResult {
	results := make([]core.ConsolidatedResult, 0, len(matches))
	positions := make(map[string]int, len(matches))

	for _, match := range matches {
		name := brandKey(match)
		if pos, seen := positions[name]; seen {
			if match.Score > results[pos].BestScore {
				results[pos] = toResult(name, match)
			}
			continue
		}
		positions[name] = len(results)
		results = append(results, toResult(name, match))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].BestScore > results[j].BestScore
	})
	return results
}

func toResult(name string, m core.Match) core.ConsolidatedResult {
	meta := m.Metadata
	return core.ConsolidatedResult{
		BrandName:   name,
		BestScore:   m.Score,
		Category:    displayText(meta.Category, core.NoCategoryInfo),
		Description: displayText(meta.Description, core.NoDescription),
		Followers:   displayInt64(meta.Followers),
		Region:      displayText(meta.Region, core.NotAvailable),
		Founded:     displayInt(meta.Founded),
		PriceLevel:  displayText(meta.PriceLevel, core.NotAvailable),
	}
}
