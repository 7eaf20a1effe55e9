package recommendations

import (
	"sort"

	"github.com/aristath/stock-scout/internal/domain"
)

// Rank computes each recommendation's combined score as the weighted average
// of its per-category scores and sorts the list: combined score descending,
// then category count descending, then symbol ascending. Weights of
// categories the symbol did not match contribute nothing. Truncation to the
// requested top-N is the caller's job and happens only after this full sort.
func Rank(recs []domain.AggregatedRecommendation, strategy StrategyConfig) []domain.AggregatedRecommendation {
	ranked := make([]domain.AggregatedRecommendation, len(recs))
	copy(ranked, recs)

	for i := range ranked {
		var weighted, totalWeight float64
		for _, score := range ranked[i].Scores {
			w := strategy.Weight(score.Category)
			weighted += score.Score * w
			totalWeight += w
		}
		if totalWeight > 0 {
			ranked[i].CombinedScore = weighted / totalWeight
		}
		ranked[i].Tier = strategy.Tier(ranked[i].CategoryCount)
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.CombinedScore != b.CombinedScore {
			return a.CombinedScore > b.CombinedScore
		}
		if a.CategoryCount != b.CategoryCount {
			return a.CategoryCount > b.CategoryCount
		}
		return a.Symbol < b.Symbol
	})

	return ranked
}
