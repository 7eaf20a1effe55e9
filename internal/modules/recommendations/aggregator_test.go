package recommendations

import (
	"errors"
	"testing"
	"time"

	"github.com/aristath/stock-scout/internal/domain"
	"github.com/aristath/stock-scout/internal/modules/algorithms"
	"github.com/aristath/stock-scout/internal/modules/screening"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func candidate(symbol, category string, snap domain.MarketSnapshot) domain.Candidate {
	return domain.Candidate{
		Symbol:    symbol,
		Category:  category,
		FetchedAt: time.Now().UTC(),
		Snapshot:  snap,
	}
}

func seededAggregator(t *testing.T) *Aggregator {
	t.Helper()
	registry, err := algorithms.SeedRegistry(zerolog.Nop())
	require.NoError(t, err)
	return NewAggregator(registry, zerolog.Nop())
}

func TestAggregate_MergesAcrossCategories(t *testing.T) {
	a := seededAggregator(t)

	results := map[string]screening.CategoryResult{
		"breakout": {Candidates: []domain.Candidate{
			candidate("ABC", "breakout", domain.MarketSnapshot{Price: 10, ChangePct: 3, Volume: 1_000_000}),
			candidate("DEF", "breakout", domain.MarketSnapshot{Price: 20, ChangePct: 2, Volume: 500_000}),
		}},
		"momentum": {Candidates: []domain.Candidate{
			candidate("ABC", "momentum", domain.MarketSnapshot{Price: 10, ChangePct: 3, Volume: 1_000_000}),
		}},
	}

	recs, err := a.Aggregate(results, map[string]string{
		"breakout": "v1.0",
		"momentum": "v1.0",
	}, 0, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	bySymbol := make(map[string]domain.AggregatedRecommendation)
	for _, rec := range recs {
		bySymbol[rec.Symbol] = rec
	}

	abc := bySymbol["ABC"]
	assert.Equal(t, 2, abc.CategoryCount)
	assert.Equal(t, []string{"breakout", "momentum"}, abc.Categories)
	require.Len(t, abc.Scores, 2)
	assert.Equal(t, 10.0, abc.Price)

	def := bySymbol["DEF"]
	assert.Equal(t, 1, def.CategoryCount)
	assert.Equal(t, []string{"breakout"}, def.Categories)
}

func TestAggregate_UnknownVersionFailsBeforeScoring(t *testing.T) {
	a := seededAggregator(t)

	_, err := a.Aggregate(map[string]screening.CategoryResult{}, map[string]string{
		"breakout": "v9.9",
	}, 0, 0)
	require.Error(t, err)

	var unknown *algorithms.UnknownAlgorithmError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "breakout", unknown.ID)
	assert.Equal(t, "v9.9", unknown.Version)
}

func TestAggregate_SkipsCandidatesWithMissingData(t *testing.T) {
	a := seededAggregator(t)

	results := map[string]screening.CategoryResult{
		"pattern": {Candidates: []domain.Candidate{
			// pattern v1.0 needs rel_volume; this one lacks it
			candidate("NOP", "pattern", domain.MarketSnapshot{Price: 5, ChangePct: 1, Volume: 100}),
			candidate("OK", "pattern", domain.MarketSnapshot{Price: 5, ChangePct: 1, Volume: 100, RelVolume: ptr(2.0)}),
		}},
	}

	recs, err := a.Aggregate(results, map[string]string{"pattern": "v1.0"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "OK", recs[0].Symbol)
}

func TestAggregate_DropsScoresBelowMinimum(t *testing.T) {
	a := seededAggregator(t)

	results := map[string]screening.CategoryResult{
		"momentum": {Candidates: []domain.Candidate{
			candidate("HOT", "momentum", domain.MarketSnapshot{Price: 10, ChangePct: 4, Volume: 100}),
			candidate("COLD", "momentum", domain.MarketSnapshot{Price: 10, ChangePct: -4, Volume: 100}),
		}},
	}

	// momentum v1.0: 50 + chg*10 -> HOT=90, COLD=10
	recs, err := a.Aggregate(results, map[string]string{"momentum": "v1.0"}, 0, 50)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "HOT", recs[0].Symbol)
}

func TestAggregate_TruncatesCandidatesPerCategory(t *testing.T) {
	a := seededAggregator(t)

	candidates := make([]domain.Candidate, 10)
	for i := range candidates {
		candidates[i] = candidate(string(rune('A'+i)), "momentum", domain.MarketSnapshot{
			Price: 10, ChangePct: 2, Volume: 100,
		})
	}

	recs, err := a.Aggregate(
		map[string]screening.CategoryResult{"momentum": {Candidates: candidates}},
		map[string]string{"momentum": "v1.0"},
		3, 0,
	)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestAggregate_DuplicateRowsInOneCategoryCountOnce(t *testing.T) {
	a := seededAggregator(t)

	dup := candidate("ABC", "momentum", domain.MarketSnapshot{Price: 10, ChangePct: 3, Volume: 1_000_000})
	results := map[string]screening.CategoryResult{
		"momentum": {Candidates: []domain.Candidate{dup, dup}},
	}

	recs, err := a.Aggregate(results, map[string]string{"momentum": "v1.0"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	assert.Equal(t, 1, recs[0].CategoryCount)
	assert.Equal(t, []string{"momentum"}, recs[0].Categories)
	assert.Len(t, recs[0].Scores, 1)
}

func TestAggregate_DuplicateRowsDoNotInflateTier(t *testing.T) {
	a := seededAggregator(t)

	snap := domain.MarketSnapshot{Price: 10, ChangePct: 3, Volume: 1_000_000}
	results := map[string]screening.CategoryResult{
		"breakout": {Candidates: []domain.Candidate{
			candidate("ABC", "breakout", snap),
			candidate("ABC", "breakout", snap),
		}},
		"momentum": {Candidates: []domain.Candidate{
			candidate("ABC", "momentum", snap),
		}},
	}

	recs, err := a.Aggregate(results, map[string]string{
		"breakout": "v1.0",
		"momentum": "v1.0",
	}, 0, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 2, recs[0].CategoryCount)

	ranked := Rank(recs, StrategyConfig{Name: "s", TierStrongMin: 3})
	assert.Equal(t, domain.TierModerate, ranked[0].Tier, "two distinct categories must not tier strong at threshold 3")
}

func TestAggregate_EmptyCategoryYieldsNothing(t *testing.T) {
	a := seededAggregator(t)

	recs, err := a.Aggregate(
		map[string]screening.CategoryResult{"momentum": {Degraded: true}},
		map[string]string{"momentum": "v1.0"},
		0, 0,
	)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
