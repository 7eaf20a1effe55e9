package recommendations

import (
	"math"
	"testing"

	"github.com/aristath/stock-scout/internal/domain"
	"github.com/aristath/stock-scout/internal/modules/algorithms"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededComparator(t *testing.T) *Comparator {
	t.Helper()
	registry, err := algorithms.SeedRegistry(zerolog.Nop())
	require.NoError(t, err)
	return NewComparator(registry, zerolog.Nop())
}

func breakoutCandidates() []domain.Candidate {
	return []domain.Candidate{
		candidate("AAA", "breakout", domain.MarketSnapshot{Price: 10, ChangePct: 3, Volume: 1_000_000, MarketCap: ptr(5e9)}),
		candidate("BBB", "breakout", domain.MarketSnapshot{Price: 20, ChangePct: 1, Volume: 800_000, MarketCap: ptr(1e8)}),
		candidate("CCC", "breakout", domain.MarketSnapshot{Price: 5, ChangePct: -2, Volume: 400_000, MarketCap: ptr(2e9)}),
	}
}

func TestCompare_PairedOverSameCandidates(t *testing.T) {
	c := seededComparator(t)

	result, err := c.Compare(
		AlgoRef{ID: "breakout", Version: "v1.0"},
		AlgoRef{ID: "breakout", Version: "v1.1"},
		breakoutCandidates(),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, result.SharedCount)
	assert.Equal(t, 0, result.ExcludedCount)
	assert.Equal(t, result.A.ScoredCount, result.B.ScoredCount)

	// v1.1 damps the small cap, so v1.0 scores at least as high on average
	assert.GreaterOrEqual(t, result.A.MeanScore, result.B.MeanScore)
	assert.Equal(t, "breakout@v1.0", result.Winner)
}

func TestCompare_DeltaIsSymmetric(t *testing.T) {
	c := seededComparator(t)
	candidates := breakoutCandidates()

	refA := AlgoRef{ID: "breakout", Version: "v1.0"}
	refB := AlgoRef{ID: "breakout", Version: "v1.1"}

	forward, err := c.Compare(refA, refB, candidates)
	require.NoError(t, err)
	reverse, err := c.Compare(refB, refA, candidates)
	require.NoError(t, err)

	assert.InDelta(t, math.Abs(forward.ScoreDeltaPct), math.Abs(reverse.ScoreDeltaPct), 1e-9)
	assert.InDelta(t, forward.ScoreDeltaPct, -reverse.ScoreDeltaPct, 1e-9)
	assert.Equal(t, forward.Winner, reverse.Winner)
}

func TestCompare_ExcludesUnscorableFromBothSides(t *testing.T) {
	c := seededComparator(t)

	candidates := []domain.Candidate{
		// pattern needs rel_volume: one side failing excludes the pair
		candidate("NOP", "x", domain.MarketSnapshot{Price: 5, ChangePct: 1, Volume: 100}),
		candidate("OK", "x", domain.MarketSnapshot{Price: 5, ChangePct: 1, Volume: 100, RelVolume: ptr(2.0)}),
	}

	result, err := c.Compare(
		AlgoRef{ID: "momentum", Version: "v1.0"},
		AlgoRef{ID: "pattern", Version: "v1.0"},
		candidates,
	)
	require.NoError(t, err)

	assert.Equal(t, 1, result.SharedCount)
	assert.Equal(t, 1, result.ExcludedCount)
	assert.Equal(t, 1, result.A.ScoredCount)
	assert.Equal(t, 1, result.B.ScoredCount)
}

func TestCompare_UnknownVariantFails(t *testing.T) {
	c := seededComparator(t)

	_, err := c.Compare(
		AlgoRef{ID: "breakout", Version: "v1.0"},
		AlgoRef{ID: "breakout", Version: "v7.7"},
		breakoutCandidates(),
	)
	assert.Error(t, err)
}

func TestCompare_EmptyCandidates(t *testing.T) {
	c := seededComparator(t)

	result, err := c.Compare(
		AlgoRef{ID: "breakout", Version: "v1.0"},
		AlgoRef{ID: "breakout", Version: "v1.1"},
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, 0, result.SharedCount)
	assert.Empty(t, result.Winner)
}

func TestRelativeDelta(t *testing.T) {
	assert.InDelta(t, 0.0, relativeDelta(50, 50), 1e-9)
	assert.InDelta(t, 0.0, relativeDelta(0, 0), 1e-9)

	// (60-40)/50 * 100 = 40
	assert.InDelta(t, 40.0, relativeDelta(40, 60), 1e-9)
	assert.InDelta(t, -40.0, relativeDelta(60, 40), 1e-9)
}
