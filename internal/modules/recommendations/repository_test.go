package recommendations

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/stock-scout/internal/database"
	"github.com/aristath/stock-scout/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepository(t *testing.T) *RunRepository {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "runs.db"),
		Profile: database.ProfileCache,
		Name:    "test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())

	return NewRunRepository(db.Conn(), zerolog.Nop())
}

func sampleRun(runID, strategy string, generatedAt time.Time) domain.RunResult {
	return domain.RunResult{
		Recommendations: []domain.AggregatedRecommendation{
			{
				Symbol:        "ABC",
				Categories:    []string{"breakout", "momentum"},
				CategoryCount: 2,
				CombinedScore: 77.5,
				Tier:          domain.TierStrong,
				Price:         12.5,
				ChangePct:     3.1,
				Volume:        900_000,
			},
			{
				Symbol:        "DEF",
				Categories:    []string{"breakout"},
				CategoryCount: 1,
				CombinedScore: 61.0,
				Tier:          domain.TierModerate,
				Price:         4.2,
				ChangePct:     1.0,
				Volume:        250_000,
			},
		},
		Meta: domain.RunMetadata{
			RunID:                 runID,
			Strategy:              strategy,
			CombinationUsed:       map[string]string{"breakout": "v1.1", "momentum": "v1.0"},
			UniqueStockCount:      2,
			TotalAcrossCategories: 3,
			AvgScore:              69.25,
			DegradedCategories:    []string{"pattern"},
			ForceRefresh:          true,
			ProcessingDurationMs:  42,
			GeneratedAt:           generatedAt,
		},
	}
}

func TestRunRepository_SaveAndLoadLatest(t *testing.T) {
	repo := testRepository(t)

	run := sampleRun("run-1", "swing", time.Now().UTC())
	require.NoError(t, repo.SaveRun(run))

	loaded, err := repo.LatestRun("swing")
	require.NoError(t, err)

	assert.Equal(t, "run-1", loaded.Meta.RunID)
	assert.Equal(t, run.Meta.CombinationUsed, loaded.Meta.CombinationUsed)
	assert.Equal(t, []string{"pattern"}, loaded.Meta.DegradedCategories)
	assert.True(t, loaded.Meta.ForceRefresh)

	require.Len(t, loaded.Recommendations, 2)
	assert.Equal(t, "ABC", loaded.Recommendations[0].Symbol)
	assert.Equal(t, []string{"breakout", "momentum"}, loaded.Recommendations[0].Categories)
	assert.Equal(t, "DEF", loaded.Recommendations[1].Symbol)
	assert.InDelta(t, 61.0, loaded.Recommendations[1].CombinedScore, 1e-9)
}

func TestRunRepository_LatestPicksNewestPerStrategy(t *testing.T) {
	repo := testRepository(t)

	older := time.Now().UTC().Add(-time.Hour)
	newer := time.Now().UTC()

	require.NoError(t, repo.SaveRun(sampleRun("run-old", "swing", older)))
	require.NoError(t, repo.SaveRun(sampleRun("run-new", "swing", newer)))
	require.NoError(t, repo.SaveRun(sampleRun("run-other", "intraday", newer)))

	loaded, err := repo.LatestRun("swing")
	require.NoError(t, err)
	assert.Equal(t, "run-new", loaded.Meta.RunID)
}

func TestRunRepository_LatestUnknownStrategy(t *testing.T) {
	repo := testRepository(t)

	_, err := repo.LatestRun("never-ran")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEncodeDecodeCombination(t *testing.T) {
	combination := map[string]string{"momentum": "v1.0", "breakout": "v1.1"}

	encoded := encodeCombination(combination)
	assert.Equal(t, "breakout=v1.1,momentum=v1.0", encoded)
	assert.Equal(t, combination, decodeCombination(encoded))

	assert.Empty(t, decodeCombination(""))
}
