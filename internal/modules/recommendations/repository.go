package recommendations

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/aristath/stock-scout/internal/domain"
	"github.com/rs/zerolog"
)

// RunRepository persists completed pipeline runs and serves the latest run
// per strategy.
type RunRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sql.DB, log zerolog.Logger) *RunRepository {
	return &RunRepository{
		db:  db,
		log: log.With().Str("repository", "runs").Logger(),
	}
}

// SaveRun stores the run metadata and its ranked items in one transaction.
func (r *RunRepository) SaveRun(result domain.RunResult) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	meta := result.Meta
	_, err = tx.Exec(`
		INSERT INTO recommendation_runs
			(run_id, strategy, combination, unique_stocks, total_across,
			 avg_score, degraded, force_refresh, duration_ms, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		meta.RunID,
		meta.Strategy,
		encodeCombination(meta.CombinationUsed),
		meta.UniqueStockCount,
		meta.TotalAcrossCategories,
		meta.AvgScore,
		strings.Join(meta.DegradedCategories, ","),
		boolToInt(meta.ForceRefresh),
		meta.ProcessingDurationMs,
		meta.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", meta.RunID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO recommendation_items
			(run_id, rank, symbol, combined_score, category_count,
			 categories, tier, price, change_pct, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	for rank, rec := range result.Recommendations {
		_, err := stmt.Exec(
			meta.RunID,
			rank+1,
			rec.Symbol,
			rec.CombinedScore,
			rec.CategoryCount,
			strings.Join(rec.Categories, ","),
			rec.Tier,
			rec.Price,
			rec.ChangePct,
			rec.Volume,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item %s: %w", rec.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", meta.RunID, err)
	}

	r.log.Debug().
		Str("run_id", meta.RunID).
		Str("strategy", meta.Strategy).
		Int("items", len(result.Recommendations)).
		Msg("Run persisted")

	return nil
}

// LatestRun returns the most recent stored run for a strategy, or
// sql.ErrNoRows when the strategy has never run.
func (r *RunRepository) LatestRun(strategy string) (*domain.RunResult, error) {
	var result domain.RunResult
	meta := &result.Meta

	var combination, degraded string
	var forceRefresh int

	err := r.db.QueryRow(`
		SELECT run_id, strategy, combination, unique_stocks, total_across,
		       avg_score, degraded, force_refresh, duration_ms, generated_at
		FROM recommendation_runs
		WHERE strategy = ?
		ORDER BY generated_at DESC
		LIMIT 1
	`, strategy).Scan(
		&meta.RunID,
		&meta.Strategy,
		&combination,
		&meta.UniqueStockCount,
		&meta.TotalAcrossCategories,
		&meta.AvgScore,
		&degraded,
		&forceRefresh,
		&meta.ProcessingDurationMs,
		&meta.GeneratedAt,
	)
	if err != nil {
		return nil, err
	}

	meta.CombinationUsed = decodeCombination(combination)
	meta.ForceRefresh = forceRefresh != 0
	if degraded != "" {
		meta.DegradedCategories = strings.Split(degraded, ",")
	}

	rows, err := r.db.Query(`
		SELECT symbol, combined_score, category_count, categories, tier,
		       price, change_pct, volume
		FROM recommendation_items
		WHERE run_id = ?
		ORDER BY rank ASC
	`, meta.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items for run %s: %w", meta.RunID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec domain.AggregatedRecommendation
		var categories string
		if err := rows.Scan(
			&rec.Symbol,
			&rec.CombinedScore,
			&rec.CategoryCount,
			&categories,
			&rec.Tier,
			&rec.Price,
			&rec.ChangePct,
			&rec.Volume,
		); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if categories != "" {
			rec.Categories = strings.Split(categories, ",")
		}
		result.Recommendations = append(result.Recommendations, rec)
	}

	return &result, rows.Err()
}

// encodeCombination flattens a category->version map as "cat=ver,cat=ver",
// sorted by category for stable storage.
func encodeCombination(combination map[string]string) string {
	pairs := make([]string, 0, len(combination))
	for category, version := range combination {
		pairs = append(pairs, category+"="+version)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func decodeCombination(encoded string) map[string]string {
	combination := make(map[string]string)
	if encoded == "" {
		return combination
	}
	for _, pair := range strings.Split(encoded, ",") {
		if category, version, ok := strings.Cut(pair, "="); ok {
			combination[category] = version
		}
	}
	return combination
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
