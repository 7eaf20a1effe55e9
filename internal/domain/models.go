// Package domain holds the core data model shared across modules.
package domain

import "time"

// MarketSnapshot holds the raw market fields a screener row carries for one
// symbol. Price, ChangePct and Volume are always populated by the screener;
// the remaining fields are optional and nil when the external service did not
// return them.
type MarketSnapshot struct {
	Price     float64  `json:"price"`
	ChangePct float64  `json:"change_pct"`
	Volume    int64    `json:"volume"`
	AvgVolume *float64 `json:"avg_volume,omitempty"`
	RelVolume *float64 `json:"rel_volume,omitempty"`
	MarketCap *float64 `json:"market_cap,omitempty"`
	Sector    *string  `json:"sector,omitempty"`
}

// Candidate is a symbol surfaced by one filter-query execution. Candidates
// are immutable once created; a later fetch supersedes them with new values.
type Candidate struct {
	Symbol    string         `json:"symbol"`
	Category  string         `json:"category"`
	FetchedAt time.Time      `json:"fetched_at"`
	Snapshot  MarketSnapshot `json:"snapshot"`
}

// AlgorithmScore is the output of one scoring algorithm applied to one
// candidate. Score and Confidence are always within [0, 100].
type AlgorithmScore struct {
	AlgorithmID string    `json:"algorithm_id"`
	Version     string    `json:"version"`
	Symbol      string    `json:"symbol"`
	Category    string    `json:"category"`
	Score       float64   `json:"score"`
	Confidence  float64   `json:"confidence"`
	Label       string    `json:"label"`
	ComputedAt  time.Time `json:"computed_at"`
}

// Recommendation labels produced by scoring algorithms.
const (
	LabelStrongBuy = "strong_buy"
	LabelBuy       = "buy"
	LabelHold      = "hold"
)

// TechnicalConfirmation annotates a ranked recommendation with indicator
// values computed from recent daily closes. Annotation only - it never
// affects scores or ordering.
type TechnicalConfirmation struct {
	RSI14      *float64 `json:"rsi_14,omitempty"`
	EMA20      *float64 `json:"ema_20,omitempty"`
	AboveEMA20 bool     `json:"above_ema_20"`
	Overbought bool     `json:"overbought"`
}

// AggregatedRecommendation is the per-symbol merge across all categories and
// algorithms for one strategy run. CategoryCount always equals the number of
// distinct entries in Categories.
type AggregatedRecommendation struct {
	Symbol        string                 `json:"symbol"`
	Categories    []string               `json:"categories"`
	CategoryCount int                    `json:"category_count"`
	Scores        []AlgorithmScore       `json:"scores"`
	CombinedScore float64                `json:"combined_score"`
	Tier          string                 `json:"tier"`
	Price         float64                `json:"price"`
	ChangePct     float64                `json:"change_pct"`
	Volume        int64                  `json:"volume"`
	Confirmation  *TechnicalConfirmation `json:"confirmation,omitempty"`
}

// Recommendation strength tiers derived from category-count thresholds.
const (
	TierStrong   = "strong"
	TierModerate = "moderate"
)

// RunMetadata describes one pipeline run.
type RunMetadata struct {
	RunID                 string            `json:"run_id"`
	Strategy              string            `json:"strategy"`
	CombinationUsed       map[string]string `json:"combination_used"`
	UniqueStockCount      int               `json:"unique_stock_count"`
	TotalAcrossCategories int               `json:"total_across_categories"`
	AvgScore              float64           `json:"avg_score"`
	ScoreStdDev           float64           `json:"score_std_dev"`
	DegradedCategories    []string          `json:"degraded_categories,omitempty"`
	ForceRefresh          bool              `json:"force_refresh"`
	ProcessingDurationMs  int64             `json:"processing_duration_ms"`
	GeneratedAt           time.Time         `json:"generated_at"`
}

// RunResult is the pipeline output: the ordered recommendation list plus run
// metadata.
type RunResult struct {
	Recommendations []AggregatedRecommendation `json:"recommendations"`
	Meta            RunMetadata                `json:"meta"`
}
