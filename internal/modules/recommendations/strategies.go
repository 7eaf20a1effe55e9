// Package recommendations implements the scoring pipeline: category
// aggregation, ensemble ranking, A/B comparison and the run service.
package recommendations

import (
	"github.com/aristath/stock-scout/internal/domain"
)

// StrategyConfig is the per-strategy configuration record: tier thresholds,
// ensemble weights, default combination and limits. One pipeline
// parameterized by these records replaces per-strategy server processes.
type StrategyConfig struct {
	Name string `json:"name"`

	// TierStrongMin is the category count at which a symbol is tiered
	// "strong"; any matched symbol below it is "moderate".
	TierStrongMin int `json:"tier_strong_min"`

	// Weights are the ensemble weights per category. Categories absent
	// from the map weigh 1.0.
	Weights map[string]float64 `json:"weights"`

	// DefaultCombination maps category name to algorithm version.
	DefaultCombination map[string]string `json:"default_combination"`

	// FilterQueries maps category name to the screener filter-query string.
	FilterQueries map[string]string `json:"filter_queries"`

	DefaultCandidateLimit int     `json:"default_candidate_limit"`
	DefaultMinScore       float64 `json:"default_min_score"`
	DefaultTop            int     `json:"default_top"`

	// RefreshSchedule is the cron spec for the warm-refresh job.
	RefreshSchedule string `json:"refresh_schedule"`
}

// Tier maps a category count to the strategy's tier label.
func (s StrategyConfig) Tier(categoryCount int) string {
	if categoryCount >= s.TierStrongMin {
		return domain.TierStrong
	}
	return domain.TierModerate
}

// Weight returns the ensemble weight for a category, defaulting to 1.0.
func (s StrategyConfig) Weight(category string) float64 {
	if w, ok := s.Weights[category]; ok {
		return w
	}
	return 1.0
}

// DefaultStrategies returns the built-in strategy set.
func DefaultStrategies() map[string]StrategyConfig {
	return map[string]StrategyConfig{
		"swing": {
			Name:          "swing",
			TierStrongMin: 3,
			Weights: map[string]float64{
				"breakout": 1.2,
				"momentum": 1.0,
				"pattern":  0.9,
				"reversal": 0.8,
			},
			DefaultCombination: map[string]string{
				"breakout": "v1.1",
				"momentum": "v1.0",
				"pattern":  "v1.0",
				"reversal": "v1.0",
			},
			FilterQueries: map[string]string{
				"breakout": "ta_highlow52w_nh,sh_avgvol_o500,ta_perf_dup",
				"momentum": "ta_perf_d5u,sh_avgvol_o400,ta_sma20_pa",
				"pattern":  "ta_pattern_channelup,sh_avgvol_o300",
				"reversal": "ta_perf_d10o,ta_rsi_os30,sh_avgvol_o300",
			},
			DefaultCandidateLimit: 50,
			DefaultMinScore:       25,
			DefaultTop:            20,
			RefreshSchedule:       "0 */15 9-16 * * 1-5",
		},
		"shortterm": {
			Name:          "shortterm",
			TierStrongMin: 3,
			Weights: map[string]float64{
				"breakout": 1.0,
				"momentum": 1.2,
				"reversal": 0.9,
			},
			DefaultCombination: map[string]string{
				"breakout": "v1.0",
				"momentum": "v1.0",
				"reversal": "v1.0",
			},
			FilterQueries: map[string]string{
				"breakout": "ta_highlow20d_nh,sh_avgvol_o500",
				"momentum": "ta_perf_d1u,sh_relvol_o1.5",
				"reversal": "ta_perf_d5o,ta_rsi_os35",
			},
			DefaultCandidateLimit: 40,
			DefaultMinScore:       30,
			DefaultTop:            15,
			RefreshSchedule:       "0 */10 9-16 * * 1-5",
		},
		"longterm": {
			Name:          "longterm",
			TierStrongMin: 2,
			Weights: map[string]float64{
				"momentum": 1.0,
				"pattern":  1.1,
			},
			DefaultCombination: map[string]string{
				"momentum": "v1.0",
				"pattern":  "v1.0",
			},
			FilterQueries: map[string]string{
				"momentum": "ta_perf_26wup,fa_salesqoq_pos",
				"pattern":  "ta_pattern_channelup,fa_pe_u30",
			},
			DefaultCandidateLimit: 60,
			DefaultMinScore:       20,
			DefaultTop:            25,
			RefreshSchedule:       "0 0 7 * * 1-5",
		},
		"intraday": {
			Name:          "intraday",
			TierStrongMin: 2,
			Weights: map[string]float64{
				"breakout":     1.0,
				"momentum":     1.0,
				"volume_surge": 1.3,
			},
			DefaultCombination: map[string]string{
				"breakout":     "v1.0",
				"momentum":     "v1.0",
				"volume_surge": "v1.0",
			},
			FilterQueries: map[string]string{
				"breakout":     "ta_highlow20d_nh,sh_relvol_o2",
				"momentum":     "ta_change_u3,sh_relvol_o1.5",
				"volume_surge": "sh_relvol_o3,sh_avgvol_o500",
			},
			DefaultCandidateLimit: 30,
			DefaultMinScore:       35,
			DefaultTop:            10,
			RefreshSchedule:       "0 */5 9-16 * * 1-5",
		},
	}
}
