// Package algorithms holds the versioned scoring algorithm variants and the
// registry that resolves them by (identifier, version).
package algorithms

import (
	"math"
	"time"

	"github.com/aristath/stock-scout/internal/domain"
)

// Type distinguishes seed scorers from ensemble/ranking configurations.
type Type string

const (
	TypeSeed     Type = "seed"
	TypeEnsemble Type = "ensemble"
)

// ThemeAll marks a descriptor as applicable to every trading strategy.
const ThemeAll = "all"

// PerformanceSummary is the historical performance of one algorithm variant.
type PerformanceSummary struct {
	AccuracyPct  float64 `json:"accuracy_pct"`
	AvgReturnPct float64 `json:"avg_return_pct"`
	Samples      int     `json:"samples"`
}

// ScoreFunc computes the raw score and confidence (both 0-100) for one
// candidate. It is pure: no I/O, only the snapshot and the declared params.
type ScoreFunc func(c domain.Candidate, params map[string]float64) (score, confidence float64, err error)

// Descriptor is one registered algorithm variant. Descriptors are created at
// registry load time and never mutated mid-run, except for the append-only
// performance summary.
type Descriptor struct {
	ID          string             `json:"id"`
	Version     string             `json:"version"`
	Name        string             `json:"name"`
	Theme       string             `json:"theme"`
	Type        Type               `json:"type"`
	Params      map[string]float64 `json:"params"`
	Active      bool               `json:"active"`
	Performance PerformanceSummary `json:"performance"`

	score ScoreFunc
}

// Default label thresholds, overridable per descriptor via params.
const (
	defaultStrongBuyMin = 80.0
	defaultBuyMin       = 60.0
)

// Score runs the variant over one candidate and stamps the full
// AlgorithmScore. Score and confidence are clamped to [0, 100].
func (d *Descriptor) Score(c domain.Candidate) (domain.AlgorithmScore, error) {
	if d.score == nil {
		return domain.AlgorithmScore{}, &UnknownAlgorithmError{ID: d.ID, Version: d.Version}
	}

	raw, confidence, err := d.score(c, d.Params)
	if err != nil {
		return domain.AlgorithmScore{}, err
	}

	raw = clamp(raw)
	confidence = clamp(confidence)

	return domain.AlgorithmScore{
		AlgorithmID: d.ID,
		Version:     d.Version,
		Symbol:      c.Symbol,
		Category:    c.Category,
		Score:       raw,
		Confidence:  confidence,
		Label:       d.label(raw),
		ComputedAt:  time.Now().UTC(),
	}, nil
}

func (d *Descriptor) label(score float64) string {
	strongMin := d.param("strong_buy_min", defaultStrongBuyMin)
	buyMin := d.param("buy_min", defaultBuyMin)

	switch {
	case score >= strongMin:
		return domain.LabelStrongBuy
	case score >= buyMin:
		return domain.LabelBuy
	default:
		return domain.LabelHold
	}
}

func (d *Descriptor) param(key string, fallback float64) float64 {
	if v, ok := d.Params[key]; ok {
		return v
	}
	return fallback
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
