package recommendations

import (
	"errors"
	"sort"

	"github.com/aristath/stock-scout/internal/domain"
	"github.com/aristath/stock-scout/internal/modules/algorithms"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// AlgoRef names one side of an A/B comparison.
type AlgoRef struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

// SideSummary is one side's aggregate over the shared candidate set.
type SideSummary struct {
	Algorithm   AlgoRef            `json:"algorithm"`
	MeanScore   float64            `json:"mean_score"`
	ScoreStdDev float64            `json:"score_std_dev"`
	ScoredCount int                `json:"scored_count"`
	LabelCounts map[string]int     `json:"label_counts"`
	TopSymbols  []string           `json:"top_symbols"`
	ScoresBySym map[string]float64 `json:"scores_by_symbol"`
}

// ComparisonResult is the paired A/B outcome: both sides scored over the
// exact same candidates, plus the winner and the relative score delta.
type ComparisonResult struct {
	A             SideSummary `json:"a"`
	B             SideSummary `json:"b"`
	SharedCount   int         `json:"shared_count"`
	ExcludedCount int         `json:"excluded_count"`
	Winner        string      `json:"winner"`
	ScoreDeltaPct float64     `json:"score_delta_pct"`
}

// Comparator runs paired A/B comparisons between two algorithm variants.
type Comparator struct {
	registry *algorithms.Registry
	log      zerolog.Logger
}

// NewComparator creates a comparator backed by the given registry.
func NewComparator(registry *algorithms.Registry, log zerolog.Logger) *Comparator {
	return &Comparator{
		registry: registry,
		log:      log.With().Str("component", "comparator").Logger(),
	}
}

// Compare scores both variants over the same candidates. A candidate either
// variant cannot score is excluded from both sides, so the comparison stays
// paired. The relative delta uses the midpoint of the two means as
// denominator, which makes |delta| identical regardless of argument order.
func (c *Comparator) Compare(refA, refB AlgoRef, candidates []domain.Candidate) (*ComparisonResult, error) {
	a, err := c.registry.Get(refA.ID, refA.Version)
	if err != nil {
		return nil, err
	}
	b, err := c.registry.Get(refB.ID, refB.Version)
	if err != nil {
		return nil, err
	}

	sideA := newSideSummary(refA)
	sideB := newSideSummary(refB)
	var scoresA, scoresB []float64
	excluded := 0

	for _, cand := range candidates {
		scoreA, errA := a.Score(cand)
		scoreB, errB := b.Score(cand)
		if errA != nil || errB != nil {
			if isMissingData(errA) || isMissingData(errB) {
				excluded++
				continue
			}
			if errA != nil {
				return nil, errA
			}
			return nil, errB
		}

		scoresA = append(scoresA, scoreA.Score)
		scoresB = append(scoresB, scoreB.Score)
		sideA.record(cand.Symbol, scoreA)
		sideB.record(cand.Symbol, scoreB)
	}

	sideA.finish(scoresA)
	sideB.finish(scoresB)

	result := &ComparisonResult{
		A:             sideA,
		B:             sideB,
		SharedCount:   len(scoresA),
		ExcludedCount: excluded,
	}

	if len(scoresA) > 0 {
		result.ScoreDeltaPct = relativeDelta(sideA.MeanScore, sideB.MeanScore)
		switch {
		case sideB.MeanScore > sideA.MeanScore:
			result.Winner = key(refB)
		case sideA.MeanScore > sideB.MeanScore:
			result.Winner = key(refA)
		default:
			result.Winner = "tie"
		}
	}

	c.log.Info().
		Str("a", key(refA)).
		Str("b", key(refB)).
		Int("shared", result.SharedCount).
		Int("excluded", excluded).
		Str("winner", result.Winner).
		Msg("Comparison complete")

	return result, nil
}

func key(ref AlgoRef) string {
	return ref.ID + "@" + ref.Version
}

func isMissingData(err error) bool {
	var missing *algorithms.MissingDataError
	return errors.As(err, &missing)
}

// relativeDelta is (b-a) over the midpoint of the two means, in percent.
// Symmetric: swapping a and b flips only the sign.
func relativeDelta(a, b float64) float64 {
	mid := (a + b) / 2
	if mid == 0 {
		return 0
	}
	return (b - a) / mid * 100
}

func newSideSummary(ref AlgoRef) SideSummary {
	return SideSummary{
		Algorithm:   ref,
		LabelCounts: make(map[string]int),
		ScoresBySym: make(map[string]float64),
	}
}

func (s *SideSummary) record(symbol string, score domain.AlgorithmScore) {
	s.LabelCounts[score.Label]++
	s.ScoresBySym[symbol] = score.Score
	s.ScoredCount++
}

const topSymbolCount = 5

func (s *SideSummary) finish(scores []float64) {
	if len(scores) == 0 {
		return
	}
	s.MeanScore = stat.Mean(scores, nil)
	if len(scores) > 1 {
		s.ScoreStdDev = stat.StdDev(scores, nil)
	}
	s.TopSymbols = topSymbols(s.ScoresBySym, topSymbolCount)
}

func topSymbols(scores map[string]float64, n int) []string {
	symbols := make([]string, 0, len(scores))
	for sym := range scores {
		symbols = append(symbols, sym)
	}
	sort.Slice(symbols, func(i, j int) bool {
		a, b := symbols[i], symbols[j]
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		return a < b
	})
	if len(symbols) > n {
		symbols = symbols[:n]
	}
	return symbols
}
