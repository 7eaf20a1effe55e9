package recommendations

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aristath/stock-scout/internal/domain"
	"github.com/aristath/stock-scout/internal/modules/screening"
	"github.com/aristath/stock-scout/pkg/formulas"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CandidateSource fetches candidates per category. Implemented by
// screening.Service.
type CandidateSource interface {
	Fetch(ctx context.Context, queries []screening.FilterQuery, forceRefresh bool) map[string]screening.CategoryResult
}

// RunStore persists finished runs. Implemented by RunRepository; nil disables
// persistence.
type RunStore interface {
	SaveRun(result domain.RunResult) error
	LatestRun(strategy string) (*domain.RunResult, error)
}

// RunOptions are the per-run knobs. Unset values fall back to the strategy's
// defaults; a nil Combination uses the strategy's default combination.
// MinScore is a pointer so an explicit zero ("keep everything") is
// distinguishable from unset.
type RunOptions struct {
	Strategy       string            `json:"strategy"`
	Combination    map[string]string `json:"combination,omitempty"`
	CandidateLimit int               `json:"candidate_limit,omitempty"`
	MinScore       *float64          `json:"min_score,omitempty"`
	Top            int               `json:"top,omitempty"`
	ForceRefresh   bool              `json:"force_refresh"`
}

// Service runs the full recommendation pipeline: fetch candidates per
// category, score with the selected algorithm versions, rank the ensemble,
// enrich the top entries and persist the run.
type Service struct {
	strategies map[string]StrategyConfig
	source     CandidateSource
	aggregator *Aggregator
	comparator *Comparator
	confirmer  *TechnicalConfirmer
	store      RunStore
	enrichTopN int
	log        zerolog.Logger
}

// ServiceConfig wires the pipeline's collaborators.
type ServiceConfig struct {
	Strategies map[string]StrategyConfig
	Source     CandidateSource
	Aggregator *Aggregator
	Comparator *Comparator
	Confirmer  *TechnicalConfirmer // nil disables technical confirmation
	Store      RunStore            // nil disables run persistence
	EnrichTopN int
	Log        zerolog.Logger
}

// NewService creates the recommendation service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		strategies: cfg.Strategies,
		source:     cfg.Source,
		aggregator: cfg.Aggregator,
		comparator: cfg.Comparator,
		confirmer:  cfg.Confirmer,
		store:      cfg.Store,
		enrichTopN: cfg.EnrichTopN,
		log:        cfg.Log.With().Str("component", "recommendations").Logger(),
	}
}

// Strategies returns the configured strategies, ordered by name.
func (s *Service) Strategies() []StrategyConfig {
	out := make([]StrategyConfig, 0, len(s.strategies))
	for _, cfg := range s.strategies {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Strategy returns one strategy's configuration.
func (s *Service) Strategy(name string) (StrategyConfig, bool) {
	cfg, ok := s.strategies[name]
	return cfg, ok
}

// Run executes the pipeline for one strategy. An unknown strategy or an
// unknown algorithm version in the combination fails the run before any
// fetch; degraded categories only annotate the metadata.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*domain.RunResult, error) {
	strategy, ok := s.strategies[opts.Strategy]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %q", opts.Strategy)
	}

	combination := opts.Combination
	if combination == nil {
		combination = strategy.DefaultCombination
	}
	candidateLimit := opts.CandidateLimit
	if candidateLimit <= 0 {
		candidateLimit = strategy.DefaultCandidateLimit
	}
	minScore := strategy.DefaultMinScore
	if opts.MinScore != nil {
		minScore = *opts.MinScore
	}
	top := opts.Top
	if top <= 0 {
		top = strategy.DefaultTop
	}

	started := time.Now()

	queries := make([]screening.FilterQuery, 0, len(combination))
	for category := range combination {
		query, ok := strategy.FilterQueries[category]
		if !ok {
			return nil, fmt.Errorf("strategy %q has no filter query for category %q", strategy.Name, category)
		}
		queries = append(queries, screening.FilterQuery{Name: category, Query: query})
	}
	sort.Slice(queries, func(i, j int) bool { return queries[i].Name < queries[j].Name })

	results := s.source.Fetch(ctx, queries, opts.ForceRefresh)

	aggregated, err := s.aggregator.Aggregate(results, combination, candidateLimit, minScore)
	if err != nil {
		return nil, err
	}

	ranked := Rank(aggregated, strategy)

	meta := s.buildMetadata(opts, strategy, combination, results, ranked, started)

	if len(ranked) > top {
		ranked = ranked[:top]
	}

	if s.confirmer != nil {
		s.confirmer.Enrich(ctx, ranked, s.enrichTopN)
	}

	result := &domain.RunResult{Recommendations: ranked, Meta: meta}

	if s.store != nil {
		if err := s.store.SaveRun(*result); err != nil {
			// history is best-effort; the run result is already complete
			s.log.Error().Err(err).Str("run_id", meta.RunID).Msg("Failed to persist run")
		}
	}

	s.log.Info().
		Str("run_id", meta.RunID).
		Str("strategy", strategy.Name).
		Int("unique_stocks", meta.UniqueStockCount).
		Int("returned", len(ranked)).
		Strs("degraded", meta.DegradedCategories).
		Bool("force_refresh", opts.ForceRefresh).
		Int64("duration_ms", meta.ProcessingDurationMs).
		Msg("Run complete")

	return result, nil
}

// Latest returns the most recent persisted run for a strategy.
func (s *Service) Latest(strategy string) (*domain.RunResult, error) {
	if _, ok := s.strategies[strategy]; !ok {
		return nil, fmt.Errorf("unknown strategy: %q", strategy)
	}
	if s.store == nil {
		return nil, fmt.Errorf("run history is disabled")
	}
	return s.store.LatestRun(strategy)
}

// CompareAlgorithms runs a paired A/B comparison over one category's current
// candidates, fetched through the same cache as regular runs. A non-empty
// testSymbols restricts the comparison to those symbols; empty compares the
// whole candidate set.
func (s *Service) CompareAlgorithms(ctx context.Context, strategyName, category string, refA, refB AlgoRef, testSymbols []string, forceRefresh bool) (*ComparisonResult, error) {
	strategy, ok := s.strategies[strategyName]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %q", strategyName)
	}
	query, ok := strategy.FilterQueries[category]
	if !ok {
		return nil, fmt.Errorf("strategy %q has no filter query for category %q", strategyName, category)
	}

	results := s.source.Fetch(ctx, []screening.FilterQuery{{Name: category, Query: query}}, forceRefresh)

	candidates := results[category].Candidates
	if len(testSymbols) > 0 {
		wanted := make(map[string]bool, len(testSymbols))
		for _, sym := range testSymbols {
			wanted[sym] = true
		}
		filtered := make([]domain.Candidate, 0, len(testSymbols))
		for _, c := range candidates {
			if wanted[c.Symbol] {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
	}

	return s.comparator.Compare(refA, refB, candidates)
}

func (s *Service) buildMetadata(
	opts RunOptions,
	strategy StrategyConfig,
	combination map[string]string,
	results map[string]screening.CategoryResult,
	ranked []domain.AggregatedRecommendation,
	started time.Time,
) domain.RunMetadata {
	var degraded []string
	for category, res := range results {
		if res.Degraded {
			degraded = append(degraded, category)
		}
	}
	sort.Strings(degraded)

	totalAcross := 0
	scores := make([]float64, 0, len(ranked))
	for _, rec := range ranked {
		totalAcross += rec.CategoryCount
		scores = append(scores, rec.CombinedScore)
	}

	meta := domain.RunMetadata{
		RunID:                 uuid.New().String(),
		Strategy:              strategy.Name,
		CombinationUsed:       combination,
		UniqueStockCount:      len(ranked),
		TotalAcrossCategories: totalAcross,
		DegradedCategories:    degraded,
		ForceRefresh:          opts.ForceRefresh,
		ProcessingDurationMs:  time.Since(started).Milliseconds(),
		GeneratedAt:           time.Now().UTC(),
	}
	if len(scores) > 0 {
		meta.AvgScore = formulas.Mean(scores)
		meta.ScoreStdDev = formulas.StdDev(scores)
	}

	return meta
}
