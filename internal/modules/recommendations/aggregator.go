package recommendations

import (
	"errors"
	"sort"
	"sync"

	"github.com/aristath/stock-scout/internal/domain"
	"github.com/aristath/stock-scout/internal/modules/algorithms"
	"github.com/aristath/stock-scout/internal/modules/screening"
	"github.com/rs/zerolog"
)

// Aggregator scores candidates per category and merges the results per
// symbol. Categories are scored concurrently; the merge is single-threaded.
type Aggregator struct {
	registry *algorithms.Registry
	log      zerolog.Logger
}

// NewAggregator creates an aggregator backed by the given registry.
func NewAggregator(registry *algorithms.Registry, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		registry: registry,
		log:      log.With().Str("component", "aggregator").Logger(),
	}
}

type categoryScores struct {
	category string
	scores   []domain.AlgorithmScore
}

// Aggregate scores every category's candidates with the algorithm version the
// combination names for it, then merges per symbol. An unknown (category,
// version) pair fails the whole call before any scoring starts. Candidates
// with data too sparse to score are skipped, never defaulted; candidates
// scoring below minScore are dropped.
func (a *Aggregator) Aggregate(
	results map[string]screening.CategoryResult,
	combination map[string]string,
	candidateLimit int,
	minScore float64,
) ([]domain.AggregatedRecommendation, error) {
	// Resolve every descriptor up front so a bad combination fails fast.
	descriptors := make(map[string]*algorithms.Descriptor, len(combination))
	for category, version := range combination {
		d, err := a.registry.Get(category, version)
		if err != nil {
			return nil, err
		}
		descriptors[category] = d
	}

	scored := make(chan categoryScores, len(combination))
	var wg sync.WaitGroup

	for category, d := range descriptors {
		res, ok := results[category]
		if !ok {
			continue
		}

		wg.Add(1)
		go func(category string, d *algorithms.Descriptor, candidates []domain.Candidate) {
			defer wg.Done()
			scored <- categoryScores{
				category: category,
				scores:   a.scoreCategory(category, d, candidates, candidateLimit, minScore),
			}
		}(category, d, res.Candidates)
	}

	wg.Wait()
	close(scored)

	bySymbol := make(map[string]*domain.AggregatedRecommendation)
	snapshots := make(map[string]domain.MarketSnapshot)
	for cs := range scored {
		for _, score := range cs.scores {
			agg, ok := bySymbol[score.Symbol]
			if !ok {
				agg = &domain.AggregatedRecommendation{Symbol: score.Symbol}
				bySymbol[score.Symbol] = agg
			}
			agg.Categories = append(agg.Categories, cs.category)
			agg.Scores = append(agg.Scores, score)
		}
	}

	// Snapshot fields come from whichever category fetched the symbol; when
	// several did, the values are the same screener row repeated.
	for _, res := range results {
		for _, c := range res.Candidates {
			if _, ok := snapshots[c.Symbol]; !ok {
				snapshots[c.Symbol] = c.Snapshot
			}
		}
	}

	out := make([]domain.AggregatedRecommendation, 0, len(bySymbol))
	for _, agg := range bySymbol {
		sort.Strings(agg.Categories)
		sort.Slice(agg.Scores, func(i, j int) bool {
			return agg.Scores[i].Category < agg.Scores[j].Category
		})
		agg.CategoryCount = len(agg.Categories)

		snap := snapshots[agg.Symbol]
		agg.Price = snap.Price
		agg.ChangePct = snap.ChangePct
		agg.Volume = snap.Volume

		out = append(out, *agg)
	}

	return out, nil
}

func (a *Aggregator) scoreCategory(
	category string,
	d *algorithms.Descriptor,
	candidates []domain.Candidate,
	candidateLimit int,
	minScore float64,
) []domain.AlgorithmScore {
	// Screener rows can repeat a symbol within one query's output; a
	// category must surface each symbol at most once or category counts
	// and tiers inflate downstream.
	candidates = dedupBySymbol(candidates)

	if candidateLimit > 0 && len(candidates) > candidateLimit {
		candidates = candidates[:candidateLimit]
	}

	scores := make([]domain.AlgorithmScore, 0, len(candidates))
	skipped := 0
	for _, c := range candidates {
		score, err := d.Score(c)
		if err != nil {
			var missing *algorithms.MissingDataError
			if errors.As(err, &missing) {
				skipped++
				continue
			}
			a.log.Error().Err(err).
				Str("category", category).
				Str("symbol", c.Symbol).
				Msg("Scoring failed")
			continue
		}
		if score.Score < minScore {
			continue
		}
		scores = append(scores, score)
	}

	if skipped > 0 {
		a.log.Warn().
			Str("category", category).
			Str("algorithm", d.ID+"@"+d.Version).
			Int("skipped", skipped).
			Int("scored", len(scores)).
			Msg("Candidates skipped for missing data")
	}

	return scores
}

// dedupBySymbol keeps the first occurrence of each symbol.
func dedupBySymbol(candidates []domain.Candidate) []domain.Candidate {
	seen := make(map[string]bool, len(candidates))
	out := candidates[:0:0]
	for _, c := range candidates {
		if seen[c.Symbol] {
			continue
		}
		seen[c.Symbol] = true
		out = append(out, c)
	}
	return out
}
