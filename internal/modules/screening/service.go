// Package screening turns named filter queries into candidate lists, with
// TTL caching and per-category failure isolation in front of the external
// screening service.
package screening

import (
	"context"
	"time"

	"github.com/aristath/stock-scout/internal/cache"
	"github.com/aristath/stock-scout/internal/clients/screener"
	"github.com/aristath/stock-scout/internal/domain"
	"github.com/rs/zerolog"
)

// FilterQuery is one named filter-query to execute against the screener.
type FilterQuery struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

// QueryExecutor executes one filter query. Implemented by screener.Client.
type QueryExecutor interface {
	ExecuteFilterQuery(ctx context.Context, name, query string) ([]screener.Row, error)
}

// CategoryResult is the outcome of fetching one category's candidates.
type CategoryResult struct {
	Candidates []domain.Candidate
	Degraded   bool // the external fetch failed during this run
	Stale      bool // candidates were served from an expired cache entry
}

// Service is the candidate source: it fans out over filter queries
// sequentially (the screener rate-limits informally), caches payloads per
// query, and degrades per category instead of failing the whole fetch.
type Service struct {
	executor QueryExecutor
	store    *cache.Store
	ttl      time.Duration
	log      zerolog.Logger
}

// NewService creates the screening service. ttl applies to every cached
// filter-query payload.
func NewService(executor QueryExecutor, store *cache.Store, ttl time.Duration, log zerolog.Logger) *Service {
	return &Service{
		executor: executor,
		store:    store,
		ttl:      ttl,
		log:      log.With().Str("component", "screening").Logger(),
	}
}

// Fetch returns candidates per category name. With forceRefresh the cache
// lookup is bypassed for this call only; the fetched payload still
// overwrites the entry for other callers. A failed fetch falls back to the
// most recent cached payload (even expired), else an empty list. One
// category's failure never aborts the others.
func (s *Service) Fetch(ctx context.Context, queries []FilterQuery, forceRefresh bool) map[string]CategoryResult {
	results := make(map[string]CategoryResult, len(queries))

	for _, q := range queries {
		results[q.Name] = s.fetchOne(ctx, q, forceRefresh)
	}

	return results
}

func (s *Service) fetchOne(ctx context.Context, q FilterQuery, forceRefresh bool) CategoryResult {
	if !forceRefresh {
		if payload, ok := s.store.Fresh(q.Name); ok {
			s.log.Debug().Str("category", q.Name).Int("candidates", len(payload)).Msg("Cache hit")
			return CategoryResult{Candidates: payload}
		}
	}

	payload, err := s.store.Refresh(q.Name, s.ttl, func() ([]domain.Candidate, error) {
		rows, err := s.executor.ExecuteFilterQuery(ctx, q.Name, q.Query)
		if err != nil {
			return nil, err
		}
		return rowsToCandidates(q.Name, rows), nil
	})
	if err == nil {
		s.log.Info().Str("category", q.Name).Int("candidates", len(payload)).Msg("Fetched candidates")
		return CategoryResult{Candidates: payload}
	}

	s.log.Warn().Err(err).Str("category", q.Name).Msg("Fetch failed, falling back to cache")

	if stale, ok := s.store.Any(q.Name); ok {
		return CategoryResult{Candidates: stale, Degraded: true, Stale: true}
	}

	return CategoryResult{Candidates: []domain.Candidate{}, Degraded: true}
}

func rowsToCandidates(category string, rows []screener.Row) []domain.Candidate {
	now := time.Now().UTC()
	candidates := make([]domain.Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, domain.Candidate{
			Symbol:    row.Symbol,
			Category:  category,
			FetchedAt: now,
			Snapshot: domain.MarketSnapshot{
				Price:     row.Price,
				ChangePct: row.ChangePct,
				Volume:    row.Volume,
				AvgVolume: row.AvgVolume,
				RelVolume: row.RelVolume,
				MarketCap: row.MarketCap,
				Sector:    row.Sector,
			},
		})
	}
	return candidates
}
