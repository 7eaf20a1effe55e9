// Package cache provides the in-memory TTL store for screener fetch results.
package cache

import (
	"sync"
	"time"

	"github.com/aristath/stock-scout/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type entry struct {
	payload    []domain.Candidate
	insertedAt time.Time
	ttl        time.Duration
}

// Store is a TTL cache keyed by filter-query identifier. Expiry is checked
// lazily on read, and entries are swapped atomically on refresh so a reader
// never observes a half-written payload. A singleflight group guarantees at
// most one in-flight refresh per key.
type Store struct {
	mu         sync.RWMutex
	entries    map[string]entry
	maxEntries int // 0 = unbounded
	group      singleflight.Group
	log        zerolog.Logger
	now        func() time.Time
}

// NewStore creates a new cache store. maxEntries bounds the total number of
// keys (oldest entry evicted first); 0 disables the bound.
func NewStore(maxEntries int, log zerolog.Logger) *Store {
	return &Store{
		entries:    make(map[string]entry),
		maxEntries: maxEntries,
		log:        log.With().Str("component", "cache").Logger(),
		now:        time.Now,
	}
}

// Fresh returns the payload for key if present and not expired.
func (s *Store) Fresh(key string) ([]domain.Candidate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(e.insertedAt) >= e.ttl {
		return nil, false
	}
	return e.payload, true
}

// Any returns the payload for key regardless of expiry. Used as a fallback
// when a refresh fails and stale data is better than none.
func (s *Store) Any(key string) ([]domain.Candidate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return e.payload, true
}

// Set stores a payload under key with the given TTL, evicting the oldest
// entry first when the store is bounded and full.
func (s *Store) Set(key string, payload []domain.Candidate, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists && s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		s.evictOldestLocked()
	}

	s.entries[key] = entry{
		payload:    payload,
		insertedAt: s.now(),
		ttl:        ttl,
	}
}

// Refresh runs fetch for key, storing the result on success. Concurrent
// callers for the same key share a single fetch and its result.
func (s *Store) Refresh(key string, ttl time.Duration, fetch func() ([]domain.Candidate, error)) ([]domain.Candidate, error) {
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		payload, err := fetch()
		if err != nil {
			return nil, err
		}
		s.Set(key, payload, ttl)
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug().Str("key", key).Msg("Refresh shared with concurrent caller")
	}
	return v.([]domain.Candidate), nil
}

// Len returns the number of entries currently held, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// evictOldestLocked removes the entry with the oldest insertion timestamp.
// Caller must hold the write lock.
func (s *Store) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, e := range s.entries {
		if first || e.insertedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.insertedAt
			first = false
		}
	}
	if !first {
		s.log.Debug().Str("key", oldestKey).Msg("Evicting oldest cache entry")
		delete(s.entries, oldestKey)
	}
}
