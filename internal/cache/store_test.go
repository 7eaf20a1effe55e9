package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aristath/stock-scout/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCandidates(symbols ...string) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, domain.Candidate{Symbol: s, Category: "breakout"})
	}
	return out
}

func TestStore_FreshRespectsTTL(t *testing.T) {
	store := NewStore(0, zerolog.Nop())

	current := time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	store.Set("breakout", testCandidates("ABC"), 10*time.Minute)

	// At t=5min the entry is still fresh
	current = current.Add(5 * time.Minute)
	payload, ok := store.Fresh("breakout")
	require.True(t, ok)
	assert.Equal(t, "ABC", payload[0].Symbol)

	// At t=11min the entry has expired for Fresh but is still visible to Any
	current = current.Add(6 * time.Minute)
	_, ok = store.Fresh("breakout")
	assert.False(t, ok)

	payload, ok = store.Any("breakout")
	require.True(t, ok)
	assert.Equal(t, "ABC", payload[0].Symbol)
}

func TestStore_MissingKey(t *testing.T) {
	store := NewStore(0, zerolog.Nop())

	_, ok := store.Fresh("nope")
	assert.False(t, ok)
	_, ok = store.Any("nope")
	assert.False(t, ok)
}

func TestStore_RefreshStoresOnSuccess(t *testing.T) {
	store := NewStore(0, zerolog.Nop())

	payload, err := store.Refresh("momentum", time.Minute, func() ([]domain.Candidate, error) {
		return testCandidates("XYZ"), nil
	})
	require.NoError(t, err)
	assert.Len(t, payload, 1)

	cached, ok := store.Fresh("momentum")
	require.True(t, ok)
	assert.Equal(t, "XYZ", cached[0].Symbol)
}

func TestStore_RefreshDoesNotStoreOnFailure(t *testing.T) {
	store := NewStore(0, zerolog.Nop())

	_, err := store.Refresh("momentum", time.Minute, func() ([]domain.Candidate, error) {
		return nil, errors.New("boom")
	})
	require.Error(t, err)

	_, ok := store.Any("momentum")
	assert.False(t, ok)
}

func TestStore_RefreshSharesConcurrentFetches(t *testing.T) {
	store := NewStore(0, zerolog.Nop())

	var fetches int64
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload, err := store.Refresh("pattern", time.Minute, func() ([]domain.Candidate, error) {
				atomic.AddInt64(&fetches, 1)
				<-release
				return testCandidates("SHARED"), nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "SHARED", payload[0].Symbol)
		}()
	}

	// Give the goroutines time to pile onto the same key, then release
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&fetches), "concurrent refreshes should share one fetch")
}

func TestStore_BoundedEvictsOldest(t *testing.T) {
	store := NewStore(2, zerolog.Nop())

	current := time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	store.Set("a", testCandidates("A"), time.Hour)
	current = current.Add(time.Minute)
	store.Set("b", testCandidates("B"), time.Hour)
	current = current.Add(time.Minute)
	store.Set("c", testCandidates("C"), time.Hour)

	assert.Equal(t, 2, store.Len())
	_, ok := store.Any("a")
	assert.False(t, ok, "oldest entry should have been evicted")
	_, ok = store.Any("c")
	assert.True(t, ok)
}
