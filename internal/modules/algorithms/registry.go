package algorithms

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Outcome is one observed result for an algorithm's past recommendation,
// fed back into its historical performance summary.
type Outcome struct {
	Correct   bool
	ReturnPct float64
}

// Registry holds named, versioned algorithm variants. Lookups by
// (identifier, version) are O(1); unknown pairs are an error, never a
// default.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]*Descriptor
	log  zerolog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		byID: make(map[string]*Descriptor),
		log:  log.With().Str("component", "algorithm_registry").Logger(),
	}
}

func key(id, version string) string {
	return id + "@" + version
}

// Register adds a descriptor. Re-registering an existing (id, version) pair
// is a configuration error.
func (r *Registry) Register(d Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(d.ID, d.Version)
	if _, exists := r.byID[k]; exists {
		return fmt.Errorf("algorithm %s already registered", k)
	}

	copied := d
	r.byID[k] = &copied

	r.log.Debug().
		Str("algorithm", k).
		Str("theme", d.Theme).
		Bool("active", d.Active).
		Msg("Algorithm registered")

	return nil
}

// Get returns the descriptor for (id, version) or an UnknownAlgorithmError.
func (r *Registry) Get(id, version string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[key(id, version)]
	if !ok {
		return nil, &UnknownAlgorithmError{ID: id, Version: version}
	}
	return d, nil
}

// ListActive returns active descriptors matching the theme and type, ordered
// by identifier then version. Descriptors with ThemeAll match every theme.
func (r *Registry) ListActive(theme string, typ Type) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Descriptor
	for _, d := range r.byID {
		if !d.Active || d.Type != typ {
			continue
		}
		if d.Theme != ThemeAll && d.Theme != theme {
			continue
		}
		out = append(out, *d)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Version < out[j].Version
	})

	return out
}

// All returns every registered descriptor, ordered by identifier then version.
func (r *Registry) All() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.byID))
	for _, d := range r.byID {
		out = append(out, *d)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Version < out[j].Version
	})

	return out
}

// RecordPerformance folds one outcome into the variant's historical summary.
// Append-only: it never changes scoring behavior in-flight.
func (r *Registry) RecordPerformance(id, version string, outcome Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byID[key(id, version)]
	if !ok {
		return &UnknownAlgorithmError{ID: id, Version: version}
	}

	p := d.Performance
	n := float64(p.Samples)

	hit := 0.0
	if outcome.Correct {
		hit = 100.0
	}

	d.Performance = PerformanceSummary{
		AccuracyPct:  (p.AccuracyPct*n + hit) / (n + 1),
		AvgReturnPct: (p.AvgReturnPct*n + outcome.ReturnPct) / (n + 1),
		Samples:      p.Samples + 1,
	}

	return nil
}
