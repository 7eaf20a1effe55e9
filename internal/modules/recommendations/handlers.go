package recommendations

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/stock-scout/internal/modules/algorithms"
	"github.com/rs/zerolog"
)

// Handlers exposes the recommendation pipeline over HTTP.
type Handlers struct {
	service  *Service
	registry *algorithms.Registry
	log      zerolog.Logger
}

// NewHandlers creates the recommendations HTTP handlers.
func NewHandlers(service *Service, registry *algorithms.Registry, log zerolog.Logger) *Handlers {
	return &Handlers{
		service:  service,
		registry: registry,
		log:      log.With().Str("module", "recommendations_handlers").Logger(),
	}
}

// HandleRun executes a recommendation run.
// POST /api/recommendations/run
func (h *Handlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	var opts RunOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if opts.Strategy == "" {
		http.Error(w, "strategy is required", http.StatusBadRequest)
		return
	}

	result, err := h.service.Run(r.Context(), opts)
	if err != nil {
		var unknown *algorithms.UnknownAlgorithmError
		if errors.As(err, &unknown) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, ok := h.service.Strategy(opts.Strategy); !ok {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Str("strategy", opts.Strategy).Msg("Run failed")
		http.Error(w, "Run failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// HandleLatest returns the most recent persisted run for a strategy.
// GET /api/recommendations/latest?strategy=swing
func (h *Handlers) HandleLatest(w http.ResponseWriter, r *http.Request) {
	strategy := r.URL.Query().Get("strategy")
	if strategy == "" {
		http.Error(w, "strategy query parameter is required", http.StatusBadRequest)
		return
	}
	if _, ok := h.service.Strategy(strategy); !ok {
		http.Error(w, "Unknown strategy", http.StatusBadRequest)
		return
	}

	result, err := h.service.Latest(strategy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "No runs recorded for strategy", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("strategy", strategy).Msg("Failed to load latest run")
		http.Error(w, "Failed to load latest run", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// HandleStrategies lists the configured strategies.
// GET /api/recommendations/strategies
func (h *Handlers) HandleStrategies(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.service.Strategies())
}

type compareRequest struct {
	Strategy     string   `json:"strategy"`
	Category     string   `json:"category"`
	A            AlgoRef  `json:"a"`
	B            AlgoRef  `json:"b"`
	TestSymbols  []string `json:"test_symbols,omitempty"`
	ForceRefresh bool     `json:"force_refresh"`
}

// HandleCompare runs a paired A/B comparison between two algorithm versions.
// POST /api/algorithms/compare
func (h *Handlers) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Strategy == "" || req.Category == "" {
		http.Error(w, "strategy and category are required", http.StatusBadRequest)
		return
	}
	if req.A.ID == "" || req.B.ID == "" {
		http.Error(w, "both algorithm references are required", http.StatusBadRequest)
		return
	}

	result, err := h.service.CompareAlgorithms(r.Context(), req.Strategy, req.Category, req.A, req.B, req.TestSymbols, req.ForceRefresh)
	if err != nil {
		var unknown *algorithms.UnknownAlgorithmError
		if errors.As(err, &unknown) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, ok := h.service.Strategy(req.Strategy); !ok {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg("Comparison failed")
		http.Error(w, "Comparison failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// HandleListAlgorithms lists every registered algorithm variant.
// GET /api/algorithms
func (h *Handlers) HandleListAlgorithms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.registry.All())
}
