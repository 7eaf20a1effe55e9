package server

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/aristath/stock-scout/internal/cache"
	"github.com/aristath/stock-scout/internal/database"
)

// SystemHandlers serves health and runtime status endpoints.
type SystemHandlers struct {
	db        *database.DB
	cache     *cache.Store
	startedAt time.Time
	log       zerolog.Logger
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(db *database.DB, store *cache.Store, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		db:        db,
		cache:     store,
		startedAt: time.Now(),
		log:       log.With().Str("component", "system_handlers").Logger(),
	}
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status         string  `json:"status"`
	UptimeSeconds  int64   `json:"uptime_seconds"`
	CacheEntries   int     `json:"cache_entries"`
	Database       string  `json:"database"`
	MemoryUsedMB   float64 `json:"memory_used_mb,omitempty"`
	SystemMemUsedP float64 `json:"system_mem_used_pct,omitempty"`
}

// HandleHealth reports process health: database reachability, cache size and
// memory usage.
// GET /health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	}

	if h.cache != nil {
		resp.CacheEntries = h.cache.Len()
	}

	if h.db != nil {
		if err := h.db.Conn().PingContext(r.Context()); err != nil {
			h.log.Warn().Err(err).Msg("Database ping failed")
			resp.Status = "degraded"
			resp.Database = "unreachable"
		} else {
			resp.Database = "ok"
		}
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfo(); err == nil && info != nil {
			resp.MemoryUsedMB = float64(info.RSS) / 1024 / 1024
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		resp.SystemMemUsedP = vm.UsedPercent
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
