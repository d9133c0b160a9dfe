package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/advisor/internal/scheduler"
)

// CacheStats reports row counts per cache table.
type CacheStats interface {
	Counts() (map[string]int64, error)
}

// HealthChecker verifies a database is reachable and intact.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// JobStatusProvider lists background jobs.
type JobStatusProvider interface {
	Status() []scheduler.JobStatus
}

// SystemStatusResponse is the body of GET /api/system/status.
type SystemStatusResponse struct {
	Status        string           `json:"status"`
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	CPUPercent    float64          `json:"cpu_percent"`
	MemoryPercent float64          `json:"memory_percent"`
	DiskPercent   float64          `json:"disk_percent"`
	DatabaseOK    bool             `json:"database_ok"`
	CacheEntries  map[string]int64 `json:"cache_entries"`
	LastChecked   string           `json:"last_checked"`
}

// SystemHandlers serves system monitoring endpoints.
type SystemHandlers struct {
	dataDir string
	cache   CacheStats
	db      HealthChecker
	jobs    JobStatusProvider
	started time.Time
	log     zerolog.Logger
}

// NewSystemHandlers creates system handlers. Any status source may be nil.
func NewSystemHandlers(
	dataDir string,
	cache CacheStats,
	db HealthChecker,
	jobs JobStatusProvider,
	started time.Time,
	log zerolog.Logger,
) *SystemHandlers {
	return &SystemHandlers{
		dataDir: dataDir,
		cache:   cache,
		db:      db,
		jobs:    jobs,
		started: started,
		log:     log.With().Str("handler", "system").Logger(),
	}
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "healthy",
		Version:       Version,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		DiskPercent:   h.getDiskUsage(),
		DatabaseOK:    true,
		CacheEntries:  map[string]int64{},
		LastChecked:   time.Now().Format(time.RFC3339),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.db.HealthCheck(ctx); err != nil {
			h.log.Warn().Err(err).Msg("Database health check failed")
			response.DatabaseOK = false
			response.Status = "degraded"
		}
	}

	if h.cache != nil {
		counts, err := h.cache.Counts()
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to count cache entries")
		} else {
			response.CacheEntries = counts
		}
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleJobsStatus handles GET /api/system/jobs
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	jobs := []scheduler.JobStatus{}
	if h.jobs != nil {
		jobs = h.jobs.Status()
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// getSystemStats samples CPU over 100ms and reads memory usage.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) getDiskUsage() float64 {
	if h.dataDir == "" {
		return 0
	}
	usage, err := disk.Usage(h.dataDir)
	if err != nil {
		h.log.Debug().Err(err).Str("path", h.dataDir).Msg("Failed to get disk usage")
		return 0
	}
	return usage.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
