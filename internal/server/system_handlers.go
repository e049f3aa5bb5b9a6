package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/database"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/events"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/trading"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/scheduler"
)

// TradingStatus is the part of the tick processor the status endpoint reads
type TradingStatus interface {
	LastTickAt() time.Time
	Positions() []trading.PositionView
}

// SystemHandlers handles system-wide monitoring and maintenance endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	journalDB   *database.DB
	processor   TradingStatus
	events      *events.Manager

	jobsMu sync.RWMutex
	jobs   map[string]scheduler.Job
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	journalDB *database.DB,
	processor TradingStatus,
	eventManager *events.Manager,
) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		journalDB:   journalDB,
		processor:   processor,
		events:      eventManager,
		jobs:        make(map[string]scheduler.Job),
	}
}

// SetJobs registers the jobs that can be triggered manually
func (h *SystemHandlers) SetJobs(jobs map[string]scheduler.Job) {
	h.jobsMu.Lock()
	defer h.jobsMu.Unlock()
	h.jobs = jobs
}

// SystemStatusResponse represents the system status
type SystemStatusResponse struct {
	Status           string          `json:"status"`
	StartedAt        time.Time       `json:"started_at"`
	LastTickAt       *time.Time      `json:"last_tick_at,omitempty"`
	Journal          *database.Stats `json:"journal,omitempty"`
	Uptime           string          `json:"uptime"`
	CPUPercent       float64         `json:"cpu_percent"`
	MemoryPercent    float64         `json:"memory_percent"`
	DiskPercent      float64         `json:"disk_percent"`
	Goroutines       int             `json:"goroutines"`
	OpenPositions    int             `json:"open_positions"`
	EventSubscribers int             `json:"event_subscribers"`
	EventsDropped    uint64          `json:"events_dropped"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "healthy",
		StartedAt:     h.startupTime,
		Uptime:        time.Since(h.startupTime).Truncate(time.Second).String(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		DiskPercent:   h.getDiskUsage(),
		Goroutines:    runtime.NumGoroutine(),
	}

	if h.processor != nil {
		if last := h.processor.LastTickAt(); !last.IsZero() {
			response.LastTickAt = &last
		}
		response.OpenPositions = len(h.processor.Positions())
	}

	if h.events != nil {
		response.EventSubscribers = h.events.SubscriberCount()
		response.EventsDropped = h.events.Dropped()
	}

	if h.journalDB != nil {
		stats, err := h.journalDB.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to read journal statistics")
			response.Status = "degraded"
		} else {
			response.Journal = stats
		}
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleListJobs handles GET /api/system/jobs
func (h *SystemHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	h.jobsMu.RLock()
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	h.jobsMu.RUnlock()
	sort.Strings(names)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": names})
}

// HandleTriggerJob runs a registered job immediately
// POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	h.jobsMu.RLock()
	job, ok := h.jobs[name]
	h.jobsMu.RUnlock()

	if !ok {
		h.writeJSON(w, http.StatusNotFound, map[string]string{
			"status":  "error",
			"message": "Job not registered: " + name,
		})
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job run triggered")

	start := time.Now()
	if err := job.Run(); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "success",
		"job":         name,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

// getSystemStats calculates CPU and RAM usage percentages.
// CPU is sampled over 100ms to keep the call short.
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

// getDiskUsage returns the used percentage of the volume holding the data directory
func (h *SystemHandlers) getDiskUsage() float64 {
	if h.dataDir == "" {
		return 0
	}
	usage, err := disk.Usage(h.dataDir)
	if err != nil {
		h.log.Warn().Err(err).Str("dir", h.dataDir).Msg("Failed to get disk usage")
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
