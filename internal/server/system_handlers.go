package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/JoaoToni12/analise-investimentos/internal/database"
	"github.com/JoaoToni12/analise-investimentos/internal/scheduler"
)

// CoverageReporter reports price history row counts per ticker.
type CoverageReporter interface {
	Coverage() (map[string]int, error)
}

// SystemHandlers serves health and maintenance endpoints.
type SystemHandlers struct {
	databases map[string]*database.DB
	coverage  CoverageReporter
	sched     *scheduler.Scheduler
	quoteJob  scheduler.Job
	startedAt time.Time
	log       zerolog.Logger
}

func NewSystemHandlers(
	databases map[string]*database.DB,
	coverage CoverageReporter,
	sched *scheduler.Scheduler,
	quoteJob scheduler.Job,
	log zerolog.Logger,
) *SystemHandlers {
	return &SystemHandlers{
		databases: databases,
		coverage:  coverage,
		sched:     sched,
		quoteJob:  quoteJob,
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
}

func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/api/system/health", h.HandleHealth)
	r.Post("/api/quotes/refresh", h.HandleQuoteRefresh)
}

// HandleHealth reports process stats, database integrity and history
// coverage in one payload.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthy := true

	dbStatus := make(map[string]string, len(h.databases))
	for name, db := range h.databases {
		if err := db.HealthCheck(r.Context()); err != nil {
			healthy = false
			dbStatus[name] = err.Error()
			continue
		}
		dbStatus[name] = "ok"
	}

	system := map[string]interface{}{
		"goroutines": runtime.NumGoroutine(),
		"uptime_s":   int(time.Since(h.startedAt).Seconds()),
	}
	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		system["cpu_percent"] = cpuPercent[0]
	}
	if memStat, err := mem.VirtualMemory(); err == nil {
		system["memory_percent"] = memStat.UsedPercent
	}

	payload := map[string]interface{}{
		"healthy":   healthy,
		"databases": dbStatus,
		"system":    system,
	}
	if h.coverage != nil {
		if coverage, err := h.coverage.Coverage(); err == nil {
			payload["history_coverage"] = coverage
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, payload)
}

// HandleQuoteRefresh triggers an immediate quote refresh outside the
// cron schedule.
func (h *SystemHandlers) HandleQuoteRefresh(w http.ResponseWriter, r *http.Request) {
	if h.quoteJob == nil {
		h.writeError(w, http.StatusServiceUnavailable, "quote refresh is not configured")
		return
	}

	if err := h.sched.RunNow(h.quoteJob); err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *SystemHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
