package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/gatekeeper/internal/database"
)

// SystemHandlers serves host and storage health
type SystemHandlers struct {
	auditDB   *database.DB
	startedAt time.Time
	log       zerolog.Logger
}

// NewSystemHandlers creates the system handlers; auditDB may be nil
func NewSystemHandlers(auditDB *database.DB, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		auditDB:   auditDB,
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
}

// HandleSystemHealth reports database reachability, CPU and memory.
// Returns 503 when the audit database does not answer.
func (h *SystemHandlers) HandleSystemHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	dbStatus := "not_configured"
	if h.auditDB != nil {
		dbStatus = "ok"
		if err := h.auditDB.QuickCheck(r.Context()); err != nil {
			h.log.Warn().Err(err).Msg("Audit database health check failed")
			dbStatus = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	cpuPercent, memPercent := h.getSystemStats()

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}

	body := map[string]interface{}{
		"status":         overall,
		"audit_database": dbStatus,
		"cpu_percent":    cpuPercent,
		"memory_percent": memPercent,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	}
	if h.auditDB != nil {
		body["audit_database_path"] = h.auditDB.Path()
		body["audit_database_profile"] = string(h.auditDB.Profile())
	}
	writeJSON(w, status, body, h.log)
}

// getSystemStats calculates CPU and RAM usage percentages over a short sample
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
