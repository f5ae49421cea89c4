package handlers

import (
	"net/http"
	"time"

	"github.com/isdelr/timeshare-be/internal/monitoring"
)

// StatsSource provides the latest host sample.
type StatsSource interface {
	Snapshot() monitoring.HostStats
}

// HealthHandler answers liveness checks.
type HealthHandler struct {
	stats   StatsSource
	version string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(stats StatsSource, version string) *HealthHandler {
	return &HealthHandler{stats: stats, version: version}
}

// Get reports service status along with basic host statistics.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   h.version,
	}
	if h.stats != nil {
		s := h.stats.Snapshot()
		body["uptimeSeconds"] = s.UptimeSeconds
		body["memoryUsedPercent"] = s.MemoryPercent
		body["cpuPercent"] = s.CPUPercent
	}
	respondJSON(w, http.StatusOK, body)
}
