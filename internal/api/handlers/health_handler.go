package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hellavor/careers-api/internal/monitoring"
)

// ReadinessSource reports the last store health check.
type ReadinessSource interface {
	Status() monitoring.Status
}

// HealthHandler serves liveness and readiness checks.
type HealthHandler struct {
	monitor ReadinessSource
	started time.Time
}

func NewHealthHandler(monitor ReadinessSource, started time.Time) *HealthHandler {
	return &HealthHandler{monitor: monitor, started: started}
}

// Health reports that the process is up, with uptime and host memory use.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":        "ok",
		"uptimeSeconds": int64(time.Since(h.started).Seconds()),
	}
	if used, err := monitoring.MemoryUsedPercent(r.Context()); err == nil {
		body["memoryUsedPercent"] = used
	} else {
		log.Debug().Err(err).Msg("Failed to read host memory stats")
	}
	writeJSON(w, http.StatusOK, body)
}

// Ready returns 503 until the store has answered a health check.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := h.monitor.Status()
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"ready":     status.Healthy,
		"checkedAt": status.CheckedAt,
	})
}
