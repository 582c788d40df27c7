package http

import (
	"context"
	"net/http"
	"time"

	"github.com/AlibekovAA/storybooks/internal/common/logger"
)

// HealthCheck reports the readiness of one dependency.
type HealthCheck func(ctx context.Context) error

func HealthHandler(log *logger.Logger, checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		results := make(map[string]string, len(checks))
		healthy := true
		for name, check := range checks {
			if err := check(ctx); err != nil {
				log.WithFields(ctx, logger.Fields{
					"check":  name,
					"error":  err.Error(),
					"action": "health_check_failed",
				}).Warn("dependency unhealthy")
				results[name] = "down"
				healthy = false
				continue
			}
			results[name] = "up"
		}

		if !healthy {
			WriteErrorEnvelope(w, http.StatusServiceUnavailable, CodeUnhealthy, "service unhealthy", map[string]any{"checks": results}, TraceIDFromContext(r.Context()))
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "checks": results})
	}
}
