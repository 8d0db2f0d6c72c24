package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck pings one backing dependency, such as Postgres or Redis.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// healthHandler answers /healthz. Without checks it only reports liveness; with
// checks it reports each dependency and answers 503 when any of them fails.
func healthHandler(checks []HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		results := make(map[string]string, len(checks))
		for _, hc := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			err := hc.Check(ctx)
			cancel()
			if err != nil {
				logger.WarnContext(r.Context(), "health check failed", "check", hc.Name, "error", err)
				results[hc.Name] = "unavailable"
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			results[hc.Name] = "ok"
		}

		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			return
		}
		body := map[string]any{"status": status}
		if len(results) > 0 {
			body["checks"] = results
		}
		WriteJSON(w, code, body)
	}
}
