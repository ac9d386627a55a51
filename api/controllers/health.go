package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/mvidalgarcia/golfviajes-backend/api/responses"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/config"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/logger"
)

const readyCheckTimeout = 2 * time.Second

// Pinger is any dependency that can report liveness.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-GolfViajes-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the backing services. Any failing dependency turns the
// endpoint into a 503 so the platform stops routing traffic here.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		w.Header().Set("X-GolfViajes-Env", cfg.App.Env)

		statuses := map[string]string{}
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				statuses[name] = "not configured"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				healthy = false
				statuses[name] = err.Error()
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", name), "readiness check failed", err)
				}
				continue
			}
			statuses[name] = "ok"
		}

		status := http.StatusOK
		overall := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status":       overall,
			"dependencies": statuses,
		})
	}
}
