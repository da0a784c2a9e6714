package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/localmarthq/localmart-backend/api/responses"
	"github.com/localmarthq/localmart-backend/pkg/config"
	"github.com/localmarthq/localmart-backend/pkg/db"
	"github.com/localmarthq/localmart-backend/pkg/logger"
	"github.com/localmarthq/localmart-backend/pkg/redis"
)

const readinessTimeout = 5 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LocalMart-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every required dependency and reports per-component state.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		components := map[string]string{}
		healthy := true

		components["db"] = pingComponent(ctx, dbP)
		components["redis"] = pingComponent(ctx, redisP)
		for _, state := range components {
			if state != "ok" {
				healthy = false
			}
		}

		w.Header().Set("X-LocalMart-Env", cfg.App.Env)
		if !healthy {
			if logg != nil {
				logg.Warn(logg.WithFields(ctx, map[string]any{"components": components}), "readiness check failed")
			}
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, map[string]any{
				"status":     "degraded",
				"components": components,
			})
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"status":     "ready",
			"components": components,
		})
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

func pingComponent(ctx context.Context, p pinger) string {
	if p == nil {
		return "skipped"
	}
	if err := p.Ping(ctx); err != nil {
		return err.Error()
	}
	return "ok"
}
