package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/olimpiec/shop-backend/api/responses"
	"github.com/olimpiec/shop-backend/pkg/config"
	pkgerrors "github.com/olimpiec/shop-backend/pkg/errors"
	"github.com/olimpiec/shop-backend/pkg/logger"
)

// Pinger is implemented by the db and redis clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Olimpiec-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the datastore, the optional cache, and the gateway
// configuration. Nil pingers are skipped.
func HealthReady(cfg *config.Config, database Pinger, cache Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Olimpiec-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}

		if database != nil {
			if err := database.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
			checks["database"] = "ok"
		}
		if cache != nil {
			if err := cache.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
			checks["redis"] = "ok"
		}
		if cfg.YooKassa.Configured() {
			checks["gateway"] = "configured"
		} else {
			checks["gateway"] = "unconfigured"
		}

		checks["status"] = "ready"
		responses.WriteSuccess(w, checks)
	}
}
