package controllers

import (
	"context"
	"net/http"

	"github.com/shannu2342/wholexale-backend/api/responses"
	"github.com/shannu2342/wholexale-backend/pkg/config"
	"github.com/shannu2342/wholexale-backend/pkg/db"
	pkgerrors "github.com/shannu2342/wholexale-backend/pkg/errors"
	"github.com/shannu2342/wholexale-backend/pkg/logger"
)

// CachePinger is the slice of the redis client the readiness probe needs.
type CachePinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Wholexale-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the database and redis answer pings.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, cache CachePinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Wholexale-Env", cfg.App.Env)

		checks := map[string]string{}

		if dbP == nil {
			checks["db"] = "missing"
		} else if err := dbP.Ping(r.Context()); err != nil {
			checks["db"] = "down"
		} else {
			checks["db"] = "ok"
		}

		if cache == nil {
			checks["redis"] = "missing"
		} else if err := cache.Ping(r.Context()); err != nil {
			checks["redis"] = "down"
		} else {
			checks["redis"] = "ok"
		}

		for _, state := range checks {
			if state != "ok" {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(checks))
				return
			}
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
