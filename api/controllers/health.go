package controllers

import (
	"net/http"

	"github.com/oceanbites/oceanbites-backend/api/responses"
	"github.com/oceanbites/oceanbites-backend/pkg/config"
	pkgerrors "github.com/oceanbites/oceanbites-backend/pkg/errors"
	"github.com/oceanbites/oceanbites-backend/pkg/kv"
	"github.com/oceanbites/oceanbites-backend/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-OceanBites-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the durable store answers before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, store kv.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-OceanBites-Env", cfg.App.Env)
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "kv store unavailable"))
			return
		}
		if err := store.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "kv store unreachable"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
