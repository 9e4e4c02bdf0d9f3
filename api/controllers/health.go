package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/gearstore/api/responses"
	"github.com/angelmondragon/gearstore/pkg/config"
	pkgerrors "github.com/angelmondragon/gearstore/pkg/errors"
	"github.com/angelmondragon/gearstore/pkg/logger"
)

// Pinger checks a dependency's reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthz reports readiness of the local storage backend.
func Healthz(cfg *config.Config, storage Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Gearstore-Env", cfg.App.Env)
		if storage != nil {
			if err := storage.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storage unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{
			"status":  "ok",
			"storage": cfg.Storage.NormalizedDriver(),
		})
	}
}
