package controllers

import (
	"context"
	"net/http"

	"github.com/ekamauln/livo-mobile-order/api/responses"
	"github.com/ekamauln/livo-mobile-order/pkg/config"
	"github.com/ekamauln/livo-mobile-order/pkg/logger"
)

// Pinger is any dependency with a reachability probe.
type Pinger interface {
	Ping(context.Context) error
}

func Healthz(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Livo-Env", cfg.App.Env)

		status := map[string]string{"status": "live"}
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				status[name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(r.Context(), "health probe failed: "+name, err)
				}
				continue
			}
			status[name] = "up"
		}

		if !healthy {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
