package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/boxdpick/internal/httpserver/deps"
	"github.com/MrSnakeDoc/boxdpick/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/boxdpick/internal/httpserver/mw"
)

func init() { Register(registerProbes) }

// Probes and the infra report share the CIDR allow-list.
func registerProbes(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
		r.Get("/healthz", handlers.Healthz(d))
		r.Get("/readyz", handlers.Readyz(d))
		r.Get("/api/infra", handlers.Infra(d))
	})
}
