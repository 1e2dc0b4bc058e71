package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/boxdpick/internal/httpserver/deps"
	"github.com/MrSnakeDoc/boxdpick/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/boxdpick/internal/httpserver/mw"
)

func init() { Register(registerSession) }

func registerSession(r chi.Router, d deps.Deps) {
	submitLimit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.SubmitBurst,
		RefillPerIPPerMin: d.SubmitPerMin,
		MaxEntries:        10000,
		TrustProxy:        d.TrustProxy,
	})

	r.Get("/api/state", handlers.State(d))
	r.Put("/api/usernames", handlers.Usernames(d))
	r.Put("/api/options", handlers.Options(d))
	r.With(submitLimit).Post("/api/submit", handlers.Submit(d))
	r.Delete("/api/request", handlers.ResetRequest(d))
	r.Delete("/api/notification", handlers.Dismiss(d))
	r.Get("/api/ws", handlers.Stream(d))
}
