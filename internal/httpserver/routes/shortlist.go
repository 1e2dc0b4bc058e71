package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/boxdpick/internal/httpserver/deps"
	"github.com/MrSnakeDoc/boxdpick/internal/httpserver/handlers"
)

func init() { Register(registerShortlist) }

func registerShortlist(r chi.Router, d deps.Deps) {
	r.Route("/api/shortlist", func(r chi.Router) {
		r.Post("/", handlers.ShortlistAdd(d))
		r.Delete("/", handlers.ShortlistClear(d))
		r.Delete("/{id}", handlers.ShortlistRemove(d))
	})
}
