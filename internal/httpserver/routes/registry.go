// Package routes collects route registrars. Each file registers itself from
// init() and NewRouter mounts them all with RegisterAll.
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/boxdpick/internal/httpserver/deps"
	"github.com/MrSnakeDoc/boxdpick/internal/logger"
)

type Registrar func(r chi.Router, d deps.Deps)

var registry []Registrar

func Register(reg Registrar) {
	registry = append(registry, reg)
}

// RegisterAll mounts every registered route and logs the resulting table
// at debug level.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, reg := range registry {
		reg(r, d)
	}

	n := 0
	_ = chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		d.Logger.Debug("route", logger.String("method", method), logger.String("path", route))
		n++
		return nil
	})
	d.Logger.Debug("routes registered", logger.Int("count", n))
}
