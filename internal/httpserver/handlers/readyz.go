package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/boxdpick/internal/httpserver/deps"
	"github.com/MrSnakeDoc/boxdpick/internal/logger"
)

const probeTimeout = 2 * time.Second

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// Readyz reports ready once the shortlist storage answers.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pingStorage(r.Context(), d); err != nil {
			d.Logger.Warn("readiness check failed",
				logger.String("storage", d.StorageName),
				logger.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false, Error: "storage unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}

func pingStorage(ctx context.Context, d deps.Deps) error {
	if d.Storage == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return d.Storage.Ping(ctx)
}
