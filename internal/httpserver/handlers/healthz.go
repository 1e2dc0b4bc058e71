package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/boxdpick/internal/httpserver/deps"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Storage       string  `json:"storage"`
	Breaker       string  `json:"breaker,omitempty"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
}

// Healthz reports liveness and build info. It never touches the storage;
// that is Readyz's job.
func Healthz(d deps.Deps) http.HandlerFunc {
	now := d.TimeNow
	if now == nil {
		now = time.Now
	}
	storage := d.StorageName
	if storage == "" {
		storage = "memory"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthzResponse{
			Status:        "ok",
			Storage:       storage,
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			UptimeSeconds: now().Sub(d.StartTime).Seconds(),
		}
		if d.Breaker != nil {
			resp.Breaker = d.Breaker.State()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
