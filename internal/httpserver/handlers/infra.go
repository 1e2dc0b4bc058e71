package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/boxdpick/internal/httpserver/deps"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of the shortlist storage and of the circuit
// breaker guarding the recommendation service.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"storage":   checkStorage(r, d),
			"recommend": checkBreaker(d),
		}
		writeJSON(w, http.StatusOK, infraResponse{
			Status:     overallStatus(components),
			Components: components,
		})
	}
}

func overallStatus(components map[string]componentStatus) string {
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "ok"
}

func checkStorage(r *http.Request, d deps.Deps) componentStatus {
	if err := pingStorage(r.Context(), d); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   d.StorageName,
			Impact: "shortlist-not-persisted",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true, Mode: d.StorageName}
}

func checkBreaker(d deps.Deps) componentStatus {
	if d.Breaker == nil {
		return componentStatus{OK: true, Mode: "direct"}
	}
	state := d.Breaker.State()
	if state == "open" {
		return componentStatus{
			OK:     false,
			Mode:   state,
			Impact: "requests-fail-fast",
		}
	}
	return componentStatus{OK: true, Mode: state}
}
