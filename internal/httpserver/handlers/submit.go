package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/boxdpick/internal/httpserver/deps"
	"github.com/MrSnakeDoc/boxdpick/internal/logger"
)

const defaultSubmitWait = 25 * time.Second

// Submit starts a recommendation request and waits for its outcome.
// It answers 409 when the submit is ignored (empty field or a request
// already in flight) and 202 when the outcome is not known within the
// wait window; the request keeps running and its result is pushed on
// /api/ws. A client that disconnects does not cancel the request.
func Submit(d deps.Deps) http.HandlerFunc {
	wait := d.SubmitWait
	if wait <= 0 {
		wait = defaultSubmitWait
	}

	return func(w http.ResponseWriter, r *http.Request) {
		done := d.Session.Submit()
		if done == nil {
			snap := d.Session.Snapshot()
			msg := "nothing to submit"
			if len(snap.Handles) > 0 {
				msg = "a request is already in progress"
			}
			writeError(w, http.StatusConflict, msg, &snap)
			return
		}

		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-done:
			writeJSON(w, http.StatusOK, d.Session.Snapshot())
		case <-timer.C:
			d.Logger.Info("submit still running, answering early",
				logger.Duration("waited", wait))
			writeJSON(w, http.StatusAccepted, d.Session.Snapshot())
		case <-r.Context().Done():
			d.Logger.Debug("client left before the request resolved")
		}
	}
}

// ResetRequest drops results and errors, discarding any in-flight outcome.
func ResetRequest(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Session.ResetRequest()
		writeJSON(w, http.StatusOK, d.Session.Snapshot())
	}
}
