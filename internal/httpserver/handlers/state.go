package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/boxdpick/internal/httpserver/deps"
	"github.com/MrSnakeDoc/boxdpick/internal/logger"
)

// State returns the current session snapshot.
func State(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Session.Snapshot())
	}
}

type usernamesRequest struct {
	Value string `json:"value"`
}

// Usernames applies an edit of the username field. A rejected edit answers
// 422 and the field keeps its previous value.
func Usernames(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req usernamesRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}

		if !d.Session.OnChange(req.Value) {
			snap := d.Session.Snapshot()
			writeError(w, http.StatusUnprocessableEntity, snap.Notification.Message, &snap)
			return
		}
		writeJSON(w, http.StatusOK, d.Session.Snapshot())
	}
}

type optionsRequest struct {
	NumMovies *int  `json:"num_movies"`
	UseCache  *bool `json:"use_cache"`
}

// Options updates the request options; absent fields are left unchanged.
func Options(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req optionsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}

		if req.NumMovies != nil {
			if err := d.Session.SetNumMovies(*req.NumMovies); err != nil {
				d.Logger.Debug("rejected options", logger.Error(err))
				writeError(w, http.StatusBadRequest, err.Error(), nil)
				return
			}
		}
		if req.UseCache != nil {
			d.Session.SetUseCache(*req.UseCache)
		}
		writeJSON(w, http.StatusOK, d.Session.Snapshot())
	}
}

// Dismiss hides the visible notification.
func Dismiss(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Session.Dismiss()
		writeJSON(w, http.StatusOK, d.Session.Snapshot())
	}
}
