package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/boxdpick/internal/domain"
	"github.com/MrSnakeDoc/boxdpick/internal/httpserver/deps"
	"github.com/MrSnakeDoc/boxdpick/internal/shortlist"
)

// ShortlistAdd shortlists the movie in the body: 201 when added, 409 with
// the notification text when the list is full or already holds it.
func ShortlistAdd(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var movie domain.Movie
		if err := decodeJSON(w, r, &movie); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		if !movie.Valid() {
			writeError(w, http.StatusBadRequest, "movie id is required", nil)
			return
		}

		res := d.Session.TryAdd(movie)
		snap := d.Session.Snapshot()
		if res != shortlist.Added {
			writeError(w, http.StatusConflict, res.Message(), &snap)
			return
		}
		writeJSON(w, http.StatusCreated, snap)
	}
}

// ShortlistRemove drops one movie; unknown ids are not an error.
func ShortlistRemove(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Session.Remove(chi.URLParam(r, "id"))
		writeJSON(w, http.StatusOK, d.Session.Snapshot())
	}
}

// ShortlistClear empties the shortlist.
func ShortlistClear(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Session.ClearShortlist()
		writeJSON(w, http.StatusOK, d.Session.Snapshot())
	}
}
