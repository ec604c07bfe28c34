package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"suborbit/services/radarr"
	"suborbit/services/tmdb"
)

type libraryService interface {
	Recent(ctx context.Context) ([]radarr.RecentMovie, error)
	InvalidateRecent()
}

var _ libraryService = (*radarr.Client)(nil)

type genreService interface {
	Genres(ctx context.Context) ([]string, error)
}

var _ genreService = (*tmdb.Client)(nil)

// LibraryHandler serves the dashboard feeds: recently added movies and the
// genre list backing the criteria form.
type LibraryHandler struct {
	Library libraryService
	Genres  genreService
}

func NewLibraryHandler(library libraryService, genres genreService) *LibraryHandler {
	return &LibraryHandler{Library: library, Genres: genres}
}

// Recent returns the newest additions to the Radarr library.
func (h *LibraryHandler) Recent(w http.ResponseWriter, r *http.Request) {
	movies, err := h.Library.Recent(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if movies == nil {
		movies = []radarr.RecentMovie{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(movies)
}

// Refresh drops the cached recent feed so the next read hits Radarr.
func (h *LibraryHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.Library.InvalidateRecent()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]bool{"refreshed": true})
}

// GenreList returns TMDB's movie genre names.
func (h *LibraryHandler) GenreList(w http.ResponseWriter, r *http.Request) {
	names, err := h.Genres.Genres(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(names)
}
