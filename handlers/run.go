// Package handlers exposes the HTTP API: run control, run history, the
// dashboard feeds, and operational endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"suborbit/internal/database"
	"suborbit/models"
	"suborbit/services/discovery"
)

type runService interface {
	Start(criteria models.RunCriteria) (models.RunHandle, bool)
	Stop()
	IsRunning() bool
}

var _ runService = (*discovery.Service)(nil)

type runHistory interface {
	List(limit int) ([]models.Run, error)
}

var _ runHistory = (*database.RunRepository)(nil)

// RunHandler drives the pipeline orchestrator over HTTP.
type RunHandler struct {
	Service  runService
	History  runHistory
	Defaults models.RunCriteria
}

func NewRunHandler(service runService, history runHistory, defaults models.RunCriteria) *RunHandler {
	return &RunHandler{Service: service, History: history, Defaults: defaults}
}

// startRequest is the JSON body for POST /api/run/start. Absent fields fall
// back to the configured defaults; Genres is the raw comma-separated form
// value ("drama,!horror").
type startRequest struct {
	StartYear    *int     `json:"start_year"`
	EndYear      *int     `json:"end_year"`
	MinTMDB      *float64 `json:"min_tmdb"`
	MinIMDB      *float64 `json:"min_imdb"`
	MinRT        *int     `json:"min_rt"`
	MinVoteCount *int     `json:"min_vote_count"`
	MaxMovies    *int     `json:"max_movies"`
	MaxPages     *int     `json:"max_pages"`
	SubtitleLang string   `json:"subtitle_lang"`
	Genres       string   `json:"genres"`
	Randomize    bool     `json:"randomize"`
	TraktUser    string   `json:"trakt_user"`
	TraktList    string   `json:"trakt_list"`
}

func (h *RunHandler) criteria(req startRequest) models.RunCriteria {
	c := h.Defaults
	if req.StartYear != nil {
		c.StartYear = *req.StartYear
	}
	if req.EndYear != nil {
		c.EndYear = *req.EndYear
	}
	if req.MinTMDB != nil {
		c.MinTMDBRating = *req.MinTMDB
	}
	if req.MinIMDB != nil {
		c.MinIMDBRating = *req.MinIMDB
	}
	if req.MinRT != nil {
		c.MinRTScore = *req.MinRT
	}
	if req.MinVoteCount != nil {
		c.MinVoteCount = *req.MinVoteCount
	}
	if req.MaxMovies != nil {
		c.MaxMovies = *req.MaxMovies
	}
	if req.MaxPages != nil {
		c.MaxPages = *req.MaxPages
	}
	if req.SubtitleLang != "" {
		c.SubtitleLang = req.SubtitleLang
	}
	c.IncludeGenres, c.ExcludeGenres = models.ParseGenres(req.Genres)
	c.Randomize = req.Randomize
	c.TraktUser = req.TraktUser
	c.TraktList = req.TraktList
	return c
}

// Start launches a run. 409 when one is already active.
func (h *RunHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	// An empty body means "use the configured defaults".
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	c := h.criteria(req)
	if c.StartYear > c.EndYear {
		http.Error(w, "start_year must not exceed end_year", http.StatusBadRequest)
		return
	}

	handle, ok := h.Service.Start(c)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "a run is already active"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(handle)
}

// Stop requests the active run unwind. Always 202; stopping an idle service
// is harmless.
func (h *RunHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.Service.Stop()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]bool{"stopping": true})
}

// Status reports whether a run is in flight.
func (h *RunHandler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"running": h.Service.IsRunning()})
}

// List returns recent runs from the history store, newest first.
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	runs, err := h.History.List(20)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []models.Run{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}
