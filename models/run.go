package models

import (
	"strings"
	"time"
)

// RunCriteria is the immutable input to one discovery run.
// Empty genre sets mean "no constraint". When TraktUser and TraktList are
// both set the run sources candidates from that list instead of TMDB
// discovery.
type RunCriteria struct {
	StartYear     int      `json:"start_year"`
	EndYear       int      `json:"end_year"`
	MinTMDBRating float64  `json:"min_tmdb"`
	MinIMDBRating float64  `json:"min_imdb"`
	MinRTScore    int      `json:"min_rt"`
	MinVoteCount  int      `json:"min_vote_count"`
	MaxMovies     int      `json:"max_movies"`
	MaxPages      int      `json:"max_pages"`
	SubtitleLang  string   `json:"subtitle_lang"`
	IncludeGenres []string `json:"include_genres,omitempty"`
	ExcludeGenres []string `json:"exclude_genres,omitempty"`
	Randomize     bool     `json:"randomize"`
	TraktUser     string   `json:"trakt_user,omitempty"`
	TraktList     string   `json:"trakt_list,omitempty"`
}

// WatchlistMode reports whether the run sources candidates from a Trakt list.
func (c RunCriteria) WatchlistMode() bool {
	return c.TraktUser != "" && c.TraktList != ""
}

// ParseGenres splits a comma-separated genre string into include and exclude
// sets. A leading "!" marks an exclude. Everything is lower-cased.
func ParseGenres(raw string) (include, exclude []string) {
	for _, part := range strings.Split(raw, ",") {
		g := strings.ToLower(strings.TrimSpace(part))
		if g == "" {
			continue
		}
		if strings.HasPrefix(g, "!") {
			if g = g[1:]; g != "" {
				exclude = append(exclude, g)
			}
			continue
		}
		include = append(include, g)
	}
	return include, exclude
}

// RunState is the lifecycle state of the pipeline orchestrator.
type RunState string

const (
	RunStateIdle      RunState = "idle"
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateStopped   RunState = "stopped"
	RunStateFailed    RunState = "failed"
)

// Run is one recorded discovery run, persisted to the run history store.
type Run struct {
	ID         string     `json:"id"`
	State      RunState   `json:"state"`
	StartYear  int        `json:"start_year"`
	EndYear    int        `json:"end_year"`
	Source     string     `json:"source"` // "catalog" or "watchlist"
	Accepted   int        `json:"accepted"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// RunHandle identifies an in-flight run to the caller that started it.
type RunHandle struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
}
