package models

import "strings"

// Movie is the normalized in-flight record the discovery pipeline works on.
// It is built from a TMDB detail lookup and enriched in place with OMDb data.
// TMDBID is the primary identifier; a record without one cannot be enriched
// or committed. Year 0 means "unknown", not an error.
type Movie struct {
	Title            string   `json:"title"`
	Year             int      `json:"year"`
	TMDBID           int64    `json:"tmdb_id"`
	IMDBID           string   `json:"imdb_id,omitempty"`
	OriginalLanguage string   `json:"original_language"`
	Genres           []string `json:"genres"`
	TMDBRating       float64  `json:"tmdb_rating"`
	IMDBRating       *float64 `json:"imdb_rating,omitempty"`
	RTScore          *int     `json:"rt_score,omitempty"`
	VoteCount        int      `json:"vote_count"`
}

// GenresLower returns the movie's genres lower-cased for comparison.
func (m *Movie) GenresLower() []string {
	out := make([]string, len(m.Genres))
	for i, g := range m.Genres {
		out[i] = strings.ToLower(g)
	}
	return out
}

// OMDbEntry is the cached result of one OMDb lookup, keyed "omdb:<imdb_id>"
// in the enrichment cache. Once written within a run it is authoritative for
// the rest of that run and is the unit of persistence across runs.
type OMDbEntry struct {
	IMDBRating *float64 `json:"imdb_rating"`
	RTScore    *int     `json:"rt_score"`
	IMDBVotes  int      `json:"imdb_votes,omitempty"`
}
