package discovery

import (
	"context"

	"suborbit/models"
	"suborbit/services/cache"
	"suborbit/services/tmdb"
)

// Candidate is one raw record from either source mode. Only the TMDB id
// matters to the pipeline; the title is carried for log lines.
type Candidate struct {
	TMDBID int64
	Title  string
}

// catalogClient is the slice of the TMDB client the enricher needs.
type catalogClient interface {
	GetDetails(ctx context.Context, tmdbID int64) *tmdb.Details
}

// ratingsClient is the slice of the OMDb client the enricher needs.
type ratingsClient interface {
	Ratings(ctx context.Context, imdbID string) models.OMDbEntry
}

// Enricher turns a raw candidate into a normalized movie and augments it
// with OMDb ratings, consulting and populating the enrichment cache. Once an
// entry is cached for a key it is authoritative for the rest of the run; the
// cache-hit path performs no network call.
type Enricher struct {
	catalog catalogClient
	ratings ratingsClient
}

// NewEnricher creates an enricher over the two lookup clients.
func NewEnricher(catalog catalogClient, ratings ratingsClient) *Enricher {
	return &Enricher{catalog: catalog, ratings: ratings}
}

func omdbKey(imdbID string) string { return "omdb:" + imdbID }

// Enrich resolves the candidate's detail record and layers OMDb data on top.
// A candidate without a TMDB id, or one whose detail lookup fails, yields
// nil with no cache side effects. Enrich never fails a run; absent data is
// the uniform failure representation.
func (e *Enricher) Enrich(ctx context.Context, cand Candidate, cm cache.Map, voteFloor int) *models.Movie {
	if cand.TMDBID == 0 {
		return nil
	}
	details := e.catalog.GetDetails(ctx, cand.TMDBID)
	if details == nil {
		return nil
	}

	title := details.Title
	if title == "" {
		title = details.OriginalTitle
	}
	movie := &models.Movie{
		Title:            title,
		Year:             tmdb.ParseYear(details.ReleaseDate),
		TMDBID:           cand.TMDBID,
		IMDBID:           details.IMDBID,
		OriginalLanguage: details.OriginalLanguage,
		Genres:           details.GenreNames(),
		TMDBRating:       details.VoteAverage,
		VoteCount:        details.VoteCount,
	}

	if movie.IMDBID == "" {
		return movie
	}

	key := omdbKey(movie.IMDBID)
	if entry, ok := cm[key]; ok {
		movie.IMDBRating = entry.IMDBRating
		movie.RTScore = entry.RTScore
		// A cached IMDb vote count may rescue a record that looks
		// vote-starved from the TMDB side.
		if entry.IMDBVotes > 0 && movie.VoteCount < voteFloor {
			movie.VoteCount = entry.IMDBVotes
		}
		return movie
	}

	entry := e.ratings.Ratings(ctx, movie.IMDBID)
	if entry.IMDBRating != nil {
		movie.IMDBRating = entry.IMDBRating
	}
	if entry.RTScore != nil {
		movie.RTScore = entry.RTScore
	}
	// IMDb votes, when present, are the more reliable count.
	if entry.IMDBVotes > 0 {
		movie.VoteCount = entry.IMDBVotes
	}
	cm[key] = entry
	return movie
}
