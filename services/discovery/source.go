package discovery

import (
	"context"
	"log"
	"math/rand"

	"suborbit/models"
	"suborbit/services/tmdb"
	"suborbit/services/trakt"
)

// discoverClient is the slice of the TMDB client the source needs.
type discoverClient interface {
	Discover(ctx context.Context, year, page int) []tmdb.Candidate
}

// watchlistClient is the slice of the Trakt client the source needs.
type watchlistClient interface {
	ListMovies(ctx context.Context, user, list string) []trakt.Movie
}

// candidatesForYear concatenates up to maxPages discovery pages for one year
// into a single popularity-ordered sequence, shuffling it when the run asks
// for variety. The stop token is polled between pages.
func (s *Service) candidatesForYear(ctx context.Context, year int, c models.RunCriteria) []Candidate {
	var out []Candidate
	for page := 1; page <= c.MaxPages; page++ {
		if s.stop.Stopped() {
			break
		}
		for _, raw := range s.catalog.Discover(ctx, year, page) {
			out = append(out, Candidate{TMDBID: raw.ID, Title: raw.Title})
		}
	}
	if c.Randomize {
		rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	return out
}

// watchlistCandidates fetches the full Trakt list in one shot. After this
// sequence is exhausted the run ends, regardless of remaining years.
func (s *Service) watchlistCandidates(ctx context.Context, c models.RunCriteria) []Candidate {
	movies := s.watchlist.ListMovies(ctx, c.TraktUser, c.TraktList)
	out := make([]Candidate, 0, len(movies))
	for _, m := range movies {
		out = append(out, Candidate{TMDBID: m.IDs.TMDB, Title: m.Title})
	}
	if c.Randomize {
		rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	log.Printf("[discovery] loaded %d movies from Trakt list", len(out))
	return out
}
