package discovery

import (
	"fmt"
	"slices"

	"suborbit/models"
)

// Gates enables or disables each rating axis globally, independent of the
// thresholds a run supplies. A disabled axis passes regardless of the value.
type Gates struct {
	TMDB bool
	IMDB bool
	RT   bool
}

// Evaluate checks a movie against the run's criteria and returns the first
// failing reason, or "" when every axis passes. Checks run in a fixed order;
// order only affects which reason is reported, all checks are conjunctions.
func Evaluate(m *models.Movie, c models.RunCriteria, g Gates) string {
	if m.Year < c.StartYear {
		return fmt.Sprintf("too old (year %d < %d)", m.Year, c.StartYear)
	}
	if m.Year > c.EndYear {
		return fmt.Sprintf("too new (year %d > %d)", m.Year, c.EndYear)
	}

	if m.VoteCount < c.MinVoteCount {
		return fmt.Sprintf("too few votes (%d < %d)", m.VoteCount, c.MinVoteCount)
	}

	if g.TMDB && m.TMDBRating < c.MinTMDBRating {
		return fmt.Sprintf("low TMDB (%.1f < %.1f)", m.TMDBRating, c.MinTMDBRating)
	}
	if g.IMDB {
		rating := 0.0
		if m.IMDBRating != nil {
			rating = *m.IMDBRating
		}
		if rating < c.MinIMDBRating {
			return fmt.Sprintf("low IMDB (%.1f < %.1f)", rating, c.MinIMDBRating)
		}
	}
	if g.RT {
		score := 0
		if m.RTScore != nil {
			score = *m.RTScore
		}
		if score < c.MinRTScore {
			return fmt.Sprintf("low RT (%d < %d)", score, c.MinRTScore)
		}
	}

	genres := m.GenresLower()
	if len(c.IncludeGenres) > 0 {
		found := false
		for _, g := range c.IncludeGenres {
			if slices.Contains(genres, g) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Sprintf("no required genres (movie has %v, wanted %v)", genres, c.IncludeGenres)
		}
	}
	if len(c.ExcludeGenres) > 0 {
		for _, g := range c.ExcludeGenres {
			if slices.Contains(genres, g) {
				return fmt.Sprintf("excluded genre present (movie has %v, excludes %v)", genres, c.ExcludeGenres)
			}
		}
	}

	return ""
}
