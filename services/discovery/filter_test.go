package discovery

import (
	"strings"
	"testing"

	"suborbit/models"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func passingMovie() *models.Movie {
	return &models.Movie{
		Title:      "Example",
		Year:       2020,
		TMDBID:     1,
		IMDBID:     "tt0000001",
		Genres:     []string{"Drama", "Thriller"},
		TMDBRating: 7.5,
		IMDBRating: floatPtr(7.0),
		RTScore:    intPtr(80),
		VoteCount:  1000,
	}
}

func baseCriteria() models.RunCriteria {
	return models.RunCriteria{
		StartYear:     2019,
		EndYear:       2021,
		MinTMDBRating: 6.0,
		MinIMDBRating: 6.0,
		MinRTScore:    50,
		MinVoteCount:  100,
	}
}

var allGates = Gates{TMDB: true, IMDB: true, RT: true}

func TestEvaluatePasses(t *testing.T) {
	if reason := Evaluate(passingMovie(), baseCriteria(), allGates); reason != "" {
		t.Fatalf("expected pass, got %q", reason)
	}
}

func TestEvaluateSingleAxisFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Movie, *models.RunCriteria)
		substr string
	}{
		{"too old", func(m *models.Movie, c *models.RunCriteria) { m.Year = 2018 }, "too old"},
		{"too new", func(m *models.Movie, c *models.RunCriteria) { m.Year = 2022 }, "too new"},
		{"votes", func(m *models.Movie, c *models.RunCriteria) { m.VoteCount = 99 }, "too few votes"},
		{"tmdb", func(m *models.Movie, c *models.RunCriteria) { m.TMDBRating = 5.9 }, "low TMDB"},
		{"imdb", func(m *models.Movie, c *models.RunCriteria) { m.IMDBRating = floatPtr(5.9) }, "low IMDB"},
		{"imdb nil treated as zero", func(m *models.Movie, c *models.RunCriteria) { m.IMDBRating = nil }, "low IMDB"},
		{"rt", func(m *models.Movie, c *models.RunCriteria) { m.RTScore = intPtr(49) }, "low RT"},
		{"rt nil treated as zero", func(m *models.Movie, c *models.RunCriteria) { m.RTScore = nil }, "low RT"},
		{"include genres", func(m *models.Movie, c *models.RunCriteria) { c.IncludeGenres = []string{"comedy"} }, "no required genres"},
		{"exclude genres", func(m *models.Movie, c *models.RunCriteria) { c.ExcludeGenres = []string{"thriller"} }, "excluded genre"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := passingMovie()
			c := baseCriteria()
			tc.mutate(m, &c)
			reason := Evaluate(m, c, allGates)
			if reason == "" {
				t.Fatal("expected a failure reason")
			}
			if !strings.Contains(reason, tc.substr) {
				t.Fatalf("reason %q does not reference the failing axis %q", reason, tc.substr)
			}
		})
	}
}

func TestEvaluateDisabledGatesSkipAxis(t *testing.T) {
	m := passingMovie()
	m.TMDBRating = 0
	m.IMDBRating = nil
	m.RTScore = nil

	if reason := Evaluate(m, baseCriteria(), Gates{}); reason != "" {
		t.Fatalf("all rating axes disabled, expected pass, got %q", reason)
	}
}

func TestEvaluateGenreMatchingIsCaseInsensitive(t *testing.T) {
	m := passingMovie()
	m.Genres = []string{"Science Fiction"}
	c := baseCriteria()
	c.IncludeGenres = []string{"science fiction"}
	if reason := Evaluate(m, c, allGates); reason != "" {
		t.Fatalf("expected case-insensitive genre match, got %q", reason)
	}
}

func TestEvaluateEmptyGenreSetsAreNoConstraint(t *testing.T) {
	m := passingMovie()
	m.Genres = nil
	if reason := Evaluate(m, baseCriteria(), allGates); reason != "" {
		t.Fatalf("empty include/exclude must not reject, got %q", reason)
	}
}

func TestEvaluateYearZeroFailsRange(t *testing.T) {
	m := passingMovie()
	m.Year = 0
	if reason := Evaluate(m, baseCriteria(), allGates); !strings.Contains(reason, "too old") {
		t.Fatalf("unknown year must fail the range check, got %q", reason)
	}
}
