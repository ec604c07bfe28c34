package discovery

import (
	"context"
	"reflect"
	"testing"

	"suborbit/models"
	"suborbit/services/cache"
	"suborbit/services/tmdb"
)

type fakeCatalog struct {
	details     map[int64]*tmdb.Details
	detailCalls int
	pages       map[int][][]tmdb.Candidate // year -> pages
}

func (f *fakeCatalog) GetDetails(_ context.Context, id int64) *tmdb.Details {
	f.detailCalls++
	return f.details[id]
}

func (f *fakeCatalog) Discover(_ context.Context, year, page int) []tmdb.Candidate {
	pages := f.pages[year]
	if page < 1 || page > len(pages) {
		return nil
	}
	return pages[page-1]
}

type fakeRatings struct {
	entries map[string]models.OMDbEntry
	calls   int
}

func (f *fakeRatings) Ratings(_ context.Context, imdbID string) models.OMDbEntry {
	f.calls++
	return f.entries[imdbID]
}

func matrixDetails() *tmdb.Details {
	return &tmdb.Details{
		ID:               603,
		Title:            "The Matrix",
		ReleaseDate:      "1999-03-31",
		IMDBID:           "tt0133093",
		OriginalLanguage: "en",
		VoteAverage:      8.2,
		VoteCount:        24000,
		Genres: []struct {
			Name string `json:"name"`
		}{{Name: "Action"}, {Name: "Science Fiction"}},
	}
}

func TestEnrichMissingTMDBID(t *testing.T) {
	catalog := &fakeCatalog{}
	ratings := &fakeRatings{}
	cm := cache.Map{}

	movie := NewEnricher(catalog, ratings).Enrich(context.Background(), Candidate{}, cm, 0)
	if movie != nil {
		t.Fatalf("expected nil for candidate without TMDB id, got %+v", movie)
	}
	if catalog.detailCalls != 0 || ratings.calls != 0 || len(cm) != 0 {
		t.Fatal("no lookup or cache side effect may occur for an unidentifiable candidate")
	}
}

func TestEnrichDetailLookupFailure(t *testing.T) {
	catalog := &fakeCatalog{details: map[int64]*tmdb.Details{}}
	ratings := &fakeRatings{}
	cm := cache.Map{}

	movie := NewEnricher(catalog, ratings).Enrich(context.Background(), Candidate{TMDBID: 42}, cm, 0)
	if movie != nil {
		t.Fatalf("failed detail lookup must drop the candidate, got %+v", movie)
	}
	if ratings.calls != 0 || len(cm) != 0 {
		t.Fatal("dropped candidate must leave no side effects")
	}
}

func TestEnrichPopulatesAndCaches(t *testing.T) {
	catalog := &fakeCatalog{details: map[int64]*tmdb.Details{603: matrixDetails()}}
	ratings := &fakeRatings{entries: map[string]models.OMDbEntry{
		"tt0133093": {IMDBRating: floatPtr(8.7), RTScore: intPtr(83), IMDBVotes: 2000000},
	}}
	cm := cache.Map{}

	movie := NewEnricher(catalog, ratings).Enrich(context.Background(), Candidate{TMDBID: 603}, cm, 0)
	if movie == nil {
		t.Fatal("expected enriched movie")
	}
	if movie.Year != 1999 || movie.Title != "The Matrix" || movie.OriginalLanguage != "en" {
		t.Fatalf("detail fields wrong: %+v", movie)
	}
	if movie.IMDBRating == nil || *movie.IMDBRating != 8.7 {
		t.Fatalf("imdb rating: %v", movie.IMDBRating)
	}
	if movie.RTScore == nil || *movie.RTScore != 83 {
		t.Fatalf("rt score: %v", movie.RTScore)
	}
	if movie.VoteCount != 2000000 {
		t.Fatalf("live IMDb votes must override, got %d", movie.VoteCount)
	}
	if _, ok := cm["omdb:tt0133093"]; !ok {
		t.Fatal("result must be written back to the cache")
	}
}

func TestEnrichCacheHitMakesNoNetworkCall(t *testing.T) {
	catalog := &fakeCatalog{details: map[int64]*tmdb.Details{603: matrixDetails()}}
	ratings := &fakeRatings{entries: map[string]models.OMDbEntry{
		"tt0133093": {IMDBRating: floatPtr(8.7)},
	}}
	e := NewEnricher(catalog, ratings)

	cm := cache.Map{}
	first := e.Enrich(context.Background(), Candidate{TMDBID: 603}, cm, 0)
	second := e.Enrich(context.Background(), Candidate{TMDBID: 603}, cm, 0)

	if ratings.calls != 1 {
		t.Fatalf("second enrich must be a cache hit, got %d rating lookups", ratings.calls)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("enrich is not idempotent:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestEnrichVoteCountRescue(t *testing.T) {
	details := matrixDetails()
	details.VoteCount = 3
	catalog := &fakeCatalog{details: map[int64]*tmdb.Details{603: details}}
	ratings := &fakeRatings{}

	cm := cache.Map{"omdb:tt0133093": {IMDBVotes: 500}}
	movie := NewEnricher(catalog, ratings).Enrich(context.Background(), Candidate{TMDBID: 603}, cm, 100)
	if movie.VoteCount != 500 {
		t.Fatalf("cached vote override must rescue a vote-starved record, got %d", movie.VoteCount)
	}
	if ratings.calls != 0 {
		t.Fatal("cache hit must not trigger a live lookup")
	}

	// Above the floor the primary count stands.
	details.VoteCount = 150
	movie = NewEnricher(catalog, ratings).Enrich(context.Background(), Candidate{TMDBID: 603}, cm, 100)
	if movie.VoteCount != 150 {
		t.Fatalf("override must not replace a healthy vote count, got %d", movie.VoteCount)
	}
}

func TestEnrichNoIMDBIDSkipsRatings(t *testing.T) {
	details := matrixDetails()
	details.IMDBID = ""
	catalog := &fakeCatalog{details: map[int64]*tmdb.Details{603: details}}
	ratings := &fakeRatings{}
	cm := cache.Map{}

	movie := NewEnricher(catalog, ratings).Enrich(context.Background(), Candidate{TMDBID: 603}, cm, 0)
	if movie == nil {
		t.Fatal("movie without IMDb id is still a valid record")
	}
	if ratings.calls != 0 || len(cm) != 0 {
		t.Fatal("no secondary enrichment without an IMDb id")
	}
}
