package tmdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"suborbit/services/fetch"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(fetch.NewClient(), "test-key")
	c.SetBaseURL(srv.URL)
	return c, srv
}

func TestDiscoverParamsAndDecode(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/discover/movie" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api_key") != "test-key" {
			t.Errorf("api_key = %q", q.Get("api_key"))
		}
		if q.Get("primary_release_year") != "2023" {
			t.Errorf("primary_release_year = %q", q.Get("primary_release_year"))
		}
		if q.Get("sort_by") != "popularity.desc" {
			t.Errorf("sort_by = %q", q.Get("sort_by"))
		}
		if q.Get("page") != "2" {
			t.Errorf("page = %q", q.Get("page"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"id": 603, "title": "The Matrix"},
				{"id": 604, "title": "The Matrix Reloaded"},
			},
		})
	}))

	got := c.Discover(context.Background(), 2023, 2)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].ID != 603 || got[0].Title != "The Matrix" {
		t.Fatalf("unexpected first candidate: %+v", got[0])
	}
}

func TestDiscoverServerErrorYieldsEmptyPage(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	if got := c.Discover(context.Background(), 2023, 1); got != nil {
		t.Fatalf("got %v, want nil page on server error", got)
	}
}

func TestGetDetails(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/603" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":                603,
			"title":             "The Matrix",
			"release_date":      "1999-03-31",
			"imdb_id":           "tt0133093",
			"original_language": "en",
			"vote_average":      8.2,
			"vote_count":        24000,
			"genres":            []map[string]any{{"id": 28, "name": "Action"}, {"id": 878, "name": "Science Fiction"}},
		})
	}))

	d := c.GetDetails(context.Background(), 603)
	if d == nil {
		t.Fatal("expected details")
	}
	if d.IMDBID != "tt0133093" || d.VoteCount != 24000 {
		t.Fatalf("unexpected details: %+v", d)
	}
	genres := d.GenreNames()
	if len(genres) != 2 || genres[1] != "Science Fiction" {
		t.Fatalf("GenreNames = %v", genres)
	}
}

func TestGetDetailsNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.NotFoundHandler())
	if d := c.GetDetails(context.Background(), 999); d != nil {
		t.Fatalf("got %+v, want nil on 404", d)
	}
}

func TestGenresRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"genres": []map[string]any{{"id": 28, "name": "Action"}, {"id": 35, "name": "Comedy"}},
		})
	}))

	names, err := c.Genres(context.Background())
	if err != nil {
		t.Fatalf("Genres: %v", err)
	}
	if len(names) != 2 || names[0] != "Action" {
		t.Fatalf("names = %v", names)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestGenresGivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	if _, err := c.Genres(context.Background()); err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestPing(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/configuration" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{}`))
	}))
	if !c.Ping(context.Background()) {
		t.Fatal("expected ping to succeed")
	}
}

func TestParseYear(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"1999-03-31", 1999},
		{"2020", 2020},
		{"", 0},
		{"abcd-01-01", 0},
		{"19", 0},
	}
	for _, tc := range cases {
		if got := ParseYear(tc.in); got != tc.want {
			t.Errorf("ParseYear(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
