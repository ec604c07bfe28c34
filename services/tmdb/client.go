// Package tmdb talks to The Movie Database: paged discovery by release year,
// per-title detail lookups, and the genre list used by the front-end form.
package tmdb

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"

	"suborbit/services/fetch"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

// Candidate is one raw record from a discovery page. Only the TMDB id is
// guaranteed; everything else is cosmetic until the detail lookup.
type Candidate struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Details is the detail record for a single movie.
type Details struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	ReleaseDate      string  `json:"release_date"`
	IMDBID           string  `json:"imdb_id"`
	OriginalLanguage string  `json:"original_language"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Genres           []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

// GenreNames flattens the detail genre objects to their names.
func (d *Details) GenreNames() []string {
	names := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		names = append(names, g.Name)
	}
	return names
}

// Client queries the TMDB v3 API.
type Client struct {
	fetcher *fetch.Client
	apiKey  string
	baseURL string
}

// NewClient creates a TMDB client.
func NewClient(fetcher *fetch.Client, apiKey string) *Client {
	return &Client{fetcher: fetcher, apiKey: apiKey, baseURL: defaultBaseURL}
}

// SetBaseURL overrides the API base URL. Used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// Discover returns one page of movies for a release year, sorted by
// descending popularity. A failed or non-2xx request yields an empty page.
func (c *Client) Discover(ctx context.Context, year, page int) []Candidate {
	params := url.Values{
		"api_key":              {c.apiKey},
		"primary_release_year": {strconv.Itoa(year)},
		"sort_by":              {"popularity.desc"},
		"page":                 {strconv.Itoa(page)},
	}
	resp := c.fetcher.Get(ctx, c.baseURL+"/discover/movie", params, nil)
	if !resp.OK() {
		log.Printf("[tmdb] discover %d p%d: no data (status=%s)", year, page, resp.Status())
		return nil
	}
	var body struct {
		Results []Candidate `json:"results"`
	}
	if err := resp.JSON(&body); err != nil {
		log.Printf("[tmdb] discover %d p%d: decode: %v", year, page, err)
		return nil
	}
	return body.Results
}

// GetDetails resolves the detail record for a TMDB id. Returns nil when the
// lookup fails; the candidate is dropped, not retried.
func (c *Client) GetDetails(ctx context.Context, tmdbID int64) *Details {
	params := url.Values{"api_key": {c.apiKey}, "language": {"en-US"}}
	resp := c.fetcher.Get(ctx, fmt.Sprintf("%s/movie/%d", c.baseURL, tmdbID), params, nil)
	if !resp.OK() {
		log.Printf("[tmdb] details %d: no data (status=%s)", tmdbID, resp.Status())
		return nil
	}
	var d Details
	if err := resp.JSON(&d); err != nil {
		log.Printf("[tmdb] details %d: decode: %v", tmdbID, err)
		return nil
	}
	return &d
}

// Genres fetches the movie genre list. This backs the front-end form, so
// unlike the pipeline lookups it retries a few times before giving up.
func (c *Client) Genres(ctx context.Context) ([]string, error) {
	var names []string
	err := retry.Do(
		func() error {
			params := url.Values{"api_key": {c.apiKey}, "language": {"en-US"}}
			resp := c.fetcher.Get(ctx, c.baseURL+"/genre/movie/list", params, nil)
			if !resp.OK() {
				return fmt.Errorf("genre list: status=%s", resp.Status())
			}
			var body struct {
				Genres []struct {
					Name string `json:"name"`
				} `json:"genres"`
			}
			if err := resp.JSON(&body); err != nil {
				return fmt.Errorf("genre list: decode: %w", err)
			}
			names = names[:0]
			for _, g := range body.Genres {
				names = append(names, g.Name)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	return names, err
}

// Ping reports whether the API answers with the configured key.
func (c *Client) Ping(ctx context.Context) bool {
	params := url.Values{"api_key": {c.apiKey}}
	return c.fetcher.Get(ctx, c.baseURL+"/configuration", params, nil).OK()
}

// ParseYear extracts the release year from a TMDB date string ("2006-01-02"),
// returning 0 for anything unparsable.
func ParseYear(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil || year < 0 {
		return 0
	}
	return year
}
