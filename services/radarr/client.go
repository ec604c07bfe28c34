// Package radarr is the gate in front of the library manager: an existence
// pre-check, the add itself, and the recently-added feed for the dashboard.
//
// The pre-check fails open: a transport failure reads as "not present" so a
// flaky Radarr cannot stall the pipeline. A duplicate slipping through is
// rejected by Radarr's own add validation and treated as a soft outcome.
package radarr

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"suborbit/services/fetch"
)

const recentTTL = 10 * time.Minute

// AddOptions carries the static parts of an add request.
type AddOptions struct {
	QualityProfileID int
	RootFolder       string
	SearchForMovie   bool
}

// RecentMovie is one row of the recently-added dashboard feed.
type RecentMovie struct {
	Title  string   `json:"title"`
	Year   int      `json:"year"`
	Rating *float64 `json:"rating,omitempty"`
	Poster string   `json:"poster,omitempty"`
	TMDB   string   `json:"tmdb,omitempty"`
	IMDB   string   `json:"imdb,omitempty"`
}

// Client talks to a Radarr v3 instance.
type Client struct {
	fetcher *fetch.Client
	baseURL string
	apiKey  string
	opts    AddOptions

	recentMu   sync.Mutex
	recent     []RecentMovie
	recentFrom time.Time
}

// NewClient creates a Radarr client. baseURL includes the /api/v3 prefix.
func NewClient(fetcher *fetch.Client, baseURL, apiKey string, opts AddOptions) *Client {
	return &Client{fetcher: fetcher, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, opts: opts}
}

func (c *Client) headers() map[string]string {
	return map[string]string{"X-Api-Key": c.apiKey}
}

// Exists reports whether a movie with the given TMDB id is already in the
// library. Named fail-open policy: any transport failure reads as "not
// present" so the pipeline keeps moving; the add itself rejects duplicates.
func (c *Client) Exists(ctx context.Context, tmdbID int64) bool {
	params := url.Values{"tmdbId": {strconv.FormatInt(tmdbID, 10)}}
	resp := c.fetcher.Get(ctx, c.baseURL+"/movie", params, c.headers())
	if !resp.OK() {
		return false
	}
	var movies []struct {
		ID int64 `json:"id"`
	}
	if err := resp.JSON(&movies); err != nil {
		return false
	}
	return len(movies) > 0
}

// Add requests the movie be added to the library. On success it returns
// (true, "added"). When Radarr rejects the add because the title is already
// present it returns (false, "exists") — a soft, expected outcome. Any other
// failure returns the diagnostic. Add never retries.
func (c *Client) Add(ctx context.Context, tmdbID int64, title string) (bool, string) {
	payload := map[string]any{
		"tmdbId":           tmdbID,
		"qualityProfileId": c.opts.QualityProfileID,
		"title":            title,
		"titleSlug":        strconv.FormatInt(tmdbID, 10),
		"rootFolderPath":   c.opts.RootFolder,
		"monitored":        true,
		"addOptions":       map[string]any{"searchForMovie": c.opts.SearchForMovie},
	}
	resp := c.fetcher.Post(ctx, c.baseURL+"/movie", payload, c.headers())
	if resp == nil {
		return false, "no response"
	}
	if resp.StatusCode == 201 {
		return true, "added"
	}
	body := string(resp.Body)
	if (resp.StatusCode == 400 || resp.StatusCode == 405) &&
		(strings.Contains(body, "MovieExistsValidator") || strings.Contains(body, "been added")) {
		return false, "exists"
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return false, fmt.Sprintf("status=%d %s", resp.StatusCode, body)
}

// Ping checks Radarr reachability for the status page.
func (c *Client) Ping(ctx context.Context) bool {
	resp := c.fetcher.Get(ctx, c.baseURL+"/system/status", nil, c.headers())
	return resp.OK()
}

type radarrMovie struct {
	Title  string `json:"title"`
	Year   int    `json:"year"`
	TMDBID int64  `json:"tmdbId"`
	IMDBID string `json:"imdbId"`
	Added  string `json:"added"`
	Images []struct {
		CoverType string `json:"coverType"`
		URL       string `json:"url"`
		RemoteURL string `json:"remoteUrl"`
	} `json:"images"`
	Ratings map[string]struct {
		Value float64 `json:"value"`
	} `json:"ratings"`
}

// Recent returns the ten most recently added library movies, cached in
// memory for ten minutes.
func (c *Client) Recent(ctx context.Context) ([]RecentMovie, error) {
	c.recentMu.Lock()
	if c.recent != nil && time.Since(c.recentFrom) < recentTTL {
		cached := c.recent
		c.recentMu.Unlock()
		return cached, nil
	}
	c.recentMu.Unlock()

	resp := c.fetcher.Get(ctx, c.baseURL+"/movie", nil, c.headers())
	if !resp.OK() {
		return nil, fmt.Errorf("radarr movie list: status=%s", resp.Status())
	}
	var movies []radarrMovie
	if err := resp.JSON(&movies); err != nil {
		return nil, fmt.Errorf("radarr movie list: decode: %w", err)
	}

	sort.Slice(movies, func(i, j int) bool { return movies[i].Added > movies[j].Added })
	if len(movies) > 10 {
		movies = movies[:10]
	}

	recent := make([]RecentMovie, 0, len(movies))
	for _, m := range movies {
		recent = append(recent, c.toRecent(m))
	}

	c.recentMu.Lock()
	c.recent = recent
	c.recentFrom = time.Now()
	c.recentMu.Unlock()
	return recent, nil
}

// InvalidateRecent drops the cached recent feed, forcing the next Recent
// call to hit Radarr. Called after every successful add.
func (c *Client) InvalidateRecent() {
	c.recentMu.Lock()
	c.recent = nil
	c.recentMu.Unlock()
}

func (c *Client) toRecent(m radarrMovie) RecentMovie {
	r := RecentMovie{Title: m.Title, Year: m.Year}
	for _, img := range m.Images {
		if img.CoverType != "poster" {
			continue
		}
		path := img.RemoteURL
		if path == "" {
			path = img.URL
		}
		if path == "" {
			continue
		}
		if strings.HasPrefix(path, "http") {
			r.Poster = path
		} else {
			r.Poster = c.baseURL + path
		}
		break
	}
	// Radarr stores several ratings; prefer IMDb, fall back to TMDB.
	if v, ok := m.Ratings["imdb"]; ok && v.Value > 0 {
		val := v.Value
		r.Rating = &val
	} else if v, ok := m.Ratings["tmdb"]; ok && v.Value > 0 {
		val := v.Value
		r.Rating = &val
	}
	if m.TMDBID != 0 {
		r.TMDB = fmt.Sprintf("https://www.themoviedb.org/movie/%d", m.TMDBID)
	}
	if m.IMDBID != "" {
		r.IMDB = "https://www.imdb.com/title/" + m.IMDBID
	}
	return r
}
