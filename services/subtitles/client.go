// Package subtitles checks OpenSubtitles for human-made subtitles in a given
// language. AI and machine translations are excluded. Every lookup is
// followed by a politeness interval enforced with a rate limiter so the
// pipeline cannot hammer the API.
package subtitles

import (
	"context"
	"log"
	"net/url"

	"golang.org/x/time/rate"

	"suborbit/services/fetch"
)

const defaultBaseURL = "https://api.opensubtitles.com/api/v1"

const userAgent = "SubOrbit/1.0"

// Client queries the OpenSubtitles REST API.
type Client struct {
	fetcher *fetch.Client
	apiKey  string
	baseURL string
	limiter *rate.Limiter
}

// NewClient creates a client whose lookups are spaced at least delay apart.
func NewClient(fetcher *fetch.Client, apiKey string, delay rate.Limit) *Client {
	return &Client{
		fetcher: fetcher,
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		limiter: rate.NewLimiter(delay, 1),
	}
}

// SetBaseURL overrides the API base URL. Used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// HasSubtitles reports whether at least one non-AI, non-machine-translated
// subtitle exists for the IMDb id in the given language. Any failure reads
// as "no subtitles". The politeness interval applies after every call.
func (c *Client) HasSubtitles(ctx context.Context, imdbID, lang string) bool {
	if imdbID == "" {
		return false
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return false
	}

	params := url.Values{
		"languages":          {lang},
		"imdb_id":            {imdbID},
		"type":               {"movie"},
		"ai_translated":      {"exclude"},
		"machine_translated": {"exclude"},
	}
	headers := map[string]string{"Api-Key": c.apiKey, "User-Agent": userAgent}
	resp := c.fetcher.Get(ctx, c.baseURL+"/subtitles", params, headers)
	if !resp.OK() {
		log.Printf("[subtitles] imdb=%s lang=%s: no data (status=%s)", imdbID, lang, resp.Status())
		return false
	}
	var body struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := resp.JSON(&body); err != nil {
		log.Printf("[subtitles] imdb=%s: decode: %v", imdbID, err)
		return false
	}
	return len(body.Data) > 0
}

// Ping checks API reachability for the status page.
func (c *Client) Ping(ctx context.Context) bool {
	headers := map[string]string{"Api-Key": c.apiKey, "User-Agent": userAgent}
	resp := c.fetcher.Get(ctx, c.baseURL+"/infos/languages", nil, headers)
	return resp.OK()
}
