// Package omdb looks up IMDb ratings, IMDb vote counts, and Rotten Tomatoes
// scores by IMDb id. OMDb reports absent values as the string "N/A"; those
// come back as nil/zero fields, never as errors.
package omdb

import (
	"context"
	"log"
	"net/url"
	"strconv"
	"strings"

	"suborbit/models"
	"suborbit/services/fetch"
)

const defaultBaseURL = "https://www.omdbapi.com/"

// Client queries the OMDb API.
type Client struct {
	fetcher *fetch.Client
	apiKey  string
	baseURL string
}

// NewClient creates an OMDb client. An empty API key disables lookups.
func NewClient(fetcher *fetch.Client, apiKey string) *Client {
	return &Client{fetcher: fetcher, apiKey: apiKey, baseURL: defaultBaseURL}
}

// SetBaseURL overrides the API base URL. Used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// Enabled reports whether the client has an API key to work with.
func (c *Client) Enabled() bool { return c.apiKey != "" }

type omdbResponse struct {
	IMDBRating string `json:"imdbRating"`
	IMDBVotes  string `json:"imdbVotes"`
	Ratings    []struct {
		Source string `json:"Source"`
		Value  string `json:"Value"`
	} `json:"Ratings"`
}

// Ratings fetches the OMDb record for an IMDb id. A missing key, transport
// failure, or unparsable body yields an empty entry.
func (c *Client) Ratings(ctx context.Context, imdbID string) models.OMDbEntry {
	var entry models.OMDbEntry
	if imdbID == "" || !c.Enabled() {
		return entry
	}
	params := url.Values{"i": {imdbID}, "apikey": {c.apiKey}}
	resp := c.fetcher.Get(ctx, c.baseURL, params, nil)
	if !resp.OK() {
		log.Printf("[omdb] %s: no data (status=%s)", imdbID, resp.Status())
		return entry
	}
	var body omdbResponse
	if err := resp.JSON(&body); err != nil {
		log.Printf("[omdb] %s: decode: %v", imdbID, err)
		return entry
	}

	if r := parseFloat(body.IMDBRating); r != nil {
		entry.IMDBRating = r
	}
	entry.IMDBVotes = parseVotes(body.IMDBVotes)
	for _, r := range body.Ratings {
		if r.Source == "Rotten Tomatoes" {
			if score := parseScore(r.Value); score != nil {
				entry.RTScore = score
			}
		}
	}
	return entry
}

// Ping checks API reachability for the status page. A disabled client
// reports false.
func (c *Client) Ping(ctx context.Context) bool {
	if !c.Enabled() {
		return false
	}
	params := url.Values{"i": {"tt0111161"}, "apikey": {c.apiKey}}
	return c.fetcher.Get(ctx, c.baseURL, params, nil).OK()
}

// parseFloat turns OMDb's "7.4" into a float pointer, nil for "N/A" or junk.
func parseFloat(s string) *float64 {
	if s == "" || s == "N/A" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// parseVotes turns OMDb's "1,234,567" into an int, 0 for "N/A" or junk.
func parseVotes(s string) int {
	if s == "" || s == "N/A" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseScore turns a Rotten Tomatoes "91%" into an int pointer.
func parseScore(s string) *int {
	n, err := strconv.Atoi(strings.TrimSuffix(s, "%"))
	if err != nil {
		return nil
	}
	return &n
}
