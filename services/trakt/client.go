// Package trakt fetches movie lists from the Trakt API. Public lists work
// without credentials; private lists need an OAuth token kept in a JSON file
// that is refreshed in place when it expires.
package trakt

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"suborbit/services/fetch"
)

const (
	traktAPIBaseURL = "https://api.trakt.tv"
	traktAPIVersion = "2"

	// tokenLeeway renews the token slightly before its hard expiry.
	tokenLeeway = 60 * time.Second
)

// Client handles Trakt API interactions for list fetching and token renewal.
type Client struct {
	fetcher      *fetch.Client
	clientID     string
	clientSecret string
	baseURL      string
	tokenPath    string
}

// TokenResponse is the OAuth token payload stored in the token file.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
	CreatedAt    int64  `json:"created_at"`
}

// IDs holds external identifiers for a media item.
type IDs struct {
	Trakt int    `json:"trakt,omitempty"`
	Slug  string `json:"slug,omitempty"`
	IMDB  string `json:"imdb,omitempty"`
	TMDB  int64  `json:"tmdb,omitempty"`
}

// Movie represents a Trakt movie.
type Movie struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
	IDs   IDs    `json:"ids"`
}

// ListItem represents one item of a Trakt list's movies endpoint.
type ListItem struct {
	Rank  int    `json:"rank"`
	Type  string `json:"type"`
	Movie *Movie `json:"movie,omitempty"`
}

// NewClient creates a new Trakt API client. tokenPath may point at a missing
// file; that means public lists only.
func NewClient(fetcher *fetch.Client, clientID, clientSecret, tokenPath string) *Client {
	return &Client{
		fetcher:      fetcher,
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      traktAPIBaseURL,
		tokenPath:    tokenPath,
	}
}

// SetBaseURL overrides the API base URL. Used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// headers builds the required Trakt API headers.
func (c *Client) headers(accessToken string) map[string]string {
	h := map[string]string{
		"Content-Type":      "application/json",
		"trakt-api-version": traktAPIVersion,
		"trakt-api-key":     c.clientID,
		"User-Agent":        "suborbit",
	}
	if accessToken != "" {
		h["Authorization"] = "Bearer " + accessToken
	}
	return h
}

var (
	slugDashes = regexp.MustCompile(`[\s_]+`)
	slugStrip  = regexp.MustCompile(`[^a-z0-9-]`)
)

// SanitizeSlug normalizes a Trakt username or list name for URL use:
// lower-cased, spaces and underscores become dashes, everything else
// non-alphanumeric is dropped.
func SanitizeSlug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = slugDashes.ReplaceAllString(name, "-")
	return slugStrip.ReplaceAllString(name, "")
}

// AccessToken returns a valid access token, refreshing an expired one and
// rewriting the token file. A missing token file returns "" (public lists
// only); so does any refresh failure.
func (c *Client) AccessToken(ctx context.Context) string {
	data, err := os.ReadFile(c.tokenPath)
	if err != nil {
		return ""
	}
	var token TokenResponse
	if err := json.Unmarshal(data, &token); err != nil {
		log.Printf("[trakt] ignoring unreadable token file: %v", err)
		return ""
	}

	expiry := time.Unix(token.CreatedAt+token.ExpiresIn, 0)
	if time.Now().Add(tokenLeeway).Before(expiry) {
		return token.AccessToken
	}

	log.Printf("[trakt] refreshing expired access token")
	refreshed, err := c.refreshToken(ctx, token.RefreshToken)
	if err != nil {
		log.Printf("[trakt] token refresh failed: %v", err)
		return ""
	}
	refreshed.CreatedAt = time.Now().Unix()
	if err := c.saveToken(refreshed); err != nil {
		log.Printf("[trakt] failed to persist refreshed token: %v", err)
	}
	return refreshed.AccessToken
}

// Authenticated reports whether a usable token file is present.
func (c *Client) Authenticated() bool {
	data, err := os.ReadFile(c.tokenPath)
	if err != nil {
		return false
	}
	var token TokenResponse
	if err := json.Unmarshal(data, &token); err != nil {
		return false
	}
	return token.AccessToken != ""
}

func (c *Client) saveToken(token *TokenResponse) error {
	out, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.tokenPath, out, 0o600)
}

// refreshToken exchanges a refresh token for a new token pair.
func (c *Client) refreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	payload := map[string]string{
		"refresh_token": refreshToken,
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"grant_type":    "refresh_token",
	}
	resp := c.fetcher.Post(ctx, c.baseURL+"/oauth/token", payload, c.headers(""))
	if !resp.OK() {
		return nil, fmt.Errorf("trakt token refresh: status=%s", resp.Status())
	}
	var token TokenResponse
	if err := resp.JSON(&token); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return &token, nil
}

// ListMovies fetches every movie of a user's list. Failures yield an empty
// slice; the pipeline treats that as an exhausted source, not an error.
func (c *Client) ListMovies(ctx context.Context, user, list string) []Movie {
	user = SanitizeSlug(user)
	list = SanitizeSlug(list)
	url := fmt.Sprintf("%s/users/%s/lists/%s/items/movies", c.baseURL, user, list)
	log.Printf("[trakt] fetching list %s/%s", user, list)

	token := c.AccessToken(ctx)
	resp := c.fetcher.Get(ctx, url, nil, c.headers(token))
	if !resp.OK() {
		log.Printf("[trakt] list %s/%s: no data (status=%s)", user, list, resp.Status())
		return nil
	}
	var items []ListItem
	if err := resp.JSON(&items); err != nil {
		log.Printf("[trakt] list %s/%s: decode: %v", user, list, err)
		return nil
	}

	movies := make([]Movie, 0, len(items))
	for _, item := range items {
		if item.Movie == nil {
			continue
		}
		movies = append(movies, *item.Movie)
	}
	return movies
}

// Ping checks API reachability for the status page.
func (c *Client) Ping(ctx context.Context) bool {
	resp := c.fetcher.Get(ctx, c.baseURL+"/genres/movies", nil, c.headers(""))
	return resp.OK()
}
