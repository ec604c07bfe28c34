// Package fetch wraps outbound HTTP calls with per-call timeouts and a
// uniform failure contract: any transport error, timeout, or unreadable body
// surfaces as a nil response plus a logged diagnostic. Callers treat nil and
// non-2xx status the same way ("no data available"), never as fatal.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultGetTimeout  = 15 * time.Second
	defaultPostTimeout = 20 * time.Second
)

// Response is the portion of an HTTP response the pipeline consumes. The
// body is fully read before the connection is released.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the response carries a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Status renders the status code for diagnostics, "none" for a nil response.
func (r *Response) Status() string {
	if r == nil {
		return "none"
	}
	return strconv.Itoa(r.StatusCode)
}

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Client issues GET and POST requests. The zero timeout on either field
// selects the package default.
type Client struct {
	httpClient  *http.Client
	GetTimeout  time.Duration
	PostTimeout time.Duration
}

// NewClient creates a fetch client backed by a shared http.Client.
func NewClient() *Client {
	return &Client{httpClient: &http.Client{}}
}

// Get issues a GET request with the given query parameters and headers.
// Returns nil on any transport failure.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values, headers map[string]string) *Response {
	timeout := c.GetTimeout
	if timeout == 0 {
		timeout = defaultGetTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		log.Printf("[fetch] GET %s: %v", rawURL, err)
		return nil
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.do(req)
}

// Post issues a POST request with a JSON body. Returns nil on any transport
// failure.
func (c *Client) Post(ctx context.Context, rawURL string, body any, headers map[string]string) *Response {
	timeout := c.PostTimeout
	if timeout == 0 {
		timeout = defaultPostTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		log.Printf("[fetch] POST %s: marshal body: %v", rawURL, err)
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		log.Printf("[fetch] POST %s: %v", rawURL, err)
		return nil
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) *Response {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[fetch] %s %s failed: %v", req.Method, req.URL, err)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[fetch] %s %s: read body: %v", req.Method, req.URL, err)
		return nil
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}
}
