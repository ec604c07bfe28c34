package trakt

import (
	"context"
	"fmt"
	"log"
	"time"
)

// maxDevicePolls caps the token poll loop at roughly five minutes with the
// default five-second interval.
const maxDevicePolls = 60

// DeviceCode is Trakt's device-authorization challenge: the operator visits
// VerificationURL and enters UserCode while the app polls for the token.
type DeviceCode struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURL string `json:"verification_url"`
	ExpiresIn       int64  `json:"expires_in"`
	Interval        int64  `json:"interval"`
}

// StartDeviceAuth requests a device code to begin the OAuth device flow.
func (c *Client) StartDeviceAuth(ctx context.Context) (*DeviceCode, error) {
	payload := map[string]string{"client_id": c.clientID}
	resp := c.fetcher.Post(ctx, c.baseURL+"/oauth/device/code", payload, c.headers(""))
	if !resp.OK() {
		return nil, fmt.Errorf("trakt device code: status=%s", resp.Status())
	}
	var dc DeviceCode
	if err := resp.JSON(&dc); err != nil {
		return nil, fmt.Errorf("decode device code: %w", err)
	}
	if dc.Interval <= 0 {
		dc.Interval = 5
	}
	return &dc, nil
}

// PollDeviceToken polls the token endpoint until the operator approves the
// device code, then persists the token file that AccessToken reads. Pending
// approval answers non-200 and the poll keeps going; it gives up after the
// poll budget or when the context is canceled.
func (c *Client) PollDeviceToken(ctx context.Context, dc *DeviceCode) error {
	payload := map[string]string{
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"code":          dc.DeviceCode,
	}
	interval := time.Duration(dc.Interval) * time.Second

	for i := 0; i < maxDevicePolls; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		resp := c.fetcher.Post(ctx, c.baseURL+"/oauth/device/token", payload, c.headers(""))
		if !resp.OK() {
			continue
		}
		var token TokenResponse
		if err := resp.JSON(&token); err != nil {
			return fmt.Errorf("decode device token: %w", err)
		}
		if token.CreatedAt == 0 {
			token.CreatedAt = time.Now().Unix()
		}
		if err := c.saveToken(&token); err != nil {
			return fmt.Errorf("persist token: %w", err)
		}
		log.Printf("[trakt] device authentication complete")
		return nil
	}
	return fmt.Errorf("trakt device auth timed out")
}
