package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"suborbit/services/trakt"
)

type fakeTraktAuth struct {
	deviceCode *trakt.DeviceCode
	startErr   error
	pollErr    error
	polled     atomic.Bool
	tokenSaved atomic.Bool
}

func (f *fakeTraktAuth) StartDeviceAuth(_ context.Context) (*trakt.DeviceCode, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.deviceCode, nil
}

func (f *fakeTraktAuth) PollDeviceToken(_ context.Context, _ *trakt.DeviceCode) error {
	f.polled.Store(true)
	if f.pollErr != nil {
		return f.pollErr
	}
	f.tokenSaved.Store(true)
	return nil
}

func (f *fakeTraktAuth) Authenticated() bool { return f.tokenSaved.Load() }

func waitForState(t *testing.T, h *TraktHandler, want string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		h.mu.Lock()
		state := h.state
		h.mu.Unlock()
		if state == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state never reached %q", want)
}

func TestDeviceStartsFlowAndPolls(t *testing.T) {
	auth := &fakeTraktAuth{deviceCode: &trakt.DeviceCode{
		UserCode:        "ABCD1234",
		VerificationURL: "https://trakt.tv/activate",
	}}
	h := NewTraktHandler(auth)

	rec := httptest.NewRecorder()
	h.Device(rec, httptest.NewRequest(http.MethodPost, "/api/trakt/device", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var dc trakt.DeviceCode
	if err := json.NewDecoder(rec.Body).Decode(&dc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dc.UserCode != "ABCD1234" {
		t.Fatalf("user code = %q", dc.UserCode)
	}

	waitForState(t, h, "done")
	if !auth.polled.Load() {
		t.Fatal("expected background token poll")
	}
}

func TestDeviceStartFailure(t *testing.T) {
	auth := &fakeTraktAuth{startErr: errors.New("trakt down")}
	h := NewTraktHandler(auth)

	rec := httptest.NewRecorder()
	h.Device(rec, httptest.NewRequest(http.MethodPost, "/api/trakt/device", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestDevicePollFailureReportedInStatus(t *testing.T) {
	auth := &fakeTraktAuth{deviceCode: &trakt.DeviceCode{UserCode: "X"}, pollErr: errors.New("timed out")}
	h := NewTraktHandler(auth)

	rec := httptest.NewRecorder()
	h.Device(rec, httptest.NewRequest(http.MethodPost, "/api/trakt/device", nil))
	waitForState(t, h, "error")

	rec = httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/trakt/status", nil))

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["authenticated"] != false || body["state"] != "error" {
		t.Fatalf("unexpected status: %v", body)
	}
}

func TestStatusIdleWithoutToken(t *testing.T) {
	h := NewTraktHandler(&fakeTraktAuth{})

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/trakt/status", nil))

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["authenticated"] != false || body["state"] != "idle" {
		t.Fatalf("unexpected status: %v", body)
	}
}

func TestStatusExistingTokenReportsDone(t *testing.T) {
	auth := &fakeTraktAuth{}
	auth.tokenSaved.Store(true) // token provisioned before this process started
	h := NewTraktHandler(auth)

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/trakt/status", nil))

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["authenticated"] != true || body["state"] != "done" {
		t.Fatalf("unexpected status: %v", body)
	}
}
