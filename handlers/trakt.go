package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"suborbit/services/trakt"
)

type traktAuthService interface {
	StartDeviceAuth(ctx context.Context) (*trakt.DeviceCode, error)
	PollDeviceToken(ctx context.Context, dc *trakt.DeviceCode) error
	Authenticated() bool
}

var _ traktAuthService = (*trakt.Client)(nil)

// devicePollBudget bounds the background token poll; Trakt device codes
// expire after about ten minutes anyway.
const devicePollBudget = 10 * time.Minute

// TraktHandler drives the OAuth device-authentication flow: Device hands the
// operator a user code and polls for approval in the background, Status
// reports where the flow stands.
type TraktHandler struct {
	Auth traktAuthService

	mu    sync.Mutex
	state string // "idle", "waiting", "done", "error"
}

func NewTraktHandler(auth traktAuthService) *TraktHandler {
	return &TraktHandler{Auth: auth, state: "idle"}
}

func (h *TraktHandler) setState(s string) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

// Device starts the device flow and returns the verification code for the
// operator. Token polling continues on a background goroutine; the outcome
// lands in Status.
func (h *TraktHandler) Device(w http.ResponseWriter, r *http.Request) {
	dc, err := h.Auth.StartDeviceAuth(r.Context())
	if err != nil {
		h.setState("error")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.setState("waiting")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), devicePollBudget)
		defer cancel()
		if err := h.Auth.PollDeviceToken(ctx, dc); err != nil {
			log.Printf("[trakt] device auth failed: %v", err)
			h.setState("error")
			return
		}
		h.setState("done")
	}()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dc)
}

// Status reports whether a token file is in place and how far the flow got.
func (h *TraktHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	state := h.state
	h.mu.Unlock()

	authenticated := h.Auth.Authenticated()
	if authenticated && state == "idle" {
		// Token provisioned out of band or in a previous process life.
		state = "done"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"authenticated": authenticated,
		"state":         state,
	})
}
