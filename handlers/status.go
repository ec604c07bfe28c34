package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"suborbit/services/omdb"
	"suborbit/services/radarr"
	"suborbit/services/subtitles"
	"suborbit/services/tmdb"
	"suborbit/services/trakt"
)

// Pinger probes one upstream for reachability.
type Pinger interface {
	Ping(ctx context.Context) bool
}

var (
	_ Pinger = (*tmdb.Client)(nil)
	_ Pinger = (*omdb.Client)(nil)
	_ Pinger = (*subtitles.Client)(nil)
	_ Pinger = (*radarr.Client)(nil)
	_ Pinger = (*trakt.Client)(nil)
)

const probeTimeout = 10 * time.Second

// StatusHandler reports upstream connectivity for the dashboard.
type StatusHandler struct {
	probes map[string]Pinger
}

// NewStatusHandler registers the named upstream probes.
func NewStatusHandler(probes map[string]Pinger) *StatusHandler {
	return &StatusHandler{probes: probes}
}

// Services probes every upstream concurrently and reports name -> reachable.
func (h *StatusHandler) Services(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	results := make(map[string]bool, len(h.probes))
	var mu sync.Mutex

	p := pool.New()
	for name, probe := range h.probes {
		p.Go(func() {
			ok := probe.Ping(ctx)
			mu.Lock()
			results[name] = ok
			mu.Unlock()
		})
	}
	p.Wait()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}
