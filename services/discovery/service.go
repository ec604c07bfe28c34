// Package discovery drives the movie pipeline: source candidates (TMDB
// discovery or a Trakt list), pre-check the library, enrich with detail and
// rating lookups, filter, verify subtitle availability, and commit
// qualifying titles to Radarr. One run executes sequentially on a single
// background goroutine; the stop token is polled between candidates.
package discovery

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"suborbit/models"
	"suborbit/services/cache"
	"suborbit/services/omdb"
	"suborbit/services/radarr"
	"suborbit/services/subtitles"
	"suborbit/services/tmdb"
	"suborbit/services/trakt"
)

// The production clients satisfy the pipeline's narrow interfaces.
var (
	_ catalogAccess   = (*tmdb.Client)(nil)
	_ ratingsClient   = (*omdb.Client)(nil)
	_ watchlistClient = (*trakt.Client)(nil)
	_ subtitleClient  = (*subtitles.Client)(nil)
	_ libraryClient   = (*radarr.Client)(nil)
)

// cacheSaveEvery flushes the enrichment cache after this many accepted
// commits, so a mid-run stop loses at most the last few entries.
const cacheSaveEvery = 5

// catalogAccess combines the discovery and detail sides of the TMDB client.
type catalogAccess interface {
	discoverClient
	catalogClient
}

// subtitleClient is the slice of the OpenSubtitles client the pipeline needs.
type subtitleClient interface {
	HasSubtitles(ctx context.Context, imdbID, lang string) bool
}

// libraryClient is the dedup/commit gate in front of Radarr.
type libraryClient interface {
	Exists(ctx context.Context, tmdbID int64) bool
	Add(ctx context.Context, tmdbID int64, title string) (accepted bool, reason string)
	InvalidateRecent()
}

// runRecorder persists run summaries to the history store.
type runRecorder interface {
	Create(run *models.Run) error
	Finish(id string, state models.RunState, accepted int) error
}

// Service owns the Running state: at most one run is active, and "is a run
// active" is a query against the goroutine that owns it.
type Service struct {
	catalog    catalogAccess
	watchlist  watchlistClient
	subtitles  subtitleClient
	library    libraryClient
	enricher   *Enricher
	cacheStore *cache.Store
	audit      *AuditWriter
	runs       runRecorder
	gates      Gates
	stop       *StopToken
	debug      bool

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// Options bundles the service's collaborators.
type Options struct {
	Catalog    catalogAccess
	Ratings    ratingsClient
	Watchlist  watchlistClient
	Subtitles  subtitleClient
	Library    libraryClient
	CacheStore *cache.Store
	Audit      *AuditWriter
	Runs       runRecorder
	Gates      Gates
	Debug      bool
}

// NewService wires the pipeline orchestrator.
func NewService(opts Options) *Service {
	return &Service{
		catalog:    opts.Catalog,
		watchlist:  opts.Watchlist,
		subtitles:  opts.Subtitles,
		library:    opts.Library,
		enricher:   NewEnricher(opts.Catalog, opts.Ratings),
		cacheStore: opts.CacheStore,
		audit:      opts.Audit,
		runs:       opts.Runs,
		gates:      opts.Gates,
		stop:       NewStopToken(),
		debug:      opts.Debug,
	}
}

// IsRunning reports whether a run is in flight.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stop requests the current run unwind at its next checkpoint. Safe to call
// when idle; the flag is cleared when the next run starts.
func (s *Service) Stop() {
	s.stop.RequestStop()
}

// Start launches a run on a background goroutine. A start while a run is
// active is a no-op and returns ok=false.
func (s *Service) Start(criteria models.RunCriteria) (models.RunHandle, bool) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Printf("[discovery] run already active, ignoring start request")
		return models.RunHandle{}, false
	}
	s.running = true
	s.mu.Unlock()

	// Start clean: any stale stop request belongs to a previous run.
	s.stop.Reset()

	handle := models.RunHandle{ID: uuid.NewString(), StartedAt: time.Now()}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}()
		s.execute(context.Background(), handle, criteria)
	}()
	return handle, true
}

// Wait blocks until the in-flight run (if any) finishes. Used for shutdown.
func (s *Service) Wait() {
	s.wg.Wait()
}

// execute records the run in history around the pipeline proper.
func (s *Service) execute(ctx context.Context, handle models.RunHandle, criteria models.RunCriteria) {
	source := "catalog"
	if criteria.WatchlistMode() {
		source = "watchlist"
	}
	if s.runs != nil {
		err := s.runs.Create(&models.Run{
			ID:        handle.ID,
			State:     models.RunStateRunning,
			StartYear: criteria.StartYear,
			EndYear:   criteria.EndYear,
			Source:    source,
			StartedAt: handle.StartedAt,
		})
		if err != nil {
			log.Printf("[discovery] failed to record run start: %v", err)
		}
	}

	state, accepted := s.runPipeline(ctx, criteria)

	if s.runs != nil {
		if err := s.runs.Finish(handle.ID, state, accepted); err != nil {
			log.Printf("[discovery] failed to record run end: %v", err)
		}
	}
}

// runPipeline is one complete run. It returns the terminal state and the
// number of accepted commits. Expected failures (network, missing data,
// duplicate adds) are absorbed by the leaf clients and never surface here;
// Failed is reserved for invariant violations.
func (s *Service) runPipeline(ctx context.Context, c models.RunCriteria) (models.RunState, int) {
	s.logBanner(c)

	cm := s.cacheStore.Load()
	totalAdded := 0
	state := models.RunStateCompleted
	watchlistDone := false

years:
	for year := c.StartYear; year <= c.EndYear; year++ {
		if c.MaxMovies > 0 && totalAdded >= c.MaxMovies {
			break
		}
		if watchlistDone {
			break
		}
		if s.stop.Err() != nil {
			state = models.RunStateStopped
			break
		}

		var candidates []Candidate
		if c.WatchlistMode() {
			candidates = s.watchlistCandidates(ctx, c)
			watchlistDone = true
		} else {
			log.Printf("[discovery] discovering TMDB movies for %d", year)
			candidates = s.candidatesForYear(ctx, year, c)
		}

		for _, cand := range candidates {
			if c.MaxMovies > 0 && totalAdded >= c.MaxMovies {
				break years
			}
			if s.stop.Err() != nil {
				state = models.RunStateStopped
				break years
			}

			// Existence pre-check before any enrichment budget is spent.
			// Fails open: a flaky Radarr reads as "not present" and the
			// add itself rejects true duplicates.
			if cand.TMDBID != 0 && s.library.Exists(ctx, cand.TMDBID) {
				log.Printf("[discovery] already in Radarr: %s", cand.Title)
				continue
			}

			movie := s.enricher.Enrich(ctx, cand, cm, c.MinVoteCount)
			if movie == nil {
				continue
			}

			if reason := Evaluate(movie, c, s.gates); reason != "" {
				if s.debug {
					log.Printf("[discovery] rejected %s: %s", movie.Title, reason)
				}
				continue
			}

			if !s.subtitles.HasSubtitles(ctx, movie.IMDBID, c.SubtitleLang) {
				if s.debug {
					log.Printf("[discovery] no %s subs: %s", c.SubtitleLang, movie.Title)
				}
				continue
			}

			if movie.TMDBID == 0 {
				// Invariant violation: nothing without a TMDB id may reach
				// the commit gate.
				log.Printf("[discovery] ERROR: candidate %q reached commit with no TMDB id", movie.Title)
				state = models.RunStateFailed
				break years
			}

			ok, msg := s.library.Add(ctx, movie.TMDBID, movie.Title)
			switch {
			case ok:
				totalAdded++
				s.library.InvalidateRecent()
				log.Printf("[discovery] added to Radarr: %s (%d)", movie.Title, movie.Year)
				s.audit.Append(movie)
				if totalAdded%cacheSaveEvery == 0 {
					s.cacheStore.Save(cm)
				}
			case msg == "exists":
				log.Printf("[discovery] already in Radarr (detected on add): %s", movie.Title)
			default:
				log.Printf("[discovery] WARNING: failed to add %s: %s", movie.Title, msg)
			}
		}
	}

	s.cacheStore.Save(cm)
	switch state {
	case models.RunStateStopped:
		log.Printf("[discovery] run stopped by user (added=%d)", totalAdded)
	case models.RunStateFailed:
		log.Printf("[discovery] run failed after %d adds", totalAdded)
	default:
		log.Printf("[discovery] === Summary: added=%d, years=%d-%d ===", totalAdded, c.StartYear, c.EndYear)
	}
	return state, totalAdded
}

func (s *Service) logBanner(c models.RunCriteria) {
	log.Printf("[discovery] === Starting run ===")
	log.Printf("[discovery] years: %d-%d", c.StartYear, c.EndYear)
	log.Printf("[discovery] min ratings: TMDB %s, IMDB %s, RT %s",
		gateValue(s.gates.TMDB, fmt.Sprintf("%.1f", c.MinTMDBRating)),
		gateValue(s.gates.IMDB, fmt.Sprintf("%.1f", c.MinIMDBRating)),
		gateValue(s.gates.RT, fmt.Sprintf("%d", c.MinRTScore)))
	log.Printf("[discovery] max movies: %d, max pages: %d, min votes: %d, randomize: %v",
		c.MaxMovies, c.MaxPages, c.MinVoteCount, c.Randomize)
	if len(c.IncludeGenres) > 0 || len(c.ExcludeGenres) > 0 {
		log.Printf("[discovery] genres: include=%v exclude=%v", c.IncludeGenres, c.ExcludeGenres)
	}
	if c.WatchlistMode() {
		log.Printf("[discovery] source: Trakt list %s/%s", c.TraktUser, c.TraktList)
	}
}

// gateValue renders a threshold, parenthesized when its axis is disabled.
func gateValue(enabled bool, v string) string {
	if enabled {
		return v
	}
	return "(" + v + ")"
}
