package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"suborbit/api"
	"suborbit/config"
	"suborbit/handlers"
	"suborbit/internal/database"
	"suborbit/models"
	"suborbit/services/cache"
	"suborbit/services/discovery"
	"suborbit/services/fetch"
	"suborbit/services/omdb"
	"suborbit/services/radarr"
	"suborbit/services/subtitles"
	"suborbit/services/tmdb"
	"suborbit/services/trakt"
	"suborbit/utils"
)

func main() {
	cfg := config.Load()

	// Run log goes to stdout and to a rotating file; the file feeds /api/logs.
	logFile := &lumberjack.Logger{
		Filename:   cfg.LogPath(),
		MaxSize:    10, // MB
		MaxBackups: 3,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	log.Printf("[main] suborbit starting, data dir %s", cfg.DataDir)

	db, err := database.NewDB(database.Config{DatabasePath: cfg.DatabasePath()})
	if err != nil {
		log.Fatalf("[main] open run history store: %v", err)
	}
	defer db.Close()
	runRepo := database.NewRunRepository(db.Connection())

	fetcher := fetch.NewClient()
	tmdbClient := tmdb.NewClient(fetcher, cfg.TMDBAPIKey)
	omdbClient := omdb.NewClient(fetcher, cfg.OMDBAPIKey)
	subsClient := subtitles.NewClient(fetcher, cfg.OpenSubsAPIKey, rate.Every(cfg.SubtitleDelay))
	traktClient := trakt.NewClient(fetcher, cfg.TraktClientID, cfg.TraktClientSecret, cfg.TraktTokenPath())
	radarrClient := radarr.NewClient(fetcher, cfg.RadarrURL, cfg.RadarrAPIKey, radarr.AddOptions{
		QualityProfileID: cfg.QualityProfileID,
		RootFolder:       cfg.RootFolder,
		SearchForMovie:   cfg.SearchForMovie,
	})

	fs := afero.NewOsFs()
	svc := discovery.NewService(discovery.Options{
		Catalog:    tmdbClient,
		Ratings:    omdbClient,
		Watchlist:  traktClient,
		Subtitles:  subsClient,
		Library:    radarrClient,
		CacheStore: cache.NewStore(fs, cfg.CachePath()),
		Audit:      discovery.NewAuditWriter(fs, cfg.AuditPath()),
		Runs:       runRepo,
		Gates:      discovery.Gates{TMDB: cfg.UseTMDB, IMDB: cfg.UseIMDB, RT: cfg.UseRT},
		Debug:      cfg.Debug,
	})

	include, exclude := models.ParseGenres(cfg.DefaultGenres)
	defaults := models.RunCriteria{
		StartYear:     cfg.StartYear,
		EndYear:       cfg.EndYear,
		MinTMDBRating: cfg.MinTMDBRating,
		MinIMDBRating: cfg.MinIMDBRating,
		MinRTScore:    cfg.MinRTScore,
		MinVoteCount:  cfg.MinVoteCount,
		MaxMovies:     cfg.MaxMovies,
		MaxPages:      cfg.MaxPages,
		SubtitleLang:  cfg.SubtitleLang,
		IncludeGenres: include,
		ExcludeGenres: exclude,
		Randomize:     cfg.Randomize,
	}

	runHandler := handlers.NewRunHandler(svc, runRepo, defaults)
	libraryHandler := handlers.NewLibraryHandler(radarrClient, tmdbClient)
	statusHandler := handlers.NewStatusHandler(map[string]handlers.Pinger{
		"tmdb":          tmdbClient,
		"omdb":          omdbClient,
		"opensubtitles": subsClient,
		"radarr":        radarrClient,
		"trakt":         traktClient,
	})
	logsHandler := handlers.NewLogsHandler(cfg.LogPath())
	traktHandler := handlers.NewTraktHandler(traktClient)

	// 5 starts per minute per client is plenty for a human-driven form.
	startLimiter := api.NewIPRateLimiter(rate.Every(12*time.Second), 5)

	r := utils.NewRouter()
	r.HandleFunc("/api/run/start", api.RateLimitHandlerFunc(startLimiter, runHandler.Start)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/run/stop", runHandler.Stop).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/run/status", runHandler.Status).Methods(http.MethodGet)
	r.HandleFunc("/api/runs", runHandler.List).Methods(http.MethodGet)
	r.HandleFunc("/api/genres", libraryHandler.GenreList).Methods(http.MethodGet)
	r.HandleFunc("/api/library/recent", libraryHandler.Recent).Methods(http.MethodGet)
	r.HandleFunc("/api/status/services", statusHandler.Services).Methods(http.MethodGet)
	r.HandleFunc("/api/logs", logsHandler.Tail).Methods(http.MethodGet)
	r.HandleFunc("/api/radarr/refresh", libraryHandler.Refresh).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/trakt/device", traktHandler.Device).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/trakt/status", traktHandler.Status).Methods(http.MethodGet)

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("[main] listening on :%d", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("[main] shutting down")
	svc.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(ctx)
	svc.Wait()
}
