package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Config holds all environment-driven settings. Values are read once at
// startup; per-run overrides come in through the start request and fall back
// to these defaults.
type Config struct {
	// API keys and endpoints
	TMDBAPIKey        string
	OMDBAPIKey        string
	OpenSubsAPIKey    string
	TraktClientID     string
	TraktClientSecret string
	RadarrURL         string
	RadarrAPIKey      string

	// Run defaults
	StartYear     int
	EndYear       int
	MinTMDBRating float64
	MinIMDBRating float64
	MinRTScore    int
	MinVoteCount  int
	MaxMovies     int
	MaxPages      int
	SubtitleLang  string
	DefaultGenres string
	Randomize     bool

	// Filter gating toggles. These enable or disable a rating axis globally,
	// independent of the thresholds supplied per run.
	UseTMDB bool
	UseIMDB bool
	UseRT   bool

	// Radarr add options
	QualityProfileID int
	RootFolder       string
	SearchForMovie   bool

	// Politeness delay after every OpenSubtitles call
	SubtitleDelay time.Duration

	// Paths
	DataDir        string
	Port           int
	Debug          bool
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	cfg := &Config{
		TMDBAPIKey:        env("TMDB_API_KEY", ""),
		OMDBAPIKey:        env("OMDB_KEY", ""),
		OpenSubsAPIKey:    env("OS_API_KEY", ""),
		TraktClientID:     env("TRAKT_CLIENT_ID", ""),
		TraktClientSecret: env("TRAKT_CLIENT_SECRET", ""),
		RadarrURL:         strings.TrimRight(env("RADARR_API", "http://127.0.0.1:7878/api/v3"), "/"),
		RadarrAPIKey:      env("RADARR_KEY", ""),

		StartYear:     envInt("START_YEAR", 2020),
		EndYear:       envInt("END_YEAR", 2020),
		MinTMDBRating: envFloat("MIN_TMDB_RATING", 0),
		MinIMDBRating: envFloat("MIN_IMDB_RATING", 0),
		MinRTScore:    envInt("MIN_RT_SCORE", 0),
		MinVoteCount:  envInt("MIN_VOTE_COUNT", 0),
		MaxMovies:     envInt("MAX_MOVIES_PER_RUN", 10),
		MaxPages:      envInt("MAX_DISCOVER_PAGES", 3),
		SubtitleLang:  NormalizeLanguage(env("SUBTITLE_LANG", "fi")),
		DefaultGenres: env("ALLOWED_GENRES", ""),
		Randomize:     envBool("RANDOM_SELECTION", false),

		UseTMDB: envBool("USE_TMDB", true),
		UseIMDB: envBool("USE_IMDB", true),
		UseRT:   envBool("USE_RT", true),

		QualityProfileID: envInt("QUALITY_PROFILE_ID", 1),
		RootFolder:       env("ROOT_FOLDER", "/movies"),
		SearchForMovie:   envBool("SEARCH_FOR_MOVIE", false),

		SubtitleDelay: time.Duration(envInt("OS_DELAY", 3)) * time.Second,

		DataDir: dataDir(),
		Port:    envInt("PORT", 5000),
		Debug:   envBool("DEBUG", false),
	}
	return cfg
}

// CachePath is the enrichment cache file location.
func (c *Config) CachePath() string { return filepath.Join(c.DataDir, "cache.json") }

// AuditPath is the CSV audit file location.
func (c *Config) AuditPath() string { return filepath.Join(c.DataDir, "suborbit.csv") }

// LogPath is the run log file location.
func (c *Config) LogPath() string { return filepath.Join(c.DataDir, "suborbit.log") }

// DatabasePath is the run history database location.
func (c *Config) DatabasePath() string { return filepath.Join(c.DataDir, "suborbit.db") }

// TraktTokenPath is where the Trakt OAuth token file lives.
func (c *Config) TraktTokenPath() string { return filepath.Join(c.DataDir, "trakt_token.json") }

// NormalizeLanguage reduces a subtitle language setting to the base ISO 639-1
// code OpenSubtitles expects ("fin" -> "fi", "pt-BR" -> "pt"). Unparsable
// input is lower-cased and passed through.
func NormalizeLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return lang
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return strings.ToLower(lang)
	}
	base, _ := tag.Base()
	return base.String()
}

// dataDir prefers /config when it exists (docker layout), falling back to a
// local config directory.
func dataDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	if fi, err := os.Stat("/config"); err == nil && fi.IsDir() {
		return "/config"
	}
	return "config"
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true")
	}
	return fallback
}
