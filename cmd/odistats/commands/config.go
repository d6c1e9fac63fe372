package commands

import (
	"os"
	"path/filepath"
	"time"

	"odistats/internal/cricinfo"
	"odistats/internal/fetcher"
	"odistats/lib/configutil"
	"odistats/lib/sqliteutil"
	"odistats/lib/telemetry"

	"github.com/adrg/xdg"
)

const ENV_CACHE_AUTH_TOKEN = "ODISTATS_CACHE_AUTH_TOKEN"

type FetcherConfig struct {
	PolitenessMs     int      `json:"politeness_ms"`
	TimeoutSeconds   int      `json:"timeout_seconds"`
	MaxAttempts      int      `json:"max_attempts"`
	ErrorMarker      string   `json:"error_marker"`
	VolatilePatterns []string `json:"volatile_patterns"`
	CloudflareBypass bool     `json:"cloudflare_bypass"`
	UserAgent        string   `json:"user_agent"`
	DumpDir          string   `json:"dump_dir"`
}

type SitesConfig struct {
	StatsBaseUrl  string `json:"stats_base_url"`
	PlayerBaseUrl string `json:"player_base_url"`
}

type Config struct {
	Cache     sqliteutil.Config `json:"cache"`
	Fetcher   FetcherConfig     `json:"fetcher"`
	Sites     SitesConfig       `json:"sites"`
	Telemetry telemetry.Config  `json:"telemetry"`
}

func defaultConfig() Config {
	return Config{
		Cache: sqliteutil.Config{
			File: filepath.Join(xdg.CacheHome, "odistats", "pages.db"),
		},
		Fetcher: FetcherConfig{
			PolitenessMs:     int(fetcher.DEFAULT_POLITENESS / time.Millisecond),
			TimeoutSeconds:   int(fetcher.DEFAULT_TIMEOUT / time.Second),
			MaxAttempts:      fetcher.DEFAULT_MAX_ATTEMPTS,
			ErrorMarker:      fetcher.DEFAULT_ERROR_MARKER,
			VolatilePatterns: fetcher.DEFAULT_VOLATILE_PATTERNS,
			UserAgent:        fetcher.DEFAULT_USER_AGENT,
		},
		Sites: SitesConfig{
			StatsBaseUrl:  cricinfo.DEFAULT_STATS_BASE_URL,
			PlayerBaseUrl: cricinfo.DEFAULT_PLAYER_BASE_URL,
		},
	}
}

// LoadConfig reads the config file and its local override on top of the
// defaults, the cache auth token may also come from the environment.
func LoadConfig(path string) (Config, error) {
	cfg, err := configutil.Load(path, defaultConfig())
	if err != nil {
		return Config{}, err
	}
	if token, ok := os.LookupEnv(ENV_CACHE_AUTH_TOKEN); ok && token != "" {
		cfg.Cache.AuthToken = token
	}
	return cfg, nil
}

func (c Config) FetcherOptions(now time.Time) (fetcher.Options, error) {
	volatile, err := fetcher.CompileVolatile(c.Fetcher.VolatilePatterns, now)
	if err != nil {
		return fetcher.Options{}, err
	}
	return fetcher.Options{
		Politeness:       time.Duration(c.Fetcher.PolitenessMs) * time.Millisecond,
		Timeout:          time.Duration(c.Fetcher.TimeoutSeconds) * time.Second,
		MaxAttempts:      c.Fetcher.MaxAttempts,
		ErrorMarker:      c.Fetcher.ErrorMarker,
		UserAgent:        c.Fetcher.UserAgent,
		Volatile:         volatile,
		CloudflareBypass: c.Fetcher.CloudflareBypass,
		DumpDir:          c.Fetcher.DumpDir,
	}, nil
}

func (c Config) SitesURLs() (cricinfo.Sites, error) {
	return cricinfo.NewSites(c.Sites.StatsBaseUrl, c.Sites.PlayerBaseUrl)
}
