package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"odistats/internal/fetcher"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(ENV_CACHE_AUTH_TOKEN, "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)
	require.Equal(t, defaultConfig(), cfg)
	require.Equal(t, "pages.db", filepath.Base(cfg.Cache.File))

	opts, err := cfg.FetcherOptions(time.Date(2019, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, fetcher.DEFAULT_POLITENESS, opts.Politeness)
	require.Equal(t, fetcher.DEFAULT_TIMEOUT, opts.Timeout)
	require.Equal(t, 5, opts.MaxAttempts)
	require.Len(t, opts.Volatile, 1)
	require.True(t, opts.Volatile[0].MatchString("http://stats.espncricinfo.com/ci/engine/records/team/match_results.html?class=2;id=2019;type=year"))
	require.False(t, opts.Volatile[0].MatchString("http://stats.espncricinfo.com/ci/engine/records/team/match_results.html?class=2;id=2018;type=year"))
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")

	err := os.WriteFile(path, []byte(`{
		// remote cache
		cache: { url: "libsql://odistats.example.turso.io" },
		fetcher: { politeness_ms: 1500, cloudflare_bypass: true },
	}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		sites: { stats_base_url: "http://localhost:8080" },
	}`), 0600)
	require.NoError(t, err)

	t.Setenv(ENV_CACHE_AUTH_TOKEN, "secret")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "libsql://odistats.example.turso.io", cfg.Cache.Url)
	require.Equal(t, "secret", cfg.Cache.AuthToken)
	require.Equal(t, "libsql://odistats.example.turso.io", cfg.Cache.Describe())
	require.True(t, cfg.Fetcher.CloudflareBypass)
	require.Equal(t, fetcher.DEFAULT_ERROR_MARKER, cfg.Fetcher.ErrorMarker)

	opts, err := cfg.FetcherOptions(time.Now())
	require.NoError(t, err)
	require.Equal(t, 1500*time.Millisecond, opts.Politeness)

	sites, err := cfg.SitesURLs()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/ci/engine/records/team/match_results.html?class=2;id=1999;type=year", sites.ResultsURL(1999))
	require.Equal(t, "http://www.espncricinfo.com/ci/content/player/1.html", sites.NormalizeProfileURL("/ci/content/player/1.html"))
}

func TestParseYear(t *testing.T) {
	year, err := parseYear("1971")
	require.NoError(t, err)
	require.Equal(t, 1971, year)

	_, err = parseYear("nineteen")
	require.Error(t, err)
}
