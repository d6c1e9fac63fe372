package commands

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"odistats/internal/cricinfo"
	"odistats/internal/fetcher"
	"odistats/internal/pagecache"
	"odistats/lib/osutil"
	"odistats/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	verbose    *bool

	cfg    Config
	otlp   telemetry.Telemetry
	tel    telemetry.API = telemetry.SlogAPI{}
	report = telemetry.NewScopedAPI("odistats", tel)
)

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The json5 config file to read.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging.")
}

var rootCmd = &cobra.Command{
	Use:           "odistats",
	Short:         "odistats scrapes One-Day International results, scorecards and player profiles into tables.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(*verbose)

		var err error
		cfg, err = LoadConfig(*configPath)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}

		otlp, err = telemetry.Setup(cmd.Context(), "odistats", cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}
		if otlp.Enabled() {
			telemetry.InstrumentPerfStats(cmd.Context())
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := otlp.Shutdown(ctx)
		if err != nil {
			slog.Warn("shutdown telemetry", "err", err)
		}
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		osutil.Fatal("odistats failed", err)
	}
}

// openCache opens the configured page cache, the caller closes the returned db.
func openCache() (pagecache.SQLStore, *sql.DB, error) {
	db, err := cfg.Cache.OpenDB(pagecache.Schema)
	if err != nil {
		return pagecache.SQLStore{}, nil, err
	}
	slog.Debug("opened page cache", "location", cfg.Cache.Describe())
	return pagecache.NewSQLStore(db), db, nil
}

type session struct {
	db      *sql.DB
	store   pagecache.SQLStore
	fetcher *fetcher.Fetcher
	sites   cricinfo.Sites
}

func (s session) Close() {
	s.db.Close()
}

func (s session) reportStats() {
	stats := s.fetcher.Stats()
	report.ReportCount("fetcher.cache_hits", stats.CacheHits)
	report.ReportCount("fetcher.requests", stats.Requests)
	report.ReportCount("fetcher.fetched", stats.Fetched)
	report.ReportCount("fetcher.failures", stats.Failures)
	report.ReportCount("fetcher.volatile_skips", stats.VolatileSkips)
}

func openSession() (session, error) {
	store, db, err := openCache()
	if err != nil {
		return session{}, err
	}
	opts, err := cfg.FetcherOptions(time.Now())
	if err != nil {
		db.Close()
		return session{}, err
	}
	sites, err := cfg.SitesURLs()
	if err != nil {
		db.Close()
		return session{}, err
	}
	return session{
		db:      db,
		store:   store,
		fetcher: fetcher.New(store, tel, opts),
		sites:   sites,
	}, nil
}
