package commands

import (
	"fmt"
	"log/slog"
	"os"

	"odistats/internal/pagecache"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	cacheCmd.AddCommand(cacheImportCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspects and seeds the page cache.",
}

var cacheImportCmd = &cobra.Command{
	Use:   "import <archive.csv>...",
	Short: "Imports url,html archives into the page cache, pages already cached are kept.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, db, err := openCache()
		if err != nil {
			return err
		}
		defer db.Close()

		for _, path := range args {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			result, err := pagecache.ImportCSV(cmd.Context(), store, f)
			f.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if result.Malformed > 0 {
				report.ReportWarning("cache.import", fmt.Errorf("%d malformed rows", result.Malformed), path)
			}
			slog.Info("imported archive", "path", path, "pages", result.Read)
		}
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints the amount of cached pages per category.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, db, err := openCache()
		if err != nil {
			return err
		}
		defer db.Close()

		counts, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetTitle(cfg.Cache.Describe())
		t.AppendHeader(table.Row{"Category", "Pages"})

		var total int64
		for _, category := range pagecache.Categories {
			t.AppendRow(table.Row{category, counts[category]})
			total += counts[category]
		}
		t.AppendFooter(table.Row{"Total", total})

		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
