package commands

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"odistats/internal/pipeline"

	"github.com/spf13/cobra"
)

var scrapeOut *string

func init() {
	scrapeOut = scrapeCmd.Flags().String("out", "data", "The directory to write the tables to.")
	rootCmd.AddCommand(scrapeCmd)
}

func parseYear(arg string) (int, error) {
	year, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid year '%s'", arg)
	}
	return year, nil
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <start_year> <end_year> [--out <dir>]",
	Short: "Scrapes every ODI played between two years (inclusive) and writes the tables as csv.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		startYear, err := parseYear(args[0])
		if err != nil {
			return err
		}
		endYear, err := parseYear(args[1])
		if err != nil {
			return err
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()
		defer s.reportStats()

		t1 := time.Now()
		dataset, err := pipeline.New(s.fetcher, s.sites, tel).Run(cmd.Context(), startYear, endYear)
		if err != nil {
			return err
		}
		t2 := time.Now()
		slog.Info("scraping time", "seconds", t2.Sub(t1).Seconds(), "matches", len(dataset.Records))

		err = dataset.WriteDir(*scrapeOut)
		if err != nil {
			return fmt.Errorf("write tables: %w", err)
		}
		slog.Info("wrote tables", "dir", *scrapeOut)
		return nil
	},
}
