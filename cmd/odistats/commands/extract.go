package commands

import (
	"fmt"
	"os"
	"time"

	"odistats/internal/cricinfo"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var extractDate *string

func init() {
	extractDate = extractProfileCmd.Flags().String("date", "", "The match date (YYYY-MM-DD) to compute the player's age at.")
	extractCmd.AddCommand(extractMatchesCmd)
	extractCmd.AddCommand(extractScorecardCmd)
	extractCmd.AddCommand(extractProfileCmd)
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Fetches a single page (through the cache) and prints what is extracted from it.",
}

func identity(_ cricinfo.Sites, url string) string {
	return url
}

func fetchPage(cmd *cobra.Command, url string, resolve func(cricinfo.Sites, string) string) (string, session, error) {
	s, err := openSession()
	if err != nil {
		return "", session{}, err
	}
	url = resolve(s.sites, url)
	html, err := s.fetcher.Fetch(cmd.Context(), url)
	if err != nil {
		s.Close()
		return "", session{}, err
	}
	return html, s, nil
}

func render(t table.Writer) {
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func orEmpty[T any](v *T) any {
	if v == nil {
		return ""
	}
	return *v
}

var extractMatchesCmd = &cobra.Command{
	Use:   "matches <results_url>",
	Short: "Prints the matches of a yearly results listing.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		html, s, err := fetchPage(cmd, args[0], identity)
		if err != nil {
			return err
		}
		defer s.Close()

		list, err := cricinfo.ParseMatchResults(html, s.sites)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.AppendHeader(table.Row{"Date", "Team 1", "Team 2", "Winner", "Margin", "Ground", "Scorecard"})
		for _, m := range list.Matches {
			t.AppendRow(table.Row{
				m.MatchDate.Format(time.DateOnly), m.Team1, m.Team2, m.Winner, m.Margin, m.Ground, m.ScorecardURL,
			})
		}
		t.AppendFooter(table.Row{"", "", "", "", "no result", list.NoResult, fmt.Sprintf("%d malformed", len(list.Malformed))})
		render(t)

		for _, row := range list.Malformed {
			report.ReportWarning("extract.matches", row.Reason, row.Cells)
		}
		return nil
	},
}

var extractScorecardCmd = &cobra.Command{
	Use:   "scorecard <scorecard_url>",
	Short: "Prints the tournament flag, attendance and players of a scorecard.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		html, s, err := fetchPage(cmd, args[0], identity)
		if err != nil {
			return err
		}
		defer s.Close()

		details, err := cricinfo.ParseScorecard(html, s.sites)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetTitle(fmt.Sprintf("world cup: %v, attendance: %v", details.IsTournamentMatch, orEmpty(details.Attendance)))
		t.AppendHeader(table.Row{"Team", "#", "Player", "Profile"})
		for _, innings := range details.Innings {
			for i, p := range innings.Players {
				if p == nil {
					continue
				}
				t.AppendRow(table.Row{innings.TeamName, i + 1, p.Name, p.ProfileURL})
			}
			t.AppendSeparator()
		}
		render(t)
		return nil
	},
}

var extractProfileCmd = &cobra.Command{
	Use:   "profile <profile_url> [--date YYYY-MM-DD]",
	Short: "Prints the styles and ODI figures of a player.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		matchDate := time.Now().UTC()
		if *extractDate != "" {
			var err error
			matchDate, err = time.Parse(time.DateOnly, *extractDate)
			if err != nil {
				return fmt.Errorf("invalid date: %w", err)
			}
		}

		html, s, err := fetchPage(cmd, args[0], cricinfo.Sites.NormalizeProfileURL)
		if err != nil {
			return err
		}
		defer s.Close()

		extraction := cricinfo.ParsePlayerProfile(html)
		if !extraction.Ok() {
			return fmt.Errorf("extract profile: %w", extraction.Failure)
		}
		p := extraction.Profile

		var born any = ""
		if p.BirthDate != nil {
			born = p.BirthDate.Format(time.DateOnly)
		}

		t := table.NewWriter()
		t.AppendHeader(table.Row{"Field", "Value"})
		t.AppendRows([]table.Row{
			{"born", born},
			{"age (days)", orEmpty(p.AgeInDaysAt(matchDate))},
			{"style", orEmpty(p.PlayingStyle)},
			{"batting style", orEmpty(p.BattingStyle)},
			{"bowling style", orEmpty(p.BowlingStyle)},
			{"bat ave", orEmpty(p.BattingAverage)},
			{"bat sr", orEmpty(p.BattingStrikeRate)},
			{"bowl ave", orEmpty(p.BowlingAverage)},
			{"bowl econ", orEmpty(p.BowlingEconomy)},
			{"bowl sr", orEmpty(p.BowlingStrikeRate)},
		})
		render(t)
		return nil
	},
}
