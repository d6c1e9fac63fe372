package tables

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"odistats/internal/cricinfo"
)

const (
	MATCH_RESULTS_FILE    = "match_results.csv"
	SCORECARD_FILE        = "matches_scorecard_details.csv"
	PLAYER_DETAILS_FILE   = "matches_scorecard_player_details.csv"
	PLAYER_AGGREGATE_FILE = "complete_player_details.csv"
)

const DATE_LAYOUT = "2006-01-02"

var matchColumns = []string{
	"team_1", "team_2", "winner", "margin", "ground", "ground_url",
	"match_date", "scorecard", "scorecard_url",
}

var playerStatSuffixes = []string{
	"age", "style", "batting_style", "bowling_style",
	"bat_ave", "bat_sr", "bowl_ave", "bowl_econ", "bowl_sr",
}

var aggregateColumns = []string{
	"team", "name", "url", "style", "batting_style", "bowling_style",
	"avg_age", "bat_ave", "bat_sr", "bowl_ave", "bowl_econ", "bowl_sr",
}

func MatchColumns() []string {
	return append([]string{}, matchColumns...)
}

// ScorecardColumns lists the scorecard table header, the listing's teams are
// renamed team1 and team2 since team_1 and team_2 name the innings.
func ScorecardColumns() []string {
	columns := []string{
		"team1", "team2", "winner", "margin", "ground", "ground_url",
		"match_date", "scorecard", "scorecard_url",
		"world_cup", "attendance", "batting_first_matches_team_1",
	}
	for side := 0; side < cricinfo.MAX_INNINGS; side++ {
		columns = append(columns, fmt.Sprintf("team_%d", side+1))
		for slot := 0; slot < cricinfo.PLAYER_SLOTS; slot++ {
			prefix := PlayerSlot{Side: side, Slot: slot}.prefix()
			columns = append(columns, prefix+"_name", prefix+"_url")
		}
	}
	return columns
}

func PlayerDetailColumns() []string {
	columns := ScorecardColumns()
	for _, slot := range Slots() {
		for _, suffix := range playerStatSuffixes {
			columns = append(columns, slot.prefix()+"_"+suffix)
		}
	}
	return columns
}

func AggregateColumns() []string {
	return append([]string{}, aggregateColumns...)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func matchCells(m cricinfo.MatchResult) []string {
	return []string{
		m.Team1, m.Team2, m.Winner, m.Margin, m.Ground, m.GroundURL,
		m.MatchDate.Format(DATE_LAYOUT), m.Scorecard, m.ScorecardURL,
	}
}

func scorecardCells(r MatchRecord) []string {
	worldCup := r.Scorecard.IsTournamentMatch
	cells := matchCells(r.Match)
	cells = append(
		cells,
		formatBool(&worldCup),
		formatInt(r.Scorecard.Attendance),
		formatBool(r.BattingFirstMatchesTeam1),
	)
	for _, side := range r.Sides {
		cells = append(cells, side.Team)
		for _, p := range side.Players {
			if p == nil {
				cells = append(cells, "", "")
				continue
			}
			cells = append(cells, p.Name, p.ProfileURL)
		}
	}
	return cells
}

func statCells(s PlayerStats) []string {
	return []string{
		formatFloat(s.AgeDays),
		deref(s.Style),
		deref(s.BattingStyle),
		deref(s.BowlingStyle),
		formatFloat(s.BatAve),
		formatFloat(s.BatSR),
		formatFloat(s.BowlAve),
		formatFloat(s.BowlEcon),
		formatFloat(s.BowlSR),
	}
}

func writeAll(w io.Writer, header []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	err := writer.Write(header)
	if err != nil {
		return err
	}
	err = writer.WriteAll(rows)
	if err != nil {
		return err
	}
	return writer.Error()
}

func WriteMatches(w io.Writer, matches []cricinfo.MatchResult) error {
	rows := make([][]string, len(matches))
	for i, m := range matches {
		rows[i] = matchCells(m)
	}
	return writeAll(w, matchColumns, rows)
}

func WriteScorecards(w io.Writer, records []MatchRecord) error {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = scorecardCells(r)
	}
	return writeAll(w, ScorecardColumns(), rows)
}

func WritePlayerDetails(w io.Writer, records []MatchRecord) error {
	rows := make([][]string, len(records))
	for i, r := range records {
		cells := scorecardCells(r)
		for _, slot := range Slots() {
			cells = append(cells, statCells(r.Sides[slot.Side].Stats[slot.Slot])...)
		}
		rows[i] = cells
	}
	return writeAll(w, PlayerDetailColumns(), rows)
}

func WriteAggregates(w io.Writer, aggregates []PlayerAggregate) error {
	rows := make([][]string, len(aggregates))
	for i, a := range aggregates {
		rows[i] = []string{
			a.Team, a.Name, a.URL, a.Style, a.BattingStyle, a.BowlingStyle,
			formatFloat(a.AvgAge),
			formatFloat(a.BatAve),
			formatFloat(a.BatSR),
			formatFloat(a.BowlAve),
			formatFloat(a.BowlEcon),
			formatFloat(a.BowlSR),
		}
	}
	return writeAll(w, aggregateColumns, rows)
}

func writeFile(dir, name string, write func(w io.Writer) error) error {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	err = write(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	return f.Close()
}

// WriteDir writes the four tables into dir. Player figures are imputed
// before the player tables are written, the dataset's records are modified
// in place.
func (d Dataset) WriteDir(dir string) error {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	err = writeFile(dir, MATCH_RESULTS_FILE, func(w io.Writer) error {
		return WriteMatches(w, d.Matches)
	})
	if err != nil {
		return err
	}
	err = writeFile(dir, SCORECARD_FILE, func(w io.Writer) error {
		return WriteScorecards(w, d.Records)
	})
	if err != nil {
		return err
	}

	Impute(d.Records)

	err = writeFile(dir, PLAYER_DETAILS_FILE, func(w io.Writer) error {
		return WritePlayerDetails(w, d.Records)
	})
	if err != nil {
		return err
	}
	return writeFile(dir, PLAYER_AGGREGATE_FILE, func(w io.Writer) error {
		return WriteAggregates(w, Aggregate(d.Records))
	})
}
