package cricinfo

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"odistats/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	col_team_1 = iota
	col_team_2
	col_winner
	col_margin
	col_ground
	col_match_date
	col_scorecard
	match_result_columns
)

// MalformedRow is a listing row that could not be read into a MatchResult.
type MalformedRow struct {
	Index  int
	Cells  []string
	Reason string
}

type MatchList struct {
	Matches []MatchResult
	// NoResult is the amount of rows dropped because the match was abandoned.
	NoResult  int
	Malformed []MalformedRow
}

var matchDateLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
}

var (
	// "Dec 31, 1996-Jan 1, 1997"
	fullDateRange = regexp.MustCompile(`^(\w{3,9}\s+\d{1,2},?\s+\d{4})\s*-`)
	// "Jan 5-7, 1996", "Dec 31-Jan 1, 1997"
	shortDateRange = regexp.MustCompile(`^(\w{3,9})\s+(\d{1,2})\s*-.*?(\d{4})$`)
)

// collapseDateRange reduces a multi-day date to its first day.
func collapseDateRange(text string) string {
	if m := fullDateRange.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := shortDateRange.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s %s, %s", m[1], m[2], m[3])
	}
	return text
}

func ParseMatchDate(text string) (time.Time, error) {
	text = collapseDateRange(htmlutil.NormalizeText(text))
	for _, layout := range matchDateLayouts {
		date, err := time.Parse(layout, text)
		if err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized match date '%s'", text)
}

// cellLink returns the url of the first anchor in cell if its href mentions
// kind, an empty string otherwise.
func cellLink(sites Sites, cell *goquery.Selection, kind string) string {
	anchor, ok := htmlutil.FirstAnchor(sites.StatsBase, cell)
	if !ok || !strings.Contains(anchor.Href, kind) {
		return ""
	}
	return anchor.Url.String()
}

// ParseMatchResults reads the yearly ODI results listing. Rows the listing
// marks as "no result" are left out, rows that cannot be read are returned
// in MatchList.Malformed.
func ParseMatchResults(html string, sites Sites) (MatchList, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return MatchList{}, err
	}

	if doc.Find("tbody").Length() == 0 {
		return MatchList{}, fmt.Errorf("results listing: tbody: %w", ErrMissingContainer)
	}

	list := MatchList{}
	doc.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			// header rows are made of th
			return
		}

		texts := make([]string, cells.Length())
		cells.Each(func(j int, cell *goquery.Selection) {
			texts[j] = htmlutil.Text(cell)
		})

		if len(texts) != match_result_columns {
			list.Malformed = append(list.Malformed, MalformedRow{
				Index:  i,
				Cells:  texts,
				Reason: fmt.Sprintf("expected %d cells, got %d", match_result_columns, len(texts)),
			})
			return
		}

		date, err := ParseMatchDate(texts[col_match_date])
		if err != nil {
			list.Malformed = append(list.Malformed, MalformedRow{
				Index:  i,
				Cells:  texts,
				Reason: err.Error(),
			})
			return
		}

		if texts[col_winner] == NO_RESULT {
			list.NoResult++
			return
		}

		list.Matches = append(list.Matches, MatchResult{
			Team1:        texts[col_team_1],
			Team2:        texts[col_team_2],
			Winner:       texts[col_winner],
			Margin:       texts[col_margin],
			Ground:       texts[col_ground],
			GroundURL:    cellLink(sites, cells.Eq(col_ground), "ground"),
			MatchDate:    date,
			Scorecard:    texts[col_scorecard],
			ScorecardURL: cellLink(sites, cells.Eq(col_scorecard), "match"),
		})
	})

	return list, nil
}
