package cricinfo

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"odistats/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const ODI_ROW_LABEL = "ODIs"

var birthDatePattern = regexp.MustCompile(`[A-Za-z]{3,9}\s\d{1,2},\s\d{4}`)

var birthDateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
}

func parseBirthDate(text string) (time.Time, error) {
	found := birthDatePattern.FindString(text)
	if found == "" {
		return time.Time{}, fmt.Errorf("no birth date in '%s'", text)
	}
	for _, layout := range birthDateLayouts {
		date, err := time.Parse(layout, found)
		if err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized birth date '%s'", found)
}

// statsTable is one of the career averages tables, rows are keyed by the
// format label in their first cell.
type statsTable struct {
	header []string
	rows   map[string][]string
}

func readStatsTable(table *goquery.Selection) statsTable {
	result := statsTable{rows: map[string][]string{}}

	table.Find("tr.head").Last().Find("th").Each(func(_ int, th *goquery.Selection) {
		result.header = append(result.header, htmlutil.Text(th))
	})

	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		row := make([]string, cells.Length())
		cells.Each(func(i int, td *goquery.Selection) {
			row[i] = htmlutil.Text(td)
		})
		if _, exists := result.rows[row[0]]; !exists {
			result.rows[row[0]] = row
		}
	})

	return result
}

func (t statsTable) value(label, column string) (float64, error) {
	row, ok := t.rows[label]
	if !ok {
		return 0, fmt.Errorf("no '%s' row", label)
	}
	index := -1
	for i, h := range t.header {
		if h == column {
			index = i
			break
		}
	}
	if index < 0 {
		return 0, fmt.Errorf("no '%s' column", column)
	}
	if index >= len(row) {
		return 0, fmt.Errorf("'%s' row is missing the '%s' cell", label, column)
	}

	text := strings.TrimSpace(row[index])
	if text == "-" {
		text = "0"
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("'%s' %s: %w", label, column, err)
	}
	return value, nil
}

// profileTables gives access to the career averages tables, which the
// profile page only distinguishes by position.
type profileTables struct {
	tables *goquery.Selection
}

func (p profileTables) table(index int, name string) (statsTable, error) {
	if p.tables.Length() <= index {
		return statsTable{}, fmt.Errorf("%s table: %w", name, ErrMissingContainer)
	}
	return readStatsTable(p.tables.Eq(index)), nil
}

func (p profileTables) battingTable() (statsTable, error) {
	return p.table(0, "batting")
}

func (p profileTables) bowlingTable() (statsTable, error) {
	return p.table(1, "bowling")
}

var errMissingSpan = errors.New("paragraph has no value")

func spanText(p *goquery.Selection) (*string, error) {
	span := p.Find("span").First()
	if span.Length() == 0 {
		return nil, errMissingSpan
	}
	text := htmlutil.Text(span)
	return &text, nil
}

func parsePlayerProfile(doc *goquery.Document) (PlayerProfile, error) {
	profile := PlayerProfile{}

	var err error
	doc.Find("p.ciPlayerinformationtxt").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := htmlutil.Text(p)
		if len(text) < 4 {
			return true
		}

		switch text[:4] {
		case "Born":
			var born time.Time
			born, err = parseBirthDate(text)
			if err == nil {
				profile.BirthDate = &born
			}
		case "Play":
			profile.PlayingStyle, err = spanText(p)
		case "Batt":
			profile.BattingStyle, err = spanText(p)
		case "Bowl":
			profile.BowlingStyle, err = spanText(p)
		}
		if err != nil {
			err = fmt.Errorf("%s: %w", text[:4], err)
			return false
		}
		return true
	})
	if err != nil {
		return PlayerProfile{}, err
	}

	tables := profileTables{tables: doc.Find("table.engineTable")}
	batting, err := tables.battingTable()
	if err != nil {
		return PlayerProfile{}, err
	}
	bowling, err := tables.bowlingTable()
	if err != nil {
		return PlayerProfile{}, err
	}

	fields := []struct {
		table  statsTable
		column string
		target **float64
	}{
		{batting, "Ave", &profile.BattingAverage},
		{batting, "SR", &profile.BattingStrikeRate},
		{bowling, "Ave", &profile.BowlingAverage},
		{bowling, "Econ", &profile.BowlingEconomy},
		{bowling, "SR", &profile.BowlingStrikeRate},
	}
	for _, f := range fields {
		value, err := f.table.value(ODI_ROW_LABEL, f.column)
		if err != nil {
			return PlayerProfile{}, err
		}
		*f.target = &value
	}

	return profile, nil
}

// ParsePlayerProfile reads a player profile page, it never returns an error,
// a page it cannot fully read yields a failed extraction with an empty
// profile.
func ParsePlayerProfile(html string) ProfileExtraction {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ProfileExtraction{Failure: err}
	}
	profile, err := parsePlayerProfile(doc)
	if err != nil {
		return ProfileExtraction{Failure: err}
	}
	return ProfileExtraction{Profile: profile}
}
