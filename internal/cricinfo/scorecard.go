package cricinfo

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"odistats/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var (
	attendanceBeforeParen = regexp.MustCompile(`(\d[\d,\s]*?)\s*\(`)
	attendanceDigits      = regexp.MustCompile(`\d[\d,]*`)
)

// parseAttendance reads lines like "Attendance: 25,000" or
// "Attendance: 12 500 (estimated)", it returns nil when no number is present.
func parseAttendance(line string) *int {
	var token string
	if strings.Contains(line, "(") {
		m := attendanceBeforeParen.FindStringSubmatch(line)
		if m != nil {
			token = m[1]
		}
	} else {
		token = attendanceDigits.FindString(line)
	}

	token = strings.NewReplacer(",", "", " ", "").Replace(token)
	if token == "" {
		return nil
	}
	value, err := strconv.Atoi(token)
	if err != nil {
		return nil
	}
	return &value
}

var playerNameReplacer = strings.NewReplacer(" †", "", "†", "", " (c)", "")

func cleanPlayerName(name string) string {
	return strings.TrimSpace(playerNameReplacer.Replace(name))
}

func isProfileLink(href string) bool {
	return strings.Contains(href, "player") && strings.HasSuffix(href, "html")
}

func parseInnings(sites Sites, item *goquery.Selection) (Innings, bool) {
	heading := item.Find("h2").First()
	if heading.Length() == 0 {
		return Innings{}, false
	}

	innings := Innings{
		TeamName: strings.TrimSpace(strings.Replace(htmlutil.Text(heading), " Innings", "", 1)),
	}

	slot := 0
	anchors := htmlutil.GetAnchors(nil, item.Find("div.scorecard-section.batsmen a"))
	for _, a := range anchors {
		if slot >= PLAYER_SLOTS {
			break
		}
		if !isProfileLink(a.Href) {
			continue
		}
		name := cleanPlayerName(a.Name)
		if name == "" {
			continue
		}
		innings.Players[slot] = &PlayerRef{
			Name:       name,
			ProfileURL: sites.NormalizeProfileURL(a.Href),
		}
		slot++
	}

	return innings, true
}

// ParseScorecard reads a match scorecard page. Missing attendance or a
// missing tournament banner are not errors, a page with neither the match
// overview nor any innings is.
func ParseScorecard(html string, sites Sites) (ScorecardDetails, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ScorecardDetails{}, err
	}

	details := ScorecardDetails{}

	overview := doc.Find("div.cscore_info-overview")
	details.IsTournamentMatch = strings.Contains(overview.Text(), "World Cup")

	doc.Find("div.accordion-content.collapse.in li").Each(func(_ int, li *goquery.Selection) {
		line := htmlutil.Text(li)
		if !strings.Contains(line, "Attendance") {
			return
		}
		details.Attendance = parseAttendance(line)
	})

	doc.Find("li.accordion-item").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		innings, ok := parseInnings(sites, item)
		if ok {
			details.Innings = append(details.Innings, innings)
		}
		return len(details.Innings) < MAX_INNINGS
	})

	if overview.Length() == 0 && len(details.Innings) == 0 {
		return ScorecardDetails{}, fmt.Errorf("scorecard: %w", ErrMissingContainer)
	}

	return details, nil
}
