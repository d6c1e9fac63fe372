package cricinfo

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	DEFAULT_STATS_BASE_URL  = "http://stats.espncricinfo.com"
	DEFAULT_PLAYER_BASE_URL = "http://www.espncricinfo.com"
)

// Sites holds the hosts relative links are resolved against, results and
// scorecards live on the stats host, player profiles on the main host.
type Sites struct {
	StatsBase  *url.URL
	PlayerBase *url.URL
}

func NewSites(statsBase, playerBase string) (Sites, error) {
	stats, err := url.Parse(statsBase)
	if err != nil {
		return Sites{}, fmt.Errorf("stats base url: %w", err)
	}
	player, err := url.Parse(playerBase)
	if err != nil {
		return Sites{}, fmt.Errorf("player base url: %w", err)
	}
	return Sites{StatsBase: stats, PlayerBase: player}, nil
}

func DefaultSites() Sites {
	sites, err := NewSites(DEFAULT_STATS_BASE_URL, DEFAULT_PLAYER_BASE_URL)
	if err != nil {
		panic(err)
	}
	return sites
}

// ResultsURL is the listing of every ODI played in year.
func (s Sites) ResultsURL(year int) string {
	return fmt.Sprintf(
		"%s/ci/engine/records/team/match_results.html?class=2;id=%d;type=year",
		strings.TrimRight(s.StatsBase.String(), "/"),
		year,
	)
}

// NormalizeProfileURL resolves a player link as found in a scorecard, links
// that are already absolute are returned unchanged.
func (s Sites) NormalizeProfileURL(href string) string {
	parsed, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	if parsed.IsAbs() {
		return parsed.String()
	}
	return s.PlayerBase.ResolveReference(parsed).String()
}

// IsResultsURLForYear reports whether link is the results listing of year.
func (s Sites) IsResultsURLForYear(link string, year int) bool {
	return strings.Contains(link, fmt.Sprintf("match_results.html?class=2;id=%d;type=year", year))
}
