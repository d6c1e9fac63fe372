package tables

import (
	"fmt"
	"time"

	"odistats/internal/cricinfo"
	"odistats/lib/textutil"
)

// PlayerStats are the figures of one player as of a given match.
type PlayerStats struct {
	AgeDays      *float64
	Style        *string
	BattingStyle *string
	BowlingStyle *string
	BatAve       *float64
	BatSR        *float64
	BowlAve      *float64
	BowlEcon     *float64
	BowlSR       *float64
}

func intToFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

// StatsFromProfile converts a profile extraction into the stats of a player
// at matchDate, a failed extraction yields all-null stats.
func StatsFromProfile(extraction cricinfo.ProfileExtraction, matchDate time.Time) PlayerStats {
	if !extraction.Ok() {
		return PlayerStats{}
	}
	p := extraction.Profile
	return PlayerStats{
		AgeDays:      intToFloat(p.AgeInDaysAt(matchDate)),
		Style:        p.PlayingStyle,
		BattingStyle: p.BattingStyle,
		BowlingStyle: p.BowlingStyle,
		BatAve:       p.BattingAverage,
		BatSR:        p.BattingStrikeRate,
		BowlAve:      p.BowlingAverage,
		BowlEcon:     p.BowlingEconomy,
		BowlSR:       p.BowlingStrikeRate,
	}
}

// Side is one innings of a match with the stats of its players.
type Side struct {
	Team    string
	Players [cricinfo.PLAYER_SLOTS]*cricinfo.PlayerRef
	Stats   [cricinfo.PLAYER_SLOTS]PlayerStats
}

type MatchRecord struct {
	Match     cricinfo.MatchResult
	Scorecard cricinfo.ScorecardDetails
	Sides     [cricinfo.MAX_INNINGS]Side
	// BattingFirstMatchesTeam1 tells whether the side that batted first is
	// the one listed first in the results listing, nil without innings.
	BattingFirstMatchesTeam1 *bool
}

// NewMatchRecord joins a listing row with its scorecard, the scorecard may
// be empty when it could not be retrieved.
func NewMatchRecord(match cricinfo.MatchResult, scorecard cricinfo.ScorecardDetails) MatchRecord {
	record := MatchRecord{
		Match:     match,
		Scorecard: scorecard,
	}
	for i, innings := range scorecard.Innings {
		if i >= cricinfo.MAX_INNINGS {
			break
		}
		record.Sides[i].Team = innings.TeamName
		record.Sides[i].Players = innings.Players
	}
	if len(scorecard.Innings) > 0 {
		idx, _ := textutil.BestMatch(scorecard.Innings[0].TeamName, []string{match.Team1, match.Team2})
		matches := idx == 0
		record.BattingFirstMatchesTeam1 = &matches
	}
	return record
}

// PlayerSlot identifies a player position across every record.
type PlayerSlot struct {
	Side int
	Slot int
}

func (s PlayerSlot) prefix() string {
	return fmt.Sprintf("team_%d_player_%d", s.Side+1, s.Slot+1)
}

// Slots lists every player position in column order.
func Slots() []PlayerSlot {
	slots := make([]PlayerSlot, 0, cricinfo.MAX_INNINGS*cricinfo.PLAYER_SLOTS)
	for side := 0; side < cricinfo.MAX_INNINGS; side++ {
		for slot := 0; slot < cricinfo.PLAYER_SLOTS; slot++ {
			slots = append(slots, PlayerSlot{Side: side, Slot: slot})
		}
	}
	return slots
}

type Dataset struct {
	Matches []cricinfo.MatchResult
	Records []MatchRecord
}
