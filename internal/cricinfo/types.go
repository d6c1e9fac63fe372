package cricinfo

import (
	"errors"
	"time"
)

// ErrMissingContainer is returned when the markup a page is expected to be
// organized around is absent altogether, the page is of a different kind or
// the site changed its layout.
var ErrMissingContainer = errors.New("expected page container is missing")

const NO_RESULT = "no result"

// PLAYER_SLOTS is the fixed amount of player slots recorded per innings.
const PLAYER_SLOTS = 12

// MAX_INNINGS is the amount of innings kept from a scorecard, one per side.
const MAX_INNINGS = 2

type MatchResult struct {
	Team1  string
	Team2  string
	Winner string
	Margin string
	Ground string
	// GroundURL is empty when the ground cell carried no link.
	GroundURL    string
	MatchDate    time.Time
	Scorecard    string
	ScorecardURL string
}

type PlayerRef struct {
	Name       string
	ProfileURL string
}

type Innings struct {
	TeamName string
	// Players always has PLAYER_SLOTS entries, unused slots are nil.
	Players [PLAYER_SLOTS]*PlayerRef
}

// PlayerCount is the amount of filled slots.
func (i Innings) PlayerCount() int {
	n := 0
	for _, p := range i.Players {
		if p != nil {
			n++
		}
	}
	return n
}

type ScorecardDetails struct {
	IsTournamentMatch bool
	Attendance        *int
	Innings           []Innings
}

type PlayerProfile struct {
	BirthDate    *time.Time
	PlayingStyle *string
	BattingStyle *string
	BowlingStyle *string

	BattingAverage    *float64
	BattingStrikeRate *float64
	BowlingAverage    *float64
	BowlingEconomy    *float64
	BowlingStrikeRate *float64
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AgeInDaysAt is the amount of whole days between the birth date and
// matchDate, nil when the birth date is unknown. The same profile yields a
// different age for every match.
func (p PlayerProfile) AgeInDaysAt(matchDate time.Time) *int {
	if p.BirthDate == nil {
		return nil
	}
	days := int(dateOnly(matchDate).Sub(dateOnly(*p.BirthDate)) / (24 * time.Hour))
	return &days
}

// ProfileExtraction is the outcome of reading a profile page, extraction is
// best effort: on failure Profile is entirely null and Failure says why.
type ProfileExtraction struct {
	Profile PlayerProfile
	Failure error
}

func (e ProfileExtraction) Ok() bool {
	return e.Failure == nil
}
