package tables

import (
	"slices"
	"strings"
)

// PlayerAggregate is a player's average figures over every match they
// appear in for a given team.
type PlayerAggregate struct {
	Team         string
	Name         string
	URL          string
	Style        string
	BattingStyle string
	BowlingStyle string

	AvgAge   *float64
	BatAve   *float64
	BatSR    *float64
	BowlAve  *float64
	BowlEcon *float64
	BowlSR   *float64
}

type aggregateKey struct {
	team, name, url, style, battingStyle, bowlingStyle string
}

type runningMean struct {
	sum   float64
	count int
}

func (m *runningMean) add(v *float64) {
	if v == nil {
		return
	}
	m.sum += *v
	m.count++
}

func (m runningMean) value() *float64 {
	if m.count == 0 {
		return nil
	}
	v := m.sum / float64(m.count)
	return &v
}

type aggregateGroup struct {
	key   aggregateKey
	means [6]runningMean
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Aggregate compiles every team's players out of the records, most recent
// matches are visited first and the result is ordered by team.
func Aggregate(records []MatchRecord) []PlayerAggregate {
	var groups []*aggregateGroup
	index := map[aggregateKey]*aggregateGroup{}

	for _, slot := range Slots() {
		for i := len(records) - 1; i >= 0; i-- {
			side := records[i].Sides[slot.Side]
			player := side.Players[slot.Slot]
			if player == nil {
				continue
			}
			stats := side.Stats[slot.Slot]

			key := aggregateKey{
				team:         side.Team,
				name:         player.Name,
				url:          player.ProfileURL,
				style:        deref(stats.Style),
				battingStyle: deref(stats.BattingStyle),
				bowlingStyle: deref(stats.BowlingStyle),
			}
			group, ok := index[key]
			if !ok {
				group = &aggregateGroup{key: key}
				index[key] = group
				groups = append(groups, group)
			}

			group.means[0].add(stats.AgeDays)
			group.means[1].add(stats.BatAve)
			group.means[2].add(stats.BatSR)
			group.means[3].add(stats.BowlAve)
			group.means[4].add(stats.BowlEcon)
			group.means[5].add(stats.BowlSR)
		}
	}

	slices.SortStableFunc(groups, func(a, b *aggregateGroup) int {
		return strings.Compare(a.key.team, b.key.team)
	})

	result := make([]PlayerAggregate, len(groups))
	for i, g := range groups {
		result[i] = PlayerAggregate{
			Team:         g.key.team,
			Name:         g.key.name,
			URL:          g.key.url,
			Style:        g.key.style,
			BattingStyle: g.key.battingStyle,
			BowlingStyle: g.key.bowlingStyle,
			AvgAge:       g.means[0].value(),
			BatAve:       g.means[1].value(),
			BatSR:        g.means[2].value(),
			BowlAve:      g.means[3].value(),
			BowlEcon:     g.means[4].value(),
			BowlSR:       g.means[5].value(),
		}
	}
	return result
}
