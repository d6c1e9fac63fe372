package tables

import "math"

// fillStrategy picks the replacement value for a column from its present
// values, false when the column has nothing to derive it from.
type fillStrategy func(present []float64) (float64, bool)

// highest is used for figures where lower is better, a missing figure is
// assumed to be the worst one seen.
func highest(present []float64) (float64, bool) {
	if len(present) == 0 {
		return 0, false
	}
	top := math.Inf(-1)
	for _, v := range present {
		top = math.Max(top, v)
	}
	return top, true
}

// lowestPositive is used for figures where higher is better, zeros are not
// considered a real lowest value.
func lowestPositive(present []float64) (float64, bool) {
	bottom := math.Inf(1)
	found := false
	for _, v := range present {
		if v > 0 {
			bottom = math.Min(bottom, v)
			found = true
		}
	}
	return bottom, found
}

func mean(present []float64) (float64, bool) {
	if len(present) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range present {
		sum += v
	}
	return sum / float64(len(present)), true
}

type statColumn struct {
	suffix string
	field  func(s *PlayerStats) **float64
	fill   fillStrategy
}

var numericColumns = []statColumn{
	{suffix: "age", field: func(s *PlayerStats) **float64 { return &s.AgeDays }, fill: mean},
	{suffix: "bat_ave", field: func(s *PlayerStats) **float64 { return &s.BatAve }, fill: lowestPositive},
	{suffix: "bat_sr", field: func(s *PlayerStats) **float64 { return &s.BatSR }, fill: lowestPositive},
	{suffix: "bowl_ave", field: func(s *PlayerStats) **float64 { return &s.BowlAve }, fill: highest},
	{suffix: "bowl_econ", field: func(s *PlayerStats) **float64 { return &s.BowlEcon }, fill: highest},
	{suffix: "bowl_sr", field: func(s *PlayerStats) **float64 { return &s.BowlSR }, fill: highest},
}

// Impute replaces zero and missing figures of every occupied player slot,
// each slot and figure is a column of its own across all records. Empty
// slots are left null.
func Impute(records []MatchRecord) {
	for _, slot := range Slots() {
		for _, column := range numericColumns {
			imputeColumn(records, slot, column)
		}
	}
}

func imputeColumn(records []MatchRecord, slot PlayerSlot, column statColumn) {
	var present []float64
	for i := range records {
		side := &records[i].Sides[slot.Side]
		if side.Players[slot.Slot] == nil {
			continue
		}
		value := *column.field(&side.Stats[slot.Slot])
		if value != nil {
			present = append(present, *value)
		}
	}

	replacement, ok := column.fill(present)
	if !ok {
		return
	}

	for i := range records {
		side := &records[i].Sides[slot.Side]
		if side.Players[slot.Slot] == nil {
			continue
		}
		target := column.field(&side.Stats[slot.Slot])
		if *target == nil || **target == 0 {
			v := replacement
			*target = &v
		}
	}
}
