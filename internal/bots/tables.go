// Package bots synthesizes crossword participants that type toward a
// full solution over a realistic, human-shaped target duration (spec
// §4.3).
package bots

import "time"

// Difficulty indexes the fixed per-day-of-week base-time and
// multiplier-range tables.
type Difficulty int

const (
	Easy Difficulty = iota
	StdMinus
	Std
	StdPlus
	Expert
)

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case StdMinus:
		return "std-"
	case Std:
		return "std"
	case StdPlus:
		return "std+"
	case Expert:
		return "expert"
	default:
		return "std"
	}
}

// ParseDifficulty maps the wire-level strings to a Difficulty,
// defaulting to Std for anything unrecognized.
func ParseDifficulty(s string) Difficulty {
	switch s {
	case "easy":
		return Easy
	case "std-":
		return StdMinus
	case "std+":
		return StdPlus
	case "expert":
		return Expert
	default:
		return Std
	}
}

// baseTimeTable[dow][difficulty] is the target solve time in seconds,
// indexed Sunday=0..Saturday=6.
var baseTimeTable = [7][5]float64{
	{2940, 2390, 1835, 1560, 1195}, // Sunday
	{630, 510, 395, 335, 255},      // Monday
	{770, 625, 480, 410, 310},      // Tuesday
	{1320, 1075, 825, 700, 535},    // Wednesday
	{1680, 1365, 1050, 890, 680},   // Thursday
	{2000, 1625, 1250, 1065, 810},  // Friday
	{2400, 1950, 1500, 1275, 975},  // Saturday
}

// multiplierRange[difficulty] is the [lo, hi] uniform range applied to
// baseTime to produce the bot's individual target.
var multiplierRange = [5][2]float64{
	{0.85, 1.25},
	{0.90, 1.18},
	{0.92, 1.15},
	{0.94, 1.12},
	{0.96, 1.08},
}

// wanderChanceTable[difficulty] is the probability of a wander hop
// before landing on a word.
var wanderChanceTable = [5]float64{0.75, 0.65, 0.55, 0.40, 0.25}

// dayOfWeek derives the puzzle's day of week at noon local time, per
// spec §4.3 ("Day-of-week is derived from the puzzle date interpreted
// at noon local").
func dayOfWeek(date string) (time.Weekday, error) {
	d, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return 0, err
	}
	noon := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, time.Local)
	return noon.Weekday(), nil
}
