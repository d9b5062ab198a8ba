// Package voice tracks voice channel co-presence and turns it into EXP.
//
// Personal EXP grows linearly with eligible minutes. Relationship EXP between
// two members grows with the logarithm of the minutes they spent together, so
// the first hours count far more than the hundredth.
package voice

import "math"

const (
	// ExpPerMinute is personal EXP gained per eligible voice minute
	ExpPerMinute = 10.0
	// relationshipScale is the EXP multiplier of the relationship curve
	relationshipScale = 100.0
	// relationshipMinutes is the time together at which the curve reaches scale*ln(2)
	relationshipMinutes = 60.0
	// expPerLevelUnit sets the quadratic level curve
	expPerLevelUnit = 100.0
)

// RelationshipExp is the total relationship EXP earned after minutes together
func RelationshipExp(minutes float64) float64 {
	if minutes <= 0 {
		return 0
	}
	return relationshipScale * math.Log1p(minutes/relationshipMinutes)
}

// RelationshipGain is the EXP earned by spending delta more minutes together
// after prior minutes. Gains over split intervals sum to the gain over the whole.
func RelationshipGain(prior, delta float64) float64 {
	if delta <= 0 {
		return 0
	}
	if prior < 0 {
		prior = 0
	}
	return RelationshipExp(prior+delta) - RelationshipExp(prior)
}

// PersonalGain is the EXP earned for minutes of eligible voice time
func PersonalGain(minutes float64) float64 {
	if minutes <= 0 {
		return 0
	}
	return minutes * ExpPerMinute
}

// LevelForExp returns the level reached with exp
func LevelForExp(exp float64) int {
	if exp <= 0 {
		return 0
	}
	return int(math.Floor(math.Sqrt(exp / expPerLevelUnit)))
}

// ExpForLevel returns the EXP needed to reach level
func ExpForLevel(level int) float64 {
	if level <= 0 {
		return 0
	}
	return expPerLevelUnit * float64(level*level)
}

// Progress reports how far exp is between the current level and the next, in [0, 1)
func Progress(exp float64) (level int, fraction float64) {
	level = LevelForExp(exp)
	lo, hi := ExpForLevel(level), ExpForLevel(level+1)
	if hi <= lo {
		return level, 0
	}
	return level, (exp - lo) / (hi - lo)
}
