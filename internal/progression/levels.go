// Package progression implements the XP/level/prestige/achievement engine
// that drives an agent's sense of growth over time.
package progression

import "math"

// MaxLevel is the highest level before prestige resets the tracker.
const MaxLevel = 25

// XPForLevel computes the XP threshold for a level: floor(100 * level^1.8)
// for level > 1, 0 otherwise.
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return int(math.Floor(100 * math.Pow(float64(level), 1.8)))
}

// LevelFromXP returns the highest level whose threshold is <= xp, capped
// at MaxLevel.
func LevelFromXP(xp int) int {
	if xp <= 0 {
		return 1
	}
	level := 1
	for level < MaxLevel {
		if xp < XPForLevel(level+1) {
			return level
		}
		level++
	}
	return MaxLevel
}

// LevelName returns the display tier name for a level, grounded on the
// original's level_name tiers.
func LevelName(level int) string {
	switch {
	case level <= 2:
		return "Newborn"
	case level <= 5:
		return "Curious"
	case level <= 10:
		return "Chatty"
	case level <= 15:
		return "Wise"
	case level <= 20:
		return "Sage"
	case level < 25:
		return "Ancient"
	default:
		return "Legendary"
	}
}
