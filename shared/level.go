package shared

import "math"

// Level maps total XP to a level tier. Level 1 starts at 0 XP.
func Level(totalXP int) int {
	if totalXP < 0 {
		totalXP = 0
	}
	return int(math.Floor(math.Sqrt(float64(totalXP)/100))) + 1
}

// XPThreshold returns the total XP associated with having reached level.
// Note: this is not a true inverse of Level — XPThreshold(1) = 100 while
// Level(100) = 2. The boundary mismatch is intentional product behavior and
// the progress bar math below depends on it staying this way.
func XPThreshold(level int) int {
	if level < 0 {
		level = 0
	}
	return level * level * 100
}

// LevelProgress returns the percentage toward the next level for display,
// clamped to [0, 100].
func LevelProgress(totalXP int) float64 {
	level := Level(totalXP)
	floor := XPThreshold(level - 1)
	ceil := XPThreshold(level)
	if ceil <= floor {
		return 100
	}

	pct := float64(totalXP-floor) / float64(ceil-floor) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
