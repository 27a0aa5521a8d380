// Package leveling implements the XP engine: the level curve, the two
// grant paths, the TTL caches shared between them, and reward dispatch.
package leveling

// XpToComplete returns the XP needed to finish the given level.
// The curve is strictly increasing, so level-from-XP is well-defined.
func XpToComplete(level int) int64 {
	l := int64(level)
	return 5*l*l + 50*l + 100
}

// TotalXpForLevel returns the total XP accumulated on reaching level.
func TotalXpForLevel(level int) int64 {
	var total int64
	for i := 0; i < level; i++ {
		total += XpToComplete(i)
	}
	return total
}

// LevelFromXp returns the largest level whose threshold is at or below xp.
// Negative input clamps to level 0.
func LevelFromXp(xp int64) int {
	if xp < 0 {
		return 0
	}

	level := 0
	remaining := xp
	for remaining >= XpToComplete(level) {
		remaining -= XpToComplete(level)
		level++
	}
	return level
}

// ProgressInLevel returns the XP earned within the current level.
func ProgressInLevel(xp int64) int64 {
	return xp - TotalXpForLevel(LevelFromXp(xp))
}

// XpNeededForNextLevel returns the XP still missing to the next level.
func XpNeededForNextLevel(xp int64) int64 {
	return XpToComplete(LevelFromXp(xp)) - ProgressInLevel(xp)
}

// HasLeveledUp reports whether moving from oldXp to newXp crossed at
// least one level threshold.
func HasLeveledUp(oldXp, newXp int64) bool {
	return LevelFromXp(newXp) > LevelFromXp(oldXp)
}
