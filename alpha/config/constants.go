package config

import "time"

// Application-wide constants organized by domain

// Database and performance constants
const (
	DefaultQueryTimeout = 30 * time.Second
	BatchQueryTimeout   = 30 * time.Second
	NetworkDialTimeout  = 5 * time.Second

	// Cache settings
	CacheExpiration   = 5 * time.Minute
	RoleNameCacheSize = 1000

	// Batch processing
	MaxConcurrentGuilds = 5
)

// Leveling constants
const (
	// Voice channel bonus caps at 5 extra XP regardless of crowd size
	MaxVoiceChannelBonus = 5
	// A channel needs at least this many humans before the bonus applies
	MinChannelOccupants = 2
	// Server boosters earn 20% more XP on both grant paths
	BoostedMemberMultiplier = 1.2

	MessageXpCooldown = time.Minute
)

// Timed event constants
const (
	// IncreasedXpWeekend odds per undecided weekend
	EventRollChance = 0.15
	// Multiplier odds given an event fires: 85% 2x, 10% 3x, 5% 4x
	DoubleXpChance = 0.85
	TripleXpChance = 0.10

	// How many future weekends the generator plans ahead
	GeneratorLookaheadWeekends = 4

	// Weekend window boundaries in the guild's own time zone
	WeekendStartHour = 18 // Friday 18:00
)
