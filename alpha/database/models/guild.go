package models

import (
	"time"

	"github.com/uptrace/bun"
)

// GuildData holds one guild's leveling settings. A row is created lazily
// the first time the guild is seen by either XP path.
type GuildData struct {
	bun.BaseModel `bun:"table:guilds,alias:g"`

	ID        int64  `bun:"id,pk,autoincrement"`
	DiscordID string `bun:"discord_id,notnull,unique"`

	TimeZone         string `bun:"time_zone,notnull,default:'UTC'"`
	LevelUpChannelID string `bun:"level_up_channel_id"`
	EventChannelID   string `bun:"event_channel_id"`

	// Per-guild XP tuning, zero means "use the configured default"
	VoiceBaseXp int64 `bun:"voice_base_xp,notnull,default:0"`
	TextXpMin   int64 `bun:"text_xp_min,notnull,default:0"`
	TextXpMax   int64 `bun:"text_xp_max,notnull,default:0"`

	JoinedAt  time.Time `bun:"joined_at,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// VoiceBaseRate returns the guild's voice rate, falling back to def.
func (g *GuildData) VoiceBaseRate(def int64) int64 {
	if g.VoiceBaseXp > 0 {
		return g.VoiceBaseXp
	}
	return def
}

// TextXpRange returns the [min, max] message grant range, falling back to
// the configured defaults when the guild never overrode them.
func (g *GuildData) TextXpRange(defMin, defMax int64) (int64, int64) {
	min, max := g.TextXpMin, g.TextXpMax
	if min <= 0 {
		min = defMin
	}
	if max <= 0 {
		max = defMax
	}
	if max < min {
		max = min
	}
	return min, max
}

// Location resolves the guild's configured time zone, defaulting to UTC
// when unset or invalid.
func (g *GuildData) Location() *time.Location {
	if g.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(g.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
