package models

import (
	"time"

	"github.com/uptrace/bun"
)

// RewardTier maps a level to the set of roles granted on reaching it.
// One tier per guild+level.
type RewardTier struct {
	bun.BaseModel `bun:"table:reward_tiers,alias:rt"`

	ID      int64  `bun:"id,pk,autoincrement"`
	GuildID string `bun:"guild_id,notnull,unique:guild_level"`
	Level   int    `bun:"level,notnull,unique:guild_level"`

	RoleIDs []string `bun:"role_ids,type:jsonb"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// HasRole reports whether the tier already grants roleID.
func (t *RewardTier) HasRole(roleID string) bool {
	for _, id := range t.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}
