package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Progress is one member's accumulated experience within one guild.
// Experience only grows outside of admin overrides; rows are never deleted
// while the membership exists.
type Progress struct {
	bun.BaseModel `bun:"table:guild_members,alias:gm"`

	ID         int64  `bun:"id,pk,autoincrement"`
	GuildID    string `bun:"guild_id,notnull,unique:guild_member"`
	MemberID   string `bun:"member_id,notnull,unique:guild_member"`
	Experience int64  `bun:"experience,notnull,default:0"`

	// Message-path cooldown gate; the voice path ignores it.
	LastGrantedAt time.Time `bun:"last_granted_at"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
