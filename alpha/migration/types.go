package migration

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoRewardTier is a reward entry embedded in the 1.x guild document.
type MongoRewardTier struct {
	Level   int32    `bson:"level"`
	RoleIDs []string `bson:"roleDiscordIds"`
}

// MongoGuild is a 1.x guildData document.
type MongoGuild struct {
	ObjectID         primitive.ObjectID `bson:"_id,omitempty"`
	DiscordID        string             `bson:"discordId"`
	TimeZone         string             `bson:"timeZone"`
	LevelUpChannelID string             `bson:"levelingChannelId"`
	EventChannelID   string             `bson:"xpEventChannelId"`
	JoinedAt         *time.Time         `bson:"joinedAt,omitempty"`
	RewardTiers      []MongoRewardTier  `bson:"levelingRewardDatas"`
}

// MongoMember is a 1.x guildUserData document, one per guild membership.
type MongoMember struct {
	ObjectID        primitive.ObjectID `bson:"_id,omitempty"`
	GuildDiscordID  string             `bson:"guildDiscordId"`
	MemberDiscordID string             `bson:"userDiscordId"`
	Experience      int64              `bson:"experience"`
	LastGivenAt     *time.Time         `bson:"lastGivenMessageXp,omitempty"`
}

// MongoXpEvent is a 1.x xpEventData document. The window bounds were
// stored as strings and are imported verbatim; validation happens at
// read time, not here.
type MongoXpEvent struct {
	ObjectID       primitive.ObjectID `bson:"_id,omitempty"`
	GuildDiscordID string             `bson:"guildDiscordId"`
	EventType      string             `bson:"eventType"`
	TimeStart      string             `bson:"timeStart"`
	TimeEnd        string             `bson:"timeEnd"`
	Multiplier     int32              `bson:"multiplier"`
	AutoGenerated  bool               `bson:"automaticallyGenerated"`
	HasAnnounced   bool               `bson:"hasAnnounced"`
	HasStarted     bool               `bson:"hasStarted"`
	HasEnded       bool               `bson:"hasEnded"`
	IsActive       bool               `bson:"isActive"`
}

// TableStats tracks per-table import counts.
type TableStats struct {
	Read     int
	Imported int
	Skipped  int
}

// MigrationStats aggregates the whole run.
type MigrationStats struct {
	Tables    map[string]*TableStats
	StartTime time.Time
	EndTime   time.Time
}
