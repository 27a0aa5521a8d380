package migration

import (
	"time"

	"github.com/scottbucher/Alpha-sub000/alpha/database/models"
)

func (m *Migrator) convertGuild(mg MongoGuild) *models.GuildData {
	now := time.Now()
	joined := now
	if mg.JoinedAt != nil && !mg.JoinedAt.IsZero() {
		joined = *mg.JoinedAt
	}
	tz := mg.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	return &models.GuildData{
		DiscordID:        mg.DiscordID,
		TimeZone:         tz,
		LevelUpChannelID: mg.LevelUpChannelID,
		EventChannelID:   mg.EventChannelID,
		JoinedAt:         joined,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (m *Migrator) convertRewardTiers(mg MongoGuild) []*models.RewardTier {
	now := time.Now()
	tiers := make([]*models.RewardTier, 0, len(mg.RewardTiers))
	for _, mt := range mg.RewardTiers {
		if mt.Level <= 0 || len(mt.RoleIDs) == 0 {
			continue
		}
		tiers = append(tiers, &models.RewardTier{
			GuildID:   mg.DiscordID,
			Level:     int(mt.Level),
			RoleIDs:   mt.RoleIDs,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return tiers
}

func (m *Migrator) convertMember(mm MongoMember) *models.Progress {
	now := time.Now()
	exp := mm.Experience
	if exp < 0 {
		exp = 0
	}
	p := &models.Progress{
		GuildID:    mm.GuildDiscordID,
		MemberID:   mm.MemberDiscordID,
		Experience: exp,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if mm.LastGivenAt != nil {
		p.LastGrantedAt = *mm.LastGivenAt
	}
	return p
}

func (m *Migrator) convertXpEvent(me MongoXpEvent) *models.XpEvent {
	now := time.Now()
	eventType := me.EventType
	if eventType == "" {
		eventType = models.EventTypeIncreasedXpWeekend
	}
	multiplier := int(me.Multiplier)
	if multiplier < 1 {
		multiplier = 1
	}
	return &models.XpEvent{
		GuildID:       me.GuildDiscordID,
		EventType:     eventType,
		TimeStart:     me.TimeStart,
		TimeEnd:       me.TimeEnd,
		Multiplier:    multiplier,
		AutoGenerated: me.AutoGenerated,
		HasAnnounced:  me.HasAnnounced,
		HasStarted:    me.HasStarted,
		HasEnded:      me.HasEnded,
		IsActive:      me.IsActive && !me.HasEnded,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
