package leveling

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/scottbucher/Alpha-sub000/alpha/config"
	"github.com/scottbucher/Alpha-sub000/alpha/database/repositories"
	"github.com/scottbucher/Alpha-sub000/alpha/platform"
)

// MessageXpTrigger grants XP for inbound messages, one event at a time.
// Writes go straight to the store since this path is event-driven rather
// than ticked; the voice batch path may race it on the same row, which is
// accepted and bounded by the cooldown (see the note on Handle).
type MessageXpTrigger struct {
	guilds      repositories.GuildRepository
	progress    repositories.ProgressRepository
	multipliers *MultiplierCache
	rewards     *RewardDispatcher
	platform    platform.Client

	textXpMin int64
	textXpMax int64
	cooldown  time.Duration

	now       func() time.Time
	randFloat func() float64
}

func NewMessageXpTrigger(
	guilds repositories.GuildRepository,
	progress repositories.ProgressRepository,
	multipliers *MultiplierCache,
	rewards *RewardDispatcher,
	pf platform.Client,
	textXpMin, textXpMax int64,
	cooldown time.Duration,
) *MessageXpTrigger {
	if cooldown <= 0 {
		cooldown = config.MessageXpCooldown
	}
	return &MessageXpTrigger{
		guilds:      guilds,
		progress:    progress,
		multipliers: multipliers,
		rewards:     rewards,
		platform:    pf,
		textXpMin:   textXpMin,
		textXpMax:   textXpMax,
		cooldown:    cooldown,
		now:         time.Now,
		randFloat:   rand.Float64,
	}
}

// Handle processes one message event. A member on cooldown is a silent
// no-op. The read-modify-write here is not coordinated with the voice
// batch job writing the same row; losing one grant to that race is
// accepted, the cooldown and the voice tick granularity bound the loss.
func (t *MessageXpTrigger) Handle(ctx context.Context, guildID, memberID string) error {
	guild, err := t.guilds.GetOrCreate(ctx, guildID)
	if err != nil {
		return err
	}

	record, err := t.progress.GetOrCreate(ctx, guildID, memberID)
	if err != nil {
		return err
	}

	now := t.now()
	if now.Sub(record.LastGrantedAt) < t.cooldown {
		return nil
	}

	multiplier, err := t.multipliers.EffectiveMultiplier(ctx, guildID)
	if err != nil {
		return err
	}

	min, max := guild.TextXpRange(t.textXpMin, t.textXpMax)
	base := float64(min) + t.randFloat()*float64(max-min)

	memberMultiplier := 1.0
	if t.platform.IsBoosted(guildID, memberID) {
		memberMultiplier = config.BoostedMemberMultiplier
	}

	grant := int64(math.Round(base * memberMultiplier * float64(multiplier)))

	oldXp := record.Experience
	record.Experience += grant
	record.LastGrantedAt = now

	if err := t.progress.Update(ctx, record); err != nil {
		return err
	}

	slog.Debug("Granted message XP",
		slog.String("type", "xp"),
		slog.String("guild_id", guildID),
		slog.String("member_id", memberID),
		slog.Int64("amount", grant))

	if HasLeveledUp(oldXp, record.Experience) {
		t.rewards.Dispatch(ctx, guild, []LevelUp{{
			MemberID: memberID,
			OldLevel: LevelFromXp(oldXp),
			NewLevel: LevelFromXp(record.Experience),
		}})
	}

	return nil
}
