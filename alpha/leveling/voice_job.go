package leveling

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/scottbucher/Alpha-sub000/alpha/config"
	"github.com/scottbucher/Alpha-sub000/alpha/database/models"
	"github.com/scottbucher/Alpha-sub000/alpha/database/repositories"
	"github.com/scottbucher/Alpha-sub000/alpha/platform"
	"golang.org/x/sync/errgroup"
)

// VoiceXpJob grants XP to members sitting in voice channels. Each run
// scans every known guild; one guild's failure never touches the others.
// All grants for a guild land in a single batched flush.
type VoiceXpJob struct {
	guilds      repositories.GuildRepository
	progress    repositories.ProgressRepository
	multipliers *MultiplierCache
	roster      *GuildProgressCache
	rewards     *RewardDispatcher
	platform    platform.Client

	voiceBaseXp int64
	tickMinutes int64
}

func NewVoiceXpJob(
	guilds repositories.GuildRepository,
	progress repositories.ProgressRepository,
	multipliers *MultiplierCache,
	roster *GuildProgressCache,
	rewards *RewardDispatcher,
	pf platform.Client,
	voiceBaseXp int64,
	tickMinutes int,
) *VoiceXpJob {
	return &VoiceXpJob{
		guilds:      guilds,
		progress:    progress,
		multipliers: multipliers,
		roster:      roster,
		rewards:     rewards,
		platform:    pf,
		voiceBaseXp: voiceBaseXp,
		tickMinutes: int64(tickMinutes),
	}
}

// Run executes one tick over all guilds. A store failure at the top
// abandons the whole tick; the next scheduled run retries.
func (j *VoiceXpJob) Run(ctx context.Context) error {
	start := time.Now()

	guilds, err := j.guilds.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("abandoning voice tick, store unreachable: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(config.MaxConcurrentGuilds)

	for _, guild := range guilds {
		guild := guild
		g.Go(func() error {
			if err := j.processGuild(ctx, guild); err != nil {
				slog.Error("Voice XP tick failed for guild",
					slog.String("type", "xp"),
					slog.String("guild_id", guild.DiscordID),
					slog.Any("error", err))
			}
			return nil
		})
	}
	g.Wait()

	slog.Debug("Voice XP tick finished",
		slog.String("type", "xp"),
		slog.Int("guilds", len(guilds)),
		slog.Duration("took", time.Since(start)))
	return nil
}

func (j *VoiceXpJob) processGuild(ctx context.Context, guild *models.GuildData) error {
	guildID := guild.DiscordID

	participants := j.platform.VoiceParticipants(guildID)
	if len(participants) == 0 {
		return nil
	}

	afkChannelID := j.platform.AfkChannelID(guildID)

	// Channel occupancy counts every human in the channel, deafened or not
	occupants := make(map[string]int)
	for _, p := range participants {
		if !p.IsBot {
			occupants[p.ChannelID]++
		}
	}

	var eligible []platform.VoiceParticipant
	for _, p := range participants {
		if p.IsBot || p.SelfDeaf || p.ChannelID == afkChannelID {
			continue
		}
		eligible = append(eligible, p)
	}
	if len(eligible) == 0 {
		return nil
	}

	memberIDs := make([]string, 0, len(eligible))
	for _, p := range eligible {
		memberIDs = append(memberIDs, p.MemberID)
	}

	roster, records, err := j.resolveRoster(ctx, guild, memberIDs)
	if err != nil {
		return err
	}

	multiplier, err := j.multipliers.EffectiveMultiplier(ctx, guildID)
	if err != nil {
		return err
	}

	baseRate := roster.Guild.VoiceBaseRate(j.voiceBaseXp)

	var mutated []*models.Progress
	var levelUps []LevelUp
	for _, p := range eligible {
		record, ok := records[p.MemberID]
		if !ok {
			slog.Error("Missing progress record for voice participant",
				slog.String("type", "xp"),
				slog.String("guild_id", guildID),
				slog.String("member_id", p.MemberID))
			continue
		}

		bonus := int64(0)
		if occ := occupants[p.ChannelID]; occ >= config.MinChannelOccupants {
			bonus = int64(min(occ, config.MaxVoiceChannelBonus))
		}

		memberMultiplier := 1.0
		if j.platform.IsBoosted(guildID, p.MemberID) {
			memberMultiplier = config.BoostedMemberMultiplier
		}

		grant := int64(math.Round(float64(baseRate+bonus)*memberMultiplier*float64(multiplier))) * j.tickMinutes

		// Work on a copy so a failed flush leaves the cached roster
		// matching the store.
		updated := *record
		updated.Experience += grant
		mutated = append(mutated, &updated)

		if HasLeveledUp(record.Experience, updated.Experience) {
			levelUps = append(levelUps, LevelUp{
				MemberID: p.MemberID,
				OldLevel: LevelFromXp(record.Experience),
				NewLevel: LevelFromXp(updated.Experience),
			})
		}
	}

	if len(mutated) == 0 {
		return nil
	}

	if err := j.progress.UpdateBatch(ctx, mutated); err != nil {
		return fmt.Errorf("failed to flush voice grants: %w", err)
	}
	for _, record := range mutated {
		j.roster.UpdateOne(guildID, record.MemberID, record)
	}

	if len(levelUps) > 0 {
		j.rewards.Dispatch(ctx, roster.Guild, levelUps)
	}
	return nil
}

// resolveRoster returns the guild's cached roster, fetching or creating
// whatever subset is missing. The returned map indexes rows by member.
func (j *VoiceXpJob) resolveRoster(ctx context.Context, guild *models.GuildData, memberIDs []string) (*GuildRoster, map[string]*models.Progress, error) {
	guildID := guild.DiscordID

	roster, ok := j.roster.Get(guildID)
	if !ok {
		records, err := j.progress.GetByGuild(ctx, guildID)
		if err != nil {
			return nil, nil, err
		}
		j.roster.Set(guildID, guild, records)
		roster, _ = j.roster.Get(guildID)
	}

	byMember := make(map[string]*models.Progress, len(roster.Records))
	for _, record := range roster.Records {
		byMember[record.MemberID] = record
	}

	var missing []string
	for _, memberID := range memberIDs {
		if _, ok := byMember[memberID]; !ok {
			missing = append(missing, memberID)
		}
	}

	if len(missing) > 0 {
		created, err := j.progress.GetOrCreateBatch(ctx, guildID, missing)
		if err != nil {
			return nil, nil, err
		}
		for _, record := range created {
			byMember[record.MemberID] = record
			j.roster.UpdateOne(guildID, record.MemberID, record)
		}
	}

	return roster, byMember, nil
}
