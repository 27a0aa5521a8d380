package leveling

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/scottbucher/Alpha-sub000/alpha/config"
	"github.com/scottbucher/Alpha-sub000/alpha/database/models"
	"github.com/scottbucher/Alpha-sub000/alpha/database/repositories"
	"github.com/scottbucher/Alpha-sub000/alpha/platform"
)

// LevelUp records one member crossing a level threshold.
type LevelUp struct {
	MemberID string
	OldLevel int
	NewLevel int
}

// RewardDispatcher resolves configured reward tiers for a batch of
// level-ups, applies the role grants idempotently, and sends one
// aggregated notification per member. Everything here is best-effort: a
// failed grant or send degrades the message, it never aborts the batch.
type RewardDispatcher struct {
	rewards   repositories.RewardRepository
	platform  platform.Client
	roleNames *lru.Cache
}

func NewRewardDispatcher(rewards repositories.RewardRepository, pf platform.Client) *RewardDispatcher {
	cache, _ := lru.New(config.RoleNameCacheSize)
	return &RewardDispatcher{
		rewards:   rewards,
		platform:  pf,
		roleNames: cache,
	}
}

// Dispatch processes all level-ups for one guild. Safe to re-invoke with
// stale data: roles a member already holds are skipped as no-ops.
func (d *RewardDispatcher) Dispatch(ctx context.Context, guild *models.GuildData, levelUps []LevelUp) {
	if len(levelUps) == 0 {
		return
	}

	tierRoles := d.resolveTiers(ctx, guild.DiscordID, levelUps)

	for _, up := range levelUps {
		granted, failed := d.grantRoles(ctx, guild.DiscordID, up, tierRoles[up.NewLevel])
		d.notify(ctx, guild, up, granted, failed)
	}
}

// resolveTiers fetches the configured role set for each distinct level
// reached in the batch. Unconfigured levels map to an empty set.
func (d *RewardDispatcher) resolveTiers(ctx context.Context, guildID string, levelUps []LevelUp) map[int][]string {
	tierRoles := make(map[int][]string)
	for _, up := range levelUps {
		if _, ok := tierRoles[up.NewLevel]; ok {
			continue
		}

		tier, err := d.rewards.GetByGuildLevel(ctx, guildID, up.NewLevel)
		if err != nil {
			if !repositories.IsNotFound(err) {
				slog.Error("Failed to resolve reward tier",
					slog.String("type", "xp"),
					slog.String("guild_id", guildID),
					slog.Int("level", up.NewLevel),
					slog.Any("error", err))
			}
			tierRoles[up.NewLevel] = nil
			continue
		}
		tierRoles[up.NewLevel] = tier.RoleIDs
	}
	return tierRoles
}

func (d *RewardDispatcher) grantRoles(ctx context.Context, guildID string, up LevelUp, roleIDs []string) (granted []string, failed int) {
	if len(roleIDs) == 0 {
		return nil, 0
	}

	held := make(map[string]bool)
	heldIDs, err := d.platform.MemberRoleIDs(ctx, guildID, up.MemberID)
	if err != nil {
		slog.Error("Failed to read member roles, granting blind",
			slog.String("type", "xp"),
			slog.String("guild_id", guildID),
			slog.String("member_id", up.MemberID),
			slog.Any("error", err))
	}
	for _, id := range heldIDs {
		held[id] = true
	}

	for _, roleID := range roleIDs {
		if held[roleID] {
			slog.Debug("Reward role already held, skipping",
				slog.String("type", "xp"),
				slog.String("guild_id", guildID),
				slog.String("member_id", up.MemberID),
				slog.String("role_id", roleID))
			continue
		}

		if err := d.platform.GrantRole(ctx, guildID, up.MemberID, roleID); err != nil {
			failed++
			slog.Error("Failed to grant reward role",
				slog.String("type", "xp"),
				slog.String("guild_id", guildID),
				slog.String("member_id", up.MemberID),
				slog.String("role_id", roleID),
				slog.Any("error", err))
			continue
		}
		granted = append(granted, roleID)
	}
	return granted, failed
}

// notify sends exactly one message per member. Raw errors never reach
// chat; a partial grant only degrades the wording.
func (d *RewardDispatcher) notify(ctx context.Context, guild *models.GuildData, up LevelUp, granted []string, failed int) {
	if guild.LevelUpChannelID == "" {
		slog.Debug("No level-up channel configured, skipping notification",
			slog.String("type", "xp"),
			slog.String("guild_id", guild.DiscordID))
		return
	}

	content := fmt.Sprintf("<@%s> reached level %d!", up.MemberID, up.NewLevel)
	if len(granted) > 0 {
		names := make([]string, 0, len(granted))
		for _, roleID := range granted {
			names = append(names, d.roleName(guild.DiscordID, roleID))
		}
		content += fmt.Sprintf(" You earned: %s", strings.Join(names, ", "))
	}
	if failed > 0 {
		content += " (not all rewards could be granted)"
	}

	if err := d.platform.SendMessage(ctx, guild.LevelUpChannelID, content); err != nil {
		slog.Error("Failed to send level-up notification",
			slog.String("type", "xp"),
			slog.String("guild_id", guild.DiscordID),
			slog.String("member_id", up.MemberID),
			slog.Any("error", err))
	}
}

func (d *RewardDispatcher) roleName(guildID, roleID string) string {
	key := guildID + ":" + roleID
	if name, ok := d.roleNames.Get(key); ok {
		return name.(string)
	}

	name, ok := d.platform.RoleName(guildID, roleID)
	if !ok {
		// Fall back to a mention, Discord renders it either way
		return fmt.Sprintf("<@&%s>", roleID)
	}
	d.roleNames.Add(key, name)
	return name
}
