package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/scottbucher/Alpha-sub000/alpha"
	"github.com/scottbucher/Alpha-sub000/alpha/database/models"
	"github.com/scottbucher/Alpha-sub000/alpha/database/repositories"
)

var Rewards = discord.SlashCommandCreate{
	Name:        "rewards",
	Description: "🏅 Manage level-up role rewards",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "list",
			Description: "List configured role rewards",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "add",
			Description: "Grant a role when members reach a level",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:        "level",
					Description: "Level the role unlocks at",
					Required:    true,
					MinValue:    intPtr(1),
					MaxValue:    intPtr(1000),
				},
				discord.ApplicationCommandOptionRole{
					Name:        "role",
					Description: "Role to grant",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "remove",
			Description: "Remove a role reward from a level",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:        "level",
					Description: "Level to remove rewards from",
					Required:    true,
					MinValue:    intPtr(1),
					MaxValue:    intPtr(1000),
				},
				discord.ApplicationCommandOptionRole{
					Name:        "role",
					Description: "Role to remove (omit to clear the level)",
					Required:    false,
				},
			},
		},
	},
}

func intPtr(v int) *int { return &v }

func RewardsHandler(b *alpha.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if e.GuildID() == nil {
			return e.CreateMessage(discord.NewMessageCreateBuilder().
				SetContent("This command only works in a server.").
				SetEphemeral(true).
				Build())
		}

		data := e.SlashCommandInteractionData()
		sub := *data.SubCommandName

		if sub != "list" && (e.Member() == nil || !e.Member().Permissions.Has(discord.PermissionManageGuild)) {
			return e.CreateMessage(discord.NewMessageCreateBuilder().
				SetContent("You need the Manage Server permission to change rewards.").
				SetEphemeral(true).
				Build())
		}

		switch sub {
		case "list":
			return listRewards(ctx, b, e)
		case "add":
			return addReward(ctx, b, e)
		case "remove":
			return removeReward(ctx, b, e)
		}
		return nil
	}
}

func listRewards(ctx context.Context, b *alpha.Bot, e *handler.CommandEvent) error {
	tiers, err := b.RewardRepository.GetByGuild(ctx, e.GuildID().String())
	if err != nil {
		return e.CreateMessage(discord.NewMessageCreateBuilder().
			SetContent("Couldn't fetch rewards right now.").
			SetEphemeral(true).
			Build())
	}
	if len(tiers) == 0 {
		return e.CreateMessage(discord.NewMessageCreateBuilder().
			SetContent("No role rewards configured. Use `/rewards add` to create one.").
			Build())
	}

	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Level < tiers[j].Level })

	var lines []string
	for _, tier := range tiers {
		mentions := make([]string, 0, len(tier.RoleIDs))
		for _, roleID := range tier.RoleIDs {
			mentions = append(mentions, fmt.Sprintf("<@&%s>", roleID))
		}
		lines = append(lines, fmt.Sprintf("**Level %d** → %s", tier.Level, strings.Join(mentions, ", ")))
	}

	return e.CreateMessage(discord.NewMessageCreateBuilder().
		SetEmbeds(discord.NewEmbedBuilder().
			SetTitle("🏅 Role Rewards").
			SetDescription(strings.Join(lines, "\n")).
			SetColor(0x5865F2).
			Build()).
		Build())
}

func addReward(ctx context.Context, b *alpha.Bot, e *handler.CommandEvent) error {
	data := e.SlashCommandInteractionData()
	level := data.Int("level")
	role := data.Role("role")
	guildID := e.GuildID().String()
	roleID := role.ID.String()

	tier, err := b.RewardRepository.GetByGuildLevel(ctx, guildID, level)
	if err != nil && !repositories.IsNotFound(err) {
		return e.CreateMessage(discord.NewMessageCreateBuilder().
			SetContent("Couldn't update rewards right now.").
			SetEphemeral(true).
			Build())
	}
	if tier == nil {
		tier = &models.RewardTier{GuildID: guildID, Level: level}
	}
	if tier.HasRole(roleID) {
		return e.CreateMessage(discord.NewMessageCreateBuilder().
			SetContentf("%s is already a reward for level %d.", role.Mention(), level).
			SetEphemeral(true).
			Build())
	}

	tier.RoleIDs = append(tier.RoleIDs, roleID)
	if err := b.RewardRepository.Set(ctx, tier); err != nil {
		return e.CreateMessage(discord.NewMessageCreateBuilder().
			SetContent("Couldn't update rewards right now.").
			SetEphemeral(true).
			Build())
	}

	return e.CreateMessage(discord.NewMessageCreateBuilder().
		SetContentf("Members reaching level %d will now receive %s.", level, role.Mention()).
		Build())
}

func removeReward(ctx context.Context, b *alpha.Bot, e *handler.CommandEvent) error {
	data := e.SlashCommandInteractionData()
	level := data.Int("level")
	guildID := e.GuildID().String()

	tier, err := b.RewardRepository.GetByGuildLevel(ctx, guildID, level)
	if err != nil {
		if repositories.IsNotFound(err) {
			return e.CreateMessage(discord.NewMessageCreateBuilder().
				SetContentf("Level %d has no rewards configured.", level).
				SetEphemeral(true).
				Build())
		}
		return e.CreateMessage(discord.NewMessageCreateBuilder().
			SetContent("Couldn't update rewards right now.").
			SetEphemeral(true).
			Build())
	}

	role, hasRole := data.OptRole("role")
	if !hasRole {
		if err := b.RewardRepository.Delete(ctx, guildID, level); err != nil {
			return e.CreateMessage(discord.NewMessageCreateBuilder().
				SetContent("Couldn't update rewards right now.").
				SetEphemeral(true).
				Build())
		}
		return e.CreateMessage(discord.NewMessageCreateBuilder().
			SetContentf("Cleared all rewards for level %d.", level).
			Build())
	}

	roleID := role.ID.String()
	if !tier.HasRole(roleID) {
		return e.CreateMessage(discord.NewMessageCreateBuilder().
			SetContentf("%s is not a reward for level %d.", role.Mention(), level).
			SetEphemeral(true).
			Build())
	}

	kept := make([]string, 0, len(tier.RoleIDs)-1)
	for _, id := range tier.RoleIDs {
		if id != roleID {
			kept = append(kept, id)
		}
	}

	if len(kept) == 0 {
		err = b.RewardRepository.Delete(ctx, guildID, level)
	} else {
		tier.RoleIDs = kept
		err = b.RewardRepository.Set(ctx, tier)
	}
	if err != nil {
		return e.CreateMessage(discord.NewMessageCreateBuilder().
			SetContent("Couldn't update rewards right now.").
			SetEphemeral(true).
			Build())
	}

	return e.CreateMessage(discord.NewMessageCreateBuilder().
		SetContentf("Removed %s from level %d rewards.", role.Mention(), level).
		Build())
}
