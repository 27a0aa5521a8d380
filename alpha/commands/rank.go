package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/scottbucher/Alpha-sub000/alpha"
	"github.com/scottbucher/Alpha-sub000/alpha/leveling"
)

var Rank = discord.SlashCommandCreate{
	Name:        "rank",
	Description: "📈 View your level and progress",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "member",
			Description: "Member to look up (defaults to you)",
			Required:    false,
		},
	},
}

func RankHandler(b *alpha.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if e.GuildID() == nil {
			return e.CreateMessage(discord.NewMessageCreateBuilder().
				SetContent("This command only works in a server.").
				SetEphemeral(true).
				Build())
		}

		target := e.User()
		if user, ok := e.SlashCommandInteractionData().OptUser("member"); ok {
			target = user
		}

		record, err := b.ProgressRepository.GetOrCreate(ctx, e.GuildID().String(), target.ID.String())
		if err != nil {
			return e.CreateMessage(discord.NewMessageCreateBuilder().
				SetContent("Couldn't look up that member's progress right now.").
				SetEphemeral(true).
				Build())
		}

		level := leveling.LevelFromXp(record.Experience)
		progress := leveling.ProgressInLevel(record.Experience)
		needed := leveling.XpToComplete(level)

		return e.CreateMessage(discord.NewMessageCreateBuilder().
			SetContentf("**%s** is level **%d** with **%d** XP (%d/%d into the next level).",
				target.Username, level, record.Experience, progress, needed).
			Build())
	}
}

func formatXp(xp int64) string {
	if xp >= 1000 {
		return fmt.Sprintf("%.1fk", float64(xp)/1000)
	}
	return fmt.Sprintf("%d", xp)
}
