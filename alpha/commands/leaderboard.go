package commands

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
	"github.com/scottbucher/Alpha-sub000/alpha"
	"github.com/scottbucher/Alpha-sub000/alpha/leveling"
)

const (
	leaderboardLimit   = 100
	leaderboardPerPage = 10
)

var Leaderboard = discord.SlashCommandCreate{
	Name:        "leaderboard",
	Description: "🏆 View the server's XP leaderboard",
}

func LeaderboardHandler(b *alpha.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if e.GuildID() == nil {
			return e.CreateMessage(discord.NewMessageCreateBuilder().
				SetContent("This command only works in a server.").
				SetEphemeral(true).
				Build())
		}

		records, err := b.ProgressRepository.GetTop(ctx, e.GuildID().String(), leaderboardLimit)
		if err != nil {
			return e.CreateMessage(discord.NewMessageCreateBuilder().
				SetContent("Couldn't fetch the leaderboard right now.").
				SetEphemeral(true).
				Build())
		}

		if len(records) == 0 {
			return e.CreateMessage(discord.NewMessageCreateBuilder().
				SetContent("Nobody has earned XP yet. Get chatting!").
				Build())
		}

		totalPages := int(math.Ceil(float64(len(records)) / float64(leaderboardPerPage)))

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				startIdx := page * leaderboardPerPage
				endIdx := min(startIdx+leaderboardPerPage, len(records))

				var description strings.Builder
				for i, record := range records[startIdx:endIdx] {
					level := leveling.LevelFromXp(record.Experience)
					description.WriteString(fmt.Sprintf("**%d.** <@%s> — level %d (%s XP)\n",
						startIdx+i+1, record.MemberID, level, formatXp(record.Experience)))
				}

				embed.SetTitle("🏆 XP Leaderboard").
					SetDescription(description.String()).
					SetFooter(fmt.Sprintf("Page %d/%d", page+1, totalPages), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}
