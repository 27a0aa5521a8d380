package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/scottbucher/Alpha-sub000/alpha"
	"github.com/scottbucher/Alpha-sub000/alpha/database/models"
)

var XpEvent = discord.SlashCommandCreate{
	Name:        "xpevent",
	Description: "⚡ Manage timed XP events",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "list",
			Description: "List upcoming and running XP events",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "schedule",
			Description: "Schedule a custom increased-XP event",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:        "multiplier",
					Description: "XP multiplier",
					Required:    true,
					Choices: []discord.ApplicationCommandOptionChoiceInt{
						{Name: "2x", Value: 2},
						{Name: "3x", Value: 3},
						{Name: "4x", Value: 4},
					},
				},
				discord.ApplicationCommandOptionString{
					Name:        "start",
					Description: "Start time, RFC 3339 (e.g. 2026-09-04T18:00:00Z)",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "end",
					Description: "End time, RFC 3339",
					Required:    true,
				},
			},
		},
	},
}

func XpEventHandler(b *alpha.Bot) handler.CommandHandler {
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
		switch *data.SubCommandName {
		case "list":
			return listEvents(ctx, b, e)
		case "schedule":
			if e.Member() == nil || !e.Member().Permissions.Has(discord.PermissionManageGuild) {
				return e.CreateMessage(discord.NewMessageCreateBuilder().
					SetContent("You need the Manage Server permission to schedule events.").
					SetEphemeral(true).
					Build())
			}
			return scheduleEvent(ctx, b, e)
		}
		return nil
	}
}

func listEvents(ctx context.Context, b *alpha.Bot, e *handler.CommandEvent) error {
	events, err := b.EventRepository.GetPendingByGuild(ctx, e.GuildID().String())
	if err != nil {
		return e.CreateMessage(discord.NewMessageCreateBuilder().
			SetContent("Couldn't fetch events right now.").
			SetEphemeral(true).
			Build())
	}

	var lines []string
	for _, event := range events {
		if event.IsMarker() {
			continue
		}
		start, end, err := event.Window()
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("**%dx** XP — <t:%d:f> to <t:%d:f> (%s)",
			event.Multiplier, start.Unix(), end.Unix(), event.State()))
	}

	if len(lines) == 0 {
		return e.CreateMessage(discord.NewMessageCreateBuilder().
			SetContent("No XP events scheduled. The generator rolls new weekends weekly.").
			Build())
	}

	return e.CreateMessage(discord.NewMessageCreateBuilder().
		SetContent(strings.Join(lines, "\n")).
		Build())
}

func scheduleEvent(ctx context.Context, b *alpha.Bot, e *handler.CommandEvent) error {
	data := e.SlashCommandInteractionData()
	multiplier := data.Int("multiplier")
	startStr := data.String("start")
	endStr := data.String("end")

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return e.CreateMessage(discord.NewMessageCreateBuilder().
			SetContentf("Couldn't parse start time %q, expected RFC 3339.", startStr).
			SetEphemeral(true).
			Build())
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return e.CreateMessage(discord.NewMessageCreateBuilder().
			SetContentf("Couldn't parse end time %q, expected RFC 3339.", endStr).
			SetEphemeral(true).
			Build())
	}
	if !end.After(start) {
		return e.CreateMessage(discord.NewMessageCreateBuilder().
			SetContent("The event must end after it starts.").
			SetEphemeral(true).
			Build())
	}

	event := &models.XpEvent{
		GuildID:    e.GuildID().String(),
		EventType:  models.EventTypeIncreasedXpWeekend,
		TimeStart:  start.Format(time.RFC3339),
		TimeEnd:    end.Format(time.RFC3339),
		Multiplier: multiplier,
	}
	if err := b.EventRepository.CreateBatch(ctx, []*models.XpEvent{event}); err != nil {
		return e.CreateMessage(discord.NewMessageCreateBuilder().
			SetContent("Couldn't schedule the event right now.").
			SetEphemeral(true).
			Build())
	}

	return e.CreateMessage(discord.NewMessageCreateBuilder().
		SetContentf("Scheduled a %dx XP event from <t:%d:f> to <t:%d:f>.",
			multiplier, start.Unix(), end.Unix()).
		Build())
}
