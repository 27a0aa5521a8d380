package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/events"
	"github.com/scottbucher/Alpha-sub000/alpha/leveling"
)

const messageXpTimeout = 10 * time.Second

// MessageXpListener feeds guild messages into the message XP path.
// Bots and DMs never earn XP.
func MessageXpListener(trigger *leveling.MessageXpTrigger) bot.EventListener {
	return bot.NewListenerFunc(func(e *events.MessageCreate) {
		if e.Message.Author.Bot || e.GuildID == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), messageXpTimeout)
		defer cancel()

		if err := trigger.Handle(ctx, e.GuildID.String(), e.Message.Author.ID.String()); err != nil {
			slog.Error("Message XP grant failed",
				slog.String("type", "xp"),
				slog.String("guild_id", e.GuildID.String()),
				slog.String("member_id", e.Message.Author.ID.String()),
				slog.Any("error", err))
		}
	})
}
