package alpha

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"
	"github.com/scottbucher/Alpha-sub000/alpha/database"
	"github.com/scottbucher/Alpha-sub000/alpha/database/repositories"
	"github.com/scottbucher/Alpha-sub000/alpha/leveling"
	"github.com/scottbucher/Alpha-sub000/alpha/platform"
	"github.com/scottbucher/Alpha-sub000/alpha/xpevents"
)

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:       cfg,
		Paginator: paginator.New(),
		Version:   version,
		Commit:    commit,
	}
}

type Bot struct {
	Cfg       Config
	Client    bot.Client
	Paginator *paginator.Manager
	Version   string
	Commit    string
	DB        *database.DB

	GuildRepository    repositories.GuildRepository
	ProgressRepository repositories.ProgressRepository
	EventRepository    repositories.EventRepository
	RewardRepository   repositories.RewardRepository

	Platform         platform.Client
	MultiplierCache  *leveling.MultiplierCache
	ProgressCache    *leveling.GuildProgressCache
	RewardDispatcher *leveling.RewardDispatcher
	MessageXpTrigger *leveling.MessageXpTrigger
	VoiceXpJob       *leveling.VoiceXpJob
	EventLifecycle   *xpevents.Lifecycle
	EventGenerator   *xpevents.Generator
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(
			gateway.IntentGuilds,
			gateway.IntentGuildMessages,
			gateway.IntentGuildVoiceStates,
			gateway.IntentGuildMembers,
		)),
		bot.WithCacheConfigOpts(cache.WithCaches(
			cache.FlagGuilds,
			cache.FlagVoiceStates,
			cache.FlagMembers,
			cache.FlagRoles,
			cache.FlagChannels,
		)),
		bot.WithEventListeners(b.Paginator),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}

	b.Client = client
	return nil
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("Alpha is now ready",
		slog.String("version", b.Version),
		slog.String("commit", b.Commit))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithWatchingActivity("XP roll in"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.Any("error", err))
	}
}
