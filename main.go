package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
	"github.com/scottbucher/Alpha-sub000/alpha"
	"github.com/scottbucher/Alpha-sub000/alpha/commands"
	"github.com/scottbucher/Alpha-sub000/alpha/database"
	"github.com/scottbucher/Alpha-sub000/alpha/database/repositories"
	"github.com/scottbucher/Alpha-sub000/alpha/handlers"
	"github.com/scottbucher/Alpha-sub000/alpha/leveling"
	"github.com/scottbucher/Alpha-sub000/alpha/logger"
	"github.com/scottbucher/Alpha-sub000/alpha/migration"
	"github.com/scottbucher/Alpha-sub000/alpha/platform"
	"github.com/scottbucher/Alpha-sub000/alpha/xpevents"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	slog.SetDefault(slog.New(logger.NewHandler()))

	slog.Info("Starting Alpha",
		slog.String("version", version),
		slog.String("commit", commit))

	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	shouldMigrate := flag.Bool("migrate", false, "Import legacy MongoDB data before starting")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := alpha.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := database.New(ctx, database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	})
	if err != nil {
		slog.Error("Database connection failed",
			slog.Any("error", err),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Database ready",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	if *shouldMigrate {
		if err := runLegacyMigration(ctx, cfg, db); err != nil {
			slog.Error("Legacy migration failed", slog.Any("error", err))
			os.Exit(-1)
		}
	}

	b := alpha.New(*cfg, version, commit)
	b.DB = db

	b.GuildRepository = repositories.NewGuildRepository(db.BunDB())
	b.ProgressRepository = repositories.NewProgressRepository(db.BunDB())
	b.EventRepository = repositories.NewEventRepository(db.BunDB())
	b.RewardRepository = repositories.NewRewardRepository(db.BunDB())

	h := handler.New()
	h.Command("/rank", handlers.WrapWithLogging("rank", commands.RankHandler(b)))
	h.Command("/leaderboard", handlers.WrapWithLogging("leaderboard", commands.LeaderboardHandler(b)))
	h.Command("/xpevent", handlers.WrapWithLogging("xpevent", commands.XpEventHandler(b)))
	h.Command("/rewards", handlers.WrapWithLogging("rewards", commands.RewardsHandler(b)))

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		slog.Error("Failed to setup bot", slog.String("type", "sys"), slog.Any("error", err))
		os.Exit(-1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	// The XP engine needs the gateway client for voice states, member
	// lookups and notifications, so it is wired after client creation.
	b.Platform = platform.NewDisgoClient(b.Client)
	b.MultiplierCache = leveling.NewMultiplierCache(b.EventRepository)
	b.ProgressCache = leveling.NewGuildProgressCache()
	b.RewardDispatcher = leveling.NewRewardDispatcher(b.RewardRepository, b.Platform)
	b.MessageXpTrigger = leveling.NewMessageXpTrigger(
		b.GuildRepository,
		b.ProgressRepository,
		b.MultiplierCache,
		b.RewardDispatcher,
		b.Platform,
		cfg.Leveling.TextXpMin,
		cfg.Leveling.TextXpMax,
		time.Duration(cfg.Leveling.MessageCooldownSec)*time.Second,
	)
	b.VoiceXpJob = leveling.NewVoiceXpJob(
		b.GuildRepository,
		b.ProgressRepository,
		b.MultiplierCache,
		b.ProgressCache,
		b.RewardDispatcher,
		b.Platform,
		cfg.Leveling.VoiceBaseXp,
		cfg.Leveling.VoiceTickMinutes,
	)
	b.EventLifecycle = xpevents.NewLifecycle(
		b.GuildRepository,
		b.EventRepository,
		b.MultiplierCache,
		b.Platform,
		cfg.Events.AnnounceLeadDays,
	)
	b.EventGenerator = xpevents.NewGenerator(b.GuildRepository, b.EventRepository)

	b.Client.AddEventListeners(handlers.MessageXpListener(b.MessageXpTrigger))

	if *shouldSyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds))
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err))
		}
	}

	gatewayCtx, gatewayCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer gatewayCancel()
	if err = b.Client.OpenGateway(gatewayCtx); err != nil {
		slog.Error("Failed to open gateway", slog.String("type", "sys"), slog.Any("error", err))
		os.Exit(-1)
	}

	scheduler := xpevents.NewScheduler(
		b.EventLifecycle,
		b.EventGenerator,
		time.Duration(cfg.Events.TickSeconds)*time.Second,
		time.Duration(cfg.Events.GenerateEveryDays)*24*time.Hour,
	)
	scheduler.Start()
	defer scheduler.Shutdown()

	voiceDone := make(chan struct{})
	defer close(voiceDone)
	go runVoiceTicker(b.VoiceXpJob, time.Duration(cfg.Leveling.VoiceTickMinutes)*time.Minute, voiceDone)

	slog.Info("Alpha is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down...")
}

// runVoiceTicker drives the voice XP batch job. Each run gets its own
// timeout so one stuck tick cannot block the next.
func runVoiceTicker(job *leveling.VoiceXpJob, interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			err := job.Run(ctx)
			cancel()
			logger.LogJob("voice_xp", time.Since(start), err)
		case <-done:
			return
		}
	}
}

func runLegacyMigration(ctx context.Context, cfg *alpha.Config, db *database.DB) error {
	slog.Info("Running legacy data import",
		slog.String("type", "db"),
		slog.String("source", cfg.Migration.MongoDatabase))

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Migration.MongoURI))
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			slog.Error("Failed to disconnect from MongoDB", slog.Any("error", err))
		}
	}()

	m := migration.NewMigrator(db.BunDB(), client, cfg.Migration.MongoDatabase)
	m.SetBatchSize(cfg.Migration.BatchSize)
	m.SetUseCopy(true)
	m.UsePool(db.GetPool())
	return m.MigrateAll(ctx)
}
