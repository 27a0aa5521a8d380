package repositories

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/scottbucher/Alpha-sub000/alpha/database/models"
	"github.com/uptrace/bun"
)

type GuildRepository interface {
	GetOrCreate(ctx context.Context, discordID string) (*models.GuildData, error)
	GetByDiscordID(ctx context.Context, discordID string) (*models.GuildData, error)
	GetAll(ctx context.Context) ([]*models.GuildData, error)
	Update(ctx context.Context, guild *models.GuildData) error
}

type guildRepository struct {
	*BaseRepository
}

func NewGuildRepository(db *bun.DB) GuildRepository {
	return &guildRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *guildRepository) GetByDiscordID(ctx context.Context, discordID string) (*models.GuildData, error) {
	guild := new(models.GuildData)
	err := r.GetDB().NewSelect().
		Model(guild).
		Where("discord_id = ?", discordID).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "guild", discordID, err)
	}
	return guild, nil
}

func (r *guildRepository) GetOrCreate(ctx context.Context, discordID string) (*models.GuildData, error) {
	guild, err := r.GetByDiscordID(ctx, discordID)
	if err == nil {
		return guild, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	now := time.Now()
	guild = &models.GuildData{
		DiscordID: discordID,
		TimeZone:  "UTC",
		JoinedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = r.GetDB().NewInsert().
		Model(guild).
		On("CONFLICT (discord_id) DO NOTHING").
		Exec(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, r.HandleErrorWithID("create", "guild", discordID, err)
	}

	slog.Debug("Created guild record",
		slog.String("type", "db"),
		slog.String("guild_id", discordID))

	// Re-read so a concurrent insert still yields the winning row.
	return r.GetByDiscordID(ctx, discordID)
}

func (r *guildRepository) GetAll(ctx context.Context) ([]*models.GuildData, error) {
	var guilds []*models.GuildData
	err := r.GetDB().NewSelect().
		Model(&guilds).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get_all", "guild", err)
	}
	return guilds, nil
}

func (r *guildRepository) Update(ctx context.Context, guild *models.GuildData) error {
	guild.UpdatedAt = time.Now()
	_, err := r.GetDB().NewUpdate().
		Model(guild).
		WherePK().
		Exec(ctx)
	return r.HandleErrorWithID("update", "guild", guild.DiscordID, err)
}
