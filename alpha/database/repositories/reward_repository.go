package repositories

import (
	"context"
	"time"

	"github.com/scottbucher/Alpha-sub000/alpha/database/models"
	"github.com/uptrace/bun"
)

type RewardRepository interface {
	GetByGuild(ctx context.Context, guildID string) ([]*models.RewardTier, error)
	GetByGuildLevel(ctx context.Context, guildID string, level int) (*models.RewardTier, error)
	Set(ctx context.Context, tier *models.RewardTier) error
	Delete(ctx context.Context, guildID string, level int) error
}

type rewardRepository struct {
	*BaseRepository
}

func NewRewardRepository(db *bun.DB) RewardRepository {
	return &rewardRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *rewardRepository) GetByGuild(ctx context.Context, guildID string) ([]*models.RewardTier, error) {
	var tiers []*models.RewardTier
	err := r.GetDB().NewSelect().
		Model(&tiers).
		Where("guild_id = ?", guildID).
		Order("level ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_by_guild", "reward_tier", guildID, err)
	}
	return tiers, nil
}

func (r *rewardRepository) GetByGuildLevel(ctx context.Context, guildID string, level int) (*models.RewardTier, error) {
	tier := new(models.RewardTier)
	err := r.GetDB().NewSelect().
		Model(tier).
		Where("guild_id = ?", guildID).
		Where("level = ?", level).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "reward_tier", level, err)
	}
	return tier, nil
}

func (r *rewardRepository) Set(ctx context.Context, tier *models.RewardTier) error {
	now := time.Now()
	if tier.CreatedAt.IsZero() {
		tier.CreatedAt = now
	}
	tier.UpdatedAt = now

	_, err := r.GetDB().NewInsert().
		Model(tier).
		On("CONFLICT (guild_id, level) DO UPDATE").
		Set("role_ids = EXCLUDED.role_ids").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return r.HandleErrorWithID("set", "reward_tier", tier.Level, err)
}

func (r *rewardRepository) Delete(ctx context.Context, guildID string, level int) error {
	_, err := r.GetDB().NewDelete().
		Model((*models.RewardTier)(nil)).
		Where("guild_id = ?", guildID).
		Where("level = ?", level).
		Exec(ctx)
	return r.HandleErrorWithID("delete", "reward_tier", level, err)
}
