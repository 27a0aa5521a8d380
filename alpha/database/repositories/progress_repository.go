package repositories

import (
	"context"
	"time"

	"github.com/scottbucher/Alpha-sub000/alpha/config"
	"github.com/scottbucher/Alpha-sub000/alpha/database/models"
	"github.com/uptrace/bun"
)

type ProgressRepository interface {
	GetOrCreate(ctx context.Context, guildID, memberID string) (*models.Progress, error)
	GetByGuild(ctx context.Context, guildID string) ([]*models.Progress, error)
	GetOrCreateBatch(ctx context.Context, guildID string, memberIDs []string) ([]*models.Progress, error)
	Update(ctx context.Context, record *models.Progress) error
	UpdateBatch(ctx context.Context, records []*models.Progress) error
	GetTop(ctx context.Context, guildID string, limit int) ([]*models.Progress, error)
}

type progressRepository struct {
	*BaseRepository
}

func NewProgressRepository(db *bun.DB) ProgressRepository {
	return &progressRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *progressRepository) GetOrCreate(ctx context.Context, guildID, memberID string) (*models.Progress, error) {
	records, err := r.GetOrCreateBatch(ctx, guildID, []string{memberID})
	if err != nil {
		return nil, err
	}
	return records[0], nil
}

func (r *progressRepository) GetByGuild(ctx context.Context, guildID string) ([]*models.Progress, error) {
	var records []*models.Progress
	err := r.GetDB().NewSelect().
		Model(&records).
		Where("guild_id = ?", guildID).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_by_guild", "progress", guildID, err)
	}
	return records, nil
}

// GetOrCreateBatch fetches the progress rows for the given members,
// inserting zero-XP rows for any member seen for the first time. The
// result preserves the order of memberIDs.
func (r *progressRepository) GetOrCreateBatch(ctx context.Context, guildID string, memberIDs []string) ([]*models.Progress, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}

	var existing []*models.Progress
	err := r.GetDB().NewSelect().
		Model(&existing).
		Where("guild_id = ?", guildID).
		Where("member_id IN (?)", bun.In(memberIDs)).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_batch", "progress", guildID, err)
	}

	byMember := make(map[string]*models.Progress, len(existing))
	for _, rec := range existing {
		byMember[rec.MemberID] = rec
	}

	now := time.Now()
	var missing []*models.Progress
	for _, memberID := range memberIDs {
		if _, ok := byMember[memberID]; ok {
			continue
		}
		rec := &models.Progress{
			GuildID:   guildID,
			MemberID:  memberID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		missing = append(missing, rec)
		byMember[memberID] = rec
	}

	if len(missing) > 0 {
		timeoutCtx, cancel := r.WithCustomTimeout(ctx, config.BatchQueryTimeout)
		defer cancel()

		_, err = r.GetDB().NewInsert().
			Model(&missing).
			On("CONFLICT (guild_id, member_id) DO NOTHING").
			Exec(timeoutCtx)
		if err != nil {
			return nil, r.HandleErrorWithID("create_batch", "progress", guildID, err)
		}
	}

	records := make([]*models.Progress, 0, len(memberIDs))
	for _, memberID := range memberIDs {
		records = append(records, byMember[memberID])
	}
	return records, nil
}

func (r *progressRepository) Update(ctx context.Context, record *models.Progress) error {
	record.UpdatedAt = time.Now()
	_, err := r.GetDB().NewUpdate().
		Model(record).
		WherePK().
		Exec(ctx)
	return r.HandleErrorWithID("update", "progress", record.MemberID, err)
}

// UpdateBatch flushes all mutated rows for a guild in one round-trip.
func (r *progressRepository) UpdateBatch(ctx context.Context, records []*models.Progress) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now()
	for _, rec := range records {
		rec.UpdatedAt = now
	}

	timeoutCtx, cancel := r.WithCustomTimeout(ctx, config.BatchQueryTimeout)
	defer cancel()

	_, err := r.GetDB().NewInsert().
		Model(&records).
		On("CONFLICT (guild_id, member_id) DO UPDATE").
		Set("experience = EXCLUDED.experience").
		Set("last_granted_at = EXCLUDED.last_granted_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(timeoutCtx)
	return r.HandleError("update_batch", "progress", err)
}

func (r *progressRepository) GetTop(ctx context.Context, guildID string, limit int) ([]*models.Progress, error) {
	var records []*models.Progress
	err := r.GetDB().NewSelect().
		Model(&records).
		Where("guild_id = ?", guildID).
		Order("experience DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_top", "progress", guildID, err)
	}
	return records, nil
}
