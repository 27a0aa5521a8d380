package repositories

import (
	"context"
	"time"

	"github.com/scottbucher/Alpha-sub000/alpha/config"
	"github.com/scottbucher/Alpha-sub000/alpha/database/models"
	"github.com/uptrace/bun"
)

type EventRepository interface {
	GetByGuild(ctx context.Context, guildID string) ([]*models.XpEvent, error)
	GetPendingByGuild(ctx context.Context, guildID string) ([]*models.XpEvent, error)
	GetActiveByGuild(ctx context.Context, guildID string) ([]*models.XpEvent, error)
	CreateBatch(ctx context.Context, events []*models.XpEvent) error
	UpdateBatch(ctx context.Context, events []*models.XpEvent) error
}

type eventRepository struct {
	*BaseRepository
}

func NewEventRepository(db *bun.DB) EventRepository {
	return &eventRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *eventRepository) GetByGuild(ctx context.Context, guildID string) ([]*models.XpEvent, error) {
	var events []*models.XpEvent
	err := r.GetDB().NewSelect().
		Model(&events).
		Where("guild_id = ?", guildID).
		Order("time_start ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_by_guild", "xp_event", guildID, err)
	}
	return events, nil
}

// GetPendingByGuild returns events that can still transition.
func (r *eventRepository) GetPendingByGuild(ctx context.Context, guildID string) ([]*models.XpEvent, error) {
	var events []*models.XpEvent
	err := r.GetDB().NewSelect().
		Model(&events).
		Where("guild_id = ?", guildID).
		Where("has_ended = ?", false).
		Order("time_start ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_pending", "xp_event", guildID, err)
	}
	return events, nil
}

func (r *eventRepository) GetActiveByGuild(ctx context.Context, guildID string) ([]*models.XpEvent, error) {
	var events []*models.XpEvent
	err := r.GetDB().NewSelect().
		Model(&events).
		Where("guild_id = ?", guildID).
		Where("is_active = ?", true).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_active", "xp_event", guildID, err)
	}
	return events, nil
}

func (r *eventRepository) CreateBatch(ctx context.Context, events []*models.XpEvent) error {
	if len(events) == 0 {
		return nil
	}

	now := time.Now()
	for _, event := range events {
		event.CreatedAt = now
		event.UpdatedAt = now
	}

	timeoutCtx, cancel := r.WithCustomTimeout(ctx, config.BatchQueryTimeout)
	defer cancel()

	_, err := r.GetDB().NewInsert().
		Model(&events).
		Exec(timeoutCtx)
	return r.HandleError("create_batch", "xp_event", err)
}

// UpdateBatch flushes all dirty lifecycle flags for a guild in one round-trip.
func (r *eventRepository) UpdateBatch(ctx context.Context, events []*models.XpEvent) error {
	if len(events) == 0 {
		return nil
	}

	now := time.Now()
	for _, event := range events {
		event.UpdatedAt = now
	}

	timeoutCtx, cancel := r.WithCustomTimeout(ctx, config.BatchQueryTimeout)
	defer cancel()

	values := r.GetDB().NewValues(&events)
	_, err := r.GetDB().NewUpdate().
		With("_data", values).
		Model((*models.XpEvent)(nil)).
		TableExpr("_data").
		Set("has_announced = _data.has_announced").
		Set("has_started = _data.has_started").
		Set("has_ended = _data.has_ended").
		Set("is_active = _data.is_active").
		Set("updated_at = _data.updated_at").
		Where("xe.id = _data.id").
		Exec(timeoutCtx)
	return r.HandleError("update_batch", "xp_event", err)
}
