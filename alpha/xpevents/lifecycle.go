// Package xpevents manages timed XP events: the per-tick lifecycle state
// machine and the weekly weekend-event generator.
package xpevents

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scottbucher/Alpha-sub000/alpha/database/models"
	"github.com/scottbucher/Alpha-sub000/alpha/database/repositories"
	"github.com/scottbucher/Alpha-sub000/alpha/leveling"
	"github.com/scottbucher/Alpha-sub000/alpha/platform"
)

// Lifecycle advances every guild's timed events through
// announced -> started -> ended, keeping the multiplier cache in sync.
// Lifecycle flags only ever move forward; a missed tick is healed by the
// silent isActive reconciliation.
type Lifecycle struct {
	guilds      repositories.GuildRepository
	events      repositories.EventRepository
	multipliers *leveling.MultiplierCache
	platform    platform.Client

	announceLead time.Duration
	now          func() time.Time
}

func NewLifecycle(
	guilds repositories.GuildRepository,
	events repositories.EventRepository,
	multipliers *leveling.MultiplierCache,
	pf platform.Client,
	announceLeadDays int,
) *Lifecycle {
	return &Lifecycle{
		guilds:       guilds,
		events:       events,
		multipliers:  multipliers,
		platform:     pf,
		announceLead: time.Duration(announceLeadDays) * 24 * time.Hour,
		now:          time.Now,
	}
}

// Tick evaluates all pending events once. A store failure at the top
// abandons the tick; per-guild failures are isolated.
func (l *Lifecycle) Tick(ctx context.Context) error {
	guilds, err := l.guilds.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("abandoning event tick, store unreachable: %w", err)
	}

	for _, guild := range guilds {
		if err := l.tickGuild(ctx, guild); err != nil {
			slog.Error("Event tick failed for guild",
				slog.String("type", "event"),
				slog.String("guild_id", guild.DiscordID),
				slog.Any("error", err))
		}
	}
	return nil
}

func (l *Lifecycle) tickGuild(ctx context.Context, guild *models.GuildData) error {
	pending, err := l.events.GetPendingByGuild(ctx, guild.DiscordID)
	if err != nil {
		return err
	}

	var dirty []*models.XpEvent
	for _, event := range pending {
		if l.advance(ctx, guild, event) {
			dirty = append(dirty, event)
		}
	}

	if len(dirty) == 0 {
		return nil
	}

	// The active set changed, push the new multiplier before persisting
	// so the grant paths pick it up immediately.
	multiplier := 1
	for _, event := range pending {
		if event.IsActive && !event.IsMarker() && event.Multiplier > multiplier {
			multiplier = event.Multiplier
		}
	}
	l.multipliers.Set(guild.DiscordID, multiplier)

	return l.events.UpdateBatch(ctx, dirty)
}

// advance applies at most one tick's worth of transitions to the event and
// reports whether it became dirty. Unparseable windows never transition.
func (l *Lifecycle) advance(ctx context.Context, guild *models.GuildData, event *models.XpEvent) bool {
	start, end, err := event.Window()
	if err != nil {
		slog.Error("Skipping event with invalid window",
			slog.String("type", "event"),
			slog.String("guild_id", guild.DiscordID),
			slog.Int64("event_id", event.ID),
			slog.Any("error", err))
		return false
	}

	now := l.now()
	dirty := false

	if !event.HasAnnounced && !now.Before(start.Add(-l.announceLead)) && now.Before(start) {
		event.HasAnnounced = true
		dirty = true
		l.notify(ctx, guild, event, fmt.Sprintf(
			"Heads up: a %dx XP event starts %s!",
			event.Multiplier, start.Format("Monday, January 2 at 15:04 MST")))
	}

	if !event.HasStarted && !now.Before(start) {
		event.HasStarted = true
		event.IsActive = true
		dirty = true
		l.notify(ctx, guild, event, fmt.Sprintf(
			"A %dx XP event is live! All gains are multiplied until %s.",
			event.Multiplier, end.Format("Monday, January 2 at 15:04 MST")))
	}

	if !event.HasEnded && now.After(end) {
		event.HasEnded = true
		event.IsActive = false
		dirty = true
		l.notify(ctx, guild, event, fmt.Sprintf(
			"The %dx XP event has ended. Gains are back to normal.",
			event.Multiplier))
	}

	// Heal isActive after a missed tick, silently
	if event.HasStarted && !event.HasEnded {
		inWindow := !now.Before(start) && now.Before(end)
		if event.IsActive != inWindow {
			event.IsActive = inWindow
			dirty = true
		}
	}

	return dirty
}

// notify sends an event announcement. Markers and guilds without an event
// channel stay silent; a failed send never blocks the transition.
func (l *Lifecycle) notify(ctx context.Context, guild *models.GuildData, event *models.XpEvent, content string) {
	if event.IsMarker() || guild.EventChannelID == "" {
		return
	}

	if err := l.platform.SendMessage(ctx, guild.EventChannelID, content); err != nil {
		slog.Error("Failed to send event notification",
			slog.String("type", "event"),
			slog.String("guild_id", guild.DiscordID),
			slog.Int64("event_id", event.ID),
			slog.Any("error", err))
	}
}
