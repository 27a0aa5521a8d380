package xpevents

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/scottbucher/Alpha-sub000/alpha/config"
	"github.com/scottbucher/Alpha-sub000/alpha/database/models"
	"github.com/scottbucher/Alpha-sub000/alpha/database/repositories"
)

// Generator plans future weekend events. Each run looks at the next few
// weekends per guild and rolls the dice once per undecided weekend; the
// losing rolls leave a marker row so the weekend is never re-rolled.
type Generator struct {
	guilds repositories.GuildRepository
	events repositories.EventRepository

	lookahead int
	now       func() time.Time
	randFloat func() float64
}

func NewGenerator(guilds repositories.GuildRepository, events repositories.EventRepository) *Generator {
	return &Generator{
		guilds:    guilds,
		events:    events,
		lookahead: config.GeneratorLookaheadWeekends,
		now:       time.Now,
		randFloat: rand.Float64,
	}
}

// Run plans events for every guild. A store failure at the top abandons
// the run; per-guild failures are isolated.
func (g *Generator) Run(ctx context.Context) error {
	guilds, err := g.guilds.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("abandoning event generation, store unreachable: %w", err)
	}

	for _, guild := range guilds {
		if err := g.generateForGuild(ctx, guild); err != nil {
			slog.Error("Event generation failed for guild",
				slog.String("type", "event"),
				slog.String("guild_id", guild.DiscordID),
				slog.Any("error", err))
		}
	}
	return nil
}

type window struct {
	start time.Time
	end   time.Time
}

func (w window) overlaps(other window) bool {
	return w.start.Before(other.end) && other.start.Before(w.end)
}

func (g *Generator) generateForGuild(ctx context.Context, guild *models.GuildData) error {
	loc := guild.Location()
	windows := nextWeekendWindows(g.now(), loc, g.lookahead)

	existing, err := g.events.GetByGuild(ctx, guild.DiscordID)
	if err != nil {
		return err
	}

	var claimed []window
	for _, event := range existing {
		start, end, err := event.Window()
		if err != nil {
			slog.Error("Skipping event with invalid window",
				slog.String("type", "event"),
				slog.String("guild_id", guild.DiscordID),
				slog.Int64("event_id", event.ID),
				slog.Any("error", err))
			continue
		}
		claimed = append(claimed, window{start: start, end: end})
	}

	var created []*models.XpEvent
	for _, w := range windows {
		if overlapsAny(w, claimed) {
			continue
		}
		created = append(created, g.roll(guild.DiscordID, w))
		claimed = append(claimed, w)
	}

	if len(created) == 0 {
		return nil
	}

	if err := g.events.CreateBatch(ctx, created); err != nil {
		return err
	}

	slog.Info("Planned weekend events",
		slog.String("type", "event"),
		slog.String("guild_id", guild.DiscordID),
		slog.Int("created", len(created)))
	return nil
}

// roll decides one undecided weekend: 15% chance of an increased-XP
// weekend, multiplier split 85/10/5 across 2x/3x/4x; otherwise a marker.
func (g *Generator) roll(guildID string, w window) *models.XpEvent {
	event := &models.XpEvent{
		GuildID:       guildID,
		TimeStart:     w.start.Format(time.RFC3339),
		TimeEnd:       w.end.Format(time.RFC3339),
		AutoGenerated: true,
	}

	if g.randFloat() >= config.EventRollChance {
		event.EventType = models.EventTypeNoIncreasedXpWeekend
		event.Multiplier = 1
		return event
	}

	event.EventType = models.EventTypeIncreasedXpWeekend
	switch r := g.randFloat(); {
	case r < config.DoubleXpChance:
		event.Multiplier = 2
	case r < config.DoubleXpChance+config.TripleXpChance:
		event.Multiplier = 3
	default:
		event.Multiplier = 4
	}
	return event
}

func overlapsAny(w window, claimed []window) bool {
	for _, c := range claimed {
		if w.overlaps(c) {
			return true
		}
	}
	return false
}

// nextWeekendWindows returns the n soonest weekend windows, Friday 18:00
// through Monday 00:00 in the given zone, that have not fully elapsed.
func nextWeekendWindows(now time.Time, loc *time.Location, n int) []window {
	local := now.In(loc)
	// Back up past Friday so a weekend already in progress is still visited
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -3)

	var windows []window
	for len(windows) < n {
		if day.Weekday() == time.Friday {
			// Wall-clock boundaries, stable across DST shifts
			start := time.Date(day.Year(), day.Month(), day.Day(), config.WeekendStartHour, 0, 0, 0, loc)
			end := day.AddDate(0, 0, 3)
			if end.After(now) {
				windows = append(windows, window{start: start, end: end})
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return windows
}
