package leveling

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/scottbucher/Alpha-sub000/alpha/config"
	"github.com/scottbucher/Alpha-sub000/alpha/database/models"
)

// ActiveEventSource yields the currently active timed events for a guild.
// Satisfied by repositories.EventRepository.
type ActiveEventSource interface {
	GetActiveByGuild(ctx context.Context, guildID string) ([]*models.XpEvent, error)
}

type multiplierEntry struct {
	multiplier int
	expiresAt  time.Time
}

// MultiplierCache is the single source of truth for a guild's effective XP
// multiplier. Both grant paths read through it, so they can never disagree
// within a TTL window. Writers on the same guild must be serialized by the
// caller; the cache itself only guards its map.
type MultiplierCache struct {
	mu      sync.RWMutex
	entries map[string]multiplierEntry
	events  ActiveEventSource
	ttl     time.Duration
	now     func() time.Time
}

func NewMultiplierCache(events ActiveEventSource) *MultiplierCache {
	return &MultiplierCache{
		entries: make(map[string]multiplierEntry),
		events:  events,
		ttl:     config.CacheExpiration,
		now:     time.Now,
	}
}

// Get returns the cached multiplier, or false on a miss or expired entry.
func (c *MultiplierCache) Get(guildID string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[guildID]
	if !ok || c.now().After(entry.expiresAt) {
		return 0, false
	}
	return entry.multiplier, true
}

// Set stores the multiplier with a fresh TTL.
func (c *MultiplierCache) Set(guildID string, multiplier int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[guildID] = multiplierEntry{
		multiplier: multiplier,
		expiresAt:  c.now().Add(c.ttl),
	}
}

// Clear drops the given guilds from the cache, or everything when called
// with no arguments.
func (c *MultiplierCache) Clear(guildIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(guildIDs) == 0 {
		c.entries = make(map[string]multiplierEntry)
		return
	}
	for _, guildID := range guildIDs {
		delete(c.entries, guildID)
	}
}

// EffectiveMultiplier returns the highest multiplier among the guild's
// active events, or 1 when none are running. Misses recompute from the
// store and repopulate the cache.
func (c *MultiplierCache) EffectiveMultiplier(ctx context.Context, guildID string) (int, error) {
	if multiplier, ok := c.Get(guildID); ok {
		return multiplier, nil
	}

	active, err := c.events.GetActiveByGuild(ctx, guildID)
	if err != nil {
		return 0, err
	}

	multiplier := 1
	for _, event := range active {
		if event.IsMarker() {
			continue
		}
		if event.Multiplier > multiplier {
			multiplier = event.Multiplier
		}
	}

	c.Set(guildID, multiplier)

	slog.Debug("Recomputed effective multiplier",
		slog.String("type", "xp"),
		slog.String("guild_id", guildID),
		slog.Int("multiplier", multiplier))

	return multiplier, nil
}
