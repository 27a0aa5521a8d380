package leveling

import (
	"sync"
	"time"

	"github.com/scottbucher/Alpha-sub000/alpha/config"
	"github.com/scottbucher/Alpha-sub000/alpha/database/models"
)

// GuildRoster is one guild's cached settings plus the progress rows the
// voice job has touched recently.
type GuildRoster struct {
	Guild   *models.GuildData
	Records []*models.Progress
}

type rosterEntry struct {
	roster    *GuildRoster
	expiresAt time.Time
}

// GuildProgressCache shields the store from re-reading full member rosters
// on every voice tick. The voice job writes its own grants back through
// UpdateOne so the next tick observes them without a re-fetch.
type GuildProgressCache struct {
	mu      sync.RWMutex
	entries map[string]*rosterEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewGuildProgressCache() *GuildProgressCache {
	return &GuildProgressCache{
		entries: make(map[string]*rosterEntry),
		ttl:     config.CacheExpiration,
		now:     time.Now,
	}
}

// Get returns the cached roster, or false on a miss or expired entry.
func (c *GuildProgressCache) Get(guildID string) (*GuildRoster, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[guildID]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.roster, true
}

// Set stores the roster with a fresh TTL.
func (c *GuildProgressCache) Set(guildID string, guild *models.GuildData, records []*models.Progress) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[guildID] = &rosterEntry{
		roster:    &GuildRoster{Guild: guild, Records: records},
		expiresAt: c.now().Add(c.ttl),
	}
}

// UpdateOne replaces the member's cached record, appending when absent.
// The entry's TTL is deliberately left untouched: a constantly busy voice
// channel must not pin a stale guild snapshot forever.
func (c *GuildProgressCache) UpdateOne(guildID, memberID string, record *models.Progress) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[guildID]
	if !ok {
		return
	}

	for i, existing := range entry.roster.Records {
		if existing.MemberID == memberID {
			entry.roster.Records[i] = record
			return
		}
	}
	entry.roster.Records = append(entry.roster.Records, record)
}

// Clear drops the given guilds, or everything when called with no args.
func (c *GuildProgressCache) Clear(guildIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(guildIDs) == 0 {
		c.entries = make(map[string]*rosterEntry)
		return
	}
	for _, guildID := range guildIDs {
		delete(c.entries, guildID)
	}
}
