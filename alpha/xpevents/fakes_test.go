package xpevents

import (
	"context"
	"sort"

	"github.com/scottbucher/Alpha-sub000/alpha/database/models"
	"github.com/scottbucher/Alpha-sub000/alpha/database/repositories"
	"github.com/scottbucher/Alpha-sub000/alpha/platform"
)

type fakeGuildRepo struct {
	guilds    []*models.GuildData
	getAllErr error
}

func (f *fakeGuildRepo) GetOrCreate(_ context.Context, discordID string) (*models.GuildData, error) {
	for _, g := range f.guilds {
		if g.DiscordID == discordID {
			return g, nil
		}
	}
	g := &models.GuildData{DiscordID: discordID, TimeZone: "UTC"}
	f.guilds = append(f.guilds, g)
	return g, nil
}

func (f *fakeGuildRepo) GetByDiscordID(_ context.Context, discordID string) (*models.GuildData, error) {
	for _, g := range f.guilds {
		if g.DiscordID == discordID {
			return g, nil
		}
	}
	return nil, &repositories.NotFoundError{Entity: "guild", ID: discordID}
}

func (f *fakeGuildRepo) GetAll(_ context.Context) ([]*models.GuildData, error) {
	if f.getAllErr != nil {
		return nil, f.getAllErr
	}
	return f.guilds, nil
}

func (f *fakeGuildRepo) Update(_ context.Context, _ *models.GuildData) error { return nil }

type fakeEventRepo struct {
	events       []*models.XpEvent
	nextID       int64
	updateCalls  int
	createCalls  int
	lastCreated  []*models.XpEvent
	getGuildErr  error
	createErr    error
	updateBatchE error
}

func (f *fakeEventRepo) GetByGuild(_ context.Context, guildID string) ([]*models.XpEvent, error) {
	if f.getGuildErr != nil {
		return nil, f.getGuildErr
	}
	var out []*models.XpEvent
	for _, e := range f.events {
		if e.GuildID == guildID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) GetPendingByGuild(_ context.Context, guildID string) ([]*models.XpEvent, error) {
	var out []*models.XpEvent
	for _, e := range f.events {
		if e.GuildID == guildID && !e.HasEnded {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeEventRepo) GetActiveByGuild(_ context.Context, guildID string) ([]*models.XpEvent, error) {
	var out []*models.XpEvent
	for _, e := range f.events {
		if e.GuildID == guildID && e.IsActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) CreateBatch(_ context.Context, events []*models.XpEvent) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.createCalls++
	f.lastCreated = events
	for _, e := range events {
		f.nextID++
		e.ID = f.nextID
		f.events = append(f.events, e)
	}
	return nil
}

func (f *fakeEventRepo) UpdateBatch(_ context.Context, events []*models.XpEvent) error {
	if f.updateBatchE != nil {
		return f.updateBatchE
	}
	f.updateCalls++
	return nil
}

type sentMessage struct {
	channelID string
	content   string
}

type fakePlatform struct {
	sent []sentMessage
}

func (f *fakePlatform) VoiceParticipants(string) []platform.VoiceParticipant { return nil }
func (f *fakePlatform) AfkChannelID(string) string                          { return "" }
func (f *fakePlatform) IsBoosted(string, string) bool                       { return false }
func (f *fakePlatform) MemberRoleIDs(context.Context, string, string) ([]string, error) {
	return nil, nil
}
func (f *fakePlatform) GrantRole(context.Context, string, string, string) error { return nil }
func (f *fakePlatform) RoleName(string, string) (string, bool)                  { return "", false }
func (f *fakePlatform) SendMessage(_ context.Context, channelID, content string) error {
	f.sent = append(f.sent, sentMessage{channelID, content})
	return nil
}

var _ platform.Client = (*fakePlatform)(nil)
var _ repositories.GuildRepository = (*fakeGuildRepo)(nil)
var _ repositories.EventRepository = (*fakeEventRepo)(nil)
