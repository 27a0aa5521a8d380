package leveling

import (
	"context"
	"sort"

	"github.com/scottbucher/Alpha-sub000/alpha/database/models"
	"github.com/scottbucher/Alpha-sub000/alpha/database/repositories"
	"github.com/scottbucher/Alpha-sub000/alpha/platform"
)

type fakeGuildRepo struct {
	guilds    map[string]*models.GuildData
	getAllErr error
	created   int
}

func newFakeGuildRepo(guilds ...*models.GuildData) *fakeGuildRepo {
	m := make(map[string]*models.GuildData)
	for _, g := range guilds {
		m[g.DiscordID] = g
	}
	return &fakeGuildRepo{guilds: m}
}

func (f *fakeGuildRepo) GetOrCreate(_ context.Context, discordID string) (*models.GuildData, error) {
	if g, ok := f.guilds[discordID]; ok {
		return g, nil
	}
	g := &models.GuildData{DiscordID: discordID, TimeZone: "UTC"}
	f.guilds[discordID] = g
	f.created++
	return g, nil
}

func (f *fakeGuildRepo) GetByDiscordID(_ context.Context, discordID string) (*models.GuildData, error) {
	if g, ok := f.guilds[discordID]; ok {
		return g, nil
	}
	return nil, &repositories.NotFoundError{Entity: "guild", ID: discordID}
}

func (f *fakeGuildRepo) GetAll(_ context.Context) ([]*models.GuildData, error) {
	if f.getAllErr != nil {
		return nil, f.getAllErr
	}
	ids := make([]string, 0, len(f.guilds))
	for id := range f.guilds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*models.GuildData, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.guilds[id])
	}
	return out, nil
}

func (f *fakeGuildRepo) Update(_ context.Context, guild *models.GuildData) error {
	f.guilds[guild.DiscordID] = guild
	return nil
}

type fakeProgressRepo struct {
	records  map[string]*models.Progress
	updates  int
	flushes  int
	flushErr error
}

func newFakeProgressRepo(records ...*models.Progress) *fakeProgressRepo {
	m := make(map[string]*models.Progress)
	for _, r := range records {
		m[r.GuildID+":"+r.MemberID] = r
	}
	return &fakeProgressRepo{records: m}
}

func (f *fakeProgressRepo) GetOrCreate(_ context.Context, guildID, memberID string) (*models.Progress, error) {
	key := guildID + ":" + memberID
	if r, ok := f.records[key]; ok {
		return r, nil
	}
	r := &models.Progress{GuildID: guildID, MemberID: memberID}
	f.records[key] = r
	return r, nil
}

func (f *fakeProgressRepo) GetByGuild(_ context.Context, guildID string) ([]*models.Progress, error) {
	var out []*models.Progress
	for _, r := range f.records {
		if r.GuildID == guildID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out, nil
}

func (f *fakeProgressRepo) GetOrCreateBatch(ctx context.Context, guildID string, memberIDs []string) ([]*models.Progress, error) {
	out := make([]*models.Progress, 0, len(memberIDs))
	for _, memberID := range memberIDs {
		r, err := f.GetOrCreate(ctx, guildID, memberID)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeProgressRepo) Update(_ context.Context, record *models.Progress) error {
	f.records[record.GuildID+":"+record.MemberID] = record
	f.updates++
	return nil
}

func (f *fakeProgressRepo) UpdateBatch(_ context.Context, records []*models.Progress) error {
	if f.flushErr != nil {
		return f.flushErr
	}
	for _, r := range records {
		f.records[r.GuildID+":"+r.MemberID] = r
	}
	f.flushes++
	return nil
}

func (f *fakeProgressRepo) GetTop(ctx context.Context, guildID string, limit int) ([]*models.Progress, error) {
	out, err := f.GetByGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Experience > out[j].Experience })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeRewardRepo struct {
	tiers map[string]map[int]*models.RewardTier
}

func newFakeRewardRepo(tiers ...*models.RewardTier) *fakeRewardRepo {
	m := make(map[string]map[int]*models.RewardTier)
	for _, t := range tiers {
		if m[t.GuildID] == nil {
			m[t.GuildID] = make(map[int]*models.RewardTier)
		}
		m[t.GuildID][t.Level] = t
	}
	return &fakeRewardRepo{tiers: m}
}

func (f *fakeRewardRepo) GetByGuild(_ context.Context, guildID string) ([]*models.RewardTier, error) {
	var out []*models.RewardTier
	for _, t := range f.tiers[guildID] {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

func (f *fakeRewardRepo) GetByGuildLevel(_ context.Context, guildID string, level int) (*models.RewardTier, error) {
	if t, ok := f.tiers[guildID][level]; ok {
		return t, nil
	}
	return nil, &repositories.NotFoundError{Entity: "reward tier", ID: level}
}

func (f *fakeRewardRepo) Set(_ context.Context, tier *models.RewardTier) error {
	if f.tiers[tier.GuildID] == nil {
		f.tiers[tier.GuildID] = make(map[int]*models.RewardTier)
	}
	f.tiers[tier.GuildID][tier.Level] = tier
	return nil
}

func (f *fakeRewardRepo) Delete(_ context.Context, guildID string, level int) error {
	delete(f.tiers[guildID], level)
	return nil
}

type sentMessage struct {
	channelID string
	content   string
}

type grantedRole struct {
	guildID  string
	memberID string
	roleID   string
}

type fakePlatform struct {
	participants map[string][]platform.VoiceParticipant
	afkChannels  map[string]string
	boosted      map[string]bool
	memberRoles  map[string][]string
	roleNames    map[string]string
	grantErrs    map[string]error

	granted []grantedRole
	sent    []sentMessage
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		participants: make(map[string][]platform.VoiceParticipant),
		afkChannels:  make(map[string]string),
		boosted:      make(map[string]bool),
		memberRoles:  make(map[string][]string),
		roleNames:    make(map[string]string),
		grantErrs:    make(map[string]error),
	}
}

func (f *fakePlatform) VoiceParticipants(guildID string) []platform.VoiceParticipant {
	return f.participants[guildID]
}

func (f *fakePlatform) AfkChannelID(guildID string) string {
	return f.afkChannels[guildID]
}

func (f *fakePlatform) IsBoosted(guildID, memberID string) bool {
	return f.boosted[guildID+":"+memberID]
}

func (f *fakePlatform) MemberRoleIDs(_ context.Context, guildID, memberID string) ([]string, error) {
	return f.memberRoles[guildID+":"+memberID], nil
}

func (f *fakePlatform) GrantRole(_ context.Context, guildID, memberID, roleID string) error {
	if err := f.grantErrs[roleID]; err != nil {
		return err
	}
	f.granted = append(f.granted, grantedRole{guildID, memberID, roleID})
	key := guildID + ":" + memberID
	f.memberRoles[key] = append(f.memberRoles[key], roleID)
	return nil
}

func (f *fakePlatform) RoleName(_, roleID string) (string, bool) {
	name, ok := f.roleNames[roleID]
	return name, ok
}

func (f *fakePlatform) SendMessage(_ context.Context, channelID, content string) error {
	f.sent = append(f.sent, sentMessage{channelID, content})
	return nil
}

var _ platform.Client = (*fakePlatform)(nil)
var _ repositories.GuildRepository = (*fakeGuildRepo)(nil)
var _ repositories.ProgressRepository = (*fakeProgressRepo)(nil)
var _ repositories.RewardRepository = (*fakeRewardRepo)(nil)
