package leveling

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/scottbucher/Alpha-sub000/alpha/database/models"
	"github.com/scottbucher/Alpha-sub000/alpha/platform"
)

func newTestVoiceJob(guilds *fakeGuildRepo, progress *fakeProgressRepo, events *fakeEventSource, pf *fakePlatform, rewards *fakeRewardRepo) *VoiceXpJob {
	return NewVoiceXpJob(
		guilds,
		progress,
		NewMultiplierCache(events),
		NewGuildProgressCache(),
		NewRewardDispatcher(rewards, pf),
		pf,
		5,
		1,
	)
}

func TestVoiceJobSoloParticipant(t *testing.T) {
	pf := newFakePlatform()
	pf.participants["1"] = []platform.VoiceParticipant{
		{MemberID: "10", ChannelID: "100"},
	}
	guilds := newFakeGuildRepo(&models.GuildData{DiscordID: "1"})
	progress := newFakeProgressRepo()
	job := newTestVoiceJob(guilds, progress, &fakeEventSource{}, pf, newFakeRewardRepo())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Alone in a channel there is no occupancy bonus: base rate only.
	if got := progress.records["1:10"].Experience; got != 5 {
		t.Errorf("experience = %d, want 5", got)
	}
}

func TestVoiceJobChannelBonus(t *testing.T) {
	tests := []struct {
		name      string
		occupants int
		want      int64
	}{
		{"pair gets bonus of two", 2, 7},
		{"trio gets bonus of three", 3, 8},
		{"bonus caps at five", 8, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf := newFakePlatform()
			var ps []platform.VoiceParticipant
			for i := 0; i < tt.occupants; i++ {
				ps = append(ps, platform.VoiceParticipant{
					MemberID:  string(rune('a' + i)),
					ChannelID: "100",
				})
			}
			pf.participants["1"] = ps
			guilds := newFakeGuildRepo(&models.GuildData{DiscordID: "1"})
			progress := newFakeProgressRepo()
			job := newTestVoiceJob(guilds, progress, &fakeEventSource{}, pf, newFakeRewardRepo())

			if err := job.Run(context.Background()); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got := progress.records["1:a"].Experience; got != tt.want {
				t.Errorf("experience = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestVoiceJobSkipsIneligible(t *testing.T) {
	pf := newFakePlatform()
	pf.afkChannels["1"] = "900"
	pf.participants["1"] = []platform.VoiceParticipant{
		{MemberID: "10", ChannelID: "100"},
		{MemberID: "11", ChannelID: "100", SelfDeaf: true},
		{MemberID: "12", ChannelID: "100", IsBot: true},
		{MemberID: "13", ChannelID: "900"},
	}
	guilds := newFakeGuildRepo(&models.GuildData{DiscordID: "1"})
	progress := newFakeProgressRepo()
	job := newTestVoiceJob(guilds, progress, &fakeEventSource{}, pf, newFakeRewardRepo())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// The deafened member still counts toward channel occupancy (two
	// humans in channel 100) but earns nothing.
	if got := progress.records["1:10"].Experience; got != 7 {
		t.Errorf("experience = %d, want 7", got)
	}
	for _, id := range []string{"11", "12", "13"} {
		if r, ok := progress.records["1:"+id]; ok && r.Experience != 0 {
			t.Errorf("ineligible member %s earned %d XP", id, r.Experience)
		}
	}
}

func TestVoiceJobEmptyGuildLeavesCacheCold(t *testing.T) {
	pf := newFakePlatform()
	guilds := newFakeGuildRepo(&models.GuildData{DiscordID: "1"})
	progress := newFakeProgressRepo()
	job := newTestVoiceJob(guilds, progress, &fakeEventSource{}, pf, newFakeRewardRepo())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, ok := job.roster.Get("1"); ok {
		t.Error("roster cached for a guild with no voice activity")
	}
	if progress.flushes != 0 {
		t.Errorf("store flushed %d times for an idle guild, want 0", progress.flushes)
	}
}

func TestVoiceJobSingleFlushAndLevelUp(t *testing.T) {
	pf := newFakePlatform()
	pf.participants["1"] = []platform.VoiceParticipant{
		{MemberID: "10", ChannelID: "100"},
		{MemberID: "11", ChannelID: "100"},
		{MemberID: "12", ChannelID: "100"},
	}
	guilds := newFakeGuildRepo(&models.GuildData{DiscordID: "1", LevelUpChannelID: "555"})
	progress := newFakeProgressRepo(
		&models.Progress{GuildID: "1", MemberID: "10", Experience: 95},
		&models.Progress{GuildID: "1", MemberID: "11", Experience: 10},
	)
	job := newTestVoiceJob(guilds, progress, &fakeEventSource{}, pf, newFakeRewardRepo())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Three humans in the channel: grant = 5 + min(3, 5) = 8.
	if got := progress.records["1:10"].Experience; got != 103 {
		t.Errorf("member 10 experience = %d, want 103", got)
	}
	if got := progress.records["1:11"].Experience; got != 18 {
		t.Errorf("member 11 experience = %d, want 18", got)
	}
	if got := progress.records["1:12"].Experience; got != 8 {
		t.Errorf("member 12 experience = %d, want 8", got)
	}

	// All grants for the guild land in one batched flush.
	if progress.flushes != 1 {
		t.Errorf("store flushed %d times, want 1", progress.flushes)
	}

	// Only member 10 crossed a threshold, so exactly one notification.
	if len(pf.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(pf.sent))
	}
	if !strings.Contains(pf.sent[0].content, "<@10>") || !strings.Contains(pf.sent[0].content, "level 1") {
		t.Errorf("unexpected notification: %q", pf.sent[0].content)
	}
}

func TestVoiceJobUsesCachedRosterAcrossTicks(t *testing.T) {
	pf := newFakePlatform()
	pf.participants["1"] = []platform.VoiceParticipant{
		{MemberID: "10", ChannelID: "100"},
	}
	guilds := newFakeGuildRepo(&models.GuildData{DiscordID: "1"})
	progress := newFakeProgressRepo(&models.Progress{GuildID: "1", MemberID: "10"})
	job := newTestVoiceJob(guilds, progress, &fakeEventSource{}, pf, newFakeRewardRepo())

	for i := 0; i < 3; i++ {
		if err := job.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	}

	// Grants accumulate across ticks through the cache write-back.
	if got := progress.records["1:10"].Experience; got != 15 {
		t.Errorf("experience = %d, want 15", got)
	}
	if progress.flushes != 3 {
		t.Errorf("store flushed %d times, want 3", progress.flushes)
	}
}

func TestVoiceJobFailedFlushLeavesCacheUntouched(t *testing.T) {
	pf := newFakePlatform()
	pf.participants["1"] = []platform.VoiceParticipant{
		{MemberID: "10", ChannelID: "100"},
	}
	guilds := newFakeGuildRepo(&models.GuildData{DiscordID: "1"})
	progress := newFakeProgressRepo(&models.Progress{GuildID: "1", MemberID: "10", Experience: 40})
	job := newTestVoiceJob(guilds, progress, &fakeEventSource{}, pf, newFakeRewardRepo())

	progress.flushErr = errors.New("store down")
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// The rejected grant must not linger in the cached roster.
	roster, ok := job.roster.Get("1")
	if !ok {
		t.Fatal("roster not cached")
	}
	if got := roster.Records[0].Experience; got != 40 {
		t.Errorf("cached experience = %d after failed flush, want 40", got)
	}
	if got := progress.records["1:10"].Experience; got != 40 {
		t.Errorf("stored experience = %d after failed flush, want 40", got)
	}

	// Once the store recovers the grant lands normally.
	progress.flushErr = nil
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := progress.records["1:10"].Experience; got != 45 {
		t.Errorf("stored experience = %d after recovery, want 45", got)
	}
}

func TestVoiceJobAbandonsTickOnStoreFailure(t *testing.T) {
	guilds := newFakeGuildRepo()
	guilds.getAllErr = errors.New("store down")
	job := newTestVoiceJob(guilds, newFakeProgressRepo(), &fakeEventSource{}, newFakePlatform(), newFakeRewardRepo())

	if err := job.Run(context.Background()); err == nil {
		t.Error("expected error when the guild listing fails")
	}
}

func TestVoiceJobAppliesEventMultiplier(t *testing.T) {
	pf := newFakePlatform()
	pf.participants["1"] = []platform.VoiceParticipant{
		{MemberID: "10", ChannelID: "100"},
		{MemberID: "11", ChannelID: "100"},
	}
	pf.boosted["1:10"] = true
	events := &fakeEventSource{events: map[string][]*models.XpEvent{"1": {
		{EventType: models.EventTypeIncreasedXpWeekend, Multiplier: 2},
	}}}
	guilds := newFakeGuildRepo(&models.GuildData{DiscordID: "1"})
	progress := newFakeProgressRepo()
	job := newTestVoiceJob(guilds, progress, events, pf, newFakeRewardRepo())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// (5 + 2) * 1.2 * 2 = 16.8, rounded to 17.
	if got := progress.records["1:10"].Experience; got != 17 {
		t.Errorf("boosted member experience = %d, want 17", got)
	}
	// (5 + 2) * 2 = 14 for the regular member.
	if got := progress.records["1:11"].Experience; got != 14 {
		t.Errorf("regular member experience = %d, want 14", got)
	}
}
