package leveling

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/scottbucher/Alpha-sub000/alpha/database/models"
)

func newTestTrigger(guilds *fakeGuildRepo, progress *fakeProgressRepo, events *fakeEventSource, pf *fakePlatform) *MessageXpTrigger {
	rewards := NewRewardDispatcher(newFakeRewardRepo(), pf)
	return NewMessageXpTrigger(guilds, progress, NewMultiplierCache(events), rewards, pf, 15, 25, time.Minute)
}

func TestMessageTriggerGrantsWithinRange(t *testing.T) {
	guilds := newFakeGuildRepo(&models.GuildData{DiscordID: "1"})
	progress := newFakeProgressRepo()
	trigger := newTestTrigger(guilds, progress, &fakeEventSource{}, newFakePlatform())
	trigger.randFloat = func() float64 { return 0.5 }

	if err := trigger.Handle(context.Background(), "1", "10"); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	record := progress.records["1:10"]
	if record == nil {
		t.Fatal("no progress record created")
	}
	// 15 + 0.5*(25-15) = 20
	if record.Experience != 20 {
		t.Errorf("experience = %d, want 20", record.Experience)
	}
	if progress.updates != 1 {
		t.Errorf("store updated %d times, want 1", progress.updates)
	}
}

func TestMessageTriggerCooldown(t *testing.T) {
	guilds := newFakeGuildRepo(&models.GuildData{DiscordID: "1"})
	progress := newFakeProgressRepo()
	trigger := newTestTrigger(guilds, progress, &fakeEventSource{}, newFakePlatform())
	trigger.randFloat = func() float64 { return 0 }

	current := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	trigger.now = func() time.Time { return current }

	if err := trigger.Handle(context.Background(), "1", "10"); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	first := progress.records["1:10"].Experience

	// A message inside the cooldown is a silent no-op.
	current = current.Add(30 * time.Second)
	if err := trigger.Handle(context.Background(), "1", "10"); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if got := progress.records["1:10"].Experience; got != first {
		t.Errorf("experience changed during cooldown: %d -> %d", first, got)
	}
	if progress.updates != 1 {
		t.Errorf("store updated %d times during cooldown, want 1", progress.updates)
	}

	// Past the cooldown grants flow again.
	current = current.Add(31 * time.Second)
	if err := trigger.Handle(context.Background(), "1", "10"); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if got := progress.records["1:10"].Experience; got != first*2 {
		t.Errorf("experience = %d, want %d", got, first*2)
	}
}

func TestMessageTriggerAppliesMultipliers(t *testing.T) {
	tests := []struct {
		name       string
		multiplier int
		boosted    bool
		want       int64
	}{
		{"plain", 1, false, 20},
		{"double xp event", 2, false, 40},
		{"boosted member", 1, true, 24},
		{"boosted member during event", 3, true, 72},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &fakeEventSource{events: map[string][]*models.XpEvent{"1": {
				{EventType: models.EventTypeIncreasedXpWeekend, Multiplier: tt.multiplier},
			}}}
			pf := newFakePlatform()
			if tt.boosted {
				pf.boosted["1:10"] = true
			}
			guilds := newFakeGuildRepo(&models.GuildData{DiscordID: "1"})
			progress := newFakeProgressRepo()
			trigger := newTestTrigger(guilds, progress, events, pf)
			trigger.randFloat = func() float64 { return 0.5 }

			if err := trigger.Handle(context.Background(), "1", "10"); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if got := progress.records["1:10"].Experience; got != tt.want {
				t.Errorf("experience = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMessageTriggerRespectsGuildOverrides(t *testing.T) {
	guilds := newFakeGuildRepo(&models.GuildData{DiscordID: "1", TextXpMin: 100, TextXpMax: 200})
	progress := newFakeProgressRepo()
	trigger := newTestTrigger(guilds, progress, &fakeEventSource{}, newFakePlatform())
	trigger.randFloat = func() float64 { return 1 }

	if err := trigger.Handle(context.Background(), "1", "10"); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if got := progress.records["1:10"].Experience; got != 200 {
		t.Errorf("experience = %d, want 200", got)
	}
}

func TestMessageTriggerLevelUpNotification(t *testing.T) {
	pf := newFakePlatform()
	guilds := newFakeGuildRepo(&models.GuildData{DiscordID: "1", LevelUpChannelID: "555"})
	progress := newFakeProgressRepo(&models.Progress{GuildID: "1", MemberID: "10", Experience: 95})
	trigger := newTestTrigger(guilds, progress, &fakeEventSource{}, pf)
	trigger.randFloat = func() float64 { return 0 }

	if err := trigger.Handle(context.Background(), "1", "10"); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	// 95 + 15 = 110, crossing the level 1 threshold at 100.
	if len(pf.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(pf.sent))
	}
	if pf.sent[0].channelID != "555" {
		t.Errorf("notified channel %s, want 555", pf.sent[0].channelID)
	}
	if !strings.Contains(pf.sent[0].content, "level 1") {
		t.Errorf("notification missing the new level: %q", pf.sent[0].content)
	}
}
