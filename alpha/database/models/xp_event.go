package models

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

const (
	EventTypeIncreasedXpWeekend   = "IncreasedXpWeekend"
	// Marker rows pin an already-decided weekend so the generator never
	// re-rolls it. They carry no multiplier semantics.
	EventTypeNoIncreasedXpWeekend = "NoIncreasedXpWeekend"
)

// EventState is the derived lifecycle state of a timed event.
type EventState int

const (
	EventStateDraft EventState = iota
	EventStateAnnounced
	EventStateStarted
	EventStateEnded
)

func (s EventState) String() string {
	switch s {
	case EventStateDraft:
		return "draft"
	case EventStateAnnounced:
		return "announced"
	case EventStateStarted:
		return "started"
	case EventStateEnded:
		return "ended"
	}
	return "unknown"
}

// XpEvent is a scheduled window during which XP gains are multiplied.
// The window bounds are stored as RFC 3339 strings because the legacy
// (1.x) store kept them that way and the migrator imports them verbatim;
// rows with garbage timestamps must be skippable, not fatal.
type XpEvent struct {
	bun.BaseModel `bun:"table:xp_events,alias:xe"`

	ID      int64  `bun:"id,pk,autoincrement"`
	GuildID string `bun:"guild_id,notnull"`

	EventType     string `bun:"event_type,notnull"`
	TimeStart     string `bun:"time_start,notnull"`
	TimeEnd       string `bun:"time_end,notnull"`
	Multiplier    int    `bun:"multiplier,notnull,default:1"`
	AutoGenerated bool   `bun:"auto_generated,notnull,default:false"`

	// Lifecycle flags, each transitions false->true exactly once.
	HasAnnounced bool `bun:"has_announced,notnull,default:false"`
	HasStarted   bool `bun:"has_started,notnull,default:false"`
	HasEnded     bool `bun:"has_ended,notnull,default:false"`
	IsActive     bool `bun:"is_active,notnull,default:false"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// Window parses the event's [start, end) bounds.
func (e *XpEvent) Window() (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, e.TimeStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time_start %q: %w", e.TimeStart, err)
	}
	end, err := time.Parse(time.RFC3339, e.TimeEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time_end %q: %w", e.TimeEnd, err)
	}
	return start, end, nil
}

// State derives the lifecycle state from the persisted flags. Illegal flag
// combinations collapse to the furthest state reached, so hasEnded always
// wins over a stale isActive.
func (e *XpEvent) State() EventState {
	switch {
	case e.HasEnded:
		return EventStateEnded
	case e.HasStarted:
		return EventStateStarted
	case e.HasAnnounced:
		return EventStateAnnounced
	}
	return EventStateDraft
}

// IsMarker reports whether this row only pins a decided weekend.
func (e *XpEvent) IsMarker() bool {
	return e.EventType == EventTypeNoIncreasedXpWeekend
}
