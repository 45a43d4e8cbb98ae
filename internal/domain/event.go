package domain

import (
	"time"
)

// EventKind identifies a block history entry.
type EventKind string

const (
	EventStarted      EventKind = "started"
	EventEnded        EventKind = "ended"
	EventBypassed     EventKind = "bypassed"
	EventBypassFailed EventKind = "bypass_failed"
)

// Label returns a human-readable label for the event kind.
func (k EventKind) Label() string {
	switch k {
	case EventStarted:
		return "Block started"
	case EventEnded:
		return "Block ended"
	case EventBypassed:
		return "Bypassed"
	case EventBypassFailed:
		return "Wrong PIN"
	default:
		return "Unknown"
	}
}

// BlockEvent is one entry of the block history journal.
type BlockEvent struct {
	ID         string
	Kind       EventKind
	OccurredAt time.Time
	From       TimeOfDay
	To         TimeOfDay
	BlockedFor time.Duration
	GitBranch  string
}

// NewBlockEvent creates a journal entry for the given window.
func NewBlockEvent(kind EventKind, at time.Time, from, to TimeOfDay) *BlockEvent {
	return &BlockEvent{
		ID:         generateID(),
		Kind:       kind,
		OccurredAt: at,
		From:       from,
		To:         to,
	}
}

// DailyStats aggregates block history for a day.
type DailyStats struct {
	Date           time.Time
	BlocksStarted  int
	Bypasses       int
	FailedBypasses int
	TotalBlocked   time.Duration
}
