package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xvierd/focusgate/internal/clock"
	"github.com/xvierd/focusgate/internal/domain"
	"github.com/xvierd/focusgate/internal/ports"
)

// StateService implements the BlockStateProvider interface for readers
// outside the running session, such as the MCP server and one-shot
// commands. It derives the state from the settings and the journal.
type StateService struct {
	settings ports.SettingsStore
	events   ports.EventRepository
	clock    clock.Clock
}

// NewStateService creates a new state service.
func NewStateService(settings ports.SettingsStore, events ports.EventRepository, clk clock.Clock) *StateService {
	return &StateService{settings: settings, events: events, clock: clk}
}

// GetStatus implements ports.BlockStateProvider. A block is reported while
// blocking is enabled, now is inside the window and today's window has not
// been bypassed.
func (s *StateService) GetStatus(ctx context.Context) (*domain.Status, error) {
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load block config: %w", err)
	}
	now := s.clock.Now()

	state := domain.StateIdle
	var (
		bypassed bool
		started  time.Time
	)
	if cfg.Enabled && cfg.Contains(domain.TimeOfDayFrom(now)) {
		events, err := s.events.FindRecent(ctx, windowStart(now, cfg.From))
		if err != nil {
			events = nil
		}
		for _, e := range events {
			if e.Kind == domain.EventBypassed {
				bypassed = true
				break
			}
			if e.Kind == domain.EventStarted && started.IsZero() {
				started = e.OccurredAt
			}
		}
		if !bypassed {
			state = domain.StateBlocking
		}
	}

	st := domain.NewStatus(state, cfg, now)
	st.Bypassed = bypassed
	if state == domain.StateBlocking && !started.IsZero() {
		st.BlockedFor = now.Sub(started).Truncate(time.Second)
	}
	return st, nil
}

// GetRecentEvents implements ports.BlockStateProvider.
func (s *StateService) GetRecentEvents(ctx context.Context, limit int) ([]*domain.BlockEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.events.Latest(ctx, limit)
}

// GetDailyStats implements ports.BlockStateProvider.
func (s *StateService) GetDailyStats(ctx context.Context, date time.Time) (*domain.DailyStats, error) {
	return s.events.GetDailyStats(ctx, date)
}

// GetWeeklyStats returns one DailyStats per day for the last seven days,
// oldest first.
func (s *StateService) GetWeeklyStats(ctx context.Context) ([]*domain.DailyStats, error) {
	today := s.clock.Now()
	out := make([]*domain.DailyStats, 0, 7)
	for i := 6; i >= 0; i-- {
		stats, err := s.events.GetDailyStats(ctx, today.AddDate(0, 0, -i))
		if err != nil {
			return nil, err
		}
		out = append(out, stats)
	}
	return out, nil
}

func windowStart(now time.Time, from domain.TimeOfDay) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, from.Hour, from.Min, 0, 0, now.Location())
}

// Ensure StateService implements BlockStateProvider.
var _ ports.BlockStateProvider = (*StateService)(nil)
