package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xvierd/focusgate/internal/domain"
	"github.com/xvierd/focusgate/internal/ports"
)

// eventRepository implements ports.EventRepository using SQLite.
// Timestamps are stored in UTC so that DATETIME text compares in order.
type eventRepository struct {
	db *sql.DB
}

// newEventRepository creates a new event repository.
func newEventRepository(db *sql.DB) ports.EventRepository {
	return &eventRepository{db: db}
}

// Save appends an event to the journal.
func (r *eventRepository) Save(ctx context.Context, event *domain.BlockEvent) error {
	query := `
		INSERT INTO block_events (id, kind, occurred_at, window_from, window_to, blocked_ms, git_branch)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		string(event.Kind),
		event.OccurredAt.UTC(),
		event.From.String(),
		event.To.String(),
		event.BlockedFor.Milliseconds(),
		nullableString(event.GitBranch),
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("block event %s already recorded: %w", event.ID, err)
	}
	if err != nil {
		return fmt.Errorf("failed to save block event: %w", err)
	}

	return nil
}

// FindRecent retrieves events at or after since, newest first.
func (r *eventRepository) FindRecent(ctx context.Context, since time.Time) ([]*domain.BlockEvent, error) {
	query := `
		SELECT id, kind, occurred_at, window_from, window_to, blocked_ms, git_branch
		FROM block_events
		WHERE occurred_at >= ?
		ORDER BY occurred_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query block events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return r.scanEvents(rows)
}

// Latest returns the most recent events, newest first.
func (r *eventRepository) Latest(ctx context.Context, limit int) ([]*domain.BlockEvent, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `
		SELECT id, kind, occurred_at, window_from, window_to, blocked_ms, git_branch
		FROM block_events
		ORDER BY occurred_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query block events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return r.scanEvents(rows)
}

// GetDailyStats returns aggregated statistics for a specific date.
func (r *eventRepository) GetDailyStats(ctx context.Context, date time.Time) (*domain.DailyStats, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	query := `
		SELECT
			COUNT(CASE WHEN kind = 'started' THEN 1 END),
			COUNT(CASE WHEN kind = 'bypassed' THEN 1 END),
			COUNT(CASE WHEN kind = 'bypass_failed' THEN 1 END),
			COALESCE(SUM(CASE WHEN kind IN ('ended', 'bypassed') THEN blocked_ms END), 0)
		FROM block_events
		WHERE occurred_at >= ? AND occurred_at < ?
	`

	stats := &domain.DailyStats{
		Date: startOfDay,
	}

	var totalMs int64
	err := r.db.QueryRowContext(ctx, query, startOfDay.UTC(), endOfDay.UTC()).Scan(
		&stats.BlocksStarted,
		&stats.Bypasses,
		&stats.FailedBypasses,
		&totalMs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}

	stats.TotalBlocked = time.Duration(totalMs) * time.Millisecond

	return stats, nil
}

func (r *eventRepository) scanEvents(rows *sql.Rows) ([]*domain.BlockEvent, error) {
	var events []*domain.BlockEvent
	for rows.Next() {
		var (
			e         domain.BlockEvent
			kind      string
			from, to  string
			blockedMs int64
			branch    sql.NullString
		)
		if err := rows.Scan(&e.ID, &kind, &e.OccurredAt, &from, &to, &blockedMs, &branch); err != nil {
			return nil, fmt.Errorf("failed to scan block event: %w", err)
		}
		e.Kind = domain.EventKind(kind)
		e.From, _ = domain.ParseTimeOfDay(from)
		e.To, _ = domain.ParseTimeOfDay(to)
		e.BlockedFor = time.Duration(blockedMs) * time.Millisecond
		e.GitBranch = branch.String
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate block events: %w", err)
	}
	return events, nil
}

// nullableString returns nil for an empty string.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
