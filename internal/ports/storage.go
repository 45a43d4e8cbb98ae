// Package ports defines the interfaces (driven and driving ports)
// for focusgate following hexagonal architecture principles.
// These interfaces define the contracts between the block session and
// external infrastructure.
package ports

import (
	"context"
	"time"

	"github.com/xvierd/focusgate/internal/domain"
)

// SettingsStore persists the block configuration record.
// This is a driven port (implemented by adapters).
type SettingsStore interface {
	// Load reads the whole record. Missing or malformed window
	// boundaries come back as their defaults.
	Load(ctx context.Context) (domain.BlockConfig, error)

	// Save writes the whole record back.
	Save(ctx context.Context, cfg domain.BlockConfig) error
}

// EventRepository defines the interface for block history persistence.
// This is a driven port (implemented by adapters).
type EventRepository interface {
	// Save appends an event to the journal.
	Save(ctx context.Context, event *domain.BlockEvent) error

	// FindRecent retrieves events that occurred at or after since, newest first.
	FindRecent(ctx context.Context, since time.Time) ([]*domain.BlockEvent, error)

	// Latest returns the most recent events, newest first.
	Latest(ctx context.Context, limit int) ([]*domain.BlockEvent, error)

	// GetDailyStats returns aggregated statistics for a specific date.
	GetDailyStats(ctx context.Context, date time.Time) (*domain.DailyStats, error)
}

// Storage is the combined repository interface.
// This is a driven port (implemented by adapters).
type Storage interface {
	// Events provides access to the block history.
	Events() EventRepository

	// Close closes the storage connection.
	Close() error

	// Migrate runs database migrations.
	Migrate() error
}
