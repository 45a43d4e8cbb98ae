package ports

import (
	"context"
	"time"

	"github.com/xvierd/focusgate/internal/domain"
)

// MCPHandler defines the interface for MCP server operations.
// This is a driving port (called by the application layer).
type MCPHandler interface {
	// Start begins serving MCP requests.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the server.
	Stop() error

	// IsRunning returns true if the server is active.
	IsRunning() bool
}

// BlockStateProvider provides block state to read-only surfaces.
// This is a driven port (implemented by services layer).
type BlockStateProvider interface {
	// GetStatus returns the current block status.
	GetStatus(ctx context.Context) (*domain.Status, error)

	// GetRecentEvents returns the newest block events.
	GetRecentEvents(ctx context.Context, limit int) ([]*domain.BlockEvent, error)

	// GetDailyStats returns block statistics for a date.
	GetDailyStats(ctx context.Context, date time.Time) (*domain.DailyStats, error)
}
