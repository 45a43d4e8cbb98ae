package ports

import (
	"context"

	"github.com/xvierd/focusgate/internal/domain"
)

// SessionActions is what an interactive host may ask of a running block
// session. Implementations must be safe to call from any goroutine.
// This is a driving port (called by the TUI and console adapters).
type SessionActions interface {
	RequestBypass(ctx context.Context) error
	SubmitBypass(ctx context.Context, pin string) error
	CancelBypass(ctx context.Context) error

	SetEnabled(ctx context.Context, enabled bool) error
	SetFromTime(ctx context.Context, from domain.TimeOfDay) error
	SetToTime(ctx context.Context, to domain.TimeOfDay) error
	SetBypassPIN(ctx context.Context, pin string) error
	ClearBypassPIN(ctx context.Context) error

	Snapshot(ctx context.Context) (*domain.Status, error)
}
