package services

import (
	"context"

	"github.com/xvierd/focusgate/internal/domain"
	"github.com/xvierd/focusgate/internal/ports"
)

// Controller hands user and lifecycle actions from other goroutines to the
// event loop that owns the BlockSession. Every method blocks until the
// loop has run the action.
type Controller struct {
	session    *BlockSession
	dispatcher ports.Dispatcher
}

// NewController creates a controller for session running on dispatcher.
func NewController(session *BlockSession, dispatcher ports.Dispatcher) *Controller {
	return &Controller{session: session, dispatcher: dispatcher}
}

func (c *Controller) do(ctx context.Context, fn func(context.Context) error) error {
	var err error
	if callErr := c.dispatcher.Call(ctx, func() { err = fn(ctx) }); callErr != nil {
		return callErr
	}
	return err
}

// Ready runs the first check.
func (c *Controller) Ready(ctx context.Context) error {
	return c.do(ctx, c.session.OnReady)
}

// Resume re-checks after a wake-up.
func (c *Controller) Resume(ctx context.Context) error {
	return c.do(ctx, c.session.OnResume)
}

// Suspend stops the session timers.
func (c *Controller) Suspend(ctx context.Context) error {
	return c.do(ctx, func(ctx context.Context) error {
		c.session.OnSuspend(ctx)
		return nil
	})
}

// ConfigChanged re-checks after the settings file changed on disk. It does
// not wait for the loop.
func (c *Controller) ConfigChanged(ctx context.Context) {
	c.dispatcher.Post(func() { _ = c.session.OnConfigChanged(ctx) })
}

// RequestBypass opens the PIN prompt.
func (c *Controller) RequestBypass(ctx context.Context) error {
	return c.do(ctx, c.session.RequestBypass)
}

// SubmitBypass checks an entered PIN.
func (c *Controller) SubmitBypass(ctx context.Context, pin string) error {
	return c.do(ctx, func(ctx context.Context) error {
		return c.session.SubmitBypass(ctx, pin)
	})
}

// CancelBypass closes the PIN prompt without bypassing.
func (c *Controller) CancelBypass(ctx context.Context) error {
	return c.do(ctx, c.session.CancelBypass)
}

// SetEnabled turns blocking on or off.
func (c *Controller) SetEnabled(ctx context.Context, enabled bool) error {
	return c.do(ctx, func(ctx context.Context) error {
		return c.session.SetEnabled(ctx, enabled)
	})
}

// SetFromTime replaces the window start.
func (c *Controller) SetFromTime(ctx context.Context, from domain.TimeOfDay) error {
	return c.do(ctx, func(ctx context.Context) error {
		return c.session.SetFromTime(ctx, from)
	})
}

// SetToTime replaces the window end.
func (c *Controller) SetToTime(ctx context.Context, to domain.TimeOfDay) error {
	return c.do(ctx, func(ctx context.Context) error {
		return c.session.SetToTime(ctx, to)
	})
}

// SetWindow replaces both window boundaries.
func (c *Controller) SetWindow(ctx context.Context, from, to domain.TimeOfDay) error {
	return c.do(ctx, func(ctx context.Context) error {
		return c.session.SetWindow(ctx, from, to)
	})
}

// SetBypassPIN stores a new PIN.
func (c *Controller) SetBypassPIN(ctx context.Context, pin string) error {
	return c.do(ctx, func(ctx context.Context) error {
		return c.session.SetBypassPIN(ctx, pin)
	})
}

// ClearBypassPIN removes the PIN.
func (c *Controller) ClearBypassPIN(ctx context.Context) error {
	return c.do(ctx, c.session.ClearBypassPIN)
}

// Snapshot returns the session status as seen from the loop.
func (c *Controller) Snapshot(ctx context.Context) (*domain.Status, error) {
	var st *domain.Status
	err := c.do(ctx, func(ctx context.Context) error {
		var err error
		st, err = c.session.Snapshot(ctx)
		return err
	})
	return st, err
}

// Ensure Controller implements SessionActions.
var _ ports.SessionActions = (*Controller)(nil)
