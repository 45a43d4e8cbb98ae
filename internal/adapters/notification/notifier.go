// Package notification provides desktop notification utilities.
package notification

import (
	"time"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"

	"github.com/xvierd/focusgate/internal/config"
	"github.com/xvierd/focusgate/internal/domain"
	"github.com/xvierd/focusgate/internal/ports"
)

const appTitle = "focusgate"

// Notifier handles desktop notifications.
type Notifier struct {
	cfg  *config.NotificationConfig
	send func(title, message string) error
	beep func() error
}

// New creates a new notifier with the given configuration.
func New(cfg *config.NotificationConfig) *Notifier {
	return &Notifier{
		cfg:  cfg,
		send: func(title, message string) error { return beeep.Notify(title, message, "") },
		beep: func() error { return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration) },
	}
}

// Notify displays a desktop notification if enabled.
func (n *Notifier) Notify(title, message string) error {
	if !n.IsEnabled() {
		return nil
	}
	if n.cfg.Sound {
		_ = n.beep()
	}
	return n.send(title, message)
}

// NotifyBlockStarted announces a new block with its end time.
func (n *Notifier) NotifyBlockStarted(c domain.Countdown) error {
	return n.Notify("⛔ Focus block started", c.Line())
}

// IsEnabled returns true if notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	return n.cfg != nil && n.cfg.Enabled
}

// Host decorates a ports.Host with desktop notifications. Block starts and
// long-lived notices are mirrored to the desktop; short notices stay in
// the host only.
type Host struct {
	ports.Host
	notifier *Notifier
	log      zerolog.Logger
}

// WrapHost returns h with desktop notifications from n.
func WrapHost(h ports.Host, n *Notifier, logger zerolog.Logger) *Host {
	return &Host{Host: h, notifier: n, log: logger}
}

// PresentBlockingSurface presents the surface and announces the block.
// A surface brought back after a closed PIN prompt goes through
// ShowBlockingSurface and is not announced again.
func (h *Host) PresentBlockingSurface(spec ports.SurfaceSpec) ports.SurfaceHandle {
	id := h.Host.PresentBlockingSurface(spec)
	if err := h.notifier.NotifyBlockStarted(spec.Countdown); err != nil {
		h.log.Warn().Err(err).Msg("desktop notification failed")
	}
	return id
}

// Notify shows message in the host and, for announcements, on the desktop.
func (h *Host) Notify(message string, timeout time.Duration) {
	h.Host.Notify(message, timeout)
	if timeout < domain.AnnounceTimeout {
		return
	}
	if err := h.notifier.Notify(appTitle, message); err != nil {
		h.log.Warn().Err(err).Msg("desktop notification failed")
	}
}

var _ ports.Host = (*Host)(nil)
