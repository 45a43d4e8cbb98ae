package ports

import (
	"time"

	"github.com/xvierd/focusgate/internal/domain"
)

// SurfaceHandle identifies a presented blocking surface. Zero means none.
type SurfaceHandle int

// SurfaceSpec is the payload of a blocking surface. Modal surfaces absorb
// all input except the bypass action; a surface that is not Dismissable
// ignores close requests.
type SurfaceSpec struct {
	Countdown    domain.Countdown
	HasBypassPIN bool
	Modal        bool
	Dismissable  bool
}

// Host renders what the block session asks for. The session never draws
// anything itself.
// This is a driven port (implemented by the TUI and console adapters).
type Host interface {
	// PresentBlockingSurface shows the blocking surface and returns its
	// handle. It is called once per block.
	PresentBlockingSurface(spec SurfaceSpec) SurfaceHandle

	// UpdateBlockingSurface refreshes a presented surface. A hidden
	// surface stays hidden.
	UpdateBlockingSurface(h SurfaceHandle, spec SurfaceSpec)

	// HideBlockingSurface takes a presented surface off screen while the
	// block stays in force. The host keeps refusing to quit until the
	// surface is dismissed.
	HideBlockingSurface(h SurfaceHandle)

	// ShowBlockingSurface puts a hidden surface back on screen.
	ShowBlockingSurface(h SurfaceHandle, spec SurfaceSpec)

	// DismissBlockingSurface ends a presented surface and closes any open
	// bypass prompt with it.
	DismissBlockingSurface(h SurfaceHandle)

	// PresentBypassPrompt asks the user for the bypass PIN. It returns at
	// once; the entry is reported later through SubmitBypass or CancelBypass.
	PresentBypassPrompt()

	// Notify shows a transient message.
	Notify(message string, timeout time.Duration)
}
