package domain

import "time"

// SessionState is the state of the block session state machine.
type SessionState string

const (
	StateIdle         SessionState = "idle"
	StateBlocking     SessionState = "blocking"
	StateBypassPrompt SessionState = "bypass_prompt"
)

// IsBlocking reports whether a block is in force. The bypass prompt is
// still part of the block: it is shown instead of the blocking surface.
func (s SessionState) IsBlocking() bool {
	return s == StateBlocking || s == StateBypassPrompt
}

// Label returns a human-readable label for the state.
func (s SessionState) Label() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateBlocking:
		return "Blocking"
	case StateBypassPrompt:
		return "Awaiting PIN"
	default:
		return "Unknown"
	}
}

const (
	// NotifyTimeout is how long rejections and short notices stay visible.
	NotifyTimeout = 3 * time.Second

	// AnnounceTimeout is used for notices worth mirroring to the desktop.
	AnnounceTimeout = 5 * time.Second

	// DefaultSettleDelay is the pause before the blocking surface is shown
	// again after a closed bypass prompt, so slow displays finish redrawing.
	DefaultSettleDelay = time.Second
)

// User-facing notification texts.
const (
	MsgBlockEnded     = "Block ended"
	MsgBypassAccepted = "Block bypassed"
	MsgIncorrectPIN   = "Incorrect PIN"
	MsgBlockActive    = "A block is active"
)
