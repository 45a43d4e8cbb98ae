package domain

import (
	"time"
)

// MenuState tells the host which settings actions are currently enabled.
type MenuState struct {
	EnabledToggle bool
	FromTime      bool
	ToTime        bool
	PINSetter     bool
	PINClear      bool
}

// NewMenuState derives the enabled actions for a session state and config.
// Window and toggle edits are locked during a block; the PIN setter stays
// available only while no PIN exists, so a blocked user cannot install an
// override of their own.
func NewMenuState(state SessionState, cfg BlockConfig) MenuState {
	blocking := state.IsBlocking()
	return MenuState{
		EnabledToggle: !blocking,
		FromTime:      !blocking,
		ToTime:        !blocking,
		PINSetter:     !blocking || !cfg.HasBypassPIN(),
		PINClear:      !blocking && cfg.HasBypassPIN(),
	}
}

// Status captures everything a host needs to render the current state.
type Status struct {
	Timestamp    time.Time
	State        SessionState
	Enabled      bool
	From         TimeOfDay
	To           TimeOfDay
	HasBypassPIN bool
	InWindow     bool
	Bypassed     bool
	Countdown    *Countdown
	LastCheck    time.Time
	BlockedFor   time.Duration
	Menu         MenuState
}

// NewStatus builds a status snapshot. The countdown is only set while a
// block is in force.
func NewStatus(state SessionState, cfg BlockConfig, now time.Time) *Status {
	tod := TimeOfDayFrom(now)
	st := &Status{
		Timestamp:    now,
		State:        state,
		Enabled:      cfg.Enabled,
		From:         cfg.From,
		To:           cfg.To,
		HasBypassPIN: cfg.HasBypassPIN(),
		InWindow:     cfg.Contains(tod),
		Menu:         NewMenuState(state, cfg),
	}
	if state.IsBlocking() {
		c := NewCountdown(tod, cfg.To)
		st.Countdown = &c
	}
	return st
}

// IsBlocking reports whether the snapshot was taken during a block.
func (s *Status) IsBlocking() bool {
	return s.State.IsBlocking()
}

// WindowProgress returns how far through the window now is (0.0 to 1.0).
func (s *Status) WindowProgress() float64 {
	span := s.To.Minutes() - s.From.Minutes()
	if span <= 0 {
		return 0
	}
	done := TimeOfDayFrom(s.Timestamp).Minutes() - s.From.Minutes()
	progress := float64(done) / float64(span)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}
