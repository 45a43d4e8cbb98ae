package domain

import "fmt"

// MinPINLength is the shortest bypass PIN accepted.
const MinPINLength = 4

// BlockConfig is the persisted block configuration record. It is always
// read and written as a whole.
type BlockConfig struct {
	Enabled   bool
	From      TimeOfDay
	To        TimeOfDay
	BypassPIN string
}

// DefaultBlockConfig returns the record written on first access.
func DefaultBlockConfig() BlockConfig {
	return BlockConfig{
		Enabled: false,
		From:    DefaultFromTime,
		To:      DefaultToTime,
	}
}

// HasBypassPIN reports whether a bypass PIN is configured.
func (c BlockConfig) HasBypassPIN() bool {
	return c.BypassPIN != ""
}

// Normalize replaces an invalid From or To with its default and reports
// whether anything was replaced.
func (c BlockConfig) Normalize() (BlockConfig, bool) {
	repaired := false
	if !c.From.Valid() {
		c.From = DefaultFromTime
		repaired = true
	}
	if !c.To.Valid() {
		c.To = DefaultToTime
		repaired = true
	}
	return c, repaired
}

// Window formats the configured window as "HH:MM–HH:MM".
func (c BlockConfig) Window() string {
	return fmt.Sprintf("%s–%s", c.From, c.To)
}

// Contains reports whether now falls inside the configured window.
func (c BlockConfig) Contains(now TimeOfDay) bool {
	return IsWithinWindow(now, c.From, c.To)
}

// ValidatePIN checks a candidate bypass PIN.
func ValidatePIN(pin string) error {
	if len(pin) < MinPINLength {
		return ErrPinTooShort
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return ErrPinNotNumeric
		}
	}
	return nil
}
