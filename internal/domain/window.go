package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// TickInterval is how often an armed session re-evaluates the window.
	TickInterval = 60 * time.Second

	// MaxSaneElapsed is the largest gap between two checks that is trusted.
	// Anything longer is treated as a clock jump (device sleep, suspend).
	MaxSaneElapsed = 300 * time.Second
)

// TimeOfDay is a wall-clock hour and minute without a date.
type TimeOfDay struct {
	Hour int
	Min  int
}

// DefaultFromTime and DefaultToTime are used whenever a configured
// window boundary is missing or malformed.
var (
	DefaultFromTime = TimeOfDay{Hour: 6, Min: 0}
	DefaultToTime   = TimeOfDay{Hour: 19, Min: 0}
)

// TimeOfDayFrom extracts the hour and minute of t in its own location.
func TimeOfDayFrom(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Min: t.Minute()}
}

// ParseTimeOfDay parses "HH:MM" or "H:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("%w: %q is not HH:MM", ErrConfigInvalid, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: bad hour in %q", ErrConfigInvalid, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: bad minute in %q", ErrConfigInvalid, s)
	}
	t := TimeOfDay{Hour: hour, Min: minute}
	if !t.Valid() {
		return TimeOfDay{}, fmt.Errorf("%w: %q is out of range", ErrConfigInvalid, s)
	}
	return t, nil
}

// Valid reports whether the hour is 0-23 and the minute is 0-59.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Min >= 0 && t.Min <= 59
}

// Minutes returns the number of minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Min
}

// String formats the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Min)
}

// IsWithinWindow reports whether now lies in the half-open window [from, to).
// The end minute itself is outside the window. Windows that wrap past
// midnight (from > to) are not special-cased and never match.
func IsWithinWindow(now, from, to TimeOfDay) bool {
	nowMins := now.Minutes()
	return from.Minutes() <= nowMins && nowMins < to.Minutes()
}

// RemainingMinutes returns the time left until to, split into whole hours
// and remainder minutes. It is (0, 0) once the window end has been reached.
func RemainingMinutes(now, to TimeOfDay) (hours, minutes int) {
	diff := to.Minutes() - now.Minutes()
	if diff <= 0 {
		return 0, 0
	}
	return diff / 60, diff % 60
}

// ElapsedSinceLastCheck returns now - last, or zero when the gap exceeds
// MaxSaneElapsed.
func ElapsedSinceLastCheck(now, last time.Time) time.Duration {
	elapsed := now.Sub(last)
	if elapsed > MaxSaneElapsed {
		return 0
	}
	return elapsed
}

// Countdown is the remaining-time payload shown on the blocking surface.
type Countdown struct {
	Hours   int
	Minutes int
	EndTime string
}

// NewCountdown derives the countdown for a window ending at to.
func NewCountdown(now, to TimeOfDay) Countdown {
	h, m := RemainingMinutes(now, to)
	return Countdown{Hours: h, Minutes: m, EndTime: to.String()}
}

// Text returns "{h}h {m}m remaining", or "{m}m remaining" under an hour.
func (c Countdown) Text() string {
	return FormatRemaining(c.Hours, c.Minutes)
}

// Line composes the end time with the remaining text.
func (c Countdown) Line() string {
	return fmt.Sprintf("Blocked until %s · %s", c.EndTime, c.Text())
}

// FormatRemaining renders a remaining duration the way the surface shows it.
func FormatRemaining(hours, minutes int) string {
	if hours > 0 {
		return fmt.Sprintf("%dh %dm remaining", hours, minutes)
	}
	return fmt.Sprintf("%dm remaining", minutes)
}
