// Package lifecycle turns process and machine lifecycle events into block
// session hooks: SIGTSTP/SIGCONT and wall-clock gaps left by sleep.
package lifecycle

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/xvierd/focusgate/internal/clock"
)

// DefaultWakeInterval is how often the wake watcher samples the clock.
const DefaultWakeInterval = 15 * time.Second

// Hooks receives lifecycle notifications. Nil hooks are skipped.
type Hooks struct {
	Suspend func()
	Resume  func()
}

func (h Hooks) suspend() {
	if h.Suspend != nil {
		h.Suspend()
	}
}

func (h Hooks) resume() {
	if h.Resume != nil {
		h.Resume()
	}
}

// WakeWatcher detects that the machine slept by watching for wall-clock
// gaps much longer than its sampling interval.
type WakeWatcher struct {
	clock    clock.Clock
	interval time.Duration
	last     time.Time
	log      zerolog.Logger
}

// NewWakeWatcher creates a watcher sampling every interval.
func NewWakeWatcher(clk clock.Clock, interval time.Duration, logger zerolog.Logger) *WakeWatcher {
	if interval <= 0 {
		interval = DefaultWakeInterval
	}
	return &WakeWatcher{
		clock:    clk,
		interval: interval,
		last:     clk.Now(),
		log:      logger.With().Str("component", "wake").Logger(),
	}
}

// Sample records the current time and reports the gap since the previous
// sample when it exceeds twice the interval. Backward jumps count too.
func (w *WakeWatcher) Sample() (time.Duration, bool) {
	now := w.clock.Now()
	gap := now.Sub(w.last)
	w.last = now
	if gap > 2*w.interval || gap < 0 {
		return gap, true
	}
	return gap, false
}

// Run samples the clock until ctx is cancelled and calls hooks.Resume
// after each detected gap.
func (w *WakeWatcher) Run(ctx context.Context, hooks Hooks) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if gap, woke := w.Sample(); woke {
				w.log.Info().Dur("gap", gap).Msg("wake detected")
				hooks.resume()
			}
		}
	}
}
