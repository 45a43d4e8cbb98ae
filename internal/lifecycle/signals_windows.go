//go:build windows

package lifecycle

import (
	"context"

	"github.com/rs/zerolog"
)

// WatchSignals blocks until ctx is cancelled. Windows has no job-control
// signals; sleep is still caught by the WakeWatcher.
func WatchSignals(ctx context.Context, hooks Hooks, logger zerolog.Logger) {
	<-ctx.Done()
}
