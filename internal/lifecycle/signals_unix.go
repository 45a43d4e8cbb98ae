//go:build !windows

package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
)

// WatchSignals maps SIGTSTP to hooks.Suspend and SIGCONT to hooks.Resume
// until ctx is cancelled. After Suspend the process stops itself, as the
// default SIGTSTP action would have.
func WatchSignals(ctx context.Context, hooks Hooks, logger zerolog.Logger) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGTSTP, syscall.SIGCONT)
	defer signal.Stop(sigs)

	log := logger.With().Str("component", "signals").Logger()
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			switch sig {
			case syscall.SIGTSTP:
				log.Debug().Msg("suspend")
				hooks.suspend()
				_ = syscall.Kill(os.Getpid(), syscall.SIGSTOP)
			case syscall.SIGCONT:
				log.Debug().Msg("resume")
				hooks.resume()
			}
		}
	}
}
