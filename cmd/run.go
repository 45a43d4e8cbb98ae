package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/xvierd/focusgate/internal/adapters/console"
	"github.com/xvierd/focusgate/internal/adapters/notification"
	"github.com/xvierd/focusgate/internal/adapters/tui"
	"github.com/xvierd/focusgate/internal/lifecycle"
	"github.com/xvierd/focusgate/internal/ports"
	"github.com/xvierd/focusgate/internal/scheduler"
	"github.com/xvierd/focusgate/internal/services"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the blocker",
	Long: `Start the blocker in the foreground. During the configured window a
blocking screen covers the terminal until the window ends or the bypass PIN
is entered. Outside the window the settings menu is shown.

Without a terminal, or with --plain, the blocker prints one line per change
and reads commands from stdin: "b" to bypass, "q" to quit.`,
	Args: cobra.NoArgs,
	RunE: runBlocker,
}

func isRunCommand(cmd *cobra.Command) bool {
	return cmd == rootCmd || cmd == runCmd
}

// useTUI reports whether the fullscreen TUI can own the terminal.
func useTUI() bool {
	if plainMode {
		return false
	}
	return term.IsTerminal(os.Stdin.Fd()) && term.IsTerminal(os.Stdout.Fd())
}

func runBlocker(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	workingDir, _ := os.Getwd()
	log := app.log.With().Str("component", "run").Logger()

	var (
		tuiHost *tui.Host
		conHost *console.Host
		base    ports.Host
	)
	interactive := useTUI()
	if interactive {
		tuiHost = tui.NewHost()
		base = tuiHost
	} else {
		conHost = console.New(cmd.OutOrStdout(), console.Options{})
		base = conHost
	}
	host := notification.WrapHost(base, app.notifier, app.log)

	loop := scheduler.NewLoop(app.log)
	session := services.NewBlockSession(app.settings, host, loop, app.clock, services.BlockSessionOptions{
		Events:      historyRepository(),
		Git:         app.git,
		WorkingDir:  workingDir,
		SettleDelay: app.config.UI.SettleDelay,
		Logger:      app.log,
	})
	ctrl := services.NewController(session, loop)

	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(ctx) }()

	hooks := lifecycle.Hooks{
		Suspend: func() {
			if err := ctrl.Suspend(ctx); err != nil {
				log.Debug().Err(err).Msg("suspend skipped")
			}
		},
		Resume: func() {
			if err := ctrl.Resume(ctx); err != nil {
				log.Debug().Err(err).Msg("resume skipped")
			}
		},
	}
	go lifecycle.WatchSignals(ctx, hooks, app.log)
	go lifecycle.NewWakeWatcher(app.clock, lifecycle.DefaultWakeInterval, app.log).Run(ctx, hooks)

	if err := app.settings.Watch(func() { ctrl.ConfigChanged(ctx) }); err != nil {
		log.Warn().Err(err).Msg("config changes will not be picked up until restart")
	}

	ready := func() {
		if err := ctrl.Ready(ctx); err != nil {
			log.Error().Err(err).Msg("first check failed")
		}
	}

	log.Info().Bool("tui", interactive).Msg("blocker started")

	var err error
	if interactive {
		err = tui.Run(ctx, tuiHost, tui.NewModel(ctx, ctrl, app.clock, &app.config.Theme), ready)
	} else {
		err = runConsole(ctx, cmd, conHost, ctrl, ready)
	}

	cancel()
	if loopErr := <-loopDone; loopErr != nil && !errors.Is(loopErr, context.Canceled) {
		log.Warn().Err(loopErr).Msg("event loop stopped")
	}
	log.Info().Msg("blocker stopped")
	return err
}

func runConsole(ctx context.Context, cmd *cobra.Command, host *console.Host, actions ports.SessionActions, ready func()) error {
	fmt.Fprintln(cmd.OutOrStdout(), "focusgate running. Type b to bypass a block, q to quit.")
	ready()

	err := host.ReadInput(ctx, cmd.InOrStdin(), actions)
	switch {
	case errors.Is(err, console.ErrQuit), errors.Is(err, context.Canceled):
		return nil
	case err != nil:
		return err
	}

	// stdin closed; keep blocking until interrupted.
	<-ctx.Done()
	return nil
}
