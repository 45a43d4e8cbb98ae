package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/xvierd/focusgate/internal/adapters/console"
	"github.com/xvierd/focusgate/internal/adapters/git"
	"github.com/xvierd/focusgate/internal/adapters/notification"
	"github.com/xvierd/focusgate/internal/adapters/settings"
	"github.com/xvierd/focusgate/internal/adapters/storage"
	"github.com/xvierd/focusgate/internal/clock"
	"github.com/xvierd/focusgate/internal/config"
	"github.com/xvierd/focusgate/internal/logger"
	"github.com/xvierd/focusgate/internal/ports"
	"github.com/xvierd/focusgate/internal/scheduler"
	"github.com/xvierd/focusgate/internal/services"
)

// appDeps groups all service-layer dependencies initialized at startup.
type appDeps struct {
	config    *config.Config
	log       zerolog.Logger
	logCloser io.Closer
	settings  *settings.Store
	storage   ports.Storage
	state     *services.StateService
	git       ports.GitDetector
	notifier  *notification.Notifier
	clock     clock.Clock
}

// app holds all initialized service dependencies.
// Populated by initializeServices() and accessible to all commands.
var app appDeps

// appClock is the wall clock every command reads. Tests replace it.
var appClock clock.Clock = clock.Real{}

// initializeServices sets up all the required services and adapters.
func initializeServices(cmd *cobra.Command) error {
	if err := cleanupServices(); err != nil {
		return err
	}
	var err error
	app.clock = appClock

	app.config, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var consoleLog io.Writer
	if verbose && !(isRunCommand(cmd) && useTUI()) {
		consoleLog = os.Stderr
	}
	app.log, app.logCloser, err = logger.New(logger.Options{
		Dir:     app.config.Storage.DataDir,
		Level:   app.config.Log.Level,
		Console: consoleLog,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.settings = settings.New(configPath, app.log)
	app.notifier = notification.New(&app.config.Notifications)

	db := dbPath
	if db == "" {
		db = config.GetDBPath(app.config)
	}
	if err := os.MkdirAll(filepath.Dir(db), 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	app.storage, err = storage.New(db)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	app.git = git.NewDetector()
	app.state = services.NewStateService(app.settings, app.storage.Events(), app.clock)

	app.log.Debug().
		Str("command", cmd.Name()).
		Str("db", db).
		Msg("services initialized")
	return nil
}

// cleanupServices closes all resources.
func cleanupServices() error {
	var err error
	if app.storage != nil {
		err = app.storage.Close()
		app.storage = nil
	}
	if app.logCloser != nil {
		_ = app.logCloser.Close()
		app.logCloser = nil
	}
	return err
}

// historyRepository returns the journal the running session writes to, or
// nil when history is turned off.
func historyRepository() ports.EventRepository {
	if !app.config.Storage.History {
		return nil
	}
	return app.storage.Events()
}

// oneShotSession builds a block session over the persisted record for a
// single command. It has already run its first check, so its rules see
// the same state an interactive session would. It never journals; the
// running blocker owns the history.
func oneShotSession(ctx context.Context) (*services.BlockSession, error) {
	session := services.NewBlockSession(
		app.settings,
		console.NewQuiet(),
		scheduler.NewManual(nil),
		app.clock,
		services.BlockSessionOptions{
			SettleDelay: app.config.UI.SettleDelay,
			Logger:      app.log,
		},
	)
	if err := session.OnReady(ctx); err != nil {
		return nil, fmt.Errorf("failed to check block state: %w", err)
	}
	return session, nil
}

// setupSignalHandler sets up a context that cancels on interrupt signals.
func setupSignalHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
