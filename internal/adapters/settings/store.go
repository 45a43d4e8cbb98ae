// Package settings adapts the TOML config file to the SettingsStore port.
package settings

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/xvierd/focusgate/internal/config"
	"github.com/xvierd/focusgate/internal/domain"
	"github.com/xvierd/focusgate/internal/ports"
)

// Store persists the block record inside the config file. Every call
// re-reads the file; nothing is cached.
type Store struct {
	path string
	log  zerolog.Logger
}

// New creates a store for the config file at path. An empty path means
// the default location.
func New(path string, logger zerolog.Logger) *Store {
	return &Store{
		path: path,
		log:  logger.With().Str("component", "settings").Logger(),
	}
}

// Load reads the whole block record. Malformed window boundaries have
// already been replaced by their defaults; that is logged, not returned.
func (s *Store) Load(ctx context.Context) (domain.BlockConfig, error) {
	cfg, err := config.Load(s.path)
	if err != nil {
		return domain.BlockConfig{}, fmt.Errorf("failed to load block config: %w", err)
	}
	for _, key := range cfg.Repaired {
		s.log.Warn().Str("key", key).Err(domain.ErrConfigInvalid).Msg("using default")
	}
	block, repaired := cfg.Block.ToDomain().Normalize()
	if repaired {
		s.log.Warn().Err(domain.ErrConfigInvalid).Msg("block window normalized")
	}
	return block, nil
}

// Save loads the whole file, replaces the block record and writes the
// whole file back.
func (s *Store) Save(ctx context.Context, block domain.BlockConfig) error {
	cfg, err := config.Load(s.path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Block = config.BlockFromDomain(block)
	if err := config.Save(s.path, cfg); err != nil {
		return fmt.Errorf("failed to save block config: %w", err)
	}
	s.log.Debug().
		Bool("enabled", block.Enabled).
		Str("window", block.Window()).
		Bool("pin", block.HasBypassPIN()).
		Msg("block config saved")
	return nil
}

// Watch calls onChange after every write to the config file, including
// the store's own writes.
func (s *Store) Watch(onChange func()) error {
	return config.Watch(s.path, func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		s.log.Debug().Str("file", e.Name).Str("op", e.Op.String()).Msg("config changed")
		onChange()
	})
}

var _ ports.SettingsStore = (*Store)(nil)
