package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// ErrUnknownKey is returned by SetValue for keys it does not manage.
var ErrUnknownKey = errors.New("unknown config key")

// setters maps each plain settings key to a function applying a raw value.
// Block window keys are not here; they go through the block session so
// that its rules apply.
var setters = map[string]func(c *Config, raw string) error{
	"notifications.enabled": boolSetter(func(c *Config) *bool { return &c.Notifications.Enabled }),
	"notifications.sound":   boolSetter(func(c *Config) *bool { return &c.Notifications.Sound }),
	"mcp.enabled":           boolSetter(func(c *Config) *bool { return &c.MCP.Enabled }),
	"storage.history":       boolSetter(func(c *Config) *bool { return &c.Storage.History }),
	"storage.data_dir":      stringSetter(func(c *Config) *string { return &c.Storage.DataDir }),
	"log.level":             stringSetter(func(c *Config) *string { return &c.Log.Level }),
	"ui.settle_delay": func(c *Config, raw string) error {
		d, err := cast.ToDurationE(raw)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid duration %q", raw)
		}
		c.UI.SettleDelay = d
		return nil
	},
	"theme.color_block":    stringSetter(func(c *Config) *string { return &c.Theme.ColorBlock }),
	"theme.color_idle":     stringSetter(func(c *Config) *string { return &c.Theme.ColorIdle }),
	"theme.color_prompt":   stringSetter(func(c *Config) *string { return &c.Theme.ColorPrompt }),
	"theme.color_title":    stringSetter(func(c *Config) *string { return &c.Theme.ColorTitle }),
	"theme.color_help":     stringSetter(func(c *Config) *string { return &c.Theme.ColorHelp }),
	"theme.gradient_start": stringSetter(func(c *Config) *string { return &c.Theme.GradientStart }),
	"theme.gradient_end":   stringSetter(func(c *Config) *string { return &c.Theme.GradientEnd }),
	"theme.icon_app":       stringSetter(func(c *Config) *string { return &c.Theme.IconApp }),
	"theme.icon_lock":      stringSetter(func(c *Config) *string { return &c.Theme.IconLock }),
	"theme.icon_git":       stringSetter(func(c *Config) *string { return &c.Theme.IconGit }),
}

func boolSetter(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, raw string) error {
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", raw)
		}
		*field(c) = b
		return nil
	}
}

func stringSetter(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, raw string) error {
		*field(c) = raw
		return nil
	}
}

// SettableKeys returns the keys SetValue accepts, sorted.
func SettableKeys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetValue loads the config at path, applies one key and writes the whole
// file back.
func SetValue(path, key, raw string) error {
	set, ok := setters[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	if err := set(cfg, raw); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return Save(path, cfg)
}

// Values returns every key of cfg in its flat "section.key" form. The
// bypass PIN is masked.
func Values(cfg *Config) map[string]string {
	pin := ""
	if cfg.Block.BypassPIN != "" {
		pin = "****"
	}
	return map[string]string{
		"block.enabled":         cast.ToString(cfg.Block.Enabled),
		"block.from_time":       cfg.Block.ToDomain().From.String(),
		"block.to_time":         cfg.Block.ToDomain().To.String(),
		"block.bypass_pin":      pin,
		"notifications.enabled": cast.ToString(cfg.Notifications.Enabled),
		"notifications.sound":   cast.ToString(cfg.Notifications.Sound),
		"mcp.enabled":           cast.ToString(cfg.MCP.Enabled),
		"storage.history":       cast.ToString(cfg.Storage.History),
		"storage.data_dir":      cfg.Storage.DataDir,
		"log.level":             cfg.Log.Level,
		"ui.settle_delay":       cfg.UI.SettleDelay.String(),
		"theme.color_block":     cfg.Theme.ColorBlock,
		"theme.color_idle":      cfg.Theme.ColorIdle,
		"theme.color_prompt":    cfg.Theme.ColorPrompt,
		"theme.color_title":     cfg.Theme.ColorTitle,
		"theme.color_help":      cfg.Theme.ColorHelp,
		"theme.gradient_start":  cfg.Theme.GradientStart,
		"theme.gradient_end":    cfg.Theme.GradientEnd,
		"theme.icon_app":        cfg.Theme.IconApp,
		"theme.icon_lock":       cfg.Theme.IconLock,
		"theme.icon_git":        cfg.Theme.IconGit,
	}
}
