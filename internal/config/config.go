// Package config provides configuration management for focusgate.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/xvierd/focusgate/internal/domain"
)

// Config holds all configuration for focusgate.
type Config struct {
	Block         BlockConfig        `mapstructure:"block"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	MCP           MCPConfig          `mapstructure:"mcp"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Log           LogConfig          `mapstructure:"log"`
	UI            UIConfig           `mapstructure:"ui"`
	Theme         ThemeConfig        `mapstructure:"theme"`

	// Repaired lists the window keys that were missing or malformed on
	// load and were replaced by their defaults.
	Repaired []string `mapstructure:"-"`
}

// BlockConfig is the persisted block record.
type BlockConfig struct {
	Enabled   bool       `mapstructure:"enabled"`
	BypassPIN string     `mapstructure:"bypass_pin"`
	FromTime  TimeConfig `mapstructure:"from_time"`
	ToTime    TimeConfig `mapstructure:"to_time"`
}

// TimeConfig is an hour/minute pair as stored in TOML.
type TimeConfig struct {
	Hour int `mapstructure:"hour"`
	Min  int `mapstructure:"min"`
}

// ToDomain converts the stored record to the domain record.
func (b BlockConfig) ToDomain() domain.BlockConfig {
	return domain.BlockConfig{
		Enabled:   b.Enabled,
		From:      domain.TimeOfDay{Hour: b.FromTime.Hour, Min: b.FromTime.Min},
		To:        domain.TimeOfDay{Hour: b.ToTime.Hour, Min: b.ToTime.Min},
		BypassPIN: b.BypassPIN,
	}
}

// BlockFromDomain converts a domain record to its stored form.
func BlockFromDomain(c domain.BlockConfig) BlockConfig {
	return BlockConfig{
		Enabled:   c.Enabled,
		BypassPIN: c.BypassPIN,
		FromTime:  TimeConfig{Hour: c.From.Hour, Min: c.From.Min},
		ToTime:    TimeConfig{Hour: c.To.Hour, Min: c.To.Min},
	}
}

// NotificationConfig holds desktop notification settings.
type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Sound   bool `mapstructure:"sound"`
}

// MCPConfig holds MCP server settings.
type MCPConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
	History bool   `mapstructure:"history"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// UIConfig holds host UI settings.
type UIConfig struct {
	SettleDelay time.Duration `mapstructure:"settle_delay"`
}

// ThemeConfig holds theme customization settings (colors and icons).
type ThemeConfig struct {
	ColorBlock    string `mapstructure:"color_block"`
	ColorIdle     string `mapstructure:"color_idle"`
	ColorPrompt   string `mapstructure:"color_prompt"`
	ColorTitle    string `mapstructure:"color_title"`
	ColorHelp     string `mapstructure:"color_help"`
	GradientStart string `mapstructure:"gradient_start"`
	GradientEnd   string `mapstructure:"gradient_end"`
	IconApp       string `mapstructure:"icon_app"`
	IconLock      string `mapstructure:"icon_lock"`
	IconGit       string `mapstructure:"icon_git"`
}

// DefaultThemeConfig returns the default theme configuration.
func DefaultThemeConfig() ThemeConfig {
	return ThemeConfig{
		ColorBlock:    "#E05D5D",
		ColorIdle:     "#4ECDC4",
		ColorPrompt:   "#7C6FE0",
		ColorTitle:    "#6B7280",
		ColorHelp:     "#95A5A6",
		GradientStart: "#E05D5D",
		GradientEnd:   "#F4A261",
		IconApp:       "⛔",
		IconLock:      "🔒",
		IconGit:       "🌿",
	}
}

const defaultDataDir = "~/.focusgate"

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Block: BlockFromDomain(domain.DefaultBlockConfig()),
		Notifications: NotificationConfig{
			Enabled: true,
			Sound:   false,
		},
		MCP: MCPConfig{
			Enabled: true,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir,
			History: true,
		},
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			SettleDelay: domain.DefaultSettleDelay,
		},
		Theme: DefaultThemeConfig(),
	}
}

// Load loads the configuration from path, or from the default location
// when path is empty. A missing file is created with defaults.
func Load(path string) (*Config, error) {
	configPath, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(configPath, DefaultConfig()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	repaired := sanitizeWindow(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Repaired = repaired

	dataDir, err := expandHome(cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.Storage.DataDir = dataDir

	if cfg.UI.SettleDelay < 0 {
		cfg.UI.SettleDelay = domain.DefaultSettleDelay
	}

	return &cfg, nil
}

// Save writes the whole configuration to path, or to the default location
// when path is empty.
func Save(path string, cfg *Config) error {
	configPath, err := resolvePath(path)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	v.Set("block.enabled", cfg.Block.Enabled)
	v.Set("block.bypass_pin", cfg.Block.BypassPIN)
	v.Set("block.from_time.hour", cfg.Block.FromTime.Hour)
	v.Set("block.from_time.min", cfg.Block.FromTime.Min)
	v.Set("block.to_time.hour", cfg.Block.ToTime.Hour)
	v.Set("block.to_time.min", cfg.Block.ToTime.Min)
	v.Set("notifications.enabled", cfg.Notifications.Enabled)
	v.Set("notifications.sound", cfg.Notifications.Sound)
	v.Set("mcp.enabled", cfg.MCP.Enabled)
	v.Set("storage.data_dir", cfg.Storage.DataDir)
	v.Set("storage.history", cfg.Storage.History)
	v.Set("log.level", cfg.Log.Level)
	v.Set("ui.settle_delay", cfg.UI.SettleDelay.String())
	v.Set("theme.color_block", cfg.Theme.ColorBlock)
	v.Set("theme.color_idle", cfg.Theme.ColorIdle)
	v.Set("theme.color_prompt", cfg.Theme.ColorPrompt)
	v.Set("theme.color_title", cfg.Theme.ColorTitle)
	v.Set("theme.color_help", cfg.Theme.ColorHelp)
	v.Set("theme.gradient_start", cfg.Theme.GradientStart)
	v.Set("theme.gradient_end", cfg.Theme.GradientEnd)
	v.Set("theme.icon_app", cfg.Theme.IconApp)
	v.Set("theme.icon_lock", cfg.Theme.IconLock)
	v.Set("theme.icon_git", cfg.Theme.IconGit)

	return v.WriteConfig()
}

// Watch calls onChange whenever the file at path is written. The watch
// lasts for the life of the process.
func Watch(path string, onChange func(fsnotify.Event)) error {
	configPath, err := resolvePath(path)
	if err != nil {
		return err
	}
	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	v.OnConfigChange(onChange)
	v.WatchConfig()
	return nil
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".focusgate", "config.toml"), nil
}

// GetDBPath returns the path to the database file.
func GetDBPath(cfg *Config) string {
	return filepath.Join(cfg.Storage.DataDir, "focusgate.db")
}

func resolvePath(path string) (string, error) {
	if path != "" {
		return expandHome(path)
	}
	p, err := GetConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to get config path: %w", err)
	}
	return p, nil
}

func expandHome(p string) (string, error) {
	if p == "" {
		p = defaultDataDir
	}
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(p, "~")), nil
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	setDefaults(v)
	return v
}

// setDefaults sets default values for viper.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("block.enabled", d.Block.Enabled)
	v.SetDefault("block.bypass_pin", "")
	v.SetDefault("block.from_time.hour", d.Block.FromTime.Hour)
	v.SetDefault("block.from_time.min", d.Block.FromTime.Min)
	v.SetDefault("block.to_time.hour", d.Block.ToTime.Hour)
	v.SetDefault("block.to_time.min", d.Block.ToTime.Min)
	v.SetDefault("notifications.enabled", d.Notifications.Enabled)
	v.SetDefault("notifications.sound", d.Notifications.Sound)
	v.SetDefault("mcp.enabled", d.MCP.Enabled)
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("storage.history", d.Storage.History)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("ui.settle_delay", d.UI.SettleDelay.String())

	// Theme defaults
	v.SetDefault("theme.color_block", d.Theme.ColorBlock)
	v.SetDefault("theme.color_idle", d.Theme.ColorIdle)
	v.SetDefault("theme.color_prompt", d.Theme.ColorPrompt)
	v.SetDefault("theme.color_title", d.Theme.ColorTitle)
	v.SetDefault("theme.color_help", d.Theme.ColorHelp)
	v.SetDefault("theme.gradient_start", d.Theme.GradientStart)
	v.SetDefault("theme.gradient_end", d.Theme.GradientEnd)
	v.SetDefault("theme.icon_app", d.Theme.IconApp)
	v.SetDefault("theme.icon_lock", d.Theme.IconLock)
	v.SetDefault("theme.icon_git", d.Theme.IconGit)
}

// sanitizeWindow replaces a malformed from_time or to_time with its
// default before decoding, and accepts the "HH:MM" shorthand. A numeric
// bypass_pin is coerced to a string. It returns the keys it repaired.
func sanitizeWindow(v *viper.Viper) []string {
	var repaired []string

	for _, w := range []struct {
		key string
		def domain.TimeOfDay
	}{
		{"block.from_time", domain.DefaultFromTime},
		{"block.to_time", domain.DefaultToTime},
	} {
		t, ok := readTimeOfDay(v, w.key)
		if !ok {
			t = w.def
			repaired = append(repaired, w.key)
		}
		v.Set(w.key+".hour", t.Hour)
		v.Set(w.key+".min", t.Min)
	}

	if raw := v.Get("block.bypass_pin"); raw != nil {
		pin, err := cast.ToStringE(raw)
		if err != nil {
			pin = ""
			repaired = append(repaired, "block.bypass_pin")
		}
		v.Set("block.bypass_pin", pin)
	}

	return repaired
}

func readTimeOfDay(v *viper.Viper, key string) (domain.TimeOfDay, bool) {
	if s, ok := v.Get(key).(string); ok {
		t, err := domain.ParseTimeOfDay(s)
		return t, err == nil
	}
	hour, err := cast.ToIntE(v.Get(key + ".hour"))
	if err != nil {
		return domain.TimeOfDay{}, false
	}
	minute, err := cast.ToIntE(v.Get(key + ".min"))
	if err != nil {
		return domain.TimeOfDay{}, false
	}
	t := domain.TimeOfDay{Hour: hour, Min: minute}
	return t, t.Valid()
}
