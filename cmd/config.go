package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/xvierd/focusgate/internal/config"
	"github.com/xvierd/focusgate/internal/domain"
	"github.com/xvierd/focusgate/internal/services"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and edit settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every setting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		values := config.Values(cfg)
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), values)
		}

		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
		w := cmd.OutOrStdout()
		for _, k := range keys {
			fmt.Fprintf(w, "  %s  %s\n", keyStyle.Render(fmt.Sprintf("%-22s", k)), values[k])
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change one setting",
	Long: `Change one setting. Block keys (block.enabled, block.from_time,
block.to_time, block.bypass_pin) follow the same rules as the blocker menu;
an empty block.bypass_pin clears the PIN.`,
	Example: `  focusgate config set block.from_time 08:30
  focusgate config set notifications.sound true`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, raw := strings.ToLower(args[0]), args[1]

		if action, ok, err := blockSetter(key, raw); ok {
			if err != nil {
				return err
			}
			return applyToSession(cmd, action)
		}

		if err := config.SetValue(configPath, key, raw); err != nil {
			if errors.Is(err, config.ErrUnknownKey) {
				if s := suggestKey(key); s != "" {
					return fmt.Errorf("%w: %s (did you mean %s?)", config.ErrUnknownKey, key, s)
				}
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s\n", key, raw)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

var blockKeys = []string{"block.enabled", "block.from_time", "block.to_time", "block.bypass_pin"}

// blockSetter maps a block key to a session action. ok is false for keys
// that are not block keys.
func blockSetter(key, raw string) (action func(context.Context, *services.BlockSession) error, ok bool, err error) {
	switch key {
	case "block.enabled":
		enabled, err := cast.ToBoolE(raw)
		if err != nil {
			return nil, true, fmt.Errorf("invalid boolean %q", raw)
		}
		return func(ctx context.Context, s *services.BlockSession) error {
			return s.SetEnabled(ctx, enabled)
		}, true, nil
	case "block.from_time", "block.to_time":
		t, err := domain.ParseTimeOfDay(raw)
		if err != nil {
			return nil, true, err
		}
		if key == "block.from_time" {
			return func(ctx context.Context, s *services.BlockSession) error {
				return s.SetFromTime(ctx, t)
			}, true, nil
		}
		return func(ctx context.Context, s *services.BlockSession) error {
			return s.SetToTime(ctx, t)
		}, true, nil
	case "block.bypass_pin":
		if raw == "" {
			return func(ctx context.Context, s *services.BlockSession) error {
				return s.ClearBypassPIN(ctx)
			}, true, nil
		}
		return func(ctx context.Context, s *services.BlockSession) error {
			return s.SetBypassPIN(ctx, raw)
		}, true, nil
	}
	return nil, false, nil
}

// suggestKey returns the closest known key to key, or "".
func suggestKey(key string) string {
	known := append(append([]string{}, blockKeys...), config.SettableKeys()...)
	if matches := fuzzy.Find(key, known); len(matches) > 0 {
		return matches[0].Str
	}
	// Fall back to matching the last segment alone, which tolerates a
	// wrong section name.
	if i := strings.LastIndex(key, "."); i >= 0 {
		if matches := fuzzy.Find(key[i+1:], known); len(matches) > 0 {
			return matches[0].Str
		}
	}
	return ""
}
