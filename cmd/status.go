package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/xvierd/focusgate/internal/domain"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current status",
	Long:  `Display whether a block is in force, the configured window and the time left.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := app.state.GetStatus(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), statusJSON(status))
		}
		printStatusText(cmd.OutOrStdout(), status)
		return nil
	},
}

func statusJSON(st *domain.Status) map[string]any {
	result := map[string]any{
		"state":       string(st.State),
		"blocking":    st.IsBlocking(),
		"enabled":     st.Enabled,
		"window_from": st.From.String(),
		"window_to":   st.To.String(),
		"in_window":   st.InWindow,
		"bypassed":    st.Bypassed,
		"has_pin":     st.HasBypassPIN,
		"countdown":   nil,
	}
	if st.Countdown != nil {
		result["countdown"] = map[string]any{
			"hours":   st.Countdown.Hours,
			"minutes": st.Countdown.Minutes,
			"text":    st.Countdown.Text(),
		}
		result["blocked_for"] = st.BlockedFor.String()
	}
	return result
}

func printStatusText(w io.Writer, st *domain.Status) {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	blockStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(app.config.Theme.ColorBlock))
	idleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(app.config.Theme.ColorIdle))

	state := idleStyle.Render(st.State.Label())
	if st.IsBlocking() {
		state = blockStyle.Render(st.State.Label())
	}

	enabled := "off"
	if st.Enabled {
		enabled = "on"
	}
	pin := "not set"
	if st.HasBypassPIN {
		pin = "set"
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s  %s\n", labelStyle.Render("State:  "), state)
	fmt.Fprintf(w, "  %s  %s–%s (%s)\n", labelStyle.Render("Window: "), st.From, st.To, enabled)
	fmt.Fprintf(w, "  %s  %s\n", labelStyle.Render("PIN:    "), pin)
	if st.Countdown != nil {
		fmt.Fprintf(w, "  %s  %s\n", labelStyle.Render("Ends:   "), st.Countdown.Line())
		if st.BlockedFor > 0 {
			fmt.Fprintf(w, "  %s  %s\n", labelStyle.Render("Blocked:"), formatMinutes(st.BlockedFor))
		}
	} else if st.Bypassed {
		fmt.Fprintf(w, "  %s  bypassed until %s\n", labelStyle.Render("Today:  "), st.To)
	}
	fmt.Fprintln(w)
}

func writeJSON(w io.Writer, v any) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(jsonData))
	return nil
}
