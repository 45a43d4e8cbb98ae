package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/xvierd/focusgate/internal/domain"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent block events",
	Long:  `List the most recent block starts, ends and bypass attempts, newest first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := app.state.GetRecentEvents(context.Background(), historyLimit)
		if err != nil {
			return fmt.Errorf("failed to get history: %w", err)
		}

		if jsonOutput {
			out := make([]map[string]any, 0, len(events))
			for _, e := range events {
				out = append(out, eventJSON(e))
			}
			return writeJSON(cmd.OutOrStdout(), out)
		}
		printHistory(cmd.OutOrStdout(), events)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of events to show")
}

func eventJSON(e *domain.BlockEvent) map[string]any {
	return map[string]any{
		"id":          e.ID,
		"kind":        string(e.Kind),
		"occurred_at": e.OccurredAt.Format("2006-01-02T15:04:05"),
		"window":      fmt.Sprintf("%s-%s", e.From, e.To),
		"blocked_for": e.BlockedFor.String(),
		"git_branch":  e.GitBranch,
	}
}

func printHistory(w io.Writer, events []*domain.BlockEvent) {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	kindStyle := lipgloss.NewStyle().Bold(true)

	if len(events) == 0 {
		fmt.Fprintf(w, "  %s\n", dimStyle.Render("No block events yet."))
		return
	}

	for _, e := range events {
		line := fmt.Sprintf("  %s  %s",
			dimStyle.Render(e.OccurredAt.Local().Format("Mon Jan 2 15:04")),
			kindStyle.Render(fmt.Sprintf("%-14s", e.Kind.Label())),
		)
		if e.Kind == domain.EventEnded && e.BlockedFor > 0 {
			line += "  " + formatMinutes(e.BlockedFor)
		}
		if e.GitBranch != "" {
			line += "  " + dimStyle.Render(app.config.Theme.IconGit+" "+e.GitBranch)
		}
		fmt.Fprintln(w, line)
	}
}
