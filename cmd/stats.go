package cmd

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/xvierd/focusgate/internal/domain"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a dashboard of the last seven days",
	Long:  `Display blocked time per day for the last week, with bypass counts.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		days, err := app.state.GetWeeklyStats(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		if jsonOutput {
			out := make([]map[string]any, 0, len(days))
			for _, d := range days {
				out = append(out, map[string]any{
					"date":            d.Date.Format("2006-01-02"),
					"blocks_started":  d.BlocksStarted,
					"bypasses":        d.Bypasses,
					"failed_bypasses": d.FailedBypasses,
					"total_blocked":   d.TotalBlocked.String(),
				})
			}
			return writeJSON(cmd.OutOrStdout(), out)
		}

		fmt.Fprintln(cmd.OutOrStdout())
		renderDashboard(cmd.OutOrStdout(), days)
		return nil
	},
}

func renderDashboard(w io.Writer, days []*domain.DailyStats) {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C6FE0"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))
	barColor := lipgloss.NewStyle().Foreground(lipgloss.Color(app.config.Theme.ColorBlock))

	fmt.Fprintf(w, "  %s\n", titleStyle.Render("Last 7 days"))
	fmt.Fprintf(w, "  %s\n\n", dimStyle.Render(strings.Repeat("─", 40)))

	var total time.Duration
	var blocks, bypasses, failed int
	var longest time.Duration
	for _, d := range days {
		total += d.TotalBlocked
		blocks += d.BlocksStarted
		bypasses += d.Bypasses
		failed += d.FailedBypasses
		if d.TotalBlocked > longest {
			longest = d.TotalBlocked
		}
	}

	fmt.Fprintf(w, "  Total: %s blocks, %s blocked\n\n",
		valueStyle.Render(fmt.Sprintf("%d", blocks)),
		valueStyle.Render(formatHours(total.Hours())),
	)

	if blocks == 0 {
		fmt.Fprintf(w, "  %s\n\n", dimStyle.Render("No blocks in this period."))
		return
	}

	maxBarWidth := 30
	for _, d := range days {
		barWidth := 0
		if longest > 0 {
			barWidth = int(math.Round(float64(d.TotalBlocked) / float64(longest) * float64(maxBarWidth)))
		}
		if barWidth < 1 && d.TotalBlocked > 0 {
			barWidth = 1
		}
		fmt.Fprintf(w, "  %s %s %s\n",
			dimStyle.Render(d.Date.Format("Mon 02")),
			barColor.Render(fmt.Sprintf("%-*s", maxBarWidth, buildBar(barWidth))),
			formatHours(d.TotalBlocked.Hours()),
		)
	}
	fmt.Fprintln(w)

	if bypasses > 0 || failed > 0 {
		fmt.Fprintf(w, "  %s  %s  %s\n\n",
			dimStyle.Render("Bypasses:"),
			valueStyle.Render(fmt.Sprintf("%d", bypasses)),
			dimStyle.Render(fmt.Sprintf("(%d wrong PIN)", failed)),
		)
	}
}

// buildBar creates a horizontal bar using block characters.
func buildBar(width int) string {
	if width <= 0 {
		return ""
	}
	return strings.Repeat("█", width)
}

// formatHours formats a float hours value as "Xh Ym".
func formatHours(h float64) string {
	if h < 0.01 {
		return "0m"
	}
	hours := int(h)
	minutes := int(math.Round((h - float64(hours)) * 60))
	if minutes == 60 {
		hours++
		minutes = 0
	}
	if hours > 0 && minutes > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dm", minutes)
}
