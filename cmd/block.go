package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/xvierd/focusgate/internal/domain"
	"github.com/xvierd/focusgate/internal/services"
)

var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Turn blocking on",
	Long:  `Turn blocking on. Inside the window the block starts at once.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyToSession(cmd, func(ctx context.Context, s *services.BlockSession) error {
			return s.SetEnabled(ctx, true)
		})
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Turn blocking off",
	Long:  `Turn blocking off. This is refused while a block is active.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyToSession(cmd, func(ctx context.Context, s *services.BlockSession) error {
			return s.SetEnabled(ctx, false)
		})
	},
}

var windowCmd = &cobra.Command{
	Use:   "window FROM TO",
	Short: "Set the daily block window",
	Long: `Set the daily block window as two HH:MM times. The block applies from
FROM up to, but not including, TO. Windows crossing midnight never block.`,
	Example: "  focusgate window 09:00 17:30",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := domain.ParseTimeOfDay(args[0])
		if err != nil {
			return err
		}
		to, err := domain.ParseTimeOfDay(args[1])
		if err != nil {
			return err
		}
		return applyToSession(cmd, func(ctx context.Context, s *services.BlockSession) error {
			return s.SetWindow(ctx, from, to)
		})
	},
}

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Manage the bypass PIN",
}

var pinSetCmd = &cobra.Command{
	Use:   "set [PIN]",
	Short: "Set the bypass PIN",
	Long: `Set the bypass PIN (at least 4 digits). Without an argument the PIN is
read from the terminal without echo. While a block is active a PIN can only
be set if none exists yet.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var pin string
		if len(args) == 1 {
			pin = args[0]
		} else {
			var err error
			if pin, err = readPIN(cmd); err != nil {
				return err
			}
		}
		return applyToSession(cmd, func(ctx context.Context, s *services.BlockSession) error {
			return s.SetBypassPIN(ctx, pin)
		})
	},
}

var pinClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the bypass PIN",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyToSession(cmd, func(ctx context.Context, s *services.BlockSession) error {
			return s.ClearBypassPIN(ctx)
		})
	},
}

func init() {
	pinCmd.AddCommand(pinSetCmd)
	pinCmd.AddCommand(pinClearCmd)
}

// applyToSession runs one settings action through a fresh session and
// prints the resulting status.
func applyToSession(cmd *cobra.Command, fn func(context.Context, *services.BlockSession) error) error {
	ctx := context.Background()
	session, err := oneShotSession(ctx)
	if err != nil {
		return err
	}
	if err := fn(ctx, session); err != nil {
		return err
	}

	status, err := session.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), statusJSON(status))
	}
	printStatusText(cmd.OutOrStdout(), status)
	return nil
}

func readPIN(cmd *cobra.Command) (string, error) {
	out := cmd.OutOrStdout()
	if term.IsTerminal(os.Stdin.Fd()) {
		fmt.Fprint(out, "  New PIN: ")
		b, err := term.ReadPassword(os.Stdin.Fd())
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read PIN: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return readLine(cmd.InOrStdin())
}

func readLine(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read PIN: %w", err)
	}
	return strings.TrimSpace(line), nil
}
