package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/oximon/internal/health"
	"github.com/fakeyudi/oximon/internal/session"
	"github.com/fakeyudi/oximon/internal/tui"
)

var plainOutput bool

var viewCmd = &cobra.Command{
	Use:   "view <user>",
	Short: "View a user's saved readings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user := args[0]
		readings, path, err := loadUserLog(user)
		if err != nil {
			return err
		}
		t, err := cfg.HealthThresholds()
		if err != nil {
			return fmt.Errorf("config thresholds: %w", err)
		}

		if plainOutput || !term.IsTerminal(os.Stdout.Fd()) {
			printReadings(cmd.OutOrStdout(), user, path, readings, t)
			return nil
		}
		return tui.RunViewer(tui.NewViewer(user, path, readings, t))
	},
}

// loadUserLog reads the saved log for user from the data dir.
func loadUserLog(user string) ([]health.Reading, string, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, "", err
	}
	path := session.LogPath(dir, user)
	readings, err := session.ReadLog(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, path, fmt.Errorf("no log for %s: %s", user, path)
		}
		return nil, path, err
	}
	return readings, path, nil
}

// printReadings writes a plain-text table of readings.
func printReadings(w io.Writer, user, path string, readings []health.Reading, t health.Thresholds) {
	fmt.Fprintln(w, "## Session")
	fmt.Fprintf(w, "  User:        %s\n", user)
	fmt.Fprintf(w, "  Log:         %s\n", path)
	fmt.Fprintf(w, "  Readings:    %d\n", len(readings))
	fmt.Fprintf(w, "  Thresholds:  %s\n", t)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Readings")
	if len(readings) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, r := range readings {
		c := health.Classify(r, t)
		fmt.Fprintf(w, "  %s  %3d bpm %-6s  %3d %% %s\n",
			r.Time.Format(health.TimeLayout), r.HeartRate, c.HeartRate, r.OxygenSaturation, c.Oxygen)
	}
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain text output instead of TUI")
	rootCmd.AddCommand(viewCmd)
}
