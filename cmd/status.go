package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/oximon/internal/health"
	"github.com/fakeyudi/oximon/internal/session"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active monitoring session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := dataDir()
		if err != nil {
			return err
		}
		store, err := session.NewStateStore(dir)
		if err != nil {
			return err
		}

		s, err := store.Load()
		if err != nil {
			if errors.Is(err, session.ErrNoSession) {
				cmd.Println("no active session")
				return nil
			}
			return err
		}

		cmd.Printf("Session: %s\n", s.ID)
		cmd.Printf("User: %s\n", s.UserID)
		cmd.Printf("Started: %s\n", s.StartTime.Format(time.RFC3339))
		cmd.Printf("Duration: %s\n", time.Since(s.StartTime).Round(time.Second).String())
		cmd.Printf("Interval: %s\n", s.Interval)
		cmd.Printf("Thresholds: %s\n", s.Thresholds)
		if s.Stale() {
			cmd.Printf("PID: %d (not running)\n", s.PID)
		} else {
			cmd.Printf("PID: %d\n", s.PID)
		}
		if s.LogPath == "" {
			cmd.Println("Log: (not open)")
			return nil
		}
		cmd.Printf("Log: %s\n", s.LogPath)

		readings, err := session.ReadLog(s.LogPath)
		if err != nil {
			cmd.Printf("Readings: unavailable (%v)\n", err)
			return nil
		}
		cmd.Printf("Readings: %d\n", len(readings))
		if n := len(readings); n > 0 {
			last := readings[n-1]
			cmd.Printf("Last: %s  HR %d bpm  SpO2 %d %%\n",
				last.Time.Format(health.TimeLayout), last.HeartRate, last.OxygenSaturation)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
