package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/oximon/internal/health"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <heart-rate> <oxygen>",
	Short: "Classify a single reading against the configured thresholds",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hr, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid heart rate %q: %w", args[0], err)
		}
		o2, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid oxygen saturation %q: %w", args[1], err)
		}
		t, err := cfg.HealthThresholds()
		if err != nil {
			return fmt.Errorf("config thresholds: %w", err)
		}

		c := health.Classify(health.NewReading(time.Now(), hr, o2), t)
		cmd.Printf("Heart rate: %d bpm (%s)\n", hr, c.HeartRate)
		cmd.Printf("Oxygen: %d %% (%s)\n", o2, c.Oxygen)
		cmd.Printf("Thresholds: %s\n\n", t)
		cmd.Println(c.Summary())
		for _, w := range health.WarningsFor(c) {
			cmd.Printf("! %s %s\n", w.Title, w.Message)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
