package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/oximon/internal/report"
)

var (
	reportFormat string
	reportOutput string
	reportFrom   string
)

var reportCmd = &cobra.Command{
	Use:   "report [user]",
	Short: "Summarize a user's readings against the thresholds",
	Long: "Summarize a user's readings against the configured thresholds.\n" +
		"With --from, re-render a previously saved report in another format.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		renderer, err := report.ForFormat(reportFormat)
		if err != nil {
			return err
		}

		var r *report.Report
		switch {
		case reportFrom != "":
			data, err := os.ReadFile(reportFrom)
			if err != nil {
				return err
			}
			if r, err = report.Parse(data); err != nil {
				return err
			}
		case len(args) == 1:
			readings, path, err := loadUserLog(args[0])
			if err != nil {
				return err
			}
			t, err := cfg.HealthThresholds()
			if err != nil {
				return fmt.Errorf("config thresholds: %w", err)
			}
			r = report.Build(args[0], path, readings, t, time.Now())
			r.Operator = operator()
		default:
			return errors.New("report needs a user or --from <file>")
		}

		out, err := renderer.Render(r)
		if err != nil {
			return err
		}
		if reportOutput == "" {
			_, err = cmd.OutOrStdout().Write(out)
			return err
		}
		if err := os.WriteFile(reportOutput, out, 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		cmd.Printf("Report written to %s\n", reportOutput)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "markdown", "output format: markdown or json")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "write to file instead of stdout")
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "re-render an existing report file")
	rootCmd.AddCommand(reportCmd)
}
