package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/oximon/internal/export"
	"github.com/fakeyudi/oximon/internal/session"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <user>",
	Short: "Export a user's readings to an xlsx workbook with charts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user := args[0]
		readings, _, err := loadUserLog(user)
		if err != nil {
			return err
		}
		t, err := cfg.HealthThresholds()
		if err != nil {
			return err
		}

		out := exportOutput
		if out == "" {
			out = strings.TrimSuffix(session.FileName(user), ".csv") + ".xlsx"
		}
		if err := export.WriteFile(out, user, readings, t); err != nil {
			return err
		}
		cmd.Printf("Exported %d readings to %s\n", len(readings), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: <user>_health_data.xlsx)")
	rootCmd.AddCommand(exportCmd)
}
