package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/oximon/internal/profile"
	"github.com/fakeyudi/oximon/internal/session"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List the people that can be monitored",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := dataDir()
		if err != nil {
			return err
		}
		def := ""
		if activeProfile != nil {
			def = activeProfile.DefaultUser
		}
		for _, u := range roster() {
			marker := " "
			if u == def {
				marker = "*"
			}
			cmd.Printf("%s %-20s %s\n", marker, u, session.LogPath(dir, u))
		}
		return nil
	},
}

var usersAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a person to the roster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prof := activeProfile
		if prof == nil {
			prof = &profile.Profile{}
		}
		if !prof.AddUser(args[0]) {
			return fmt.Errorf("user %q is already in the roster", args[0])
		}
		if err := profile.Save(prof); err != nil {
			return fmt.Errorf("saving profile: %w", err)
		}
		activeProfile = prof
		cmd.Printf("Added %s.\n", args[0])
		return nil
	},
}

func init() {
	usersCmd.AddCommand(usersAddCmd)
	rootCmd.AddCommand(usersCmd)
}
