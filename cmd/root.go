package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/oximon/internal/config"
	"github.com/fakeyudi/oximon/internal/logger"
	"github.com/fakeyudi/oximon/internal/profile"
	"github.com/fakeyudi/oximon/internal/session"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// activeProfile holds the loaded operator profile.
var activeProfile *profile.Profile

// appLog is the logger built in PersistentPreRunE. The monitor replaces it
// with a file logger while the TUI owns the terminal.
var appLog = zap.NewNop()

var dataDirFlag string

var rootCmd = &cobra.Command{
	Use:          "oximon",
	Short:        "Monitor heart rate and blood oxygen from a pulse oximeter",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup check for the setup command itself.
		if cmd.Name() == "setup" {
			return nil
		}

		// First-run: profile missing, run the setup wizard when interactive.
		if !profile.Exists() {
			if term.IsTerminal(os.Stdin.Fd()) {
				fmt.Println()
				fmt.Println("  Welcome to oximon! Looks like this is your first time.")
				if err := runSetup(true); err != nil {
					return err
				}
			}
			// Non-interactive (tests, pipes): continue with defaults, no profile required.
		}

		activeProfile = nil
		if profile.Exists() {
			p, err := profile.Load()
			if err != nil {
				return fmt.Errorf("loading profile: %w", err)
			}
			activeProfile = p
		}

		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}

		appLog, err = logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = appLog.Sync()
	},
}

func loadConfig() (config.Config, error) {
	global, err := config.LoadGlobal()
	if err != nil {
		return config.Config{}, fmt.Errorf("loading global config: %w", err)
	}
	project, err := config.LoadProject()
	if err != nil {
		return config.Config{}, fmt.Errorf("loading project config: %w", err)
	}
	return config.Merge(global, project), nil
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// dataDir resolves where logs and the session record live: --data-dir, then
// config data_dir, then the XDG data dir.
func dataDir() (string, error) {
	dir := dataDirFlag
	if dir == "" {
		dir = cfg.DataDir
	}
	if dir == "" {
		return session.DataDir()
	}
	if len(dir) > 1 && dir[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, dir[2:])
	}
	return dir, nil
}

// roster lists the selectable users.
func roster() []string {
	return profile.Roster(cfg.Users, activeProfile)
}

// operator is the profile name, if any.
func operator() string {
	if activeProfile == nil {
		return ""
	}
	return activeProfile.Name
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "directory for session logs (default: config data_dir or $XDG_DATA_HOME/oximon)")
}
