package cmd

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/iksnae/devwatch/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	dbPath     string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "devwatch",
	Short: "Launch and track Devin work sessions",
	Long: `A CLI tool to launch remote Devin work sessions and track them to completion.

devwatch persists every session locally, polls the Devin API with an adaptive
backoff ladder until the session reaches a terminal outcome, cross-checks
GitHub for pull requests that merged before Devin noticed, and raises a
desktop notification on every meaningful transition. The watcher can be
killed and restarted at any time; polling resumes from durable state.

Quick Start:
  devwatch create --repo owner/repo "fix the flaky login test"
  devwatch watch                     # Run the watcher daemon
  devwatch list                      # List tracked sessions

Configuration lives in a YAML file (see --config) holding the API key,
the repo list, and the notification allow-list.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Custom config file location")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Custom session database location")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadConfig resolves the config path (flag or default) and loads it.
func loadConfig() (*internal.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = internal.DefaultConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path: %w", err)
		}
	}
	return internal.LoadConfig(path)
}

// openEnv loads the config and opens the session database.
func openEnv() (*internal.Config, *sql.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	path := dbPath
	if path == "" {
		path = cfg.DatabasePath
	}
	db, err := internal.OpenDatabase(path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

// newNotificationCenter wires the notification center over the given
// database with the platform surface and browser opener.
func newNotificationCenter(cfg *internal.Config, db *sql.DB) *internal.NotificationCenter {
	return internal.NewNotificationCenter(
		internal.NewEphemeralStore(db),
		internal.NewDesktopNotifier(),
		internal.OpenURL,
		cfg.AllowedNotifyHosts,
	)
}
