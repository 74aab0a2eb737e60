package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"budgetdesk/internal/storage"
)

var rollbackSteps int

// migrateCmd groups the schema migration subcommands
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the SQLite schema",
	Long: `Apply, roll back or inspect the embedded SQLite migrations.

Available subcommands:
  up      - Apply all pending migrations
  down    - Roll back migrations (default: 1 step)
  version - Show the current schema version`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := sqlitePath()
		if err != nil {
			return err
		}
		if err := storage.RunMigrations(path); err != nil {
			return err
		}
		return printVersion(cmd, path)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if rollbackSteps < 1 {
			return errors.New("--steps must be at least 1")
		}
		path, err := sqlitePath()
		if err != nil {
			return err
		}
		if err := storage.RollbackMigrations(path, rollbackSteps); err != nil {
			return err
		}
		return printVersion(cmd, path)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := sqlitePath()
		if err != nil {
			return err
		}
		return printVersion(cmd, path)
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&rollbackSteps, "steps", 1, "Number of migrations to roll back")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}

func sqlitePath() (string, error) {
	if appCfg.SQLiteDBPath == "" {
		return "", errors.New("no database path: set SQLITE_DB_PATH or --db")
	}
	return appCfg.SQLiteDBPath, nil
}

func printVersion(cmd *cobra.Command, path string) error {
	version, dirty, err := storage.MigrationVersion(path)
	if err != nil {
		return err
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: version %d (%s)\n", path, version, state)
	return nil
}
