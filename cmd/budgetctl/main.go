// Command budgetctl runs administrative tasks against the budgetdesk store:
// schema migrations, user provisioning, budget imports and ad hoc projections.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"budgetdesk/internal/backend"
	"budgetdesk/internal/cli"
	"budgetdesk/internal/config"
	"budgetdesk/internal/log"
)

var (
	dbPath  string
	verbose bool
	timeout time.Duration

	logger *log.Logger
	appCfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "budgetctl",
	Short: "Administer a budgetdesk installation",
	Long: `budgetctl manages a budgetdesk installation from the command line.

It reads the same environment as the server (DATA_BACKEND, SQLITE_DB_PATH,
GOOGLE_* and so on). A .env file in the working directory is loaded first.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.LoadEnvFile(); err != nil {
			return err
		}
		appCfg = config.Load()
		if dbPath != "" {
			appCfg.SQLiteDBPath = dbPath
		}
		if verbose {
			appCfg.LogLevel = "debug"
		}
		logger = cli.SetupLogger(appCfg, "budgetctl")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default: SQLITE_DB_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(budgetsCmd)
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(amortizeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withServices opens the configured backend, builds the services on top of
// it and runs fn. Resources are released when fn returns.
func withServices(cmd *cobra.Command, fn func(ctx context.Context, res *backend.BackendResult, svc *backend.Services) error) error {
	if err := appCfg.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	res, bc, err := cli.OpenBackend(ctx, logger, appCfg, false)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err.Error())
		}
	}()

	svc, err := backend.NewServices(res, bc)
	if err != nil {
		return err
	}
	defer svc.Close()

	return fn(ctx, res, svc)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
