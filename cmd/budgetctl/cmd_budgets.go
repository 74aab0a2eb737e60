package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"budgetdesk/internal/backend"
)

var importYear int

// budgetsCmd groups budget maintenance
var budgetsCmd = &cobra.Command{
	Use:   "budgets",
	Short: "Manage budgets",
}

var budgetsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import budgets from the planning spreadsheet",
	Long: `Read the yearly planning sheet from Google Sheets and upsert budgets by
name. Requires GOOGLE_SPREADSHEET_ID and service account credentials.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, res *backend.BackendResult, svc *backend.Services) error {
			if res.Budgets == nil {
				return errors.New("budget import is not configured: set GOOGLE_SPREADSHEET_ID")
			}
			result, err := svc.Budgets.Import(ctx, res.Budgets, importYear)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d: %d created, %d updated\n", importYear, result.Created, result.Updated)
			return nil
		})
	},
}

func init() {
	budgetsImportCmd.Flags().IntVar(&importYear, "year", time.Now().Year(), "Budget year to import")
	budgetsCmd.AddCommand(budgetsImportCmd)
}
