package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"budgetdesk/internal/backend"
	"budgetdesk/internal/core"
	"budgetdesk/internal/projection"
)

var (
	forecastContract int64
	forecastAsOf     string

	amortizeAmount string
	amortizeFrom   string
	amortizeTo     string
)

// forecastCmd prints the paid, overdue and future split of a contract
var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast a contract's outstanding installments",
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf := core.DateOf(time.Now())
		if forecastAsOf != "" {
			d, err := core.ParseDate(forecastAsOf)
			if err != nil {
				return err
			}
			asOf = d
		}
		return withServices(cmd, func(ctx context.Context, _ *backend.BackendResult, svc *backend.Services) error {
			f, err := svc.Contracts.Forecast(ctx, forecastContract, asOf)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), f)
		})
	},
}

// amortizeCmd spreads an amount over a date range by days per month
var amortizeCmd = &cobra.Command{
	Use:     "amortize",
	Short:   "Spread an amount across the months of a date range",
	Example: `  budgetctl amortize --amount 1200.00 --from 2025-01-15 --to 2025-04-14`,
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := core.ParseMoney(amortizeAmount)
		if err != nil {
			return err
		}
		from, err := core.ParseDate(amortizeFrom)
		if err != nil {
			return err
		}
		to, err := core.ParseDate(amortizeTo)
		if err != nil {
			return err
		}
		if to.Before(from.Time) {
			return fmt.Errorf("--to %s is before --from %s", to, from)
		}

		parts := projection.Amortize(amount, from, to)
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "MONTH\tDAYS\tAMOUNT\t")
		for _, p := range parts {
			fmt.Fprintf(tw, "%s\t%d\t%s\t\n", p.Month, p.Days, p.Amount)
		}
		fmt.Fprintf(tw, "total\t\t%s\t\n", projection.Sum(parts))
		return tw.Flush()
	},
}

func init() {
	forecastCmd.Flags().Int64Var(&forecastContract, "contract", 0, "Contract ID (required)")
	forecastCmd.Flags().StringVar(&forecastAsOf, "as-of", "", "Reference date YYYY-MM-DD (default: today)")
	_ = forecastCmd.MarkFlagRequired("contract")

	amortizeCmd.Flags().StringVar(&amortizeAmount, "amount", "", "Amount, e.g. 1200.50 (required)")
	amortizeCmd.Flags().StringVar(&amortizeFrom, "from", "", "First day YYYY-MM-DD (required)")
	amortizeCmd.Flags().StringVar(&amortizeTo, "to", "", "Last day YYYY-MM-DD (required)")
	for _, name := range []string{"amount", "from", "to"} {
		_ = amortizeCmd.MarkFlagRequired(name)
	}
}
