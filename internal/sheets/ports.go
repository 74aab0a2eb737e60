// Package sheets defines the outbound ports to the spreadsheet that mirrors
// the expense ledger for reporting.
package sheets

import (
	"context"
	"errors"
	"strings"

	"budgetdesk/internal/core"
)

// LedgerRow is one expense as it appears in the reporting ledger. Supplier and
// Contract hold display names, not ids.
type LedgerRow struct {
	ID          int64
	Date        core.Date
	Description string
	Amount      core.Money
	Category    string
	Supplier    string
	Contract    string
	Status      core.ExpenseStatus
}

var ErrInvalidRow = errors.New("invalid ledger row")

func (r LedgerRow) Validate() error {
	if r.ID <= 0 || r.Date.IsEmpty() || strings.TrimSpace(r.Description) == "" || r.Amount.Cents <= 0 {
		return ErrInvalidRow
	}
	return nil
}

// Ports for outbound adapters.
type (
	// LedgerWriter inserts a row, or replaces the row with the same ID.
	LedgerWriter interface {
		Append(ctx context.Context, row LedgerRow) (rowRef string, err error)
	}

	// LedgerDeleter removes the row with id from the ledger of year. Missing
	// rows are not an error.
	LedgerDeleter interface {
		Delete(ctx context.Context, id int64, year int) error
	}

	Ledger interface {
		LedgerWriter
		LedgerDeleter
	}

	// BudgetReader reads a planning sheet into budgets for year.
	BudgetReader interface {
		ReadBudgets(ctx context.Context, year int) ([]core.Budget, error)
	}
)
