// Package store defines the persistence ports of the application.
//
// Two implementations exist: store/memory for development and tests, and
// storage for SQLite. Both return the sentinel errors of this package so
// callers can use errors.Is regardless of the backend.
package store

import (
	"context"
	"time"

	"budgetdesk/internal/core"
)

type (
	SupplierStore interface {
		CreateSupplier(ctx context.Context, s *core.Supplier) error
		GetSupplier(ctx context.Context, id int64) (core.Supplier, error)
		ListSuppliers(ctx context.Context) ([]core.Supplier, error)
		UpdateSupplier(ctx context.Context, s *core.Supplier) error
		// DeleteSupplier returns ErrInUse while contracts reference the supplier.
		DeleteSupplier(ctx context.Context, id int64) error
	}

	ContractStore interface {
		// CreateContract stores the contract and its line items, assigning ids.
		CreateContract(ctx context.Context, c *core.Contract) error
		GetContract(ctx context.Context, id int64) (core.Contract, error)
		ListContracts(ctx context.Context, f ContractFilter) ([]core.Contract, error)
		// UpdateContract updates header fields and status; line items are untouched.
		UpdateContract(ctx context.Context, c *core.Contract) error
		DeleteContract(ctx context.Context, id int64) error
		AddLineItem(ctx context.Context, contractID int64, li *core.LineItem) error
		DeleteLineItem(ctx context.Context, contractID, itemID int64) error
		// MarkLineItemPosted records the latest installment date turned into an expense.
		MarkLineItemPosted(ctx context.Context, itemID int64, posted core.Date) error
	}

	BudgetStore interface {
		CreateBudget(ctx context.Context, b *core.Budget) error
		GetBudget(ctx context.Context, id int64) (core.Budget, error)
		// ListBudgets returns budgets of year, or all budgets when year is 0.
		ListBudgets(ctx context.Context, year int) ([]core.Budget, error)
		// UpdateBudget replaces header fields and every allocation.
		UpdateBudget(ctx context.Context, b *core.Budget) error
		DeleteBudget(ctx context.Context, id int64) error
	}

	ExpenseStore interface {
		// CreateExpense assigns the id and starts the version at 1.
		CreateExpense(ctx context.Context, e *core.Expense) error
		GetExpense(ctx context.Context, id int64) (core.Expense, error)
		ListExpenses(ctx context.Context, f ExpenseFilter) ([]core.Expense, error)
		// UpdateExpense requires e.Version to match the stored version and
		// increments it, otherwise it returns ErrVersionMismatch.
		UpdateExpense(ctx context.Context, e *core.Expense) error
		// DeleteExpense soft-deletes the expense and returns its last state.
		DeleteExpense(ctx context.Context, id int64) (core.Expense, error)
	}

	EmployeeStore interface {
		CreateEmployee(ctx context.Context, e *core.Employee) error
		GetEmployee(ctx context.Context, id int64) (core.Employee, error)
		ListEmployees(ctx context.Context) ([]core.Employee, error)
		UpdateEmployee(ctx context.Context, e *core.Employee) error
		DeleteEmployee(ctx context.Context, id int64) error
	}

	UserStore interface {
		CreateUser(ctx context.Context, u *core.User) error
		GetUser(ctx context.Context, id int64) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		GetUserByExternalID(ctx context.Context, externalID string) (core.User, error)
		ListUsers(ctx context.Context) ([]core.User, error)
		UpdateUser(ctx context.Context, u *core.User) error
		DeleteUser(ctx context.Context, id int64) error
	}

	// SyncStore tracks which expenses still have to reach the reporting ledger.
	SyncStore interface {
		GetPendingSync(ctx context.Context, limit int) ([]PendingSync, error)
		MarkSynced(ctx context.Context, id, version int64) error
		MarkSyncError(ctx context.Context, id int64, reason string) error
	}

	Store interface {
		SupplierStore
		ContractStore
		BudgetStore
		ExpenseStore
		EmployeeStore
		UserStore
		SyncStore
		Ping(ctx context.Context) error
		Close() error
	}
)

// MaxSyncAttempts bounds how often backfill retries an expense whose ledger
// sync keeps failing. Editing the expense resets the count.
const MaxSyncAttempts = 12

// SyncRetryAt is when an expense that has failed attempts times becomes
// eligible for backfill again: one minute after the first failure, doubling
// up to an hour.
func SyncRetryAt(failedAt time.Time, attempts int) time.Time {
	delay := time.Minute
	for i := 1; i < attempts && delay < time.Hour; i++ {
		delay *= 2
	}
	return failedAt.Add(min(delay, time.Hour))
}

// PendingSync is the minimal data needed to enqueue a ledger sync.
type PendingSync struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

// ContractFilter narrows ListContracts. Zero values match everything.
type ContractFilter struct {
	SupplierID int64
	Status     core.ContractStatus
}

func (f ContractFilter) Matches(c core.Contract) bool {
	if f.SupplierID != 0 && c.SupplierID != f.SupplierID {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	return true
}

// ExpenseFilter narrows ListExpenses. Zero values match everything.
// Month is only honored together with Year.
type ExpenseFilter struct {
	Year       int
	Month      int
	Category   string
	SupplierID int64
	ContractID int64
	LineItemID int64
	Status     core.ExpenseStatus
	Limit      int
	Offset     int
}

func (f ExpenseFilter) Matches(e core.Expense) bool {
	if f.Year != 0 {
		if e.Date.Year() != f.Year {
			return false
		}
		if f.Month != 0 && e.Date.Month() != f.Month {
			return false
		}
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.SupplierID != 0 && e.SupplierID != f.SupplierID {
		return false
	}
	if f.ContractID != 0 && e.ContractID != f.ContractID {
		return false
	}
	if f.LineItemID != 0 && e.LineItemID != f.LineItemID {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	return true
}

// Page applies Offset and Limit to an already ordered slice.
func Page[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
