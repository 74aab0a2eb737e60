package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"budgetdesk/internal/core"
	"budgetdesk/internal/store"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestMigrationVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	v, dirty, err := MigrationVersion(path)
	if err != nil || dirty || v != 2 {
		t.Fatalf("version=%d dirty=%v err=%v", v, dirty, err)
	}
	if err := RollbackMigrations(path, 1); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	v, _, err = MigrationVersion(path)
	if err != nil || v != 1 {
		t.Fatalf("after one step version=%d err=%v", v, err)
	}
	if err := RollbackMigrations(path, 1); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	v, _, err = MigrationVersion(path)
	if err != nil || v != 0 {
		t.Fatalf("after rollback version=%d err=%v", v, err)
	}
}

func TestSupplierAndContractRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	sup := core.Supplier{Name: "Northwind", Email: "a@northwind.example", Active: true}
	if err := repo.CreateSupplier(ctx, &sup); err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	if sup.ID == 0 || sup.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamps, got %+v", sup)
	}
	dup := core.Supplier{Name: "NORTHWIND"}
	if err := repo.CreateSupplier(ctx, &dup); !errors.Is(err, store.ErrSupplierExists) {
		t.Fatalf("expected ErrSupplierExists, got %v", err)
	}

	c := core.Contract{
		SupplierID: sup.ID,
		Title:      "Retainer",
		StartDate:  core.NewDate(2025, 1, 1),
		EndDate:    core.NewDate(2025, 12, 31),
		Status:     core.ContractActive,
		LineItems: []core.LineItem{{
			Description: "Fee", Category: "Agency", Amount: core.Cents(120000),
			StartDate: core.NewDate(2025, 1, 1), EndDate: core.NewDate(2025, 12, 31), Billing: core.BillingMonthly,
		}},
	}
	if err := repo.CreateContract(ctx, &c); err != nil {
		t.Fatalf("create contract: %v", err)
	}
	if len(c.LineItems) != 1 || c.LineItems[0].ID == 0 || c.LineItems[0].ContractID != c.ID {
		t.Fatalf("line items not stored: %+v", c.LineItems)
	}

	orphan := c
	orphan.SupplierID = 999
	orphan.LineItems = nil
	if err := repo.CreateContract(ctx, &orphan); !errors.Is(err, store.ErrSupplierNotFound) {
		t.Fatalf("expected ErrSupplierNotFound, got %v", err)
	}

	if err := repo.MarkLineItemPosted(ctx, c.LineItems[0].ID, core.NewDate(2025, 2, 1)); err != nil {
		t.Fatalf("mark posted: %v", err)
	}
	got, err := repo.GetContract(ctx, c.ID)
	if err != nil {
		t.Fatalf("get contract: %v", err)
	}
	if !got.LineItems[0].LastPostedDate.Equal(core.NewDate(2025, 2, 1).Time) {
		t.Fatalf("last posted not stored: %v", got.LineItems[0].LastPostedDate)
	}

	if err := repo.DeleteSupplier(ctx, sup.ID); !errors.Is(err, store.ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}

	list, err := repo.ListContracts(ctx, store.ContractFilter{Status: core.ContractDraft})
	if err != nil || len(list) != 0 {
		t.Fatalf("expected no draft contracts, got %d (err=%v)", len(list), err)
	}
}

func TestBudgetAllocationsReplaced(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	b := core.Budget{Year: 2025, Name: "Digital", Category: "Digital", Allocations: []core.Allocation{
		{Month: 1, Amount: core.Cents(100)}, {Month: 2, Amount: core.Cents(200)},
	}}
	if err := repo.CreateBudget(ctx, &b); err != nil {
		t.Fatalf("create budget: %v", err)
	}
	b.Allocations = []core.Allocation{{Month: 3, Amount: core.Cents(300)}}
	if err := repo.UpdateBudget(ctx, &b); err != nil {
		t.Fatalf("update budget: %v", err)
	}
	got, err := repo.GetBudget(ctx, b.ID)
	if err != nil {
		t.Fatalf("get budget: %v", err)
	}
	if len(got.Allocations) != 1 || got.Allocations[0].Month != 3 || got.Total().Cents != 300 {
		t.Fatalf("unexpected allocations: %+v", got.Allocations)
	}

	same := core.Budget{Year: 2025, Name: "digital", Category: "Other"}
	if err := repo.CreateBudget(ctx, &same); !errors.Is(err, store.ErrBudgetExists) {
		t.Fatalf("expected ErrBudgetExists, got %v", err)
	}
	next := core.Budget{Year: 2026, Name: "Digital", Category: "Digital"}
	if err := repo.CreateBudget(ctx, &next); err != nil {
		t.Fatalf("same name in another year should be allowed: %v", err)
	}
	list, _ := repo.ListBudgets(ctx, 2026)
	if len(list) != 1 {
		t.Fatalf("expected 1 budget for 2026, got %d", len(list))
	}
}

func TestExpenseVersionAndSync(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	e := core.Expense{Date: core.NewDate(2025, 3, 10), Description: "Flyers", Amount: core.Cents(4500), Category: "Print", Status: core.ExpensePaid}
	if err := repo.CreateExpense(ctx, &e); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if e.Version != 1 {
		t.Fatalf("expected version 1, got %d", e.Version)
	}

	pending, err := repo.GetPendingSync(ctx, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected 1 pending, got %d (err=%v)", len(pending), err)
	}
	if err := repo.MarkSynced(ctx, e.ID, 1); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if pending, _ = repo.GetPendingSync(ctx, 10); len(pending) != 0 {
		t.Fatalf("expected no pending after sync, got %d", len(pending))
	}

	stale := e
	e.Amount = core.Cents(5000)
	if err := repo.UpdateExpense(ctx, &e); err != nil {
		t.Fatalf("update expense: %v", err)
	}
	if e.Version != 2 {
		t.Fatalf("expected version 2, got %d", e.Version)
	}
	if err := repo.UpdateExpense(ctx, &stale); !errors.Is(err, store.ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
	missing := core.Expense{ID: 404, Version: 1, Date: e.Date, Description: "x", Amount: core.Cents(1), Category: "x", Status: core.ExpensePaid}
	if err := repo.UpdateExpense(ctx, &missing); !errors.Is(err, store.ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound, got %v", err)
	}

	// a sync of version 1 arriving late must not settle version 2
	if err := repo.MarkSynced(ctx, e.ID, 1); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if pending, _ = repo.GetPendingSync(ctx, 10); len(pending) != 1 || pending[0].Version != 2 {
		t.Fatalf("expected version 2 pending, got %+v", pending)
	}

	snap, err := repo.DeleteExpense(ctx, e.ID)
	if err != nil {
		t.Fatalf("delete expense: %v", err)
	}
	if snap.Description != "Flyers" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if _, err := repo.GetExpense(ctx, e.ID); !errors.Is(err, store.ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound after delete, got %v", err)
	}
	if pending, _ = repo.GetPendingSync(ctx, 10); len(pending) != 0 {
		t.Fatalf("deleted expense must not be pending, got %d", len(pending))
	}
}

func TestSyncErrorRetry(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	clock := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	e := core.Expense{Date: core.NewDate(2025, 6, 1), Description: "Stand", Amount: core.Cents(900), Category: "Events", Status: core.ExpensePaid}
	if err := repo.CreateExpense(ctx, &e); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if err := repo.MarkSyncError(ctx, e.ID, "sheet unavailable"); err != nil {
		t.Fatalf("mark sync error: %v", err)
	}
	if pending, _ := repo.GetPendingSync(ctx, 10); len(pending) != 0 {
		t.Fatalf("errored expense should wait for its retry time, got %+v", pending)
	}

	clock = clock.Add(time.Minute)
	if pending, _ := repo.GetPendingSync(ctx, 10); len(pending) != 1 {
		t.Fatalf("errored expense should be retried after the backoff, got %+v", pending)
	}

	for i := 1; i < store.MaxSyncAttempts; i++ {
		if err := repo.MarkSyncError(ctx, e.ID, "sheet unavailable"); err != nil {
			t.Fatalf("mark sync error: %v", err)
		}
	}
	clock = clock.Add(24 * time.Hour)
	if pending, _ := repo.GetPendingSync(ctx, 10); len(pending) != 0 {
		t.Fatalf("expense past the attempt limit should not be retried, got %+v", pending)
	}

	if err := repo.UpdateExpense(ctx, &e); err != nil {
		t.Fatalf("update expense: %v", err)
	}
	if pending, _ := repo.GetPendingSync(ctx, 10); len(pending) != 1 || pending[0].Version != 2 {
		t.Fatalf("edit should reset the retry budget, got %+v", pending)
	}

	if err := repo.MarkSyncError(ctx, 404, "gone"); !errors.Is(err, store.ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound, got %v", err)
	}
}

func TestListExpensesFilters(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	add := func(y, m, d int, cat string, status core.ExpenseStatus) {
		t.Helper()
		e := core.Expense{Date: core.NewDate(y, m, d), Description: "e", Amount: core.Cents(100), Category: cat, Status: status}
		if err := repo.CreateExpense(ctx, &e); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	add(2025, 1, 5, "Print", core.ExpensePaid)
	add(2025, 1, 20, "Events", core.ExpensePlanned)
	add(2025, 2, 1, "Print", core.ExpensePaid)
	add(2024, 12, 31, "Print", core.ExpensePaid)

	cases := []struct {
		name string
		f    store.ExpenseFilter
		want int
	}{
		{"year", store.ExpenseFilter{Year: 2025}, 3},
		{"month", store.ExpenseFilter{Year: 2025, Month: 1}, 2},
		{"category", store.ExpenseFilter{Category: "Print"}, 3},
		{"status", store.ExpenseFilter{Year: 2025, Status: core.ExpensePlanned}, 1},
		{"limit", store.ExpenseFilter{Limit: 2}, 2},
		{"offset only", store.ExpenseFilter{Offset: 3}, 1},
	}
	for _, tc := range cases {
		got, err := repo.ListExpenses(ctx, tc.f)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if len(got) != tc.want {
			t.Errorf("%s: got %d, want %d", tc.name, len(got), tc.want)
		}
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	u := core.User{ExternalID: "ext-1", Email: "anna@example.com", Name: "Anna", Role: core.RoleManager, PasswordHash: "hash", Active: true}
	if err := repo.CreateUser(ctx, &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	dup := core.User{ExternalID: "ext-2", Email: "ANNA@example.com", Name: "Other", Role: core.RoleViewer}
	if err := repo.CreateUser(ctx, &dup); !errors.Is(err, store.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}

	u.Role = core.RoleAdmin
	u.PasswordHash = ""
	if err := repo.UpdateUser(ctx, &u); err != nil {
		t.Fatalf("update user: %v", err)
	}
	got, err := repo.GetUserByEmail(ctx, "anna@EXAMPLE.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.Role != core.RoleAdmin || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user %+v", got)
	}
	if _, err := repo.GetUserByExternalID(ctx, "nope"); !store.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEmployees(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	e := core.Employee{FirstName: "Luca", LastName: "Neri", Department: "Brand", MonthlyCost: core.Cents(300000), StartDate: core.NewDate(2024, 1, 1)}
	if err := repo.CreateEmployee(ctx, &e); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !e.EndDate.IsEmpty() {
		t.Fatalf("expected empty end date")
	}
	e.EndDate = core.NewDate(2025, 6, 30)
	if err := repo.UpdateEmployee(ctx, &e); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := repo.GetEmployee(ctx, e.ID)
	if got.EndDate.String() != "2025-06-30" {
		t.Fatalf("end date not stored: %q", got.EndDate.String())
	}
	if err := repo.DeleteEmployee(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteEmployee(ctx, e.ID); !errors.Is(err, store.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}
