package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetdesk/internal/core"
	"budgetdesk/internal/store"
)

func TestNewFromFileLoadsSeed(t *testing.T) {
	ctx := context.Background()
	s, err := NewFromFile(ctx, "testdata/seed.yaml")
	require.NoError(t, err)

	suppliers, err := s.ListSuppliers(ctx)
	require.NoError(t, err)
	require.Len(t, suppliers, 2)
	assert.Equal(t, "Blue Hall Events", suppliers[0].Name)

	contracts, err := s.ListContracts(ctx, store.ContractFilter{Status: core.ContractActive})
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	c := contracts[0]
	require.Len(t, c.LineItems, 2)
	assert.Equal(t, int64(1200000), c.LineItems[0].Amount.Cents)
	assert.Equal(t, core.BillingOnce, c.LineItems[1].Billing)
	assert.Equal(t, c.ID, c.LineItems[1].ContractID)

	budgets, err := s.ListBudgets(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, budgets, 2)
	assert.Equal(t, int64(150000*11+300000), budgets[0].Total().Cents)
	assert.Len(t, budgets[1].Allocations, 2)

	expenses, err := s.ListExpenses(ctx, store.ExpenseFilter{Year: 2025, Status: core.ExpensePlanned})
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, int64(720050), expenses[0].Amount.Cents)

	u, err := s.GetUserByEmail(ctx, "ADMIN@budgetdesk.example")
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, u.Role)
}

func TestLoadRejectsUnknownSupplier(t *testing.T) {
	seed, err := ParseSeed([]byte(`
contracts:
  - supplier: Nobody
    title: Orphan
    start: 2025-01-01
    end: 2025-02-01
`))
	require.NoError(t, err)
	err = New().Load(context.Background(), seed)
	assert.ErrorContains(t, err, "unknown supplier")
}

func TestSupplierLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	sup := core.Supplier{Name: "Acme"}
	require.NoError(t, s.CreateSupplier(ctx, &sup))
	dup := core.Supplier{Name: "acme"}
	assert.ErrorIs(t, s.CreateSupplier(ctx, &dup), store.ErrSupplierExists)

	c := core.Contract{SupplierID: sup.ID, Title: "Print", StartDate: core.NewDate(2025, 1, 1), EndDate: core.NewDate(2025, 6, 30), Status: core.ContractDraft}
	require.NoError(t, s.CreateContract(ctx, &c))

	err := s.DeleteSupplier(ctx, sup.ID)
	assert.ErrorIs(t, err, store.ErrInUse)
	assert.True(t, store.IsConflict(err))

	require.NoError(t, s.DeleteContract(ctx, c.ID))
	require.NoError(t, s.DeleteSupplier(ctx, sup.ID))
	_, err = s.GetSupplier(ctx, sup.ID)
	assert.True(t, store.IsNotFound(err))
}

func TestLineItems(t *testing.T) {
	ctx := context.Background()
	s := New()
	sup := core.Supplier{Name: "Acme"}
	require.NoError(t, s.CreateSupplier(ctx, &sup))
	c := core.Contract{SupplierID: sup.ID, Title: "Retainer", StartDate: core.NewDate(2025, 1, 1), EndDate: core.NewDate(2025, 12, 31), Status: core.ContractActive}
	require.NoError(t, s.CreateContract(ctx, &c))

	li := core.LineItem{Description: "Fee", Category: "Agency", Amount: core.Cents(100), StartDate: c.StartDate, EndDate: c.EndDate, Billing: core.BillingMonthly}
	require.NoError(t, s.AddLineItem(ctx, c.ID, &li))
	require.NoError(t, s.MarkLineItemPosted(ctx, li.ID, core.NewDate(2025, 3, 1)))

	got, err := s.GetContract(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.LineItems, 1)
	assert.Equal(t, core.NewDate(2025, 3, 1), got.LineItems[0].LastPostedDate)

	e := core.Expense{Date: core.NewDate(2025, 1, 1), Description: "Fee", Amount: core.Cents(100), Category: "Agency", ContractID: c.ID, LineItemID: li.ID, Status: core.ExpensePlanned}
	require.NoError(t, s.CreateExpense(ctx, &e))
	assert.ErrorIs(t, s.DeleteLineItem(ctx, c.ID, li.ID), store.ErrInUse)

	_, err = s.DeleteExpense(ctx, e.ID)
	require.NoError(t, err)
	require.NoError(t, s.DeleteLineItem(ctx, c.ID, li.ID))
	assert.ErrorIs(t, s.DeleteLineItem(ctx, c.ID, li.ID), store.ErrLineItemNotFound)
}

func TestExpenseVersioningAndSync(t *testing.T) {
	ctx := context.Background()
	s := New()

	e := core.Expense{Date: core.NewDate(2025, 2, 1), Description: "Banner", Amount: core.Cents(2500), Category: "Print", Status: core.ExpensePaid}
	require.NoError(t, s.CreateExpense(ctx, &e))
	assert.Equal(t, int64(1), e.Version)

	pending, err := s.GetPendingSync(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NoError(t, s.MarkSynced(ctx, e.ID, 1))
	pending, _ = s.GetPendingSync(ctx, 10)
	assert.Empty(t, pending)

	stale := e
	e.Amount = core.Cents(3000)
	require.NoError(t, s.UpdateExpense(ctx, &e))
	assert.Equal(t, int64(2), e.Version)
	assert.ErrorIs(t, s.UpdateExpense(ctx, &stale), store.ErrVersionMismatch)

	pending, _ = s.GetPendingSync(ctx, 10)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(2), pending[0].Version)

	require.NoError(t, s.MarkSyncError(ctx, e.ID, "sheet unavailable"))
	pending, _ = s.GetPendingSync(ctx, 10)
	assert.Empty(t, pending)

	snap, err := s.DeleteExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Banner", snap.Description)
	_, err = s.GetExpense(ctx, e.ID)
	assert.ErrorIs(t, err, store.ErrExpenseNotFound)
}

func TestSyncErrorBackoff(t *testing.T) {
	ctx := context.Background()
	s := New()
	clock := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	e := core.Expense{Date: core.NewDate(2025, 6, 1), Description: "Stand", Amount: core.Cents(900), Category: "Events", Status: core.ExpensePaid}
	require.NoError(t, s.CreateExpense(ctx, &e))
	require.NoError(t, s.MarkSyncError(ctx, e.ID, "sheet unavailable"))

	pending, _ := s.GetPendingSync(ctx, 10)
	assert.Empty(t, pending, "waits for the retry time")

	clock = clock.Add(time.Minute)
	pending, _ = s.GetPendingSync(ctx, 10)
	require.Len(t, pending, 1, "retried once the backoff has passed")

	for i := 1; i < store.MaxSyncAttempts; i++ {
		require.NoError(t, s.MarkSyncError(ctx, e.ID, "sheet unavailable"))
	}
	clock = clock.Add(24 * time.Hour)
	pending, _ = s.GetPendingSync(ctx, 10)
	assert.Empty(t, pending, "gives up after the attempt limit")

	require.NoError(t, s.UpdateExpense(ctx, &e))
	pending, _ = s.GetPendingSync(ctx, 10)
	require.Len(t, pending, 1, "an edit starts over")
	assert.Equal(t, int64(2), pending[0].Version)
}

func TestListExpensesFilterAndPage(t *testing.T) {
	ctx := context.Background()
	s := New()
	for day := 1; day <= 5; day++ {
		e := core.Expense{Date: core.NewDate(2025, 3, day), Description: "Ad", Amount: core.Cents(int64(day)), Category: "Ads", Status: core.ExpensePaid}
		require.NoError(t, s.CreateExpense(ctx, &e))
	}
	other := core.Expense{Date: core.NewDate(2025, 4, 1), Description: "Ad", Amount: core.Cents(9), Category: "Ads", Status: core.ExpensePaid}
	require.NoError(t, s.CreateExpense(ctx, &other))

	got, err := s.ListExpenses(ctx, store.ExpenseFilter{Year: 2025, Month: 3, Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 4, got[0].Date.Day(), "newest first")
	assert.Equal(t, 3, got[1].Date.Day())
}

func TestUserEmailUnique(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := core.User{Email: "a@example.com", Name: "A", Role: core.RoleViewer, PasswordHash: "h"}
	require.NoError(t, s.CreateUser(ctx, &u))
	v := core.User{Email: "b@example.com", Name: "B", Role: core.RoleViewer}
	require.NoError(t, s.CreateUser(ctx, &v))

	v.Email = "A@example.com"
	assert.ErrorIs(t, s.UpdateUser(ctx, &v), store.ErrEmailExists)

	u.Name = "Anna"
	u.PasswordHash = ""
	require.NoError(t, s.UpdateUser(ctx, &u))
	got, _ := s.GetUser(ctx, u.ID)
	assert.Equal(t, "h", got.PasswordHash, "empty hash keeps the stored password")
}
