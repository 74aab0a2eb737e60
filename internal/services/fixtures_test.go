package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"budgetdesk/internal/core"
	"budgetdesk/internal/store/memory"
)

// recordingPublisher captures published messages.
type recordingPublisher struct {
	mu      sync.Mutex
	syncs   [][2]int64
	deletes []core.Expense
	fail    error
}

func (p *recordingPublisher) PublishExpenseSync(_ context.Context, id, version int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.syncs = append(p.syncs, [2]int64{id, version})
	return nil
}

func (p *recordingPublisher) PublishExpenseDelete(_ context.Context, e core.Expense) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.deletes = append(p.deletes, e)
	return nil
}

// recordingInvalidator captures invalidated years.
type recordingInvalidator struct {
	mu    sync.Mutex
	years []int
}

func (r *recordingInvalidator) Invalidate(year int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.years = append(r.years, year)
}

func (r *recordingInvalidator) has(year int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, y := range r.years {
		if y == year {
			return true
		}
	}
	return false
}

var errBroker = errors.New("broker unavailable")

type fixture struct {
	store    *memory.Store
	supplier core.Supplier
	contract core.Contract
}

// newFixture stores one supplier and an active contract for 2025 with a
// monthly retainer (12 x 1000.00) and a one-off item in March (4500.00).
func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	s := memory.New()

	sup := core.Supplier{Name: "Northwind Media", Category: "Advertising", Active: true}
	if err := s.CreateSupplier(ctx, &sup); err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	c := core.Contract{
		SupplierID: sup.ID,
		Title:      "Digital retainer",
		StartDate:  core.NewDate(2025, 1, 1),
		EndDate:    core.NewDate(2025, 12, 31),
		Status:     core.ContractActive,
		LineItems: []core.LineItem{
			{
				Description: "Retainer",
				Category:    "Advertising",
				Amount:      core.Cents(1200000),
				StartDate:   core.NewDate(2025, 1, 1),
				EndDate:     core.NewDate(2025, 12, 31),
				Billing:     core.BillingMonthly,
			},
			{
				Description: "Launch video",
				Category:    "Video",
				Amount:      core.Cents(450000),
				StartDate:   core.NewDate(2025, 3, 1),
				EndDate:     core.NewDate(2025, 3, 31),
				Billing:     core.BillingOnce,
			},
		},
	}
	if err := s.CreateContract(ctx, &c); err != nil {
		t.Fatalf("create contract: %v", err)
	}
	return fixture{store: s, supplier: sup, contract: c}
}

func expense(date core.Date, cents int64, category string) core.Expense {
	return core.Expense{Date: date, Description: "Expense " + category, Amount: core.Cents(cents), Category: category}
}
