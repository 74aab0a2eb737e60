package services

import (
	"context"
	"errors"
	"testing"

	"budgetdesk/internal/core"
	"budgetdesk/internal/store"
)

func TestContractService_CreateContract(t *testing.T) {
	f := newFixture(t)
	inv := &recordingInvalidator{}
	svc := NewContractService(f.store, inv)
	ctx := context.Background()

	c := core.Contract{
		SupplierID: f.supplier.ID,
		Title:      "  Trade fair ",
		StartDate:  core.NewDate(2025, 5, 1),
		EndDate:    core.NewDate(2025, 5, 31),
		LineItems: []core.LineItem{{
			Description: "Booth",
			Category:    "Events",
			Amount:      core.Cents(800000),
			StartDate:   core.NewDate(2025, 5, 10),
			EndDate:     core.NewDate(2025, 5, 12),
		}},
	}
	if err := svc.CreateContract(ctx, &c); err != nil {
		t.Fatalf("CreateContract: %v", err)
	}
	if c.Status != core.ContractDraft || c.Title != "Trade fair" {
		t.Errorf("expected normalized draft, got %+v", c)
	}
	if c.LineItems[0].Billing != core.BillingOnce || c.LineItems[0].ID == 0 {
		t.Errorf("line item defaults not applied: %+v", c.LineItems[0])
	}
	if !inv.has(0) {
		t.Error("contract writes should invalidate every year")
	}

	outside := c
	outside.ID = 0
	outside.LineItems = []core.LineItem{{
		Description: "Late", Category: "Events", Amount: core.Cents(1),
		StartDate: core.NewDate(2025, 5, 30), EndDate: core.NewDate(2025, 6, 2),
	}}
	if err := svc.CreateContract(ctx, &outside); !errors.Is(err, core.ErrOutsideContract) {
		t.Fatalf("expected ErrOutsideContract, got %v", err)
	}

	orphan := core.Contract{SupplierID: 999, Title: "x", StartDate: c.StartDate, EndDate: c.EndDate}
	if err := svc.CreateContract(ctx, &orphan); !errors.Is(err, store.ErrSupplierNotFound) {
		t.Fatalf("expected ErrSupplierNotFound, got %v", err)
	}
}

func TestContractService_SetStatus(t *testing.T) {
	f := newFixture(t)
	svc := NewContractService(f.store, nil)
	ctx := context.Background()

	empty := core.Contract{SupplierID: f.supplier.ID, Title: "Empty", StartDate: core.NewDate(2025, 1, 1), EndDate: core.NewDate(2025, 2, 1)}
	if err := svc.CreateContract(ctx, &empty); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		id   int64
		next core.ContractStatus
		want error
	}{
		{"activation needs line items", empty.ID, core.ContractActive, core.ErrStatusTransition},
		{"unknown status", empty.ID, core.ContractStatus("paused"), core.ErrInvalidStatus},
		{"draft can close", empty.ID, core.ContractClosed, nil},
		{"closed is terminal", empty.ID, core.ContractActive, core.ErrStatusTransition},
		{"active stays active", f.contract.ID, core.ContractActive, nil},
		{"active can close", f.contract.ID, core.ContractClosed, nil},
		{"missing contract", 999, core.ContractClosed, store.ErrContractNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := svc.SetStatus(ctx, tt.id, tt.next)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if err == nil && c.Status != tt.next {
				t.Errorf("status = %s, want %s", c.Status, tt.next)
			}
		})
	}
}

func TestContractService_UpdateContract(t *testing.T) {
	f := newFixture(t)
	svc := NewContractService(f.store, nil)
	ctx := context.Background()

	upd := f.contract
	upd.Title = "Digital retainer v2"
	upd.Status = core.ContractClosed
	upd.LineItems = nil
	if err := svc.UpdateContract(ctx, &upd); err != nil {
		t.Fatalf("UpdateContract: %v", err)
	}
	got, err := svc.GetContract(ctx, f.contract.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Digital retainer v2" || got.Status != core.ContractActive || len(got.LineItems) != 2 {
		t.Fatalf("status and line items must be kept, got %+v", got)
	}

	shrink := got
	shrink.EndDate = core.NewDate(2025, 6, 30)
	if err := svc.UpdateContract(ctx, &shrink); !errors.Is(err, core.ErrOutsideContract) {
		t.Fatalf("shrinking below line items: got %v", err)
	}

	if _, err := svc.SetStatus(ctx, f.contract.ID, core.ContractClosed); err != nil {
		t.Fatal(err)
	}
	closed := got
	closed.Title = "again"
	if err := svc.UpdateContract(ctx, &closed); !errors.Is(err, core.ErrStatusTransition) {
		t.Fatalf("closed contracts are read-only, got %v", err)
	}
	li := core.LineItem{Description: "Extra", Category: "Advertising", Amount: core.Cents(100),
		StartDate: core.NewDate(2025, 2, 1), EndDate: core.NewDate(2025, 2, 1)}
	if err := svc.AddLineItem(ctx, f.contract.ID, &li); !errors.Is(err, core.ErrStatusTransition) {
		t.Fatalf("closed contracts take no line items, got %v", err)
	}
}

func TestContractService_LineItems(t *testing.T) {
	f := newFixture(t)
	svc := NewContractService(f.store, nil)
	ctx := context.Background()

	li := core.LineItem{Description: " Extra ", Category: "Advertising", Amount: core.Cents(5000),
		StartDate: core.NewDate(2025, 2, 1), EndDate: core.NewDate(2025, 2, 28), Billing: core.BillingOnce}
	if err := svc.AddLineItem(ctx, f.contract.ID, &li); err != nil {
		t.Fatalf("AddLineItem: %v", err)
	}
	if li.ID == 0 || li.Description != "Extra" {
		t.Fatalf("unexpected line item %+v", li)
	}

	bad := li
	bad.EndDate = core.NewDate(2026, 1, 1)
	if err := svc.AddLineItem(ctx, f.contract.ID, &bad); !errors.Is(err, core.ErrOutsideContract) {
		t.Fatalf("expected ErrOutsideContract, got %v", err)
	}

	if err := svc.DeleteLineItem(ctx, f.contract.ID, li.ID); err != nil {
		t.Fatalf("DeleteLineItem: %v", err)
	}
	c, _ := svc.GetContract(ctx, f.contract.ID)
	if len(c.LineItems) != 2 {
		t.Fatalf("expected 2 line items left, got %d", len(c.LineItems))
	}
}

func TestContractService_Schedule(t *testing.T) {
	f := newFixture(t)
	svc := NewContractService(f.store, nil)

	sched, err := svc.Schedule(context.Background(), f.contract.ID)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if sched.Total.Cents != 1650000 {
		t.Errorf("total = %d", sched.Total.Cents)
	}
	if len(sched.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(sched.Items))
	}
	retainer := sched.Items[0]
	if len(retainer.Installments) != 12 || retainer.Installments[0].Amount.Cents != 100000 {
		t.Errorf("unexpected retainer installments %+v", retainer.Installments)
	}
	if len(retainer.Amortization) != 12 {
		t.Errorf("expected 12 amortized months, got %d", len(retainer.Amortization))
	}
	video := sched.Items[1]
	if len(video.Installments) != 1 || len(video.Amortization) != 1 || video.Amortization[0].Amount.Cents != 450000 {
		t.Errorf("unexpected one-off schedule %+v", video)
	}
}

func TestContractService_Forecast(t *testing.T) {
	f := newFixture(t)
	svc := NewContractService(f.store, nil)
	expenses := NewExpenseService(f.store, nil, nil)
	ctx := context.Background()
	retainer := f.contract.LineItems[0]

	// two retainer months paid, one planned (not counted), one paid after asOf
	for _, p := range []struct {
		date   core.Date
		status core.ExpenseStatus
	}{
		{core.NewDate(2025, 1, 5), core.ExpensePaid},
		{core.NewDate(2025, 2, 5), core.ExpensePaid},
		{core.NewDate(2025, 3, 5), core.ExpensePlanned},
		{core.NewDate(2025, 5, 5), core.ExpensePaid},
	} {
		e := expense(p.date, 100000, "Advertising")
		e.ContractID = f.contract.ID
		e.LineItemID = retainer.ID
		e.Status = p.status
		if err := expenses.CreateExpense(ctx, &e); err != nil {
			t.Fatal(err)
		}
	}

	fc, err := svc.Forecast(ctx, f.contract.ID, core.NewDate(2025, 4, 15))
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if fc.Total.Cents != 1650000 {
		t.Errorf("total = %d", fc.Total.Cents)
	}
	if fc.Paid.Cents != 200000 {
		t.Errorf("paid = %d, want 200000", fc.Paid.Cents)
	}
	// Mar and Apr retainer plus the March video are overdue
	if fc.Overdue.Cents != 200000+450000 {
		t.Errorf("overdue = %d", fc.Overdue.Cents)
	}
	if fc.Future.Cents != 800000 {
		t.Errorf("future = %d", fc.Future.Cents)
	}
	if fc.Paid.Add(fc.Overdue).Add(fc.Future).Cents != fc.Total.Cents {
		t.Error("paid + overdue + future must equal total")
	}
}
