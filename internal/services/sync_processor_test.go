package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"

	"budgetdesk/internal/core"
	sheetsmem "budgetdesk/internal/sheets/memory"
)

func fastSyncConfig() SyncProcessorConfig {
	return SyncProcessorConfig{PollInterval: time.Hour, BatchSize: 10, MaxRetries: 2, RetryDelay: 0}
}

func TestDefaultSyncProcessorConfig(t *testing.T) {
	config := DefaultSyncProcessorConfig()

	if config.PollInterval != time.Minute {
		t.Errorf("expected PollInterval 1m, got %v", config.PollInterval)
	}
	if config.BatchSize != 50 {
		t.Errorf("expected BatchSize 50, got %d", config.BatchSize)
	}
	if config.MaxRetries != 3 {
		t.Errorf("expected MaxRetries 3, got %d", config.MaxRetries)
	}

	p := NewSyncProcessor(nil, nil, SyncProcessorConfig{})
	if p.config.BatchSize != 50 || p.config.MaxRetries != 3 || p.config.PollInterval != time.Minute {
		t.Errorf("zero config should fall back to defaults, got %+v", p.config)
	}
}

func TestSyncProcessor_SyncExpense(t *testing.T) {
	f := newFixture(t)
	ledger := sheetsmem.New()
	p := NewSyncProcessor(f.store, ledger, fastSyncConfig())
	ctx := context.Background()

	e := expense(core.NewDate(2025, 2, 1), 100000, "Advertising")
	e.SupplierID = f.supplier.ID
	e.ContractID = f.contract.ID
	e.Status = core.ExpensePaid
	if err := f.store.CreateExpense(ctx, &e); err != nil {
		t.Fatal(err)
	}

	if err := p.SyncExpense(ctx, e.ID, e.Version); err != nil {
		t.Fatalf("SyncExpense: %v", err)
	}
	row, ok := ledger.Row(e.ID)
	if !ok {
		t.Fatal("row not written")
	}
	if row.Supplier != "Northwind Media" || row.Contract != "Digital retainer" || row.Amount.Cents != 100000 {
		t.Errorf("unexpected row %+v", row)
	}
	if pending, _ := f.store.GetPendingSync(ctx, 10); len(pending) != 0 {
		t.Errorf("expense should be synced, pending %+v", pending)
	}

	// a message for an expense deleted in the meantime is dropped
	if err := p.SyncExpense(ctx, 999, 1); err != nil {
		t.Fatalf("missing expense should be skipped, got %v", err)
	}
}

func TestSyncProcessor_SyncExpenseFailure(t *testing.T) {
	f := newFixture(t)
	ledger := sheetsmem.New()
	ledger.Fail = errors.New("quota exceeded")
	p := NewSyncProcessor(f.store, ledger, fastSyncConfig())
	ctx := context.Background()

	e := expense(core.NewDate(2025, 2, 1), 100, "Print")
	if err := f.store.CreateExpense(ctx, &e); err != nil {
		t.Fatal(err)
	}

	if err := p.SyncExpense(ctx, e.ID, e.Version); err == nil {
		t.Fatal("expected ledger error")
	}
	if pending, _ := f.store.GetPendingSync(ctx, 10); len(pending) != 0 {
		t.Fatalf("errored expenses wait out the retry backoff, got %+v", pending)
	}

	// editing clears the error and makes it pending again
	e.Amount = core.Cents(200)
	if err := f.store.UpdateExpense(ctx, &e); err != nil {
		t.Fatal(err)
	}
	if pending, _ := f.store.GetPendingSync(ctx, 10); len(pending) != 1 {
		t.Fatalf("edited expense should be pending, got %+v", pending)
	}
}

func TestSyncProcessor_DeleteExpense(t *testing.T) {
	f := newFixture(t)
	ledger := sheetsmem.New()
	p := NewSyncProcessor(f.store, ledger, fastSyncConfig())
	ctx := context.Background()

	e := expense(core.NewDate(2025, 6, 1), 500, "Print")
	if err := f.store.CreateExpense(ctx, &e); err != nil {
		t.Fatal(err)
	}
	if err := p.SyncExpense(ctx, e.ID, e.Version); err != nil {
		t.Fatal(err)
	}

	if err := p.DeleteExpense(ctx, e.ID, core.NewDate(2025, 6, 1)); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if _, ok := ledger.Row(e.ID); ok {
		t.Fatal("row should be gone")
	}
	if err := p.DeleteExpense(ctx, e.ID, core.Date{}); err == nil {
		t.Fatal("delete without a date should fail")
	}
}

func TestSyncProcessor_Backfill(t *testing.T) {
	f := newFixture(t)
	ledger := sheetsmem.New()
	p := NewSyncProcessor(f.store, ledger, fastSyncConfig())
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		e := expense(core.NewDate(2025, 1, i), int64(i*100), "Print")
		if err := f.store.CreateExpense(ctx, &e); err != nil {
			t.Fatal(err)
		}
	}

	n, err := p.Backfill(ctx)
	if err != nil {
		t.Fatalf("Backfill: %v", err)
	}
	if n != 3 || len(ledger.Rows()) != 3 {
		t.Fatalf("expected 3 synced rows, got %d and %d", n, len(ledger.Rows()))
	}
	if n, _ := p.Backfill(ctx); n != 0 {
		t.Fatalf("second backfill should find nothing, synced %d", n)
	}
}

func TestSyncProcessor_Lifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t)
	ledger := sheetsmem.New()
	p := NewSyncProcessor(f.store, ledger, fastSyncConfig())
	ctx := context.Background()

	e := expense(core.NewDate(2025, 1, 1), 100, "Print")
	if err := f.store.CreateExpense(ctx, &e); err != nil {
		t.Fatal(err)
	}

	if p.IsRunning() {
		t.Error("processor should not be running initially")
	}
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Error("expected error when starting already running processor")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if p.IsRunning() {
		t.Error("processor should be stopped")
	}
	if _, ok := ledger.Row(e.ID); !ok {
		t.Error("startup backfill should have synced the pending expense")
	}
}

func TestSyncProcessor_StopNotRunning(t *testing.T) {
	p := NewSyncProcessor(nil, nil, DefaultSyncProcessorConfig())
	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("Stop on idle processor should not error, got %v", err)
	}
}
