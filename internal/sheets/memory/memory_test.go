package memory

import (
	"context"
	"errors"
	"testing"

	"budgetdesk/internal/core"
	ports "budgetdesk/internal/sheets"
)

func row(id int64, y, m, d int, cents int64) ports.LedgerRow {
	return ports.LedgerRow{
		ID:          id,
		Date:        core.NewDate(y, m, d),
		Description: "t",
		Amount:      core.Cents(cents),
		Category:    "A",
		Status:      core.ExpensePaid,
	}
}

func TestLedgerAppendReplacesAndOrders(t *testing.T) {
	ctx := context.Background()
	l := New()

	for _, r := range []ports.LedgerRow{row(2, 2025, 3, 1, 100), row(1, 2025, 1, 5, 200), row(2, 2025, 2, 1, 300)} {
		if _, err := l.Append(ctx, r); err != nil {
			t.Fatalf("append %d: %v", r.ID, err)
		}
	}

	rows := l.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ID != 1 || rows[1].Amount.Cents != 300 {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if l.Appends() != 3 {
		t.Fatalf("expected 3 appends, got %d", l.Appends())
	}
	if got := l.Total(2025).Cents; got != 500 {
		t.Fatalf("total: got %d", got)
	}
}

func TestLedgerValidationAndFailure(t *testing.T) {
	ctx := context.Background()
	l := New()

	if _, err := l.Append(ctx, row(0, 2025, 1, 1, 100)); !errors.Is(err, ports.ErrInvalidRow) {
		t.Fatalf("expected ErrInvalidRow, got %v", err)
	}

	l.Fail = errors.New("offline")
	if _, err := l.Append(ctx, row(1, 2025, 1, 1, 100)); err == nil {
		t.Fatal("expected injected failure")
	}
	if err := l.Delete(ctx, 1, 2025); err == nil {
		t.Fatal("expected injected failure on delete")
	}
}

func TestLedgerDeleteByYear(t *testing.T) {
	ctx := context.Background()
	l := New()
	if _, err := l.Append(ctx, row(1, 2025, 6, 1, 100)); err != nil {
		t.Fatal(err)
	}

	if err := l.Delete(ctx, 1, 2024); err != nil {
		t.Fatal(err)
	}
	if _, ok := l.Row(1); !ok {
		t.Fatal("row of another year must survive")
	}
	if err := l.Delete(ctx, 1, 2025); err != nil {
		t.Fatal(err)
	}
	if _, ok := l.Row(1); ok {
		t.Fatal("row should be gone")
	}
}
