package google

import (
	"testing"
)

func TestParseBudgetSheet(t *testing.T) {
	values := [][]any{
		{"Category", "Name", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec", "Total"},
		{"Digital", "Paid social", 1500.0, 1500.0, "1.500,00", "", "", "", "", "", "", "", "", 3000},
		{"Events", "", "", "", "", "", "12000", "", "", "", "", "", "", ""},
		{"", "orphan row", 1, 2, 3},
		{"total", "", 1500, 1500, 1500, 0, 12000},
	}

	budgets, err := parseBudgetSheet(values, 2025)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if len(budgets) != 2 {
		t.Fatalf("expected 2 budgets, got %d", len(budgets))
	}

	digital := budgets[0]
	if digital.Name != "Paid social" || digital.Category != "Digital" || digital.Year != 2025 {
		t.Fatalf("unexpected header fields: %+v", digital)
	}
	if len(digital.Allocations) != 3 {
		t.Fatalf("expected 3 allocations, got %+v", digital.Allocations)
	}
	if digital.Total().Cents != 450000 {
		t.Fatalf("digital total: got %d", digital.Total().Cents)
	}

	events := budgets[1]
	if events.Name != "Events" {
		t.Fatalf("name should default to category, got %q", events.Name)
	}
	if got := events.AllocationFor(5).Cents; got != 1200000 {
		t.Fatalf("events May: got %d", got)
	}
}

func TestParseBudgetSheet_MissingHeaders(t *testing.T) {
	_, err := parseBudgetSheet([][]any{{"Category", "Jan", "Feb"}}, 2025)
	if err == nil {
		t.Fatal("expected header error")
	}
}

func TestParseBudgetSheet_BadAmount(t *testing.T) {
	values := [][]any{
		{"Category", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		{"Print", "lots"},
	}
	if _, err := parseBudgetSheet(values, 2025); err == nil {
		t.Fatal("expected amount error")
	}
}

func TestParseEurosToCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"1200", 120000, true},
		{"1200.5", 120050, true},
		{"1.200,50", 120050, true},
		{"€ 1,200.50", 120050, true},
		{"1.200", 120000, true},
		{"12.000", 1200000, true},
		{"1.200.000", 120000000, true},
		{"1.200,00", 120000, true},
		{"1.20", 120, true},
		{"1234.567", 123457, true},
		{"0,005", 1, true},
		{"", 0, false},
		{"-5", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseEurosToCents(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseEurosToCents(%q) = %d,%v want %d,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFindRowByID(t *testing.T) {
	values := [][]any{
		{"Date", "Description", "Amount", "Category", "Supplier", "Contract", "Status", "ID"},
		{"2025-01-02", "a", 1.0, "x", "", "", "paid", "41"},
		{"2025-01-03", "b", 1.0, "x"},
		{"2025-01-04", "c", 1.0, "x", "", "", "paid", "42"},
	}
	if got := findRowByID(values, 42); got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
	if got := findRowByID(values, 7); got != -1 {
		t.Fatalf("got %d, want -1", got)
	}
}
