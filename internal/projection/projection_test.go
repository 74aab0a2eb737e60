package projection

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetdesk/internal/core"
)

func d(y, m, day int) core.Date { return core.NewDate(y, m, day) }

func cents(parts []MonthAmount) []int64 {
	out := make([]int64, len(parts))
	for i, p := range parts {
		out[i] = p.Amount.Cents
	}
	return out
}

func TestAmortize(t *testing.T) {
	cases := []struct {
		name       string
		amount     int64
		start, end core.Date
		want       []int64
	}{
		{"single month", 10000, d(2025, 3, 1), d(2025, 3, 31), []int64{10000}},
		{"whole year by days", 120000, d(2025, 1, 1), d(2025, 12, 31),
			[]int64{10192, 9205, 10192, 9863, 10192, 9863, 10192, 10192, 9863, 10192, 9863, 10191}},
		{"partial months", 6000, d(2025, 1, 17), d(2025, 2, 14), []int64{3103, 2897}},
		{"remainder to earlier month on tie", 1, d(2025, 4, 1), d(2025, 5, 30), []int64{1, 0}},
		{"single day", 999, d(2025, 6, 15), d(2025, 6, 15), []int64{999}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parts := Amortize(core.Cents(tc.amount), tc.start, tc.end)
			assert.Equal(t, tc.want, cents(parts))
			assert.Equal(t, tc.amount, Sum(parts).Cents)
		})
	}
}

func TestAmortizeCrossesYears(t *testing.T) {
	parts := Amortize(core.Cents(3100+2800), d(2024, 12, 1), d(2025, 1, 31))
	require.Len(t, parts, 2)
	assert.Equal(t, core.Month{Year: 2024, Month: 12}, parts[0].Month)
	assert.Equal(t, 31, parts[0].Days)
	assert.Equal(t, int64(2950), parts[0].Amount.Cents)

	in2025 := InYear(parts, 2025)
	require.Len(t, in2025, 1)
	assert.Equal(t, int64(2950), in2025[0].Amount.Cents)
}

func TestAmortizeRejectsBadInput(t *testing.T) {
	assert.Nil(t, Amortize(core.Cents(100), d(2025, 2, 1), d(2025, 1, 1)))
	assert.Nil(t, Amortize(core.Cents(0), d(2025, 1, 1), d(2025, 2, 1)))
	assert.Nil(t, Amortize(core.Cents(100), core.Date{}, d(2025, 2, 1)))
}

func TestInstallments(t *testing.T) {
	item := core.LineItem{
		Amount:    core.Cents(1000),
		StartDate: d(2025, 1, 31),
		EndDate:   d(2025, 6, 30),
		Billing:   core.BillingMonthly,
	}
	want := []Installment{
		{Seq: 1, Due: d(2025, 1, 31), Amount: core.Cents(167)},
		{Seq: 2, Due: d(2025, 2, 28), Amount: core.Cents(167)},
		{Seq: 3, Due: d(2025, 3, 31), Amount: core.Cents(167)},
		{Seq: 4, Due: d(2025, 4, 30), Amount: core.Cents(167)},
		{Seq: 5, Due: d(2025, 5, 31), Amount: core.Cents(166)},
		{Seq: 6, Due: d(2025, 6, 30), Amount: core.Cents(166)},
	}
	if diff := cmp.Diff(want, Installments(item)); diff != "" {
		t.Fatalf("monthly schedule mismatch (-want +got):\n%s", diff)
	}

	item.Billing = core.BillingQuarterly
	item.StartDate = d(2025, 1, 1)
	item.EndDate = d(2025, 12, 31)
	got := Installments(item)
	require.Len(t, got, 4)
	assert.Equal(t, d(2025, 10, 1), got[3].Due)
	assert.Equal(t, int64(250), got[3].Amount.Cents)

	item.Billing = core.BillingOnce
	got = Installments(item)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1000), got[0].Amount.Cents)

	item.Billing = core.BillingYearly
	item.EndDate = d(2027, 1, 1)
	got = Installments(item)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{334, 333, 333}, []int64{got[0].Amount.Cents, got[1].Amount.Cents, got[2].Amount.Cents})

	item.Billing = core.BillingMonthly
	item.EndDate = d(2024, 12, 31)
	assert.Nil(t, Installments(item), "end before start bills nothing")
}

func TestDueBetween(t *testing.T) {
	sched := Installments(core.LineItem{
		Amount:    core.Cents(300),
		StartDate: d(2025, 1, 10),
		EndDate:   d(2025, 3, 31),
		Billing:   core.BillingMonthly,
	})
	got := DueBetween(sched, core.Date{}, d(2025, 2, 10))
	assert.Len(t, got, 2)
	got = DueBetween(sched, d(2025, 1, 10), d(2025, 3, 9))
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Seq)
}

func TestReconcile(t *testing.T) {
	budgets := []core.Budget{
		{Year: 2025, Category: "Events", Allocations: []core.Allocation{
			{Month: 1, Amount: core.Cents(10000)},
			{Month: 2, Amount: core.Cents(10000)},
		}},
		{Year: 2024, Category: "Events", Allocations: []core.Allocation{{Month: 1, Amount: core.Cents(99999)}}},
	}
	expenses := []core.Expense{
		{Date: d(2025, 1, 5), Amount: core.Cents(4000), Category: "Events", Status: core.ExpensePaid},
		{Date: d(2025, 1, 20), Amount: core.Cents(2000), Category: "Events", Status: core.ExpensePlanned},
		{Date: d(2025, 2, 1), Amount: core.Cents(500), Category: "Print", Status: core.ExpensePaid},
		{Date: d(2024, 2, 1), Amount: core.Cents(500), Category: "Events", Status: core.ExpensePaid},
	}
	commitments := []Commitment{
		{Category: "Events", Month: core.Month{Year: 2025, Month: 2}, Amount: core.Cents(12000)},
	}

	r := Reconcile(2025, budgets, expenses, commitments)
	require.Len(t, r.Categories, 2)
	assert.Equal(t, "Events", r.Categories[0].Category)
	assert.Equal(t, "Print", r.Categories[1].Category)

	jan := r.Categories[0].Months[0]
	assert.Equal(t, int64(10000), jan.Budget.Cents)
	assert.Equal(t, int64(4000), jan.Actual.Cents)
	assert.Equal(t, int64(2000), jan.Planned.Cents)
	assert.Equal(t, int64(4000), jan.Remaining.Cents)
	assert.Equal(t, int64(4000), jan.Variance.Cents)
	assert.True(t, decimal.NewFromInt(60).Equal(jan.UsedPercent))

	feb := r.Categories[0].Months[1]
	assert.Equal(t, int64(10000), feb.Remaining.Cents)
	assert.Equal(t, int64(-2000), feb.Variance.Cents, "commitment above budget is overspend")

	total := r.Categories[0].Total
	assert.Equal(t, 0, total.Month)
	assert.Equal(t, int64(20000), total.Budget.Cents)
	assert.Equal(t, int64(12000), total.Committed.Cents)
	assert.Equal(t, int64(14000), total.Remaining.Cents)
	assert.Equal(t, "30", total.UsedPercent.String())

	pr, ok := r.Category("Print")
	require.True(t, ok)
	assert.True(t, pr.Total.UsedPercent.IsZero(), "no budget means zero percent")
	assert.Equal(t, int64(-500), pr.Total.Remaining.Cents)

	assert.Equal(t, int64(20000), r.Total.Budget.Cents)
	assert.Equal(t, int64(4500), r.Total.Actual.Cents)
}

func TestContractCommitments(t *testing.T) {
	item := core.LineItem{Category: "Agency", Amount: core.Cents(3650), StartDate: d(2025, 1, 1), EndDate: d(2025, 12, 31)}
	contracts := []core.Contract{
		{Status: core.ContractActive, LineItems: []core.LineItem{item}},
		{Status: core.ContractDraft, LineItems: []core.LineItem{item}},
	}
	got := ContractCommitments(contracts, 2025)
	require.Len(t, got, 12)
	var total int64
	for _, c := range got {
		total += c.Amount.Cents
		assert.Equal(t, "Agency", c.Category)
	}
	assert.Equal(t, int64(3650), total)
	assert.Empty(t, ContractCommitments(contracts, 2026))
}

func TestSplitForecast(t *testing.T) {
	sched := []Installment{
		{Seq: 1, Due: d(2025, 1, 1), Amount: core.Cents(100)},
		{Seq: 2, Due: d(2025, 2, 1), Amount: core.Cents(100)},
		{Seq: 3, Due: d(2025, 3, 1), Amount: core.Cents(100)},
		{Seq: 4, Due: d(2025, 4, 1), Amount: core.Cents(100)},
	}
	f := SplitForecast(sched, []core.Money{core.Cents(100), core.Cents(50)}, d(2025, 3, 1))

	assert.Equal(t, int64(400), f.Total.Cents)
	assert.Equal(t, int64(150), f.Paid.Cents)
	assert.Equal(t, int64(150), f.Overdue.Cents)
	assert.Equal(t, int64(100), f.Future.Cents)
	assert.True(t, f.Unallocated.IsZero())

	states := make([]string, len(f.Rows))
	for i, r := range f.Rows {
		states[i] = r.State
	}
	assert.Equal(t, []string{StatePaid, StateOverdue, StateOverdue, StateFuture}, states)
	assert.Equal(t, int64(50), f.Rows[1].Paid.Cents)
	assert.Equal(t, int64(50), f.Rows[1].Outstanding.Cents)

	over := SplitForecast(sched[:1], []core.Money{core.Cents(130)}, d(2025, 1, 1))
	assert.Equal(t, int64(30), over.Unallocated.Cents)
	assert.True(t, over.Overdue.IsZero())
}

func TestEmployeeCost(t *testing.T) {
	e := core.Employee{
		MonthlyCost: core.Cents(310000),
		StartDate:   d(2025, 3, 17),
		EndDate:     d(2025, 10, 31),
	}
	got := EmployeeCost(e, 2025)
	require.Len(t, got, 12)
	assert.True(t, got[0].Amount.IsZero())
	assert.Equal(t, 15, got[2].Days)
	assert.Equal(t, int64(150000), got[2].Amount.Cents)
	assert.Equal(t, int64(310000), got[5].Amount.Cents)
	assert.Equal(t, int64(310000), got[9].Amount.Cents)
	assert.True(t, got[10].Amount.IsZero())

	depts := PayrollByDepartment([]core.Employee{
		{Department: "Brand", MonthlyCost: core.Cents(100), StartDate: d(2020, 1, 1)},
		{Department: "Digital", MonthlyCost: core.Cents(200), StartDate: d(2020, 1, 1)},
		{Department: "Brand", MonthlyCost: core.Cents(50), StartDate: d(2020, 1, 1)},
	}, 2025)
	require.Len(t, depts, 2)
	assert.Equal(t, core.CategoryAmount{Name: "Brand", Amount: core.Cents(1800)}, depts[0])

	depts = PayrollByDepartment([]core.Employee{
		{Department: "Brand", MonthlyCost: core.Cents(100), StartDate: d(2020, 1, 1)},
		{Department: "Events", MonthlyCost: core.Cents(300), StartDate: d(2020, 1, 1), EndDate: d(2023, 6, 30)},
	}, 2025)
	assert.Equal(t, []core.CategoryAmount{{Name: "Brand", Amount: core.Cents(1200)}}, depts,
		"departments with no cost in the year are left out")
}

func TestBurn(t *testing.T) {
	s := Burn(core.Cents(100000), core.Cents(300000), d(2025, 4, 10), 2025)
	assert.Equal(t, 100, s.DaysElapsed)
	assert.Equal(t, 265, s.DaysRemaining)
	assert.Equal(t, int64(1000), s.DailyBurnRate.Cents)
	assert.Equal(t, int64(365000), s.Projected.Cents)
	assert.False(t, s.OnTrack)
	assert.Equal(t, "33.3", s.UsedPercent.String())

	before := Burn(core.Cents(500), core.Cents(1000), d(2024, 12, 31), 2025)
	assert.Equal(t, 0, before.DaysElapsed)
	assert.Equal(t, int64(500), before.Projected.Cents)
	assert.True(t, before.OnTrack)

	after := Burn(core.Cents(36500), core.Cents(0), d(2026, 2, 1), 2025)
	assert.Equal(t, 365, after.DaysElapsed)
	assert.Equal(t, int64(36500), after.Projected.Cents)
}
