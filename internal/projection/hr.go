package projection

import (
	"github.com/shopspring/decimal"

	"budgetdesk/internal/core"
)

// EmployeeCost returns the twelve monthly costs of an employee in year.
// Hire and leave months are prorated by the days employed.
func EmployeeCost(e core.Employee, year int) []MonthAmount {
	out := make([]MonthAmount, 0, 12)
	for mo := 1; mo <= 12; mo++ {
		m := core.Month{Year: year, Month: mo}
		from, to := m.Start(), m.End()
		if e.StartDate.After(from.Time) {
			from = e.StartDate
		}
		if !e.EndDate.IsEmpty() && e.EndDate.Before(to.Time) {
			to = e.EndDate
		}
		days := from.DaysUntil(to)
		var amount core.Money
		switch {
		case days == 0:
		case days == m.Days():
			amount = e.MonthlyCost
		default:
			amount = core.Cents(decimal.NewFromInt(e.MonthlyCost.Cents).
				Mul(decimal.NewFromInt(int64(days))).
				Div(decimal.NewFromInt(int64(m.Days()))).
				Round(0).IntPart())
		}
		out = append(out, MonthAmount{Month: m, Days: days, Amount: amount})
	}
	return out
}

// PayrollByDepartment sums the yearly cost of employees per department.
// Employees who cost nothing in year are left out, so a department with no
// one employed that year does not appear.
func PayrollByDepartment(employees []core.Employee, year int) []core.CategoryAmount {
	totals := map[string]core.Money{}
	var order []string
	for _, e := range employees {
		cost := Sum(EmployeeCost(e, year))
		if cost.IsZero() {
			continue
		}
		if _, ok := totals[e.Department]; !ok {
			order = append(order, e.Department)
		}
		totals[e.Department] = totals[e.Department].Add(cost)
	}
	out := make([]core.CategoryAmount, 0, len(order))
	for _, d := range order {
		out = append(out, core.CategoryAmount{Name: d, Amount: totals[d]})
	}
	return out
}
