package projection

import "budgetdesk/internal/core"

const (
	StatePaid    = "paid"
	StateOverdue = "overdue"
	StateFuture  = "future"
)

// ForecastRow is one installment with the payments allocated to it.
type ForecastRow struct {
	Installment
	Paid        core.Money `json:"paid_cents"`
	Outstanding core.Money `json:"outstanding_cents"`
	State       string     `json:"state"`
}

// Forecast splits a billing schedule into paid, overdue and future money.
type Forecast struct {
	AsOf        core.Date     `json:"as_of"`
	Total       core.Money    `json:"total_cents"`
	Paid        core.Money    `json:"paid_cents"`
	Overdue     core.Money    `json:"overdue_cents"`
	Future      core.Money    `json:"future_cents"`
	Unallocated core.Money    `json:"unallocated_cents"`
	Rows        []ForecastRow `json:"rows"`
}

// SplitForecast allocates payments to installments in due-date order.
//
// A fully covered installment is paid. Otherwise its outstanding residual is
// overdue when due on or before asOf and future when due later. Payments
// exceeding the schedule are reported as Unallocated.
func SplitForecast(installments []Installment, payments []core.Money, asOf core.Date) Forecast {
	var pool int64
	for _, p := range payments {
		pool += p.Cents
	}
	f := Forecast{AsOf: asOf, Rows: make([]ForecastRow, 0, len(installments))}
	for _, in := range sortedByDue(installments) {
		row := ForecastRow{Installment: in}
		covered := min(pool, in.Amount.Cents)
		if covered < 0 {
			covered = 0
		}
		pool -= covered
		row.Paid = core.Cents(covered)
		row.Outstanding = in.Amount.Sub(row.Paid)
		switch {
		case row.Outstanding.Cents == 0:
			row.State = StatePaid
		case in.Due.After(asOf.Time):
			row.State = StateFuture
			f.Future = f.Future.Add(row.Outstanding)
		default:
			row.State = StateOverdue
			f.Overdue = f.Overdue.Add(row.Outstanding)
		}
		f.Total = f.Total.Add(in.Amount)
		f.Paid = f.Paid.Add(row.Paid)
		f.Rows = append(f.Rows, row)
	}
	if pool > 0 {
		f.Unallocated = core.Cents(pool)
	}
	return f
}

func sortedByDue(in []Installment) []Installment {
	out := append([]Installment(nil), in...)
	// insertion sort keeps equal due dates in schedule order
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Due.Before(out[j-1].Due.Time); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
