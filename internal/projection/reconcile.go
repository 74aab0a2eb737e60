package projection

import (
	"sort"

	"github.com/shopspring/decimal"

	"budgetdesk/internal/core"
)

// Commitment is contracted cost attributed to one category and month.
type Commitment struct {
	Category string
	Month    core.Month
	Amount   core.Money
}

// ReconcileRow compares budget against spend for one category and month.
// Month is 1-12, or 0 on the year total row.
type ReconcileRow struct {
	Month       int             `json:"month"`
	Budget      core.Money      `json:"budget_cents"`
	Actual      core.Money      `json:"actual_cents"`
	Planned     core.Money      `json:"planned_cents"`
	Committed   core.Money      `json:"committed_cents"`
	Remaining   core.Money      `json:"remaining_cents"`
	Variance    core.Money      `json:"variance_cents"`
	UsedPercent decimal.Decimal `json:"used_percent"`
}

// CategoryReconciliation holds the twelve monthly rows of a category and their total.
type CategoryReconciliation struct {
	Category string         `json:"category"`
	Months   []ReconcileRow `json:"months"`
	Total    ReconcileRow   `json:"total"`
}

// Reconciliation is the per-category comparison for a budget year.
type Reconciliation struct {
	Year       int                      `json:"year"`
	Categories []CategoryReconciliation `json:"categories"`
	Total      ReconcileRow             `json:"total"`
}

// ContractCommitments amortizes the line items of every non-draft contract and
// keeps the parts that fall in year.
func ContractCommitments(contracts []core.Contract, year int) []Commitment {
	var out []Commitment
	for _, c := range contracts {
		if c.Status == core.ContractDraft {
			continue
		}
		for _, li := range c.LineItems {
			for _, p := range InYear(Amortize(li.Amount, li.StartDate, li.EndDate), year) {
				out = append(out, Commitment{Category: li.Category, Month: p.Month, Amount: p.Amount})
			}
		}
	}
	return out
}

// Reconcile compares budget allocations, expenses and contract commitments per
// category for each month of year.
//
// Paid expenses count as Actual, planned expenses as Planned.
// Remaining = Budget - Actual - Planned.
// Variance = Budget - max(Actual+Planned, Committed); negative means overspend.
func Reconcile(year int, budgets []core.Budget, expenses []core.Expense, commitments []Commitment) Reconciliation {
	byCat := map[string]*[12]ReconcileRow{}
	rows := func(cat string) *[12]ReconcileRow {
		r, ok := byCat[cat]
		if !ok {
			r = &[12]ReconcileRow{}
			for i := range r {
				r[i].Month = i + 1
			}
			byCat[cat] = r
		}
		return r
	}

	for _, b := range budgets {
		if b.Year != year {
			continue
		}
		r := rows(b.Category)
		for _, a := range b.Allocations {
			if a.Month >= 1 && a.Month <= 12 {
				r[a.Month-1].Budget = r[a.Month-1].Budget.Add(a.Amount)
			}
		}
	}
	for _, e := range expenses {
		if e.Date.Year() != year {
			continue
		}
		row := &rows(e.Category)[e.Date.Month()-1]
		switch e.Status {
		case core.ExpensePaid:
			row.Actual = row.Actual.Add(e.Amount)
		case core.ExpensePlanned:
			row.Planned = row.Planned.Add(e.Amount)
		}
	}
	for _, c := range commitments {
		if c.Month.Year != year {
			continue
		}
		row := &rows(c.Category)[c.Month.Month-1]
		row.Committed = row.Committed.Add(c.Amount)
	}

	cats := make([]string, 0, len(byCat))
	for cat := range byCat {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	out := Reconciliation{Year: year, Categories: make([]CategoryReconciliation, 0, len(cats))}
	var grand ReconcileRow
	for _, cat := range cats {
		r := byCat[cat]
		cr := CategoryReconciliation{Category: cat, Months: make([]ReconcileRow, 12)}
		for i := range r {
			finish(&r[i])
			cr.Months[i] = r[i]
			accumulate(&cr.Total, r[i])
		}
		finish(&cr.Total)
		accumulate(&grand, cr.Total)
		out.Categories = append(out.Categories, cr)
	}
	finish(&grand)
	out.Total = grand
	return out
}

// Category returns the reconciliation of one category, if present.
func (r Reconciliation) Category(name string) (CategoryReconciliation, bool) {
	for _, c := range r.Categories {
		if c.Category == name {
			return c, true
		}
	}
	return CategoryReconciliation{}, false
}

func accumulate(dst *ReconcileRow, src ReconcileRow) {
	dst.Budget = dst.Budget.Add(src.Budget)
	dst.Actual = dst.Actual.Add(src.Actual)
	dst.Planned = dst.Planned.Add(src.Planned)
	dst.Committed = dst.Committed.Add(src.Committed)
}

func finish(r *ReconcileRow) {
	spent := r.Actual.Add(r.Planned)
	r.Remaining = r.Budget.Sub(spent)
	exposure := spent
	if r.Committed.Cents > exposure.Cents {
		exposure = r.Committed
	}
	r.Variance = r.Budget.Sub(exposure)
	r.UsedPercent = Percent(spent, r.Budget)
}

// Percent returns part/whole*100 rounded to one decimal, 0 when whole is zero.
func Percent(part, whole core.Money) decimal.Decimal {
	if whole.Cents == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part.Cents).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(whole.Cents)).
		Round(1)
}
