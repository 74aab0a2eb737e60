package projection

import (
	"github.com/shopspring/decimal"

	"budgetdesk/internal/core"
)

// BurnStats holds budget tracking and year-end projection data.
type BurnStats struct {
	Spent            core.Money      `json:"spent_cents"`
	Budget           core.Money      `json:"budget_cents"`
	DaysElapsed      int             `json:"days_elapsed"`
	DaysRemaining    int             `json:"days_remaining"`
	DailyBurnRate    core.Money      `json:"daily_burn_rate_cents"`
	Projected        core.Money      `json:"projected_cents"`
	UsedPercent      decimal.Decimal `json:"used_percent"`
	ProjectedPercent decimal.Decimal `json:"projected_percent"`
	OnTrack          bool            `json:"on_track"`
}

// Burn computes the daily burn rate of spent at asOf and extrapolates it to
// the end of year. Before the year starts nothing has elapsed and the
// projection equals spent.
func Burn(spent, budget core.Money, asOf core.Date, year int) BurnStats {
	start, end := core.NewDate(year, 1, 1), core.NewDate(year, 12, 31)
	daysInYear := start.DaysUntil(end)

	elapsed := 0
	switch {
	case asOf.Before(start.Time):
	case asOf.After(end.Time):
		elapsed = daysInYear
	default:
		elapsed = start.DaysUntil(asOf)
	}

	s := BurnStats{
		Spent:         spent,
		Budget:        budget,
		DaysElapsed:   elapsed,
		DaysRemaining: daysInYear - elapsed,
		Projected:     spent,
		UsedPercent:   Percent(spent, budget),
	}
	if elapsed > 0 {
		rate := decimal.NewFromInt(spent.Cents).Div(decimal.NewFromInt(int64(elapsed)))
		s.DailyBurnRate = core.Cents(rate.Round(0).IntPart())
		s.Projected = core.Cents(rate.Mul(decimal.NewFromInt(int64(daysInYear))).Round(0).IntPart())
	}
	s.ProjectedPercent = Percent(s.Projected, budget)
	s.OnTrack = budget.Cents == 0 || s.Projected.Cents <= budget.Cents
	return s
}
