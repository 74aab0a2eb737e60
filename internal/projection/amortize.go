// Package projection spreads contract, budget and payroll amounts over calendar
// months and compares them against recorded spend.
//
// Every function is pure: inputs are domain values, outputs are new slices.
// Amounts are integer cents and every split sums back exactly to its input.
package projection

import (
	"sort"

	"github.com/shopspring/decimal"

	"budgetdesk/internal/core"
)

// MonthAmount is the share of an amount that falls in one calendar month.
type MonthAmount struct {
	Month  core.Month `json:"month"`
	Days   int        `json:"days"`
	Amount core.Money `json:"amount_cents"`
}

// Amortize distributes amount across the calendar months touched by [start, end],
// weighted by the number of covered days in each month.
//
// Shares are truncated to cents and the leftover cents go to the months with the
// largest truncated remainder; ties go to the earlier month. The result always
// sums to amount. A reversed range or a non-positive amount yields nil.
func Amortize(amount core.Money, start, end core.Date) []MonthAmount {
	if amount.Cents <= 0 || start.IsEmpty() || end.IsEmpty() || end.Before(start.Time) {
		return nil
	}
	totalDays := decimal.NewFromInt(int64(start.DaysUntil(end)))
	total := decimal.NewFromInt(amount.Cents)

	type share struct {
		idx int
		rem decimal.Decimal
	}
	var (
		parts     []MonthAmount
		shares    []share
		allocated int64
	)
	last := end.CalendarMonth()
	for m := start.CalendarMonth(); !last.Before(m); m = m.Next() {
		from, to := m.Start(), m.End()
		if from.Before(start.Time) {
			from = start
		}
		if to.After(end.Time) {
			to = end
		}
		days := from.DaysUntil(to)
		q, r := total.Mul(decimal.NewFromInt(int64(days))).QuoRem(totalDays, 0)
		cents := q.IntPart()
		allocated += cents
		parts = append(parts, MonthAmount{Month: m, Days: days, Amount: core.Cents(cents)})
		shares = append(shares, share{idx: len(parts) - 1, rem: r})
	}

	leftover := amount.Cents - allocated
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].rem.GreaterThan(shares[j].rem)
	})
	for i := 0; int64(i) < leftover; i++ {
		p := &parts[shares[i%len(shares)].idx]
		p.Amount.Cents++
	}
	return parts
}

// InYear keeps only the parts that fall in year.
func InYear(parts []MonthAmount, year int) []MonthAmount {
	var out []MonthAmount
	for _, p := range parts {
		if p.Month.Year == year {
			out = append(out, p)
		}
	}
	return out
}

// Sum adds up the amounts of parts.
func Sum(parts []MonthAmount) core.Money {
	var total core.Money
	for _, p := range parts {
		total = total.Add(p.Amount)
	}
	return total
}
