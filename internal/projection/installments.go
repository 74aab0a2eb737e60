package projection

import "budgetdesk/internal/core"

// Installment is one scheduled billing of a line item.
type Installment struct {
	Seq    int        `json:"seq"`
	Due    core.Date  `json:"due"`
	Amount core.Money `json:"amount_cents"`
}

// Installments builds the billing schedule of a line item.
//
// One-off items bill once on the start date. Periodic items bill on the start
// date and then every 1, 3 or 12 months while the due date is not after the end
// date, keeping the start day of month clamped to shorter months. The amount is
// split evenly and remainder cents go to the first installments. An end date
// before the start date yields no installments.
func Installments(item core.LineItem) []Installment {
	if item.Amount.Cents <= 0 || item.StartDate.IsEmpty() {
		return nil
	}
	var dues []core.Date
	step := item.Billing.StepMonths()
	if step == 0 {
		dues = []core.Date{item.StartDate}
	} else {
		end := item.EndDate
		if end.IsEmpty() {
			end = item.StartDate
		}
		for k := 0; ; k++ {
			due := item.StartDate.AddMonthsClamped(k * step)
			if due.After(end.Time) {
				break
			}
			dues = append(dues, due)
		}
	}

	if len(dues) == 0 {
		return nil
	}
	n := int64(len(dues))
	base, rem := item.Amount.Cents/n, item.Amount.Cents%n
	out := make([]Installment, 0, len(dues))
	for i, due := range dues {
		cents := base
		if int64(i) < rem {
			cents++
		}
		out = append(out, Installment{Seq: i + 1, Due: due, Amount: core.Cents(cents)})
	}
	return out
}

// DueBetween returns the installments with after < due <= upTo. An empty after
// means no lower bound.
func DueBetween(installments []Installment, after, upTo core.Date) []Installment {
	var out []Installment
	for _, in := range installments {
		if !after.IsEmpty() && !in.Due.After(after.Time) {
			continue
		}
		if in.Due.After(upTo.Time) {
			continue
		}
		out = append(out, in)
	}
	return out
}
