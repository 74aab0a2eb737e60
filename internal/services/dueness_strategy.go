package services

// Dueness strategies decide which installments of a line item are ready to be
// posted as expenses. Each billing frequency has its own checker.

import (
	"fmt"
	"sync"

	"budgetdesk/internal/core"
	"budgetdesk/internal/projection"
)

// DuenessChecker returns the installments of item due on or before now that
// were not posted yet.
type DuenessChecker interface {
	DueInstallments(item core.LineItem, now core.Date) []projection.Installment
}

// OnceChecker handles one-off billing: the single installment is due on the
// start date and only until it has been posted.
type OnceChecker struct{}

func (OnceChecker) DueInstallments(item core.LineItem, now core.Date) []projection.Installment {
	if !item.LastPostedDate.IsEmpty() || item.StartDate.After(now.Time) {
		return nil
	}
	return projection.Installments(item)
}

// PeriodicChecker handles monthly, quarterly and yearly billing. Every missed
// installment since the last posted one is returned, so a processor that was
// down for a while catches up.
type PeriodicChecker struct {
	Months int
}

func (c PeriodicChecker) DueInstallments(item core.LineItem, now core.Date) []projection.Installment {
	if item.Billing.StepMonths() != c.Months {
		return nil
	}
	return projection.DueBetween(projection.Installments(item), item.LastPostedDate, now)
}

var (
	duenessMu         sync.RWMutex
	duenessStrategies = map[core.Billing]DuenessChecker{
		core.BillingOnce:      OnceChecker{},
		core.BillingMonthly:   PeriodicChecker{Months: 1},
		core.BillingQuarterly: PeriodicChecker{Months: 3},
		core.BillingYearly:    PeriodicChecker{Months: 12},
	}
)

// GetDuenessChecker returns the checker of a billing frequency.
func GetDuenessChecker(billing core.Billing) (DuenessChecker, error) {
	duenessMu.RLock()
	defer duenessMu.RUnlock()
	checker, ok := duenessStrategies[billing]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidBilling, billing)
	}
	return checker, nil
}

// RegisterDuenessChecker replaces or adds the checker of a billing frequency.
func RegisterDuenessChecker(billing core.Billing, checker DuenessChecker) {
	duenessMu.Lock()
	defer duenessMu.Unlock()
	duenessStrategies[billing] = checker
}
