// Package memory is an in-process ledger used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"budgetdesk/internal/core"
	ports "budgetdesk/internal/sheets"
)

type Ledger struct {
	mu      sync.Mutex
	rows    map[int64]ports.LedgerRow
	appends int
	// Fail, when set, is returned by every write.
	Fail error
}

var _ ports.Ledger = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{rows: map[int64]ports.LedgerRow{}}
}

// Append stores the row, replacing any row with the same ID, and returns a
// synthetic reference.
func (l *Ledger) Append(_ context.Context, row ports.LedgerRow) (string, error) {
	if err := row.Validate(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Fail != nil {
		return "", l.Fail
	}
	l.rows[row.ID] = row
	l.appends++
	return fmt.Sprintf("mem:%d", row.ID), nil
}

func (l *Ledger) Delete(_ context.Context, id int64, year int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Fail != nil {
		return l.Fail
	}
	if r, ok := l.rows[id]; ok && r.Date.Year() == year {
		delete(l.rows, id)
	}
	return nil
}

// Rows returns the ledger ordered by date, then ID.
func (l *Ledger) Rows() []ports.LedgerRow {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ports.LedgerRow, 0, len(l.rows))
	for _, r := range l.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (l *Ledger) Row(id int64) (ports.LedgerRow, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.rows[id]
	return r, ok
}

// Appends counts successful writes, replacements included.
func (l *Ledger) Appends() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appends
}

// Total sums the amounts of year.
func (l *Ledger) Total(year int) core.Money {
	l.mu.Lock()
	defer l.mu.Unlock()
	var total core.Money
	for _, r := range l.rows {
		if r.Date.Year() == year {
			total = total.Add(r.Amount)
		}
	}
	return total
}
