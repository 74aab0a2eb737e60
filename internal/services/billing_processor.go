package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"budgetdesk/internal/core"
	"budgetdesk/internal/log"
	"budgetdesk/internal/store"
)

const billingAuthor = "billing"

type BillingStore interface {
	ListContracts(ctx context.Context, f store.ContractFilter) ([]core.Contract, error)
	MarkLineItemPosted(ctx context.Context, itemID int64, posted core.Date) error
}

// BillingResult summarizes one ProcessDue run.
type BillingResult struct {
	Contracts int
	Posted    int
	Failed    int
}

// BillingProcessor turns due contract installments into planned expenses.
type BillingProcessor struct {
	store    BillingStore
	expenses *ExpenseService
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewBillingProcessor(s BillingStore, expenses *ExpenseService, interval time.Duration) *BillingProcessor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &BillingProcessor{store: s, expenses: expenses, interval: interval, now: time.Now}
}

// ProcessDue posts every installment of active contracts due on or before now
// and not yet posted. A failed installment stops its line item so that
// LastPostedDate never skips an unposted installment.
func (p *BillingProcessor) ProcessDue(ctx context.Context, now core.Date) (BillingResult, error) {
	var res BillingResult
	if p.store == nil || p.expenses == nil {
		return res, fmt.Errorf("processor not properly initialized")
	}
	contracts, err := p.store.ListContracts(ctx, store.ContractFilter{Status: core.ContractActive})
	if err != nil {
		return res, fmt.Errorf("failed to list active contracts: %w", err)
	}
	res.Contracts = len(contracts)

	for _, c := range contracts {
		for _, li := range c.LineItems {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			posted, err := p.postLineItem(ctx, c, li, now)
			res.Posted += posted
			if err != nil {
				res.Failed++
				log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Failed to post installment", err,
					log.ComponentBilling, log.OpPost, log.LogFields{"contract_id": c.ID, "line_item_id": li.ID})
			}
		}
	}

	slog.InfoContext(ctx, "Billing run complete",
		"as_of", now.String(),
		"contracts", res.Contracts,
		"posted", res.Posted,
		"failed", res.Failed)
	return res, nil
}

func (p *BillingProcessor) postLineItem(ctx context.Context, c core.Contract, li core.LineItem, now core.Date) (int, error) {
	checker, err := GetDuenessChecker(li.Billing)
	if err != nil {
		return 0, err
	}
	due := checker.DueInstallments(li, now)
	if len(due) == 0 {
		return 0, nil
	}
	posted := 0
	var last core.Date
	var postErr error
	for _, in := range due {
		e := core.Expense{
			Date:        in.Due,
			Description: installmentDescription(c, li, in.Seq),
			Amount:      in.Amount,
			Category:    li.Category,
			SupplierID:  c.SupplierID,
			ContractID:  c.ID,
			LineItemID:  li.ID,
			Status:      core.ExpensePlanned,
			CreatedBy:   billingAuthor,
		}
		if err := p.expenses.CreateExpense(ctx, &e); err != nil {
			postErr = fmt.Errorf("installment %d: %w", in.Seq, err)
			break
		}
		posted++
		last = in.Due
	}
	if posted > 0 {
		if err := p.store.MarkLineItemPosted(ctx, li.ID, last); err != nil {
			return posted, fmt.Errorf("mark posted: %w", err)
		}
	}
	return posted, postErr
}

func installmentDescription(c core.Contract, li core.LineItem, seq int) string {
	if li.Billing == core.BillingOnce {
		return fmt.Sprintf("%s: %s", c.Title, li.Description)
	}
	return fmt.Sprintf("%s: %s #%d", c.Title, li.Description, seq)
}

// Start runs ProcessDue immediately and then every interval.
func (p *BillingProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("billing processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Billing processor started", "interval", p.interval)
	return nil
}

// Stop signals the loop and waits for the current run to finish.
func (p *BillingProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Billing processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Billing processor stop timed out")
		return ctx.Err()
	}
}

func (p *BillingProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *BillingProcessor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.runOnce(ctx)
	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *BillingProcessor) runOnce(ctx context.Context) {
	if _, err := p.ProcessDue(ctx, core.DateOf(p.now())); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Billing run failed", "error", err)
	}
}
