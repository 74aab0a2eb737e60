package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"budgetdesk/internal/core"
	"budgetdesk/internal/log"
	"budgetdesk/internal/sheets"
	"budgetdesk/internal/store"
)

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often pending expenses are backfilled (default: 1m)
	PollInterval time.Duration

	// BatchSize is the max number of expenses per backfill (default: 50)
	BatchSize int

	// MaxRetries is the number of ledger attempts before an expense is marked
	// with a sync error (default: 3)
	MaxRetries int

	// RetryDelay is multiplied by the attempt number between retries (default: 1s)
	RetryDelay time.Duration
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: time.Minute,
		BatchSize:    50,
		MaxRetries:   3,
		RetryDelay:   time.Second,
	}
}

type SyncStore interface {
	store.SyncStore
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	GetSupplier(ctx context.Context, id int64) (core.Supplier, error)
	GetContract(ctx context.Context, id int64) (core.Contract, error)
}

// SyncProcessor copies expenses to the reporting ledger. It serves both the
// message consumer and the periodic backfill of expenses whose messages were
// lost.
type SyncProcessor struct {
	store  SyncStore
	ledger sheets.Ledger
	config SyncProcessorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncProcessor(s SyncStore, ledger sheets.Ledger, config SyncProcessorConfig) *SyncProcessor {
	def := DefaultSyncProcessorConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = def.MaxRetries
	}
	if config.RetryDelay < 0 {
		config.RetryDelay = 0
	}
	return &SyncProcessor{store: s, ledger: ledger, config: config}
}

// SyncExpense writes the current state of an expense to the ledger and marks
// that version synced. The message version is only used for logging: the
// ledger row is an upsert, so the newest stored state always wins.
func (p *SyncProcessor) SyncExpense(ctx context.Context, id, version int64) error {
	e, err := p.store.GetExpense(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		slog.InfoContext(ctx, "Expense no longer exists, skipping sync", "id", id, "version", version)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense %d: %w", id, err)
	}
	if e.Version > version {
		slog.DebugContext(ctx, "Syncing newer expense version than requested",
			"id", id, "requested", version, "current", e.Version)
	}

	row := p.ledgerRow(ctx, e)
	var ref string
	appendErr := p.withRetries(ctx, func() error {
		var err error
		ref, err = p.ledger.Append(ctx, row)
		return err
	})
	if appendErr != nil {
		if err := p.store.MarkSyncError(ctx, id, appendErr.Error()); err != nil {
			log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Failed to mark expense sync error", err,
				log.ComponentWorker, log.OpSync, log.NewFields().WithExpense(id, e.Amount.Cents, e.Category, string(e.Status)))
		}
		return fmt.Errorf("append expense %d to ledger: %w", id, appendErr)
	}

	if err := p.store.MarkSynced(ctx, id, e.Version); err != nil {
		// the ledger already has the row; the next backfill rewrites it
		slog.WarnContext(ctx, "Failed to mark expense as synced", "id", id, "error", err)
	}
	log.NewStructuredLogger(log.FromContext(ctx)).
		LogExpenseSynced(ctx, id, e.Amount.Cents, e.Category, string(e.Status), ref)
	return nil
}

// DeleteExpense removes the ledger row of a deleted expense. date selects the
// yearly ledger sheet.
func (p *SyncProcessor) DeleteExpense(ctx context.Context, id int64, date core.Date) error {
	if date.IsEmpty() {
		return fmt.Errorf("delete expense %d: %w", id, core.ErrInvalidDay)
	}
	err := p.withRetries(ctx, func() error {
		return p.ledger.Delete(ctx, id, date.Year())
	})
	if err != nil {
		return fmt.Errorf("delete expense %d from ledger: %w", id, err)
	}
	slog.InfoContext(ctx, "Deleted expense from ledger", "id", id, "year", date.Year())
	return nil
}

// Backfill syncs up to BatchSize expenses whose latest version has not
// reached the ledger. It returns how many were synced.
func (p *SyncProcessor) Backfill(ctx context.Context) (int, error) {
	pending, err := p.store.GetPendingSync(ctx, p.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending sync: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}
	slog.DebugContext(ctx, "Backfilling pending expenses", "count", len(pending))

	synced := 0
	for _, item := range pending {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := p.SyncExpense(ctx, item.ID, item.Version); err != nil {
			log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Backfill sync failed", err,
				log.ComponentWorker, log.OpBackfill, log.LogFields{log.FieldExpenseID: item.ID})
			continue
		}
		synced++
	}
	return synced, nil
}

func (p *SyncProcessor) ledgerRow(ctx context.Context, e core.Expense) sheets.LedgerRow {
	row := sheets.LedgerRow{
		ID:          e.ID,
		Date:        e.Date,
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category,
		Status:      e.Status,
	}
	if e.SupplierID != 0 {
		if s, err := p.store.GetSupplier(ctx, e.SupplierID); err == nil {
			row.Supplier = s.Name
		} else {
			slog.WarnContext(ctx, "Supplier lookup failed", "supplier_id", e.SupplierID, "error", err)
		}
	}
	if e.ContractID != 0 {
		if c, err := p.store.GetContract(ctx, e.ContractID); err == nil {
			row.Contract = c.Title
		} else {
			slog.WarnContext(ctx, "Contract lookup failed", "contract_id", e.ContractID, "error", err)
		}
	}
	return row
}

// withRetries runs fn up to MaxRetries times with a linear delay. Invalid rows
// are not retried.
func (p *SyncProcessor) withRetries(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= p.config.MaxRetries; attempt++ {
		if err = fn(); err == nil || errors.Is(err, sheets.ErrInvalidRow) {
			return err
		}
		if attempt == p.config.MaxRetries {
			break
		}
		slog.WarnContext(ctx, "Ledger call failed, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.config.RetryDelay * time.Duration(attempt)):
		}
	}
	return err
}

// Start begins the backfill loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
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
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Backfill immediately on startup
	p.backfillOnce(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.backfillOnce(ctx)
		}
	}
}

func (p *SyncProcessor) backfillOnce(ctx context.Context) {
	n, err := p.Backfill(ctx)
	if err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Backfill failed", "error", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "Backfill complete", "synced", n)
	}
}
