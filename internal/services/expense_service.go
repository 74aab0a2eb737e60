// Package services orchestrates domain validation, persistence, event
// publishing and derived read models.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"budgetdesk/internal/core"
	"budgetdesk/internal/store"
)

// EventPublisher announces expense changes to the ledger sync worker.
type EventPublisher interface {
	PublishExpenseSync(ctx context.Context, id, version int64) error
	PublishExpenseDelete(ctx context.Context, e core.Expense) error
}

// Invalidator drops cached read models affected by a write. A zero year
// means every year.
type Invalidator interface {
	Invalidate(year int)
}

type ExpenseStore interface {
	store.ExpenseStore
	GetSupplier(ctx context.Context, id int64) (core.Supplier, error)
	GetContract(ctx context.Context, id int64) (core.Contract, error)
}

// ExpenseService saves expenses locally first and then publishes a sync
// message. Publish failures are logged, never returned: the pending-sync
// backfill picks the expense up later.
type ExpenseService struct {
	store     ExpenseStore
	publisher EventPublisher
	cache     Invalidator
}

func NewExpenseService(s ExpenseStore, publisher EventPublisher, cache Invalidator) *ExpenseService {
	return &ExpenseService{store: s, publisher: publisher, cache: cache}
}

func normalizeExpense(e *core.Expense) {
	e.Description = strings.TrimSpace(e.Description)
	e.Category = strings.TrimSpace(e.Category)
	if e.Status == "" {
		e.Status = core.ExpensePaid
	}
}

// resolveReferences checks linked records and fills the supplier from the
// contract when only the contract is given.
func (s *ExpenseService) resolveReferences(ctx context.Context, e *core.Expense) error {
	if e.LineItemID != 0 && e.ContractID == 0 {
		return fmt.Errorf("%w: line item requires a contract", core.ErrInvalidSupplier)
	}
	if e.ContractID != 0 {
		c, err := s.store.GetContract(ctx, e.ContractID)
		if err != nil {
			return err
		}
		if e.SupplierID == 0 {
			e.SupplierID = c.SupplierID
		} else if e.SupplierID != c.SupplierID {
			return fmt.Errorf("%w: supplier does not match contract", core.ErrInvalidSupplier)
		}
		if e.LineItemID != 0 {
			if _, ok := c.LineItem(e.LineItemID); !ok {
				return store.ErrLineItemNotFound
			}
		}
	}
	if e.SupplierID != 0 {
		if _, err := s.store.GetSupplier(ctx, e.SupplierID); err != nil {
			return err
		}
	}
	return nil
}

// CreateExpense validates and stores e, filling its id and version.
func (s *ExpenseService) CreateExpense(ctx context.Context, e *core.Expense) error {
	normalizeExpense(e)
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.resolveReferences(ctx, e); err != nil {
		return err
	}
	if err := s.store.CreateExpense(ctx, e); err != nil {
		return fmt.Errorf("save expense: %w", err)
	}

	s.invalidate(*e)
	s.publishSync(ctx, e.ID, e.Version)
	return nil
}

// UpdateExpense applies e when e.Version is the stored version.
func (s *ExpenseService) UpdateExpense(ctx context.Context, e *core.Expense) error {
	normalizeExpense(e)
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.resolveReferences(ctx, e); err != nil {
		return err
	}
	before, err := s.store.GetExpense(ctx, e.ID)
	if err != nil {
		return err
	}
	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return err
	}

	s.invalidate(before, *e)
	if before.Date.Year() != e.Date.Year() {
		// the ledger is split per year, so the old row has to go
		s.publishDelete(ctx, before)
	}
	s.publishSync(ctx, e.ID, e.Version)
	return nil
}

// DeleteExpense soft deletes the expense and publishes its last state.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	snapshot, err := s.store.DeleteExpense(ctx, id)
	if err != nil {
		return err
	}
	s.invalidate(snapshot)
	s.publishDelete(ctx, snapshot)
	return nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

func (s *ExpenseService) ListExpenses(ctx context.Context, f store.ExpenseFilter) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx, f)
}

// invalidate drops the dashboards affected by changes to expenses. Payments
// against a line item count toward contract exposure in every year, so linked
// expenses clear all years.
func (s *ExpenseService) invalidate(expenses ...core.Expense) {
	if s.cache == nil {
		return
	}
	for _, e := range expenses {
		if e.LineItemID != 0 {
			s.cache.Invalidate(0)
			return
		}
	}
	for _, e := range expenses {
		s.cache.Invalidate(e.Date.Year())
	}
}

func (s *ExpenseService) publishSync(ctx context.Context, id, version int64) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping sync message", "id", id)
		return
	}
	if err := s.publisher.PublishExpenseSync(ctx, id, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "version", version, "error", err)
	}
}

func (s *ExpenseService) publishDelete(ctx context.Context, e core.Expense) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping delete message", "id", e.ID)
		return
	}
	if err := s.publisher.PublishExpenseDelete(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message", "id", e.ID, "error", err)
	}
}
