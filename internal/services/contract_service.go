package services

import (
	"context"
	"fmt"
	"strings"

	"budgetdesk/internal/core"
	"budgetdesk/internal/projection"
	"budgetdesk/internal/store"
)

type ContractStore interface {
	store.ContractStore
	GetSupplier(ctx context.Context, id int64) (core.Supplier, error)
	ListExpenses(ctx context.Context, f store.ExpenseFilter) ([]core.Expense, error)
}

type ContractService struct {
	store ContractStore
	cache Invalidator
}

func NewContractService(s ContractStore, cache Invalidator) *ContractService {
	return &ContractService{store: s, cache: cache}
}

// ItemSchedule is the billing and cost-recognition plan of one line item.
type ItemSchedule struct {
	LineItem     core.LineItem            `json:"line_item"`
	Installments []projection.Installment `json:"installments"`
	Amortization []projection.MonthAmount `json:"amortization"`
}

type ContractSchedule struct {
	ContractID int64          `json:"contract_id"`
	Total      core.Money     `json:"total_cents"`
	Items      []ItemSchedule `json:"items"`
}

type ItemForecast struct {
	LineItemID  int64               `json:"line_item_id"`
	Description string              `json:"description"`
	Forecast    projection.Forecast `json:"forecast"`
}

// ContractForecast sums the per line item forecasts.
type ContractForecast struct {
	ContractID  int64          `json:"contract_id"`
	AsOf        core.Date      `json:"as_of"`
	Total       core.Money     `json:"total_cents"`
	Paid        core.Money     `json:"paid_cents"`
	Overdue     core.Money     `json:"overdue_cents"`
	Future      core.Money     `json:"future_cents"`
	Unallocated core.Money     `json:"unallocated_cents"`
	Items       []ItemForecast `json:"items"`
}

func normalizeContract(c *core.Contract) {
	c.Title = strings.TrimSpace(c.Title)
	c.Reference = strings.TrimSpace(c.Reference)
	if c.Status == "" {
		c.Status = core.ContractDraft
	}
	for i := range c.LineItems {
		normalizeLineItem(&c.LineItems[i])
	}
}

func normalizeLineItem(li *core.LineItem) {
	li.Description = strings.TrimSpace(li.Description)
	li.Category = strings.TrimSpace(li.Category)
	if li.Billing == "" {
		li.Billing = core.BillingOnce
	}
}

func (s *ContractService) CreateContract(ctx context.Context, c *core.Contract) error {
	normalizeContract(c)
	if err := c.Validate(); err != nil {
		return err
	}
	if _, err := s.store.GetSupplier(ctx, c.SupplierID); err != nil {
		return err
	}
	if err := s.store.CreateContract(ctx, c); err != nil {
		return fmt.Errorf("save contract: %w", err)
	}
	s.invalidate()
	return nil
}

func (s *ContractService) GetContract(ctx context.Context, id int64) (core.Contract, error) {
	return s.store.GetContract(ctx, id)
}

func (s *ContractService) ListContracts(ctx context.Context, f store.ContractFilter) ([]core.Contract, error) {
	return s.store.ListContracts(ctx, f)
}

// UpdateContract changes header fields. Status changes go through SetStatus,
// so c.Status is ignored and the stored line items must still fit the period.
func (s *ContractService) UpdateContract(ctx context.Context, c *core.Contract) error {
	current, err := s.store.GetContract(ctx, c.ID)
	if err != nil {
		return err
	}
	if current.Status == core.ContractClosed {
		return fmt.Errorf("%w: contract is closed", core.ErrStatusTransition)
	}
	c.Title = strings.TrimSpace(c.Title)
	c.Reference = strings.TrimSpace(c.Reference)
	c.Status = current.Status
	c.LineItems = current.LineItems
	if err := c.Validate(); err != nil {
		return err
	}
	if c.SupplierID != current.SupplierID {
		if _, err := s.store.GetSupplier(ctx, c.SupplierID); err != nil {
			return err
		}
	}
	if err := s.store.UpdateContract(ctx, c); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// SetStatus moves the contract along draft -> active -> closed.
func (s *ContractService) SetStatus(ctx context.Context, id int64, next core.ContractStatus) (core.Contract, error) {
	if !next.IsValid() {
		return core.Contract{}, core.ErrInvalidStatus
	}
	c, err := s.store.GetContract(ctx, id)
	if err != nil {
		return core.Contract{}, err
	}
	if !c.Status.CanTransitionTo(next) {
		return core.Contract{}, fmt.Errorf("%w: %s -> %s", core.ErrStatusTransition, c.Status, next)
	}
	if next == core.ContractActive && len(c.LineItems) == 0 {
		return core.Contract{}, fmt.Errorf("%w: contract has no line items", core.ErrStatusTransition)
	}
	if c.Status == next {
		return c, nil
	}
	c.Status = next
	if err := s.store.UpdateContract(ctx, &c); err != nil {
		return core.Contract{}, err
	}
	s.invalidate()
	return c, nil
}

func (s *ContractService) DeleteContract(ctx context.Context, id int64) error {
	if err := s.store.DeleteContract(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *ContractService) AddLineItem(ctx context.Context, contractID int64, li *core.LineItem) error {
	c, err := s.store.GetContract(ctx, contractID)
	if err != nil {
		return err
	}
	if c.Status == core.ContractClosed {
		return fmt.Errorf("%w: contract is closed", core.ErrStatusTransition)
	}
	normalizeLineItem(li)
	if err := c.ValidateLineItem(*li); err != nil {
		return err
	}
	if err := s.store.AddLineItem(ctx, contractID, li); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *ContractService) DeleteLineItem(ctx context.Context, contractID, itemID int64) error {
	if err := s.store.DeleteLineItem(ctx, contractID, itemID); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// Schedule returns installments and monthly amortization per line item.
func (s *ContractService) Schedule(ctx context.Context, id int64) (ContractSchedule, error) {
	c, err := s.store.GetContract(ctx, id)
	if err != nil {
		return ContractSchedule{}, err
	}
	out := ContractSchedule{ContractID: c.ID, Total: c.Total(), Items: make([]ItemSchedule, 0, len(c.LineItems))}
	for _, li := range c.LineItems {
		out.Items = append(out.Items, ItemSchedule{
			LineItem:     li,
			Installments: projection.Installments(li),
			Amortization: projection.Amortize(li.Amount, li.StartDate, li.EndDate),
		})
	}
	return out, nil
}

// Forecast matches paid expenses linked to each line item against its
// installments as of asOf.
func (s *ContractService) Forecast(ctx context.Context, id int64, asOf core.Date) (ContractForecast, error) {
	c, err := s.store.GetContract(ctx, id)
	if err != nil {
		return ContractForecast{}, err
	}
	paid, err := s.store.ListExpenses(ctx, store.ExpenseFilter{ContractID: id, Status: core.ExpensePaid})
	if err != nil {
		return ContractForecast{}, fmt.Errorf("list contract expenses: %w", err)
	}
	byItem := make(map[int64][]core.Money)
	for _, e := range paid {
		if e.LineItemID != 0 && !e.Date.After(asOf.Time) {
			byItem[e.LineItemID] = append(byItem[e.LineItemID], e.Amount)
		}
	}

	out := ContractForecast{ContractID: c.ID, AsOf: asOf, Items: make([]ItemForecast, 0, len(c.LineItems))}
	for _, li := range c.LineItems {
		f := projection.SplitForecast(projection.Installments(li), byItem[li.ID], asOf)
		out.Items = append(out.Items, ItemForecast{LineItemID: li.ID, Description: li.Description, Forecast: f})
		out.Total = out.Total.Add(f.Total)
		out.Paid = out.Paid.Add(f.Paid)
		out.Overdue = out.Overdue.Add(f.Overdue)
		out.Future = out.Future.Add(f.Future)
		out.Unallocated = out.Unallocated.Add(f.Unallocated)
	}
	return out, nil
}

func (s *ContractService) invalidate() {
	if s.cache != nil {
		// contracts can span several years
		s.cache.Invalidate(0)
	}
}
