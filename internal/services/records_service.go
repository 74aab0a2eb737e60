package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"budgetdesk/internal/core"
	"budgetdesk/internal/projection"
	"budgetdesk/internal/sheets"
	"budgetdesk/internal/store"
)

type SupplierService struct {
	store store.SupplierStore
	cache Invalidator
}

func NewSupplierService(s store.SupplierStore, cache Invalidator) *SupplierService {
	return &SupplierService{store: s, cache: cache}
}

func normalizeSupplier(s *core.Supplier) {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.VATNumber = strings.ToUpper(strings.TrimSpace(s.VATNumber))
	s.Category = strings.TrimSpace(s.Category)
}

func (s *SupplierService) Create(ctx context.Context, sup *core.Supplier) error {
	normalizeSupplier(sup)
	if err := sup.Validate(); err != nil {
		return err
	}
	return s.store.CreateSupplier(ctx, sup)
}

func (s *SupplierService) Get(ctx context.Context, id int64) (core.Supplier, error) {
	return s.store.GetSupplier(ctx, id)
}

func (s *SupplierService) List(ctx context.Context) ([]core.Supplier, error) {
	return s.store.ListSuppliers(ctx)
}

func (s *SupplierService) Update(ctx context.Context, sup *core.Supplier) error {
	normalizeSupplier(sup)
	if err := sup.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateSupplier(ctx, sup); err != nil {
		return err
	}
	// dashboards show supplier names
	if s.cache != nil {
		s.cache.Invalidate(0)
	}
	return nil
}

func (s *SupplierService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteSupplier(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(0)
	}
	return nil
}

type BudgetService struct {
	store store.BudgetStore
	cache Invalidator
}

func NewBudgetService(s store.BudgetStore, cache Invalidator) *BudgetService {
	return &BudgetService{store: s, cache: cache}
}

func normalizeBudget(b *core.Budget) {
	b.Name = strings.TrimSpace(b.Name)
	b.Category = strings.TrimSpace(b.Category)
}

func (s *BudgetService) Create(ctx context.Context, b *core.Budget) error {
	normalizeBudget(b)
	if err := b.Validate(); err != nil {
		return err
	}
	if err := s.store.CreateBudget(ctx, b); err != nil {
		return err
	}
	s.invalidate(b.Year)
	return nil
}

func (s *BudgetService) Get(ctx context.Context, id int64) (core.Budget, error) {
	return s.store.GetBudget(ctx, id)
}

func (s *BudgetService) List(ctx context.Context, year int) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx, year)
}

func (s *BudgetService) Update(ctx context.Context, b *core.Budget) error {
	normalizeBudget(b)
	if err := b.Validate(); err != nil {
		return err
	}
	before, err := s.store.GetBudget(ctx, b.ID)
	if err != nil {
		return err
	}
	if err := s.store.UpdateBudget(ctx, b); err != nil {
		return err
	}
	s.invalidate(before.Year)
	s.invalidate(b.Year)
	return nil
}

func (s *BudgetService) Delete(ctx context.Context, id int64) error {
	b, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteBudget(ctx, id); err != nil {
		return err
	}
	s.invalidate(b.Year)
	return nil
}

// ImportResult counts what Import did.
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Import reads the planning sheet of year and upserts budgets by name. Every
// row is validated, and names must be unique ignoring case, before anything is
// written.
func (s *BudgetService) Import(ctx context.Context, reader sheets.BudgetReader, year int) (res ImportResult, err error) {
	incoming, err := reader.ReadBudgets(ctx, year)
	if err != nil {
		return res, fmt.Errorf("read budget sheet: %w", err)
	}

	seen := make(map[string]bool, len(incoming))
	for i := range incoming {
		b := &incoming[i]
		b.Year = year
		normalizeBudget(b)
		if err := b.Validate(); err != nil {
			return res, fmt.Errorf("budget %q: %w", b.Name, err)
		}
		key := strings.ToLower(b.Name)
		if seen[key] {
			return res, fmt.Errorf("budget %q appears twice in the sheet: %w", b.Name, store.ErrBudgetExists)
		}
		seen[key] = true
	}

	existing, err := s.store.ListBudgets(ctx, year)
	if err != nil {
		return res, fmt.Errorf("list budgets: %w", err)
	}
	byName := make(map[string]core.Budget, len(existing))
	for _, b := range existing {
		byName[strings.ToLower(b.Name)] = b
	}

	defer func() {
		if res.Created+res.Updated > 0 {
			s.invalidate(year)
		}
	}()
	for i := range incoming {
		b := incoming[i]
		key := strings.ToLower(b.Name)
		if cur, ok := byName[key]; ok {
			b.ID = cur.ID
			if err := s.store.UpdateBudget(ctx, &b); err != nil {
				return res, fmt.Errorf("update budget %q: %w", b.Name, err)
			}
			res.Updated++
			continue
		}
		if err := s.store.CreateBudget(ctx, &b); err != nil {
			return res, fmt.Errorf("create budget %q: %w", b.Name, err)
		}
		byName[key] = b
		res.Created++
	}
	slog.InfoContext(ctx, "Budgets imported", "year", year, "created", res.Created, "updated", res.Updated)
	return res, nil
}

func (s *BudgetService) invalidate(year int) {
	if s.cache != nil {
		s.cache.Invalidate(year)
	}
}

type EmployeeService struct {
	store store.EmployeeStore
	cache Invalidator
}

func NewEmployeeService(s store.EmployeeStore, cache Invalidator) *EmployeeService {
	return &EmployeeService{store: s, cache: cache}
}

func normalizeEmployee(e *core.Employee) {
	e.FirstName = strings.TrimSpace(e.FirstName)
	e.LastName = strings.TrimSpace(e.LastName)
	e.Department = strings.TrimSpace(e.Department)
	e.Title = strings.TrimSpace(e.Title)
}

func (s *EmployeeService) Create(ctx context.Context, e *core.Employee) error {
	normalizeEmployee(e)
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.store.CreateEmployee(ctx, e); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *EmployeeService) Get(ctx context.Context, id int64) (core.Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

func (s *EmployeeService) List(ctx context.Context) ([]core.Employee, error) {
	return s.store.ListEmployees(ctx)
}

func (s *EmployeeService) Update(ctx context.Context, e *core.Employee) error {
	normalizeEmployee(e)
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateEmployee(ctx, e); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *EmployeeService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// EmployeeCostRow is the prorated cost of one employee over a year.
type EmployeeCostRow struct {
	EmployeeID int64                    `json:"employee_id"`
	Name       string                   `json:"name"`
	Department string                   `json:"department"`
	Months     []projection.MonthAmount `json:"months"`
	Total      core.Money               `json:"total_cents"`
}

type HRCost struct {
	Year         int                   `json:"year"`
	Employees    []EmployeeCostRow     `json:"employees"`
	ByDepartment []core.CategoryAmount `json:"by_department"`
	Total        core.Money            `json:"total_cents"`
}

// Cost prorates every employee over year. Employees not employed in year
// are left out.
func (s *EmployeeService) Cost(ctx context.Context, year int) (HRCost, error) {
	if year < 2000 || year > 2100 {
		return HRCost{}, core.ErrInvalidYear
	}
	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return HRCost{}, fmt.Errorf("list employees: %w", err)
	}
	return hrCost(employees, year), nil
}

func hrCost(employees []core.Employee, year int) HRCost {
	out := HRCost{Year: year, Employees: []EmployeeCostRow{}}
	for _, e := range employees {
		months := projection.EmployeeCost(e, year)
		total := projection.Sum(months)
		if total.IsZero() {
			continue
		}
		out.Employees = append(out.Employees, EmployeeCostRow{
			EmployeeID: e.ID,
			Name:       e.FullName(),
			Department: e.Department,
			Months:     months,
			Total:      total,
		})
		out.Total = out.Total.Add(total)
	}
	out.ByDepartment = projection.PayrollByDepartment(employees, year)
	return out
}

func (s *EmployeeService) invalidate() {
	if s.cache != nil {
		s.cache.Invalidate(0)
	}
}
