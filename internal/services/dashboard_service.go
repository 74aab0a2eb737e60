package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetdesk/internal/cache"
	"budgetdesk/internal/core"
	"budgetdesk/internal/projection"
	"budgetdesk/internal/store"
)

const topSuppliers = 5

var ErrUnknownCategory = fmt.Errorf("%w: category", store.ErrNotFound)

type DashboardStore interface {
	ListSuppliers(ctx context.Context) ([]core.Supplier, error)
	ListContracts(ctx context.Context, f store.ContractFilter) ([]core.Contract, error)
	ListBudgets(ctx context.Context, year int) ([]core.Budget, error)
	ListExpenses(ctx context.Context, f store.ExpenseFilter) ([]core.Expense, error)
	ListEmployees(ctx context.Context) ([]core.Employee, error)
}

// ContractExposure is what active contracts still owe as of a date.
type ContractExposure struct {
	Active  int        `json:"active"`
	Paid    core.Money `json:"paid_cents"`
	Overdue core.Money `json:"overdue_cents"`
	Future  core.Money `json:"future_cents"`
}

// YearDashboard aggregates every record of a budget year.
type YearDashboard struct {
	Year         int                       `json:"year"`
	AsOf         core.Date                 `json:"as_of"`
	Budget       core.Money                `json:"budget_cents"`
	Actual       core.Money                `json:"actual_cents"`
	Planned      core.Money                `json:"planned_cents"`
	Committed    core.Money                `json:"committed_cents"`
	Remaining    core.Money                `json:"remaining_cents"`
	Months       []core.MonthOverview      `json:"months"`
	Reconcile    projection.Reconciliation `json:"reconcile"`
	HR           HRCost                    `json:"hr"`
	TopSuppliers []core.SupplierAmount     `json:"top_suppliers"`
	Contracts    ContractExposure          `json:"contracts"`
	Burn         projection.BurnStats      `json:"burn"`
	GeneratedAt  time.Time                 `json:"generated_at"`
}

// DashboardService builds read models and caches them per year. It is the
// Invalidator the write services call.
type DashboardService struct {
	store      DashboardStore
	dashboards *cache.LRUCache[YearDashboard]
	reconciles *cache.LRUCache[projection.Reconciliation]
	now        func() time.Time
}

func NewDashboardService(s DashboardStore, ttl time.Duration) *DashboardService {
	return &DashboardService{
		store:      s,
		dashboards: cache.NewLRUCache[YearDashboard](20, ttl),
		reconciles: cache.NewLRUCache[projection.Reconciliation](20, ttl),
		now:        time.Now,
	}
}

// Caches exposes the underlying caches so they can be registered with a
// cache.Manager for periodic sweeping.
func (s *DashboardService) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.dashboards, s.reconciles}
}

// CacheStats reports hit and miss counters per cache.
func (s *DashboardService) CacheStats() map[string]cache.Stats {
	return map[string]cache.Stats{
		"dashboard": s.dashboards.Stats(),
		"reconcile": s.reconciles.Stats(),
	}
}

func dashboardKey(year int) string { return "dashboard:" + strconv.Itoa(year) }
func reconcileKey(year int) string { return "reconcile:" + strconv.Itoa(year) }

func (s *DashboardService) Invalidate(year int) {
	if year == 0 {
		s.dashboards.Clear()
		s.reconciles.Clear()
		return
	}
	s.dashboards.Delete(dashboardKey(year))
	s.reconciles.Delete(reconcileKey(year))
}

// yearData is everything a dashboard of one year reads from the store.
type yearData struct {
	suppliers []core.Supplier
	contracts []core.Contract
	budgets   []core.Budget
	expenses  []core.Expense
	linked    []core.Expense
	employees []core.Employee
}

func (s *DashboardService) load(ctx context.Context, year int, full bool) (*yearData, error) {
	d := &yearData{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.contracts, err = s.store.ListContracts(gctx, store.ContractFilter{})
		return wrapLoad("contracts", err)
	})
	g.Go(func() (err error) {
		d.budgets, err = s.store.ListBudgets(gctx, year)
		return wrapLoad("budgets", err)
	})
	g.Go(func() (err error) {
		d.expenses, err = s.store.ListExpenses(gctx, store.ExpenseFilter{Year: year})
		return wrapLoad("expenses", err)
	})
	if full {
		g.Go(func() (err error) {
			d.suppliers, err = s.store.ListSuppliers(gctx)
			return wrapLoad("suppliers", err)
		})
		g.Go(func() (err error) {
			d.employees, err = s.store.ListEmployees(gctx)
			return wrapLoad("employees", err)
		})
		g.Go(func() (err error) {
			// payments against installments are not bounded by year
			d.linked, err = s.store.ListExpenses(gctx, store.ExpenseFilter{Status: core.ExpensePaid})
			return wrapLoad("paid expenses", err)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

func wrapLoad(what string, err error) error {
	if err != nil {
		return fmt.Errorf("load %s: %w", what, err)
	}
	return nil
}

func validYear(year int) error {
	if year < 2000 || year > 2100 {
		return core.ErrInvalidYear
	}
	return nil
}

// Dashboard returns the cached dashboard of year, building it on a miss.
func (s *DashboardService) Dashboard(ctx context.Context, year int) (YearDashboard, error) {
	if err := validYear(year); err != nil {
		return YearDashboard{}, err
	}
	if d, ok := s.dashboards.Get(dashboardKey(year)); ok {
		return d, nil
	}
	data, err := s.load(ctx, year, true)
	if err != nil {
		return YearDashboard{}, err
	}
	d := buildDashboard(year, core.DateOf(s.now()), data)
	d.GeneratedAt = s.now().UTC()
	s.dashboards.Set(dashboardKey(year), d)
	s.reconciles.Set(reconcileKey(year), d.Reconcile)
	return d, nil
}

// Reconcile returns the reconciliation of year, narrowed to one category when
// category is not empty.
func (s *DashboardService) Reconcile(ctx context.Context, year int, category string) (projection.Reconciliation, error) {
	if err := validYear(year); err != nil {
		return projection.Reconciliation{}, err
	}
	r, ok := s.reconciles.Get(reconcileKey(year))
	if !ok {
		data, err := s.load(ctx, year, false)
		if err != nil {
			return projection.Reconciliation{}, err
		}
		r = projection.Reconcile(year, data.budgets, data.expenses, projection.ContractCommitments(data.contracts, year))
		s.reconciles.Set(reconcileKey(year), r)
	}
	if category == "" {
		return r, nil
	}
	cat, ok := r.Category(category)
	if !ok {
		return projection.Reconciliation{}, ErrUnknownCategory
	}
	return projection.Reconciliation{Year: year, Categories: []projection.CategoryReconciliation{cat}, Total: cat.Total}, nil
}

func buildDashboard(year int, asOf core.Date, data *yearData) YearDashboard {
	rec := projection.Reconcile(year, data.budgets, data.expenses, projection.ContractCommitments(data.contracts, year))
	d := YearDashboard{
		Year:         year,
		AsOf:         asOf,
		Budget:       rec.Total.Budget,
		Actual:       rec.Total.Actual,
		Planned:      rec.Total.Planned,
		Committed:    rec.Total.Committed,
		Remaining:    rec.Total.Remaining,
		Months:       monthlySeries(year, data.expenses),
		Reconcile:    rec,
		HR:           hrCost(data.employees, year),
		TopSuppliers: supplierRanking(data.suppliers, data.expenses, topSuppliers),
		Contracts:    contractExposure(data.contracts, data.linked, asOf),
	}
	d.Burn = projection.Burn(rec.Total.Actual, rec.Total.Budget, asOf, year)
	return d
}

// monthlySeries totals paid expenses per month and category.
func monthlySeries(year int, expenses []core.Expense) []core.MonthOverview {
	byMonth := make([]map[string]int64, 12)
	totals := make([]int64, 12)
	for _, e := range expenses {
		if e.Date.Year() != year || e.Status != core.ExpensePaid {
			continue
		}
		m := e.Date.Month() - 1
		if byMonth[m] == nil {
			byMonth[m] = map[string]int64{}
		}
		byMonth[m][e.Category] += e.Amount.Cents
		totals[m] += e.Amount.Cents
	}
	out := make([]core.MonthOverview, 12)
	for i := range out {
		out[i] = core.MonthOverview{Year: year, Month: i + 1, Total: core.Cents(totals[i]), ByCategory: categoryAmounts(byMonth[i])}
	}
	return out
}

func categoryAmounts(m map[string]int64) []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(m))
	for name, cents := range m {
		out = append(out, core.CategoryAmount{Name: name, Amount: core.Cents(cents)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// supplierRanking returns the n suppliers with the highest paid spend.
func supplierRanking(suppliers []core.Supplier, expenses []core.Expense, n int) []core.SupplierAmount {
	names := make(map[int64]string, len(suppliers))
	for _, s := range suppliers {
		names[s.ID] = s.Name
	}
	spend := map[int64]int64{}
	for _, e := range expenses {
		if e.SupplierID != 0 && e.Status == core.ExpensePaid {
			spend[e.SupplierID] += e.Amount.Cents
		}
	}
	out := make([]core.SupplierAmount, 0, len(spend))
	for id, cents := range spend {
		out = append(out, core.SupplierAmount{SupplierID: id, Name: names[id], Amount: core.Cents(cents)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].SupplierID < out[j].SupplierID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func contractExposure(contracts []core.Contract, paid []core.Expense, asOf core.Date) ContractExposure {
	byItem := make(map[int64][]core.Money)
	for _, e := range paid {
		if e.LineItemID != 0 && e.Status == core.ExpensePaid && !e.Date.After(asOf.Time) {
			byItem[e.LineItemID] = append(byItem[e.LineItemID], e.Amount)
		}
	}
	var out ContractExposure
	for _, c := range contracts {
		if c.Status != core.ContractActive {
			continue
		}
		out.Active++
		for _, li := range c.LineItems {
			f := projection.SplitForecast(projection.Installments(li), byItem[li.ID], asOf)
			out.Paid = out.Paid.Add(f.Paid)
			out.Overdue = out.Overdue.Add(f.Overdue)
			out.Future = out.Future.Add(f.Future)
		}
	}
	return out
}
