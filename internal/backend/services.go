package backend

import (
	"fmt"
	"sync"
	"time"

	"budgetdesk/internal/cache"
	"budgetdesk/internal/services"
)

// Services is the application layer built on one backend.
type Services struct {
	Expenses  *services.ExpenseService
	Contracts *services.ContractService
	Suppliers *services.SupplierService
	Budgets   *services.BudgetService
	Employees *services.EmployeeService
	Dashboard *services.DashboardService
	Auth      *services.AuthService

	caches      *cache.Manager
	cleanupOnce sync.Once
	started     bool
}

// NewServices wires the services to res. Every write path invalidates the
// dashboard cache.
func NewServices(res *BackendResult, config Config) (*Services, error) {
	if res == nil || res.Store == nil {
		return nil, fmt.Errorf("backend has no store")
	}

	var publisher services.EventPublisher
	if res.Broker != nil {
		publisher = res.Broker
	}

	ttl := config.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	dashboard := services.NewDashboardService(res.Store, ttl)

	auth, err := services.NewAuthService(res.Store, config.JWTSecret, config.TokenLifetime)
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	caches := cache.NewManager()
	for _, c := range dashboard.Caches() {
		caches.Register(c)
	}

	return &Services{
		Expenses:  services.NewExpenseService(res.Store, publisher, dashboard),
		Contracts: services.NewContractService(res.Store, dashboard),
		Suppliers: services.NewSupplierService(res.Store, dashboard),
		Budgets:   services.NewBudgetService(res.Store, dashboard),
		Employees: services.NewEmployeeService(res.Store, dashboard),
		Dashboard: dashboard,
		Auth:      auth,
		caches:    caches,
	}, nil
}

// StartCacheCleanup sweeps expired dashboard entries every interval until Close.
func (s *Services) StartCacheCleanup(interval time.Duration) {
	if s.started {
		return
	}
	s.started = true
	s.caches.StartCleanup(interval)
}

// Close stops background cache cleanup.
func (s *Services) Close() {
	s.cleanupOnce.Do(func() {
		if s.started {
			s.caches.Stop()
		}
	})
}
