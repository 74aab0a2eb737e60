// Package memory is a mutex-guarded in-memory implementation of store.Store,
// used for local development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"budgetdesk/internal/core"
	"budgetdesk/internal/store"
)

type syncState struct {
	synced   int64 // last synced version
	lastErr  string
	attempts int
	retryAt  time.Time
}

type Store struct {
	mu sync.Mutex

	nextID int64
	now    func() time.Time

	suppliers map[int64]core.Supplier
	contracts map[int64]core.Contract
	budgets   map[int64]core.Budget
	expenses  map[int64]core.Expense
	deleted   map[int64]bool
	employees map[int64]core.Employee
	users     map[int64]core.User
	syncs     map[int64]syncState
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:       time.Now,
		suppliers: map[int64]core.Supplier{},
		contracts: map[int64]core.Contract{},
		budgets:   map[int64]core.Budget{},
		expenses:  map[int64]core.Expense{},
		deleted:   map[int64]bool{},
		employees: map[int64]core.Employee{},
		users:     map[int64]core.User{},
		syncs:     map[int64]syncState{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// Suppliers

func (s *Store) CreateSupplier(_ context.Context, sup *core.Supplier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.supplierNameTaken(sup.Name, 0) {
		return store.ErrSupplierExists
	}
	now := s.now().UTC()
	sup.ID = s.id()
	sup.CreatedAt, sup.UpdatedAt = now, now
	s.suppliers[sup.ID] = *sup
	return nil
}

func (s *Store) supplierNameTaken(name string, except int64) bool {
	for id, other := range s.suppliers {
		if id != except && strings.EqualFold(other.Name, name) {
			return true
		}
	}
	return false
}

func (s *Store) GetSupplier(_ context.Context, id int64) (core.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sup, ok := s.suppliers[id]
	if !ok {
		return core.Supplier{}, store.ErrSupplierNotFound
	}
	return sup, nil
}

func (s *Store) ListSuppliers(context.Context) ([]core.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := values(s.suppliers)
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (s *Store) UpdateSupplier(_ context.Context, sup *core.Supplier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.suppliers[sup.ID]
	if !ok {
		return store.ErrSupplierNotFound
	}
	if s.supplierNameTaken(sup.Name, sup.ID) {
		return store.ErrSupplierExists
	}
	sup.CreatedAt = cur.CreatedAt
	sup.UpdatedAt = s.now().UTC()
	s.suppliers[sup.ID] = *sup
	return nil
}

func (s *Store) DeleteSupplier(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.suppliers[id]; !ok {
		return store.ErrSupplierNotFound
	}
	for _, c := range s.contracts {
		if c.SupplierID == id {
			return store.ErrInUse
		}
	}
	delete(s.suppliers, id)
	return nil
}

// Contracts

func (s *Store) CreateContract(_ context.Context, c *core.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.suppliers[c.SupplierID]; !ok {
		return store.ErrSupplierNotFound
	}
	now := s.now().UTC()
	c.ID = s.id()
	c.CreatedAt, c.UpdatedAt = now, now
	items := make([]core.LineItem, len(c.LineItems))
	for i, li := range c.LineItems {
		li.ID = s.id()
		li.ContractID = c.ID
		items[i] = li
	}
	c.LineItems = items
	s.contracts[c.ID] = cloneContract(*c)
	return nil
}

func (s *Store) GetContract(_ context.Context, id int64) (core.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	if !ok {
		return core.Contract{}, store.ErrContractNotFound
	}
	return cloneContract(c), nil
}

func (s *Store) ListContracts(_ context.Context, f store.ContractFilter) ([]core.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Contract
	for _, c := range s.contracts {
		if f.Matches(c) {
			out = append(out, cloneContract(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate.Time) {
			return out[i].StartDate.Before(out[j].StartDate.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateContract(_ context.Context, c *core.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.contracts[c.ID]
	if !ok {
		return store.ErrContractNotFound
	}
	if _, ok := s.suppliers[c.SupplierID]; !ok {
		return store.ErrSupplierNotFound
	}
	cur.SupplierID = c.SupplierID
	cur.Title = c.Title
	cur.Reference = c.Reference
	cur.StartDate = c.StartDate
	cur.EndDate = c.EndDate
	cur.Status = c.Status
	cur.UpdatedAt = s.now().UTC()
	s.contracts[c.ID] = cur
	*c = cloneContract(cur)
	return nil
}

func (s *Store) DeleteContract(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contracts[id]; !ok {
		return store.ErrContractNotFound
	}
	for eid, e := range s.expenses {
		if e.ContractID == id && !s.deleted[eid] {
			return store.ErrInUse
		}
	}
	delete(s.contracts, id)
	return nil
}

func (s *Store) AddLineItem(_ context.Context, contractID int64, li *core.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[contractID]
	if !ok {
		return store.ErrContractNotFound
	}
	li.ID = s.id()
	li.ContractID = contractID
	c.LineItems = append(c.LineItems, *li)
	c.UpdatedAt = s.now().UTC()
	s.contracts[contractID] = c
	return nil
}

func (s *Store) DeleteLineItem(_ context.Context, contractID, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[contractID]
	if !ok {
		return store.ErrContractNotFound
	}
	idx := -1
	for i, li := range c.LineItems {
		if li.ID == itemID {
			idx = i
		}
	}
	if idx < 0 {
		return store.ErrLineItemNotFound
	}
	for eid, e := range s.expenses {
		if e.LineItemID == itemID && !s.deleted[eid] {
			return store.ErrInUse
		}
	}
	c.LineItems = append(c.LineItems[:idx:idx], c.LineItems[idx+1:]...)
	c.UpdatedAt = s.now().UTC()
	s.contracts[contractID] = c
	return nil
}

func (s *Store) MarkLineItemPosted(_ context.Context, itemID int64, posted core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.contracts {
		for i := range c.LineItems {
			if c.LineItems[i].ID == itemID {
				c.LineItems[i].LastPostedDate = posted
				s.contracts[id] = c
				return nil
			}
		}
	}
	return store.ErrLineItemNotFound
}

func cloneContract(c core.Contract) core.Contract {
	c.LineItems = append([]core.LineItem(nil), c.LineItems...)
	return c
}

// Budgets

func (s *Store) budgetNameTaken(year int, name string, except int64) bool {
	for id, b := range s.budgets {
		if id != except && b.Year == year && strings.EqualFold(b.Name, name) {
			return true
		}
	}
	return false
}

func (s *Store) CreateBudget(_ context.Context, b *core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.budgetNameTaken(b.Year, b.Name, 0) {
		return store.ErrBudgetExists
	}
	now := s.now().UTC()
	b.ID = s.id()
	b.CreatedAt, b.UpdatedAt = now, now
	s.budgets[b.ID] = cloneBudget(*b)
	return nil
}

func (s *Store) GetBudget(_ context.Context, id int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, store.ErrBudgetNotFound
	}
	return cloneBudget(b), nil
}

func (s *Store) ListBudgets(_ context.Context, year int) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if year == 0 || b.Year == year {
			out = append(out, cloneBudget(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) UpdateBudget(_ context.Context, b *core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.budgets[b.ID]
	if !ok {
		return store.ErrBudgetNotFound
	}
	if s.budgetNameTaken(b.Year, b.Name, b.ID) {
		return store.ErrBudgetExists
	}
	b.CreatedAt = cur.CreatedAt
	b.UpdatedAt = s.now().UTC()
	s.budgets[b.ID] = cloneBudget(*b)
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[id]; !ok {
		return store.ErrBudgetNotFound
	}
	delete(s.budgets, id)
	return nil
}

func cloneBudget(b core.Budget) core.Budget {
	b.Allocations = append([]core.Allocation(nil), b.Allocations...)
	sort.Slice(b.Allocations, func(i, j int) bool { return b.Allocations[i].Month < b.Allocations[j].Month })
	return b
}

// Expenses

func (s *Store) CreateExpense(_ context.Context, e *core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	e.ID = s.id()
	e.Version = 1
	e.CreatedAt, e.UpdatedAt = now, now
	s.expenses[e.ID] = *e
	return nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || s.deleted[id] {
		return core.Expense{}, store.ErrExpenseNotFound
	}
	return e, nil
}

func (s *Store) ListExpenses(_ context.Context, f store.ExpenseFilter) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for id, e := range s.expenses {
		if !s.deleted[id] && f.Matches(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return store.Page(out, f.Offset, f.Limit), nil
}

func (s *Store) UpdateExpense(_ context.Context, e *core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.expenses[e.ID]
	if !ok || s.deleted[e.ID] {
		return store.ErrExpenseNotFound
	}
	if cur.Version != e.Version {
		return store.ErrVersionMismatch
	}
	e.Version++
	if st, ok := s.syncs[e.ID]; ok {
		s.syncs[e.ID] = syncState{synced: st.synced}
	}
	e.CreatedAt = cur.CreatedAt
	e.CreatedBy = cur.CreatedBy
	e.UpdatedAt = s.now().UTC()
	s.expenses[e.ID] = *e
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || s.deleted[id] {
		return core.Expense{}, store.ErrExpenseNotFound
	}
	s.deleted[id] = true
	delete(s.syncs, id)
	return e, nil
}

// Employees

func (s *Store) CreateEmployee(_ context.Context, e *core.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	e.ID = s.id()
	e.CreatedAt, e.UpdatedAt = now, now
	s.employees[e.ID] = *e
	return nil
}

func (s *Store) GetEmployee(_ context.Context, id int64) (core.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok {
		return core.Employee{}, store.ErrEmployeeNotFound
	}
	return e, nil
}

func (s *Store) ListEmployees(context.Context) ([]core.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := values(s.employees)
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

func (s *Store) UpdateEmployee(_ context.Context, e *core.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.employees[e.ID]
	if !ok {
		return store.ErrEmployeeNotFound
	}
	e.CreatedAt = cur.CreatedAt
	e.UpdatedAt = s.now().UTC()
	s.employees[e.ID] = *e
	return nil
}

func (s *Store) DeleteEmployee(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[id]; !ok {
		return store.ErrEmployeeNotFound
	}
	delete(s.employees, id)
	return nil
}

// Users

func (s *Store) emailTaken(email string, except int64) bool {
	for id, u := range s.users {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (s *Store) CreateUser(_ context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(u.Email, 0) {
		return store.ErrEmailExists
	}
	now := s.now().UTC()
	u.ID = s.id()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUser(_ context.Context, id int64) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, store.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, store.ErrUserNotFound
}

func (s *Store) GetUserByExternalID(_ context.Context, externalID string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ExternalID == externalID {
			return u, nil
		}
	}
	return core.User{}, store.ErrUserNotFound
}

func (s *Store) ListUsers(context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := values(s.users)
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[u.ID]
	if !ok {
		return store.ErrUserNotFound
	}
	if s.emailTaken(u.Email, u.ID) {
		return store.ErrEmailExists
	}
	u.ExternalID = cur.ExternalID
	if u.PasswordHash == "" {
		u.PasswordHash = cur.PasswordHash
	}
	u.CreatedAt = cur.CreatedAt
	u.UpdatedAt = s.now().UTC()
	s.users[u.ID] = *u
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

// Sync bookkeeping

func (s *Store) GetPendingSync(_ context.Context, limit int) ([]store.PendingSync, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	var out []store.PendingSync
	for id, e := range s.expenses {
		if s.deleted[id] {
			continue
		}
		st := s.syncs[id]
		if st.synced >= e.Version {
			continue
		}
		if st.lastErr != "" && (st.attempts >= store.MaxSyncAttempts || now.Before(st.retryAt)) {
			continue
		}
		out = append(out, store.PendingSync{ID: id, Version: e.Version, CreatedAt: e.CreatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return store.Page(out, 0, limit), nil
}

func (s *Store) MarkSynced(_ context.Context, id, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return store.ErrExpenseNotFound
	}
	s.syncs[id] = syncState{synced: version}
	return nil
}

func (s *Store) MarkSyncError(_ context.Context, id int64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return store.ErrExpenseNotFound
	}
	st := s.syncs[id]
	st.lastErr = reason
	st.attempts++
	st.retryAt = store.SyncRetryAt(s.now().UTC(), st.attempts)
	s.syncs[id] = st
	return nil
}

func values[K comparable, V any](m map[K]V) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
