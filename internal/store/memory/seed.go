package memory

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"budgetdesk/internal/core"
)

// Seed is the YAML document loaded into a fresh memory store.
//
// Contracts and expenses reference suppliers by name so seed files stay
// readable without knowing the generated ids.
type Seed struct {
	Suppliers []SeedSupplier `yaml:"suppliers"`
	Contracts []SeedContract `yaml:"contracts"`
	Budgets   []SeedBudget   `yaml:"budgets"`
	Expenses  []SeedExpense  `yaml:"expenses"`
	Employees []SeedEmployee `yaml:"employees"`
	Users     []SeedUser     `yaml:"users"`
}

type SeedSupplier struct {
	Name      string `yaml:"name"`
	VATNumber string `yaml:"vat_number"`
	Email     string `yaml:"email"`
	Category  string `yaml:"category"`
}

type SeedContract struct {
	Supplier  string         `yaml:"supplier"`
	Title     string         `yaml:"title"`
	Reference string         `yaml:"reference"`
	Start     string         `yaml:"start"`
	End       string         `yaml:"end"`
	Status    string         `yaml:"status"`
	LineItems []SeedLineItem `yaml:"line_items"`
}

type SeedLineItem struct {
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	Amount      string `yaml:"amount"`
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
	Billing     string `yaml:"billing"`
}

// SeedBudget spreads Monthly on every month unless Months overrides it.
type SeedBudget struct {
	Year     int            `yaml:"year"`
	Name     string         `yaml:"name"`
	Category string         `yaml:"category"`
	Monthly  string         `yaml:"monthly"`
	Months   map[int]string `yaml:"months"`
}

type SeedExpense struct {
	Date        string `yaml:"date"`
	Description string `yaml:"description"`
	Amount      string `yaml:"amount"`
	Category    string `yaml:"category"`
	Supplier    string `yaml:"supplier"`
	Status      string `yaml:"status"`
}

type SeedEmployee struct {
	FirstName   string `yaml:"first_name"`
	LastName    string `yaml:"last_name"`
	Department  string `yaml:"department"`
	Title       string `yaml:"title"`
	MonthlyCost string `yaml:"monthly_cost"`
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
}

// SeedUser carries an already hashed password; the store never hashes.
type SeedUser struct {
	Email        string `yaml:"email"`
	Name         string `yaml:"name"`
	Role         string `yaml:"role"`
	ExternalID   string `yaml:"external_id"`
	PasswordHash string `yaml:"password_hash"`
}

// ParseSeed decodes a YAML seed document.
func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	return seed, nil
}

// NewFromFile creates a store and loads the seed at path. An empty path
// returns an empty store.
func NewFromFile(ctx context.Context, path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	seed, err := ParseSeed(data)
	if err != nil {
		return nil, err
	}
	if err := s.Load(ctx, seed); err != nil {
		return nil, fmt.Errorf("load seed %s: %w", path, err)
	}
	return s, nil
}

// Load validates and inserts every record of seed.
func (s *Store) Load(ctx context.Context, seed Seed) error {
	supplierIDs := map[string]int64{}
	for _, ss := range seed.Suppliers {
		sup := core.Supplier{Name: ss.Name, VATNumber: ss.VATNumber, Email: ss.Email, Category: ss.Category, Active: true}
		if err := sup.Validate(); err != nil {
			return fmt.Errorf("supplier %q: %w", ss.Name, err)
		}
		if err := s.CreateSupplier(ctx, &sup); err != nil {
			return fmt.Errorf("supplier %q: %w", ss.Name, err)
		}
		supplierIDs[ss.Name] = sup.ID
	}

	for _, sc := range seed.Contracts {
		c, err := sc.contract(supplierIDs)
		if err != nil {
			return fmt.Errorf("contract %q: %w", sc.Title, err)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("contract %q: %w", sc.Title, err)
		}
		if err := s.CreateContract(ctx, &c); err != nil {
			return fmt.Errorf("contract %q: %w", sc.Title, err)
		}
	}

	for _, sb := range seed.Budgets {
		b, err := sb.budget()
		if err != nil {
			return fmt.Errorf("budget %q: %w", sb.Name, err)
		}
		if err := b.Validate(); err != nil {
			return fmt.Errorf("budget %q: %w", sb.Name, err)
		}
		if err := s.CreateBudget(ctx, &b); err != nil {
			return fmt.Errorf("budget %q: %w", sb.Name, err)
		}
	}

	for _, se := range seed.Expenses {
		e, err := se.expense(supplierIDs)
		if err != nil {
			return fmt.Errorf("expense %q: %w", se.Description, err)
		}
		if err := e.Validate(); err != nil {
			return fmt.Errorf("expense %q: %w", se.Description, err)
		}
		if err := s.CreateExpense(ctx, &e); err != nil {
			return err
		}
	}

	for _, se := range seed.Employees {
		e, err := se.employee()
		if err != nil {
			return fmt.Errorf("employee %s %s: %w", se.FirstName, se.LastName, err)
		}
		if err := e.Validate(); err != nil {
			return fmt.Errorf("employee %s %s: %w", se.FirstName, se.LastName, err)
		}
		if err := s.CreateEmployee(ctx, &e); err != nil {
			return err
		}
	}

	for _, su := range seed.Users {
		u := core.User{
			Email:        su.Email,
			Name:         su.Name,
			Role:         core.Role(su.Role),
			ExternalID:   su.ExternalID,
			PasswordHash: su.PasswordHash,
			Active:       true,
		}
		if err := u.Validate(); err != nil {
			return fmt.Errorf("user %q: %w", su.Email, err)
		}
		if err := s.CreateUser(ctx, &u); err != nil {
			return fmt.Errorf("user %q: %w", su.Email, err)
		}
	}
	return nil
}

func parseOptionalDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

func (sc SeedContract) contract(suppliers map[string]int64) (core.Contract, error) {
	id, ok := suppliers[sc.Supplier]
	if !ok {
		return core.Contract{}, fmt.Errorf("unknown supplier %q", sc.Supplier)
	}
	start, err := core.ParseDate(sc.Start)
	if err != nil {
		return core.Contract{}, err
	}
	end, err := core.ParseDate(sc.End)
	if err != nil {
		return core.Contract{}, err
	}
	status := core.ContractStatus(sc.Status)
	if status == "" {
		status = core.ContractActive
	}
	c := core.Contract{SupplierID: id, Title: sc.Title, Reference: sc.Reference, StartDate: start, EndDate: end, Status: status}
	for _, sl := range sc.LineItems {
		li := core.LineItem{Description: sl.Description, Category: sl.Category, Billing: core.Billing(sl.Billing)}
		if li.Amount, err = core.ParseMoney(sl.Amount); err != nil {
			return core.Contract{}, err
		}
		li.StartDate, li.EndDate = start, end
		if sl.Start != "" {
			if li.StartDate, err = core.ParseDate(sl.Start); err != nil {
				return core.Contract{}, err
			}
		}
		if sl.End != "" {
			if li.EndDate, err = core.ParseDate(sl.End); err != nil {
				return core.Contract{}, err
			}
		}
		if li.Billing == "" {
			li.Billing = core.BillingMonthly
		}
		c.LineItems = append(c.LineItems, li)
	}
	return c, nil
}

func (sb SeedBudget) budget() (core.Budget, error) {
	b := core.Budget{Year: sb.Year, Name: sb.Name, Category: sb.Category}
	if b.Category == "" {
		b.Category = sb.Name
	}
	for m := 1; m <= 12; m++ {
		raw, ok := sb.Months[m]
		if !ok {
			raw = sb.Monthly
		}
		if raw == "" {
			continue
		}
		amount, err := core.ParseMoney(raw)
		if err != nil {
			return core.Budget{}, fmt.Errorf("month %d: %w", m, err)
		}
		b.Allocations = append(b.Allocations, core.Allocation{Month: m, Amount: amount})
	}
	return b, nil
}

func (se SeedExpense) expense(suppliers map[string]int64) (core.Expense, error) {
	date, err := core.ParseDate(se.Date)
	if err != nil {
		return core.Expense{}, err
	}
	amount, err := core.ParseMoney(se.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	e := core.Expense{Date: date, Description: se.Description, Amount: amount, Category: se.Category, Status: core.ExpenseStatus(se.Status)}
	if e.Status == "" {
		e.Status = core.ExpensePaid
	}
	if se.Supplier != "" {
		id, ok := suppliers[se.Supplier]
		if !ok {
			return core.Expense{}, fmt.Errorf("unknown supplier %q", se.Supplier)
		}
		e.SupplierID = id
	}
	return e, nil
}

func (se SeedEmployee) employee() (core.Employee, error) {
	start, err := core.ParseDate(se.Start)
	if err != nil {
		return core.Employee{}, err
	}
	end, err := parseOptionalDate(se.End)
	if err != nil {
		return core.Employee{}, err
	}
	cost, err := core.ParseMoney(se.MonthlyCost)
	if err != nil {
		return core.Employee{}, err
	}
	return core.Employee{
		FirstName:   se.FirstName,
		LastName:    se.LastName,
		Department:  se.Department,
		Title:       se.Title,
		MonthlyCost: cost,
		StartDate:   start,
		EndDate:     end,
	}, nil
}
