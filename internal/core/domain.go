package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	BillingOnce      Billing = "once"
	BillingMonthly   Billing = "monthly"
	BillingQuarterly Billing = "quarterly"
	BillingYearly    Billing = "yearly"
)

const (
	ContractDraft  ContractStatus = "draft"
	ContractActive ContractStatus = "active"
	ContractClosed ContractStatus = "closed"
)

const (
	ExpensePlanned ExpenseStatus = "planned"
	ExpensePaid    ExpenseStatus = "paid"
)

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleViewer  Role = "viewer"
)

// maxTextLen bounds names and descriptions.
const maxTextLen = 200

type (
	Billing        string
	ContractStatus string
	ExpenseStatus  string
	Role           string

	Supplier struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		VATNumber string    `json:"vat_number,omitempty"`
		Email     string    `json:"email,omitempty"`
		Category  string    `json:"category,omitempty"`
		Active    bool      `json:"active"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	Contract struct {
		ID         int64          `json:"id"`
		SupplierID int64          `json:"supplier_id"`
		Title      string         `json:"title"`
		Reference  string         `json:"reference,omitempty"`
		StartDate  Date           `json:"start_date"`
		EndDate    Date           `json:"end_date"`
		Status     ContractStatus `json:"status"`
		LineItems  []LineItem     `json:"line_items"`
		CreatedAt  time.Time      `json:"created_at"`
		UpdatedAt  time.Time      `json:"updated_at"`
	}

	// LineItem is a costed portion of a contract. Its amount is the total
	// for the whole [StartDate, EndDate] range.
	LineItem struct {
		ID             int64   `json:"id"`
		ContractID     int64   `json:"contract_id"`
		Description    string  `json:"description"`
		Category       string  `json:"category"`
		Amount         Money   `json:"amount_cents"`
		StartDate      Date    `json:"start_date"`
		EndDate        Date    `json:"end_date"`
		Billing        Billing `json:"billing"`
		LastPostedDate Date    `json:"last_posted_date"`
	}

	Budget struct {
		ID          int64        `json:"id"`
		Year        int          `json:"year"`
		Name        string       `json:"name"`
		Category    string       `json:"category"`
		Allocations []Allocation `json:"allocations"`
		CreatedAt   time.Time    `json:"created_at"`
		UpdatedAt   time.Time    `json:"updated_at"`
	}

	// Allocation is the amount budgeted for one month (1-12) of the budget year.
	Allocation struct {
		Month  int   `json:"month"`
		Amount Money `json:"amount_cents"`
	}

	Expense struct {
		ID          int64         `json:"id"`
		Date        Date          `json:"date"`
		Description string        `json:"description"`
		Amount      Money         `json:"amount_cents"`
		Category    string        `json:"category"`
		SupplierID  int64         `json:"supplier_id,omitempty"`
		ContractID  int64         `json:"contract_id,omitempty"`
		LineItemID  int64         `json:"line_item_id,omitempty"`
		Status      ExpenseStatus `json:"status"`
		Version     int64         `json:"version"`
		CreatedBy   string        `json:"created_by,omitempty"`
		CreatedAt   time.Time     `json:"created_at"`
		UpdatedAt   time.Time     `json:"updated_at"`
	}

	Employee struct {
		ID          int64     `json:"id"`
		FirstName   string    `json:"first_name"`
		LastName    string    `json:"last_name"`
		Department  string    `json:"department"`
		Title       string    `json:"title,omitempty"`
		MonthlyCost Money     `json:"monthly_cost_cents"`
		StartDate   Date      `json:"start_date"`
		EndDate     Date      `json:"end_date"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	User struct {
		ID           int64     `json:"id"`
		ExternalID   string    `json:"external_id"`
		Email        string    `json:"email"`
		Name         string    `json:"name"`
		Role         Role      `json:"role"`
		PasswordHash string    `json:"-"`
		Active       bool      `json:"active"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidYear      = errors.New("invalid year")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidPeriod    = errors.New("end date must not be before start date")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyCategory    = errors.New("empty category")
	ErrTextTooLong      = fmt.Errorf("text too long (max %d characters)", maxTextLen)
	ErrInvalidEmail     = errors.New("invalid email")
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidBilling   = errors.New("invalid billing frequency")
	ErrInvalidSupplier  = errors.New("supplier is required")
	ErrOutsideContract  = errors.New("line item period outside contract period")
	ErrDuplicateMonth   = errors.New("duplicate allocation month")
	ErrStatusTransition = errors.New("invalid status transition")
)

// IsValidationError reports whether err comes from domain validation.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidDay, ErrInvalidMonth, ErrInvalidYear, ErrInvalidAmount, ErrInvalidPeriod,
		ErrEmptyDescription, ErrEmptyName, ErrEmptyCategory, ErrTextTooLong, ErrInvalidEmail,
		ErrInvalidRole, ErrInvalidStatus, ErrInvalidBilling, ErrInvalidSupplier,
		ErrOutsideContract, ErrDuplicateMonth, ErrStatusTransition, errZeroDate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (b Billing) IsValid() bool {
	switch b {
	case BillingOnce, BillingMonthly, BillingQuarterly, BillingYearly:
		return true
	}
	return false
}

// StepMonths returns the number of months between two installments, 0 for one-off billing.
func (b Billing) StepMonths() int {
	switch b {
	case BillingMonthly:
		return 1
	case BillingQuarterly:
		return 3
	case BillingYearly:
		return 12
	}
	return 0
}

func (s ContractStatus) IsValid() bool {
	switch s {
	case ContractDraft, ContractActive, ContractClosed:
		return true
	}
	return false
}

// CanTransitionTo reports whether a contract may move from s to next.
// Closed is terminal; draft may be closed without ever being active.
func (s ContractStatus) CanTransitionTo(next ContractStatus) bool {
	switch s {
	case ContractDraft:
		return next == ContractActive || next == ContractClosed || next == ContractDraft
	case ContractActive:
		return next == ContractClosed || next == ContractActive
	}
	return false
}

func (s ExpenseStatus) IsValid() bool {
	return s == ExpensePlanned || s == ExpensePaid
}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleViewer:
		return true
	}
	return false
}

// CanWrite reports whether the role may create or modify business records.
func (r Role) CanWrite() bool {
	return r == RoleAdmin || r == RoleManager
}

// CanAdmin reports whether the role may manage users.
func (r Role) CanAdmin() bool {
	return r == RoleAdmin
}

func validateText(s string, empty error) error {
	if strings.TrimSpace(s) == "" {
		return empty
	}
	if len(s) > maxTextLen {
		return ErrTextTooLong
	}
	return nil
}

func validatePeriod(start, end Date) error {
	if err := start.Validate(); err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	if err := end.Validate(); err != nil {
		return fmt.Errorf("end date: %w", err)
	}
	if end.Before(start.Time) {
		return ErrInvalidPeriod
	}
	return nil
}

func (s Supplier) Validate() error {
	if err := validateText(s.Name, ErrEmptyName); err != nil {
		return err
	}
	if s.Email != "" && !strings.Contains(s.Email, "@") {
		return ErrInvalidEmail
	}
	if len(s.VATNumber) > 32 {
		return ErrTextTooLong
	}
	return nil
}

func (li LineItem) Validate() error {
	if err := validateText(li.Description, ErrEmptyDescription); err != nil {
		return err
	}
	if err := validateText(li.Category, ErrEmptyCategory); err != nil {
		return err
	}
	if err := li.Amount.Validate(); err != nil {
		return err
	}
	if err := validatePeriod(li.StartDate, li.EndDate); err != nil {
		return err
	}
	if !li.Billing.IsValid() {
		return ErrInvalidBilling
	}
	return nil
}

func (c Contract) Validate() error {
	if c.SupplierID <= 0 {
		return ErrInvalidSupplier
	}
	if err := validateText(c.Title, ErrEmptyName); err != nil {
		return err
	}
	if err := validatePeriod(c.StartDate, c.EndDate); err != nil {
		return err
	}
	if !c.Status.IsValid() {
		return ErrInvalidStatus
	}
	for i, li := range c.LineItems {
		if err := c.ValidateLineItem(li); err != nil {
			return fmt.Errorf("line item %d: %w", i+1, err)
		}
	}
	return nil
}

// ValidateLineItem checks li on its own and against the contract period.
func (c Contract) ValidateLineItem(li LineItem) error {
	if err := li.Validate(); err != nil {
		return err
	}
	if li.StartDate.Before(c.StartDate.Time) || li.EndDate.After(c.EndDate.Time) {
		return ErrOutsideContract
	}
	return nil
}

// Total sums the line item amounts.
func (c Contract) Total() Money {
	var total Money
	for _, li := range c.LineItems {
		total = total.Add(li.Amount)
	}
	return total
}

// LineItem returns the line item with the given id.
func (c Contract) LineItem(id int64) (LineItem, bool) {
	for _, li := range c.LineItems {
		if li.ID == id {
			return li, true
		}
	}
	return LineItem{}, false
}

func (b Budget) Validate() error {
	if b.Year < 2000 || b.Year > 2100 {
		return ErrInvalidYear
	}
	if err := validateText(b.Name, ErrEmptyName); err != nil {
		return err
	}
	if err := validateText(b.Category, ErrEmptyCategory); err != nil {
		return err
	}
	seen := make(map[int]bool, len(b.Allocations))
	for _, a := range b.Allocations {
		if a.Month < 1 || a.Month > 12 {
			return ErrInvalidMonth
		}
		if seen[a.Month] {
			return ErrDuplicateMonth
		}
		seen[a.Month] = true
		if a.Amount.Cents < 0 {
			return ErrInvalidAmount
		}
	}
	return nil
}

// Total sums every monthly allocation.
func (b Budget) Total() Money {
	var total Money
	for _, a := range b.Allocations {
		total = total.Add(a.Amount)
	}
	return total
}

// AllocationFor returns the amount allocated to month (1-12).
func (b Budget) AllocationFor(month int) Money {
	for _, a := range b.Allocations {
		if a.Month == month {
			return a.Amount
		}
	}
	return Money{}
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := validateText(e.Description, ErrEmptyDescription); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := validateText(e.Category, ErrEmptyCategory); err != nil {
		return err
	}
	if !e.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// FullName joins first and last name.
func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

func (e Employee) Validate() error {
	if err := validateText(e.FirstName, ErrEmptyName); err != nil {
		return err
	}
	if err := validateText(e.LastName, ErrEmptyName); err != nil {
		return err
	}
	if err := validateText(e.Department, ErrEmptyCategory); err != nil {
		return err
	}
	if err := e.MonthlyCost.Validate(); err != nil {
		return err
	}
	if err := e.StartDate.Validate(); err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	if !e.EndDate.IsEmpty() && e.EndDate.Before(e.StartDate.Time) {
		return ErrInvalidPeriod
	}
	return nil
}

func (u User) Validate() error {
	email := strings.TrimSpace(u.Email)
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return ErrInvalidEmail
	}
	if err := validateText(u.Name, ErrEmptyName); err != nil {
		return err
	}
	if !u.Role.IsValid() {
		return ErrInvalidRole
	}
	return nil
}
