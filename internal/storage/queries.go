package storage

import (
	"context"
	"database/sql"
	"strings"
)

// DBTX is implemented by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds the SQL statements of the repository. Rows are returned as
// flat structs mirroring the tables; mapping to domain types happens in the
// repository.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Supplier struct {
	ID        int64
	Name      string
	VATNumber string
	Email     string
	Category  string
	Active    bool
	CreatedAt string
	UpdatedAt string
}

type Contract struct {
	ID         int64
	SupplierID int64
	Title      string
	Reference  string
	StartDate  string
	EndDate    string
	Status     string
	CreatedAt  string
	UpdatedAt  string
}

type LineItem struct {
	ID             int64
	ContractID     int64
	Description    string
	Category       string
	AmountCents    int64
	StartDate      string
	EndDate        string
	Billing        string
	LastPostedDate sql.NullString
}

type Budget struct {
	ID        int64
	Year      int64
	Name      string
	Category  string
	CreatedAt string
	UpdatedAt string
}

type BudgetAllocation struct {
	BudgetID    int64
	Month       int64
	AmountCents int64
}

type Expense struct {
	ID          int64
	Date        string
	Description string
	AmountCents int64
	Category    string
	SupplierID  sql.NullInt64
	ContractID  sql.NullInt64
	LineItemID  sql.NullInt64
	Status      string
	Version     int64
	CreatedBy   string
	CreatedAt   string
	UpdatedAt   string
}

type Employee struct {
	ID               int64
	FirstName        string
	LastName         string
	Department       string
	Title            string
	MonthlyCostCents int64
	StartDate        string
	EndDate          sql.NullString
	CreatedAt        string
	UpdatedAt        string
}

type User struct {
	ID           int64
	ExternalID   string
	Email        string
	Name         string
	Role         string
	PasswordHash string
	Active       bool
	CreatedAt    string
	UpdatedAt    string
}

type PendingSyncRow struct {
	ID        int64
	Version   int64
	CreatedAt string
}

// Suppliers

const supplierColumns = `id, name, vat_number, email, category, active, created_at, updated_at`

func scanSupplier(row interface{ Scan(...any) error }) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.VATNumber, &s.Email, &s.Category, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

const createSupplier = `INSERT INTO suppliers (name, vat_number, email, category, active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING ` + supplierColumns

func (q *Queries) CreateSupplier(ctx context.Context, s Supplier) (Supplier, error) {
	return scanSupplier(q.db.QueryRowContext(ctx, createSupplier,
		s.Name, s.VATNumber, s.Email, s.Category, s.Active, s.CreatedAt, s.UpdatedAt))
}

const getSupplier = `SELECT ` + supplierColumns + ` FROM suppliers WHERE id = ?`

func (q *Queries) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	return scanSupplier(q.db.QueryRowContext(ctx, getSupplier, id))
}

const listSuppliers = `SELECT ` + supplierColumns + ` FROM suppliers ORDER BY name COLLATE NOCASE`

func (q *Queries) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := q.db.QueryContext(ctx, listSuppliers)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanSupplier)
}

const updateSupplier = `UPDATE suppliers SET name = ?, vat_number = ?, email = ?, category = ?, active = ?, updated_at = ?
WHERE id = ? RETURNING ` + supplierColumns

func (q *Queries) UpdateSupplier(ctx context.Context, s Supplier) (Supplier, error) {
	return scanSupplier(q.db.QueryRowContext(ctx, updateSupplier,
		s.Name, s.VATNumber, s.Email, s.Category, s.Active, s.UpdatedAt, s.ID))
}

const deleteSupplier = `DELETE FROM suppliers WHERE id = ?`

func (q *Queries) DeleteSupplier(ctx context.Context, id int64) (sql.Result, error) {
	return q.db.ExecContext(ctx, deleteSupplier, id)
}

// Contracts

const contractColumns = `id, supplier_id, title, reference, start_date, end_date, status, created_at, updated_at`

func scanContract(row interface{ Scan(...any) error }) (Contract, error) {
	var c Contract
	err := row.Scan(&c.ID, &c.SupplierID, &c.Title, &c.Reference, &c.StartDate, &c.EndDate, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const createContract = `INSERT INTO contracts (supplier_id, title, reference, start_date, end_date, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING ` + contractColumns

func (q *Queries) CreateContract(ctx context.Context, c Contract) (Contract, error) {
	return scanContract(q.db.QueryRowContext(ctx, createContract,
		c.SupplierID, c.Title, c.Reference, c.StartDate, c.EndDate, c.Status, c.CreatedAt, c.UpdatedAt))
}

const getContract = `SELECT ` + contractColumns + ` FROM contracts WHERE id = ?`

func (q *Queries) GetContract(ctx context.Context, id int64) (Contract, error) {
	return scanContract(q.db.QueryRowContext(ctx, getContract, id))
}

const listContracts = `SELECT ` + contractColumns + ` FROM contracts
WHERE (? = 0 OR supplier_id = ?) AND (? = '' OR status = ?)
ORDER BY start_date, id`

func (q *Queries) ListContracts(ctx context.Context, supplierID int64, status string) ([]Contract, error) {
	rows, err := q.db.QueryContext(ctx, listContracts, supplierID, supplierID, status, status)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanContract)
}

const updateContract = `UPDATE contracts SET supplier_id = ?, title = ?, reference = ?, start_date = ?, end_date = ?, status = ?, updated_at = ?
WHERE id = ? RETURNING ` + contractColumns

func (q *Queries) UpdateContract(ctx context.Context, c Contract) (Contract, error) {
	return scanContract(q.db.QueryRowContext(ctx, updateContract,
		c.SupplierID, c.Title, c.Reference, c.StartDate, c.EndDate, c.Status, c.UpdatedAt, c.ID))
}

const deleteContract = `DELETE FROM contracts WHERE id = ?`

func (q *Queries) DeleteContract(ctx context.Context, id int64) (sql.Result, error) {
	return q.db.ExecContext(ctx, deleteContract, id)
}

const touchContract = `UPDATE contracts SET updated_at = ? WHERE id = ?`

func (q *Queries) TouchContract(ctx context.Context, id int64, at string) error {
	_, err := q.db.ExecContext(ctx, touchContract, at, id)
	return err
}

// Line items

const lineItemColumns = `id, contract_id, description, category, amount_cents, start_date, end_date, billing, last_posted_date`

func scanLineItem(row interface{ Scan(...any) error }) (LineItem, error) {
	var li LineItem
	err := row.Scan(&li.ID, &li.ContractID, &li.Description, &li.Category, &li.AmountCents,
		&li.StartDate, &li.EndDate, &li.Billing, &li.LastPostedDate)
	return li, err
}

const createLineItem = `INSERT INTO line_items (contract_id, description, category, amount_cents, start_date, end_date, billing, last_posted_date)
VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING ` + lineItemColumns

func (q *Queries) CreateLineItem(ctx context.Context, li LineItem) (LineItem, error) {
	return scanLineItem(q.db.QueryRowContext(ctx, createLineItem,
		li.ContractID, li.Description, li.Category, li.AmountCents, li.StartDate, li.EndDate, li.Billing, li.LastPostedDate))
}

const listLineItems = `SELECT ` + lineItemColumns + ` FROM line_items WHERE contract_id = ? ORDER BY id`

func (q *Queries) ListLineItems(ctx context.Context, contractID int64) ([]LineItem, error) {
	rows, err := q.db.QueryContext(ctx, listLineItems, contractID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanLineItem)
}

const deleteLineItem = `DELETE FROM line_items WHERE id = ? AND contract_id = ?`

func (q *Queries) DeleteLineItem(ctx context.Context, contractID, itemID int64) (sql.Result, error) {
	return q.db.ExecContext(ctx, deleteLineItem, itemID, contractID)
}

const setLineItemPosted = `UPDATE line_items SET last_posted_date = ? WHERE id = ?`

func (q *Queries) SetLineItemPosted(ctx context.Context, itemID int64, posted string) (sql.Result, error) {
	return q.db.ExecContext(ctx, setLineItemPosted, posted, itemID)
}

const countLiveExpensesByContract = `SELECT COUNT(*) FROM expenses WHERE contract_id = ? AND deleted_at IS NULL`

func (q *Queries) CountLiveExpensesByContract(ctx context.Context, contractID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countLiveExpensesByContract, contractID).Scan(&n)
	return n, err
}

const countLiveExpensesByLineItem = `SELECT COUNT(*) FROM expenses WHERE line_item_id = ? AND deleted_at IS NULL`

func (q *Queries) CountLiveExpensesByLineItem(ctx context.Context, itemID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countLiveExpensesByLineItem, itemID).Scan(&n)
	return n, err
}

// Budgets

const budgetColumns = `id, year, name, category, created_at, updated_at`

func scanBudget(row interface{ Scan(...any) error }) (Budget, error) {
	var b Budget
	err := row.Scan(&b.ID, &b.Year, &b.Name, &b.Category, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

const createBudget = `INSERT INTO budgets (year, name, category, created_at, updated_at)
VALUES (?, ?, ?, ?, ?) RETURNING ` + budgetColumns

func (q *Queries) CreateBudget(ctx context.Context, b Budget) (Budget, error) {
	return scanBudget(q.db.QueryRowContext(ctx, createBudget, b.Year, b.Name, b.Category, b.CreatedAt, b.UpdatedAt))
}

const getBudget = `SELECT ` + budgetColumns + ` FROM budgets WHERE id = ?`

func (q *Queries) GetBudget(ctx context.Context, id int64) (Budget, error) {
	return scanBudget(q.db.QueryRowContext(ctx, getBudget, id))
}

const listBudgets = `SELECT ` + budgetColumns + ` FROM budgets WHERE (? = 0 OR year = ?) ORDER BY year, name`

func (q *Queries) ListBudgets(ctx context.Context, year int64) ([]Budget, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets, year, year)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBudget)
}

const updateBudget = `UPDATE budgets SET year = ?, name = ?, category = ?, updated_at = ? WHERE id = ? RETURNING ` + budgetColumns

func (q *Queries) UpdateBudget(ctx context.Context, b Budget) (Budget, error) {
	return scanBudget(q.db.QueryRowContext(ctx, updateBudget, b.Year, b.Name, b.Category, b.UpdatedAt, b.ID))
}

const deleteBudget = `DELETE FROM budgets WHERE id = ?`

func (q *Queries) DeleteBudget(ctx context.Context, id int64) (sql.Result, error) {
	return q.db.ExecContext(ctx, deleteBudget, id)
}

const insertAllocation = `INSERT INTO budget_allocations (budget_id, month, amount_cents) VALUES (?, ?, ?)`

func (q *Queries) InsertAllocation(ctx context.Context, a BudgetAllocation) error {
	_, err := q.db.ExecContext(ctx, insertAllocation, a.BudgetID, a.Month, a.AmountCents)
	return err
}

const deleteAllocations = `DELETE FROM budget_allocations WHERE budget_id = ?`

func (q *Queries) DeleteAllocations(ctx context.Context, budgetID int64) error {
	_, err := q.db.ExecContext(ctx, deleteAllocations, budgetID)
	return err
}

const listAllocations = `SELECT budget_id, month, amount_cents FROM budget_allocations WHERE budget_id = ? ORDER BY month`

func (q *Queries) ListAllocations(ctx context.Context, budgetID int64) ([]BudgetAllocation, error) {
	rows, err := q.db.QueryContext(ctx, listAllocations, budgetID)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row interface{ Scan(...any) error }) (BudgetAllocation, error) {
		var a BudgetAllocation
		err := row.Scan(&a.BudgetID, &a.Month, &a.AmountCents)
		return a, err
	})
}

// Expenses

const expenseColumns = `id, date, description, amount_cents, category, supplier_id, contract_id, line_item_id, status, version, created_by, created_at, updated_at`

func scanExpense(row interface{ Scan(...any) error }) (Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.Date, &e.Description, &e.AmountCents, &e.Category, &e.SupplierID, &e.ContractID,
		&e.LineItemID, &e.Status, &e.Version, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

const createExpense = `INSERT INTO expenses (date, description, amount_cents, category, supplier_id, contract_id, line_item_id, status, created_by, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING ` + expenseColumns

func (q *Queries) CreateExpense(ctx context.Context, e Expense) (Expense, error) {
	return scanExpense(q.db.QueryRowContext(ctx, createExpense,
		e.Date, e.Description, e.AmountCents, e.Category, e.SupplierID, e.ContractID, e.LineItemID,
		e.Status, e.CreatedBy, e.CreatedAt, e.UpdatedAt))
}

const getExpense = `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ? AND deleted_at IS NULL`

func (q *Queries) GetExpense(ctx context.Context, id int64) (Expense, error) {
	return scanExpense(q.db.QueryRowContext(ctx, getExpense, id))
}

// ExpenseListParams mirrors store.ExpenseFilter with SQL friendly values.
type ExpenseListParams struct {
	DateFrom   string
	DateTo     string
	Category   string
	SupplierID int64
	ContractID int64
	LineItemID int64
	Status     string
	Limit      int64
	Offset     int64
}

// ListExpenses builds its WHERE clause from the non-zero params.
func (q *Queries) ListExpenses(ctx context.Context, p ExpenseListParams) ([]Expense, error) {
	var (
		where = []string{"deleted_at IS NULL"}
		args  []any
	)
	add := func(clause string, arg any) {
		where = append(where, clause)
		args = append(args, arg)
	}
	if p.DateFrom != "" {
		add("date >= ?", p.DateFrom)
	}
	if p.DateTo != "" {
		add("date <= ?", p.DateTo)
	}
	if p.Category != "" {
		add("category = ?", p.Category)
	}
	if p.SupplierID != 0 {
		add("supplier_id = ?", p.SupplierID)
	}
	if p.ContractID != 0 {
		add("contract_id = ?", p.ContractID)
	}
	if p.LineItemID != 0 {
		add("line_item_id = ?", p.LineItemID)
	}
	if p.Status != "" {
		add("status = ?", p.Status)
	}
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY date DESC, id DESC`
	if p.Limit > 0 || p.Offset > 0 {
		limit := p.Limit
		if limit <= 0 {
			limit = -1
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, p.Offset)
	}
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanExpense)
}

const updateExpense = `UPDATE expenses SET date = ?, description = ?, amount_cents = ?, category = ?, supplier_id = ?,
contract_id = ?, line_item_id = ?, status = ?, version = version + 1, sync_status = 'pending', sync_error = '',
sync_attempts = 0, sync_retry_at = '', updated_at = ?
WHERE id = ? AND version = ? AND deleted_at IS NULL RETURNING ` + expenseColumns

func (q *Queries) UpdateExpense(ctx context.Context, e Expense) (Expense, error) {
	return scanExpense(q.db.QueryRowContext(ctx, updateExpense,
		e.Date, e.Description, e.AmountCents, e.Category, e.SupplierID, e.ContractID, e.LineItemID,
		e.Status, e.UpdatedAt, e.ID, e.Version))
}

const softDeleteExpense = `UPDATE expenses SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`

func (q *Queries) SoftDeleteExpense(ctx context.Context, id int64, at string) (sql.Result, error) {
	return q.db.ExecContext(ctx, softDeleteExpense, at, at, id)
}

// Errored rows come back once their retry time has passed, until they run
// out of attempts. sync_retry_at uses a fixed width layout so text order is
// time order.
const getPendingSyncExpenses = `SELECT id, version, created_at FROM expenses
WHERE deleted_at IS NULL AND (sync_status = 'pending'
   OR (sync_status = 'error' AND sync_attempts < ? AND sync_retry_at <= ?))
ORDER BY id LIMIT ?`

func (q *Queries) GetPendingSyncExpenses(ctx context.Context, maxAttempts int64, now string, limit int64) ([]PendingSyncRow, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncExpenses, maxAttempts, now, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row interface{ Scan(...any) error }) (PendingSyncRow, error) {
		var p PendingSyncRow
		err := row.Scan(&p.ID, &p.Version, &p.CreatedAt)
		return p, err
	})
}

// Only a sync of the current version settles the row; a newer edit stays pending.
const markExpenseSynced = `UPDATE expenses SET synced_version = ?, sync_error = '',
sync_attempts = 0, sync_retry_at = '',
sync_status = CASE WHEN version <= ? THEN 'synced' ELSE sync_status END
WHERE id = ?`

func (q *Queries) MarkExpenseSynced(ctx context.Context, id, version int64) (sql.Result, error) {
	return q.db.ExecContext(ctx, markExpenseSynced, version, version, id)
}

const markExpenseSyncError = `UPDATE expenses SET sync_status = 'error', sync_error = ?,
sync_attempts = sync_attempts + 1 WHERE id = ? RETURNING sync_attempts`

// MarkExpenseSyncError records a failed sync and returns the attempt count.
func (q *Queries) MarkExpenseSyncError(ctx context.Context, id int64, reason string) (int64, error) {
	var attempts int64
	err := q.db.QueryRowContext(ctx, markExpenseSyncError, reason, id).Scan(&attempts)
	return attempts, err
}

const setExpenseSyncRetry = `UPDATE expenses SET sync_retry_at = ? WHERE id = ?`

func (q *Queries) SetExpenseSyncRetry(ctx context.Context, id int64, at string) (sql.Result, error) {
	return q.db.ExecContext(ctx, setExpenseSyncRetry, at, id)
}

// Employees

const employeeColumns = `id, first_name, last_name, department, title, monthly_cost_cents, start_date, end_date, created_at, updated_at`

func scanEmployee(row interface{ Scan(...any) error }) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Department, &e.Title, &e.MonthlyCostCents,
		&e.StartDate, &e.EndDate, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

const createEmployee = `INSERT INTO employees (first_name, last_name, department, title, monthly_cost_cents, start_date, end_date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING ` + employeeColumns

func (q *Queries) CreateEmployee(ctx context.Context, e Employee) (Employee, error) {
	return scanEmployee(q.db.QueryRowContext(ctx, createEmployee,
		e.FirstName, e.LastName, e.Department, e.Title, e.MonthlyCostCents, e.StartDate, e.EndDate, e.CreatedAt, e.UpdatedAt))
}

const getEmployee = `SELECT ` + employeeColumns + ` FROM employees WHERE id = ?`

func (q *Queries) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	return scanEmployee(q.db.QueryRowContext(ctx, getEmployee, id))
}

const listEmployees = `SELECT ` + employeeColumns + ` FROM employees ORDER BY last_name, first_name`

func (q *Queries) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := q.db.QueryContext(ctx, listEmployees)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanEmployee)
}

const updateEmployee = `UPDATE employees SET first_name = ?, last_name = ?, department = ?, title = ?, monthly_cost_cents = ?,
start_date = ?, end_date = ?, updated_at = ? WHERE id = ? RETURNING ` + employeeColumns

func (q *Queries) UpdateEmployee(ctx context.Context, e Employee) (Employee, error) {
	return scanEmployee(q.db.QueryRowContext(ctx, updateEmployee,
		e.FirstName, e.LastName, e.Department, e.Title, e.MonthlyCostCents, e.StartDate, e.EndDate, e.UpdatedAt, e.ID))
}

const deleteEmployee = `DELETE FROM employees WHERE id = ?`

func (q *Queries) DeleteEmployee(ctx context.Context, id int64) (sql.Result, error) {
	return q.db.ExecContext(ctx, deleteEmployee, id)
}

// Users

const userColumns = `id, external_id, email, name, role, password_hash, active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.ExternalID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const createUser = `INSERT INTO users (external_id, email, name, role, password_hash, active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING ` + userColumns

func (q *Queries) CreateUser(ctx context.Context, u User) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, createUser,
		u.ExternalID, u.Email, u.Name, u.Role, u.PasswordHash, u.Active, u.CreatedAt, u.UpdatedAt))
}

const getUser = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUser, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const getUserByExternalID = `SELECT ` + userColumns + ` FROM users WHERE external_id = ?`

func (q *Queries) GetUserByExternalID(ctx context.Context, externalID string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByExternalID, externalID))
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY email`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanUser)
}

// An empty password_hash keeps the stored one.
const updateUser = `UPDATE users SET email = ?, name = ?, role = ?,
password_hash = CASE WHEN ? = '' THEN password_hash ELSE ? END, active = ?, updated_at = ?
WHERE id = ? RETURNING ` + userColumns

func (q *Queries) UpdateUser(ctx context.Context, u User) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, updateUser,
		u.Email, u.Name, u.Role, u.PasswordHash, u.PasswordHash, u.Active, u.UpdatedAt, u.ID))
}

const deleteUser = `DELETE FROM users WHERE id = ?`

func (q *Queries) DeleteUser(ctx context.Context, id int64) (sql.Result, error) {
	return q.db.ExecContext(ctx, deleteUser, id)
}

func collect[T any](rows *sql.Rows, scan func(interface{ Scan(...any) error }) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
