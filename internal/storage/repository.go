package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"budgetdesk/internal/core"
	"budgetdesk/internal/store"
)

const timestampLayout = time.RFC3339Nano

// retryLayout is fixed width so sync_retry_at compares correctly as text.
const retryLayout = "2006-01-02T15:04:05Z"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

var _ store.Store = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens the database at dbPath, creating its directory,
// and applies pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	return OpenSQLiteRepository(dbPath, true)
}

// OpenSQLiteRepository is NewSQLiteRepository with migrations optional, for
// deployments that migrate out of band with budgetctl.
func OpenSQLiteRepository(dbPath string, migrate bool) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if migrate {
		if err := RunMigrations(dbPath); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

// dsn enables foreign keys and a busy timeout on every pooled connection.
func dsn(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) stamp() string {
	return r.now().UTC().Format(timestampLayout)
}

// inTx runs fn inside a transaction, rolling back on error.
func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// mapError translates driver errors into store sentinels.
func mapError(err error, notFound, duplicate error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			if duplicate != nil {
				return duplicate
			}
			return fmt.Errorf("%w: %v", store.ErrConflict, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %v", store.ErrInUse, err)
		}
	}
	return err
}

func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDate(s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}
	}
	return d
}

func nullDate(d core.Date) sql.NullString {
	if d.IsEmpty() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

// Suppliers

func toSupplier(s Supplier) core.Supplier {
	return core.Supplier{
		ID:        s.ID,
		Name:      s.Name,
		VATNumber: s.VATNumber,
		Email:     s.Email,
		Category:  s.Category,
		Active:    s.Active,
		CreatedAt: parseTimestamp(s.CreatedAt),
		UpdatedAt: parseTimestamp(s.UpdatedAt),
	}
}

func (r *SQLiteRepository) CreateSupplier(ctx context.Context, s *core.Supplier) error {
	now := r.stamp()
	row, err := r.queries.CreateSupplier(ctx, Supplier{
		Name: s.Name, VATNumber: s.VATNumber, Email: s.Email, Category: s.Category, Active: s.Active,
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		return mapError(err, store.ErrSupplierNotFound, store.ErrSupplierExists)
	}
	*s = toSupplier(row)
	return nil
}

func (r *SQLiteRepository) GetSupplier(ctx context.Context, id int64) (core.Supplier, error) {
	row, err := r.queries.GetSupplier(ctx, id)
	if err != nil {
		return core.Supplier{}, mapError(err, store.ErrSupplierNotFound, nil)
	}
	return toSupplier(row), nil
}

func (r *SQLiteRepository) ListSuppliers(ctx context.Context) ([]core.Supplier, error) {
	rows, err := r.queries.ListSuppliers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	out := make([]core.Supplier, len(rows))
	for i, row := range rows {
		out[i] = toSupplier(row)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateSupplier(ctx context.Context, s *core.Supplier) error {
	row, err := r.queries.UpdateSupplier(ctx, Supplier{
		ID: s.ID, Name: s.Name, VATNumber: s.VATNumber, Email: s.Email, Category: s.Category, Active: s.Active,
		UpdatedAt: r.stamp(),
	})
	if err != nil {
		return mapError(err, store.ErrSupplierNotFound, store.ErrSupplierExists)
	}
	*s = toSupplier(row)
	return nil
}

func (r *SQLiteRepository) DeleteSupplier(ctx context.Context, id int64) error {
	res, err := r.queries.DeleteSupplier(ctx, id)
	if err != nil {
		return mapError(err, store.ErrSupplierNotFound, nil)
	}
	return checkAffected(res, store.ErrSupplierNotFound)
}

// Contracts

func toLineItem(li LineItem) core.LineItem {
	out := core.LineItem{
		ID:          li.ID,
		ContractID:  li.ContractID,
		Description: li.Description,
		Category:    li.Category,
		Amount:      core.Cents(li.AmountCents),
		StartDate:   parseDate(li.StartDate),
		EndDate:     parseDate(li.EndDate),
		Billing:     core.Billing(li.Billing),
	}
	if li.LastPostedDate.Valid {
		out.LastPostedDate = parseDate(li.LastPostedDate.String)
	}
	return out
}

func fromLineItem(contractID int64, li core.LineItem) LineItem {
	return LineItem{
		ContractID:     contractID,
		Description:    li.Description,
		Category:       li.Category,
		AmountCents:    li.Amount.Cents,
		StartDate:      li.StartDate.String(),
		EndDate:        li.EndDate.String(),
		Billing:        string(li.Billing),
		LastPostedDate: nullDate(li.LastPostedDate),
	}
}

func toContract(c Contract, items []LineItem) core.Contract {
	out := core.Contract{
		ID:         c.ID,
		SupplierID: c.SupplierID,
		Title:      c.Title,
		Reference:  c.Reference,
		StartDate:  parseDate(c.StartDate),
		EndDate:    parseDate(c.EndDate),
		Status:     core.ContractStatus(c.Status),
		LineItems:  make([]core.LineItem, len(items)),
		CreatedAt:  parseTimestamp(c.CreatedAt),
		UpdatedAt:  parseTimestamp(c.UpdatedAt),
	}
	for i, li := range items {
		out.LineItems[i] = toLineItem(li)
	}
	return out
}

func (r *SQLiteRepository) CreateContract(ctx context.Context, c *core.Contract) error {
	now := r.stamp()
	return r.inTx(ctx, func(q *Queries) error {
		row, err := q.CreateContract(ctx, Contract{
			SupplierID: c.SupplierID, Title: c.Title, Reference: c.Reference,
			StartDate: c.StartDate.String(), EndDate: c.EndDate.String(), Status: string(c.Status),
			CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			if errors.Is(mapError(err, nil, nil), store.ErrInUse) {
				return store.ErrSupplierNotFound
			}
			return fmt.Errorf("create contract: %w", err)
		}
		items := make([]LineItem, 0, len(c.LineItems))
		for _, li := range c.LineItems {
			created, err := q.CreateLineItem(ctx, fromLineItem(row.ID, li))
			if err != nil {
				return fmt.Errorf("create line item: %w", err)
			}
			items = append(items, created)
		}
		*c = toContract(row, items)
		return nil
	})
}

func (r *SQLiteRepository) loadContract(ctx context.Context, q *Queries, row Contract) (core.Contract, error) {
	items, err := q.ListLineItems(ctx, row.ID)
	if err != nil {
		return core.Contract{}, fmt.Errorf("list line items: %w", err)
	}
	return toContract(row, items), nil
}

func (r *SQLiteRepository) GetContract(ctx context.Context, id int64) (core.Contract, error) {
	row, err := r.queries.GetContract(ctx, id)
	if err != nil {
		return core.Contract{}, mapError(err, store.ErrContractNotFound, nil)
	}
	return r.loadContract(ctx, r.queries, row)
}

func (r *SQLiteRepository) ListContracts(ctx context.Context, f store.ContractFilter) ([]core.Contract, error) {
	rows, err := r.queries.ListContracts(ctx, f.SupplierID, string(f.Status))
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	out := make([]core.Contract, 0, len(rows))
	for _, row := range rows {
		c, err := r.loadContract(ctx, r.queries, row)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateContract(ctx context.Context, c *core.Contract) error {
	row, err := r.queries.UpdateContract(ctx, Contract{
		ID: c.ID, SupplierID: c.SupplierID, Title: c.Title, Reference: c.Reference,
		StartDate: c.StartDate.String(), EndDate: c.EndDate.String(), Status: string(c.Status),
		UpdatedAt: r.stamp(),
	})
	if err != nil {
		mapped := mapError(err, store.ErrContractNotFound, nil)
		if errors.Is(mapped, store.ErrInUse) {
			return store.ErrSupplierNotFound
		}
		return mapped
	}
	updated, err := r.loadContract(ctx, r.queries, row)
	if err != nil {
		return err
	}
	*c = updated
	return nil
}

func (r *SQLiteRepository) DeleteContract(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(q *Queries) error {
		n, err := q.CountLiveExpensesByContract(ctx, id)
		if err != nil {
			return fmt.Errorf("count contract expenses: %w", err)
		}
		if n > 0 {
			return store.ErrInUse
		}
		res, err := q.DeleteContract(ctx, id)
		if err != nil {
			return mapError(err, store.ErrContractNotFound, nil)
		}
		return checkAffected(res, store.ErrContractNotFound)
	})
}

func (r *SQLiteRepository) AddLineItem(ctx context.Context, contractID int64, li *core.LineItem) error {
	return r.inTx(ctx, func(q *Queries) error {
		if _, err := q.GetContract(ctx, contractID); err != nil {
			return mapError(err, store.ErrContractNotFound, nil)
		}
		row, err := q.CreateLineItem(ctx, fromLineItem(contractID, *li))
		if err != nil {
			return fmt.Errorf("create line item: %w", err)
		}
		if err := q.TouchContract(ctx, contractID, r.stamp()); err != nil {
			return fmt.Errorf("touch contract: %w", err)
		}
		*li = toLineItem(row)
		return nil
	})
}

func (r *SQLiteRepository) DeleteLineItem(ctx context.Context, contractID, itemID int64) error {
	return r.inTx(ctx, func(q *Queries) error {
		if _, err := q.GetContract(ctx, contractID); err != nil {
			return mapError(err, store.ErrContractNotFound, nil)
		}
		n, err := q.CountLiveExpensesByLineItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("count line item expenses: %w", err)
		}
		if n > 0 {
			return store.ErrInUse
		}
		res, err := q.DeleteLineItem(ctx, contractID, itemID)
		if err != nil {
			return fmt.Errorf("delete line item: %w", err)
		}
		if err := checkAffected(res, store.ErrLineItemNotFound); err != nil {
			return err
		}
		return q.TouchContract(ctx, contractID, r.stamp())
	})
}

func (r *SQLiteRepository) MarkLineItemPosted(ctx context.Context, itemID int64, posted core.Date) error {
	res, err := r.queries.SetLineItemPosted(ctx, itemID, posted.String())
	if err != nil {
		return fmt.Errorf("mark line item posted: %w", err)
	}
	return checkAffected(res, store.ErrLineItemNotFound)
}

// Budgets

func toBudget(b Budget, allocs []BudgetAllocation) core.Budget {
	out := core.Budget{
		ID:          b.ID,
		Year:        int(b.Year),
		Name:        b.Name,
		Category:    b.Category,
		Allocations: make([]core.Allocation, len(allocs)),
		CreatedAt:   parseTimestamp(b.CreatedAt),
		UpdatedAt:   parseTimestamp(b.UpdatedAt),
	}
	for i, a := range allocs {
		out.Allocations[i] = core.Allocation{Month: int(a.Month), Amount: core.Cents(a.AmountCents)}
	}
	return out
}

func writeAllocations(ctx context.Context, q *Queries, budgetID int64, allocs []core.Allocation) ([]BudgetAllocation, error) {
	if err := q.DeleteAllocations(ctx, budgetID); err != nil {
		return nil, fmt.Errorf("clear allocations: %w", err)
	}
	for _, a := range allocs {
		if err := q.InsertAllocation(ctx, BudgetAllocation{BudgetID: budgetID, Month: int64(a.Month), AmountCents: a.Amount.Cents}); err != nil {
			return nil, fmt.Errorf("insert allocation: %w", err)
		}
	}
	return q.ListAllocations(ctx, budgetID)
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b *core.Budget) error {
	now := r.stamp()
	return r.inTx(ctx, func(q *Queries) error {
		row, err := q.CreateBudget(ctx, Budget{Year: int64(b.Year), Name: b.Name, Category: b.Category, CreatedAt: now, UpdatedAt: now})
		if err != nil {
			return mapError(err, store.ErrBudgetNotFound, store.ErrBudgetExists)
		}
		allocs, err := writeAllocations(ctx, q, row.ID, b.Allocations)
		if err != nil {
			return err
		}
		*b = toBudget(row, allocs)
		return nil
	})
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	row, err := r.queries.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, mapError(err, store.ErrBudgetNotFound, nil)
	}
	allocs, err := r.queries.ListAllocations(ctx, id)
	if err != nil {
		return core.Budget{}, fmt.Errorf("list allocations: %w", err)
	}
	return toBudget(row, allocs), nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, year int) ([]core.Budget, error) {
	rows, err := r.queries.ListBudgets(ctx, int64(year))
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make([]core.Budget, 0, len(rows))
	for _, row := range rows {
		allocs, err := r.queries.ListAllocations(ctx, row.ID)
		if err != nil {
			return nil, fmt.Errorf("list allocations: %w", err)
		}
		out = append(out, toBudget(row, allocs))
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b *core.Budget) error {
	return r.inTx(ctx, func(q *Queries) error {
		row, err := q.UpdateBudget(ctx, Budget{ID: b.ID, Year: int64(b.Year), Name: b.Name, Category: b.Category, UpdatedAt: r.stamp()})
		if err != nil {
			return mapError(err, store.ErrBudgetNotFound, store.ErrBudgetExists)
		}
		allocs, err := writeAllocations(ctx, q, row.ID, b.Allocations)
		if err != nil {
			return err
		}
		*b = toBudget(row, allocs)
		return nil
	})
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	res, err := r.queries.DeleteBudget(ctx, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return checkAffected(res, store.ErrBudgetNotFound)
}

// Expenses

func toExpense(e Expense) core.Expense {
	return core.Expense{
		ID:          e.ID,
		Date:        parseDate(e.Date),
		Description: e.Description,
		Amount:      core.Cents(e.AmountCents),
		Category:    e.Category,
		SupplierID:  e.SupplierID.Int64,
		ContractID:  e.ContractID.Int64,
		LineItemID:  e.LineItemID.Int64,
		Status:      core.ExpenseStatus(e.Status),
		Version:     e.Version,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   parseTimestamp(e.CreatedAt),
		UpdatedAt:   parseTimestamp(e.UpdatedAt),
	}
}

func fromExpense(e core.Expense) Expense {
	return Expense{
		ID:          e.ID,
		Date:        e.Date.String(),
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		Category:    e.Category,
		SupplierID:  nullID(e.SupplierID),
		ContractID:  nullID(e.ContractID),
		LineItemID:  nullID(e.LineItemID),
		Status:      string(e.Status),
		Version:     e.Version,
		CreatedBy:   e.CreatedBy,
	}
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e *core.Expense) error {
	now := r.stamp()
	row := fromExpense(*e)
	row.CreatedAt, row.UpdatedAt = now, now
	created, err := r.queries.CreateExpense(ctx, row)
	if err != nil {
		return mapError(fmt.Errorf("create expense: %w", err), store.ErrExpenseNotFound, nil)
	}
	*e = toExpense(created)
	slog.DebugContext(ctx, "Expense saved to SQLite", "id", e.ID, "amount_cents", e.Amount.Cents)
	return nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, mapError(err, store.ErrExpenseNotFound, nil)
	}
	return toExpense(row), nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, f store.ExpenseFilter) ([]core.Expense, error) {
	p := ExpenseListParams{
		Category:   f.Category,
		SupplierID: f.SupplierID,
		ContractID: f.ContractID,
		LineItemID: f.LineItemID,
		Status:     string(f.Status),
		Limit:      int64(f.Limit),
		Offset:     int64(f.Offset),
	}
	if f.Year != 0 {
		from, to := core.NewDate(f.Year, 1, 1), core.NewDate(f.Year, 12, 31)
		if f.Month != 0 {
			m := core.Month{Year: f.Year, Month: f.Month}
			from, to = m.Start(), m.End()
		}
		p.DateFrom, p.DateTo = from.String(), to.String()
	}
	rows, err := r.queries.ListExpenses(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.Expense, len(rows))
	for i, row := range rows {
		out[i] = toExpense(row)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e *core.Expense) error {
	row := fromExpense(*e)
	row.UpdatedAt = r.stamp()
	updated, err := r.queries.UpdateExpense(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.queries.GetExpense(ctx, e.ID); getErr != nil {
			return mapError(getErr, store.ErrExpenseNotFound, nil)
		}
		return store.ErrVersionMismatch
	}
	if err != nil {
		return mapError(fmt.Errorf("update expense: %w", err), store.ErrExpenseNotFound, nil)
	}
	*e = toExpense(updated)
	return nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) (core.Expense, error) {
	var snapshot core.Expense
	err := r.inTx(ctx, func(q *Queries) error {
		row, err := q.GetExpense(ctx, id)
		if err != nil {
			return mapError(err, store.ErrExpenseNotFound, nil)
		}
		res, err := q.SoftDeleteExpense(ctx, id, r.stamp())
		if err != nil {
			return fmt.Errorf("soft delete expense: %w", err)
		}
		if err := checkAffected(res, store.ErrExpenseNotFound); err != nil {
			return err
		}
		snapshot = toExpense(row)
		return nil
	})
	return snapshot, err
}

// Sync bookkeeping

func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]store.PendingSync, error) {
	now := r.now().UTC().Format(retryLayout)
	rows, err := r.queries.GetPendingSyncExpenses(ctx, store.MaxSyncAttempts, now, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync expenses: %w", err)
	}
	out := make([]store.PendingSync, len(rows))
	for i, row := range rows {
		out[i] = store.PendingSync{ID: row.ID, Version: row.Version, CreatedAt: parseTimestamp(row.CreatedAt)}
	}
	return out, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id, version int64) error {
	res, err := r.queries.MarkExpenseSynced(ctx, id, version)
	if err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	if err := checkAffected(res, store.ErrExpenseNotFound); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Expense marked as synced", "id", id, "version", version)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64, reason string) error {
	var retryAt time.Time
	err := r.inTx(ctx, func(q *Queries) error {
		attempts, err := q.MarkExpenseSyncError(ctx, id, reason)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrExpenseNotFound
			}
			return fmt.Errorf("mark expense sync error: %w", err)
		}
		retryAt = store.SyncRetryAt(r.now().UTC(), int(attempts))
		if _, err := q.SetExpenseSyncRetry(ctx, id, retryAt.Format(retryLayout)); err != nil {
			return fmt.Errorf("schedule expense sync retry: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.WarnContext(ctx, "Expense marked with sync error", "id", id, "reason", reason, "retry_at", retryAt)
	return nil
}

// Employees

func toEmployee(e Employee) core.Employee {
	out := core.Employee{
		ID:          e.ID,
		FirstName:   e.FirstName,
		LastName:    e.LastName,
		Department:  e.Department,
		Title:       e.Title,
		MonthlyCost: core.Cents(e.MonthlyCostCents),
		StartDate:   parseDate(e.StartDate),
		CreatedAt:   parseTimestamp(e.CreatedAt),
		UpdatedAt:   parseTimestamp(e.UpdatedAt),
	}
	if e.EndDate.Valid {
		out.EndDate = parseDate(e.EndDate.String)
	}
	return out
}

func fromEmployee(e core.Employee) Employee {
	return Employee{
		ID:               e.ID,
		FirstName:        e.FirstName,
		LastName:         e.LastName,
		Department:       e.Department,
		Title:            e.Title,
		MonthlyCostCents: e.MonthlyCost.Cents,
		StartDate:        e.StartDate.String(),
		EndDate:          nullDate(e.EndDate),
	}
}

func (r *SQLiteRepository) CreateEmployee(ctx context.Context, e *core.Employee) error {
	row := fromEmployee(*e)
	row.CreatedAt = r.stamp()
	row.UpdatedAt = row.CreatedAt
	created, err := r.queries.CreateEmployee(ctx, row)
	if err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	*e = toEmployee(created)
	return nil
}

func (r *SQLiteRepository) GetEmployee(ctx context.Context, id int64) (core.Employee, error) {
	row, err := r.queries.GetEmployee(ctx, id)
	if err != nil {
		return core.Employee{}, mapError(err, store.ErrEmployeeNotFound, nil)
	}
	return toEmployee(row), nil
}

func (r *SQLiteRepository) ListEmployees(ctx context.Context) ([]core.Employee, error) {
	rows, err := r.queries.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	out := make([]core.Employee, len(rows))
	for i, row := range rows {
		out[i] = toEmployee(row)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateEmployee(ctx context.Context, e *core.Employee) error {
	row := fromEmployee(*e)
	row.UpdatedAt = r.stamp()
	updated, err := r.queries.UpdateEmployee(ctx, row)
	if err != nil {
		return mapError(err, store.ErrEmployeeNotFound, nil)
	}
	*e = toEmployee(updated)
	return nil
}

func (r *SQLiteRepository) DeleteEmployee(ctx context.Context, id int64) error {
	res, err := r.queries.DeleteEmployee(ctx, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	return checkAffected(res, store.ErrEmployeeNotFound)
}

// Users

func toUser(u User) core.User {
	return core.User{
		ID:           u.ID,
		ExternalID:   u.ExternalID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         core.Role(u.Role),
		PasswordHash: u.PasswordHash,
		Active:       u.Active,
		CreatedAt:    parseTimestamp(u.CreatedAt),
		UpdatedAt:    parseTimestamp(u.UpdatedAt),
	}
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u *core.User) error {
	now := r.stamp()
	row, err := r.queries.CreateUser(ctx, User{
		ExternalID: u.ExternalID, Email: u.Email, Name: u.Name, Role: string(u.Role),
		PasswordHash: u.PasswordHash, Active: u.Active, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		return mapError(err, store.ErrUserNotFound, store.ErrEmailExists)
	}
	*u = toUser(row)
	return nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	row, err := r.queries.GetUser(ctx, id)
	if err != nil {
		return core.User{}, mapError(err, store.ErrUserNotFound, nil)
	}
	return toUser(row), nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row, err := r.queries.GetUserByEmail(ctx, email)
	if err != nil {
		return core.User{}, mapError(err, store.ErrUserNotFound, nil)
	}
	return toUser(row), nil
}

func (r *SQLiteRepository) GetUserByExternalID(ctx context.Context, externalID string) (core.User, error) {
	row, err := r.queries.GetUserByExternalID(ctx, externalID)
	if err != nil {
		return core.User{}, mapError(err, store.ErrUserNotFound, nil)
	}
	return toUser(row), nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]core.User, len(rows))
	for i, row := range rows {
		out[i] = toUser(row)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, u *core.User) error {
	row, err := r.queries.UpdateUser(ctx, User{
		ID: u.ID, Email: u.Email, Name: u.Name, Role: string(u.Role),
		PasswordHash: u.PasswordHash, Active: u.Active, UpdatedAt: r.stamp(),
	})
	if err != nil {
		return mapError(err, store.ErrUserNotFound, store.ErrEmailExists)
	}
	*u = toUser(row)
	return nil
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.queries.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return checkAffected(res, store.ErrUserNotFound)
}
