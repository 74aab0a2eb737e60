package http

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"budgetdesk/internal/core"
	"budgetdesk/internal/log"
	"budgetdesk/internal/middleware/auth"
	"budgetdesk/internal/store"
)

// maxPageSize caps ?limit= on expense listings.
const maxPageSize = 500

type expenseRequest struct {
	Date        core.Date          `json:"date"`
	Description string             `json:"description" validate:"required,max=200"`
	Amount      core.Money         `json:"amount_cents"`
	Category    string             `json:"category" validate:"required,max=200"`
	SupplierID  int64              `json:"supplier_id" validate:"gte=0"`
	ContractID  int64              `json:"contract_id" validate:"gte=0"`
	LineItemID  int64              `json:"line_item_id" validate:"gte=0"`
	Status      core.ExpenseStatus `json:"status" validate:"omitempty,oneof=planned paid"`
	// Version is required on update and ignored on create.
	Version int64 `json:"version" validate:"gte=0"`
}

func (req expenseRequest) expense(id int64) core.Expense {
	return core.Expense{
		ID:          id,
		Date:        req.Date,
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		SupplierID:  req.SupplierID,
		ContractID:  req.ContractID,
		LineItemID:  req.LineItemID,
		Status:      req.Status,
		Version:     req.Version,
	}
}

// expenseFilter reads the list filters shared by the JSON listing and the
// CSV export.
func (s *Server) expenseFilter(r *http.Request) (store.ExpenseFilter, error) {
	q := r.URL.Query()
	var f store.ExpenseFilter
	var err error

	if f.Year, err = QueryInt(q, "year", 0); err != nil {
		return f, err
	}
	if f.Month, err = QueryInt(q, "month", 0); err != nil {
		return f, err
	}
	if f.Month < 0 || f.Month > 12 {
		return f, badRequest("month %d out of range", f.Month)
	}
	if f.Month != 0 && f.Year == 0 {
		return f, badRequest("month requires year")
	}
	f.Category = q.Get("category")
	if f.SupplierID, err = QueryID(q, "supplier_id"); err != nil {
		return f, err
	}
	if f.ContractID, err = QueryID(q, "contract_id"); err != nil {
		return f, err
	}
	if f.LineItemID, err = QueryID(q, "line_item_id"); err != nil {
		return f, err
	}
	f.Status = core.ExpenseStatus(q.Get("status"))
	if f.Status != "" && !f.Status.IsValid() {
		return f, badRequest("invalid status %q", f.Status)
	}
	if f.Limit, err = QueryInt(q, "limit", 0); err != nil {
		return f, err
	}
	if f.Offset, err = QueryInt(q, "offset", 0); err != nil {
		return f, err
	}
	if f.Limit < 0 || f.Offset < 0 {
		return f, badRequest("limit and offset must not be negative")
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	return f, nil
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	f, err := s.expenseFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.svc.Expenses.ListExpenses(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, nonNil(list))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	e := req.expense(0)
	if user, ok := auth.UserFromContext(r.Context()); ok {
		e.CreatedBy = user.Email
	}
	if err := s.svc.Expenses.CreateExpense(r.Context(), &e); err != nil {
		s.writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		log.NewFields().
			WithComponent(log.ComponentExpense).
			WithOperation(log.OpCreate).
			WithExpense(e.ID, e.Amount.Cents, e.Category, string(e.Status)).
			ToSlice()...)
	RespondWithJSON(w, r, http.StatusCreated, e)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.svc.Expenses.GetExpense(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, e)
}

// handleUpdateExpense applies the body when its version matches the stored
// one and answers 409 otherwise.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req expenseRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Version == 0 {
		s.writeError(w, r, FieldErrors{"version: required"})
		return
	}
	current, err := s.svc.Expenses.GetExpense(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e := req.expense(id)
	e.CreatedBy = current.CreatedBy
	if err := s.svc.Expenses.UpdateExpense(r.Context(), &e); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.svc.Expenses.GetExpense(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Expenses.DeleteExpense(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var exportHeader = []string{
	"id", "date", "description", "amount", "currency", "category",
	"supplier", "contract_id", "line_item_id", "status",
}

// handleExportExpenses streams the filtered expenses as CSV with supplier
// names resolved.
func (s *Server) handleExportExpenses(w http.ResponseWriter, r *http.Request) {
	f, err := s.expenseFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.svc.Expenses.ListExpenses(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	suppliers, err := s.svc.Suppliers.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	names := make(map[int64]string, len(suppliers))
	for _, sup := range suppliers {
		names[sup.ID] = sup.Name
	}

	filename := "expenses.csv"
	if f.Year != 0 {
		filename = fmt.Sprintf("expenses-%d.csv", f.Year)
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(exportHeader)
	for _, e := range list {
		_ = cw.Write([]string{
			strconv.FormatInt(e.ID, 10),
			e.Date.String(),
			e.Description,
			e.Amount.String(),
			s.currency,
			e.Category,
			names[e.SupplierID],
			optionalID(e.ContractID),
			optionalID(e.LineItemID),
			string(e.Status),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "CSV export failed",
			log.FieldComponent, log.ComponentExpense,
			log.FieldOperation, log.OpExport,
			log.FieldError, err.Error())
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expenses exported",
		log.FieldComponent, log.ComponentExpense,
		log.FieldOperation, log.OpExport,
		"rows", len(list))
}

func optionalID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
