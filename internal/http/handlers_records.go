package http

import (
	"net/http"

	"budgetdesk/internal/core"
	"budgetdesk/internal/log"
	"budgetdesk/internal/services"
)

type supplierRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	VATNumber string `json:"vat_number" validate:"max=32"`
	Email     string `json:"email" validate:"omitempty,email"`
	Category  string `json:"category" validate:"max=200"`
	Active    *bool  `json:"active"`
}

func (req supplierRequest) supplier(id int64) core.Supplier {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return core.Supplier{
		ID:        id,
		Name:      req.Name,
		VATNumber: req.VATNumber,
		Email:     req.Email,
		Category:  req.Category,
		Active:    active,
	}
}

func (s *Server) handleListSuppliers(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Suppliers.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, nonNil(list))
}

func (s *Server) handleCreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sup := req.supplier(0)
	if err := s.svc.Suppliers.Create(r.Context(), &sup); err != nil {
		s.writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Supplier created",
		log.FieldComponent, log.ComponentHTTP,
		log.FieldSupplierID, sup.ID)
	RespondWithJSON(w, r, http.StatusCreated, sup)
}

func (s *Server) handleGetSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sup, err := s.svc.Suppliers.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, sup)
}

func (s *Server) handleUpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req supplierRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sup := req.supplier(id)
	if err := s.svc.Suppliers.Update(r.Context(), &sup); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.svc.Suppliers.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Suppliers.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type allocationRequest struct {
	Month  int        `json:"month" validate:"gte=1,lte=12"`
	Amount core.Money `json:"amount_cents"`
}

type budgetRequest struct {
	Year        int                 `json:"year" validate:"gte=2000,lte=2100"`
	Name        string              `json:"name" validate:"required,max=200"`
	Category    string              `json:"category" validate:"required,max=200"`
	Allocations []allocationRequest `json:"allocations" validate:"max=12,dive"`
}

func (req budgetRequest) budget(id int64) core.Budget {
	b := core.Budget{ID: id, Year: req.Year, Name: req.Name, Category: req.Category}
	for _, a := range req.Allocations {
		b.Allocations = append(b.Allocations, core.Allocation{Month: a.Month, Amount: a.Amount})
	}
	return b
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	year, err := QueryInt(r.URL.Query(), "year", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.svc.Budgets.List(r.Context(), year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, nonNil(list))
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	b := req.budget(0)
	if err := s.svc.Budgets.Create(r.Context(), &b); err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusCreated, b)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.svc.Budgets.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, b)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req budgetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	b := req.budget(id)
	if err := s.svc.Budgets.Update(r.Context(), &b); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.svc.Budgets.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Budgets.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImportBudgets upserts the budgets of the planning sheet for ?year=.
func (s *Server) handleImportBudgets(w http.ResponseWriter, r *http.Request) {
	if s.budgets == nil {
		RespondWithError(w, r, http.StatusNotImplemented, "budget import is not configured")
		return
	}
	params, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.Budgets.Import(r.Context(), s.budgets, params.Year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, res)
}

type employeeRequest struct {
	FirstName   string     `json:"first_name" validate:"required,max=200"`
	LastName    string     `json:"last_name" validate:"required,max=200"`
	Department  string     `json:"department" validate:"required,max=200"`
	Title       string     `json:"title" validate:"max=200"`
	MonthlyCost core.Money `json:"monthly_cost_cents"`
	StartDate   core.Date  `json:"start_date"`
	EndDate     core.Date  `json:"end_date"`
}

func (req employeeRequest) employee(id int64) core.Employee {
	return core.Employee{
		ID:          id,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Department:  req.Department,
		Title:       req.Title,
		MonthlyCost: req.MonthlyCost,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Employees.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, nonNil(list))
}

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	e := req.employee(0)
	if err := s.svc.Employees.Create(r.Context(), &e); err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusCreated, e)
}

func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.svc.Employees.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, e)
}

func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req employeeRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	e := req.employee(id)
	if err := s.svc.Employees.Update(r.Context(), &e); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.svc.Employees.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Employees.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEmployeeCost(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cost, err := s.svc.Employees.Cost(r.Context(), params.Year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, cost)
}

type userRequest struct {
	Email    string    `json:"email" validate:"required,email"`
	Name     string    `json:"name" validate:"required,max=200"`
	Role     core.Role `json:"role" validate:"required,oneof=admin manager viewer"`
	Password string    `json:"password" validate:"omitempty,max=72"`
	Active   *bool     `json:"active"`
}

func (req userRequest) user(id int64) core.User {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return core.User{ID: id, Email: req.Email, Name: req.Name, Role: req.Role, Active: active}
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Auth.ListUsers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, nonNil(list))
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Password == "" {
		s.writeError(w, r, services.ErrWeakPassword)
		return
	}
	u := req.user(0)
	if err := s.svc.Auth.CreateUser(r.Context(), &u, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusCreated, u)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.svc.Auth.GetUser(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, u)
}

// handleUpdateUser keeps the current password when none is sent.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req userRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u := req.user(id)
	if err := s.svc.Auth.UpdateUser(r.Context(), &u, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.svc.Auth.GetUser(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Auth.DeleteUser(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
