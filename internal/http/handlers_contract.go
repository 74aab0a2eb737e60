package http

import (
	"net/http"

	"budgetdesk/internal/core"
	"budgetdesk/internal/log"
	"budgetdesk/internal/store"
)

type lineItemRequest struct {
	Description string       `json:"description" validate:"required,max=200"`
	Category    string       `json:"category" validate:"required,max=200"`
	Amount      core.Money   `json:"amount_cents"`
	StartDate   core.Date    `json:"start_date"`
	EndDate     core.Date    `json:"end_date"`
	Billing     core.Billing `json:"billing" validate:"omitempty,oneof=once monthly quarterly yearly"`
}

func (req lineItemRequest) lineItem() core.LineItem {
	return core.LineItem{
		Description: req.Description,
		Category:    req.Category,
		Amount:      req.Amount,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Billing:     req.Billing,
	}
}

type contractRequest struct {
	SupplierID int64             `json:"supplier_id" validate:"required,gt=0"`
	Title      string            `json:"title" validate:"required,max=200"`
	Reference  string            `json:"reference" validate:"max=100"`
	StartDate  core.Date         `json:"start_date"`
	EndDate    core.Date         `json:"end_date"`
	LineItems  []lineItemRequest `json:"line_items" validate:"dive"`
}

func (req contractRequest) contract(id int64) core.Contract {
	c := core.Contract{
		ID:         id,
		SupplierID: req.SupplierID,
		Title:      req.Title,
		Reference:  req.Reference,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	}
	for _, li := range req.LineItems {
		c.LineItems = append(c.LineItems, li.lineItem())
	}
	return c
}

type statusRequest struct {
	Status core.ContractStatus `json:"status" validate:"required,oneof=draft active closed"`
}

func (s *Server) handleListContracts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	supplierID, err := QueryID(q, "supplier_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := core.ContractStatus(q.Get("status"))
	if status != "" && !status.IsValid() {
		s.writeError(w, r, badRequest("invalid status %q", status))
		return
	}
	list, err := s.svc.Contracts.ListContracts(r.Context(), store.ContractFilter{SupplierID: supplierID, Status: status})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, nonNil(list))
}

// handleCreateContract stores a draft contract with its initial line items.
func (s *Server) handleCreateContract(w http.ResponseWriter, r *http.Request) {
	var req contractRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	c := req.contract(0)
	if err := s.svc.Contracts.CreateContract(r.Context(), &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Contract created",
		log.FieldComponent, log.ComponentContract,
		log.FieldContractID, c.ID,
		log.FieldSupplierID, c.SupplierID,
		"line_items", len(c.LineItems))
	RespondWithJSON(w, r, http.StatusCreated, c)
}

func (s *Server) handleGetContract(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.svc.Contracts.GetContract(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, c)
}

// handleUpdateContract changes header fields only. Line items sent in the
// body are rejected so clients do not assume they were replaced.
func (s *Server) handleUpdateContract(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req contractRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.LineItems) > 0 {
		s.writeError(w, r, badRequest("line items are managed through /contracts/%d/line-items", id))
		return
	}
	c := req.contract(id)
	if err := s.svc.Contracts.UpdateContract(r.Context(), &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.svc.Contracts.GetContract(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteContract(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Contracts.DeleteContract(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetContractStatus(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.svc.Contracts.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Contract status changed",
		log.FieldComponent, log.ComponentContract,
		log.FieldContractID, c.ID,
		log.FieldStatus, string(c.Status))
	RespondWithJSON(w, r, http.StatusOK, c)
}

func (s *Server) handleAddLineItem(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req lineItemRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	li := req.lineItem()
	if err := s.svc.Contracts.AddLineItem(r.Context(), id, &li); err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusCreated, li)
}

func (s *Server) handleDeleteLineItem(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	itemID, err := PathID(r, "itemID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Contracts.DeleteLineItem(r.Context(), id, itemID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleContractSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	schedule, err := s.svc.Contracts.Schedule(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, schedule)
}

// handleContractForecast splits installments into paid, overdue and future
// as of ?as_of= (default today).
func (s *Server) handleContractForecast(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	asOf, err := QueryDate(r.URL.Query(), "as_of", core.DateOf(s.now()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	forecast, err := s.svc.Contracts.Forecast(r.Context(), id, asOf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, forecast)
}
