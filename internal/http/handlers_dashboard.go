package http

import (
	"net/http"
	"strings"
)

// handleDashboard returns the year dashboard for ?year= (default current year).
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.svc.Dashboard.Dashboard(r.Context(), params.Year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, d)
}

// handleReconcile compares budget, actual and committed amounts per category
// and month. ?category= narrows it to one category.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	rec, err := s.svc.Dashboard.Reconcile(r.Context(), params.Year, category)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, rec)
}
