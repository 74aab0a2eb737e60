package http

import (
	"net/http"
	"strings"

	"budgetdesk/internal/core"
	"budgetdesk/internal/log"
	"budgetdesk/internal/middleware/auth"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	token, user, err := s.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Login failed",
			log.FieldComponent, log.ComponentAuth,
			log.FieldOperation, log.OpLogin,
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			"email_domain", emailDomain(req.Email))
		s.writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "User logged in",
		log.NewFields().
			WithComponent(log.ComponentAuth).
			WithOperation(log.OpLogin).
			WithUser(user.ID, string(user.Role)).
			ToSlice()...)
	RespondWithJSON(w, r, http.StatusOK, loginResponse{Token: token, User: user})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		s.writeError(w, r, auth.ErrMissingToken)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, user)
}

// emailDomain keeps failed-login logs useful without recording addresses.
func emailDomain(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok {
		return ""
	}
	return strings.ToLower(domain)
}
