package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budgetdesk/internal/core"
	"budgetdesk/internal/log"
	"budgetdesk/internal/middleware/auth"
	"budgetdesk/internal/middleware/trace"
	"budgetdesk/internal/services"
	"budgetdesk/internal/store"
)

// ErrRateLimited is reported to clients that exceeded their write budget.
var ErrRateLimited = errors.New("rate limit exceeded, please try again later")

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error     string   `json:"error"`
	Fields    []string `json:"fields,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// RespondWithJSON writes v as JSON with the given status.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response",
			log.FieldComponent, log.ComponentHTTP,
			log.FieldError, err.Error())
	}
}

// RespondWithError writes an ErrorResponse carrying the request id.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	RespondWithJSON(w, r, status, ErrorResponse{
		Error:     message,
		RequestID: trace.GetRequestID(r.Context()),
	})
}

// StatusForError maps service and store errors to HTTP status codes.
func StatusForError(err error) int {
	var (
		fields FieldErrors
		bad    badRequestError
		tooBig *http.MaxBytesError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &fields):
		return http.StatusUnprocessableEntity
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &bad):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case store.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, core.ErrStatusTransition), store.IsConflict(err):
		return http.StatusConflict
	case core.IsValidationError(err), errors.Is(err, services.ErrWeakPassword):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. Server errors are logged and replaced by a
// generic message so internals do not leak.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusForError(err)
	ctx := r.Context()

	if status >= http.StatusInternalServerError {
		log.FromContext(ctx).ErrorContext(ctx, "Request failed",
			log.FieldComponent, log.ComponentHTTP,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err.Error())
		RespondWithError(w, r, status, "internal server error")
		return
	}

	resp := ErrorResponse{Error: err.Error(), RequestID: trace.GetRequestID(ctx)}
	var fields FieldErrors
	if errors.As(err, &fields) {
		resp.Error = "validation failed"
		resp.Fields = fields
	}
	if status == http.StatusUnauthorized && !errors.Is(err, auth.ErrMissingToken) {
		// do not tell apart unknown users, bad passwords and bad tokens
		resp.Error = http.StatusText(status)
		if errors.Is(err, services.ErrInvalidCredentials) {
			resp.Error = services.ErrInvalidCredentials.Error()
		}
	}
	RespondWithJSON(w, r, status, resp)
}

// authError adapts writeError to the auth middleware's ErrorWriter.
func (s *Server) authError(w http.ResponseWriter, r *http.Request, _ int, err error) {
	s.writeError(w, r, err)
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldComponent, log.ComponentRateLimit,
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	s.writeError(w, r, ErrRateLimited)
}
