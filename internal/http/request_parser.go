// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for decoding and validating request data:
// JSON bodies checked against struct tags, path ids and the year/month/date
// query parameters shared by the list and report endpoints.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"budgetdesk/internal/core"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names so clients can map errors to their payload
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// badRequestError marks input that could not be read at all: broken JSON,
// unknown fields, malformed ids or query parameters.
type badRequestError struct {
	err error
}

func (e badRequestError) Error() string { return e.err.Error() }
func (e badRequestError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return badRequestError{err: fmt.Errorf(format, args...)}
}

// FieldErrors lists struct tag violations as "field: rule" pairs.
type FieldErrors []string

func (f FieldErrors) Error() string {
	return "invalid fields: " + strings.Join(f, ", ")
}

// DecodeJSON reads a single JSON document from the body into v and validates
// it with its struct tags.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return err
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		case core.IsValidationError(err):
			// Money and Date report their own parse errors
			return err
		default:
			return badRequestError{err: fmt.Errorf("invalid JSON: %w", err)}
		}
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON document")
	}
	return ValidateRequest(v)
}

// ValidateRequest runs the struct tag rules of v.
func ValidateRequest(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return badRequestError{err: err}
	}
	out := make(FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), reflect.TypeOf(v).Elem().Name()+".")
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out = append(out, field+": "+rule)
	}
	return out
}

// PathID parses a positive integer chi URL parameter.
func PathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return id, nil
}

// QueryInt parses an optional integer query parameter, returning def when absent.
func QueryInt(q url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("invalid %s %q", key, v)
	}
	return n, nil
}

// QueryID parses an optional id query parameter; absent means 0.
func QueryID(q url.Values, key string) (int64, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid %s %q", key, v)
	}
	return id, nil
}

// QueryDate parses an optional YYYY-MM-DD query parameter.
func QueryDate(q url.Values, key string, def core.Date) (core.Date, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, badRequest("invalid %s %q: want YYYY-MM-DD", key, v)
	}
	return d, nil
}

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int // 0 means the whole year
}

// ParseMonthParams extracts year and month from query parameters. The year
// defaults to the current one; the month is optional.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	year, err := QueryInt(query, "year", now.Year())
	if err != nil {
		return MonthParams{}, err
	}
	if year < 2000 || year > 2100 {
		return MonthParams{}, badRequest("year %d out of range", year)
	}
	month, err := QueryInt(query, "month", 0)
	if err != nil {
		return MonthParams{}, err
	}
	if month < 0 || month > 12 {
		return MonthParams{}, badRequest("month %d out of range", month)
	}
	return MonthParams{Year: year, Month: month}, nil
}
