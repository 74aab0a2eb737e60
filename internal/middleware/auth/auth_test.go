package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"budgetdesk/internal/core"
)

type stubAuthenticator map[string]core.User

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (core.User, error) {
	u, ok := s[token]
	if !ok {
		return core.User{}, errors.New("invalid token")
	}
	return u, nil
}

var users = stubAuthenticator{
	"admin-token":   {ID: 1, Role: core.RoleAdmin},
	"manager-token": {ID: 2, Role: core.RoleManager},
	"viewer-token":  {ID: 3, Role: core.RoleViewer},
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.Header().Set("X-Role", string(u.Role))
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		got, ok := BearerToken(r)
		if got != tt.want || ok != tt.ok {
			t.Errorf("BearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMiddleware(t *testing.T) {
	h := Middleware(users, nil)(echoUser())

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer viewer-token", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("401 responses should carry WWW-Authenticate")
			}
		})
	}
}

func TestRoleGuards(t *testing.T) {
	var gotStatus int
	var gotErr error
	onError := func(w http.ResponseWriter, r *http.Request, status int, err error) {
		gotStatus, gotErr = status, err
		w.WriteHeader(status)
	}

	writes := Middleware(users, onError)(RequireWriteForMutations(onError)(echoUser()))
	admin := Middleware(users, onError)(RequireRole(core.Role.CanAdmin, onError)(echoUser()))

	tests := []struct {
		name    string
		handler http.Handler
		method  string
		token   string
		want    int
	}{
		{"viewer reads", writes, http.MethodGet, "viewer-token", http.StatusNoContent},
		{"viewer writes", writes, http.MethodPost, "viewer-token", http.StatusForbidden},
		{"manager writes", writes, http.MethodDelete, "manager-token", http.StatusNoContent},
		{"manager on admin route", admin, http.MethodGet, "manager-token", http.StatusForbidden},
		{"admin on admin route", admin, http.MethodGet, "admin-token", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotStatus, gotErr = 0, nil
			r := httptest.NewRequest(tt.method, "/api/x", nil)
			r.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, r)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusForbidden && (gotStatus != http.StatusForbidden || !errors.Is(gotErr, ErrForbidden)) {
				t.Errorf("error writer got %d %v", gotStatus, gotErr)
			}
		})
	}

	rec := httptest.NewRecorder()
	RequireRole(core.Role.CanAdmin, nil)(echoUser()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("guard without a user should be 401, got %d", rec.Code)
	}
}
