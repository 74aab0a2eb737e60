// Package auth resolves bearer tokens to users and guards routes by role.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"budgetdesk/internal/core"
	"budgetdesk/internal/log"
)

// ContextKey type for context keys
type ContextKey string

// UserContextKey holds the authenticated core.User.
const UserContextKey ContextKey = "user"

var (
	// ErrMissingToken is reported when no bearer token is present.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrForbidden is reported when the user's role is insufficient.
	ErrForbidden = errors.New("insufficient role")
)

// Authenticator turns a token into the current user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (core.User, error)
}

// ErrorWriter renders authentication and authorization failures.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, err error)

func defaultErrorWriter(w http.ResponseWriter, r *http.Request, status int, err error) {
	http.Error(w, err.Error(), status)
}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u core.User) context.Context {
	return context.WithValue(ctx, UserContextKey, u)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (core.User, bool) {
	u, ok := ctx.Value(UserContextKey).(core.User)
	return u, ok
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Middleware rejects requests without a valid token with 401 and stores the
// user in the request context otherwise.
func Middleware(authenticator Authenticator, onError ErrorWriter) func(http.Handler) http.Handler {
	if onError == nil {
		onError = defaultErrorWriter
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="budgetdesk"`)
				onError(w, r, http.StatusUnauthorized, ErrMissingToken)
				return
			}

			user, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				log.FromContext(r.Context()).WarnContext(r.Context(), "Authentication failed",
					log.FieldComponent, log.ComponentAuth,
					log.FieldPath, r.URL.Path,
					log.FieldError, err.Error())
				w.Header().Set("WWW-Authenticate", `Bearer realm="budgetdesk", error="invalid_token"`)
				onError(w, r, http.StatusUnauthorized, err)
				return
			}

			ctx := WithUser(r.Context(), user)
			ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserID, user.ID, log.FieldRole, string(user.Role)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows the request only when allowed(user.Role) holds.
// It must run after Middleware.
func RequireRole(allowed func(core.Role) bool, onError ErrorWriter) func(http.Handler) http.Handler {
	if onError == nil {
		onError = defaultErrorWriter
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				onError(w, r, http.StatusUnauthorized, ErrMissingToken)
				return
			}
			if !allowed(user.Role) {
				onError(w, r, http.StatusForbidden, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireWriteForMutations lets every role read and only writers mutate.
func RequireWriteForMutations(onError ErrorWriter) func(http.Handler) http.Handler {
	if onError == nil {
		onError = defaultErrorWriter
	}
	return func(next http.Handler) http.Handler {
		guarded := RequireRole(core.Role.CanWrite, onError)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
			default:
				guarded.ServeHTTP(w, r)
			}
		})
	}
}
