package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"budgetdesk/internal/core"
	"budgetdesk/internal/store"
)

const (
	minSecretLength   = 32
	minPasswordLength = 8
	clockSkew         = 2 * time.Minute
	tokenIssuer       = "budgetdesk"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", minPasswordLength)
)

// Claims is what a validated token says about its user.
type Claims struct {
	UserID     int64
	ExternalID string
	Email      string
	Role       core.Role
	TokenID    string
	ExpiresAt  time.Time
}

type tokenClaims struct {
	UserID int64     `json:"uid"`
	Email  string    `json:"email"`
	Role   core.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService manages users, checks passwords and signs HS256 tokens.
type AuthService struct {
	users      store.UserStore
	signingKey []byte
	lifetime   time.Duration
	bcryptCost int
	timeFunc   func() time.Time
}

func NewAuthService(users store.UserStore, secret string, lifetime time.Duration) (*AuthService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}
	if lifetime <= 0 {
		lifetime = 12 * time.Hour
	}
	return &AuthService{
		users:      users,
		signingKey: []byte(secret),
		lifetime:   lifetime,
		bcryptCost: bcrypt.DefaultCost,
		timeFunc:   time.Now,
	}, nil
}

// HashPassword returns the bcrypt hash of password.
func (s *AuthService) HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Login checks the credentials and returns a signed token. Unknown emails,
// inactive users and wrong passwords all yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, core.User, error) {
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return "", core.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", core.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !u.Active || u.PasswordHash == "" {
		return "", core.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		slog.InfoContext(ctx, "Login rejected", "user_id", u.ID)
		return "", core.User{}, ErrInvalidCredentials
	}
	token, err := s.IssueToken(u)
	if err != nil {
		return "", core.User{}, err
	}
	return token, u, nil
}

// IssueToken signs a token for u.
func (s *AuthService) IssueToken(u core.User) (string, error) {
	now := s.timeFunc()
	claims := tokenClaims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   u.ExternalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature, issuer and expiry with a small leeway.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	now := s.timeFunc()
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		slog.DebugContext(ctx, "Token validation failed", "error", err)
		return nil, ErrInvalidToken
	}
	tc, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid || tc.UserID <= 0 {
		return nil, ErrInvalidToken
	}
	return &Claims{
		UserID:     tc.UserID,
		ExternalID: tc.Subject,
		Email:      tc.Email,
		Role:       tc.Role,
		TokenID:    tc.ID,
		ExpiresAt:  tc.ExpiresAt.Time,
	}, nil
}

// Authenticate validates the token and reloads its user, so deactivated users
// and role changes take effect before the token expires.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (core.User, error) {
	claims, err := s.ValidateToken(ctx, tokenString)
	if err != nil {
		return core.User{}, err
	}
	u, err := s.users.GetUser(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return core.User{}, ErrInvalidToken
	}
	if err != nil {
		return core.User{}, fmt.Errorf("load user: %w", err)
	}
	if !u.Active || u.ExternalID != claims.ExternalID {
		return core.User{}, ErrInvalidToken
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeUser(u *core.User) {
	u.Email = normalizeEmail(u.Email)
	u.Name = strings.TrimSpace(u.Name)
}

// CreateUser stores u with a fresh external id and the hash of password.
func (s *AuthService) CreateUser(ctx context.Context, u *core.User, password string) error {
	normalizeUser(u)
	if err := u.Validate(); err != nil {
		return err
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.ExternalID = uuid.NewString()
	if err := s.users.CreateUser(ctx, u); err != nil {
		return err
	}
	slog.InfoContext(ctx, "User created", "user_id", u.ID, "role", u.Role)
	return nil
}

// UpdateUser changes profile, role and active flag. An empty password keeps
// the current one.
func (s *AuthService) UpdateUser(ctx context.Context, u *core.User, password string) error {
	normalizeUser(u)
	if err := u.Validate(); err != nil {
		return err
	}
	u.PasswordHash = ""
	if password != "" {
		hash, err := s.HashPassword(password)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}
	return s.users.UpdateUser(ctx, u)
}

func (s *AuthService) GetUser(ctx context.Context, id int64) (core.User, error) {
	return s.users.GetUser(ctx, id)
}

func (s *AuthService) ListUsers(ctx context.Context) ([]core.User, error) {
	return s.users.ListUsers(ctx)
}

func (s *AuthService) DeleteUser(ctx context.Context, id int64) error {
	return s.users.DeleteUser(ctx, id)
}
