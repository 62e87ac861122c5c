// Package auth signs admins in and guards the API with bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/noah-isme/backend-tieshop/internal/common"
	"github.com/noah-isme/backend-tieshop/internal/store"
)

const defaultAccessTTL = 12 * time.Hour

// Querier defines the database access required for authentication.
type Querier interface {
	GetAdminByUsername(ctx context.Context, username string) (store.Admin, error)
	UpsertAdmin(ctx context.Context, username, passwordHash string) (store.Admin, error)
}

// Service coordinates admin login and token verification.
type Service struct {
	queries Querier
	tokens  Tokens
	now     func() time.Time
}

// Config configures the auth service.
type Config struct {
	Queries        Querier
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	ClockSkew      time.Duration
}

// Admin is the safe subset of an admin returned to clients.
type Admin struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResult bundles the access token returned after a successful login.
type LoginResult struct {
	Admin       Admin     `json:"admin"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"access_token_expires_at"`
}

// NewService constructs a Service instance with defaults for optional settings.
func NewService(cfg Config) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("auth: queries is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "backend-tieshop"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "tieshop-admin"
	}
	return &Service{
		queries: cfg.Queries,
		tokens: Tokens{
			Secret:    []byte(secret),
			Issuer:    issuer,
			Audience:  audience,
			TTL:       ttl,
			ClockSkew: max(cfg.ClockSkew, 0),
		},
		now: time.Now,
	}, nil
}

// WithNow overrides the clock; used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// HashPassword derives an argon2id hash for storage.
func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}

func invalidCredentials() error {
	return common.NewAppError("INVALID_CREDENTIALS", "invalid username or password", http.StatusUnauthorized, nil)
}

// Login checks the password and issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, invalidCredentials()
	}
	admin, err := s.queries.GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, invalidCredentials()
		}
		return LoginResult{}, err
	}
	ok, err := argon2id.ComparePasswordAndHash(password, admin.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, invalidCredentials()
	}
	token, expiresAt, err := s.tokens.Sign(admin.Username, s.now())
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}
	return LoginResult{Admin: toAdmin(admin), AccessToken: token, ExpiresAt: expiresAt}, nil
}

// Me returns the admin named by a verified token.
func (s *Service) Me(ctx context.Context, username string) (Admin, error) {
	admin, err := s.queries.GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Admin{}, common.NewAppError("UNAUTHORIZED", "admin no longer exists", http.StatusUnauthorized, err)
		}
		return Admin{}, err
	}
	return toAdmin(admin), nil
}

// ParseAccessToken verifies token and returns the admin username it was issued to.
func (s *Service) ParseAccessToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	username, err := s.tokens.Parse(trimmed, s.now())
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	return username, nil
}

// EnsureAdmin creates the admin account, or resets its password when it exists.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) < 8 {
		return Admin{}, errors.New("auth: admin username and a password of at least 8 characters are required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return Admin{}, fmt.Errorf("hash password: %w", err)
	}
	admin, err := s.queries.UpsertAdmin(ctx, username, hash)
	if err != nil {
		return Admin{}, fmt.Errorf("upsert admin: %w", err)
	}
	return toAdmin(admin), nil
}

func toAdmin(a store.Admin) Admin {
	return Admin{ID: a.ID, Username: a.Username, CreatedAt: a.CreatedAt}
}
