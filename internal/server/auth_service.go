package server

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	internalauth "augnotes/internal/auth"
	"augnotes/internal/config"
	"augnotes/internal/store"
)

const sessionCookieName = "augnotes_session"

// AuthService authenticates admin sessions against the store and the
// configured email allow-list.
type AuthService struct {
	store      store.AuthStore
	cfg        *config.Config
	sessionTTL time.Duration
}

type loginResult struct {
	User      *store.AuthUser
	Token     string
	ExpiresAt time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(authStore store.AuthStore, cfg *config.Config, sessionTTL time.Duration) *AuthService {
	if authStore == nil {
		return nil
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{store: authStore, cfg: cfg, sessionTTL: sessionTTL}
}

// AuthRequired reports whether the guard is active. A fresh install with
// no enabled admin accounts runs open so the first account can be
// provisioned from the CLI.
func (a *AuthService) AuthRequired(ctx context.Context) (bool, error) {
	if a == nil || a.store == nil {
		return false, nil
	}
	count, err := a.store.CountEnabledUsers(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Login verifies credentials and opens a session.
func (a *AuthService) Login(ctx context.Context, email, password string, now time.Time) (*loginResult, error) {
	if a == nil || a.store == nil {
		return nil, fmt.Errorf("auth store is required")
	}

	normalized, err := internalauth.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("password is required")
	}

	user, err := a.store.GetUserByEmail(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Disabled || !internalauth.VerifyPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("invalid credentials")
	}
	if !a.isAllowed(user.Email) {
		return nil, fmt.Errorf("email is not on the admin allow-list")
	}

	token, err := generateSessionToken()
	if err != nil {
		return nil, err
	}
	expiresAt := now.Add(a.sessionTTL)
	if err := a.store.CreateSession(ctx, user.ID, hashSessionToken(token), expiresAt, now); err != nil {
		return nil, err
	}

	return &loginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate resolves a session token to its admin account. It returns
// nil without error for unknown, expired, disabled, or disallowed users.
func (a *AuthService) Authenticate(ctx context.Context, token string, now time.Time) (*store.AuthUser, error) {
	if a == nil || a.store == nil {
		return nil, nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	user, err := a.store.GetSessionUser(ctx, hashSessionToken(token), now)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Disabled || !a.isAllowed(user.Email) {
		return nil, nil
	}
	return user, nil
}

// Logout closes one session.
func (a *AuthService) Logout(ctx context.Context, token string) error {
	if a == nil || a.store == nil {
		return nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return a.store.DeleteSession(ctx, hashSessionToken(token))
}

// isAllowed applies the configured allow-list. An empty list admits any
// enabled provisioned account.
func (a *AuthService) isAllowed(email string) bool {
	if a.cfg == nil || len(a.cfg.AdminEmails) == 0 {
		return true
	}
	return a.cfg.IsAdminEmail(email)
}

func generateSessionToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func hashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
