package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// AuthUser is a provisioned admin account.
type AuthUser struct {
	ID           string
	Email        string
	PasswordHash string
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CountEnabledUsers returns the number of non-disabled admin accounts.
func (s *Store) CountEnabledUsers(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM admin_users WHERE disabled = 0").Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CreateAdminUser creates one admin account.
func (s *Store) CreateAdminUser(ctx context.Context, email, passwordHash string, now time.Time) (*AuthUser, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if strings.TrimSpace(passwordHash) == "" {
		return nil, fmt.Errorf("password hash is required")
	}

	userID, err := generateAuthID("au")
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO admin_users (id, email, password_hash, disabled, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)
	`, userID, email, passwordHash, formatTime(now), formatTime(now))
	if err != nil {
		return nil, err
	}

	return &AuthUser{
		ID:           userID,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}, nil
}

// GetUserByEmail returns an admin account by normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*AuthUser, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, disabled, created_at, updated_at
		FROM admin_users WHERE email = ? LIMIT 1
	`, email)
	return scanAuthUser(row)
}

// GetUserByID returns an admin account by id.
func (s *Store) GetUserByID(ctx context.Context, id string) (*AuthUser, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, disabled, created_at, updated_at
		FROM admin_users WHERE id = ? LIMIT 1
	`, id)
	return scanAuthUser(row)
}

// ListUsers returns all admin accounts sorted by email.
func (s *Store) ListUsers(ctx context.Context) ([]AuthUser, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, password_hash, disabled, created_at, updated_at
		FROM admin_users ORDER BY email ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]AuthUser, 0)
	for rows.Next() {
		user, err := scanAuthUser(rows)
		if err != nil {
			return nil, err
		}
		if user == nil {
			continue
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// SetUserDisabled updates one account's disabled state by email.
func (s *Store) SetUserDisabled(ctx context.Context, email string, disabled bool, now time.Time) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	flag := 0
	if disabled {
		flag = 1
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE admin_users SET disabled = ?, updated_at = ? WHERE email = ?
	`, flag, formatTime(now), email)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("admin user %q not found", email)
	}
	return nil
}

// CreateSession records a hashed session token for one account.
func (s *Store) CreateSession(ctx context.Context, userID, tokenHash string, expiresAt, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token_hash, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, tokenHash, userID, formatTime(now), formatTime(expiresAt))
	return err
}

// GetSessionUser resolves a hashed session token to its account, pruning
// the session when it has expired.
func (s *Store) GetSessionUser(ctx context.Context, tokenHash string, now time.Time) (*AuthUser, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.password_hash, u.disabled, u.created_at, u.updated_at, sess.expires_at
		FROM sessions sess
		JOIN admin_users u ON u.id = sess.user_id
		WHERE sess.token_hash = ?
	`, tokenHash)

	var (
		user      AuthUser
		disabled  int
		createdAt string
		updatedAt string
		expiresAt string
	)
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &disabled, &createdAt, &updatedAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	expiry, err := parseTime(expiresAt)
	if err != nil {
		return nil, err
	}
	if !now.Before(expiry) {
		_ = s.DeleteSession(ctx, tokenHash)
		return nil, nil
	}

	user.Disabled = disabled != 0
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteSession removes one session by hashed token.
func (s *Store) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token_hash = ?", tokenHash)
	return err
}

// DeleteExpiredSessions prunes sessions past their expiry.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", formatTime(now))
	return err
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func generateAuthID(prefix string) (string, error) {
	raw := make([]byte, 8)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return prefix + "-" + hex.EncodeToString(raw), nil
}

func scanAuthUser(row rowScanner) (*AuthUser, error) {
	var (
		user      AuthUser
		disabled  int
		createdAt string
		updatedAt string
	)
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &disabled, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user.Disabled = disabled != 0
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}
