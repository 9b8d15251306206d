package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"
)

const tokenExpiry = 15 * time.Minute

// ErrInvalidToken covers unknown, used and expired login tokens.
var ErrInvalidToken = errors.New("invalid or expired login token")

// TokenStore manages single-use magic link tokens. Each token remembers
// where the user goes after verifying it.
type TokenStore struct {
	db *sql.DB
}

// NewTokenStore creates a token store.
func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db}
}

// Create issues a token for email. next must be a local path.
func (s *TokenStore) Create(email, next string) (string, error) {
	next = LocalPath(next)

	token, err := randomHex(32)
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}

	if _, err := s.db.Exec(
		"INSERT INTO auth_tokens (token, email, next, expires_at) VALUES (?, ?, ?, ?)",
		token, email, next, time.Now().Add(tokenExpiry),
	); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}

	return token, nil
}

// Redeem consumes a token and returns its email and redirect path.
// A token can be redeemed once, before it expires.
func (s *TokenStore) Redeem(token string) (email, next string, err error) {
	result, err := s.db.Exec(
		"UPDATE auth_tokens SET used = 1 WHERE token = ? AND used = 0 AND expires_at > ?",
		token, time.Now(),
	)
	if err != nil {
		return "", "", fmt.Errorf("redeeming token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return "", "", fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return "", "", ErrInvalidToken
	}

	if err := s.db.QueryRow(
		"SELECT email, next FROM auth_tokens WHERE token = ?", token,
	).Scan(&email, &next); err != nil {
		return "", "", fmt.Errorf("reading token: %w", err)
	}

	return email, next, nil
}

// Cleanup removes expired tokens.
func (s *TokenStore) Cleanup() error {
	if _, err := s.db.Exec(
		"DELETE FROM auth_tokens WHERE expires_at < ?",
		time.Now(),
	); err != nil {
		return fmt.Errorf("cleaning up tokens: %w", err)
	}
	return nil
}

// isLocalPath accepts only same-origin paths. Browsers read a backslash
// as a slash, so "/\\host" and its escaped forms are rejected like "//host".
func isLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return false
	}
	if strings.ContainsAny(p, "\\") || strings.ContainsFunc(p, unicode.IsControl) {
		return false
	}

	u, err := url.Parse(p)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return false
	}
	return !strings.HasPrefix(u.Path, "//") &&
		!strings.ContainsAny(u.Path, "\\") &&
		!strings.ContainsFunc(u.Path, unicode.IsControl)
}

// LocalPath returns p when it is a same-origin path and "/" otherwise.
func LocalPath(p string) string {
	if isLocalPath(p) {
		return p
	}
	return "/"
}
