// Package db opens the portfolio SQLite store and keeps its schema current.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const (
	defaultDir  = ".portfolio"
	defaultFile = "portfolio.db"
	busyTimeout = 5 * time.Second
)

// ResolvePath returns path, or ~/.portfolio/portfolio.db when path is empty.
func ResolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, defaultDir, defaultFile), nil
}

// dsn builds the go-sqlite3 connection string. Settings travel in the DSN
// so every pooled connection gets them, not only the first one.
func dsn(path string) string {
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_foreign_keys", "on")
	q.Set("_busy_timeout", strconv.FormatInt(busyTimeout.Milliseconds(), 10))
	return path + "?" + q.Encode()
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("database path is empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := prepare(db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("%w (also failed to close: %v)", err, closeErr)
		}
		return nil, err
	}

	log.Debug().Str("path", path).Msg("database ready")
	return db, nil
}

// prepare checks the connection settings took effect, then migrates.
func prepare(db *sql.DB) error {
	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	if fk != 1 {
		return errors.New("foreign keys are not enabled")
	}

	if err := migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
