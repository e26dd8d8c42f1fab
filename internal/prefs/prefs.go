// Package prefs is the client-local key/value store. The only key the
// application writes is the theme preference.
package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	apperrors "urldeco/internal/errors"
)

const (
	// ThemeKey stores the theme preference.
	ThemeKey = "urldeco-theme"

	ThemeDark  = "dark"
	ThemeLight = "light"

	// DefaultFileName is the database file created under the user config dir.
	DefaultFileName = "prefs.db"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Store is a small SQLite-backed key/value table.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the store at path.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, apperrors.New(apperrors.CodeStorage, "preferences path is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperrors.New(apperrors.CodeStorage, "create preferences directory", err)
	}

	db, err := sql.Open("sqlite", buildDSN(path))
	if err != nil {
		return nil, apperrors.New(apperrors.CodeStorage, "open preferences db", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, apperrors.New(apperrors.CodeStorage, "ping preferences db", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, apperrors.New(apperrors.CodeStorage, "create preferences schema", err)
	}
	return &Store{db: db, path: path}, nil
}

func buildDSN(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(3000)")
	q.Add("_pragma", "journal_mode(WAL)")
	u.RawQuery = q.Encode()
	return u.String()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the value stored under key and whether it was present.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.New(apperrors.CodeStorage, fmt.Sprintf("read %s", key), err)
	}
	return value, true, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return apperrors.New(apperrors.CodeStorage, fmt.Sprintf("write %s", key), err)
	}
	return nil
}

// Theme returns the stored theme, or ThemeDark when unset or unrecognised.
func (s *Store) Theme(ctx context.Context) (string, error) {
	v, ok, err := s.Get(ctx, ThemeKey)
	if err != nil {
		return ThemeDark, err
	}
	if !ok {
		return ThemeDark, nil
	}
	return NormalizeTheme(v), nil
}

// SetTheme stores theme after normalising it.
func (s *Store) SetTheme(ctx context.Context, theme string) error {
	return s.Set(ctx, ThemeKey, NormalizeTheme(theme))
}

// NormalizeTheme maps anything other than "light" to "dark".
func NormalizeTheme(theme string) string {
	if strings.EqualFold(strings.TrimSpace(theme), ThemeLight) {
		return ThemeLight
	}
	return ThemeDark
}
