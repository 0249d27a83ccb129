// Package sources keeps the registry of taxonomy source locations in SQLite.
// Only locations and their availability are stored, never taxonomy contents.
package sources

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a named source is not registered.
var ErrNotFound = errors.New("taxonomy source not found")

// Source represents a row from the taxonomy_sources table.
type Source struct {
	Name        string
	Location    string
	Description string
	LastCheck   *int64
	LastStatus  *int
	LastError   *string
	UpdatedAt   int64
}

// DB manages the taxonomy_sources SQLite table.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and ensures the
// taxonomy_sources table exists.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sources db: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS taxonomy_sources (
		name         TEXT PRIMARY KEY,
		location     TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		last_check   INTEGER,
		last_status  INTEGER,
		last_error   TEXT,
		updated_at   INTEGER NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create taxonomy_sources table: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the SQLite connection.
func (s *DB) Close() error {
	return s.db.Close()
}

// Seed inserts default rows (INSERT OR IGNORE: existing rows are left
// untouched so that manual location overrides survive restarts).
func (s *DB) Seed(defaults []Source) error {
	const q = `INSERT OR IGNORE INTO taxonomy_sources
		(name, location, description, updated_at)
		VALUES (?, ?, ?, ?)`

	now := time.Now().Unix()
	for _, src := range defaults {
		if _, err := s.db.Exec(q, src.Name, src.Location, src.Description, now); err != nil {
			return fmt.Errorf("seed %s: %w", src.Name, err)
		}
	}
	return nil
}

// Location returns the current location for a named source.
func (s *DB) Location(name string) (string, error) {
	var loc string
	err := s.db.QueryRow(`SELECT location FROM taxonomy_sources WHERE name = ?`, name).Scan(&loc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("get location for %s: %w", name, err)
	}
	return loc, nil
}

// SetLocation updates a source's location and records the change timestamp.
func (s *DB) SetLocation(name, location string) error {
	res, err := s.db.Exec(
		`UPDATE taxonomy_sources SET location = ?, updated_at = ?, last_check = NULL, last_status = NULL, last_error = NULL WHERE name = ?`,
		location, time.Now().Unix(), name,
	)
	if err != nil {
		return fmt.Errorf("set location for %s: %w", name, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// UpdateCheck persists the result of an availability check.
func (s *DB) UpdateCheck(name string, status int, checkErr string) error {
	now := time.Now().Unix()
	var errPtr *string
	if checkErr != "" {
		errPtr = &checkErr
	}
	_, err := s.db.Exec(
		`UPDATE taxonomy_sources SET last_check = ?, last_status = ?, last_error = ? WHERE name = ?`,
		now, status, errPtr, name,
	)
	if err != nil {
		return fmt.Errorf("update check for %s: %w", name, err)
	}
	return nil
}

// List returns all rows ordered by name.
func (s *DB) List() ([]Source, error) {
	rows, err := s.db.Query(`SELECT name, location, description,
		last_check, last_status, last_error, updated_at
		FROM taxonomy_sources ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var out []Source
	for rows.Next() {
		var src Source
		if err := rows.Scan(&src.Name, &src.Location, &src.Description,
			&src.LastCheck, &src.LastStatus, &src.LastError, &src.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		out = append(out, src)
	}
	return out, rows.Err()
}
