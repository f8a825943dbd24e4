// Package ledger is the append-only invoice store: invoices and their lines,
// admins, and the action audit log, backed by a single SQLite file.
//
// All access serializes through one process-wide mutex around the connection.
// That is a deliberate single-writer simplification for a single-user desktop
// tool, not a scalable locking scheme.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Store owns the SQLite handle.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the ledger database and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	// one connection: the mutex is the concurrency model
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Path returns the ledger file path.
func (s *Store) Path() string { return s.path }

var schema = []string{
	`CREATE TABLE IF NOT EXISTS invoices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		invoice_type TEXT NOT NULL,
		created_at TEXT NOT NULL,
		total_lines INTEGER NOT NULL DEFAULT 0,
		total_qty INTEGER NOT NULL DEFAULT 0,
		total_amount REAL NOT NULL DEFAULT 0,
		invoice_name TEXT,
		admin_id INTEGER,
		admin_username TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS invoice_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		invoice_id INTEGER NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		product_name TEXT NOT NULL,
		price REAL NOT NULL,
		quantity INTEGER NOT NULL,
		line_total REAL NOT NULL,
		cost_price REAL NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_invoice_lines_invoice ON invoice_lines(invoice_id)`,
	`CREATE INDEX IF NOT EXISTS idx_invoice_lines_product ON invoice_lines(product_name)`,
	`CREATE TABLE IF NOT EXISTS admins (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'employee',
		auto_lock_minutes INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TEXT NOT NULL,
		admin_username TEXT,
		action_type TEXT NOT NULL,
		title TEXT NOT NULL,
		details TEXT NOT NULL DEFAULT '-'
	)`,
}

func (s *Store) migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applySchemaLocked()
}

func (s *Store) applySchemaLocked() error {
	if _, err := s.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("apply ledger schema: %w", err)
		}
	}
	return nil
}

// ReplaceFrom swaps the database file with srcPath and reopens the handle.
// Used by the backup restore flow; the mutex keeps every other operation out
// for the duration of the swap.
func (s *Store) ReplaceFrom(srcPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close ledger for restore: %w", err)
	}
	if err := os.Rename(srcPath, s.path); err != nil {
		// reopen the old file so the store stays usable
		if db, openErr := sql.Open("sqlite", s.path); openErr == nil {
			db.SetMaxOpenConns(1)
			s.db = db
		}
		return fmt.Errorf("replace ledger db: %w", err)
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("reopen ledger db: %w", err)
	}
	db.SetMaxOpenConns(1)
	s.db = db
	return s.applySchemaLocked()
}

// Snapshot writes a consistent copy of the database to targetPath, used by
// the backup pipeline. The mutex guarantees no writer interleaves.
func (s *Store) Snapshot(targetPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec("VACUUM INTO ?", targetPath); err != nil {
		return fmt.Errorf("snapshot ledger db: %w", err)
	}
	return nil
}

func nowStamp() string { return time.Now().UTC().Format(time.RFC3339) }

func parseStamp(raw string) time.Time {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", raw); err == nil {
		return t
	}
	return time.Time{}
}

func nullable(value *string) any {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return v
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
