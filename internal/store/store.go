// Package store persists governance state (audit log, shadow runs, frozen
// test corpus) in sqlite. In-process callers keep their own hot state; the
// store is the durable record.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"resumeiq/internal/logging"
)

// Store wraps the sqlite database backing governance state.
type Store struct {
	db  *sql.DB
	log *logging.Logger
}

// Open opens (or creates) the sqlite database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path required")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", path, err)
	}

	s := &Store{db: db, log: logging.Get(logging.CategoryStore)}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	s.log.Info("store opened at %s", path)
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		registry TEXT NOT NULL,
		action TEXT NOT NULL,
		target TEXT NOT NULL,
		details TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_target ON audit_log(registry, target);

	CREATE TABLE IF NOT EXISTS shadow_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		input_hash TEXT NOT NULL,
		production_score REAL NOT NULL,
		shadow_score REAL NOT NULL,
		improvement REAL NOT NULL,
		shadow_better INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS frozen_cases (
		case_id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		input TEXT NOT NULL,
		expected_json TEXT,
		frozen_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_frozen_category ON frozen_cases(category);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
