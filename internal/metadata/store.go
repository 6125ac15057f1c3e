// Package metadata is the relational Metadata Store: files, per-branch
// content hashes, symbols, symbol kinds, file dependencies, aggregate
// statistics, and persisted config, all backed by a pure-Go SQLite driver
// so Reflex never needs cgo.
package metadata

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store is the SQLite data access layer for the Metadata Store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) a SQLite database at dbPath with WAL
// mode and foreign keys enabled, and applies the schema migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(30000)")
	if err != nil {
		return nil, fmt.Errorf("metadata: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("metadata: ping database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite allows one writer; serialize through a single connection.

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for callers that need a transaction
// spanning multiple of this package's operations.
func (s *Store) DB() *sql.DB {
	return s.db
}

const schemaVersion = 1

const schemaDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version    INTEGER PRIMARY KEY,
  applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS files (
  id          INTEGER PRIMARY KEY,
  path        TEXT NOT NULL UNIQUE,
  language    TEXT NOT NULL,
  size_bytes  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS file_branches (
  file_id      INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  branch_key   TEXT NOT NULL,
  content_hash TEXT NOT NULL,
  indexed_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (file_id, branch_key)
);

CREATE TABLE IF NOT EXISTS symbol_kinds (
  id   INTEGER PRIMARY KEY,
  name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS symbols (
  id         INTEGER PRIMARY KEY,
  file_id    INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  kind_id    INTEGER NOT NULL REFERENCES symbol_kinds(id),
  name       TEXT NOT NULL,
  start_line INTEGER NOT NULL,
  start_col  INTEGER NOT NULL,
  end_line   INTEGER NOT NULL,
  end_col    INTEGER NOT NULL,
  scope      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_symbols_file_id ON symbols(file_id);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);

CREATE TABLE IF NOT EXISTS file_dependencies (
  source_file_id    INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  imported_path     TEXT NOT NULL,
  resolved_file_id  INTEGER REFERENCES files(id) ON DELETE SET NULL,
  kind              TEXT NOT NULL,
  line_number       INTEGER NOT NULL,
  imported_symbols  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_deps_source ON file_dependencies(source_file_id);
CREATE INDEX IF NOT EXISTS idx_deps_resolved ON file_dependencies(resolved_file_id);

CREATE TABLE IF NOT EXISTS statistics (
  id            INTEGER PRIMARY KEY CHECK (id = 1),
  total_files   INTEGER NOT NULL DEFAULT 0,
  total_bytes   INTEGER NOT NULL DEFAULT 0,
  files_by_lang TEXT NOT NULL DEFAULT '{}',
  last_updated  TIMESTAMP
);

CREATE TABLE IF NOT EXISTS config (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("metadata: apply schema: %w", err)
	}

	var current int
	row := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("metadata: read schema version: %w", err)
	}
	if current < schemaVersion {
		if _, err := s.db.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, schemaVersion); err != nil {
			return fmt.Errorf("metadata: record schema version: %w", err)
		}
	}

	return s.seedSymbolKinds()
}
