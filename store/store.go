// Package store persists a built index to a SQLite database file: access
// points, line offsets, per-index key tables, and the metadata a Reader uses
// to detect a stale index.
package store

import (
	"database/sql"
	"fmt"

	"github.com/oarkflow/squealx"
	_ "modernc.org/sqlite"

	"github.com/oarkflow/zindex/zerrors"
)

// applicationID is stamped into the SQLite header (PRAGMA application_id) so
// a stray .sqlite file can be recognized before it is ever queried.
const applicationID = 0x5A494458 // "ZIDX"

// Store wraps a single SQLite database file holding one index.
type Store struct {
	db   *squealx.DB
	path string
}

// Open creates path if it does not exist and prepares it for writing: the
// durability PRAGMAs are relaxed because an interrupted build is simply
// discarded and retried, never repaired in place.
func Open(path string) (*Store, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &zerrors.StoreError{Op: "open", Err: err}
	}
	sqlDB.SetMaxOpenConns(1)
	db := squealx.NewDb(sqlDB, "sqlite", path)
	s := &Store{db: db, path: path}
	if err := s.exec(
		"PRAGMA synchronous = OFF",
		"PRAGMA journal_mode = MEMORY",
		fmt.Sprintf("PRAGMA application_id = %d", applicationID),
	); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenReadOnly opens an existing index file for querying only.
func OpenReadOnly(path string) (*Store, error) {
	sqlDB, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, &zerrors.StoreError{Op: "open", Err: err}
	}
	db := squealx.NewDb(sqlDB, "sqlite", path)
	return &Store{db: db, path: path}, nil
}

func (s *Store) exec(stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return &zerrors.StoreError{Op: stmt, Err: err}
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path the store was opened with.
func (s *Store) Path() string {
	return s.path
}
