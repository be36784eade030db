package store

import (
	"fmt"
	"regexp"

	"github.com/oarkflow/zindex/zerrors"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS Metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS AccessPoints (
	id                      INTEGER PRIMARY KEY AUTOINCREMENT,
	compressed_offset       INTEGER NOT NULL,
	bit_offset              INTEGER NOT NULL,
	uncompressed_offset     INTEGER NOT NULL,
	uncompressed_end_offset INTEGER,
	window                  BLOB
);

CREATE INDEX IF NOT EXISTS idx_access_points_uncompressed
	ON AccessPoints (uncompressed_offset);

CREATE TABLE IF NOT EXISTS LineOffsets (
	line   INTEGER PRIMARY KEY,
	offset INTEGER NOT NULL,
	length INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS Indexes (
	name            TEXT PRIMARY KEY,
	creation_string TEXT NOT NULL,
	numeric         INTEGER NOT NULL,
	"unique"        INTEGER NOT NULL
);
`

var validIndexName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (s *Store) createSchema() error {
	tx, err := s.db.Beginx()
	if err != nil {
		return &zerrors.StoreError{Op: "create schema", Err: err}
	}
	if _, err := tx.Exec(schemaDDL); err != nil {
		tx.Rollback()
		return &zerrors.StoreError{Op: "create schema", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &zerrors.StoreError{Op: "create schema", Err: err}
	}
	return nil
}

// indexTable returns the physical table name backing a named index, after
// validating name against SQL-injection-by-identifier: index names come from
// build configuration, not untrusted input, but the table name can't be
// bound as a query parameter so it is checked instead.
func indexTable(name string) (string, error) {
	if !validIndexName.MatchString(name) {
		return "", &zerrors.StoreError{Op: "index table", Err: fmt.Errorf("invalid index name %q", name)}
	}
	return "index_" + name, nil
}
