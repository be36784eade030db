package store

import (
	"database/sql"
	"fmt"

	"github.com/oarkflow/zindex/zerrors"
)

// AccessPointRow mirrors one row of the AccessPoints table.
type AccessPointRow struct {
	CompressedOffset      int64  `db:"compressed_offset"`
	BitOffset             int64  `db:"bit_offset"`
	UncompressedOffset    int64  `db:"uncompressed_offset"`
	UncompressedEndOffset *int64 `db:"uncompressed_end_offset"`
	Window                []byte `db:"window"`
}

// FindAccessPoint returns the access point covering the requested
// uncompressed offset: the row with the greatest uncompressed_offset not
// exceeding it.
func (s *Store) FindAccessPoint(uncompressedOffset int64) (*AccessPointRow, error) {
	var row AccessPointRow
	err := s.db.Get(&row,
		`SELECT compressed_offset, bit_offset, uncompressed_offset, uncompressed_end_offset, window
		 FROM AccessPoints
		 WHERE uncompressed_offset <= $1
		 ORDER BY uncompressed_offset DESC
		 LIMIT 1`,
		uncompressedOffset,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &zerrors.StoreError{Op: "find access point", Err: err}
	}
	return &row, nil
}

// LineOffsetRow mirrors one row of the LineOffsets table.
type LineOffsetRow struct {
	Offset int64 `db:"offset"`
	Length int64 `db:"length"`
}

// LineOffset returns the offset and length of the requested line, or nil if
// the file has fewer lines than requested.
func (s *Store) LineOffset(line int64) (*LineOffsetRow, error) {
	var row LineOffsetRow
	err := s.db.Get(&row, `SELECT offset, length FROM LineOffsets WHERE line = $1`, line)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &zerrors.StoreError{Op: "line offset", Err: err}
	}
	return &row, nil
}

// LineCount returns the number of indexed lines.
func (s *Store) LineCount() (int64, error) {
	var n int64
	if err := s.db.Get(&n, `SELECT COUNT(*) FROM LineOffsets`); err != nil {
		return 0, &zerrors.StoreError{Op: "line count", Err: err}
	}
	return n, nil
}

// QueryIndex returns every line number keyed by key in the named index.
func (s *Store) QueryIndex(name string, key any) ([]int64, error) {
	table, err := indexTable(name)
	if err != nil {
		return nil, err
	}
	var lines []int64
	err = s.db.Select(&lines, fmt.Sprintf(`SELECT line FROM %s WHERE key = $1 ORDER BY line`, table), key)
	if err != nil {
		return nil, &zerrors.StoreError{Op: "query index", Err: err}
	}
	return lines, nil
}

// IndexSize returns the number of key/line pairs stored in the named index.
func (s *Store) IndexSize(name string) (int64, error) {
	table, err := indexTable(name)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.Get(&n, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)); err != nil {
		return 0, &zerrors.StoreError{Op: "index size", Err: err}
	}
	return n, nil
}

// IndexRow mirrors one row of the Indexes table.
type IndexRow struct {
	Name           string `db:"name"`
	CreationString string `db:"creation_string"`
	Numeric        bool   `db:"numeric"`
	Unique         bool   `db:"unique"`
}

// ReadIndexes returns every index definition recorded by the build.
func (s *Store) ReadIndexes() ([]IndexRow, error) {
	var rows []IndexRow
	if err := s.db.Select(&rows, `SELECT name, creation_string, numeric, "unique" FROM Indexes`); err != nil {
		return nil, &zerrors.StoreError{Op: "read indexes", Err: err}
	}
	return rows, nil
}

// ReadAllMetadata returns the full Metadata key/value table. A read failure
// here is treated as informational by callers: an index built without
// metadata support is still usable, just not stale-checkable.
func (s *Store) ReadAllMetadata() (map[string]string, error) {
	rows, err := s.db.Queryx(`SELECT key, value FROM Metadata`)
	if err != nil {
		return nil, &zerrors.StoreError{Op: "read metadata", Err: err}
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, &zerrors.StoreError{Op: "read metadata", Err: err}
		}
		out[k] = v
	}
	return out, rows.Err()
}
