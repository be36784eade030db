package store

import (
	"fmt"

	"github.com/oarkflow/squealx"

	"github.com/oarkflow/zindex/zerrors"
)

// Batch stages one build's writes inside a single SQLite transaction,
// matching the reference builder's practice of committing exactly once per
// completed build so a crash mid-build leaves no partial index behind.
type Batch struct {
	tx              *squealx.Tx
	lastAccessPoint int64
	haveAccessPoint bool
	insertStmt      map[string]*squealx.Stmt
}

// Begin opens a transaction the caller must Commit or Rollback.
func (s *Store) Begin() (*Batch, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, &zerrors.StoreError{Op: "begin", Err: err}
	}
	return &Batch{tx: tx, insertStmt: make(map[string]*squealx.Stmt)}, nil
}

// Commit finalizes every write staged in the batch.
func (b *Batch) Commit() error {
	for _, stmt := range b.insertStmt {
		stmt.Close()
	}
	if err := b.tx.Commit(); err != nil {
		return &zerrors.StoreError{Op: "commit", Err: err}
	}
	return nil
}

// Rollback discards every write staged in the batch.
func (b *Batch) Rollback() error {
	for _, stmt := range b.insertStmt {
		stmt.Close()
	}
	return b.tx.Rollback()
}

// DeclareIndex records a named index's definition and creates its backing
// table, ahead of any Put calls against it.
func (b *Batch) DeclareIndex(name, creationString string, numeric, unique bool) error {
	table, err := indexTable(name)
	if err != nil {
		return err
	}
	keyType := "TEXT"
	if numeric {
		keyType = "INTEGER"
	}
	uniqueClause := ""
	if unique {
		uniqueClause = " PRIMARY KEY"
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key %s NOT NULL%s, line INTEGER NOT NULL, offset INTEGER NOT NULL DEFAULT 0)`, table, keyType, uniqueClause)
	if _, err := b.tx.Exec(ddl); err != nil {
		return &zerrors.StoreError{Op: "declare index", Err: err}
	}
	idxDDL := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_key ON %s (key)`, name, table)
	if _, err := b.tx.Exec(idxDDL); err != nil {
		return &zerrors.StoreError{Op: "declare index", Err: err}
	}
	_, err = b.tx.Exec(
		`INSERT INTO Indexes (name, creation_string, numeric, "unique") VALUES ($1, $2, $3, $4)`,
		name, creationString, numeric, unique,
	)
	if err != nil {
		return &zerrors.StoreError{Op: "declare index", Err: err}
	}
	return nil
}

// PutLine records one line's offset and length.
func (b *Batch) PutLine(line, offset, length int64) error {
	_, err := b.tx.Exec(`INSERT INTO LineOffsets (line, offset, length) VALUES ($1, $2, $3)`, line, offset, length)
	if err != nil {
		return &zerrors.StoreError{Op: "put line", Err: err}
	}
	return nil
}

// PutAccessPoint records a new access point and backfills the previous one's
// uncompressed_end_offset now that it is known.
func (b *Batch) PutAccessPoint(compressedOffset int64, bitOffset uint8, uncompressedOffset int64, window []byte) error {
	if b.haveAccessPoint {
		_, err := b.tx.Exec(
			`UPDATE AccessPoints SET uncompressed_end_offset = $1 WHERE id = $2`,
			uncompressedOffset-1, b.lastAccessPoint,
		)
		if err != nil {
			return &zerrors.StoreError{Op: "backfill access point", Err: err}
		}
	}
	res, err := b.tx.Exec(
		`INSERT INTO AccessPoints (compressed_offset, bit_offset, uncompressed_offset, window) VALUES ($1, $2, $3, $4)`,
		compressedOffset, bitOffset, uncompressedOffset, window,
	)
	if err != nil {
		return &zerrors.StoreError{Op: "put access point", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return &zerrors.StoreError{Op: "put access point", Err: err}
	}
	b.lastAccessPoint = id
	b.haveAccessPoint = true
	return nil
}

// CloseAccessPoints backfills the final access point's end offset once the
// stream's total uncompressed length is known.
func (b *Batch) CloseAccessPoints(totalUncompressed int64) error {
	if !b.haveAccessPoint {
		return nil
	}
	_, err := b.tx.Exec(
		`UPDATE AccessPoints SET uncompressed_end_offset = $1 WHERE id = $2`,
		totalUncompressed-1, b.lastAccessPoint,
	)
	if err != nil {
		return &zerrors.StoreError{Op: "close access points", Err: err}
	}
	return nil
}

// Put implements catalog.Sink, inserting one extracted key against its named
// index's table. subOffset is carried through unread, for whatever future
// consumer wants the key's position within its line.
func (b *Batch) Put(index string, key any, line int64, subOffset int) error {
	stmt, err := b.stmtFor(index)
	if err != nil {
		return err
	}
	if _, err := stmt.Exec(key, line, subOffset); err != nil {
		return &zerrors.StoreError{Op: "put key", Err: err}
	}
	return nil
}

func (b *Batch) stmtFor(index string) (*squealx.Stmt, error) {
	if stmt, ok := b.insertStmt[index]; ok {
		return stmt, nil
	}
	table, err := indexTable(index)
	if err != nil {
		return nil, err
	}
	stmt, err := b.tx.Preparex(fmt.Sprintf(`INSERT INTO %s (key, line, offset) VALUES ($1, $2, $3)`, table))
	if err != nil {
		return nil, &zerrors.StoreError{Op: "prepare insert", Err: err}
	}
	b.insertStmt[index] = stmt
	return stmt, nil
}

// PutMetadata records one metadata key/value pair, replacing any prior value.
func (b *Batch) PutMetadata(key, value string) error {
	_, err := b.tx.Exec(
		`INSERT INTO Metadata (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return &zerrors.StoreError{Op: "put metadata", Err: err}
	}
	return nil
}
