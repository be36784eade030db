// Package zerrors defines the typed error values returned across the module,
// so callers can use errors.As (and, where a type wraps an underlying cause,
// errors.Is) without depending on error string contents. DuplicateKey and
// StaleIndex carry no underlying cause and have no Unwrap method.
package zerrors

import "fmt"

// CorruptStream indicates the compressed input violated the DEFLATE, gzip, or
// zlib format.
type CorruptStream struct {
	Offset int64
	Err    error
}

func (e *CorruptStream) Error() string {
	return fmt.Sprintf("corrupt stream at compressed offset %d: %v", e.Offset, e.Err)
}

func (e *CorruptStream) Unwrap() error { return e.Err }

// IOError wraps a failure reading the source file or writing the index file.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// StoreError wraps a failure in the SQLite-backed index store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store: %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// InvalidKey reports a line that a numeric index could not parse a key from.
type InvalidKey struct {
	Index string
	Line  int64
	Raw   string
	Err   error
}

func (e *InvalidKey) Error() string {
	return fmt.Sprintf("index %q: line %d: invalid key %q: %v", e.Index, e.Line, e.Raw, e.Err)
}

func (e *InvalidKey) Unwrap() error { return e.Err }

// DuplicateKey reports a key collision on an index declared unique.
type DuplicateKey struct {
	Index      string
	Key        any
	Line       int64
	FirstLine  int64
}

func (e *DuplicateKey) Error() string {
	return fmt.Sprintf("index %q: key %v on line %d duplicates line %d", e.Index, e.Key, e.Line, e.FirstLine)
}

// StaleIndex reports that an on-disk index no longer matches the source file
// it was built from.
type StaleIndex struct {
	Path   string
	Reason string
}

func (e *StaleIndex) Error() string {
	return fmt.Sprintf("index %q is stale: %s", e.Path, e.Reason)
}

// IndexingFailure wraps any error raised while building a named index, adding
// the index name and the line being processed when it happened.
type IndexingFailure struct {
	Index string
	Line  int64
	Err   error
}

func (e *IndexingFailure) Error() string {
	return fmt.Sprintf("index %q: line %d: %v", e.Index, e.Line, e.Err)
}

func (e *IndexingFailure) Unwrap() error { return e.Err }
