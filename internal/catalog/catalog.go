// Package catalog fans a decompressed line out to the named indexes
// registered against a build, turning each extractor's raw keys into typed
// keys and enforcing per-index uniqueness.
package catalog

import (
	"strconv"

	"github.com/oarkflow/zindex/zerrors"
)

// IndexSink receives keys as a LineIndexer discovers them in a line. subOffset
// is the byte position within the line the key was found at; it has no
// meaning to the catalog itself, and is simply carried through to storage.
type IndexSink interface {
	Add(key []byte, subOffset int)
}

// LineIndexer extracts zero or more keys from a line's bytes, reporting each
// through sink. A line producing no keys is simply absent from that index.
type LineIndexer interface {
	Index(sink IndexSink, line []byte) error
}

// Sink receives one (key, line, subOffset) triple per extracted key, ready
// for persistence.
type Sink interface {
	Put(index string, key any, line int64, subOffset int) error
}

// Definition registers one named index against the catalog.
type Definition struct {
	Name    string
	Indexer LineIndexer
	Numeric bool
	Unique  bool
}

// Catalog runs every registered Definition's extractor over each line handed
// to IndexLine.
type Catalog struct {
	defs []Definition
	seen map[string]map[any]int64
}

func New(defs []Definition) *Catalog {
	seen := make(map[string]map[any]int64, len(defs))
	for _, d := range defs {
		if d.Unique {
			seen[d.Name] = make(map[any]int64)
		}
	}
	return &Catalog{defs: defs, seen: seen}
}

// Definitions returns the registered index definitions, in registration
// order.
func (c *Catalog) Definitions() []Definition {
	return c.defs
}

// collectSink adapts a LineIndexer's Add calls into a plain slice so the
// catalog can apply key typing and uniqueness after extraction completes.
type collectSink struct {
	keys       [][]byte
	subOffsets []int
}

func (s *collectSink) Add(key []byte, subOffset int) {
	cp := make([]byte, len(key))
	copy(cp, key)
	s.keys = append(s.keys, cp)
	s.subOffsets = append(s.subOffsets, subOffset)
}

// IndexLine runs every registered extractor over data (line number
// lineNumber's bytes, without its terminator) and writes each resulting key
// to sink.
func (c *Catalog) IndexLine(lineNumber int64, data []byte, sink Sink) error {
	for _, d := range c.defs {
		collect := &collectSink{}
		if err := d.Indexer.Index(collect, data); err != nil {
			return &zerrors.IndexingFailure{Index: d.Name, Line: lineNumber, Err: err}
		}
		for i, raw := range collect.keys {
			key, err := c.toKey(d, raw, lineNumber)
			if err != nil {
				return err
			}
			if d.Unique {
				if first, dup := c.seen[d.Name][key]; dup {
					return &zerrors.DuplicateKey{Index: d.Name, Key: key, Line: lineNumber, FirstLine: first}
				}
				c.seen[d.Name][key] = lineNumber
			}
			if err := sink.Put(d.Name, key, lineNumber, collect.subOffsets[i]); err != nil {
				return &zerrors.IndexingFailure{Index: d.Name, Line: lineNumber, Err: err}
			}
		}
	}
	return nil
}

func (c *Catalog) toKey(d Definition, raw []byte, lineNumber int64) (any, error) {
	if !d.Numeric {
		return string(raw), nil
	}
	v, err := parseNumericKey(raw)
	if err != nil {
		return nil, &zerrors.InvalidKey{Index: d.Name, Line: lineNumber, Raw: string(raw), Err: err}
	}
	return v, nil
}

// parseNumericKey mirrors the reference numeric handler: a key is either
// empty (rejected) or an optional leading minus followed by one or more
// decimal digits, with nothing else.
func parseNumericKey(raw []byte) (int64, error) {
	s := string(raw)
	if s == "" {
		return 0, errEmptyKey
	}
	digits := s
	if digits[0] == '-' {
		digits = digits[1:]
	}
	if digits == "" {
		return 0, errNotNumeric
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, errNotNumeric
		}
	}
	return strconv.ParseInt(s, 10, 64)
}
