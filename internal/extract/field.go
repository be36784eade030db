// Package extract provides the built-in LineIndexer implementations: field
// splitting and delegation to an external subprocess.
package extract

import "github.com/oarkflow/zindex/internal/catalog"

// FieldIndexer extracts one delimited field from a line, addressed by a
// 1-based field number the way cut(1) addresses columns. A line with fewer
// fields than requested contributes no key. The reported sub-offset is the
// field's starting byte position within the line.
type FieldIndexer struct {
	Separator byte
	Field     int
}

func (f *FieldIndexer) Index(sink catalog.IndexSink, line []byte) error {
	if f.Field < 1 {
		return nil
	}
	start := 0
	field := 1
	for i := 0; i < len(line); i++ {
		if line[i] != f.Separator {
			continue
		}
		if field == f.Field {
			sink.Add(line[start:i], start)
			return nil
		}
		field++
		start = i + 1
	}
	if field == f.Field {
		sink.Add(line[start:], start)
	}
	return nil
}
