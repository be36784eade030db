package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oarkflow/zindex/internal/catalog"
)

type collectingSink struct {
	keys       []string
	subOffsets []int
}

func (s *collectingSink) Add(key []byte, subOffset int) {
	s.keys = append(s.keys, string(key))
	s.subOffsets = append(s.subOffsets, subOffset)
}

func index(t *testing.T, f *FieldIndexer, line string) *collectingSink {
	t.Helper()
	sink := &collectingSink{}
	var _ catalog.IndexSink = sink
	require.NoError(t, f.Index(sink, []byte(line)))
	return sink
}

func TestFieldIndexerExtractsField(t *testing.T) {
	f := &FieldIndexer{Separator: ',', Field: 2}
	sink := index(t, f, "a,b,c")
	require.Equal(t, []string{"b"}, sink.keys)
	require.Equal(t, []int{2}, sink.subOffsets)
}

func TestFieldIndexerFirstAndLastField(t *testing.T) {
	f := &FieldIndexer{Separator: '\t', Field: 1}
	sink := index(t, f, "first\tsecond")
	require.Equal(t, []string{"first"}, sink.keys)
	require.Equal(t, []int{0}, sink.subOffsets)

	f = &FieldIndexer{Separator: '\t', Field: 2}
	sink = index(t, f, "first\tsecond")
	require.Equal(t, []string{"second"}, sink.keys)
	require.Equal(t, []int{6}, sink.subOffsets)
}

func TestFieldIndexerMissingFieldYieldsNoKey(t *testing.T) {
	f := &FieldIndexer{Separator: ',', Field: 5}
	sink := index(t, f, "a,b,c")
	require.Nil(t, sink.keys)
}

func TestFieldIndexerNoSeparatorInLine(t *testing.T) {
	f := &FieldIndexer{Separator: ',', Field: 1}
	sink := index(t, f, "onlyfield")
	require.Equal(t, []string{"onlyfield"}, sink.keys)
	require.Equal(t, []int{0}, sink.subOffsets)
}
