package lines

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	lines []Line
}

func (s *recordingSink) Line(l Line) error {
	cp := make([]byte, len(l.Data))
	copy(cp, l.Data)
	l.Data = cp
	s.lines = append(s.lines, l)
	return nil
}

func TestFinderSplitsAcrossWrites(t *testing.T) {
	sink := &recordingSink{}
	f := New(sink)
	require.NoError(t, f.Write([]byte("hel")))
	require.NoError(t, f.Write([]byte("lo\nwor")))
	require.NoError(t, f.Write([]byte("ld\n")))
	require.NoError(t, f.Finish())

	require.Len(t, sink.lines, 2)
	require.Equal(t, Line{Number: 1, Offset: 0, Data: []byte("hello"), Terminated: true}, sink.lines[0])
	require.Equal(t, Line{Number: 2, Offset: 6, Data: []byte("world"), Terminated: true}, sink.lines[1])
	require.EqualValues(t, 2, f.LineCount())
}

func TestFinderFlushesUnterminatedFinalLine(t *testing.T) {
	sink := &recordingSink{}
	f := New(sink)
	require.NoError(t, f.Write([]byte("no newline at end")))
	require.NoError(t, f.Finish())

	require.Len(t, sink.lines, 1)
	require.Equal(t, "no newline at end", string(sink.lines[0].Data))
	require.False(t, sink.lines[0].Terminated)
}

func TestFinderEmptyInput(t *testing.T) {
	sink := &recordingSink{}
	f := New(sink)
	require.NoError(t, f.Finish())
	require.Empty(t, sink.lines)
}

func TestFinderTrailingNewlineProducesNoExtraLine(t *testing.T) {
	sink := &recordingSink{}
	f := New(sink)
	require.NoError(t, f.Write([]byte("one\ntwo\n")))
	require.NoError(t, f.Finish())
	require.Len(t, sink.lines, 2)
}
