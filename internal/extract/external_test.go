package extract

import (
	"io"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestExternalIndexerRoundTrip drives a real subprocess (the system's cat)
// as a stand-in for a key-extraction program: it echoes each request line
// back verbatim, so the keys returned should equal the input line's
// tab-separated fields.
func TestExternalIndexerRoundTrip(t *testing.T) {
	path, err := exec.LookPath("cat")
	if err != nil {
		t.Skip("cat not available")
	}
	idx, err := NewExternalIndexer(path, nil, io.Discard)
	require.NoError(t, err)
	defer idx.Close()

	sink := &collectingSink{}
	require.NoError(t, idx.Index(sink, []byte("hello\tworld")))
	require.Equal(t, []string{"hello", "world"}, sink.keys)
	require.Equal(t, []int{0, 0}, sink.subOffsets)

	sink = &collectingSink{}
	require.NoError(t, idx.Index(sink, []byte("solo")))
	require.Equal(t, []string{"solo"}, sink.keys)
}

func TestExternalIndexerRejectsEmbeddedNewline(t *testing.T) {
	path, err := exec.LookPath("cat")
	if err != nil {
		t.Skip("cat not available")
	}
	idx, err := NewExternalIndexer(path, nil, io.Discard)
	require.NoError(t, err)
	defer idx.Close()

	sink := &collectingSink{}
	err = idx.Index(sink, []byte("has\nnewline"))
	require.Error(t, err)
}
