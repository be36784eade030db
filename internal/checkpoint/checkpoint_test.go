package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oarkflow/zindex/internal/deflate"
)

func TestManagerDueAtFirstOpportunity(t *testing.T) {
	m := New(1024)
	require.True(t, m.Due(deflate.Event{EndOfBlock: true, LastBlock: false}, 0))
	require.False(t, m.Due(deflate.Event{EndOfBlock: false}, 0))
	require.False(t, m.Due(deflate.Event{EndOfBlock: true, LastBlock: true}, 500))
}

func TestManagerDueAfterThreshold(t *testing.T) {
	m := New(1000)
	m.Mark(0)
	require.False(t, m.Due(deflate.Event{EndOfBlock: true}, 500))
	require.False(t, m.Due(deflate.Event{EndOfBlock: true}, 1000))
	require.True(t, m.Due(deflate.Event{EndOfBlock: true}, 1001))
}

func TestWindowCompressRoundTrip(t *testing.T) {
	raw := make([]byte, deflate.WindowSize)
	for i := range raw {
		raw[i] = byte(i % 251)
	}
	blob, err := CompressWindow(raw)
	require.NoError(t, err)
	require.Less(t, len(blob), len(raw))

	back, err := DecompressWindow(blob)
	require.NoError(t, err)
	require.Equal(t, raw, back)
}
