package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreBuildAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.zindex")

	st, err := Open(path)
	require.NoError(t, err)

	batch, err := st.Begin()
	require.NoError(t, err)

	require.NoError(t, batch.DeclareIndex("word", "field:1", false, false))
	require.NoError(t, batch.DeclareIndex("id", "field:0:numeric", true, true))

	require.NoError(t, batch.PutLine(1, 0, 5))
	require.NoError(t, batch.PutLine(2, 6, 7))

	require.NoError(t, batch.PutAccessPoint(0, 0, 0, nil))
	require.NoError(t, batch.PutAccessPoint(4096, 3, 32768, []byte{1, 2, 3}))
	require.NoError(t, batch.CloseAccessPoints(65536))

	require.NoError(t, batch.Put("word", "hello", 1, 0))
	require.NoError(t, batch.Put("word", "world", 2, 0))
	require.NoError(t, batch.Put("id", int64(100), 1, 0))

	require.NoError(t, batch.PutMetadata("source_path", "/tmp/log.gz"))

	require.NoError(t, batch.Commit())
	require.NoError(t, st.Close())

	ro, err := OpenReadOnly(path)
	require.NoError(t, err)
	defer ro.Close()

	lo, err := ro.LineOffset(1)
	require.NoError(t, err)
	require.NotNil(t, lo)
	require.EqualValues(t, 0, lo.Offset)
	require.EqualValues(t, 5, lo.Length)

	missing, err := ro.LineOffset(999)
	require.NoError(t, err)
	require.Nil(t, missing)

	n, err := ro.LineCount()
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	ap, err := ro.FindAccessPoint(40000)
	require.NoError(t, err)
	require.NotNil(t, ap)
	require.EqualValues(t, 32768, ap.UncompressedOffset)
	require.EqualValues(t, 4096, ap.CompressedOffset)
	require.NotNil(t, ap.UncompressedEndOffset)
	require.EqualValues(t, 65535, *ap.UncompressedEndOffset)

	first, err := ro.FindAccessPoint(0)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.EqualValues(t, 0, first.CompressedOffset)
	require.NotNil(t, first.UncompressedEndOffset)
	require.EqualValues(t, 32767, *first.UncompressedEndOffset)

	lines, err := ro.QueryIndex("word", "hello")
	require.NoError(t, err)
	require.Equal(t, []int64{1}, lines)

	lines, err = ro.QueryIndex("id", int64(100))
	require.NoError(t, err)
	require.Equal(t, []int64{1}, lines)

	size, err := ro.IndexSize("word")
	require.NoError(t, err)
	require.EqualValues(t, 2, size)

	defs, err := ro.ReadIndexes()
	require.NoError(t, err)
	require.Len(t, defs, 2)

	meta, err := ro.ReadAllMetadata()
	require.NoError(t, err)
	require.Equal(t, "/tmp/log.gz", meta["source_path"])
}

func TestUniqueIndexRejectsDuplicateAtStorageLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.zindex")
	st, err := Open(path)
	require.NoError(t, err)
	defer st.Close()

	batch, err := st.Begin()
	require.NoError(t, err)
	require.NoError(t, batch.DeclareIndex("id", "field:0:numeric:unique", true, true))
	require.NoError(t, batch.Put("id", int64(1), 1, 0))
	err = batch.Put("id", int64(1), 2, 0)
	require.Error(t, err)
	require.NoError(t, batch.Rollback())
}
