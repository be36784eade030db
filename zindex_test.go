package zindex

import (
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oarkflow/zindex/internal/extract"
	"github.com/oarkflow/zindex/zerrors"
)

func writeGzipFixture(t *testing.T, path string, lines []string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	gw := gzip.NewWriter(f)
	for _, l := range lines {
		_, err := gw.Write([]byte(l))
		require.NoError(t, err)
		_, err = gw.Write([]byte("\n"))
		require.NoError(t, err)
	}
	require.NoError(t, gw.Close())
}

func genLines(n int) []string {
	lines := make([]string, n)
	for i := 0; i < n; i++ {
		lines[i] = fmt.Sprintf("%d,word%d,payload-%d-the-quick-brown-fox", i, i%37, i)
	}
	return lines
}

func TestBuildAndReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "log.gz")
	index := filepath.Join(dir, "log.gz.zindex")

	lines := genLines(5000)
	writeGzipFixture(t, source, lines)

	cfg := &Config{
		IndexEvery: 8192, // small, to force many checkpoints in a modest fixture
		Indexes: []IndexSpec{
			{Name: "id", CreationString: "field:,:1", Numeric: true, Unique: true, Indexer: &extract.FieldIndexer{Separator: ',', Field: 1}},
			{Name: "word", CreationString: "field:,:2", Indexer: &extract.FieldIndexer{Separator: ',', Field: 2}},
		},
	}
	require.NoError(t, Build(source, index, cfg))

	r, err := Open(source, index, false)
	require.NoError(t, err)
	defer r.Close()

	n, err := r.LineCount()
	require.NoError(t, err)
	require.EqualValues(t, len(lines), n)

	for _, ln := range []int64{1, 2, 3, 2500, 4999, 5000} {
		got, err := r.GetLine(ln)
		require.NoError(t, err)
		require.Equal(t, lines[ln-1], string(got))
	}

	missing, err := r.GetLine(999999)
	require.NoError(t, err)
	require.Nil(t, missing)

	lineNumbers, err := r.QueryIndex("id", int64(2500))
	require.NoError(t, err)
	require.Equal(t, []int64{2501}, lineNumbers)

	batch, err := r.GetLines([]int64{1, 100, 2500, 5000})
	require.NoError(t, err)
	require.Equal(t, lines[0], string(batch[1]))
	require.Equal(t, lines[99], string(batch[100]))
	require.Equal(t, lines[2499], string(batch[2500]))
	require.Equal(t, lines[4999], string(batch[5000]))

	wordLines, err := r.QueryIndex("word", "word5")
	require.NoError(t, err)
	require.NotEmpty(t, wordLines)
	for _, ln := range wordLines {
		require.Equal(t, lines[ln-1], string(mustGetLine(t, r, ln)))
	}
}

func mustGetLine(t *testing.T, r *Reader, line int64) []byte {
	t.Helper()
	data, err := r.GetLine(line)
	require.NoError(t, err)
	return data
}

func TestBuildSkipFirstExcludesLeadingLinesFromIndexes(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "log.gz")
	index := filepath.Join(dir, "log.gz.zindex")

	lines := []string{"1,header,skip", "2,header,skip", "10,data,keep", "11,data,keep"}
	writeGzipFixture(t, source, lines)

	cfg := &Config{
		SkipFirst: 2,
		Indexes: []IndexSpec{
			{Name: "id", Numeric: true, Indexer: &extract.FieldIndexer{Separator: ',', Field: 1}},
		},
	}
	require.NoError(t, Build(source, index, cfg))

	r, err := Open(source, index, false)
	require.NoError(t, err)
	defer r.Close()

	n, err := r.LineCount()
	require.NoError(t, err)
	require.EqualValues(t, 4, n)

	got, err := r.GetLine(1)
	require.NoError(t, err)
	require.Equal(t, lines[0], string(got))

	lineNumbers, err := r.QueryIndex("id", int64(1))
	require.NoError(t, err)
	require.Empty(t, lineNumbers)

	lineNumbers, err = r.QueryIndex("id", int64(10))
	require.NoError(t, err)
	require.Equal(t, []int64{3}, lineNumbers)
}

func TestUniqueIndexDuplicateFailsBuild(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "log.gz")
	index := filepath.Join(dir, "log.gz.zindex")

	lines := []string{"1,a", "1,b"}
	writeGzipFixture(t, source, lines)

	cfg := &Config{
		Indexes: []IndexSpec{
			{Name: "id", Numeric: true, Unique: true, Indexer: &extract.FieldIndexer{Separator: ',', Field: 1}},
		},
	}
	err := Build(source, index, cfg)
	require.Error(t, err)
	var dup *zerrors.DuplicateKey
	require.ErrorAs(t, err, &dup)
}

func TestOpenDetectsStaleIndex(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "log.gz")
	index := filepath.Join(dir, "log.gz.zindex")

	writeGzipFixture(t, source, []string{"a,1", "b,2"})
	require.NoError(t, Build(source, index, &Config{}))

	// Rewrite the source with different content but leave the index alone.
	writeGzipFixture(t, source, []string{"a,1", "b,2", "c,3", "d,4", "e,5"})

	_, err := Open(source, index, false)
	require.Error(t, err)
	var stale *zerrors.StaleIndex
	require.ErrorAs(t, err, &stale)

	r, err := Open(source, index, true)
	require.NoError(t, err)
	defer r.Close()
}

// TestBuildTinyFileHasNoInternalBlockBoundary covers a stream small enough
// that the deflate encoder never emits a non-final block: the only access
// point available is the one Build seeds at uncompressed offset 0.
func TestBuildTinyFileHasNoInternalBlockBoundary(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "log.gz")
	index := filepath.Join(dir, "log.gz.zindex")

	writeGzipFixture(t, source, []string{"one", "two", "three"})
	require.NoError(t, Build(source, index, &Config{}))

	r, err := Open(source, index, false)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.GetLine(1)
	require.NoError(t, err)
	require.Equal(t, "one", string(got))

	got, err = r.GetLine(3)
	require.NoError(t, err)
	require.Equal(t, "three", string(got))
}

// TestBuildRoundTripsUnterminatedFinalLine covers a source with no trailing
// newline: the last line's stored length must not include a byte to strip.
func TestBuildRoundTripsUnterminatedFinalLine(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "log.gz")
	index := filepath.Join(dir, "log.gz.zindex")

	f, err := os.Create(source)
	require.NoError(t, err)
	gw := gzip.NewWriter(f)
	_, err = gw.Write([]byte("first\nlast-no-newline"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, f.Close())

	require.NoError(t, Build(source, index, &Config{}))

	r, err := Open(source, index, false)
	require.NoError(t, err)
	defer r.Close()

	n, err := r.LineCount()
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	got, err := r.GetLine(1)
	require.NoError(t, err)
	require.Equal(t, "first", string(got))

	got, err = r.GetLine(2)
	require.NoError(t, err)
	require.Equal(t, "last-no-newline", string(got))
}

// TestBuildOverwritesExistingIndexWithoutForce covers the unconditional
// rebuild-overwrite lifecycle: Build must succeed against a target path
// that already holds a complete index, without any force flag.
func TestBuildOverwritesExistingIndexWithoutForce(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "log.gz")
	index := filepath.Join(dir, "log.gz.zindex")

	writeGzipFixture(t, source, []string{"a,1", "b,2"})
	require.NoError(t, Build(source, index, &Config{
		Indexes: []IndexSpec{{Name: "id", Indexer: &extract.FieldIndexer{Separator: ',', Field: 1}}},
	}))

	writeGzipFixture(t, source, []string{"a,1", "b,2", "c,3"})
	require.NoError(t, Build(source, index, &Config{
		Indexes: []IndexSpec{{Name: "id", Indexer: &extract.FieldIndexer{Separator: ',', Field: 1}}},
	}))

	r, err := Open(source, index, false)
	require.NoError(t, err)
	defer r.Close()

	n, err := r.LineCount()
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}

type collectedLine struct {
	line int64
	data string
}

type recordingLineSink struct {
	got []collectedLine
}

func (s *recordingLineSink) OnLine(line int64, data []byte) error {
	s.got = append(s.got, collectedLine{line: line, data: string(data)})
	return nil
}

func TestLineFuncAdaptsQueryIndexResultsToGetLine(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "log.gz")
	index := filepath.Join(dir, "log.gz.zindex")

	lines := []string{"1,a", "2,b", "1,c"}
	writeGzipFixture(t, source, lines)

	require.NoError(t, Build(source, index, &Config{
		Indexes: []IndexSpec{{Name: "id", Indexer: &extract.FieldIndexer{Separator: ',', Field: 1}}},
	}))

	r, err := Open(source, index, false)
	require.NoError(t, err)
	defer r.Close()

	matches, err := r.QueryIndex("id", "1")
	require.NoError(t, err)
	require.Equal(t, []int64{1, 3}, matches)

	sink := &recordingLineSink{}
	fetch := r.LineFunc(sink)
	for _, ln := range matches {
		require.NoError(t, fetch(ln))
	}
	require.Equal(t, []collectedLine{{1, "1,a"}, {3, "1,c"}}, sink.got)
}

func TestInvalidNumericKeyFailsBuild(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "log.gz")
	index := filepath.Join(dir, "log.gz.zindex")

	writeGzipFixture(t, source, []string{"notanumber,x"})
	err := Build(source, index, &Config{
		Indexes: []IndexSpec{
			{Name: "id", Numeric: true, Indexer: &extract.FieldIndexer{Separator: ',', Field: 1}},
		},
	})
	require.Error(t, err)
	var invalid *zerrors.InvalidKey
	require.ErrorAs(t, err, &invalid)
}
