package zindex

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"sync"

	"github.com/oarkflow/gopool"
	"github.com/oarkflow/log"

	"github.com/oarkflow/zindex/internal/checkpoint"
	"github.com/oarkflow/zindex/internal/deflate"
	"github.com/oarkflow/zindex/store"
	"github.com/oarkflow/zindex/zerrors"
)

// Reader answers line and index queries against a previously built index
// file, decompressing only the small span of the source needed to reach each
// answer.
type Reader struct {
	sourcePath string
	st         *store.Store
}

// Open opens indexPath for querying against sourcePath. Unless force is set,
// it refuses a stale index: one whose recorded source size or modification
// time no longer matches the file on disk. With force set, a failed check is
// logged as a warning and the index is opened anyway.
func Open(sourcePath, indexPath string, force bool) (*Reader, error) {
	st, err := store.OpenReadOnly(indexPath)
	if err != nil {
		return nil, err
	}
	r := &Reader{sourcePath: sourcePath, st: st}
	if err := r.checkFresh(); err != nil {
		if !force {
			st.Close()
			return nil, err
		}
		log.Warn().Str("path", st.Path()).Str("err", err.Error()).Msg("opening index despite failed staleness check")
	}
	return r, nil
}

func (r *Reader) checkFresh() error {
	meta, err := r.st.ReadAllMetadata()
	if err != nil {
		log.Warn().Str("path", r.st.Path()).Msg("could not read index metadata, skipping staleness check")
		return nil
	}
	info, err := os.Stat(r.sourcePath)
	if err != nil {
		return &zerrors.IOError{Op: "stat source", Err: err}
	}
	if sizeStr, ok := meta[metaSourceSize]; ok {
		size, _ := strconv.ParseInt(sizeStr, 10, 64)
		if size != info.Size() {
			return &zerrors.StaleIndex{Path: r.st.Path(), Reason: "source file size changed"}
		}
	}
	if modStr, ok := meta[metaSourceModTime]; ok {
		mod, _ := strconv.ParseInt(modStr, 10, 64)
		if mod != info.ModTime().Unix() {
			return &zerrors.StaleIndex{Path: r.st.Path(), Reason: "source file modification time changed"}
		}
	}
	return nil
}

// Close releases the index file handle.
func (r *Reader) Close() error {
	return r.st.Close()
}

// LineCount returns the number of lines the index recorded.
func (r *Reader) LineCount() (int64, error) {
	return r.st.LineCount()
}

// GetLine returns the bytes of the requested 1-based line, without its
// terminator. It returns (nil, nil) if the file has fewer lines than
// requested: a missing line is not an error.
func (r *Reader) GetLine(line int64) ([]byte, error) {
	lo, err := r.st.LineOffset(line)
	if err != nil {
		return nil, err
	}
	if lo == nil {
		return nil, nil
	}
	data, err := r.readRange(lo.Offset, lo.Length)
	if err != nil {
		return nil, err
	}
	// LineOffsets.length includes the terminating newline when the line was
	// newline-terminated; a final unterminated line has no such byte to
	// strip.
	if n := len(data); n > 0 && data[n-1] == '\n' {
		data = data[:n-1]
	}
	return data, nil
}

// GetLines resolves a batch of line numbers concurrently, bounding fan-out to
// one worker per idle CPU since each lookup opens its own handle onto the
// source file and decompresses an independent access-point window.
func (r *Reader) GetLines(lineNumbers []int64) (map[int64][]byte, error) {
	if len(lineNumbers) == 0 {
		return map[int64][]byte{}, nil
	}
	workers := runtime.NumCPU() - 1
	if workers < 1 {
		workers = 1
	}
	if workers > len(lineNumbers) {
		workers = len(lineNumbers)
	}
	var (
		mu     sync.Mutex
		result = make(map[int64][]byte, len(lineNumbers))
		firstErr error
	)
	pool, err := gopool.NewPoolSimple(workers, func(job gopool.Job[int64], workerID int) error {
		line := job.Payload
		data, err := r.GetLine(line)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return err
		}
		result[line] = data
		return nil
	})
	if err != nil {
		return nil, &zerrors.IOError{Op: "get lines", Err: err}
	}
	for _, line := range lineNumbers {
		pool.Submit(line)
	}
	pool.StopAndWait()
	if firstErr != nil {
		return nil, firstErr
	}
	return result, nil
}

// LineSink receives resolved line content, the way the original's LineSink
// received each line fetched on behalf of a query.
type LineSink interface {
	OnLine(line int64, data []byte) error
}

// LineFunc adapts sink into a per-line callback suitable for driving
// QueryIndex/QueryIndexMulti results straight into GetLine, the way the
// original's sinkFetch turned a LineSink into a LineFunction.
func (r *Reader) LineFunc(sink LineSink) func(int64) error {
	return func(line int64) error {
		data, err := r.GetLine(line)
		if err != nil {
			return err
		}
		return sink.OnLine(line, data)
	}
}

// QueryIndex returns every line number keyed by key in the named index.
func (r *Reader) QueryIndex(name string, key any) ([]int64, error) {
	return r.st.QueryIndex(name, key)
}

// QueryIndexMulti resolves several keys against the same named index.
func (r *Reader) QueryIndexMulti(name string, keys []any) (map[any][]int64, error) {
	out := make(map[any][]int64, len(keys))
	for _, key := range keys {
		lines, err := r.st.QueryIndex(name, key)
		if err != nil {
			return nil, err
		}
		out[key] = lines
	}
	return out, nil
}

// IndexSize returns the number of key/line pairs stored in the named index.
func (r *Reader) IndexSize(name string) (int64, error) {
	return r.st.IndexSize(name)
}

// IndexDefs returns every index definition recorded by the build.
func (r *Reader) IndexDefs() ([]IndexDef, error) {
	rows, err := r.st.ReadIndexes()
	if err != nil {
		return nil, err
	}
	defs := make([]IndexDef, 0, len(rows))
	for _, row := range rows {
		defs = append(defs, IndexDef{
			Name:           row.Name,
			CreationString: row.CreationString,
			Numeric:        row.Numeric,
			Unique:         row.Unique,
		})
	}
	return defs, nil
}

// readRange decompresses exactly [offset, offset+length) of the uncompressed
// stream, resuming from the nearest access point at or before offset.
func (r *Reader) readRange(offset, length int64) ([]byte, error) {
	ap, err := r.st.FindAccessPoint(offset)
	if err != nil {
		return nil, err
	}
	if ap == nil {
		return nil, &zerrors.StoreError{Op: "read range", Err: fmt.Errorf("no access point covers offset %d", offset)}
	}

	f, err := os.Open(r.sourcePath)
	if err != nil {
		return nil, &zerrors.IOError{Op: "open source", Err: err}
	}
	defer f.Close()

	var primeByte [1]byte
	if ap.BitOffset > 0 {
		if _, err := f.Seek(ap.CompressedOffset-1, io.SeekStart); err != nil {
			return nil, &zerrors.IOError{Op: "seek source", Err: err}
		}
		if _, err := io.ReadFull(f, primeByte[:]); err != nil {
			return nil, &zerrors.IOError{Op: "read prime byte", Err: err}
		}
	}
	if _, err := f.Seek(ap.CompressedOffset, io.SeekStart); err != nil {
		return nil, &zerrors.IOError{Op: "seek source", Err: err}
	}

	dict := make([]byte, deflate.WindowSize)
	if len(ap.Window) > 0 {
		dict, err = checkpoint.DecompressWindow(ap.Window)
		if err != nil {
			return nil, &zerrors.StoreError{Op: "decompress window", Err: err}
		}
	}

	dec := deflate.NewDecoderDict(f, dict)
	if ap.BitOffset > 0 {
		dec.Prime(uint8(ap.BitOffset), primeByte[0])
	}

	skip := offset - ap.UncompressedOffset
	buf := make([]byte, 32*1024)
	for skip > 0 {
		want := int64(len(buf))
		if skip < want {
			want = skip
		}
		n, _, err := dec.Step(buf[:want])
		skip -= int64(n)
		if err != nil && err != io.EOF {
			return nil, &zerrors.CorruptStream{Offset: dec.BytesConsumed(), Err: err}
		}
		if n == 0 && err == io.EOF {
			return nil, &zerrors.IOError{Op: "read range", Err: fmt.Errorf("stream ended before requested offset")}
		}
	}

	result := make([]byte, 0, length)
	for int64(len(result)) < length {
		want := int64(len(buf))
		if remaining := length - int64(len(result)); remaining < want {
			want = remaining
		}
		n, _, err := dec.Step(buf[:want])
		result = append(result, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &zerrors.CorruptStream{Offset: dec.BytesConsumed(), Err: err}
		}
	}
	return result, nil
}
