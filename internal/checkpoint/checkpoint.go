// Package checkpoint decides when the builder should drop an access point and
// packages the 32 KiB history window it is captured with.
package checkpoint

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/oarkflow/zindex/internal/deflate"
)

// DefaultIndexEvery is the byte-distance threshold between checkpoints used
// when a build does not specify one.
const DefaultIndexEvery = 32 * 1024 * 1024

// Manager applies the checkpoint placement policy: a new access point is due
// at a block boundary that is not the stream's last block, once at least
// every bytes of uncompressed output have been produced since the previous
// one -- or at a boundary reported before any output exists (totalOut == 0).
// A real decode never reports such a boundary, which is why Build seeds the
// offset-0 access point itself.
type Manager struct {
	every int64
	last  int64
}

func New(every int64) *Manager {
	if every <= 0 {
		every = DefaultIndexEvery
	}
	return &Manager{every: every}
}

// Due reports whether ev, observed with totalOut uncompressed bytes produced
// so far, should trigger a new access point.
func (m *Manager) Due(ev deflate.Event, totalOut int64) bool {
	if !ev.EndOfBlock || ev.LastBlock {
		return false
	}
	sinceLast := totalOut - m.last
	return sinceLast > m.every || totalOut == 0
}

// Mark records that a checkpoint was emitted at totalOut, resetting the
// distance counter Due uses.
func (m *Manager) Mark(totalOut int64) {
	m.last = totalOut
}

// CompressWindow packages a 32 KiB uncompressed history snapshot at maximum
// zlib compression, the way the store persists it.
func CompressWindow(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecompressWindow reverses CompressWindow, always yielding exactly
// deflate.WindowSize bytes.
func DecompressWindow(blob []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out := make([]byte, deflate.WindowSize)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}
