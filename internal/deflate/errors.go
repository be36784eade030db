// Package deflate implements a bit-accurate incremental DEFLATE decoder.
//
// Neither compress/flate nor github.com/klauspost/compress/flate exposes the
// block-boundary, last-block, and unused-bit state that checkpointing needs, so
// this package decodes RFC 1951 directly, one block at a time, and reports that
// state after every block's end-of-block code the way zlib's inflate(Z_BLOCK)
// does through data_type.
package deflate

import "errors"

// ErrCorrupt is returned when the bitstream violates the DEFLATE format, or a
// zlib/gzip framing header fails validation.
var ErrCorrupt = errors.New("deflate: corrupt stream")

// ErrNoProgress is returned when the underlying reader reaches EOF before a
// full DEFLATE stream (ending in a final block) has been consumed.
var ErrNoProgress = errors.New("deflate: unexpected EOF before final block")
