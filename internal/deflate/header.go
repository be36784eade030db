package deflate

import (
	"bufio"
	"io"
)

// Framing identifies which container, if any, wrapped the raw DEFLATE stream.
type Framing int

const (
	FramingUnknown Framing = iota
	FramingZlib
	FramingGzip
)

const (
	gzipFlagText    = 1 << 0
	gzipFlagHCRC    = 1 << 1
	gzipFlagExtra   = 1 << 2
	gzipFlagName    = 1 << 3
	gzipFlagComment = 1 << 4
)

// NewScanDecoder auto-detects a zlib or gzip wrapper (as compress/zlib and
// compress/gzip do), consumes it, and returns a Decoder positioned at the
// start of the raw DEFLATE stream. It is used only in scan mode (build); the
// query path always resumes a raw stream via NewDecoderDict.
func NewScanDecoder(r io.Reader) (*Decoder, Framing, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil {
		return nil, FramingUnknown, ErrCorrupt
	}
	var headerLen int64
	var framing Framing
	switch {
	case magic[0] == 0x1f && magic[1] == 0x8b:
		framing = FramingGzip
		n, err := skipGzipHeader(br)
		if err != nil {
			return nil, framing, err
		}
		headerLen = n
	case magic[0]&0x0f == 8 && (uint16(magic[0])<<8|uint16(magic[1]))%31 == 0:
		framing = FramingZlib
		if _, err := br.Discard(2); err != nil {
			return nil, framing, ErrCorrupt
		}
		headerLen = 2
	default:
		return nil, FramingUnknown, ErrCorrupt
	}
	d := NewDecoder(br)
	d.headerLen = headerLen
	return d, framing, nil
}

// skipGzipHeader consumes a gzip member header (RFC 1952 2.3), returning its
// length in bytes.
func skipGzipHeader(br *bufio.Reader) (int64, error) {
	hdr := make([]byte, 10)
	if _, err := io.ReadFull(br, hdr); err != nil {
		return 0, ErrCorrupt
	}
	if hdr[0] != 0x1f || hdr[1] != 0x8b || hdr[2] != 8 {
		return 0, ErrCorrupt
	}
	flg := hdr[3]
	n := int64(len(hdr))

	if flg&gzipFlagExtra != 0 {
		var xlenBuf [2]byte
		if _, err := io.ReadFull(br, xlenBuf[:]); err != nil {
			return 0, ErrCorrupt
		}
		n += 2
		xlen := int(xlenBuf[0]) | int(xlenBuf[1])<<8
		if _, err := io.CopyN(io.Discard, br, int64(xlen)); err != nil {
			return 0, ErrCorrupt
		}
		n += int64(xlen)
	}
	if flg&gzipFlagName != 0 {
		l, err := discardCString(br)
		if err != nil {
			return 0, ErrCorrupt
		}
		n += l
	}
	if flg&gzipFlagComment != 0 {
		l, err := discardCString(br)
		if err != nil {
			return 0, ErrCorrupt
		}
		n += l
	}
	if flg&gzipFlagHCRC != 0 {
		if _, err := io.CopyN(io.Discard, br, 2); err != nil {
			return 0, ErrCorrupt
		}
		n += 2
	}
	return n, nil
}

func discardCString(br *bufio.Reader) (int64, error) {
	var n int64
	for {
		b, err := br.ReadByte()
		if err != nil {
			return n, err
		}
		n++
		if b == 0 {
			return n, nil
		}
	}
}
