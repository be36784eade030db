package deflate

import "io"

// WindowSize is the DEFLATE back-reference history size, and the size of the
// snapshot a checkpoint captures.
const WindowSize = 32768

// Event reports the decoder's state as of the return from Step. It is only
// meaningful when EndOfBlock is set; a Step call that merely filled its output
// buffer without reaching a block boundary returns a zero Event.
type Event struct {
	EndOfBlock bool
	LastBlock  bool
	BitOffset  uint8
}

// Decoder decodes a raw DEFLATE bitstream block by block, exposing exactly the
// state a checkpointing build needs: where each block ends, whether it was the
// stream's last block, and how many bits of the final consumed byte are
// unused. See doc comment on the package for why this can't be built as a
// thin wrapper over an existing decoder.
type Decoder struct {
	br        *bitReader
	headerLen int64

	window [WindowSize]byte
	wpos   int
	haveDict bool
	totalOut int64

	inBlock    bool
	final      bool
	stored     bool
	storedLeft uint16
	lit        *huffman
	dist       *huffman

	pendingDistance uint32
	pendingLength   uint32

	done bool
}

// NewDecoder wraps a raw DEFLATE stream (no zlib/gzip framing), as used to
// resume decoding at an access point.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{br: newBitReader(r)}
}

// NewDecoderDict is NewDecoder with the 32 KiB back-reference window
// preloaded from dict, exactly as inflateSetDictionary primes zlib. dict is
// zero-padded on the left if shorter than WindowSize, and only its last
// WindowSize bytes are used if longer.
func NewDecoderDict(r io.Reader, dict []byte) *Decoder {
	d := NewDecoder(r)
	if len(dict) > WindowSize {
		dict = dict[len(dict)-WindowSize:]
	}
	copy(d.window[WindowSize-len(dict):], dict)
	d.haveDict = true
	return d
}

// Prime pushes the top `bits` bits of value into the bitstream ahead of any
// further input, matching inflatePrime. Only meaningful before the first
// Step call, when resuming at a checkpoint whose bit_offset is nonzero.
func (d *Decoder) Prime(bits uint8, value byte) {
	d.br.prime(bits, value)
}

// BytesConsumed returns the number of compressed bytes fully consumed from
// the underlying reader, including any framing header skipped by
// NewScanDecoder.
func (d *Decoder) BytesConsumed() int64 {
	return d.headerLen + d.br.bytesConsumed()
}

// UnusedBits returns 0..7, the count of bits from the most recently consumed
// byte that have not yet entered a decoded symbol.
func (d *Decoder) UnusedBits() uint8 {
	return d.br.unusedBits()
}

// TotalOut returns the number of uncompressed bytes produced so far.
func (d *Decoder) TotalOut() int64 {
	return d.totalOut
}

// Window returns a freshly linearized copy of the most recent WindowSize
// bytes of uncompressed output, zero-padded at the front if fewer than
// WindowSize bytes have been produced (and no dictionary was preloaded).
func (d *Decoder) Window() []byte {
	out := make([]byte, WindowSize)
	if d.haveDict || d.totalOut >= WindowSize {
		copy(out, d.window[d.wpos:])
		copy(out[WindowSize-d.wpos:], d.window[:d.wpos])
		return out
	}
	copy(out[WindowSize-int(d.totalOut):], d.window[:d.wpos])
	return out
}

func (d *Decoder) writeByte(out []byte, i int, b byte) {
	out[i] = b
	d.window[d.wpos] = b
	d.wpos = (d.wpos + 1) % WindowSize
	d.totalOut++
}

func (d *Decoder) copyMatch(out []byte, distance, length uint32) (int, error) {
	if !d.haveDict && uint32(d.totalOut) < distance {
		return 0, ErrCorrupt
	}
	n := 0
	for n < len(out) && length > 0 {
		srcPos := (d.wpos - int(distance) + WindowSize) % WindowSize
		d.writeByte(out, n, d.window[srcPos])
		n++
		length--
	}
	return n, nil
}

// Step decodes into out, stopping either when out is full or when a DEFLATE
// block boundary is crossed (mirroring zlib's inflate(..., Z_BLOCK)). ev is
// only populated on the call that crosses a boundary. err is io.EOF once the
// final block's end-of-block symbol has been consumed and no more output will
// ever be produced.
func (d *Decoder) Step(out []byte) (n int, ev Event, err error) {
	if d.done {
		return 0, Event{}, io.EOF
	}
	for n < len(out) {
		if d.pendingLength > 0 {
			copied, err := d.copyMatch(out[n:], d.pendingDistance, d.pendingLength)
			if err != nil {
				return n, Event{}, err
			}
			n += copied
			d.pendingLength -= uint32(copied)
			continue
		}
		if !d.inBlock {
			if err := d.startBlock(); err != nil {
				return n, Event{}, err
			}
		}
		if d.stored {
			take := len(out) - n
			if int(d.storedLeft) < take {
				take = int(d.storedLeft)
			}
			for k := 0; k < take; k++ {
				b, err := d.br.readBits(8)
				if err != nil {
					return n, Event{}, err
				}
				d.writeByte(out, n, byte(b))
				n++
			}
			d.storedLeft -= uint16(take)
			if d.storedLeft == 0 {
				ev = d.endBlock()
				return n, ev, nil
			}
			continue
		}

		sym, err := d.decodeSymbol(d.lit)
		if err != nil {
			return n, Event{}, err
		}
		switch {
		case sym < 256:
			d.writeByte(out, n, byte(sym))
			n++
		case sym == 256:
			ev = d.endBlock()
			return n, ev, nil
		default:
			li := sym - 257
			if li < 0 || li >= len(lengthBase) {
				return n, Event{}, ErrCorrupt
			}
			length := lengthBase[li]
			if lengthExtraBits[li] > 0 {
				extra, err := d.br.readBits(lengthExtraBits[li])
				if err != nil {
					return n, Event{}, err
				}
				length += int(extra)
			}
			dsym, err := d.decodeSymbol(d.dist)
			if err != nil {
				return n, Event{}, err
			}
			if dsym < 0 || dsym >= len(distanceBase) {
				return n, Event{}, ErrCorrupt
			}
			distance := distanceBase[dsym]
			if distanceExtraBits[dsym] > 0 {
				extra, err := d.br.readBits(distanceExtraBits[dsym])
				if err != nil {
					return n, Event{}, err
				}
				distance += int(extra)
			}
			copied, err := d.copyMatch(out[n:], uint32(distance), uint32(length))
			if err != nil {
				return n, Event{}, err
			}
			n += copied
			if remaining := uint32(length) - uint32(copied); remaining > 0 {
				d.pendingDistance = uint32(distance)
				d.pendingLength = remaining
			}
		}
	}
	return n, Event{}, nil
}

func (d *Decoder) startBlock() error {
	finalBit, err := d.br.readBits(1)
	if err != nil {
		return err
	}
	d.final = finalBit == 1
	btype, err := d.br.readBits(2)
	if err != nil {
		return err
	}
	switch btype {
	case 0:
		d.br.alignByte()
		lo, err := d.br.readBits(8)
		if err != nil {
			return err
		}
		hi, err := d.br.readBits(8)
		if err != nil {
			return err
		}
		nlo, err := d.br.readBits(8)
		if err != nil {
			return err
		}
		nhi, err := d.br.readBits(8)
		if err != nil {
			return err
		}
		length := uint16(lo) | uint16(hi)<<8
		nlength := uint16(nlo) | uint16(nhi)<<8
		if length != ^nlength {
			return ErrCorrupt
		}
		d.stored = true
		d.storedLeft = length
	case 1:
		d.stored = false
		d.lit = fixedLiteralHuffman
		d.dist = fixedDistanceHuffman
	case 2:
		lit, dist, err := d.readDynamicTables()
		if err != nil {
			return err
		}
		d.stored = false
		d.lit = lit
		d.dist = dist
	default:
		return ErrCorrupt
	}
	d.inBlock = true
	return nil
}

func (d *Decoder) endBlock() Event {
	d.inBlock = false
	ev := Event{EndOfBlock: true, LastBlock: d.final, BitOffset: d.br.unusedBits()}
	if d.final {
		d.done = true
	}
	return ev
}
