package deflate

const maxHuffmanBits = 15

// huffman is a canonical Huffman decode table built from a list of code
// lengths, following the classic counts/symbols layout used by reference
// DEFLATE decoders: symbols are grouped by code length and decoded by walking
// bit-by-bit, comparing the accumulated code against the first code of each
// length, rather than materializing a full binary tree.
type huffman struct {
	counts  [maxHuffmanBits + 1]int
	symbols []int
}

func buildHuffman(lengths []int) (*huffman, error) {
	h := &huffman{symbols: make([]int, len(lengths))}
	for _, l := range lengths {
		if l < 0 || l > maxHuffmanBits {
			return nil, ErrCorrupt
		}
		h.counts[l]++
	}
	h.counts[0] = 0

	var offsets [maxHuffmanBits + 2]int
	for i := 1; i <= maxHuffmanBits; i++ {
		offsets[i+1] = offsets[i] + h.counts[i]
	}
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		h.symbols[offsets[l]] = sym
		offsets[l]++
	}
	return h, nil
}

func (d *Decoder) decodeSymbol(h *huffman) (int, error) {
	code, first, index := 0, 0, 0
	for length := 1; length <= maxHuffmanBits; length++ {
		bit, err := d.br.readBit()
		if err != nil {
			return 0, err
		}
		code |= int(bit)
		count := h.counts[length]
		if code-first < count {
			return h.symbols[index+(code-first)], nil
		}
		index += count
		first += count
		first <<= 1
		code <<= 1
	}
	return 0, ErrCorrupt
}

var fixedLiteralLengths = func() []int {
	l := make([]int, 288)
	for i := 0; i < 144; i++ {
		l[i] = 8
	}
	for i := 144; i < 256; i++ {
		l[i] = 9
	}
	for i := 256; i < 280; i++ {
		l[i] = 7
	}
	for i := 280; i < 288; i++ {
		l[i] = 8
	}
	return l
}()

var fixedDistanceLengths = func() []int {
	l := make([]int, 30)
	for i := range l {
		l[i] = 5
	}
	return l
}()

var fixedLiteralHuffman, _ = buildHuffman(fixedLiteralLengths)
var fixedDistanceHuffman, _ = buildHuffman(fixedDistanceLengths)

var codeLengthOrder = [19]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

var lengthBase = [29]int{3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31, 35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258}
var lengthExtraBits = [29]uint{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0}

var distanceBase = [30]int{1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193, 257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577}
var distanceExtraBits = [30]uint{0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13}

func (d *Decoder) readDynamicTables() (lit, dist *huffman, err error) {
	hlit, err := d.br.readBits(5)
	if err != nil {
		return nil, nil, err
	}
	hlit += 257
	hdist, err := d.br.readBits(5)
	if err != nil {
		return nil, nil, err
	}
	hdist += 1
	hclen, err := d.br.readBits(4)
	if err != nil {
		return nil, nil, err
	}
	hclen += 4

	var clLengths [19]int
	for i := uint32(0); i < hclen; i++ {
		v, err := d.br.readBits(3)
		if err != nil {
			return nil, nil, err
		}
		clLengths[codeLengthOrder[i]] = int(v)
	}
	clHuff, err := buildHuffman(clLengths[:])
	if err != nil {
		return nil, nil, err
	}

	total := int(hlit + hdist)
	lengths := make([]int, 0, total)
	for len(lengths) < total {
		sym, err := d.decodeSymbol(clHuff)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case sym < 16:
			lengths = append(lengths, sym)
		case sym == 16:
			if len(lengths) == 0 {
				return nil, nil, ErrCorrupt
			}
			rep, err := d.br.readBits(2)
			if err != nil {
				return nil, nil, err
			}
			prev := lengths[len(lengths)-1]
			for i := uint32(0); i < rep+3; i++ {
				lengths = append(lengths, prev)
			}
		case sym == 17:
			rep, err := d.br.readBits(3)
			if err != nil {
				return nil, nil, err
			}
			for i := uint32(0); i < rep+3; i++ {
				lengths = append(lengths, 0)
			}
		case sym == 18:
			rep, err := d.br.readBits(7)
			if err != nil {
				return nil, nil, err
			}
			for i := uint32(0); i < rep+11; i++ {
				lengths = append(lengths, 0)
			}
		default:
			return nil, nil, ErrCorrupt
		}
	}
	if len(lengths) != total {
		return nil, nil, ErrCorrupt
	}
	lit, err = buildHuffman(lengths[:hlit])
	if err != nil {
		return nil, nil, err
	}
	dist, err = buildHuffman(lengths[hlit:])
	if err != nil {
		return nil, nil, err
	}
	return lit, dist, nil
}
