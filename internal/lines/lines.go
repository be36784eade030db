// Package lines turns a stream of decompressed byte chunks into individual
// text lines, tracking each one's uncompressed offset and length.
package lines

// Line describes one line of decompressed text as it was found in the
// uncompressed stream. Data excludes the trailing newline; a final
// unterminated line is still reported once Finish is called, with
// Terminated false.
type Line struct {
	Number     int64
	Offset     int64
	Data       []byte
	Terminated bool
}

// Sink receives lines as the Finder discovers them.
type Sink interface {
	Line(l Line) error
}

// Finder detects line boundaries across a sequence of Write calls, the way a
// builder feeds it consecutive chunks of decoder output. Line numbers start
// at 1.
type Finder struct {
	sink   Sink
	number int64
	offset int64
	start  int64
	buf    []byte
}

func New(sink Sink) *Finder {
	return &Finder{sink: sink}
}

// Write scans chunk for newline bytes, emitting each completed line to the
// sink. Bytes belonging to a line still in progress are buffered until the
// next Write or Finish call.
func (f *Finder) Write(chunk []byte) error {
	for _, b := range chunk {
		if b == '\n' {
			if err := f.emit(true); err != nil {
				return err
			}
			f.offset++
			f.start = f.offset
			continue
		}
		f.buf = append(f.buf, b)
		f.offset++
	}
	return nil
}

// Finish flushes a trailing line that was never newline-terminated. It is a
// no-op if the stream ended exactly on a newline.
func (f *Finder) Finish() error {
	if len(f.buf) == 0 && f.start == f.offset {
		return nil
	}
	return f.emit(false)
}

// LineCount returns the number of lines emitted so far.
func (f *Finder) LineCount() int64 {
	return f.number
}

func (f *Finder) emit(terminated bool) error {
	f.number++
	data := f.buf
	f.buf = nil
	return f.sink.Line(Line{Number: f.number, Offset: f.start, Data: data, Terminated: terminated})
}
