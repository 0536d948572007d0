package sktp

import "fmt"

// field is one single-byte header field at a fixed offset.
type field struct {
	name string
	off  int
}

// Response header.
var fieldType = field{"type", 0}

// Download pointer header. The URL starts right after the save flag and
// the file name follows the URL.
var (
	fieldURLLength      = field{"url_length", 1}
	fieldFilenameLength = field{"filename_length", 2}
	fieldSaveFlag       = field{"save_flag", 3}
	// "http:" or "https" puts ':' or 's' at this offset.
	fieldSchemeMarker = field{"scheme_marker", 8}
)

const (
	pointerURLOffset = 4
	httpSchemeEnd    = pointerURLOffset + len("http://")
	httpsSchemeEnd   = pointerURLOffset + len("https://")
	extensionLength  = 3
)

// Screen chunk header, relative to the chunk start.
var (
	fieldChunkKind    = field{"chunk_kind", 0}
	fieldChunkLength  = field{"chunk_length", 1}
	fieldPositionLow  = field{"position_low", 2}
	fieldPositionHigh = field{"position_high", 3}
	fieldAttributes   = field{"attributes", 4}
)

const (
	chunkHeaderLength = 5
	colorMask         = 0x0f
	inverseShift      = 7
	// Start positions are packed base 255, not 256.
	positionBase = 255
)

// reader is a bounds-checked view over the declared part of a response,
// positioned at base.
type reader struct {
	buf  []byte
	base int
}

func newReader(buf []byte) reader {
	return reader{buf: buf}
}

// at returns a reader whose field offsets are relative to base.
func (r reader) at(base int) reader {
	return reader{buf: r.buf, base: base}
}

func (r reader) u8(f field) (byte, error) {
	off := r.base + f.off
	if off < 0 || off >= len(r.buf) {
		return 0, fmt.Errorf("%w: %s at offset %d (length %d)", ErrTruncated, f.name, off, len(r.buf))
	}
	return r.buf[off], nil
}

// span returns n bytes starting at base+off without copying.
func (r reader) span(name string, off, n int) ([]byte, error) {
	start := r.base + off
	end := start + n
	if start < 0 || n < 0 || end > len(r.buf) {
		return nil, fmt.Errorf("%w: %s needs bytes %d..%d (length %d)", ErrTruncated, name, start, end, len(r.buf))
	}
	return r.buf[start:end], nil
}

// indexAny returns the first index in [from, to) holding one of the delimiters, or to.
func (r reader) indexAny(from, to int, delims ...byte) int {
	for i := from; i < to; i++ {
		for _, d := range delims {
			if r.buf[i] == d {
				return i
			}
		}
	}
	return to
}
