package sktp

import (
	"bytes"
	"fmt"
)

// ChunkKind tells how a chunk's payload maps to screen cells.
type ChunkKind byte

const (
	// ChunkLiteral carries one byte per cell.
	ChunkLiteral ChunkKind = 0
	// ChunkRunLength repeats a single byte over every cell.
	ChunkRunLength ChunkKind = 1
)

// MaxChunkLength is the largest cell count one chunk can cover.
const MaxChunkLength = 255

// Chunk is one run of cells written to the screen.
type Chunk struct {
	Kind    ChunkKind
	Length  int
	Start   int
	Color   uint8
	Inverse bool
	// Text holds Length screen codes. It aliases cursor or response
	// memory and is only valid until the next call to Next.
	Text []byte
}

// Cell converts Start to a row and column on a screen cols wide.
func (c Chunk) Cell(cols int) (row, col int) {
	return c.Start / cols, c.Start % cols
}

// Cursor walks the chunks of a screen response. Position 0 holds the
// response tag, so chunks start at 1.
type Cursor struct {
	r      reader
	length int
	pos    int
	fill   [MaxChunkLength]byte
}

// NewCursor creates a cursor over the first length bytes of buf.
func NewCursor(buf []byte, length int) *Cursor {
	if length > len(buf) {
		length = len(buf)
	}
	if length < 0 {
		length = 0
	}
	return &Cursor{r: newReader(buf[:length]), length: length, pos: 1}
}

// Position returns the offset of the next chunk header.
func (c *Cursor) Position() int { return c.pos }

// Len returns the declared response length.
func (c *Cursor) Len() int { return c.length }

// Reset rewinds to the first chunk.
func (c *Cursor) Reset() { c.pos = 1 }

// Next returns the next chunk. At the end of the response it rewinds the
// cursor and reports ok == false. A malformed chunk returns an error and
// moves the cursor to the end, so the following call terminates.
func (c *Cursor) Next() (chunk Chunk, ok bool, err error) {
	if c.pos >= c.length {
		c.pos = 1
		return Chunk{}, false, nil
	}
	chunk, size, err := c.decode(c.r.at(c.pos))
	if err != nil {
		c.pos = c.length
		return Chunk{}, false, err
	}
	c.pos += size
	return chunk, true, nil
}

func (c *Cursor) decode(h reader) (Chunk, int, error) {
	var hdr [chunkHeaderLength]byte
	for i, f := range []field{fieldChunkKind, fieldChunkLength, fieldPositionLow, fieldPositionHigh, fieldAttributes} {
		b, err := h.u8(f)
		if err != nil {
			return Chunk{}, 0, err
		}
		hdr[i] = b
	}
	chunk := Chunk{
		Kind:    ChunkKind(hdr[0]),
		Length:  int(hdr[1]),
		Start:   int(hdr[3])*positionBase + int(hdr[2]),
		Color:   hdr[4] & colorMask,
		Inverse: hdr[4]>>inverseShift == 1,
	}

	switch chunk.Kind {
	case ChunkLiteral:
		text, err := h.span("literal", chunkHeaderLength, chunk.Length)
		if err != nil {
			return Chunk{}, 0, err
		}
		chunk.Text = text
		return chunk, chunkHeaderLength + chunk.Length, nil
	case ChunkRunLength:
		b, err := h.span("fill", chunkHeaderLength, 1)
		if err != nil {
			return Chunk{}, 0, err
		}
		for i := 0; i < chunk.Length; i++ {
			c.fill[i] = b[0]
		}
		chunk.Text = c.fill[:chunk.Length]
		return chunk, chunkHeaderLength + 1, nil
	}
	return Chunk{}, 0, fmt.Errorf("%w: %d at offset %d", ErrUnknownChunk, chunk.Kind, h.base)
}

// All drains the cursor from its current position and returns copies of
// the chunks. The cursor is rewound afterwards.
func (c *Cursor) All() ([]Chunk, error) {
	var out []Chunk
	for {
		chunk, ok, err := c.Next()
		if err != nil {
			c.Reset()
			return out, err
		}
		if !ok {
			return out, nil
		}
		chunk.Text = bytes.Clone(chunk.Text)
		out = append(out, chunk)
	}
}
