package netman

import "github.com/sidekick64/sidekicknet/pkg/sktp"

// BufferKind indexes the arena.
type BufferKind int

const (
	BufScreen BufferKind = iota
	BufSession
	BufKeepAlive
	BufBinary
	BufFrame
	numBuffers
)

// FrameSize holds one 320x200 bitmap frame with colour data.
const FrameSize = 32000

var bufferSizes = [numBuffers]int{
	BufScreen:    sktp.MaxScreenResponse,
	BufSession:   64,
	BufKeepAlive: sktp.MaxScreenResponse,
	BufBinary:    sktp.MaxBinaryResponse,
	BufFrame:     FrameSize,
}

// Arena keeps one bounded buffer per request kind. Buffers are allocated
// lazily and cleared on every Acquire.
type Arena struct {
	bufs [numBuffers][]byte
}

// Acquire returns the zeroed buffer for k.
func (a *Arena) Acquire(k BufferKind) []byte {
	b := a.Peek(k)
	clear(b)
	return b
}

// Peek returns the buffer for k without clearing it.
func (a *Arena) Peek(k BufferKind) []byte {
	if a.bufs[k] == nil {
		a.bufs[k] = make([]byte, bufferSizes[k])
	}
	return a.bufs[k]
}
