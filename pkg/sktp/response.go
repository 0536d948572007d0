package sktp

import (
	"fmt"

	"github.com/sidekick64/sidekicknet/pkg/logger"
	"github.com/sidekick64/sidekicknet/pkg/remote"
)

const (
	// MaxScreenResponse is the size of the screen receive buffer.
	MaxScreenResponse = 4096
	// MaxBinaryResponse is the size of the binary download buffer.
	MaxBinaryResponse = 1025 * 1024
	// DefaultDrive prefixes local save paths.
	DefaultDrive = "SD:"
)

// Response tags.
const (
	TagClear   byte = 0
	TagScreen  byte = 1
	TagPointer byte = 2
)

// Kind is what a decoded response asks the renderer to do.
type Kind int

const (
	// KindUnchanged leaves the screen as it is (empty body).
	KindUnchanged Kind = iota
	// KindCleared clears the screen.
	KindCleared
	// KindScreen carries chunks, read through Response.Cursor.
	KindScreen
	// KindPointer announces a download; the screen is not touched.
	KindPointer
)

func (k Kind) String() string {
	switch k {
	case KindCleared:
		return "cleared"
	case KindScreen:
		return "screen"
	case KindPointer:
		return "pointer"
	default:
		return "unchanged"
	}
}

// TargetLookup resolves download hosts. *remote.Registry implements it.
type TargetLookup interface {
	Lookup(host string) (remote.Target, bool)
	Default() (remote.Target, bool)
}

// Response is a decoded SKTP response. It references the decoded buffer,
// which must not be reused while the response is in use.
type Response struct {
	Kind    Kind
	Tag     byte
	Length  int
	Pointer Pointer
	body    []byte
}

// Cursor returns a chunk cursor over the response body. Responses other
// than KindScreen yield no chunks.
func (r Response) Cursor() *Cursor {
	if r.Kind != KindScreen {
		return NewCursor(nil, 0)
	}
	return NewCursor(r.body, r.Length)
}

// Decoder turns raw responses into Response values.
type Decoder struct {
	Targets TargetLookup
	Variant Variant
	// Drive prefixes save paths. Empty means DefaultDrive.
	Drive string
	// MaxLength bounds the declared length. Zero means MaxScreenResponse.
	MaxLength int
	Log       logger.Logger
}

func (d *Decoder) drive() string {
	if d.Drive == "" {
		return DefaultDrive
	}
	return d.Drive
}

func (d *Decoder) log() logger.Logger {
	if d.Log == nil {
		return logger.NewNopLogger()
	}
	return d.Log
}

// Decode interprets the first n bytes of buf. Decoding is pure apart from
// the warning logged for an unknown download host.
func (d *Decoder) Decode(buf []byte, n int) (Response, error) {
	if n < 0 || n > len(buf) {
		return Response{}, fmt.Errorf("%w: %d > %d", ErrInvalidLength, n, len(buf))
	}
	max := d.MaxLength
	if max == 0 {
		max = MaxScreenResponse
	}
	if n > max {
		return Response{}, fmt.Errorf("%w: %d > %d", ErrResponseTooLarge, n, max)
	}
	if n == 0 {
		return Response{Kind: KindUnchanged}, nil
	}

	r := newReader(buf[:n])
	tag, _ := r.u8(fieldType)
	resp := Response{Tag: tag, Length: n, body: r.buf}
	switch tag {
	case TagClear:
		resp.Kind = KindCleared
	case TagPointer:
		p, err := d.decodePointer(r)
		if err != nil {
			return Response{}, err
		}
		resp.Kind = KindPointer
		resp.Pointer = p
	default:
		resp.Kind = KindScreen
	}
	return resp, nil
}
