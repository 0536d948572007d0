// Package download tracks a binary payload from the moment a download
// pointer is decoded until the image is launched.
//
//	Idle -> Fetching -> ReadyUnsaved -> [Saving] -> ReadyForLaunch -> Idle
//
// A failed fetch returns to Idle. A failed save stays in Saving with the
// payload kept, so the save can be retried.
package download

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sidekick64/sidekicknet/internal/storage"
	"github.com/sidekick64/sidekicknet/pkg/c64fmt"
	"github.com/sidekick64/sidekicknet/pkg/logger"
	"github.com/sidekick64/sidekicknet/pkg/remote"
	"github.com/sidekick64/sidekicknet/pkg/sktp"
)

// State is the lifecycle state.
type State int

const (
	Idle State = iota
	Fetching
	ReadyUnsaved
	Saving
	ReadyForLaunch
)

func (s State) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case ReadyUnsaved:
		return "ready-unsaved"
	case Saving:
		return "saving"
	case ReadyForLaunch:
		return "ready-for-launch"
	default:
		return "idle"
	}
}

// LaunchKind tells the launcher how to start an image. The values are the
// launch codes of the cartridge menu.
type LaunchKind uint8

const (
	// LaunchNone marks save-only images.
	LaunchNone      LaunchKind = 0
	LaunchCartridge LaunchKind = 11
	LaunchProgram   LaunchKind = 40
	// LaunchTune is a program converted from a SID file.
	LaunchTune LaunchKind = 41
)

// UploadFilename names uploaded payloads.
const UploadFilename = "http_upload"

const (
	DefaultSaveDelay          = 5
	DefaultCartridgeSaveDelay = 15
)

var (
	ErrBusy          = errors.New("download: lifecycle busy")
	ErrNothingStaged = errors.New("download: no download pointer staged")
	ErrNotSaving     = errors.New("download: no save pending")
	ErrNotReady      = errors.New("download: nothing ready for launch")
	ErrTooLarge      = errors.New("download: payload larger than buffer")
)

// Fetcher performs the GET of a download.
type Fetcher interface {
	Get(ctx context.Context, t remote.Target, path string, buf []byte) (int, error)
}

// Writer persists a saved download.
type Writer interface {
	WriteFile(path string, data []byte) error
}

// Options configures a Lifecycle.
type Options struct {
	Variant sktp.Variant
	// SaveDelay and CartridgeSaveDelay are the queue delays in ticks set
	// when a save is queued. Zero means the defaults.
	SaveDelay          int
	CartridgeSaveDelay int
	// Boot is the EasyFlash boot bank used when wrapping disk images.
	Boot []byte
	Log  logger.Logger
}

// Completion describes a finished fetch.
type Completion struct {
	// SaveQueued is set when the payload must be saved before launch.
	SaveQueued bool
	// Delay is the queue delay to apply, in ticks.
	Delay int
	// Message is the fixed-width status line to show while saving.
	Message string
}

// Image is a normalized, launchable payload.
type Image struct {
	Kind      LaunchKind
	Name      string
	Extension sktp.Extension
	Data      []byte
}

// Lifecycle owns the binary download buffer.
type Lifecycle struct {
	opts   Options
	log    logger.Logger
	state  State
	ptr    sktp.Pointer
	staged bool
	buf    []byte
	size   int
	image  Image
}

// New creates a lifecycle that fetches into buf.
func New(opts Options, buf []byte) *Lifecycle {
	if opts.SaveDelay == 0 {
		opts.SaveDelay = DefaultSaveDelay
	}
	if opts.CartridgeSaveDelay == 0 {
		opts.CartridgeSaveDelay = DefaultCartridgeSaveDelay
	}
	l := opts.Log
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Lifecycle{opts: opts, log: l, buf: buf}
}

func (l *Lifecycle) State() State { return l.state }

// Pointer returns the staged download pointer.
func (l *Lifecycle) Pointer() sktp.Pointer { return l.ptr }

// Staged reports whether a pointer waits to be fetched.
func (l *Lifecycle) Staged() bool { return l.staged }

// Payload returns the fetched bytes. It aliases the download buffer.
func (l *Lifecycle) Payload() []byte { return l.buf[:l.size] }

// Stage records the pointer the next Fetch downloads.
func (l *Lifecycle) Stage(p sktp.Pointer) error {
	if l.state != Idle {
		return fmt.Errorf("%w: %s", ErrBusy, l.state)
	}
	l.ptr = p
	l.staged = true
	return nil
}

// Fetch downloads the staged pointer. On failure the lifecycle returns to
// Idle and the pointer is dropped.
func (l *Lifecycle) Fetch(ctx context.Context, f Fetcher) error {
	if l.state != Idle || !l.staged {
		return ErrNothingStaged
	}
	l.state = Fetching
	l.staged = false
	clear(l.buf[:l.size])
	l.size = 0

	n, err := f.Get(ctx, l.ptr.Source, l.ptr.RemotePath, l.buf)
	if err != nil {
		l.log.Error("download of %s failed: %v", l.ptr.URL(), err)
		l.state = Idle
		return err
	}
	l.size = n
	l.state = ReadyUnsaved
	l.log.Info("downloaded %s (%s)", l.ptr.Filename, humanize.Bytes(uint64(n)))
	return nil
}

var saveMessages = map[sktp.Extension]string{
	sktp.ExtD64: "       Saving D64 file to SD card       ",
	sktp.ExtPRG: "     Saving and launching PRG file      ",
	sktp.ExtSID: "     Saving and launching SID file      ",
	sktp.ExtCRT: "     Saving and launching CRT file      ",
}

// SaveMessage returns the status line shown while saving ext.
func SaveMessage(ext sktp.Extension) string {
	return saveMessages[ext]
}

// Finish moves a fetched payload on: into Saving when the pointer asked
// for a save, otherwise straight to ReadyForLaunch. ok is false when no
// fetch had completed.
func (l *Lifecycle) Finish() (c Completion, ok bool) {
	if l.state != ReadyUnsaved {
		return Completion{}, false
	}
	if !l.ptr.SaveLocally {
		l.normalize()
		return Completion{}, true
	}
	l.state = Saving
	c = Completion{SaveQueued: true, Delay: l.opts.SaveDelay, Message: SaveMessage(l.ptr.Extension)}
	if l.ptr.Extension == sktp.ExtCRT {
		c.Delay = l.opts.CartridgeSaveDelay
	}
	l.log.Debug("download %s ready, saving to %s", l.ptr.Filename, l.ptr.LocalSavePath)
	return c, true
}

// Save writes the raw payload inside the cache scope. On failure the
// lifecycle stays in Saving with the payload kept.
func (l *Lifecycle) Save(w Writer, cache storage.CacheScope) error {
	if l.state != Saving {
		return ErrNotSaving
	}
	l.log.Info("writing %s to %s", humanize.Bytes(uint64(l.size)), l.ptr.LocalSavePath)
	err := storage.Bracket(cache, func() error {
		return w.WriteFile(l.ptr.LocalSavePath, l.Payload())
	})
	if err != nil {
		l.log.Error("saving %s failed: %v", l.ptr.LocalSavePath, err)
		return err
	}
	l.normalize()
	return nil
}

// normalize builds the launch image and enters ReadyForLaunch. A payload
// that cannot be converted becomes a save-only image.
func (l *Lifecycle) normalize() {
	img := Image{Name: l.ptr.Filename, Extension: l.ptr.Extension, Data: l.Payload()}
	c64 := l.opts.Variant == sktp.VariantC64
	var err error

	switch l.ptr.Extension {
	case sktp.ExtCRT:
		img.Kind = LaunchCartridge
	case sktp.ExtPRG:
		img.Kind = LaunchProgram
	case sktp.ExtD64:
		if c64 {
			name := strings.TrimSuffix(l.ptr.Filename, "."+string(sktp.ExtD64))
			img.Data, err = c64fmt.WrapDiskImage(l.Payload(), c64fmt.CartridgeOptions{Name: name, Boot: l.opts.Boot})
			img.Kind = LaunchCartridge
			img.Name = name + "." + string(sktp.ExtCRT)
		}
	case sktp.ExtSID:
		if c64 {
			img.Data, err = c64fmt.ConvertSID(l.Payload())
			img.Kind = LaunchTune
		}
	}
	if err != nil {
		l.log.Warning("cannot prepare %s for launch: %v", l.ptr.Filename, err)
		img = Image{Kind: LaunchNone, Name: l.ptr.Filename, Extension: l.ptr.Extension, Data: l.Payload()}
	}
	l.image = img
	l.state = ReadyForLaunch
}

// Ready reports whether an image waits for launch.
func (l *Lifecycle) Ready() bool { return l.state == ReadyForLaunch }

// Image returns the launch image without consuming it.
func (l *Lifecycle) Image() (Image, bool) {
	return l.image, l.state == ReadyForLaunch
}

// Launch hands the image to the launcher and returns to Idle. The image
// data stays valid until the next Fetch or upload.
func (l *Lifecycle) Launch() (Image, error) {
	if l.state != ReadyForLaunch {
		return Image{}, ErrNotReady
	}
	img := l.image
	l.reset()
	return img, nil
}

// Cleanup drops all download state.
func (l *Lifecycle) Cleanup() {
	l.reset()
	clear(l.buf[:l.size])
	l.size = 0
}

func (l *Lifecycle) reset() {
	l.ptr = sktp.Pointer{}
	l.staged = false
	l.image = Image{}
	l.state = Idle
}

// PrepareUpload makes an uploaded payload ready for launch.
func (l *Lifecycle) PrepareUpload(ext sktp.Extension, data []byte) error {
	if l.state == Fetching || l.state == Saving {
		return fmt.Errorf("%w: %s", ErrBusy, l.state)
	}
	if len(data) > len(l.buf) {
		return fmt.Errorf("%w: %s", ErrTooLarge, humanize.Bytes(uint64(len(data))))
	}
	clear(l.buf[:l.size])
	l.size = copy(l.buf, data)
	l.ptr = sktp.Pointer{Filename: UploadFilename, Extension: ext}
	l.staged = false
	l.normalize()
	return nil
}
