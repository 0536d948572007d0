package download

import (
	"bytes"
	"context"
	"errors"
	"net/netip"
	"testing"

	"github.com/sidekick64/sidekicknet/common"
	"github.com/sidekick64/sidekicknet/internal/storage"
	"github.com/sidekick64/sidekicknet/pkg/c64fmt"
	"github.com/sidekick64/sidekicknet/pkg/remote"
	"github.com/sidekick64/sidekicknet/pkg/sktp"
	"github.com/spf13/afero"
)

type fakeFetcher struct {
	body  []byte
	err   error
	calls int
	path  string
}

func (f *fakeFetcher) Get(ctx context.Context, t remote.Target, path string, buf []byte) (int, error) {
	f.calls++
	f.path = path
	if f.err != nil {
		return 0, f.err
	}
	return copy(buf, f.body), nil
}

type failingWriter struct{ err error }

func (w failingWriter) WriteFile(string, []byte) error { return w.err }

func pointer(ext sktp.Extension, save bool) sktp.Pointer {
	name := "file." + string(ext)
	return sktp.Pointer{
		Source:        remote.NewTarget("csdb.dk", remote.HTTPSPort, netip.MustParseAddr("10.0.0.1")),
		HostName:      "csdb.dk",
		RemotePath:    "/dl/" + name,
		Filename:      name,
		Extension:     ext,
		SaveLocally:   save,
		LocalSavePath: sktp.SavePath("SD:", sktp.VariantC64, ext, name),
	}
}

func newLifecycle() *Lifecycle {
	return New(Options{}, make([]byte, sktp.MaxBinaryResponse))
}

func TestLifecycleWithoutSave(t *testing.T) {
	l := newLifecycle()
	f := &fakeFetcher{body: []byte{0x01, 0x08, 0x60}}

	if err := l.Stage(pointer(sktp.ExtPRG, false)); err != nil {
		t.Fatal(err)
	}
	if err := l.Fetch(context.Background(), f); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if l.State() != ReadyUnsaved || f.path != "/dl/file.prg" {
		t.Fatalf("unexpected state %s path %s", l.State(), f.path)
	}

	c, ok := l.Finish()
	if !ok || c.SaveQueued || c.Delay != 0 {
		t.Fatalf("unexpected completion %+v %v", c, ok)
	}
	if l.State() != ReadyForLaunch {
		t.Fatalf("expected ready for launch, got %s", l.State())
	}

	img, err := l.Launch()
	if err != nil {
		t.Fatal(err)
	}
	if img.Kind != LaunchProgram || !bytes.Equal(img.Data, f.body) {
		t.Errorf("unexpected image %+v", img)
	}
	if l.State() != Idle {
		t.Errorf("launch should return to idle, got %s", l.State())
	}
	if _, err := l.Launch(); !errors.Is(err, ErrNotReady) {
		t.Errorf("second launch: expected ErrNotReady, got %v", err)
	}
}

func TestLifecycleSaveDelays(t *testing.T) {
	cases := []struct {
		ext   sktp.Extension
		delay int
		msg   string
	}{
		{sktp.ExtCRT, 15, "     Saving and launching CRT file      "},
		{sktp.ExtPRG, 5, "     Saving and launching PRG file      "},
		{sktp.ExtSID, 5, "     Saving and launching SID file      "},
		{sktp.ExtD64, 5, "       Saving D64 file to SD card       "},
	}
	for _, tc := range cases {
		l := newLifecycle()
		_ = l.Stage(pointer(tc.ext, true))
		if err := l.Fetch(context.Background(), &fakeFetcher{body: []byte{1}}); err != nil {
			t.Fatal(err)
		}
		c, ok := l.Finish()
		if !ok || !c.SaveQueued {
			t.Fatalf("%s: save not queued", tc.ext)
		}
		if c.Delay != tc.delay {
			t.Errorf("%s: expected delay %d, got %d", tc.ext, tc.delay, c.Delay)
		}
		if c.Message != tc.msg || len(c.Message) != common.TextColumns {
			t.Errorf("%s: unexpected message %q", tc.ext, c.Message)
		}
		if l.State() != Saving {
			t.Errorf("%s: expected saving, got %s", tc.ext, l.State())
		}
	}
}

func TestLifecycleSave(t *testing.T) {
	fs := afero.NewMemMapFs()
	drive := storage.NewDrive(fs, "SD:", nil)
	cache := storage.NewCacheTracker(nil)
	l := newLifecycle()
	payload := []byte("C64 CARTRIDGE   payload")

	_ = l.Stage(pointer(sktp.ExtCRT, true))
	_ = l.Fetch(context.Background(), &fakeFetcher{body: payload})
	l.Finish()

	if err := l.Save(drive, cache); err != nil {
		t.Fatalf("Save: %v", err)
	}
	written, err := afero.ReadFile(fs, "/CART264/file.crt")
	if err != nil || !bytes.Equal(written, payload) {
		t.Errorf("payload not written: %v", err)
	}
	if entered, left := cache.Counts(); entered != 1 || left != 1 {
		t.Errorf("cache scope not bracketed: %d/%d", entered, left)
	}
	img, ok := l.Image()
	if !ok || img.Kind != LaunchCartridge {
		t.Errorf("expected cartridge ready, got %+v", img)
	}
}

func TestLifecycleSaveFailureKeepsPayload(t *testing.T) {
	cache := storage.NewCacheTracker(nil)
	l := newLifecycle()
	_ = l.Stage(pointer(sktp.ExtPRG, true))
	_ = l.Fetch(context.Background(), &fakeFetcher{body: []byte{1, 2, 3}})
	l.Finish()

	boom := common.NewNetError(common.KindPersistence, "write", errors.New("card full"))
	if err := l.Save(failingWriter{boom}, cache); !common.IsKind(err, common.KindPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if l.State() != Saving || len(l.Payload()) != 3 {
		t.Errorf("failed save lost state: %s, %d bytes", l.State(), len(l.Payload()))
	}
	if cache.Depth() != 0 {
		t.Error("cache scope left open after a failed write")
	}
}

func TestLifecycleFetchFailure(t *testing.T) {
	l := newLifecycle()
	_ = l.Stage(pointer(sktp.ExtPRG, true))
	err := l.Fetch(context.Background(), &fakeFetcher{err: common.NewTransportError("get", 443, errors.New("tls"))})
	var ne *common.NetError
	if !errors.As(err, &ne) || !ne.Secure {
		t.Fatalf("expected secure transport error, got %v", err)
	}
	if l.State() != Idle || l.Staged() {
		t.Errorf("failed fetch should return to idle without a pointer")
	}
	if err := l.Fetch(context.Background(), &fakeFetcher{}); !errors.Is(err, ErrNothingStaged) {
		t.Errorf("expected ErrNothingStaged, got %v", err)
	}
}

func TestLifecycleStageWhileBusy(t *testing.T) {
	l := newLifecycle()
	_ = l.Stage(pointer(sktp.ExtPRG, true))
	_ = l.Fetch(context.Background(), &fakeFetcher{body: []byte{1}})
	if err := l.Stage(pointer(sktp.ExtSID, false)); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
	if err := l.Save(nil, nil); !errors.Is(err, ErrNotSaving) {
		t.Errorf("expected ErrNotSaving, got %v", err)
	}
}

func TestNormalizeDiskImage(t *testing.T) {
	disk := make([]byte, 174848)
	for _, variant := range []sktp.Variant{sktp.VariantC64, sktp.Variant264} {
		l := New(Options{Variant: variant}, make([]byte, sktp.MaxBinaryResponse))
		_ = l.Stage(pointer(sktp.ExtD64, false))
		_ = l.Fetch(context.Background(), &fakeFetcher{body: disk})
		l.Finish()

		img, ok := l.Image()
		if !ok {
			t.Fatalf("%s: not ready", variant)
		}
		if variant == sktp.Variant264 {
			if img.Kind != LaunchNone || len(img.Data) != len(disk) {
				t.Errorf("264 d64 should be save-only raw data, got kind %d", img.Kind)
			}
			continue
		}
		if img.Kind != LaunchCartridge || img.Name != "file.crt" {
			t.Errorf("unexpected c64 image %d %q", img.Kind, img.Name)
		}
		info, err := c64fmt.InspectCartridge(img.Data)
		if err != nil || info.Hardware != c64fmt.HardwareEasyFlash {
			t.Errorf("disk not wrapped into easyflash: %v", err)
		}
	}
}

func TestNormalizeBrokenSID(t *testing.T) {
	l := newLifecycle()
	_ = l.Stage(pointer(sktp.ExtSID, false))
	_ = l.Fetch(context.Background(), &fakeFetcher{body: []byte("not a sid")})
	l.Finish()

	img, ok := l.Image()
	if !ok || img.Kind != LaunchNone {
		t.Errorf("broken sid should become save-only, got %+v", img)
	}
}

func TestPrepareUpload(t *testing.T) {
	l := newLifecycle()
	if err := l.PrepareUpload(sktp.ExtPRG, []byte{1, 8, 0x60}); err != nil {
		t.Fatal(err)
	}
	img, ok := l.Image()
	if !ok || img.Name != UploadFilename || img.Kind != LaunchProgram {
		t.Errorf("unexpected upload image %+v", img)
	}

	small := New(Options{}, make([]byte, 2))
	if err := small.PrepareUpload(sktp.ExtPRG, []byte{1, 2, 3}); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestCleanup(t *testing.T) {
	l := newLifecycle()
	_ = l.Stage(pointer(sktp.ExtPRG, true))
	_ = l.Fetch(context.Background(), &fakeFetcher{body: []byte{1, 2}})
	l.Cleanup()
	if l.State() != Idle || l.Pointer().Filename != "" || len(l.Payload()) != 0 {
		t.Error("cleanup left state behind")
	}
}
