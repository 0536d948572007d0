package netman

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sidekick64/sidekicknet/common"
	"github.com/sidekick64/sidekicknet/internal/storage"
	"github.com/sidekick64/sidekicknet/internal/timesync"
	"github.com/sidekick64/sidekicknet/pkg/logger"
	"github.com/sidekick64/sidekicknet/pkg/remote"
	"github.com/sidekick64/sidekicknet/pkg/sktp"
	"github.com/spf13/afero"
)

const testSessionID = "k3jf9a8s7d6f5g4h3j2k1l0zxcv"

var (
	errNotFound = errors.New("404 not found")
	errBoom     = errors.New("connection reset")
)

type fakeTransport struct {
	calls   []string
	targets []remote.Target
	serve   func(path string) ([]byte, error)
}

func (f *fakeTransport) Get(_ context.Context, t remote.Target, path string, buf []byte) (int, error) {
	f.calls = append(f.calls, path)
	f.targets = append(f.targets, t)
	if f.serve == nil {
		return 0, errNotFound
	}
	body, err := f.serve(path)
	if err != nil {
		return 0, err
	}
	if len(body) > len(buf) {
		return 0, errors.New("response too large")
	}
	return copy(buf, body), nil
}

func (f *fakeTransport) last() string {
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

type fakeLink struct {
	prepareErr error
	down       bool
	polls      int
}

func (l *fakeLink) Prepare(context.Context) error { return l.prepareErr }

func (l *fakeLink) Up(context.Context) (bool, error) {
	l.polls++
	return !l.down, nil
}

type fakeClock struct {
	fail   bool
	offset time.Duration
	calls  int
}

func (c *fakeClock) Sync(context.Context) (timesync.Result, error) {
	c.calls++
	if c.fail {
		return timesync.Result{}, errors.New("ntp timeout")
	}
	return timesync.Result{Offset: c.offset}, nil
}

type fakeWeb struct{ starts int }

func (w *fakeWeb) Start() error {
	w.starts++
	return nil
}

type testEnv struct {
	m      *Manager
	tr     *fakeTransport
	link   *fakeLink
	clock  *fakeClock
	web    *fakeWeb
	fs     afero.Fs
	cache  *storage.CacheTracker
	log    *logger.MockLogger
	events []common.StatusEvent
	now    time.Time
	sleeps int
	yields int
}

func newEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()
	cfg := DefaultConfig()
	cfg.SKTPHost = "sktp.example"
	if mutate != nil {
		mutate(&cfg)
	}
	e := &testEnv{
		tr:    &fakeTransport{},
		link:  &fakeLink{},
		clock: &fakeClock{},
		web:   &fakeWeb{},
		fs:    afero.NewMemMapFs(),
		cache: storage.NewCacheTracker(nil),
		log:   logger.NewMockLogger(),
		now:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	m, err := New(cfg, Options{
		Transport: e.tr,
		Link:      e.link,
		Clock:     e.clock,
		Web:       e.web,
		Drive:     storage.NewDrive(e.fs, sktp.DefaultDrive, nil),
		Cache:     e.cache,
		Events:    func(ev common.StatusEvent) { e.events = append(e.events, ev) },
		Log:       e.log,
		Now:       func() time.Time { return e.now },
		Sleep: func(context.Context, time.Duration) error {
			e.sleeps++
			return nil
		},
		Yield: func() { e.yields++ },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.m = m
	return e
}

func (e *testEnv) tick() { e.m.Tick(context.Background()) }

func (e *testEnv) connect(t *testing.T) {
	t.Helper()
	e.m.QueueNetworkInit()
	e.tick()
	e.tick()
	if !e.m.Active() {
		t.Fatal("expected the network to be up")
	}
}

func (e *testEnv) hasEvent(typ common.UpdateType) bool {
	for _, ev := range e.events {
		if ev.Type == typ {
			return true
		}
	}
	return false
}

// pointerResponse lays out a type 2 response.
func pointerResponse(url, name string, save bool) []byte {
	flag := byte(0)
	if save {
		flag = 1
	}
	buf := []byte{sktp.TagPointer, byte(len(url)), byte(len(name)), flag}
	buf = append(buf, url...)
	return append(buf, name...)
}

// screenResponse holds one literal chunk at the top left.
func screenResponse(text string) []byte {
	buf := []byte{sktp.TagScreen, byte(sktp.ChunkLiteral), byte(len(text)), 0, 0, 0x01}
	return append(buf, text...)
}
