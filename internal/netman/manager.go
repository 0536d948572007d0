// Package netman is the network core of the cartridge: a queue of network
// actions driven by a cooperative tick, connection bring-up, keep-alive,
// the SKTP screen session and the download lifecycle.
//
// A Manager is owned by one goroutine. Only Submit may be called from
// others; uploads handed to it are picked up at the next yield point.
package netman

import (
	"context"
	"errors"
	"net/netip"
	"runtime"
	"time"

	"github.com/sidekick64/sidekicknet/common"
	"github.com/sidekick64/sidekicknet/internal/download"
	"github.com/sidekick64/sidekicknet/internal/scheduler"
	"github.com/sidekick64/sidekicknet/internal/storage"
	"github.com/sidekick64/sidekicknet/internal/timesync"
	"github.com/sidekick64/sidekicknet/pkg/logger"
	"github.com/sidekick64/sidekicknet/pkg/remote"
	"github.com/sidekick64/sidekicknet/pkg/sktp"
)

var (
	ErrNoTransport  = errors.New("netman: transport is required")
	ErrNoLink       = errors.New("netman: link is required")
	ErrNotConnected = errors.New("netman: not connected")
	ErrNoServer     = errors.New("netman: no SKTP server configured")
	ErrNoDrive      = errors.New("netman: no drive to save to")
	ErrNoClock      = errors.New("netman: no time source")
	ErrMailboxFull  = errors.New("netman: an upload is already pending")
)

const (
	timerKeepAlive = "keepalive"
	timerResync    = "timesync"
)

// Transport performs a single GET against a target.
type Transport interface {
	Get(ctx context.Context, t remote.Target, path string, buf []byte) (int, error)
}

// Resolver looks up host addresses, retrying internally.
type Resolver interface {
	Resolve(ctx context.Context, host string) (netip.Addr, error)
}

// Link brings the network device up and reports the link state.
type Link interface {
	Prepare(ctx context.Context) error
	Up(ctx context.Context) (bool, error)
}

// TimeSource synchronizes the clock.
type TimeSource interface {
	Sync(ctx context.Context) (timesync.Result, error)
}

// WebServer is the background upload server. Start must not block.
type WebServer interface {
	Start() error
}

// Options carries the collaborators of a Manager. Transport and Link are
// required.
type Options struct {
	Transport Transport
	Resolver  Resolver
	Link      Link
	Clock     TimeSource
	Drive     download.Writer
	Cache     storage.CacheScope
	Web       WebServer
	// Boot is the EasyFlash boot bank for wrapped disk images.
	Boot []byte
	// Events receives status changes. It is called on the tick goroutine.
	Events func(common.StatusEvent)
	Log    logger.Logger

	// Now, Sleep and Yield replace the wall clock, the link poll sleep and
	// the cooperative yield.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
	Yield func()
}

// Manager is the owned network-management context.
type Manager struct {
	cfg       Config
	log       logger.Logger
	transport Transport
	resolver  Resolver
	link      Link
	clock     TimeSource
	drive     download.Writer
	cache     storage.CacheScope
	web       WebServer
	events    func(common.StatusEvent)
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
	yieldFn   func()

	queue   Queue
	arena   Arena
	timers  *scheduler.Timers
	targets *remote.Registry
	server  remote.Target
	decoder sktp.Decoder
	session sktp.Session
	dl      *download.Lifecycle
	uploads chan Upload

	prepared   bool
	active     bool
	webStarted bool

	screenActive bool
	screen       sktp.Response
	cursor       *sktp.Cursor
	notice       string
	refreshSkips int

	frameCounter int
	frameLen     int

	errMsg     string
	errSticky  bool
	menuUpdate bool
	statusMsg  string

	rebootRequested bool
	returnToMenu    bool
	rebootStart     time.Time
	rebootLeft      int
	kernel          string

	started     time.Time
	heapFree    uint64
	cpuTemp     uint
	clockOffset time.Duration
	synced      bool
}

// New creates a disconnected Manager.
func New(cfg Config, opts Options) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Transport == nil {
		return nil, ErrNoTransport
	}
	if opts.Link == nil {
		return nil, ErrNoLink
	}
	m := &Manager{
		cfg:       cfg,
		log:       opts.Log,
		transport: opts.Transport,
		resolver:  opts.Resolver,
		link:      opts.Link,
		clock:     opts.Clock,
		drive:     opts.Drive,
		cache:     opts.Cache,
		web:       opts.Web,
		events:    opts.Events,
		now:       opts.Now,
		sleep:     opts.Sleep,
		yieldFn:   opts.Yield,
		timers:    scheduler.New(),
		targets:   remote.NewRegistry(),
		uploads:   make(chan Upload, 1),
		cursor:    sktp.NewCursor(nil, 0),
	}
	m.rebootLeft = -1
	if m.log == nil {
		m.log = logger.NewNopLogger()
	}
	if m.cache == nil {
		m.cache = storage.NewCacheTracker(m.log)
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.sleep == nil {
		m.sleep = sleepContext
	}
	if m.yieldFn == nil {
		m.yieldFn = runtime.Gosched
	}
	m.decoder = sktp.Decoder{
		Targets: m.targets,
		Variant: cfg.Variant,
		Drive:   cfg.Drive,
		Log:     m.log,
	}
	m.dl = download.New(download.Options{
		Variant:            cfg.Variant,
		SaveDelay:          cfg.SaveDelay,
		CartridgeSaveDelay: cfg.CartridgeSaveDelay,
		Boot:               opts.Boot,
		Log:                m.log,
	}, m.arena.Peek(BufBinary))
	m.started = m.now()
	return m, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() Config { return m.cfg }

// Active reports whether the network is up.
func (m *Manager) Active() bool { return m.active }

// Targets returns the registry of resolved remote targets.
func (m *Manager) Targets() *remote.Registry { return m.targets }

// Server returns the SKTP server target, zero when none is configured.
func (m *Manager) Server() remote.Target { return m.server }

// Queue exposes the action queue for inspection.
func (m *Manager) Queue() *Queue { return &m.queue }

// Tick runs one scheduler pass. It dispatches at most one network action
// and blocks for at most one outstanding request.
func (m *Manager) Tick(ctx context.Context) {
	m.keepAlive(ctx)

	if m.queue.hold() {
		return
	}
	if !m.active {
		if m.queue.Take(ActionInit) {
			if m.Connect(ctx) {
				m.syncTimeWithRetry(ctx)
			}
		}
		return
	}
	if m.queue.Take(ActionInit) {
		m.log.Debug("init queued while connected, dropping it")
	}

	m.yield()
	a, ok := m.queue.Next()
	if !ok {
		return
	}
	m.log.Debug("dispatching %s action", a.Kind)
	switch a.Kind {
	case ActionDownload:
		m.fetchDownload(ctx)
	case ActionKeypress:
		m.updateScreen(ctx, a.Key)
	case ActionFrame:
		m.updateFrame(ctx)
	}
}

// yield lets background work run: pending uploads are taken over and the
// goroutine yields.
func (m *Manager) yield() {
	m.drainUploads()
	m.yieldFn()
}

// QueueNetworkInit asks the next tick to bring the network up.
func (m *Manager) QueueNetworkInit() {
	m.queue.Push(Action{Kind: ActionInit})
	m.setStatus(MsgConnecting)
	m.queue.SetDelay(1)
}

// QueueFrame asks for the next video frame.
func (m *Manager) QueueFrame() {
	m.queue.Push(Action{Kind: ActionFrame})
	m.queue.SetDelay(0)
}

// QueueKeypress sends key to the SKTP server on a later tick. The delay is
// only reset when nothing else is waiting.
func (m *Manager) QueueKeypress(key byte) {
	if !m.queue.Any() {
		m.queue.SetDelay(0)
	}
	m.queue.Push(Action{Kind: ActionKeypress, Key: key})
}

// QueueRefresh polls the SKTP server for screen updates. It is called
// once per frame; a refresh is queued after timeout skipped calls when
// the queue is idle, or at once for timeout zero.
func (m *Manager) QueueRefresh(timeout int) {
	m.refreshSkips++
	if timeout == 0 || (m.refreshSkips > timeout && !m.queue.Any()) {
		m.refreshSkips = 0
		m.QueueKeypress(sktp.KeyRefresh)
	}
}

// AnyQueued reports whether any network action waits.
func (m *Manager) AnyQueued() bool { return m.queue.Any() }

// Connect brings the network up, resolves the remote targets and starts
// the keep-alive timer. It returns true when already connected.
func (m *Manager) Connect(ctx context.Context) bool {
	if m.active {
		m.log.Warning("network already connected")
		return true
	}
	if !m.prepared {
		if err := m.link.Prepare(ctx); err != nil {
			m.log.Error("network device setup failed: %v", err)
			if m.cfg.WLAN {
				m.setError(MsgNoWLAN, true)
			} else {
				m.setError(MsgDeviceFailed, true)
			}
			return false
		}
		m.prepared = true
	}

	if !m.waitForLink(ctx) {
		if m.cfg.WLAN {
			m.log.Error("wireless link did not come up")
			m.setError(MsgWLANFailed, true)
		} else {
			m.log.Error("no network link, cable unplugged?")
			if !m.cfg.ConnectOnBoot {
				m.setError(MsgCableCheck, true)
			}
		}
		return false
	}
	m.active = true

	unresolved := false
	resolve := func(host string, port uint16) remote.Target {
		t, err := m.resolveTarget(ctx, host, port)
		if err != nil {
			unresolved = true
		}
		return t
	}
	if m.cfg.DownloadHost != "" {
		dl := resolve(m.cfg.DownloadHost, m.cfg.DownloadPort)
		m.targets.Put(dl)
		m.targets.SetDefault(dl.HostName)
	}
	m.server = remote.Target{}
	if m.cfg.SKTPHost != "" {
		m.server = resolve(m.cfg.SKTPHost, m.cfg.sktpPort())
		m.targets.Put(m.server)
	}
	if unresolved {
		m.setError(MsgResolveFailed, false)
	}

	now := m.now()
	interval := m.cfg.keepAliveInterval()
	if interval > 0 {
		_ = m.timers.Add(scheduler.ScheduleEvent{Name: timerKeepAlive, TriggerAt: now.Add(interval), Every: interval})
	}
	if m.cfg.TimeSyncCron != "" {
		if err := m.timers.AddCron(timerResync, m.cfg.TimeSyncCron, now); err != nil {
			m.log.Warning("clock resync disabled: %v", err)
		}
	}
	if m.cfg.WebserverEnabled {
		m.startWebserver()
	}

	m.menuUpdate = true
	m.ClearErrorMessage()
	m.log.Info("network up, %d remote targets", m.targets.Len())
	m.publish(common.StatusEvent{Type: common.UPDATE_CONNECTED, Message: m.cfg.Hostname})
	return true
}

func (m *Manager) waitForLink(ctx context.Context) bool {
	limit := m.cfg.pollCeiling()
	for i := 0; i < limit; i++ {
		up, err := m.link.Up(ctx)
		if err != nil {
			m.log.Debug("link poll: %v", err)
		}
		if up {
			return true
		}
		m.yieldFn()
		if err := m.sleep(ctx, m.cfg.PollQuantum); err != nil {
			return false
		}
	}
	return false
}

func (m *Manager) resolveTarget(ctx context.Context, host string, port uint16) (remote.Target, error) {
	if m.resolver == nil {
		return remote.NewTarget(host, port, netip.Addr{}), nil
	}
	addr, err := m.resolver.Resolve(ctx, host)
	if err != nil {
		m.log.Warning("cannot resolve %s: %v", host, err)
		return remote.NewTarget(host, port, netip.Addr{}), err
	}
	t := remote.NewTarget(host, port, addr)
	m.log.Info("%s resolved to %s", t.Label, addr)
	return t, nil
}

// Disconnect marks the network down and forgets the SKTP session.
func (m *Manager) Disconnect() {
	if !m.active {
		return
	}
	m.active = false
	m.session.Reset()
	m.timers.Remove(timerKeepAlive)
	m.timers.Remove(timerResync)
	m.menuUpdate = true
	m.log.Info("network down")
}

func (m *Manager) startWebserver() {
	if m.web == nil || m.webStarted {
		return
	}
	if err := m.web.Start(); err != nil {
		m.log.Error("webserver did not start: %v", err)
		return
	}
	m.webStarted = true
	m.log.Info("webserver started on port %d", m.cfg.WebserverPort)
}

// keepAlive runs before the delay gate. On WLAN it keeps the link from
// going to sleep; with queued actions the next keep-alive is pushed back.
func (m *Manager) keepAlive(ctx context.Context) {
	if !m.active {
		return
	}
	now := m.now()
	if m.queue.Any() && m.cfg.WLAN {
		m.timers.Postpone(timerKeepAlive, now.Add(m.cfg.keepAliveInterval()))
		return
	}
	if m.cfg.WebserverEnabled && !m.webStarted {
		m.startWebserver()
	}
	for _, name := range m.timers.Due(now) {
		switch name {
		case timerKeepAlive:
			m.keepAliveRequest(ctx)
			m.log.Debug("%s", m.SysMonInfo(true))
		case timerResync:
			m.syncTime(ctx)
		}
	}
}

func (m *Manager) keepAliveRequest(ctx context.Context) {
	if !m.cfg.WLAN || m.cfg.WebserverEnabled {
		return
	}
	if m.server.IsZero() {
		m.syncTime(ctx)
		return
	}
	path := m.cfg.KeepAlivePath
	if m.session.Active() {
		path = m.session.RefreshPath()
	}
	m.log.Debug("keep-alive request %s", path)
	if _, err := m.transport.Get(ctx, m.server, path, m.arena.Acquire(BufKeepAlive)); err != nil {
		m.log.Debug("keep-alive: %v", err)
	}
}
