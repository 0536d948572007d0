package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/sidekick64/sidekicknet/cmd/common"
	shared "github.com/sidekick64/sidekicknet/common"
	"github.com/sidekick64/sidekicknet/internal/link"
	"github.com/sidekick64/sidekicknet/internal/netman"
	"github.com/sidekick64/sidekicknet/internal/storage"
	"github.com/sidekick64/sidekicknet/internal/timesync"
	"github.com/sidekick64/sidekicknet/internal/transport"
	"github.com/sidekick64/sidekicknet/internal/webserver"
	"github.com/sidekick64/sidekicknet/pkg/logger"
	"github.com/sidekick64/sidekicknet/pkg/sktp"
	"github.com/spf13/afero"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"
)

// monitorEvery is the number of ticks between two system monitor updates.
const monitorEvery = 500

func newLogger(level int) logger.Logger {
	return logger.NewLeveledLogger(log.New(os.Stderr, "[sidekicknet] ", log.LstdFlags), logger.Level(level))
}

func readBootBank(p string) ([]byte, error) {
	if p == "" {
		return nil, nil
	}
	return afero.ReadFile(hostFs, p)
}

// submitFunc adapts a function to webserver.UploadSink.
type submitFunc func(netman.Upload) error

func (f submitFunc) Submit(u netman.Upload) error { return f(u) }

// device runs the network core on the host: it owns the manager and is
// the only goroutine touching it.
type device struct {
	m   *netman.Manager
	web *webserver.WebServer
	hub *webserver.Hub
	log logger.Logger

	tick      time.Duration
	launchFs  afero.Fs
	launchDir string

	out        io.Writer
	scr        *screen
	lastCells  [screenRows * screenCols]cell
	lastStatus string
	drawn      bool
	ticks      int
}

func newDevice(s settings, l logger.Logger) (*device, error) {
	tr, err := transport.New(transport.Options{Proxy: s.Proxy, Log: l})
	if err != nil {
		return nil, err
	}
	drive := storage.NewOSDrive(s.DriveRoot, s.Net.Drive, l)
	if err := drive.Mount(); err != nil {
		return nil, err
	}
	boot, err := readBootBank(s.BootBank)
	if err != nil {
		return nil, err
	}

	d := &device{
		log:       l,
		tick:      tick,
		launchFs:  hostFs,
		launchDir: s.LaunchDir,
		out:       os.Stdout,
	}
	if d.tick <= 0 {
		d.tick = DEF_TICK
	}
	if !noPreview {
		d.scr = newScreen()
	}

	opts := netman.Options{
		Transport: tr,
		Resolver:  transport.NewResolver(l),
		Link:      link.New(s.Interface, s.Net.WLAN, l),
		Clock:     timesync.New(s.Net.NTPHost, timesync.DefaultTimeout, l),
		Drive:     drive,
		Cache:     storage.NewCacheTracker(l),
		Boot:      boot,
		Events:    d.onEvent,
		Log:       l,
	}
	if s.Net.WebserverEnabled {
		d.hub = webserver.NewHub(l)
		d.web = webserver.NewWebServer(l, submitFunc(func(u netman.Upload) error {
			return d.m.Submit(u)
		}), d.hub, int(s.Net.WebserverPort))
		opts.Web = d.web
	}
	if d.m, err = netman.New(s.Net, opts); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *device) onEvent(ev shared.StatusEvent) {
	if d.hub != nil {
		d.hub.Publish(ev)
	}
	d.log.Debug("event %s %s", ev.Type, ev.File)
}

// serve runs the tick loop until ctx ends or a reboot is due.
func (d *device) serve(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	keys := make(chan byte, 16)
	g.Go(func() error {
		return readKeys(gctx, in, keys)
	})
	g.Go(func() error {
		defer cancel()
		return d.loop(gctx, keys)
	})
	if d.web != nil {
		g.Go(func() error {
			<-gctx.Done()
			sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer scancel()
			return d.web.Shutdown(sctx)
		})
	}
	return g.Wait()
}

func (d *device) loop(ctx context.Context, keys <-chan byte) error {
	d.m.EnterScreen()
	if d.m.Config().ConnectOnBoot {
		d.m.Connect(ctx)
	} else {
		d.m.QueueNetworkInit()
	}
	d.m.QueueKeypress(sktp.KeyRefresh)

	t := time.NewTicker(d.tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			d.takeKey(keys)
			d.step(ctx)
			if d.m.RebootDue() {
				d.log.Info("reboot due, stopping")
				return nil
			}
		}
	}
}

// takeKey queues the next typed key once the previous one has been sent.
// The queue holds a single keypress, so the rest wait in keys.
func (d *device) takeKey(keys <-chan byte) {
	if d.m.Queue().Pending(netman.ActionKeypress) {
		return
	}
	select {
	case k := <-keys:
		d.m.QueueKeypress(k)
	default:
	}
}

// step runs one tick and the host side of it: saves, launches and drawing.
func (d *device) step(ctx context.Context) {
	d.m.Tick(ctx)
	d.m.CheckFinishedDownload()
	if d.m.Queue().Delay() == 0 {
		d.m.SaveQueuedDownload()
	}
	if d.m.LaunchReady() {
		d.launch()
	}
	if d.m.ReturnToMenuRequired() {
		d.m.RedrawScreen()
	}
	d.m.QueueRefresh(DEF_REFRESH_TIMEOUT)

	if d.ticks%monitorEvery == 0 {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		d.m.UpdateSystemMonitor(ms.HeapIdle-ms.HeapReleased, 0)
	}
	d.ticks++
	d.draw()
}

func (d *device) launch() {
	img, err := d.m.Launch()
	if err != nil {
		return
	}
	p, err := writeLaunchImage(d.launchFs, d.launchDir, img)
	switch {
	case errors.Is(err, ErrNotLaunchable):
		d.log.Info("%s is stored but cannot be launched", img.Name)
	case err != nil:
		d.log.Error("writing launch image %s: %v", img.Name, err)
	default:
		d.log.Info("launch image %s written to %s", img.Name, p)
	}
	d.m.CleanupDownload()
}

func (d *device) draw() {
	if d.scr == nil {
		return
	}
	switch {
	case d.m.Notice() != "":
		d.scr.notice(d.m.Notice())
	case d.m.ScreenCleared():
		d.scr.clear()
	case !d.m.ScreenUnchanged():
		for {
			c, ok, err := d.m.NextChunk()
			if err != nil || !ok {
				break
			}
			d.scr.apply(c)
		}
	}
	status, _ := d.m.ErrorMessage()
	if status == "" {
		status = d.m.StatusMessage()
	}
	if d.drawn && d.scr.cells == d.lastCells && status == d.lastStatus {
		return
	}
	d.drawn = true
	d.lastCells = d.scr.cells
	d.lastStatus = status
	fmt.Fprint(d.out, "\x1b[H\x1b[2J", d.scr.Render(status), "\n")
}

func run(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, "run")
	}
	s, err := loadSettings(ctx)
	if err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	l := newLogger(s.LogLevel)
	defer l.Close()

	d, err := newDevice(s, l)
	if err != nil {
		common.PrintRuntimeErr(ctx, "run", "new_device", err)
		return nil
	}
	sig, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := d.serve(sig, os.Stdin); err != nil {
		common.PrintRuntimeErr(ctx, "run", "serve", err)
	}
	d.m.Disconnect()
	return nil
}
