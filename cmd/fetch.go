package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sidekick64/sidekicknet/cmd/common"
	"github.com/sidekick64/sidekicknet/internal/download"
	"github.com/sidekick64/sidekicknet/internal/netman"
	"github.com/sidekick64/sidekicknet/internal/storage"
	"github.com/sidekick64/sidekicknet/internal/transport"
	"github.com/sidekick64/sidekicknet/pkg/logger"
	"github.com/sidekick64/sidekicknet/pkg/remote"
	"github.com/sidekick64/sidekicknet/pkg/sktp"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
)

var ErrBadURL = errors.New("url must be http(s)://host/path/file.ext")

// pointerFromURL builds the download pointer the screen server would have
// sent for raw.
func pointerFromURL(raw string, cfg netman.Config, save bool) (sktp.Pointer, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return sktp.Pointer{}, fmt.Errorf("%w: %v", ErrBadURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" || u.Path == "" || u.Path == "/" {
		return sktp.Pointer{}, ErrBadURL
	}
	p := sktp.Pointer{
		HostName:    u.Hostname(),
		Secure:      u.Scheme == "https",
		Matched:     true,
		RemotePath:  u.RequestURI(),
		Filename:    path.Base(u.Path),
		SaveLocally: save,
	}
	if ps := u.Port(); ps != "" {
		n, err := strconv.ParseUint(ps, 10, 16)
		if err != nil {
			return sktp.Pointer{}, fmt.Errorf("%w: port %q", ErrBadURL, ps)
		}
		p.Port = uint16(n)
	}
	if p.Extension, err = sktp.ParseExtension(path.Ext(p.Filename)); err != nil {
		return sktp.Pointer{}, err
	}
	p.LocalSavePath = sktp.SavePath(cfg.Drive, cfg.Variant, p.Extension, p.Filename)
	return p, nil
}

func sourcePort(ptr sktp.Pointer) uint16 {
	if ptr.Port != 0 {
		return ptr.Port
	}
	if ptr.Secure {
		return remote.HTTPSPort
	}
	return remote.HTTPPort
}

// progressFetcher feeds an mpb bar from the transport's progress callback.
type progressFetcher struct {
	tr   *transport.HTTP
	p    *mpb.Progress
	name string
	bar  *mpb.Bar
}

func (f *progressFetcher) Get(ctx context.Context, t remote.Target, path string, buf []byte) (int, error) {
	n, err := f.tr.GetWithProgress(ctx, t, path, buf, func(read, total int64) {
		if f.bar == nil {
			f.bar = common.InitBar(f.p, f.name, total)
		}
		f.bar.SetCurrent(read)
	})
	if f.bar != nil {
		if err != nil {
			f.bar.Abort(false)
		} else {
			f.bar.SetTotal(-1, true)
		}
	}
	return n, err
}

func fetch(ctx *cli.Context) error {
	raw := ctx.Args().First()
	if raw == "" {
		return common.PrintErrWithCmdHelp(ctx, errors.New("no url provided"))
	} else if raw == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	s, err := loadSettings(ctx)
	if err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	l := newLogger(s.LogLevel)
	defer l.Close()

	c := context.Background()
	if err := fetchFile(c, s, raw, saveFetched, ".", l); err != nil {
		common.PrintRuntimeErr(ctx, "fetch", "download", err)
	}
	return nil
}

// fetchFile downloads raw through a download lifecycle, saves it to the
// drive when asked and writes the launch image to outDir.
func fetchFile(ctx context.Context, s settings, raw string, save bool, outDir string, l logger.Logger) error {
	ptr, err := pointerFromURL(raw, s.Net, save)
	if err != nil {
		return err
	}
	tr, err := transport.New(transport.Options{Proxy: s.Proxy, Log: l})
	if err != nil {
		return err
	}
	pf := &progressFetcher{tr: tr, p: mpb.New(mpb.WithWidth(48)), name: ptr.Filename}
	addr, err := transport.NewResolver(l).Resolve(ctx, ptr.HostName)
	if err != nil {
		return err
	}
	ptr.Source = remote.NewTarget(ptr.HostName, sourcePort(ptr), addr)

	boot, err := readBootBank(s.BootBank)
	if err != nil {
		return err
	}
	dl := download.New(download.Options{
		Variant:            s.Net.Variant,
		SaveDelay:          s.Net.SaveDelay,
		CartridgeSaveDelay: s.Net.CartridgeSaveDelay,
		Boot:               boot,
		Log:                l,
	}, make([]byte, sktp.MaxBinaryResponse))
	if err := dl.Stage(ptr); err != nil {
		return err
	}
	fmt.Printf(">> Fetching %s <<\n", ptr.URL())
	err = dl.Fetch(ctx, pf)
	pf.p.Wait()
	if err != nil {
		return err
	}

	done, _ := dl.Finish()
	if done.SaveQueued {
		fmt.Println(strings.TrimSpace(done.Message))
		drive := storage.NewOSDrive(s.DriveRoot, s.Net.Drive, l)
		if err := drive.Mount(); err != nil {
			return err
		}
		if err := dl.Save(drive, storage.NewCacheTracker(l)); err != nil {
			return err
		}
		fmt.Printf("Saved as %s\n", ptr.LocalSavePath)
	}

	img, err := dl.Launch()
	if err != nil {
		return err
	}
	p, err := writeLaunchImage(hostFs, outDir, img)
	if errors.Is(err, ErrNotLaunchable) {
		fmt.Printf("%s cannot be launched on the %s\n", ptr.Filename, s.Net.Variant)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("Launch image: %s (%s)\n", p, humanize.Bytes(uint64(len(img.Data))))
	return nil
}
