// Package storage writes downloads to the device drive and tracks the
// cache wellness scope every write is bracketed with.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/sidekick64/sidekicknet/common"
	"github.com/sidekick64/sidekicknet/pkg/logger"
	"github.com/spf13/afero"
)

// DefaultPrefix is the drive prefix of save paths ("SD:PRG/x.prg").
const DefaultPrefix = "SD:"

var (
	ErrNotMounted  = errors.New("storage: drive not mounted")
	ErrWrongDrive  = errors.New("storage: path is on another drive")
	ErrInvalidPath = errors.New("storage: invalid path")
)

// Drive is a mountable file system addressed with prefixed paths.
type Drive struct {
	fs     afero.Fs
	prefix string
	log    logger.Logger

	mu      sync.Mutex
	mounted bool
}

// NewDrive serves paths with prefix from fs.
func NewDrive(fs afero.Fs, prefix string, l logger.Logger) *Drive {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Drive{fs: fs, prefix: prefix, log: l}
}

// NewOSDrive maps the drive onto the directory root of the host.
func NewOSDrive(root, prefix string, l logger.Logger) *Drive {
	return NewDrive(afero.NewBasePathFs(afero.NewOsFs(), root), prefix, l)
}

// Fs exposes the underlying file system.
func (d *Drive) Fs() afero.Fs { return d.fs }

// Prefix returns the drive prefix.
func (d *Drive) Prefix() string { return d.prefix }

// Mount makes the drive writable. The root must exist.
func (d *Drive) Mount() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mounted {
		return nil
	}
	ok, err := afero.DirExists(d.fs, "/")
	if err != nil || !ok {
		if err == nil {
			err = os.ErrNotExist
		}
		return common.NewNetError(common.KindPersistence, "mount "+d.prefix, err)
	}
	d.mounted = true
	return nil
}

// Unmount releases the drive.
func (d *Drive) Unmount() {
	d.mu.Lock()
	d.mounted = false
	d.mu.Unlock()
}

// Mounted reports whether the drive is mounted.
func (d *Drive) Mounted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mounted
}

// resolve strips the drive prefix and cleans the path.
func (d *Drive) resolve(p string) (string, error) {
	rest, ok := strings.CutPrefix(p, d.prefix)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrWrongDrive, p)
	}
	clean := path.Clean("/" + rest)
	if clean == "/" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return clean, nil
}

// WriteFile mounts the drive, writes data to p (creating directories) and
// unmounts it again, as the firmware does for every save.
func (d *Drive) WriteFile(p string, data []byte) error {
	name, err := d.resolve(p)
	if err != nil {
		return common.NewNetError(common.KindPersistence, "write", err)
	}
	if err := d.Mount(); err != nil {
		return err
	}
	defer d.Unmount()

	if err := d.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return common.NewNetError(common.KindPersistence, "write "+p, err)
	}
	if err := afero.WriteFile(d.fs, name, data, 0o644); err != nil {
		d.log.Error("could not write %s: %v", p, err)
		return common.NewNetError(common.KindPersistence, "write "+p, err)
	}
	d.log.Info("wrote %s (%s)", p, humanize.Bytes(uint64(len(data))))
	return nil
}

// ReadFile reads a file by its prefixed path.
func (d *Drive) ReadFile(p string) ([]byte, error) {
	name, err := d.resolve(p)
	if err != nil {
		return nil, common.NewNetError(common.KindPersistence, "read", err)
	}
	data, err := afero.ReadFile(d.fs, name)
	if err != nil {
		return nil, common.NewNetError(common.KindPersistence, "read "+p, err)
	}
	return data, nil
}
