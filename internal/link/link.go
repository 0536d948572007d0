// Package link reports whether the host network link is up, the way the
// device waits for its USB ethernet or WLAN adapter during bring-up.
package link

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"path"

	"github.com/sidekick64/sidekicknet/pkg/logger"
	"github.com/spf13/afero"
)

var ErrNoWireless = errors.New("link: no wireless support")

// Interface is a snapshot of one network interface.
type Interface struct {
	Name     string
	Up       bool
	Loopback bool
	Addrs    []netip.Prefix
}

// Source lists network interfaces.
type Source interface {
	Interfaces() ([]Interface, error)
}

type systemSource struct{}

func (systemSource) Interfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	out := make([]Interface, 0, len(ifaces))
	for _, ifc := range ifaces {
		it := Interface{
			Name:     ifc.Name,
			Up:       ifc.Flags&net.FlagUp != 0 && ifc.Flags&net.FlagRunning != 0,
			Loopback: ifc.Flags&net.FlagLoopback != 0,
		}
		addrs, err := ifc.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if ipn, ok := a.(*net.IPNet); ok {
				if p, err := netip.ParsePrefix(ipn.String()); err == nil {
					it.Addrs = append(it.Addrs, p)
				}
			}
		}
		out = append(out, it)
	}
	return out, nil
}

// Poller checks one interface, or any non-loopback interface when no name is set.
type Poller struct {
	name     string
	wireless bool
	src      Source
	sysfs    afero.Fs
	log      logger.Logger
	addr     netip.Addr
}

// New polls the system interfaces and checks the host's /sys for WLAN support.
func New(name string, wireless bool, l logger.Logger) *Poller {
	return NewWithSource(name, wireless, systemSource{}, afero.NewReadOnlyFs(afero.NewOsFs()), l)
}

// NewWithSource polls src.
func NewWithSource(name string, wireless bool, src Source, sysfs afero.Fs, l logger.Logger) *Poller {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Poller{name: name, wireless: wireless, src: src, sysfs: sysfs, log: l}
}

// Wireless reports whether the poller waits for a WLAN link.
func (p *Poller) Wireless() bool { return p.wireless }

// Prepare checks the link can come up at all. For WLAN it requires a
// wireless interface in sysfs.
func (p *Poller) Prepare(ctx context.Context) error {
	if !p.wireless || p.sysfs == nil {
		return nil
	}
	pattern := "/sys/class/net/*/wireless"
	if p.name != "" {
		pattern = path.Join("/sys/class/net", p.name, "wireless")
	}
	matches, err := afero.Glob(p.sysfs, pattern)
	if err != nil || len(matches) == 0 {
		return ErrNoWireless
	}
	return nil
}

// Up reports whether the link is running with an IPv4 address.
func (p *Poller) Up(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ifaces, err := p.src.Interfaces()
	if err != nil {
		return false, err
	}
	for _, ifc := range ifaces {
		if ifc.Loopback || !ifc.Up || (p.name != "" && ifc.Name != p.name) {
			continue
		}
		for _, a := range ifc.Addrs {
			if a.Addr().Is4() {
				if p.addr != a.Addr() {
					p.log.Info("link %s is up, address %s", ifc.Name, a.Addr())
				}
				p.addr = a.Addr()
				return true, nil
			}
		}
	}
	p.addr = netip.Addr{}
	return false, nil
}

// Address returns the address seen by the last successful Up.
func (p *Poller) Address() netip.Addr { return p.addr }
