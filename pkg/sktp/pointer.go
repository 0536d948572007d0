package sktp

import (
	"fmt"
	"net/netip"
	"strconv"

	"github.com/sidekick64/sidekicknet/pkg/remote"
)

// Pointer describes a binary download announced by a type 2 response.
type Pointer struct {
	// Source is the endpoint the payload is fetched from.
	Source remote.Target
	// HostName and Port are taken verbatim from the URL. Port is 0 when
	// the URL carried none.
	HostName string
	Port     uint16
	// Secure is set for https:// URLs.
	Secure bool
	// Matched is false when HostName was not registered and Source is
	// the fallback target.
	Matched bool

	RemotePath    string
	Filename      string
	Extension     Extension
	SaveLocally   bool
	LocalSavePath string
}

// URL returns the fetch URL against Source.
func (p Pointer) URL() string {
	return p.Source.URL(p.RemotePath)
}

func (d *Decoder) decodePointer(r reader) (Pointer, error) {
	var p Pointer

	urlLen, err := r.u8(fieldURLLength)
	if err != nil {
		return p, err
	}
	nameLen, err := r.u8(fieldFilenameLength)
	if err != nil {
		return p, err
	}
	save, err := r.u8(fieldSaveFlag)
	if err != nil {
		return p, err
	}
	urlEnd := pointerURLOffset + int(urlLen)
	if _, err := r.span("url", pointerURLOffset, int(urlLen)); err != nil {
		return p, err
	}
	name, err := r.span("filename", urlEnd, int(nameLen))
	if err != nil {
		return p, err
	}

	marker, err := r.u8(fieldSchemeMarker)
	if err != nil {
		return p, err
	}
	var hostStart int
	switch marker {
	case ':':
		hostStart = httpSchemeEnd
	case 's':
		hostStart = httpsSchemeEnd
		p.Secure = true
	default:
		return p, fmt.Errorf("%w: %q", ErrSchemeMarker, marker)
	}
	if hostStart > urlEnd {
		return p, fmt.Errorf("%w: scheme runs past url (length %d)", ErrTruncated, urlLen)
	}

	hostEnd := r.indexAny(hostStart, urlEnd, '/', ':')
	if hostEnd == hostStart {
		return p, ErrEmptyHost
	}
	p.HostName = string(r.buf[hostStart:hostEnd])

	pathStart := hostEnd
	if hostEnd < urlEnd && r.buf[hostEnd] == ':' {
		pathStart = r.indexAny(hostEnd+1, urlEnd, '/')
		port, err := strconv.ParseUint(string(r.buf[hostEnd+1:pathStart]), 10, 16)
		if err != nil || port == 0 {
			return p, fmt.Errorf("%w: %q", ErrInvalidPort, r.buf[hostEnd+1:pathStart])
		}
		p.Port = uint16(port)
	}
	if pathStart >= urlEnd {
		return p, ErrMissingPath
	}
	p.RemotePath = string(r.buf[pathStart:urlEnd])
	p.Filename = string(name)

	ext, err := r.span("extension", len(r.buf)-extensionLength, extensionLength)
	if err != nil {
		return p, err
	}
	if p.Extension, err = ParseExtension(string(ext)); err != nil {
		return p, err
	}

	p.SaveLocally = save == 1
	p.LocalSavePath = SavePath(d.drive(), d.Variant, p.Extension, p.Filename)
	p.Source, p.Matched = d.source(p)
	return p, nil
}

// source picks the registered target for the pointer's host, falling back
// to the default target, and finally to an unresolved target built from the URL.
func (d *Decoder) source(p Pointer) (remote.Target, bool) {
	if d.Targets != nil {
		if t, ok := d.Targets.Lookup(p.HostName); ok {
			return t, true
		}
		if t, ok := d.Targets.Default(); ok {
			d.log().Warning("unknown download host %q, falling back to %s", p.HostName, t.Label)
			return t, false
		}
	}
	port := p.Port
	if port == 0 {
		port = remote.HTTPPort
		if p.Secure {
			port = remote.HTTPSPort
		}
	}
	t := remote.NewTarget(p.HostName, port, netip.Addr{})
	d.log().Warning("unknown download host %q and no default target, dialing %s directly", p.HostName, t.DialAddress())
	return t, false
}
