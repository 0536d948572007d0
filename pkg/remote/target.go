// Package remote holds the resolved network endpoints the device fetches from.
package remote

import (
	"fmt"
	"net/netip"
	"strconv"
)

const (
	// HTTPPort is the default SKTP server port.
	HTTPPort uint16 = 80
	// HTTPSPort is the port that selects TLS.
	HTTPSPort uint16 = 443
)

// Target is a resolved endpoint. It is immutable once built; reconnecting
// builds a new one.
type Target struct {
	HostName string
	Port     uint16
	Address  netip.Addr
	// Label is the URL prefix used in log lines, e.g. "https://csdb.dk".
	Label string
}

// NewTarget builds a Target and derives its log label.
func NewTarget(host string, port uint16, addr netip.Addr) Target {
	return Target{
		HostName: host,
		Port:     port,
		Address:  addr,
		Label:    label(host, port),
	}
}

func label(host string, port uint16) string {
	scheme := "http"
	if port == HTTPSPort {
		scheme = "https"
	}
	s := scheme + "://" + host
	if port != HTTPSPort && port != HTTPPort && port != 0 {
		s += ":" + strconv.Itoa(int(port))
	}
	return s
}

// Secure reports whether requests to the target use TLS.
func (t Target) Secure() bool {
	return t.Port == HTTPSPort
}

// Scheme returns "https" for the TLS port and "http" otherwise.
func (t Target) Scheme() string {
	if t.Secure() {
		return "https"
	}
	return "http"
}

// IsZero reports whether the target is unconfigured.
func (t Target) IsZero() bool {
	return t.HostName == "" || t.Port == 0
}

// Resolved reports whether a DNS lookup produced an address.
func (t Target) Resolved() bool {
	return t.Address.IsValid()
}

// URL joins the label and a request path.
func (t Target) URL(path string) string {
	return t.Label + path
}

// DialAddress returns "ip:port" when resolved and "host:port" otherwise.
func (t Target) DialAddress() string {
	if t.Resolved() {
		return netip.AddrPortFrom(t.Address, t.Port).String()
	}
	return fmt.Sprintf("%s:%d", t.HostName, t.Port)
}
