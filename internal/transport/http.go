// Package transport performs the single GET requests the network core
// issues: against a resolved remote.Target, into a caller-owned buffer of
// bounded size.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sidekick64/sidekicknet/common"
	"github.com/sidekick64/sidekicknet/pkg/logger"
	"github.com/sidekick64/sidekicknet/pkg/remote"
)

const (
	DefaultTimeout      = 20 * time.Second
	DefaultMaxRedirects = 5
	DefaultUserAgent    = "Sidekick64"
)

var (
	ErrResponseTooLarge = errors.New("transport: response larger than buffer")
	ErrStatus           = errors.New("transport: unexpected status")
	ErrNoTarget         = errors.New("transport: target not configured")
)

// ProgressFunc reports bytes read so far and the announced total (-1 when
// unknown).
type ProgressFunc func(read, total int64)

// Options configures an HTTP transport.
type Options struct {
	// Proxy is an http, https or socks5 proxy URL. Empty means direct.
	Proxy        string
	Timeout      time.Duration
	UserAgent    string
	MaxRedirects int
	Log          logger.Logger
}

// HTTP fetches from remote targets. Connections to a resolved target dial
// its resolved address while keeping the host name for TLS and Host.
type HTTP struct {
	client    *http.Client
	userAgent string
	log       logger.Logger
	// host:port -> ip:port
	pins sync.Map
}

// New builds an HTTP transport.
func New(opts Options) (*HTTP, error) {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxRedirects == 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}
	if opts.Log == nil {
		opts.Log = logger.NewNopLogger()
	}

	h := &HTTP{userAgent: opts.UserAgent, log: opts.Log}
	tr := &http.Transport{
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}
	dial, err := configureProxy(tr, &net.Dialer{Timeout: 10 * time.Second}, opts.Proxy)
	if err != nil {
		return nil, err
	}
	tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		if pinned, ok := h.pins.Load(addr); ok {
			addr = pinned.(string)
		}
		return dial(ctx, network, addr)
	}
	h.client = &http.Client{
		Transport:     tr,
		Timeout:       opts.Timeout,
		CheckRedirect: redirectPolicy(opts.MaxRedirects),
	}
	return h, nil
}

// pin makes dials to the target's host:port go to its resolved address.
func (h *HTTP) pin(t remote.Target) {
	key := net.JoinHostPort(t.HostName, fmt.Sprint(t.Port))
	if !t.Resolved() {
		h.pins.Delete(key)
		return
	}
	h.pins.Store(key, t.DialAddress())
}

// Get fetches path from t into buf and returns the number of bytes read.
// A body that does not fit into buf fails with ErrResponseTooLarge. Errors
// are *common.NetError values of KindTransport.
func (h *HTTP) Get(ctx context.Context, t remote.Target, path string, buf []byte) (int, error) {
	return h.GetWithProgress(ctx, t, path, buf, nil)
}

// GetWithProgress is Get with a progress callback invoked after every read.
func (h *HTTP) GetWithProgress(ctx context.Context, t remote.Target, path string, buf []byte, progress ProgressFunc) (int, error) {
	if t.IsZero() {
		return 0, common.NewTransportError("get", t.Port, ErrNoTarget)
	}
	h.pin(t)
	url := t.URL(path)
	h.log.Debug("GET %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, common.NewTransportError("get", t.Port, err)
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, common.NewTransportError("get", t.Port, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.log.Error("GET %s failed with status %d", url, resp.StatusCode)
		return 0, common.NewTransportError("get", t.Port, fmt.Errorf("%w: %s", ErrStatus, resp.Status))
	}
	if resp.ContentLength > int64(len(buf)) {
		return 0, common.NewTransportError("get", t.Port,
			fmt.Errorf("%w: %s > %s", ErrResponseTooLarge, humanize.IBytes(uint64(resp.ContentLength)), humanize.IBytes(uint64(len(buf)))))
	}

	n, err := readBounded(resp.Body, buf, resp.ContentLength, progress)
	if err != nil {
		return n, common.NewTransportError("get", t.Port, err)
	}
	h.log.Debug("GET %s: %s", url, humanize.Bytes(uint64(n)))
	return n, nil
}

// readBounded fills buf from r and fails if r holds more than len(buf) bytes.
func readBounded(r io.Reader, buf []byte, total int64, progress ProgressFunc) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if m > 0 && progress != nil {
			progress(int64(n), total)
		}
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
	}
	var probe [1]byte
	for {
		m, err := r.Read(probe[:])
		if m > 0 {
			return n, fmt.Errorf("%w: more than %s", ErrResponseTooLarge, humanize.IBytes(uint64(len(buf))))
		}
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
	}
}
