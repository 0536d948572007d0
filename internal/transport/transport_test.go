package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sidekick64/sidekicknet/common"
	"github.com/sidekick64/sidekicknet/pkg/remote"
)

// serverTarget returns a target for a made-up host name pinned to srv.
func serverTarget(t *testing.T, srv *httptest.Server) remote.Target {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}
	return remote.NewTarget("sktp.test", uint16(port), netip.MustParseAddr("127.0.0.1"))
}

func newTestHTTP(t *testing.T) *HTTP {
	t.Helper()
	h, err := New(Options{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h
}

func TestGetPinnedTarget(t *testing.T) {
	var gotHost, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost = r.Host
		gotPath = r.URL.RequestURI()
		io.WriteString(w, "hello")
	}))
	defer srv.Close()

	h := newTestHTTP(t)
	target := serverTarget(t, srv)
	buf := make([]byte, 16)
	var progressed int64
	n, err := h.GetWithProgress(context.Background(), target, "/sktp.php?session=new", buf, func(read, total int64) {
		progressed = read
	})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n != 5 || string(buf[:n]) != "hello" {
		t.Errorf("unexpected body %q", buf[:n])
	}
	if !strings.HasPrefix(gotHost, "sktp.test:") {
		t.Errorf("expected host name in request, got %q", gotHost)
	}
	if gotPath != "/sktp.php?session=new" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if progressed != 5 {
		t.Errorf("expected progress of 5 bytes, got %d", progressed)
	}
}

func TestGetTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/chunked" {
			w.(http.Flusher).Flush()
		}
		io.WriteString(w, strings.Repeat("x", 32))
	}))
	defer srv.Close()

	h := newTestHTTP(t)
	target := serverTarget(t, srv)
	for _, path := range []string{"/sized", "/chunked"} {
		_, err := h.Get(context.Background(), target, path, make([]byte, 16))
		if !errors.Is(err, ErrResponseTooLarge) {
			t.Errorf("%s: expected ErrResponseTooLarge, got %v", path, err)
		}
	}
	n, err := h.Get(context.Background(), target, "/chunked", make([]byte, 32))
	if err != nil || n != 32 {
		t.Errorf("exact fit should succeed, got %d %v", n, err)
	}
}

func TestGetStatusError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	h := newTestHTTP(t)
	_, err := h.Get(context.Background(), serverTarget(t, srv), "/givemea404response.html", make([]byte, 64))
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
	var ne *common.NetError
	if !errors.As(err, &ne) || ne.Kind != common.KindTransport || ne.Secure {
		t.Errorf("expected insecure transport NetError, got %#v", err)
	}
}

func TestGetUnconfiguredTarget(t *testing.T) {
	h := newTestHTTP(t)
	_, err := h.Get(context.Background(), remote.Target{}, "/", make([]byte, 1))
	if !errors.Is(err, ErrNoTarget) {
		t.Errorf("expected ErrNoTarget, got %v", err)
	}
}

func TestResolverRetries(t *testing.T) {
	calls := 0
	lookup := func(ctx context.Context, network, host string) ([]netip.Addr, error) {
		calls++
		if network != "ip4" {
			t.Errorf("expected ip4 lookup, got %s", network)
		}
		if calls < 3 {
			return nil, &net.DNSError{Err: "temporary failure", Name: host, IsTemporary: true}
		}
		return []netip.Addr{netip.MustParseAddr("192.0.2.7")}, nil
	}
	r := NewResolverWith(lookup, RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond}, nil)

	addr, err := r.Resolve(context.Background(), "csdb.dk")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if addr.String() != "192.0.2.7" || calls != 3 {
		t.Errorf("got %s after %d calls", addr, calls)
	}
}

func TestResolverGivesUp(t *testing.T) {
	calls := 0
	lookup := func(ctx context.Context, network, host string) ([]netip.Addr, error) {
		calls++
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	r := NewResolverWith(lookup, RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond}, nil)

	_, err := r.Resolve(context.Background(), "nowhere.invalid")
	if !common.IsKind(err, common.KindResolution) {
		t.Errorf("expected resolution error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestResolverLiteral(t *testing.T) {
	r := NewResolverWith(func(context.Context, string, string) ([]netip.Addr, error) {
		t.Fatal("lookup called for an address literal")
		return nil, nil
	}, DefaultResolveRetry(), nil)
	addr, err := r.Resolve(context.Background(), "10.1.2.3")
	if err != nil || addr.String() != "10.1.2.3" {
		t.Errorf("got %v %v", addr, err)
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{io.ErrUnexpectedEOF, true},
		{fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{errors.New("i/o timeout"), true},
		{errors.New("permission denied"), false},
		{&net.DNSError{IsNotFound: true}, true},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Errorf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestRetryBackoff(t *testing.T) {
	p := RetryPolicy{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, BackoffFactor: 2}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}
	for i, w := range want {
		if got := p.Backoff(i + 1); got != w {
			t.Errorf("attempt %d: got %v, want %v", i+1, got, w)
		}
	}
}

func TestRetryDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{Attempts: 5, BaseDelay: time.Hour}
	calls := 0
	err := p.Do(ctx, func(int) error {
		calls++
		cancel()
		return io.EOF
	})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Errorf("expected cancel after one call, got %v after %d", err, calls)
	}
}

func TestProxyConfiguration(t *testing.T) {
	if _, err := ParseProxyURL("ftp://proxy:21"); !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("expected ErrUnsupportedScheme, got %v", err)
	}
	if _, err := ParseProxyURL("not a url"); !errors.Is(err, ErrInvalidProxyURL) {
		t.Errorf("expected ErrInvalidProxyURL, got %v", err)
	}
	for _, p := range []string{"socks5://user:pw@127.0.0.1:1080", "http://127.0.0.1:3128"} {
		if _, err := New(Options{Proxy: p}); err != nil {
			t.Errorf("%s: %v", p, err)
		}
	}
}

func TestRedirectPolicy(t *testing.T) {
	check := redirectPolicy(2)
	secure, _ := http.NewRequest(http.MethodGet, "https://csdb.dk/a", nil)
	plain, _ := http.NewRequest(http.MethodGet, "http://csdb.dk/b", nil)

	if err := check(plain, []*http.Request{secure}); !errors.Is(err, ErrInsecureRedirect) {
		t.Errorf("expected ErrInsecureRedirect, got %v", err)
	}
	if err := check(secure, []*http.Request{secure, secure}); !errors.Is(err, ErrTooManyRedirects) {
		t.Errorf("expected ErrTooManyRedirects, got %v", err)
	}
	if err := check(secure, []*http.Request{plain}); err != nil {
		t.Errorf("upgrade should be allowed, got %v", err)
	}
}
