package timesync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/beevik/ntp"
	"github.com/sidekick64/sidekicknet/common"
)

func TestSyncSuccess(t *testing.T) {
	now := time.Now()
	var gotHost string
	var gotTimeout time.Duration
	q := func(host string, opt ntp.QueryOptions) (*ntp.Response, error) {
		gotHost, gotTimeout = host, opt.Timeout
		return &ntp.Response{
			Time:          now,
			ClockOffset:   1500 * time.Millisecond,
			RTT:           20 * time.Millisecond,
			Stratum:       2,
			Leap:          ntp.LeapNoWarning,
			RootDelay:     time.Millisecond,
			ReferenceTime: now.Add(-time.Minute),
		}, nil
	}
	c := NewWithQuery(DefaultHost, time.Second, q, nil)

	r, err := c.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if gotHost != DefaultHost || gotTimeout != time.Second {
		t.Errorf("unexpected query %s %v", gotHost, gotTimeout)
	}
	if r.Offset != 1500*time.Millisecond || !r.Time.Equal(now) {
		t.Errorf("unexpected result %+v", r)
	}
}

func TestSyncFailure(t *testing.T) {
	q := func(string, ntp.QueryOptions) (*ntp.Response, error) {
		return nil, errors.New("i/o timeout")
	}
	c := NewWithQuery("ntp.test", 0, q, nil)
	if _, err := c.Sync(context.Background()); !common.IsKind(err, common.KindConnectivity) {
		t.Errorf("expected connectivity error, got %v", err)
	}
}

func TestSyncNoHost(t *testing.T) {
	c := NewWithQuery("", 0, nil, nil)
	if _, err := c.Sync(context.Background()); !errors.Is(err, ErrNoHost) {
		t.Errorf("expected ErrNoHost, got %v", err)
	}
}

func TestSyncCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewWithQuery("ntp.test", 0, func(string, ntp.QueryOptions) (*ntp.Response, error) {
		t.Fatal("query after cancel")
		return nil, nil
	}, nil)
	if _, err := c.Sync(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
