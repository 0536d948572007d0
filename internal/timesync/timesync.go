// Package timesync sets the device clock from an NTP server.
package timesync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beevik/ntp"
	"github.com/sidekick64/sidekicknet/common"
	"github.com/sidekick64/sidekicknet/pkg/logger"
)

const (
	DefaultHost    = "pool.ntp.org"
	DefaultTimeout = 3 * time.Second
)

var ErrNoHost = errors.New("timesync: no ntp host configured")

// QueryFunc matches ntp.QueryWithOptions.
type QueryFunc func(host string, opt ntp.QueryOptions) (*ntp.Response, error)

// Result is one successful synchronization.
type Result struct {
	Time   time.Time
	Offset time.Duration
	RTT    time.Duration
}

// Clock queries an NTP server.
type Clock struct {
	host    string
	timeout time.Duration
	query   QueryFunc
	log     logger.Logger
}

// New creates a clock that queries host.
func New(host string, timeout time.Duration, l logger.Logger) *Clock {
	return NewWithQuery(host, timeout, ntp.QueryWithOptions, l)
}

// NewWithQuery creates a clock with a custom query function.
func NewWithQuery(host string, timeout time.Duration, q QueryFunc, l logger.Logger) *Clock {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Clock{host: host, timeout: timeout, query: q, log: l}
}

// Host returns the NTP server name.
func (c *Clock) Host() string { return c.host }

// Sync queries the server once. The deadline of ctx shortens the query
// timeout.
func (c *Clock) Sync(ctx context.Context) (Result, error) {
	if c.host == "" {
		return Result{}, common.NewNetError(common.KindConnectivity, "time sync", ErrNoHost)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, common.NewNetError(common.KindConnectivity, "time sync", err)
	}
	timeout := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}

	resp, err := c.query(c.host, ntp.QueryOptions{Timeout: timeout})
	if err == nil {
		err = resp.Validate()
	}
	if err != nil {
		c.log.Warning("time sync with %s failed: %v", c.host, err)
		return Result{}, common.NewNetError(common.KindConnectivity, "time sync "+c.host, err)
	}
	r := Result{Time: resp.Time, Offset: resp.ClockOffset, RTT: resp.RTT}
	c.log.Info("time sync with %s: offset %s", c.host, r.Offset)
	return r, nil
}

// String describes the clock for log lines.
func (c *Clock) String() string {
	return fmt.Sprintf("ntp://%s", c.host)
}
