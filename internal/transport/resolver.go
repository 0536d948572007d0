package transport

import (
	"context"
	"fmt"
	"net"
	"net/netip"

	"github.com/sidekick64/sidekicknet/common"
	"github.com/sidekick64/sidekicknet/pkg/logger"
)

// LookupFunc matches (*net.Resolver).LookupNetIP.
type LookupFunc func(ctx context.Context, network, host string) ([]netip.Addr, error)

// Resolver looks up IPv4 addresses with retries.
type Resolver struct {
	lookup LookupFunc
	retry  RetryPolicy
	log    logger.Logger
}

// NewResolver uses the system resolver and DefaultResolveRetry.
func NewResolver(l logger.Logger) *Resolver {
	return NewResolverWith(net.DefaultResolver.LookupNetIP, DefaultResolveRetry(), l)
}

// NewResolverWith builds a resolver around lookup.
func NewResolverWith(lookup LookupFunc, retry RetryPolicy, l logger.Logger) *Resolver {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Resolver{lookup: lookup, retry: retry, log: l}
}

// Resolve returns the first IPv4 address of host. IP literals are returned
// as they are. Failures are wrapped in a common.NetError of KindResolution.
func (r *Resolver) Resolve(ctx context.Context, host string) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr, nil
	}
	var found netip.Addr
	err := r.retry.Do(ctx, func(attempt int) error {
		addrs, err := r.lookup(ctx, "ip4", host)
		if err != nil {
			r.log.Warning("resolve %s failed (attempt %d/%d): %v", host, attempt, r.retry.Attempts, err)
			return err
		}
		if len(addrs) == 0 {
			return fmt.Errorf("no addresses for %s", host)
		}
		found = addrs[0].Unmap()
		return nil
	})
	if err != nil {
		return netip.Addr{}, common.NewNetError(common.KindResolution, "resolve "+host, err)
	}
	r.log.Info("resolved %s as %s", host, found)
	return found, nil
}
