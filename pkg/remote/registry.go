package remote

import (
	"sort"
	"strings"
)

// Registry maps host names to resolved targets. One host is the default
// target used when a download pointer names an unknown host.
type Registry struct {
	targets  map[string]Target
	fallback string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{targets: make(map[string]Target)}
}

func key(host string) string {
	return strings.ToLower(strings.TrimSpace(host))
}

// Put adds or replaces the target for t.HostName.
func (r *Registry) Put(t Target) {
	r.targets[key(t.HostName)] = t
}

// Remove drops the target for host.
func (r *Registry) Remove(host string) {
	delete(r.targets, key(host))
}

// Lookup finds the target for host. Host names compare case-insensitively.
func (r *Registry) Lookup(host string) (Target, bool) {
	t, ok := r.targets[key(host)]
	return t, ok
}

// SetDefault marks host as the fallback target.
func (r *Registry) SetDefault(host string) {
	r.fallback = key(host)
}

// Default returns the fallback target, if one is registered.
func (r *Registry) Default() (Target, bool) {
	if r.fallback == "" {
		return Target{}, false
	}
	return r.Lookup(r.fallback)
}

// Names returns the registered host names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.targets))
	for name := range r.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered targets.
func (r *Registry) Len() int {
	return len(r.targets)
}
