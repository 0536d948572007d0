package storage

import (
	"sync"

	"github.com/sidekick64/sidekicknet/pkg/logger"
)

// CacheScope is the cache wellness bracket: Enter before moving data
// between caches that are not coherent, Leave afterwards.
type CacheScope interface {
	Enter()
	Leave()
}

// Bracket runs fn inside the scope. Leave runs on every return path.
func Bracket(c CacheScope, fn func() error) error {
	c.Enter()
	defer c.Leave()
	return fn()
}

// CacheTracker is a CacheScope that counts brackets. Hosts without
// incoherent caches use it to check pairing.
type CacheTracker struct {
	mu      sync.Mutex
	depth   int
	entered int
	left    int
	log     logger.Logger
}

// NewCacheTracker creates a tracker that logs unbalanced leaves to l.
func NewCacheTracker(l logger.Logger) *CacheTracker {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &CacheTracker{log: l}
}

func (c *CacheTracker) Enter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.depth++
	c.entered++
}

func (c *CacheTracker) Leave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.depth == 0 {
		c.log.Warning("cache scope left without being entered")
		return
	}
	c.depth--
	c.left++
}

// Depth returns the number of open brackets.
func (c *CacheTracker) Depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.depth
}

// Counts returns how often the scope was entered and left.
func (c *CacheTracker) Counts() (entered, left int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entered, c.left
}

var _ CacheScope = (*CacheTracker)(nil)
