package blocklist

import (
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/flatblog/internal/metrics"
)

// DefaultMaxAge bounds how long a cached set is trusted when the file's
// modification time and size look unchanged.
const DefaultMaxAge = 2 * time.Second

type fileStamp struct {
	modTime time.Time
	size    int64
}

// Cache serves the current blocklist, re-reading the file only when its
// stamp changes or the cached copy is older than maxAge. Operator edits to
// the file therefore apply to the next request without a restart.
type Cache struct {
	store  *Store
	maxAge time.Duration
	now    func() time.Time

	mu       sync.Mutex
	set      Set
	stamp    fileStamp
	loadedAt time.Time
	loaded   bool

	group singleflight.Group
}

// NewCache wraps store. maxAge <= 0 disables the age bound, leaving the file
// stamp as the only invalidation signal.
func NewCache(store *Store, maxAge time.Duration) *Cache {
	return &Cache{store: store, maxAge: maxAge, now: time.Now}
}

// Store returns the underlying store.
func (c *Cache) Store() *Store {
	return c.store
}

// Current returns the blocklist in effect. The returned set must not be
// modified.
func (c *Cache) Current() Set {
	info, statErr := os.Stat(c.store.Path())

	c.mu.Lock()
	if c.loaded && statErr == nil && c.fresh(info) {
		set := c.set
		c.mu.Unlock()
		return set
	}
	c.mu.Unlock()

	v, _, _ := c.group.Do("reload", func() (interface{}, error) {
		return c.reload(), nil
	})
	return v.(Set)
}

func (c *Cache) fresh(info os.FileInfo) bool {
	if !info.ModTime().Equal(c.stamp.modTime) || info.Size() != c.stamp.size {
		return false
	}
	if c.maxAge > 0 && c.now().Sub(c.loadedAt) >= c.maxAge {
		return false
	}
	return true
}

func (c *Cache) reload() Set {
	// Stamp before loading so a write racing the read invalidates the result.
	// A missing file leaves a zero stamp, which never matches the file Load creates.
	var stamp fileStamp
	if info, err := os.Stat(c.store.Path()); err == nil {
		stamp = fileStamp{modTime: info.ModTime(), size: info.Size()}
	}

	set := c.store.Load()
	metrics.BlocklistReloads.Inc()
	metrics.BlockedAddresses.Set(float64(len(set)))

	c.mu.Lock()
	c.set = set
	c.stamp = stamp
	c.loadedAt = c.now()
	c.loaded = true
	c.mu.Unlock()

	return set
}

// Invalidate forces the next Current call to re-read the file.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.mu.Unlock()
}
