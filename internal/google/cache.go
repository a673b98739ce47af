package google

import (
	"sync"
	"time"
)

// resultCache is a thread-safe LRU of PageSpeed results with a per-entry TTL.
type resultCache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*cacheEntry
	order   []string // oldest first
}

type cacheEntry struct {
	result  *PageSpeedResult
	expires time.Time
}

func newResultCache(maxSize int, ttl time.Duration, now func() time.Time) *resultCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if now == nil {
		now = time.Now
	}
	return &resultCache{
		maxSize: maxSize,
		ttl:     ttl,
		now:     now,
		entries: make(map[string]*cacheEntry),
	}
}

// get returns the cached result for url, or nil if absent or expired.
func (c *resultCache) get(url string) *PageSpeedResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[url]
	if !ok {
		return nil
	}
	if !c.now().Before(entry.expires) {
		delete(c.entries, url)
		c.remove(url)
		return nil
	}

	c.moveToEnd(url)
	return entry.result
}

// put stores a result, evicting the least recently used entry when full.
func (c *resultCache) put(url string, res *PageSpeedResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &cacheEntry{result: res, expires: c.now().Add(c.ttl)}
	if _, ok := c.entries[url]; ok {
		c.entries[url] = entry
		c.moveToEnd(url)
		return
	}

	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[url] = entry
	c.order = append(c.order, url)
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *resultCache) moveToEnd(url string) {
	if c.remove(url) {
		c.order = append(c.order, url)
	}
}

func (c *resultCache) remove(url string) bool {
	for i, k := range c.order {
		if k == url {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return true
		}
	}
	return false
}
