package api

import (
	"sync"
	"time"
)

type cacheEntry struct {
	expires time.Time
	resp    *Response
}

// responseCache ограниченный по размеру кэш ответов GET с TTL.
// При переполнении вытесняется самая старая запись.
type responseCache struct {
	entries map[string]*cacheEntry
	now     func() time.Time
	order   []string
	ttl     time.Duration
	size    int
	mu      sync.Mutex
}

func newResponseCache(ttl time.Duration, size int, now func() time.Time) *responseCache {
	return &responseCache{
		entries: make(map[string]*cacheEntry),
		now:     now,
		ttl:     ttl,
		size:    size,
	}
}

func (c *responseCache) enabled() bool {
	return c != nil && c.ttl > 0 && c.size > 0
}

func (c *responseCache) get(key string) (*Response, bool) {
	if !c.enabled() {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		c.removeLocked(key)
		return nil, false
	}
	return e.resp.clone(), true
}

func (c *responseCache) put(key string, resp *Response) {
	if !c.enabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.removeLocked(key)
	}
	for len(c.order) >= c.size {
		c.removeLocked(c.order[0])
	}

	c.entries[key] = &cacheEntry{resp: resp.clone(), expires: c.now().Add(c.ttl)}
	c.order = append(c.order, key)
}

// clear удаляет все записи
func (c *responseCache) clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = nil
}

func (c *responseCache) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *responseCache) removeLocked(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
