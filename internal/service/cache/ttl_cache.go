package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	v   []byte
	exp time.Time
}

// TTLCache is the single-instance BytesCache.
type TTLCache struct {
	mu  sync.RWMutex
	m   map[string]entry
	max int
}

// NewTTLCache keeps at most max entries; max <= 0 means unbounded.
func NewTTLCache(max int) *TTLCache {
	return &TTLCache{m: make(map[string]entry), max: max}
}

func (c *TTLCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.v, true, nil
}

func (c *TTLCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[key]; !ok && c.max > 0 && len(c.m) >= c.max {
		c.purge(time.Now())
	}
	c.m[key] = entry{v: value, exp: exp}
	return nil
}

// purge drops expired entries, then everything if the cache is still full. Caller holds mu.
func (c *TTLCache) purge(now time.Time) {
	for k, e := range c.m {
		if !e.exp.IsZero() && now.After(e.exp) {
			delete(c.m, k)
		}
	}
	if len(c.m) >= c.max {
		c.m = make(map[string]entry)
	}
}
