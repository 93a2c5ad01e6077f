package cache

import (
	"context"
	"sync"
	"time"
)

// entry holds a cached string value with an optional expiry.
type entry struct {
	data     string
	expireAt time.Time
	noExpiry bool
}

func (e *entry) expired() bool {
	return !e.noExpiry && time.Now().After(e.expireAt)
}

// MemoryCache is an in-process Cache with lazy expiry and a background
// sweep.
type MemoryCache struct {
	kv     sync.Map // key → *entry
	stopGC chan struct{}
}

// NewMemoryCache creates a MemoryCache and starts its GC goroutine.
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{stopGC: make(chan struct{})}
	go c.runGC()
	return c
}

// Close stops the background GC goroutine.
func (c *MemoryCache) Close() {
	close(c.stopGC)
}

func (c *MemoryCache) runGC() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.kv.Range(func(k, v interface{}) bool {
				if e, ok := v.(*entry); ok && e.expired() {
					c.kv.Delete(k)
				}
				return true
			})
		case <-c.stopGC:
			return
		}
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, error) {
	v, ok := c.kv.Load(key)
	if !ok {
		return "", ErrNotFound
	}
	e := v.(*entry)
	if e.expired() {
		c.kv.Delete(key)
		return "", ErrNotFound
	}
	return e.data, nil
}

func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := &entry{data: value}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	} else {
		e.noExpiry = true
	}
	c.kv.Store(key, e)
	return nil
}

func (c *MemoryCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.kv.Delete(k)
	}
	return nil
}
