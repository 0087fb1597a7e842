package cache

import (
	"context"
	"sync"
	"time"
)

const sweepInterval = time.Minute

// InMemoryCache is a process-local Cache. Expired entries are hidden on read
// and removed by a background sweep until Close is called.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	done    chan struct{}
	closed  sync.Once
}

type entry struct {
	value    []byte
	deadline time.Time
}

func (e entry) live(now time.Time) bool {
	return e.deadline.IsZero() || now.Before(e.deadline)
}

func NewInMemoryCache() *InMemoryCache {
	c := &InMemoryCache{
		entries: make(map[string]entry),
		done:    make(chan struct{}),
	}
	go c.sweepLoop(sweepInterval)
	return c
}

func (c *InMemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !e.live(time.Now()) {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key. A non-positive ttl never expires.
func (c *InMemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.deadline = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

func (c *InMemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *InMemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
	return nil
}

func (c *InMemoryCache) Close() error {
	c.closed.Do(func() { close(c.done) })
	return nil
}

func (c *InMemoryCache) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			c.sweep(now)
		}
	}
}

func (c *InMemoryCache) sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if !e.live(now) {
			delete(c.entries, key)
		}
	}
}
