package cache

import (
	"sync"
	"time"
)

// MemoryCache is a process-local cache with TTL expiry. It backs the L1 tier
// of MultiLevelCache and the test configuration.
type MemoryCache struct {
	store sync.Map
	stop  chan struct{}
	once  sync.Once
}

type memoryItem struct {
	value      interface{}
	expiration time.Time
}

func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{stop: make(chan struct{})}
	go c.evictLoop()
	return c
}

func (c *MemoryCache) Set(key string, value interface{}, ttl time.Duration) error {
	c.store.Store(key, &memoryItem{
		value:      value,
		expiration: time.Now().Add(ttl),
	})
	return nil
}

func (c *MemoryCache) Get(key string, dest interface{}) error {
	value, found := c.lookup(key)
	if !found {
		return ErrCacheMiss
	}
	return copyValue(value, dest)
}

func (c *MemoryCache) lookup(key string) (interface{}, bool) {
	raw, exists := c.store.Load(key)
	if !exists {
		return nil, false
	}

	item := raw.(*memoryItem)
	if time.Now().After(item.expiration) {
		c.store.Delete(key)
		return nil, false
	}
	return item.value, true
}

func (c *MemoryCache) Exists(key string) (bool, error) {
	_, found := c.lookup(key)
	return found, nil
}

func (c *MemoryCache) Delete(key string) error {
	c.store.Delete(key)
	return nil
}

func (c *MemoryCache) DeletePattern(pattern string) error {
	c.store.Range(func(key, _ interface{}) bool {
		if matchPattern(key.(string), pattern) {
			c.store.Delete(key)
		}
		return true
	})
	return nil
}

func (c *MemoryCache) Stats() map[string]interface{} {
	count := 0
	c.store.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return map[string]interface{}{
		"items": count,
		"type":  "memory",
	}
}

func (c *MemoryCache) Health() error {
	return nil
}

func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

func (c *MemoryCache) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			c.store.Range(func(key, raw interface{}) bool {
				if now.After(raw.(*memoryItem).expiration) {
					c.store.Delete(key)
				}
				return true
			})
		}
	}
}
