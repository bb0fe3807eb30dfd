package cache

import (
	"errors"
	"time"
)

// MultiLevelCache layers a process-local MemoryCache over a shared RedisCache.
// L1 hits never touch Redis; L2 hits are promoted into L1 with a short TTL.
// Redis failures degrade the cache instead of failing the caller.
type MultiLevelCache struct {
	l1      *MemoryCache
	l2      *RedisCache
	metrics *CacheMetrics
}

const l1PromoteTTL = 5 * time.Minute

func NewMultiLevelCache(redisCache *RedisCache) *MultiLevelCache {
	return &MultiLevelCache{
		l1:      NewMemoryCache(),
		l2:      redisCache,
		metrics: NewCacheMetrics(),
	}
}

func (c *MultiLevelCache) Set(key string, value interface{}, ttl time.Duration) error {
	c.l1.Set(key, value, ttl)
	c.metrics.RecordSet()

	if c.l2 != nil {
		if err := c.l2.Set(key, value, ttl); err != nil {
			c.metrics.RecordError()
		}
	}
	return nil
}

func (c *MultiLevelCache) Get(key string, dest interface{}) error {
	if value, found := c.l1.lookup(key); found {
		c.metrics.RecordHit()
		return copyValue(value, dest)
	}

	if c.l2 != nil {
		err := c.l2.Get(key, dest)
		if err == nil {
			c.metrics.RecordHit()
			c.l1.Set(key, dest, l1PromoteTTL)
			return nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.metrics.RecordError()
		}
	}

	c.metrics.RecordMiss()
	return ErrCacheMiss
}

func (c *MultiLevelCache) Delete(key string) error {
	c.l1.Delete(key)
	c.metrics.RecordDelete()

	if c.l2 != nil {
		if err := c.l2.Delete(key); err != nil {
			c.metrics.RecordError()
			return err
		}
	}
	return nil
}

func (c *MultiLevelCache) DeletePattern(pattern string) error {
	c.l1.DeletePattern(pattern)
	if c.l2 != nil {
		return c.l2.DeletePattern(pattern)
	}
	return nil
}

func (c *MultiLevelCache) Exists(key string) (bool, error) {
	if _, found := c.l1.lookup(key); found {
		return true, nil
	}
	if c.l2 != nil {
		return c.l2.Exists(key)
	}
	return false, nil
}

func (c *MultiLevelCache) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"l1":               c.l1.Stats(),
		"metrics":          c.metrics.GetStats(),
		"hit_rate_percent": c.metrics.HitRate(),
	}
	if c.l2 != nil {
		stats["l2"] = c.l2.Stats()
	}
	return stats
}

func (c *MultiLevelCache) Health() error {
	if c.l2 != nil {
		return c.l2.Health()
	}
	return nil
}

func (c *MultiLevelCache) Close() error {
	c.l1.Close()
	if c.l2 != nil {
		return c.l2.Close()
	}
	return nil
}

func (c *MultiLevelCache) GetMetrics() *CacheMetrics {
	return c.metrics
}
