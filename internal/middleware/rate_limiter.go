package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiter returns a per-client-IP in-process limiter. It is intended for
// single-instance deployments; use DistributedRateLimiter when running more
// than one API replica behind a load balancer.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		visitors = make(map[string]*rate.Limiter)
	)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		limiter, ok := visitors[ip]
		if !ok {
			limiter = rate.NewLimiter(r, b)
			visitors[ip] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests",
			})
			return
		}
		c.Next()
	}
}

// RateLimit describes one named limit enforced by the distributed limiter.
type RateLimit struct {
	Rate    int
	Window  time.Duration
	KeyFunc func(*gin.Context) string
	OnLimit func(*gin.Context)
}

// DistributedRateLimiter enforces sliding-window limits in Redis so that all
// API replicas share the same counters.
type DistributedRateLimiter struct {
	redis  *redis.Client
	limits map[string]*RateLimit
	mu     sync.RWMutex
}

func NewDistributedRateLimiter(client *redis.Client) *DistributedRateLimiter {
	return &DistributedRateLimiter{
		redis:  client,
		limits: make(map[string]*RateLimit),
	}
}

// CreateMiddleware registers the limit under name and returns the middleware
// enforcing it. If Redis is unreachable the request is allowed through with an
// X-RateLimit-Error header so that an outage never takes the API down with it.
func (rl *DistributedRateLimiter) CreateMiddleware(name string, limit *RateLimit) gin.HandlerFunc {
	rl.mu.Lock()
	rl.limits[name] = limit
	rl.mu.Unlock()

	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s:%s", name, limit.KeyFunc(c))

		allowed, err := rl.allow(c, key, limit)
		if err != nil {
			c.Header("X-RateLimit-Error", "true")
			c.Next()
			return
		}

		if !allowed {
			if limit.OnLimit != nil {
				limit.OnLimit(c)
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": limit.Window.Seconds(),
			})
			return
		}
		c.Next()
	}
}

func (rl *DistributedRateLimiter) allow(c *gin.Context, key string, limit *RateLimit) (bool, error) {
	ctx := c.Request.Context()
	now := time.Now()
	windowStart := now.Add(-limit.Window)

	pipe := rl.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart.UnixNano()))
	count := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	if count.Val() >= int64(limit.Rate) {
		return false, nil
	}

	pipe = rl.redis.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})
	pipe.Expire(ctx, key, limit.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// IPKeyFunc buckets requests by client IP.
func IPKeyFunc(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// UserKeyFunc buckets requests by the authenticated user, falling back to the
// client IP for anonymous requests.
func UserKeyFunc(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		return fmt.Sprintf("user:%v", userID)
	}
	return IPKeyFunc(c)
}

// APIKeyFunc buckets requests by the X-API-Key header, falling back to the
// client IP when the header is absent.
func APIKeyFunc(c *gin.Context) string {
	if apiKey := c.GetHeader("X-API-Key"); apiKey != "" {
		return "api_key:" + apiKey
	}
	return IPKeyFunc(c)
}

// CircuitBreaker trips after maxFailures consecutive failures and rejects
// calls until resetTime has elapsed, then probes with a single call.
type CircuitBreaker struct {
	mu          sync.Mutex
	maxFailures int
	resetTime   time.Duration
	failures    int
	lastFailure time.Time
	state       string
}

func NewCircuitBreaker(maxFailures int, resetTime time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures: maxFailures,
		resetTime:   resetTime,
		state:       "closed",
	}
}

func (cb *CircuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	if cb.state == "open" {
		if time.Since(cb.lastFailure) < cb.resetTime {
			cb.mu.Unlock()
			return fmt.Errorf("circuit breaker is open")
		}
		cb.state = "half-open"
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.failures++
		cb.lastFailure = time.Now()
		if cb.failures >= cb.maxFailures {
			cb.state = "open"
		}
		return err
	}

	cb.failures = 0
	cb.state = "closed"
	return nil
}
