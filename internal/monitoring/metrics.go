package monitoring

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Metrics aggregates request counters for the whole process. A single global
// instance backs the middleware and the /metrics endpoint.
type Metrics struct {
	mu              sync.RWMutex
	RequestCount    int64            `json:"request_count"`
	RequestDuration time.Duration    `json:"avg_request_duration"`
	ActiveRequests  int64            `json:"active_requests"`
	ErrorCount      int64            `json:"error_count"`
	StatusCodes     map[string]int64 `json:"status_codes"`
	Endpoints       map[string]int64 `json:"endpoints"`
	StartTime       time.Time        `json:"start_time"`
	LastRequest     time.Time        `json:"last_request"`
	totalDuration   time.Duration
}

var globalMetrics = &Metrics{
	StatusCodes: make(map[string]int64),
	Endpoints:   make(map[string]int64),
	StartTime:   time.Now(),
}

// MetricsMiddleware records per-request counters on the global metrics.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		globalMetrics.mu.Lock()
		globalMetrics.ActiveRequests++
		globalMetrics.mu.Unlock()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		endpoint := c.Request.Method + " " + c.FullPath()

		globalMetrics.mu.Lock()
		globalMetrics.ActiveRequests--
		globalMetrics.RequestCount++
		globalMetrics.totalDuration += duration
		globalMetrics.RequestDuration = globalMetrics.totalDuration / time.Duration(globalMetrics.RequestCount)
		globalMetrics.LastRequest = time.Now()
		globalMetrics.StatusCodes[http.StatusText(status)]++
		globalMetrics.Endpoints[endpoint]++
		if status >= http.StatusInternalServerError {
			globalMetrics.ErrorCount++
		}
		globalMetrics.mu.Unlock()
	}
}

// GetMetrics returns a consistent snapshot of the global metrics.
func GetMetrics() Metrics {
	globalMetrics.mu.RLock()
	defer globalMetrics.mu.RUnlock()

	snapshot := Metrics{
		RequestCount:    globalMetrics.RequestCount,
		RequestDuration: globalMetrics.RequestDuration,
		ActiveRequests:  globalMetrics.ActiveRequests,
		ErrorCount:      globalMetrics.ErrorCount,
		StatusCodes:     make(map[string]int64, len(globalMetrics.StatusCodes)),
		Endpoints:       make(map[string]int64, len(globalMetrics.Endpoints)),
		StartTime:       globalMetrics.StartTime,
		LastRequest:     globalMetrics.LastRequest,
		totalDuration:   globalMetrics.totalDuration,
	}
	for k, v := range globalMetrics.StatusCodes {
		snapshot.StatusCodes[k] = v
	}
	for k, v := range globalMetrics.Endpoints {
		snapshot.Endpoints[k] = v
	}
	return snapshot
}

type MemoryMetrics struct {
	Alloc      uint64 `json:"alloc_mb"`
	TotalAlloc uint64 `json:"total_alloc_mb"`
	Sys        uint64 `json:"sys_mb"`
	NumGC      uint32 `json:"num_gc"`
}

type SystemMetrics struct {
	Uptime         time.Duration `json:"uptime"`
	GoroutineCount int           `json:"goroutine_count"`
	CPUCount       int           `json:"cpu_count"`
	GoVersion      string        `json:"go_version"`
	MemoryUsage    MemoryMetrics `json:"memory_usage"`
}

func GetSystemMetrics() SystemMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	globalMetrics.mu.RLock()
	start := globalMetrics.StartTime
	globalMetrics.mu.RUnlock()

	return SystemMetrics{
		Uptime:         time.Since(start),
		GoroutineCount: runtime.NumGoroutine(),
		CPUCount:       runtime.NumCPU(),
		GoVersion:      runtime.Version(),
		MemoryUsage: MemoryMetrics{
			Alloc:      bToMb(m.Alloc),
			TotalAlloc: bToMb(m.TotalAlloc),
			Sys:        bToMb(m.Sys),
			NumGC:      m.NumGC,
		},
	}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}

// HealthCheck holds a registered probe and its last evaluated result.
type HealthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`

	check func(context.Context) error
}

type healthChecker struct {
	mu     sync.RWMutex
	checks map[string]HealthCheck
}

var globalHealthChecker = &healthChecker{
	checks: make(map[string]HealthCheck),
}

// RegisterHealthCheck adds a named probe evaluated on every health request.
func RegisterHealthCheck(name string, check func(context.Context) error) {
	globalHealthChecker.mu.Lock()
	defer globalHealthChecker.mu.Unlock()
	globalHealthChecker.checks[name] = HealthCheck{Name: name, check: check}
}

// RunHealthChecks evaluates every registered probe with a short timeout.
func RunHealthChecks() map[string]HealthCheck {
	globalHealthChecker.mu.RLock()
	registered := make([]HealthCheck, 0, len(globalHealthChecker.checks))
	for _, hc := range globalHealthChecker.checks {
		registered = append(registered, hc)
	}
	globalHealthChecker.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results := make(map[string]HealthCheck, len(registered))
	for _, hc := range registered {
		result := HealthCheck{Name: hc.Name, Status: "healthy"}
		if err := hc.check(ctx); err != nil {
			result.Status = "unhealthy"
			result.Message = err.Error()
		}
		results[hc.Name] = result
	}
	return results
}

// MetricsHandler serves application and system metrics as JSON.
func MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"application": GetMetrics(),
			"system":      GetSystemMetrics(),
			"timestamp":   time.Now().UTC(),
		})
	}
}

// HealthHandler reports 200 when every registered check passes, 503 otherwise.
func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := RunHealthChecks()

		status := "healthy"
		code := http.StatusOK
		for _, check := range checks {
			if check.Status != "healthy" {
				status = "unhealthy"
				code = http.StatusServiceUnavailable
				break
			}
		}

		c.JSON(code, gin.H{
			"status":    status,
			"checks":    checks,
			"timestamp": time.Now().UTC(),
		})
	}
}

// ReadinessHandler mirrors HealthHandler with ready/not ready wording for
// orchestrator readiness probes.
func ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := RunHealthChecks()

		status := "ready"
		code := http.StatusOK
		for _, check := range checks {
			if check.Status != "healthy" {
				status = "not ready"
				code = http.StatusServiceUnavailable
				break
			}
		}

		c.JSON(code, gin.H{
			"status": status,
			"checks": checks,
		})
	}
}

// LivenessHandler always reports alive; it only proves the process responds.
func LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		globalMetrics.mu.RLock()
		start := globalMetrics.StartTime
		globalMetrics.mu.RUnlock()

		c.JSON(http.StatusOK, gin.H{
			"status": "alive",
			"uptime": time.Since(start).String(),
		})
	}
}
