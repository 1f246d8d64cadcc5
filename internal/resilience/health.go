package resilience

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "HEALTHY"
	HealthStatusDegraded  HealthStatus = "DEGRADED"
	HealthStatusUnhealthy HealthStatus = "UNHEALTHY"
)

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Name    string                 `json:"name"`
	Status  HealthStatus           `json:"status"`
	Message string                 `json:"message,omitempty"`
	Latency time.Duration          `json:"latency"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthCheck represents a health check function.
type HealthCheck func(ctx context.Context) ComponentHealth

// SystemHealth is the aggregate of every registered check.
type SystemHealth struct {
	Status     HealthStatus      `json:"status"`
	Uptime     string            `json:"uptime"`
	Components []ComponentHealth `json:"components"`
}

// HealthChecker runs registered component checks on demand.
type HealthChecker struct {
	mu         sync.RWMutex
	startTime  time.Time
	components map[string]HealthCheck
}

// NewHealthChecker creates an empty checker.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		startTime:  time.Now(),
		components: make(map[string]HealthCheck),
	}
}

// RegisterComponent registers a health check for a component.
func (h *HealthChecker) RegisterComponent(name string, check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.components[name] = check
}

// Check runs every check. The worst component status becomes the overall status.
func (h *HealthChecker) Check(ctx context.Context) SystemHealth {
	h.mu.RLock()
	names := make([]string, 0, len(h.components))
	for name := range h.components {
		names = append(names, name)
	}
	checks := make(map[string]HealthCheck, len(h.components))
	for k, v := range h.components {
		checks[k] = v
	}
	h.mu.RUnlock()
	sort.Strings(names)

	out := SystemHealth{
		Status: HealthStatusHealthy,
		Uptime: time.Since(h.startTime).Round(time.Second).String(),
	}
	for _, name := range names {
		c := checks[name](ctx)
		c.Name = name
		out.Components = append(out.Components, c)
		switch {
		case c.Status == HealthStatusUnhealthy:
			out.Status = HealthStatusUnhealthy
		case c.Status == HealthStatusDegraded && out.Status == HealthStatusHealthy:
			out.Status = HealthStatusDegraded
		}
	}
	return out
}

// DatabaseHealthCheck creates a health check for database connections.
func DatabaseHealthCheck(ping func(ctx context.Context) error) HealthCheck {
	return func(ctx context.Context) ComponentHealth {
		start := time.Now()
		err := ping(ctx)
		health := ComponentHealth{Latency: time.Since(start)}

		switch {
		case err != nil:
			health.Status = HealthStatusUnhealthy
			health.Message = fmt.Sprintf("Database ping failed: %v", err)
		case health.Latency > 100*time.Millisecond:
			health.Status = HealthStatusDegraded
			health.Message = fmt.Sprintf("Database slow: %v", health.Latency)
		default:
			health.Status = HealthStatusHealthy
		}
		return health
	}
}

// BreakerHealthCheck reports an open circuit as degraded: analyses still
// succeed through the fallback path.
func BreakerHealthCheck(cb *CircuitBreaker, configured bool) HealthCheck {
	return func(ctx context.Context) ComponentHealth {
		if !configured {
			return ComponentHealth{
				Status:  HealthStatusDegraded,
				Message: "No API key configured, analyses use the offline rules",
			}
		}
		if cb == nil {
			return ComponentHealth{Status: HealthStatusHealthy}
		}
		stats := cb.Stats()
		health := ComponentHealth{
			Status: HealthStatusHealthy,
			Details: map[string]interface{}{
				"state":        stats.State,
				"failure_rate": stats.FailureRate(),
				"rejected":     stats.TotalRejected,
			},
		}
		if stats.State != CircuitClosed {
			health.Status = HealthStatusDegraded
			health.Message = fmt.Sprintf("Circuit %s is %s", stats.Name, stats.State)
		}
		return health
	}
}
