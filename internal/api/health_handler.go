package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ignite/customer-match/internal/pkg/httputil"
)

// HealthStatus represents the overall health of the service.
type HealthStatus struct {
	Status  string                    `json:"status"` // "healthy", "degraded", "unhealthy"
	Version string                    `json:"version"`
	Uptime  string                    `json:"uptime"`
	Checks  map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck represents the health of a single component.
type ComponentCheck struct {
	Status  string `json:"status"` // "up", "down", "degraded"
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// Check probes one dependency. A nil error means the dependency is usable.
type Check func(ctx context.Context) error

type namedCheck struct {
	name     string
	critical bool
	check    Check
}

// HealthChecker runs the registered dependency checks.
type HealthChecker struct {
	checks    []namedCheck
	startTime time.Time
}

// NewHealthChecker creates a HealthChecker with no checks registered.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{startTime: time.Now()}
}

// Register adds a check. When a critical check is down the service reports
// itself unhealthy; other failures only degrade it.
func (hc *HealthChecker) Register(name string, critical bool, check Check) {
	hc.checks = append(hc.checks, namedCheck{name: name, critical: critical, check: check})
}

const healthVersion = "1.0.0"

// HandleHealth returns the health of every registered component.
//
//	GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := hc.runAllChecks(r.Context())

	// Always 200; the status field carries the verdict. /health/ready is
	// the probe that answers 503.
	httputil.OK(w, HealthStatus{
		Status:  hc.determineOverallStatus(checks),
		Version: healthVersion,
		Uptime:  formatUptime(time.Since(hc.startTime)),
		Checks:  checks,
	})
}

// HandleLiveness always returns 200 while the process is running.
//
//	GET /health/live
func (hc *HealthChecker) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{
		"status": "alive",
		"uptime": formatUptime(time.Since(hc.startTime)),
	})
}

// HandleReadiness returns 200 unless a critical dependency is down.
//
//	GET /health/ready
func (hc *HealthChecker) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks := hc.runAllChecks(r.Context())
	overall := hc.determineOverallStatus(checks)

	ready := overall != "unhealthy"
	httpStatus := http.StatusOK
	if !ready {
		httpStatus = http.StatusServiceUnavailable
	}

	httputil.JSON(w, httpStatus, map[string]interface{}{
		"ready":  ready,
		"status": overall,
		"checks": checks,
	})
}

// runAllChecks runs every check concurrently, each with a 3-second timeout.
func (hc *HealthChecker) runAllChecks(ctx context.Context) map[string]ComponentCheck {
	checks := make(map[string]ComponentCheck, len(hc.checks))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, c := range hc.checks {
		wg.Add(1)
		go func(c namedCheck) {
			defer wg.Done()
			result := runCheck(ctx, c.check)
			mu.Lock()
			checks[c.name] = result
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	return checks
}

func runCheck(ctx context.Context, check Check) ComponentCheck {
	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	start := time.Now()
	err := check(checkCtx)
	latency := time.Since(start)

	if err != nil {
		return ComponentCheck{
			Status:  "down",
			Latency: latency.String(),
			Message: fmt.Sprintf("check failed: %v", err),
		}
	}

	if latency > 1*time.Second {
		return ComponentCheck{
			Status:  "degraded",
			Latency: latency.String(),
			Message: fmt.Sprintf("slow response (%s)", latency),
		}
	}

	return ComponentCheck{Status: "up", Latency: latency.String(), Message: "ok"}
}

// determineOverallStatus derives the aggregate status from individual checks.
//
// Rules:
//   - "unhealthy" if a critical check is down
//   - "degraded"  if any other check is degraded or down
//   - "healthy"   otherwise
func (hc *HealthChecker) determineOverallStatus(checks map[string]ComponentCheck) string {
	overall := "healthy"
	for _, c := range hc.checks {
		result, ok := checks[c.name]
		if !ok {
			continue
		}
		if result.Status == "down" && c.critical {
			return "unhealthy"
		}
		if result.Status != "up" {
			overall = "degraded"
		}
	}
	return overall
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
