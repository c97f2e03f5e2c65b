// Package health provides automated health checks for the raster dispatcher
// daemon: telemetry store reachability, dispatcher loop liveness, and a
// worker pool busy-count sanity check, each with an optional recovery action.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tutu-network/rasterq/internal/infra/metrics"
	"github.com/tutu-network/rasterq/internal/infra/sqlite"
)

// Check defines a single health check with optional recovery action.
type Check struct {
	Name      string
	CheckFn   func(ctx context.Context) error
	RecoverFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs periodic health checks with auto-recovery.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
}

// HeartbeatMaxAge is how stale the dispatcher's last heartbeat may be before
// the "dispatcher" check reports unhealthy.
const HeartbeatMaxAge = 5 * time.Second

// dispatcherHeartbeatKey is the daemon_state key the dispatch loop refreshes
// on each empty-queue poll.
const dispatcherHeartbeatKey = "dispatcher_heartbeat_unix"

// NewChecker creates a health checker with the standard 3 checks: telemetry
// store reachability, dispatcher loop liveness, and a worker pool check that
// fails only when busy reports more workers than numWorkers.
// busy reports the number of workers currently rasterizing a tile.
func NewChecker(db *sqlite.DB, busy func() int64, numWorkers int) *Checker {
	return &Checker{
		interval: 15 * time.Second,
		checks: []Check{
			{
				Name: "telemetry_store",
				CheckFn: func(ctx context.Context) error {
					return db.Ping()
				},
				RecoverFn: func(ctx context.Context) error {
					return nil // SQLite auto-recovers via WAL
				},
			},
			{
				Name: "dispatcher",
				CheckFn: func(ctx context.Context) error {
					return checkDispatcherHeartbeat(db)
				},
			},
			{
				Name: "worker_pool",
				CheckFn: func(ctx context.Context) error {
					return checkWorkerPool(busy, numWorkers)
				},
			},
		},
	}
}

// Run starts the health check loop. Call in a goroutine.
func (c *Checker) Run(ctx context.Context) {
	c.runAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runAll(ctx)
		}
	}
}

func (c *Checker) runAll(ctx context.Context) {
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{
			Name:      check.Name,
			CheckedAt: time.Now(),
		}
		if err := check.CheckFn(ctx); err != nil {
			s.Healthy = false
			s.Error = err.Error()
			metrics.HealthCheckStatus.WithLabelValues(check.Name).Set(0)
			if check.RecoverFn != nil {
				if recErr := check.RecoverFn(ctx); recErr == nil {
					metrics.HealthRecoveries.WithLabelValues(check.Name).Inc()
				}
			}
		} else {
			s.Healthy = true
			metrics.HealthCheckStatus.WithLabelValues(check.Name).Set(1)
		}
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if all checks pass.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// ─── Check Implementations ──────────────────────────────────────────────────

func checkDispatcherHeartbeat(db *sqlite.DB) error {
	raw, err := db.DaemonState(dispatcherHeartbeatKey)
	if err != nil {
		return fmt.Errorf("read heartbeat: %w", err)
	}
	if raw == "" {
		return nil // Dispatcher hasn't ticked yet; not a failure on its own.
	}
	var unix int64
	if _, err := fmt.Sscanf(raw, "%d", &unix); err != nil {
		return fmt.Errorf("parse heartbeat: %w", err)
	}
	age := time.Since(time.Unix(unix, 0))
	if age > HeartbeatMaxAge {
		return fmt.Errorf("dispatcher heartbeat is %s old, want < %s", age, HeartbeatMaxAge)
	}
	return nil
}

func checkWorkerPool(busy func() int64, numWorkers int) error {
	if busy == nil {
		return nil
	}
	if n := busy(); n > int64(numWorkers) {
		return fmt.Errorf("worker pool reports %d busy workers, only %d configured", n, numWorkers)
	}
	return nil
}

// RecordHeartbeat updates the dispatcher heartbeat. The daemon calls it from
// the pool's OnIdleTick hook, once per empty-queue poll of the goroutine
// that owns the queue.
func RecordHeartbeat(db *sqlite.DB) error {
	return db.SetDaemonState(dispatcherHeartbeatKey, fmt.Sprintf("%d", time.Now().Unix()))
}
