// Package metrics provides Prometheus metrics for the raster tile
// dispatcher.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Dispatch ───────────────────────────────────────────────────────────────

// TilesEmitted tracks tiles handed out by the priority queue, by bin and
// resolution.
var TilesEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rasterq",
	Name:      "tiles_emitted_total",
	Help:      "Total tiles popped from the raster tile priority queue.",
}, []string{"bin", "resolution"})

// PopLatency tracks time spent inside RasterTilePriorityQueue.Pop.
var PopLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "rasterq",
	Name:      "pop_latency_seconds",
	Help:      "Latency of a single priority queue Pop call.",
	Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
})

// QueueDepth tracks the number of layer pairs currently tracked by the
// priority queue, including empty ones.
var QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "rasterq",
	Name:      "queue_depth",
	Help:      "Number of layer pairs tracked by the priority queue.",
})

// ─── Workers ────────────────────────────────────────────────────────────────

// WorkersBusy tracks how many raster workers are currently rasterizing a
// tile.
var WorkersBusy = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "rasterq",
	Name:      "workers_busy",
	Help:      "Number of worker goroutines currently rasterizing a tile.",
})

// RasterizeDuration tracks time spent rasterizing one tile.
var RasterizeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "rasterq",
	Name:      "rasterize_duration_seconds",
	Help:      "Time spent rasterizing a single tile.",
	Buckets:   prometheus.DefBuckets,
}, []string{"outcome"})

// ─── Retry ──────────────────────────────────────────────────────────────────

// RetryScheduled tracks tiles rescheduled after a failed rasterization.
var RetryScheduled = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "rasterq",
	Name:      "retry_scheduled_total",
	Help:      "Total tiles rescheduled after a failed rasterization attempt.",
})

// RetryExhausted tracks tiles dropped after exhausting their retry budget.
var RetryExhausted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "rasterq",
	Name:      "retry_exhausted_total",
	Help:      "Total tiles dropped after exhausting MaxRetries.",
})

// RetryQueueDepth tracks tiles currently awaiting a retry attempt.
var RetryQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "rasterq",
	Name:      "retry_queue_depth",
	Help:      "Number of tiles currently awaiting a retry attempt.",
})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "rasterq",
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})

// HealthRecoveries tracks auto-recovery attempts.
var HealthRecoveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rasterq",
	Name:      "health_recoveries_total",
	Help:      "Total auto-recovery attempts per check.",
}, []string{"check"})
