// Package daemon wires the raster dispatcher's components into a runnable
// process: the priority queue, retry queue, worker pool, telemetry store,
// health checker, and HTTP API server.
package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/tutu-network/rasterq/internal/api"
	"github.com/tutu-network/rasterq/internal/domain"
	"github.com/tutu-network/rasterq/internal/health"
	"github.com/tutu-network/rasterq/internal/infra/metrics"
	"github.com/tutu-network/rasterq/internal/infra/sqlite"
	"github.com/tutu-network/rasterq/internal/infra/tiling"
	"github.com/tutu-network/rasterq/internal/infra/workers"
	"github.com/tutu-network/rasterq/internal/raster"
)

// Daemon is the rasterq runtime. It wires together the priority queue, the
// worker pool that drives it, the telemetry store, and the HTTP API.
type Daemon struct {
	Config   Config
	RunID    string
	DB       *sqlite.DB
	Registry *tiling.Registry
	Queue    *raster.RasterTilePriorityQueue
	Retry    *raster.RetryQueue
	Pool     *workers.Pool
	Health   *health.Checker
	Server   *api.Server

	cancel context.CancelFunc
}

// New loads the on-disk config and builds a Daemon from it.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig builds a Daemon from an explicit configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	policy, err := ParsePolicy(cfg.Dispatcher.Policy)
	if err != nil {
		return nil, fmt.Errorf("dispatcher policy: %w", err)
	}

	var db *sqlite.DB
	if cfg.Telemetry.Enabled {
		db, err = sqlite.Open(cfg.Telemetry.Dir)
		if err != nil {
			return nil, fmt.Errorf("open telemetry store: %w", err)
		}
	}

	registry := tiling.NewRegistry()
	queue := raster.Build(registry.Pairs(), policy)

	retryCfg := raster.DefaultRetryConfig()
	retryCfg.MaxRetries = cfg.Workers.MaxRetries
	if d, err := time.ParseDuration(cfg.Workers.BaseDelay); err == nil {
		retryCfg.BaseDelay = d
	}
	if d, err := time.ParseDuration(cfg.Workers.MaxDelay); err == nil {
		retryCfg.MaxDelay = d
	}
	retry := raster.NewRetryQueue(retryCfg)

	hooks := workers.Hooks{
		OnEmit: func(tile domain.Tile) {
			p := tile.PriorityForTreePriority(policy)
			metrics.TilesEmitted.WithLabelValues(p.Bin.String(), p.Resolution.String()).Inc()
			if db != nil {
				_ = db.RecordTileEvent(domain.TileEvent{
					TileID:     tile.ID(),
					Bin:        p.Bin,
					Resolution: p.Resolution,
					Policy:     policy,
					EmittedAt:  time.Now(),
				})
			}
		},
		OnFailure: func(tile domain.Tile, attempt int, err error) {
			metrics.RetryScheduled.Inc()
		},
		OnDropped: func(tile domain.Tile) {
			metrics.RetryExhausted.Inc()
		},
		OnIdleTick: func() {
			metrics.QueueDepth.Set(float64(queue.Len()))
			metrics.RetryQueueDepth.Set(float64(retry.Len()))
			if db != nil {
				_ = health.RecordHeartbeat(db)
			}
		},
	}

	pool := workers.NewPool(queue, retry, rasterize, cfg.Workers.Count, hooks)
	if cfg.Dispatcher.ResetOnEmpty {
		pool.EnableDynamicRegistry(registry)
	}

	var checker *health.Checker
	if db != nil {
		checker = health.NewChecker(db, pool.Busy, cfg.Workers.Count)
	}

	srv := api.NewServer(checker, queue, retry, registry, db, policy)

	return &Daemon{
		Config:   cfg,
		RunID:    uuid.NewString(),
		DB:       db,
		Registry: registry,
		Queue:    queue,
		Retry:    retry,
		Pool:     pool,
		Health:   checker,
		Server:   srv,
	}, nil
}

// rasterize simulates the work a real compositor's rasterizer would do: time
// proportional to resolution, with no failure injection by default. A real
// integration replaces this with a call into the GPU/CPU raster backend;
// workers.Pool only needs the Rasterizer signature.
func rasterize(ctx context.Context, tile domain.Tile) error {
	d := 2 * time.Millisecond
	if tile.Priority(domain.ActiveTree).Resolution == domain.HighResolution {
		d = 6 * time.Millisecond
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Serve starts the worker pool and HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Pool.Run(ctx)
	if d.Health != nil {
		go d.Health.Run(ctx)
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  time.Minute,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		if d.DB != nil {
			_ = d.DB.Close()
		}
	}()

	log.Printf("rasterq serving on http://%s (run %s, policy %s)", addr, d.RunID, d.Config.Dispatcher.Policy)

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources without starting an HTTP server.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
