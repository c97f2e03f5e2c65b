package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/tutu-network/rasterq/internal/domain"
	"github.com/tutu-network/rasterq/internal/infra/tiling"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Telemetry.Dir = t.TempDir()
	cfg.API.Port = 0 // unused directly in these tests
	cfg.Workers.Count = 1
	return cfg
}

func TestNewWithConfig_WiresAllComponents(t *testing.T) {
	d, err := NewWithConfig(testConfig(t))
	if err != nil {
		t.Fatalf("NewWithConfig() error: %v", err)
	}
	defer d.Close()

	if d.DB == nil {
		t.Error("DB should be wired when telemetry is enabled")
	}
	if d.Queue == nil || d.Retry == nil || d.Pool == nil || d.Server == nil {
		t.Error("core components should all be non-nil")
	}
	if d.Health == nil {
		t.Error("Health checker should be wired when DB is present")
	}
	if d.RunID == "" {
		t.Error("RunID should be populated")
	}
}

func TestNewWithConfig_RejectsUnknownPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dispatcher.Policy = "bogus"

	if _, err := NewWithConfig(cfg); err == nil {
		t.Fatal("expected an error for an unknown dispatcher policy")
	}
}

func TestNewWithConfig_TelemetryDisabledSkipsDBAndHealth(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.Enabled = false

	d, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig() error: %v", err)
	}
	defer d.Close()

	if d.DB != nil {
		t.Error("DB should be nil when telemetry is disabled")
	}
	if d.Health != nil {
		t.Error("Health should be nil when there is no telemetry store to check")
	}
}

func TestDaemon_PoolRunsAndDrainsRegisteredLayer(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dispatcher.ResetOnEmpty = true
	d, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig() error: %v", err)
	}
	defer d.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go d.Pool.Run(ctx)
	time.Sleep(5 * time.Millisecond) // let the pool reach its idle-poll loop

	if d.Queue == nil {
		t.Fatal("queue should be set")
	}

	d.Registry.Put("layer-1", domain.LayerPair{Active: tiling.NewMemoryLayer([]domain.Tile{
		domain.StaticTile{Identity: "t1"},
	})})

	// The emission hook records every dispatched tile in the telemetry store.
	for {
		n, err := d.DB.CountTileEvents()
		if err != nil {
			t.Fatalf("CountTileEvents() error: %v", err)
		}
		if n > 0 {
			break
		}
		select {
		case <-ctx.Done():
			t.Fatal("layer registered after Run was never dispatched")
		case <-time.After(time.Millisecond):
		}
	}
}
