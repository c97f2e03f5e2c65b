// Package daemon manages the rasterq dispatcher daemon's lifecycle and
// configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/tutu-network/rasterq/internal/domain"
)

// Config holds all daemon configuration.
type Config struct {
	Dispatcher DispatcherConfig `toml:"dispatcher"`
	Workers    WorkersConfig    `toml:"workers"`
	API        APIConfig        `toml:"api"`
	Telemetry  TelemetryConfig  `toml:"telemetry"`
	Logging    LoggingConfig    `toml:"logging"`
}

// DispatcherConfig controls the raster tile priority queue's policy.
type DispatcherConfig struct {
	// Policy is one of "smoothness", "new_content", "same_priority".
	Policy       string `toml:"policy"`
	ResetOnEmpty bool   `toml:"reset_on_empty"`
}

// WorkersConfig controls the rasterizing worker pool.
type WorkersConfig struct {
	Count      int    `toml:"count"`
	MaxRetries int    `toml:"max_retries"`
	BaseDelay  string `toml:"base_delay"`
	MaxDelay   string `toml:"max_delay"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// TelemetryConfig controls the SQLite tile-event log.
type TelemetryConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	homeDir := rasterqHome()
	return Config{
		Dispatcher: DispatcherConfig{
			Policy:       "smoothness",
			ResetOnEmpty: false,
		},
		Workers: WorkersConfig{
			Count:      max(1, runtime.NumCPU()-1),
			MaxRetries: 10,
			BaseDelay:  "50ms",
			MaxDelay:   "30s",
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 7861,
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
			Dir:     filepath.Join(homeDir, "telemetry"),
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(homeDir, "rasterq.log"),
		},
	}
}

// LoadConfig reads config from ~/.rasterq/config.toml, falling back to
// defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(rasterqHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet — use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to ~/.rasterq/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(rasterqHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// rasterqHome returns the rasterq data directory.
func rasterqHome() string {
	if env := os.Getenv("RASTERQ_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".rasterq")
}

// RasterqHome is exported for use by other packages.
func RasterqHome() string {
	return rasterqHome()
}

// ParsePolicy maps a config string to the TreePriority policy it names.
func ParsePolicy(s string) (domain.TreePriority, error) {
	switch s {
	case "smoothness":
		return domain.SmoothnessTakesPriority, nil
	case "new_content":
		return domain.NewContentTakesPriority, nil
	case "same_priority":
		return domain.SamePriorityForBothTrees, nil
	default:
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownTreePriority, s)
	}
}
