// Package daemon wires the Cadencio store, services and HTTP API together
// and owns the on-disk configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ConfigFile is the configuration file name inside the home directory.
const ConfigFile = "config.toml"

// Config is the full daemon configuration.
type Config struct {
	API       APIConfig       `toml:"api"`
	Store     StoreConfig     `toml:"store"`
	Ledger    LedgerConfig    `toml:"ledger"`
	Insights  InsightsConfig  `toml:"insights"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// APIConfig configures the loopback HTTP server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port.
func (c APIConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// StoreConfig locates the database. An empty Dir means the home directory.
type StoreConfig struct {
	Dir string `toml:"dir"`
}

// LedgerConfig configures the ledger service.
type LedgerConfig struct {
	DefaultTimezone string `toml:"default_timezone"`
	SweepOnStartup  bool   `toml:"sweep_on_startup"`
}

// InsightsConfig sets the dashboard windows.
type InsightsConfig struct {
	HeatmapDays      int `toml:"heatmap_days"`
	DueWindowDays    int `toml:"due_window_days"`
	RecentActivities int `toml:"recent_activities"`
}

// TelemetryConfig toggles metrics and the in-memory tracer.
type TelemetryConfig struct {
	Metrics  bool `toml:"metrics"`
	Tracing  bool `toml:"tracing"`
	MaxSpans int  `toml:"max_spans"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 7420,
		},
		Ledger: LedgerConfig{
			DefaultTimezone: "UTC",
			SweepOnStartup:  true,
		},
		Insights: InsightsConfig{
			HeatmapDays:      90,
			DueWindowDays:    30,
			RecentActivities: 5,
		},
		Telemetry: TelemetryConfig{
			Metrics:  true,
			Tracing:  true,
			MaxSpans: 1000,
		},
	}
}

// Home returns $CADENCIO_HOME, or ~/.cadencio.
func Home() string {
	if h := os.Getenv("CADENCIO_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cadencio"
	}
	return filepath.Join(home, ".cadencio")
}

// LoadConfig reads home/config.toml over the defaults. A missing file is
// not an error.
func LoadConfig(home string) (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(home, ConfigFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.Store.Dir = home
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = home
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to home/config.toml.
func SaveConfig(home string, cfg Config) error {
	if err := os.MkdirAll(home, 0o700); err != nil {
		return fmt.Errorf("create home: %w", err)
	}
	f, err := os.Create(filepath.Join(home, ConfigFile))
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// Validate rejects values the daemon cannot run with.
func (c Config) Validate() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	switch c.Insights.HeatmapDays {
	case 30, 60, 90:
	default:
		return fmt.Errorf("insights.heatmap_days must be 30, 60 or 90, got %d", c.Insights.HeatmapDays)
	}
	if c.Insights.DueWindowDays < 0 || c.Insights.RecentActivities < 0 {
		return fmt.Errorf("insights windows must not be negative")
	}
	return nil
}
