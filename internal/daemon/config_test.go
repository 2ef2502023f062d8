package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 7420 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 7420)
	}
	if cfg.Ledger.DefaultTimezone != "UTC" {
		t.Errorf("Ledger.DefaultTimezone = %q, want %q", cfg.Ledger.DefaultTimezone, "UTC")
	}
	if !cfg.Ledger.SweepOnStartup {
		t.Error("Ledger.SweepOnStartup should be true by default")
	}
	if cfg.Insights.HeatmapDays != 90 {
		t.Errorf("Insights.HeatmapDays = %d, want %d", cfg.Insights.HeatmapDays, 90)
	}
	if cfg.Insights.RecentActivities != 5 {
		t.Errorf("Insights.RecentActivities = %d, want %d", cfg.Insights.RecentActivities, 5)
	}
	if !cfg.Telemetry.Metrics || !cfg.Telemetry.Tracing {
		t.Error("telemetry should be enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	home := t.TempDir()
	cfg, err := LoadConfig(home)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Store.Dir != home {
		t.Errorf("Store.Dir = %q, want %q", cfg.Store.Dir, home)
	}
	if cfg.API.Port != 7420 {
		t.Errorf("API.Port = %d, want default", cfg.API.Port)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	home := t.TempDir()
	body := `
[api]
port = 9000

[ledger]
default_timezone = "Asia/Ho_Chi_Minh"
sweep_on_startup = false

[insights]
heatmap_days = 30
`
	if err := os.WriteFile(filepath.Join(home, ConfigFile), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(home)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("API.Port = %d, want 9000", cfg.API.Port)
	}
	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want default kept", cfg.API.Host)
	}
	if cfg.Ledger.DefaultTimezone != "Asia/Ho_Chi_Minh" {
		t.Errorf("Ledger.DefaultTimezone = %q", cfg.Ledger.DefaultTimezone)
	}
	if cfg.Ledger.SweepOnStartup {
		t.Error("Ledger.SweepOnStartup should be overridden to false")
	}
	if cfg.Insights.HeatmapDays != 30 {
		t.Errorf("Insights.HeatmapDays = %d, want 30", cfg.Insights.HeatmapDays)
	}
	if cfg.Insights.DueWindowDays != 30 {
		t.Errorf("Insights.DueWindowDays = %d, want default 30", cfg.Insights.DueWindowDays)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad toml", "[api\nport = "},
		{"bad port", "[api]\nport = 70000\n"},
		{"bad heatmap", "[insights]\nheatmap_days = 45\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			if err := os.WriteFile(filepath.Join(home, ConfigFile), []byte(tt.body), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfig(home); err == nil {
				t.Error("LoadConfig() should fail")
			}
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	home := filepath.Join(t.TempDir(), "nested")
	cfg := DefaultConfig()
	cfg.Store.Dir = home
	cfg.API.Port = 8123
	cfg.Telemetry.Tracing = false

	if err := SaveConfig(home, cfg); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}
	got, err := LoadConfig(home)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if got != cfg {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestHome_Env(t *testing.T) {
	t.Setenv("CADENCIO_HOME", "/tmp/cadencio-test")
	if got := Home(); got != "/tmp/cadencio-test" {
		t.Errorf("Home() = %q", got)
	}
}
