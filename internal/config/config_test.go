package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "default config should be valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid http port",
			mutate:  func(c *Config) { c.Server.HTTPPort = 0 },
			wantErr: true,
		},
		{
			name:    "missing data path",
			mutate:  func(c *Config) { c.Data.Path = "" },
			wantErr: true,
		},
		{
			name:    "format not inferable",
			mutate:  func(c *Config) { c.Data.Path = "readings.parquet" },
			wantErr: true,
		},
		{
			name: "explicit format overrides extension",
			mutate: func(c *Config) {
				c.Data.Path = "readings.dat"
				c.Data.Format = "csv"
			},
			wantErr: false,
		},
		{
			name:    "unknown data timezone",
			mutate:  func(c *Config) { c.Data.Timezone = "Mars/Olympus" },
			wantErr: true,
		},
		{
			name:    "auth enabled without keys",
			mutate:  func(c *Config) { c.Auth.Enabled = true },
			wantErr: true,
		},
		{
			name:    "invalid logging level",
			mutate:  func(c *Config) { c.Logging.Level = "invalid" },
			wantErr: true,
		},
		{
			name:    "invalid queue type",
			mutate:  func(c *Config) { c.Queue.Type = "rabbitmq" },
			wantErr: true,
		},
		{
			name:    "nats without url",
			mutate:  func(c *Config) { c.Queue.Type = "nats" },
			wantErr: true,
		},
		{
			name: "report with bad time",
			mutate: func(c *Config) {
				c.Report.Enabled = true
				c.Report.At = "7am"
				c.Queue.Type = "nats"
				c.Queue.URL = "nats://localhost:4222"
			},
			wantErr: true,
		},
		{
			name:    "report on memory queue",
			mutate:  func(c *Config) { c.Report.Enabled = true },
			wantErr: true,
		},
		{
			name: "report on explicit memory queue",
			mutate: func(c *Config) {
				c.Report.Enabled = true
				c.Queue.Type = "memory"
			},
			wantErr: true,
		},
		{
			name: "report on redis queue",
			mutate: func(c *Config) {
				c.Report.Enabled = true
				c.Queue.Type = "redis"
				c.Queue.URL = "localhost:6379"
			},
			wantErr: false,
		},
		{
			name: "breaker with zero failures",
			mutate: func(c *Config) {
				c.Breaker.ConsecutiveFailures = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.HTTPPort != 8080 {
		t.Errorf("expected HTTPPort 8080, got %d", cfg.Server.HTTPPort)
	}

	if cfg.Data.TimestampColumn != "AC_Timestamp" {
		t.Errorf("expected timestamp column AC_Timestamp, got %s", cfg.Data.TimestampColumn)
	}

	if cfg.Queue.Subject != "homedash.reports.daily" {
		t.Errorf("unexpected report subject %s", cfg.Queue.Subject)
	}

	if cfg.Report.Room != "LivingRoom" {
		t.Errorf("expected report room LivingRoom, got %s", cfg.Report.Room)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  http_port: 9090
data:
  path: /srv/data/home.xlsx
  timezone: "+09:00"
report:
  enabled: true
  at: "06:30"
queue:
  type: nats
  url: nats://localhost:4222
breaker:
  timeout: 45s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("HOMEDASH_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.HTTPPort != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.HTTPPort)
	}
	if cfg.Data.Path != "/srv/data/home.xlsx" {
		t.Errorf("unexpected data path %s", cfg.Data.Path)
	}
	if !cfg.Report.Enabled || cfg.Report.At != "06:30" {
		t.Errorf("unexpected report config %+v", cfg.Report)
	}
	if cfg.Breaker.Timeout != 45*time.Second {
		t.Errorf("expected breaker timeout 45s, got %v", cfg.Breaker.Timeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("env override not applied, level = %s", cfg.Logging.Level)
	}
	// defaults survive partial files
	if cfg.Data.TimestampColumn != "AC_Timestamp" {
		t.Errorf("default timestamp column lost: %s", cfg.Data.TimestampColumn)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  http_port: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected validation error for port 0")
	}
}

func TestConfigHelpers(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.IsDevelopment() {
		t.Error("default config should not be development mode")
	}

	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "console"

	if !cfg.IsDevelopment() {
		t.Error("config with debug/console should be development mode")
	}

	if addr := cfg.GetServerAddress(); addr != "0.0.0.0:8080" {
		t.Errorf("expected 0.0.0.0:8080, got %s", addr)
	}

	cfg.Server.CORSOrigins = " https://a.example , ,https://b.example"
	if got := cfg.Server.CORSOriginList(); got != "https://a.example,https://b.example" {
		t.Errorf("CORSOriginList = %q", got)
	}
}

func TestParseTimezone(t *testing.T) {
	tests := []struct {
		in         string
		wantOffset int
		wantErr    bool
	}{
		{"UTC", 0, false},
		{"+09:00", 9 * 3600, false},
		{"-05:30", -(5*3600 + 30*60), false},
		{"+25:00", 0, true},
		{"Nowhere/City", 0, true},
	}

	ref := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			loc, err := ParseTimezone(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimezone(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if _, off := ref.In(loc).Zone(); off != tt.wantOffset {
				t.Errorf("offset = %d, want %d", off, tt.wantOffset)
			}
		})
	}
}

func TestDataLocationFallback(t *testing.T) {
	d := DataConfig{Timezone: "bogus"}
	if d.Location() != time.UTC {
		t.Error("invalid timezone must fall back to UTC")
	}
	r := ReportConfig{}
	tokyo := time.FixedZone("JST", 9*3600)
	if r.Location(tokyo) != tokyo {
		t.Error("empty report timezone must use fallback")
	}
}
